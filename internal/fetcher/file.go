package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/model"
)

// FileFetcher reads sources from the local filesystem. It accepts file://
// URLs and plain OS paths.
type FileFetcher struct{}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// localPath converts a file:// URL into an OS path. Plain paths pass through.
func localPath(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "file://") {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "parse file url")
	}
	if u.Path == "" {
		return "", eris.Errorf("empty path in file url %q", rawURL)
	}
	return u.Path, nil
}

func (f *FileFetcher) open(rawURL string) (*os.File, os.FileInfo, error) {
	path, err := localPath(rawURL)
	if err != nil {
		return nil, nil, &model.FetchError{URL: rawURL, Err: err}
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &model.FetchError{URL: rawURL, Status: 404, Err: err}
		}
		return nil, nil, &model.FetchError{URL: rawURL, Err: err}
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, &model.FetchError{URL: rawURL, Err: err}
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, &model.FetchError{URL: rawURL, Status: 404, Err: eris.New("is a directory")}
	}
	return file, info, nil
}

// Download opens the file for reading.
func (f *FileFetcher) Download(_ context.Context, rawURL string) (io.ReadCloser, error) {
	file, _, err := f.open(rawURL)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// DownloadIfChanged uses modification time and size as the ETag.
func (f *FileFetcher) DownloadIfChanged(_ context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error) {
	file, info, err := f.open(rawURL)
	if err != nil {
		return nil, "", false, err
	}
	tag := fileETag(info)
	if etag != "" && etag == tag {
		_ = file.Close()
		return nil, etag, false, nil
	}
	return file, tag, true, nil
}

// Exists reports whether a regular file is present at the path.
func (f *FileFetcher) Exists(_ context.Context, rawURL string) (bool, error) {
	path, err := localPath(rawURL)
	if err != nil {
		return false, &model.FetchError{URL: rawURL, Err: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &model.FetchError{URL: rawURL, Err: err}
	}
	return !info.IsDir(), nil
}

func fileETag(info os.FileInfo) string {
	return fmt.Sprintf(`"%x-%x"`, info.ModTime().UnixNano(), info.Size())
}
