package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/model"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher downloads dataset files over anonymous FTP.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("empty path in ftp url")
	}

	return host, path, nil
}

// ftpConnReader closes the FTP response and the control connection together.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "quit ftp connection")
	}
	return nil
}

func (f *FTPFetcher) connect(ctx context.Context, rawURL string) (*ftp.ServerConn, string, error) {
	host, path, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, "", &model.FetchError{URL: rawURL, Err: err}
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, "", &model.FetchError{URL: rawURL, Err: eris.Wrap(err, "ftp dial")}
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		_ = conn.Quit()
		return nil, "", &model.FetchError{URL: rawURL, Err: eris.Wrap(err, "ftp login")}
	}
	return conn, path, nil
}

// Download retrieves the file. The caller must close the returned reader to
// release the FTP connection.
func (f *FTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	conn, path, err := f.connect(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, &model.FetchError{URL: rawURL, Status: 404, Err: eris.Wrap(err, "ftp retrieve")}
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// DownloadIfChanged always downloads; FTP offers no validator we rely on.
func (f *FTPFetcher) DownloadIfChanged(ctx context.Context, rawURL string, _ string) (io.ReadCloser, string, bool, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, "", false, err
	}
	return body, "", true, nil
}

// Exists asks the server for the file size.
func (f *FTPFetcher) Exists(ctx context.Context, rawURL string) (bool, error) {
	conn, path, err := f.connect(ctx, rawURL)
	if err != nil {
		return false, err
	}
	defer conn.Quit() //nolint:errcheck

	if _, err := conn.FileSize(path); err != nil {
		return false, nil
	}
	return true, nil
}
