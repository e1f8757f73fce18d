package fetcher

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/model"
)

// Mount maps a server path prefix onto a local directory, mirroring the
// static routes of the map server.
type Mount struct {
	Prefix string
	Dir    string
}

// MuxOptions configures a Mux.
type MuxOptions struct {
	// BaseURL, when set, resolves server-relative paths against a running
	// map server instead of the local mounts.
	BaseURL string
	Mounts  []Mount

	HTTP *HTTPFetcher
	FTP  *FTPFetcher
	File *FileFetcher
}

// Mux resolves source paths and dispatches to the fetcher for their scheme.
type Mux struct {
	baseURL string
	mounts  []Mount
	http    Fetcher
	ftp     Fetcher
	file    Fetcher
}

var _ Fetcher = (*Mux)(nil)

// NewMux creates a Mux. Nil backends disable their scheme.
func NewMux(opts MuxOptions) *Mux {
	mounts := make([]Mount, 0, len(opts.Mounts))
	for _, m := range opts.Mounts {
		prefix := "/" + strings.Trim(m.Prefix, "/")
		if prefix != "/" {
			prefix += "/"
		}
		mounts = append(mounts, Mount{Prefix: prefix, Dir: m.Dir})
	}
	// Longest prefix first.
	sort.SliceStable(mounts, func(i, j int) bool {
		return len(mounts[i].Prefix) > len(mounts[j].Prefix)
	})

	m := &Mux{baseURL: strings.TrimRight(opts.BaseURL, "/"), mounts: mounts}
	if opts.HTTP != nil {
		m.http = opts.HTTP
	}
	if opts.FTP != nil {
		m.ftp = opts.FTP
	}
	if opts.File != nil {
		m.file = opts.File
	}
	return m
}

func schemeOf(raw string) string {
	i := strings.Index(raw, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(raw[:i])
}

// Resolve turns a dataset or topology path into a fetchable URL.
func (m *Mux) Resolve(p string) string {
	if schemeOf(p) != "" {
		return p
	}

	rooted := path.Clean("/" + strings.TrimLeft(p, "/"))
	if m.baseURL != "" {
		return m.baseURL + rooted
	}

	for _, mnt := range m.mounts {
		if mnt.Prefix != "/" && !strings.HasPrefix(rooted+"/", mnt.Prefix) {
			continue
		}
		rel := strings.TrimPrefix(rooted, strings.TrimSuffix(mnt.Prefix, "/"))
		local := filepath.Join(mnt.Dir, filepath.FromSlash(strings.TrimLeft(rel, "/")))
		if abs, err := filepath.Abs(local); err == nil {
			local = abs
		}
		return "file://" + filepath.ToSlash(local)
	}
	return p
}

func (m *Mux) backend(resolved string) (Fetcher, error) {
	var f Fetcher
	switch schemeOf(resolved) {
	case "http", "https":
		f = m.http
	case "ftp":
		f = m.ftp
	case "", "file":
		f = m.file
	}
	if f == nil {
		return nil, &model.FetchError{URL: resolved, Err: eris.Errorf("unsupported source scheme %q", schemeOf(resolved))}
	}
	return f, nil
}

// Download resolves the path and downloads it.
func (m *Mux) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	u := m.Resolve(p)
	f, err := m.backend(u)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, u)
}

// DownloadIfChanged resolves the path and revalidates it against etag.
func (m *Mux) DownloadIfChanged(ctx context.Context, p string, etag string) (io.ReadCloser, string, bool, error) {
	u := m.Resolve(p)
	f, err := m.backend(u)
	if err != nil {
		return nil, "", false, err
	}
	return f.DownloadIfChanged(ctx, u, etag)
}

// Exists resolves the path and probes it.
func (m *Mux) Exists(ctx context.Context, p string) (bool, error) {
	u := m.Resolve(p)
	f, err := m.backend(u)
	if err != nil {
		return false, err
	}
	return f.Exists(ctx, u)
}
