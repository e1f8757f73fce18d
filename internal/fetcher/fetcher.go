// Package fetcher reads dataset and topology sources over HTTP, FTP and the
// local filesystem, and parses CSV, XLSX and JSON payloads.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for reading map and dataset sources.
type Fetcher interface {
	// Download fetches the URL and returns the body. Non-2xx responses
	// return a *model.FetchError.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadIfChanged fetches the URL only if the ETag has changed.
	// Returns (body, newETag, changed, error). If not changed, body is nil and changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)

	// Exists probes the URL without reading the body (HEAD for HTTP).
	Exists(ctx context.Context, url string) (bool, error)
}
