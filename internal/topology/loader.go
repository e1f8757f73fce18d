package topology

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/fetcher"
	"github.com/sells-group/choropleth/internal/model"
)

// resolver is implemented by fetchers that map server paths to URLs.
type resolver interface {
	Resolve(p string) string
}

// Loader fetches and decodes topologies, revalidating cached documents by
// ETag.
type Loader struct {
	fetcher fetcher.Fetcher

	mu    sync.Mutex
	cache map[string]*model.Topology
}

// NewLoader creates a Loader reading documents through f.
func NewLoader(f fetcher.Fetcher) *Loader {
	return &Loader{fetcher: f, cache: make(map[string]*model.Topology)}
}

func (l *Loader) cached(p string) *model.Topology {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache[p]
}

// Load fetches the topology at p. A fetch failure returns a
// *model.FetchError and a malformed document a *model.ParseError.
func (l *Loader) Load(ctx context.Context, p string) (*model.Topology, error) {
	log := zap.L().With(zap.String("component", "topology"), zap.String("path", p))

	if isShapefile(p) {
		return l.loadShapefile(p)
	}

	prev := l.cached(p)
	var etag string
	if prev != nil {
		etag = prev.ETag
	}

	body, newTag, changed, err := l.fetcher.DownloadIfChanged(ctx, p, etag)
	if err != nil {
		return nil, eris.Wrapf(err, "topology %s", p)
	}
	if !changed {
		if body != nil {
			_ = body.Close()
		}
		if prev == nil {
			return nil, &model.FetchError{URL: p, Status: 304}
		}
		log.Debug("topology not modified")
		return prev, nil
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(&model.FetchError{URL: p, Err: err}, "topology %s", p)
	}

	t, err := Decode(p, data)
	if err != nil {
		return nil, err
	}
	t.ETag = newTag
	for _, d := range t.Diagnostics {
		log.Warn("topology diagnostic", zap.String("detail", d))
	}

	if newTag != "" {
		l.mu.Lock()
		l.cache[p] = t
		l.mu.Unlock()
	}
	log.Debug("topology loaded", zap.String("format", t.Format), zap.Int("features", len(t.Features)))
	return t, nil
}

// Decode parses a map document. FeatureCollections are read as GeoJSON and
// any other JSON object as TopoJSON.
func Decode(p string, data []byte) (*model.Topology, error) {
	var head struct {
		Type string `json:"type"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &model.ParseError{Source: p, Err: eris.New("document is not a JSON object")}
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return nil, &model.ParseError{Source: p, Err: err}
	}
	if head.Type == "FeatureCollection" {
		return decodeGeoJSON(p, trimmed)
	}
	return decodeTopoJSON(p, trimmed)
}

func isShapefile(p string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.EqualFold(path.Ext(p), ".shp")
}

func (l *Loader) loadShapefile(p string) (*model.Topology, error) {
	u := p
	if r, ok := l.fetcher.(resolver); ok {
		u = r.Resolve(p)
	}
	local := u
	switch {
	case strings.HasPrefix(u, "file://"):
		local = strings.TrimPrefix(u, "file://")
	case strings.Contains(u, "://"):
		return nil, &model.FetchError{URL: u, Err: eris.New("shapefiles must be local")}
	}

	info, err := os.Stat(local)
	if err != nil || info.IsDir() {
		return nil, &model.FetchError{URL: u, Status: 404}
	}
	return decodeShapefile(p, local)
}

// List fetches a topology list: a JSON array of topology paths.
func (l *Loader) List(ctx context.Context, p string) ([]string, error) {
	body, err := l.fetcher.Download(ctx, p)
	if err != nil {
		return nil, eris.Wrapf(err, "topology list %s", p)
	}
	defer body.Close() //nolint:errcheck

	paths, err := fetcher.CollectJSONArray[string](ctx, body)
	if err != nil {
		return nil, &model.ParseError{Source: p, Err: err}
	}
	return paths, nil
}
