package main

import (
	"context"
	"io"

	"github.com/sells-group/choropleth/internal/config"
	"github.com/sells-group/choropleth/internal/dataset"
	"github.com/sells-group/choropleth/internal/fetcher"
	"github.com/sells-group/choropleth/internal/model"
	"github.com/sells-group/choropleth/internal/render"
	"github.com/sells-group/choropleth/internal/selection"
	"github.com/sells-group/choropleth/internal/server"
	"github.com/sells-group/choropleth/internal/topology"
)

// appEnv holds the shared dependencies of the map commands.
type appEnv struct {
	Config     *config.Config
	Fetcher    *fetcher.Mux
	Topologies *topology.Loader
	Collection topology.Collection
}

// newEnv wires the fetchers and loaders from configuration.
func newEnv(c *config.Config) *appEnv {
	f := newFetcher(c)
	return &appEnv{
		Config:     c,
		Fetcher:    f,
		Topologies: topology.NewLoader(f),
		Collection: topology.Collection{Root: c.Map.CollectionRoot},
	}
}

// newFetcher builds the path resolver. Server paths map onto the same
// directories the serve command exposes.
func newFetcher(c *config.Config) *fetcher.Mux {
	return fetcher.NewMux(fetcher.MuxOptions{
		BaseURL: c.Fetch.BaseURL,
		Mounts: []fetcher.Mount{
			{Prefix: "/", Dir: c.Server.PublicDir},
			{Prefix: server.AssetsPrefix, Dir: c.Server.AssetsDir},
		},
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  c.Fetch.UserAgent,
			Timeout:    c.Fetch.Timeout(),
			MaxRetries: c.Fetch.MaxRetries,
		}),
		FTP:  fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: c.Fetch.FTPTimeout()}),
		File: fetcher.NewFileFetcher(),
	})
}

// defaultMap is the map rendered on start.
func (e *appEnv) defaultMap() string {
	if e.Config.Map.Default != "" {
		return e.Config.Map.Default
	}
	return e.Collection.DefaultMap()
}

// loadDatasets loads the configured catalog. Any failing dataset fails the
// whole load.
func (e *appEnv) loadDatasets(ctx context.Context) ([]model.DatasetRecord, error) {
	catalog, err := e.Config.DatasetCatalog()
	if err != nil {
		return nil, err
	}
	loader := dataset.NewLoader(e.Fetcher, dataset.WithConcurrency(e.Config.Fetch.Concurrency))
	return loader.Load(ctx, catalog)
}

// newSelection creates a selection controller rendering chart events to w.
func (e *appEnv) newSelection(datasets []model.DatasetRecord, w io.Writer) (*selection.Controller, *render.Controller) {
	renderer := render.NewController(render.NewJSONSurface(w))
	sel := selection.New(datasets, e.Topologies, e.Fetcher, renderer, selection.Options{
		DefaultMap: e.Config.Map.Default,
		Collection: e.Collection,
	})
	return sel, renderer
}
