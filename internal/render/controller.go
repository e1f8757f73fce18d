package render

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/join"
	"github.com/sells-group/choropleth/internal/model"
)

// ErrStale is returned when a render is superseded before it is applied.
var ErrStale = errors.New("render: superseded by a newer request")

// Request is one render of a selection against a topology.
type Request struct {
	SelectedKeys []string
	Datasets     []model.DatasetRecord
	Topology     *model.Topology
	// Index is the topology's key index; built on demand when nil.
	Index *join.Index
	// Current reports whether the request is still the latest one. It is
	// checked right before the chart is replaced.
	Current func() bool
}

// Result describes an applied render.
type Result struct {
	ChartID string
	Config  *ChartConfig
	Matches []join.MatchResult
}

// Controller owns the single live chart on a surface.
type Controller struct {
	surface Surface

	mu     sync.Mutex
	chart  Chart
	config *ChartConfig
}

// NewController creates a Controller drawing on surface.
func NewController(surface Surface) *Controller {
	return &Controller{surface: surface}
}

// Render builds the configuration and replaces the live chart with it. If
// anything fails before the old chart is destroyed, the old chart stays.
func (c *Controller) Render(ctx context.Context, req Request) (*Result, error) {
	log := zap.L().With(zap.String("component", "render"))

	if req.Topology == nil {
		return nil, eris.New("render: no topology")
	}
	idx := req.Index
	if idx == nil {
		idx = join.NewIndex(req.Topology.Features)
	}

	matches := make([]join.MatchResult, 0, len(req.Datasets))
	for i := range req.Datasets {
		m := idx.ComputeMatch(&req.Datasets[i])
		log.Debug("dataset match",
			zap.String("dataset", m.Dataset),
			zap.Int("total", m.Total),
			zap.Int("matched", m.Matched))
		matches = append(matches, m)
	}

	cfg, err := BuildConfig(req.SelectedKeys, req.Datasets, req.Topology, idx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "render: cancelled")
	}
	if req.Current != nil && !req.Current() {
		return nil, ErrStale
	}

	if c.chart != nil {
		if err := c.chart.Destroy(); err != nil {
			log.Warn("render: destroy previous chart", zap.String("chart", c.chart.ID()), zap.Error(err))
		}
		c.chart = nil
		c.config = nil
	}

	chart, err := c.surface.Create(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "render: create chart")
	}
	c.chart = chart
	c.config = cfg

	log.Info("chart rendered",
		zap.String("chart", chart.ID()),
		zap.String("topology", req.Topology.Path),
		zap.String("primary", cfg.Primary),
		zap.Int("series", len(cfg.Series)),
		zap.Int("points", len(cfg.ValueSeries().Data)))

	return &Result{ChartID: chart.ID(), Config: cfg, Matches: matches}, nil
}

// Focus pans the live chart to a region.
func (c *Controller) Focus(regionKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chart == nil {
		return &model.NotFoundError{What: "chart", Key: regionKey}
	}
	return c.chart.Focus(regionKey)
}

// Chart returns the live chart, or nil.
func (c *Controller) Chart() Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chart
}

// Config returns the configuration of the live chart, or nil.
func (c *Controller) Config() *ChartConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Close destroys the live chart.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chart == nil {
		return nil
	}
	err := c.chart.Destroy()
	c.chart = nil
	c.config = nil
	return err
}
