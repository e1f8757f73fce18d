package render

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/model"
)

// Surface creates charts from configurations.
type Surface interface {
	Create(ctx context.Context, cfg *ChartConfig) (Chart, error)
}

// Chart is a live chart instance.
type Chart interface {
	ID() string
	// Focus pans and zooms to a region.
	Focus(regionKey string) error
	// Destroy releases the chart. Destroying twice is a no-op.
	Destroy() error
}

// JSONSurface writes chart lifecycle events as JSON lines: the options
// document on create, then focus and destroy events.
type JSONSurface struct {
	mu   sync.Mutex
	w    io.Writer
	live map[string]bool
}

var _ Surface = (*JSONSurface)(nil)

// NewJSONSurface creates a surface writing to w.
func NewJSONSurface(w io.Writer) *JSONSurface {
	return &JSONSurface{w: w, live: make(map[string]bool)}
}

// Event is one JSON line written by the surface.
type Event struct {
	Event   string       `json:"event"`
	Chart   string       `json:"chart"`
	Options *ChartConfig `json:"options,omitempty"`
	Region  string       `json:"region,omitempty"`
	Bounds  []float64    `json:"bounds,omitempty"`
}

func (s *JSONSurface) emit(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "render: encode event")
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "render: write event")
	}
	return nil
}

// Create writes the options document and registers a live chart.
func (s *JSONSurface) Create(ctx context.Context, cfg *ChartConfig) (Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if err := s.emit(Event{Event: "create", Chart: id, Options: cfg}); err != nil {
		return nil, err
	}
	s.live[id] = true
	return &jsonChart{id: id, cfg: cfg, surface: s}, nil
}

// Live returns the number of charts created and not yet destroyed.
func (s *JSONSurface) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

type jsonChart struct {
	id      string
	cfg     *ChartConfig
	surface *JSONSurface
}

func (c *jsonChart) ID() string { return c.id }

func (c *jsonChart) Focus(regionKey string) error {
	bounds, ok := c.cfg.RegionBounds(regionKey)
	if !ok {
		return &model.NotFoundError{What: "region", Key: regionKey}
	}

	s := c.surface
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live[c.id] {
		return &model.NotFoundError{What: "chart", Key: c.id}
	}

	ev := Event{Event: "focus", Chart: c.id, Region: regionKey}
	if bounds != nil && !bounds.IsEmpty() {
		ev.Bounds = []float64{bounds.Min(0), bounds.Min(1), bounds.Max(0), bounds.Max(1)}
	}
	return s.emit(ev)
}

func (c *jsonChart) Destroy() error {
	s := c.surface
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live[c.id] {
		return nil
	}
	delete(s.live, c.id)
	return s.emit(Event{Event: "destroy", Chart: c.id})
}
