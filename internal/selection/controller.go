package selection

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/join"
	"github.com/sells-group/choropleth/internal/model"
	"github.com/sells-group/choropleth/internal/render"
	"github.com/sells-group/choropleth/internal/topology"
)

// TopologySource loads topologies by path.
type TopologySource interface {
	Load(ctx context.Context, path string) (*model.Topology, error)
}

// Prober checks whether a drill-down path exists.
type Prober = topology.Prober

// Options configures a Controller.
type Options struct {
	// DefaultMap overrides the collection's default world map.
	DefaultMap string
	Collection topology.Collection
}

// Controller is the single writer of the selection state. Every render takes
// a sequence token; only the latest token may replace the chart.
type Controller struct {
	topologies TopologySource
	prober     Prober
	renderer   *render.Controller
	collection topology.Collection
	defaultMap string
	datasets   []model.DatasetRecord

	seq atomic.Uint64

	mu      sync.Mutex
	state   State
	applied uint64
	topo    *model.Topology
	idx     *join.Index
}

// New creates a Controller over loaded datasets.
func New(datasets []model.DatasetRecord, topologies TopologySource, prober Prober, renderer *render.Controller, opts Options) *Controller {
	c := &Controller{
		topologies: topologies,
		prober:     prober,
		renderer:   renderer,
		collection: opts.Collection,
		defaultMap: opts.DefaultMap,
		datasets:   datasets,
	}
	if c.defaultMap == "" {
		c.defaultMap = c.collection.DefaultMap()
	}
	return c
}

// DefaultMap returns the topology rendered by Start.
func (c *Controller) DefaultMap() string {
	return c.defaultMap
}

// Datasets returns the loaded datasets in configuration order.
func (c *Controller) Datasets() []model.DatasetRecord {
	return c.datasets
}

// State returns a snapshot of the selection.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Topology returns the active topology, or nil before the first render.
func (c *Controller) Topology() *model.Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topo
}

// Start renders the default map with the current dataset selection.
func (c *Controller) Start(ctx context.Context) (State, error) {
	return c.apply(ctx, c.defaultMap, PhaseIdle)
}

// SetDatasets replaces the dataset selection and re-renders the active
// topology. Unknown keys are dropped; order is preserved. The selection is
// kept even when the render fails or is superseded.
func (c *Controller) SetDatasets(ctx context.Context, keys []string) (State, error) {
	keys = c.knownKeys(keys)
	c.mu.Lock()
	c.state.SelectedDatasetKeys = keys
	st := c.state.clone()
	c.mu.Unlock()
	return c.apply(ctx, c.activePath(st), st.Phase)
}

// ToggleDataset checks or unchecks one dataset and re-renders.
func (c *Controller) ToggleDataset(ctx context.Context, key string, on bool) (State, error) {
	if model.FindDataset(c.datasets, key) == nil {
		return c.State(), &model.NotFoundError{What: "dataset", Key: key}
	}
	c.mu.Lock()
	keys := slices.DeleteFunc(slices.Clone(c.state.SelectedDatasetKeys), func(k string) bool { return k == key })
	if on {
		keys = append(keys, key)
	}
	c.state.SelectedDatasetKeys = keys
	st := c.state.clone()
	c.mu.Unlock()
	return c.apply(ctx, c.activePath(st), st.Phase)
}

// SelectTopology makes path the active topology.
func (c *Controller) SelectTopology(ctx context.Context, path string) (State, error) {
	if path == "" {
		return c.State(), eris.New("selection: empty topology path")
	}
	return c.apply(ctx, path, PhaseTopologySelected)
}

// SelectCountry drills down into a region. Candidate paths are probed in
// order and the first that exists becomes the active topology. When none
// exists the live chart is focused on the region instead and the phase is
// unchanged. The returned path is empty in that case.
func (c *Controller) SelectCountry(ctx context.Context, region model.Region) (string, error) {
	log := zap.L().With(zap.String("component", "selection"), zap.String("region", region.Key))

	candidate, err := c.collection.Probe(ctx, c.prober, region)
	if err != nil {
		return "", eris.Wrap(err, "selection: probe cancelled")
	}
	if candidate != "" {
		log.Info("drilling down", zap.String("path", candidate))
		if _, err := c.apply(ctx, candidate, PhaseCountryDrillDown); err != nil {
			return "", err
		}
		return candidate, nil
	}

	log.Debug("no country topology, focusing")
	if err := c.renderer.Focus(region.Key); err != nil {
		return "", eris.Wrapf(err, "selection: focus %s", region.Key)
	}
	return "", nil
}

// SelectCountryByKey drills down into the active topology's region with the
// given key.
func (c *Controller) SelectCountryByKey(ctx context.Context, key string) (string, error) {
	region := model.Region{Key: key}
	for _, r := range topology.Regions(c.Topology()) {
		if r.Key == key {
			region = r
			break
		}
	}
	return c.SelectCountry(ctx, region)
}

// Regions lists the drill-down regions of a topology; an empty path means
// the active topology.
func (c *Controller) Regions(ctx context.Context, path string) ([]model.Region, error) {
	if path == "" {
		if t := c.Topology(); t != nil {
			return topology.Regions(t), nil
		}
		path = c.activePath(c.State())
	}
	t, err := c.topologies.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return topology.Regions(t), nil
}

// Legend lists the selected datasets in configuration order.
func (c *Controller) Legend() []LegendEntry {
	selected := c.State().SelectedDatasetKeys
	var out []LegendEntry
	for _, ds := range c.datasets {
		if slices.Contains(selected, ds.Key) {
			out = append(out, LegendEntry{Key: ds.Key, Name: ds.Name, Color: ds.Color})
		}
	}
	return out
}

func (c *Controller) activePath(st State) string {
	if st.ActiveTopologyPath != "" {
		return st.ActiveTopologyPath
	}
	return c.defaultMap
}

func (c *Controller) knownKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if model.FindDataset(c.datasets, k) == nil || slices.Contains(out, k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// apply loads the topology and renders the current dataset selection. Only
// the latest token may commit the chart, topology and phase; stale renders
// return render.ErrStale.
func (c *Controller) apply(ctx context.Context, path string, phase Phase) (State, error) {
	token := c.seq.Add(1)
	log := zap.L().With(zap.String("component", "selection"), zap.Uint64("token", token), zap.String("path", path))

	topo, err := c.topologies.Load(ctx, path)
	if err != nil {
		log.Warn("topology load failed, keeping previous map", zap.Error(err))
		return c.State(), err
	}

	c.mu.Lock()
	idx := c.idx
	if topo != c.topo || idx == nil {
		idx = join.NewIndex(topo.Features)
	}
	keys := slices.Clone(c.state.SelectedDatasetKeys)
	c.mu.Unlock()

	res, err := c.renderer.Render(ctx, render.Request{
		SelectedKeys: keys,
		Datasets:     c.datasets,
		Topology:     topo,
		Index:        idx,
		Current:      func() bool { return c.seq.Load() == token },
	})
	if err != nil {
		if errors.Is(err, render.ErrStale) {
			log.Debug("render superseded")
		} else {
			log.Warn("render failed, keeping previous map", zap.Error(err))
		}
		return c.State(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if token > c.applied {
		c.applied = token
		c.topo = topo
		c.idx = idx
		c.state.ActiveTopologyPath = path
		c.state.Phase = phase
		c.state.ActiveChart = res.ChartID
	}
	return c.state.clone(), nil
}
