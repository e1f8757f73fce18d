// Package render turns datasets and a topology into a chart configuration
// and keeps a single live chart on a rendering surface.
package render

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/choropleth/internal/join"
	"github.com/sells-group/choropleth/internal/model"
)

// Chart palette.
const (
	BorderColor = "#c8c8c8"
	NullColor   = "#f2f2f2"
	HoverColor  = "#a4edba"
)

// ColorStops is the sequential blue scale of the value layer.
var ColorStops = []ColorStop{{0, "#f7fbff"}, {0.5, "#6baed6"}, {1, "#08306b"}}

// ColorStop is a position on the color axis and its color.
type ColorStop struct {
	Position float64
	Color    string
}

// MarshalJSON encodes a stop as a [position, color] pair.
func (s ColorStop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Position, s.Color})
}

// ChartConfig is a Highcharts Maps options document plus the per-region data
// the controller needs after the chart is created.
type ChartConfig struct {
	Chart         ChartOptions   `json:"chart"`
	Title         Text           `json:"title"`
	Subtitle      Text           `json:"subtitle"`
	MapNavigation MapNavigation  `json:"mapNavigation"`
	ColorAxis     ColorAxis      `json:"colorAxis"`
	Series        []Series       `json:"series"`
	Tooltip       TooltipOptions `json:"tooltip"`

	// Primary is the key of the dataset driving the color scale.
	Primary string `json:"-"`
	// Selected holds the selected dataset keys that resolved to datasets.
	Selected []string `json:"-"`

	regions  map[string]regionInfo
	tooltips map[string]*Tooltip
}

type regionInfo struct {
	name   string
	bounds *geom.Bounds
}

// ChartOptions holds the map document and chart chrome.
type ChartOptions struct {
	Map             json.RawMessage `json:"map,omitempty"`
	BackgroundColor string          `json:"backgroundColor"`
	BorderWidth     int             `json:"borderWidth"`
}

// Text is a title or subtitle; a nil Text hides it.
type Text struct {
	Text *string `json:"text"`
}

// MapNavigation enables the zoom buttons.
type MapNavigation struct {
	Enabled       bool          `json:"enabled"`
	ButtonOptions ButtonOptions `json:"buttonOptions"`
}

// ButtonOptions positions the navigation buttons.
type ButtonOptions struct {
	VerticalAlign string `json:"verticalAlign"`
}

// ColorAxis scales the value layer. Max is omitted when the primary dataset
// has no finite values.
type ColorAxis struct {
	Min       float64     `json:"min"`
	Max       *float64    `json:"max,omitempty"`
	NullColor string      `json:"nullColor"`
	Stops     []ColorStop `json:"stops"`
	Labels    Labels      `json:"labels"`
}

// Labels formats axis labels.
type Labels struct {
	Format string `json:"format"`
}

// Series is one map layer.
type Series struct {
	Name                string        `json:"name"`
	AllAreas            bool          `json:"allAreas"`
	ShowInLegend        bool          `json:"showInLegend"`
	EnableMouseTracking bool          `json:"enableMouseTracking"`
	BorderColor         string        `json:"borderColor,omitempty"`
	NullColor           string        `json:"nullColor,omitempty"`
	JoinBy              []string      `json:"joinBy,omitempty"`
	Data                []SeriesPoint `json:"data,omitempty"`
	States              *States       `json:"states,omitempty"`
	DataLabels          *DataLabels   `json:"dataLabels,omitempty"`
}

// SeriesPoint is a dataset point as plotted. Label is the region name for
// positive values; Tooltip is prerendered hover markup.
type SeriesPoint struct {
	RegionKey string   `json:"hc-key"`
	Value     *float64 `json:"value"`
	Label     string   `json:"label,omitempty"`
	Tooltip   string   `json:"tooltip,omitempty"`
}

// States styles interaction states.
type States struct {
	Hover struct {
		Color string `json:"color"`
	} `json:"hover"`
}

// DataLabels shows each point's label.
type DataLabels struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format"`
}

// TooltipOptions configures hover content. Tooltips are disabled when no
// dataset is selected.
type TooltipOptions struct {
	Enabled      bool   `json:"enabled"`
	Shared       bool   `json:"shared"`
	UseHTML      bool   `json:"useHTML"`
	HeaderFormat string `json:"headerFormat"`
	PointFormat  string `json:"pointFormat"`
}

// BaseSeries returns the outline layer.
func (c *ChartConfig) BaseSeries() *Series {
	return &c.Series[0]
}

// ValueSeries returns the color-scaled layer.
func (c *ChartConfig) ValueSeries() *Series {
	return &c.Series[1]
}

// RegionTooltip returns the hover content for a region, or nil when no dataset is
// selected.
func (c *ChartConfig) RegionTooltip(regionKey string) *Tooltip {
	if len(c.Selected) == 0 {
		return nil
	}
	if t, ok := c.tooltips[regionKey]; ok {
		return t
	}
	return &Tooltip{Title: regionKey, Lines: []TooltipLine{}}
}

// RegionBounds returns the extent of a region, if known.
func (c *ChartConfig) RegionBounds(regionKey string) (*geom.Bounds, bool) {
	r, ok := c.regions[regionKey]
	if !ok {
		return nil, false
	}
	return r.bounds, true
}

// PrimaryDataset picks the dataset that drives the color scale: the first
// selected key when it names a loaded dataset, else the first loaded dataset.
func PrimaryDataset(selectedKeys []string, datasets []model.DatasetRecord) *model.DatasetRecord {
	if len(selectedKeys) > 0 {
		if ds := model.FindDataset(datasets, selectedKeys[0]); ds != nil {
			return ds
		}
	}
	if len(datasets) > 0 {
		return &datasets[0]
	}
	return nil
}

// BuildConfig computes the chart configuration for a selection. It does not
// touch any rendering surface. idx may be nil, in which case it is built
// from the topology.
func BuildConfig(selectedKeys []string, datasets []model.DatasetRecord, topo *model.Topology, idx *join.Index) (*ChartConfig, error) {
	if topo == nil {
		return nil, eris.New("render: no topology")
	}
	if idx == nil {
		idx = join.NewIndex(topo.Features)
	}

	selected := selectedDatasets(selectedKeys, datasets)
	cfg := &ChartConfig{
		Chart:         ChartOptions{Map: topo.Document, BackgroundColor: "transparent"},
		MapNavigation: MapNavigation{Enabled: true, ButtonOptions: ButtonOptions{VerticalAlign: "bottom"}},
		ColorAxis: ColorAxis{
			NullColor: NullColor,
			Stops:     ColorStops,
			Labels:    Labels{Format: "{value:,.0f}"},
		},
		Tooltip: TooltipOptions{
			Enabled:     len(selected) > 0,
			Shared:      true,
			UseHTML:     true,
			PointFormat: "{point.tooltip}",
		},
		Selected: make([]string, 0, len(selected)),
		regions:  make(map[string]regionInfo, len(topo.Features)),
		tooltips: make(map[string]*Tooltip, len(topo.Features)),
	}
	for _, ds := range selected {
		cfg.Selected = append(cfg.Selected, ds.Key)
	}

	for _, f := range topo.Features {
		if f.RegionKey == "" {
			continue
		}
		if _, dup := cfg.regions[f.RegionKey]; dup {
			continue
		}
		cfg.regions[f.RegionKey] = regionInfo{name: f.Name, bounds: f.Bounds}
	}

	values := newValueTable(datasetsOf(selected))
	for key, r := range cfg.regions {
		if t := buildTooltip(titleOf(r, key), key, selected, values); t != nil {
			cfg.tooltips[key] = t
		}
	}

	base := Series{
		Name:        "Base map",
		AllAreas:    true,
		BorderColor: BorderColor,
		NullColor:   NullColor,
	}

	value := Series{
		JoinBy:              []string{"hc-key", "hc-key"},
		EnableMouseTracking: true,
		ShowInLegend:        true,
		States:              &States{},
		DataLabels:          &DataLabels{Enabled: true, Format: "{point.label}"},
		Data:                []SeriesPoint{},
	}
	value.States.Hover.Color = HoverColor

	if primary := PrimaryDataset(selectedKeys, datasets); primary != nil {
		cfg.Primary = primary.Key
		value.Name = primary.Name
		if r := join.ColorRange(primary); r.HasMax {
			m := r.Max
			cfg.ColorAxis.Max = &m
		}
		for _, p := range primary.Data {
			sp := SeriesPoint{RegionKey: p.RegionKey, Value: p.Value}
			if idx.Has(p.RegionKey) {
				r := cfg.regions[p.RegionKey]
				if p.Value != nil && *p.Value > 0 {
					sp.Label = titleOf(r, p.RegionKey)
				}
				sp.Tooltip = cfg.tooltips[p.RegionKey].HTML()
			}
			value.Data = append(value.Data, sp)
		}
	}

	cfg.Series = []Series{base, value}
	return cfg, nil
}

func titleOf(r regionInfo, key string) string {
	if r.name != "" {
		return r.name
	}
	return key
}
