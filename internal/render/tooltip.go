package render

import (
	"html"
	"strings"

	"github.com/sells-group/choropleth/internal/model"
)

// TooltipLine is one dataset's value for a hovered region.
type TooltipLine struct {
	Dataset string  `json:"dataset"`
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	Value   float64 `json:"value"`
}

// Text returns the line as "{name}: {formatted value}".
func (l TooltipLine) Text() string {
	return l.Name + ": " + FormatNumber(l.Value)
}

// Tooltip is the hover content of one region.
type Tooltip struct {
	Title string        `json:"title"`
	Lines []TooltipLine `json:"lines"`
}

// HTML renders the tooltip as chart markup: the region name in bold, then
// one colored value per line.
func (t *Tooltip) HTML() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(t.Title) + "</b><br/>")
	for _, l := range t.Lines {
		b.WriteString(html.EscapeString(l.Name))
		b.WriteString(`: <span style="color:` + html.EscapeString(l.Color) + `">`)
		b.WriteString(FormatNumber(l.Value))
		b.WriteString("</span><br/>")
	}
	return b.String()
}

// valueTable maps dataset key to region key to value. The first point of a
// region wins.
type valueTable map[string]map[string]*float64

func newValueTable(datasets []model.DatasetRecord) valueTable {
	t := make(valueTable, len(datasets))
	for _, ds := range datasets {
		m := make(map[string]*float64, len(ds.Data))
		for _, p := range ds.Data {
			if _, ok := m[p.RegionKey]; !ok {
				m[p.RegionKey] = p.Value
			}
		}
		t[ds.Key] = m
	}
	return t
}

// selectedDatasets resolves keys to datasets in selection order. Unknown
// and repeated keys are skipped.
func selectedDatasets(keys []string, datasets []model.DatasetRecord) []*model.DatasetRecord {
	seen := make(map[string]bool, len(keys))
	out := make([]*model.DatasetRecord, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if ds := model.FindDataset(datasets, k); ds != nil {
			out = append(out, ds)
		}
	}
	return out
}

func buildTooltip(title, regionKey string, selected []*model.DatasetRecord, values valueTable) *Tooltip {
	if len(selected) == 0 {
		return nil
	}
	t := &Tooltip{Title: title, Lines: []TooltipLine{}}
	for _, ds := range selected {
		v := values[ds.Key][regionKey]
		if v == nil {
			continue
		}
		t.Lines = append(t.Lines, TooltipLine{Dataset: ds.Key, Name: ds.Name, Color: ds.Color, Value: *v})
	}
	return t
}

// BuildTooltip returns the hover content for a region, or nil when no
// dataset is selected. Lines follow selection order and only datasets with
// a non-null value for the region contribute.
func BuildTooltip(regionKey, title string, selectedKeys []string, datasets []model.DatasetRecord) *Tooltip {
	if len(selectedKeys) == 0 {
		return nil
	}
	selected := selectedDatasets(selectedKeys, datasets)
	return buildTooltip(title, regionKey, selected, newValueTable(datasetsOf(selected)))
}

func datasetsOf(ptrs []*model.DatasetRecord) []model.DatasetRecord {
	out := make([]model.DatasetRecord, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}
