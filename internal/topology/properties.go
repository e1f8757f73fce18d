package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/choropleth/internal/model"
)

// Property spellings, in resolution order.
var (
	nameProps  = []string{"name", "NAME", "name_en"}
	isoA2Props = []string{"iso-a2", "iso_a2", "ISO_A2"}
	isoA3Props = []string{"iso-a3", "iso_a3", "ISO_A3"}
)

// propString returns the first non-empty property among names, trimmed.
// Non-string values are formatted with fmt.
func propString(props map[string]any, names ...string) string {
	for _, n := range names {
		v, ok := props[n]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = fmt.Sprintf("%g", t)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// newFeature builds a feature from its properties. keyProps lists the
// property names that carry the join key.
func newFeature(props map[string]any, keyProps ...string) model.TopologyFeature {
	if props == nil {
		props = map[string]any{}
	}
	return model.TopologyFeature{
		RegionKey:  propString(props, keyProps...),
		Name:       propString(props, nameProps...),
		ISOA2:      propString(props, isoA2Props...),
		ISOA3:      propString(props, isoA3Props...),
		Properties: props,
	}
}

// Regions lists the drill-down regions of a topology: the default
// collection, else the first collection by name. Features without a usable
// key are skipped.
func Regions(t *model.Topology) []model.Region {
	if t == nil {
		return nil
	}
	features, ok := t.Objects[model.DefaultObject]
	if !ok {
		names := make([]string, 0, len(t.Objects))
		for name := range t.Objects {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > 0 {
			features = t.Objects[names[0]]
		}
	}

	regions := make([]model.Region, 0, len(features))
	for _, f := range features {
		name := propString(f.Properties, "name", "NAME", "name_en", "hc-key", "iso_a2")
		key := propString(f.Properties, "hc-key", "hc_key")
		if key == "" {
			key = name
		}
		if key == "" {
			continue
		}
		regions = append(regions, model.Region{
			Key:   key,
			Name:  name,
			ISOA2: f.ISOA2,
			ISOA3: f.ISOA3,
		})
	}
	return regions
}
