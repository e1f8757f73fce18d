// Package selection owns the user's selection (datasets, topology, drill-down
// region) and re-renders the map whenever it changes.
package selection

import "slices"

// Phase is the topology selection state.
type Phase int

// Topology selection phases.
const (
	PhaseIdle Phase = iota
	PhaseTopologySelected
	PhaseCountryDrillDown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTopologySelected:
		return "topology_selected"
	case PhaseCountryDrillDown:
		return "country_drill_down"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of the selection.
type State struct {
	SelectedDatasetKeys []string `json:"selected_dataset_keys"`
	ActiveTopologyPath  string   `json:"active_topology_path"`
	Phase               Phase    `json:"phase"`
	ActiveChart         string   `json:"active_chart,omitempty"`
}

func (s State) clone() State {
	s.SelectedDatasetKeys = slices.Clone(s.SelectedDatasetKeys)
	return s
}

// LegendEntry is one selected dataset as shown in the legend.
type LegendEntry struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
