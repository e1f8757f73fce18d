package model

import (
	"encoding/json"

	"github.com/twpayne/go-geom"
)

// Topology formats understood by the topology loader.
const (
	FormatTopoJSON  = "topojson"
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// DefaultObject is the geometry collection the render pipeline reads.
const DefaultObject = "default"

// Topology is a loaded map document.
type Topology struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	ETag   string `json:"etag,omitempty"`

	// Features is the default geometry collection.
	Features []TopologyFeature `json:"features"`

	// Objects holds every named collection in the document, including default.
	Objects map[string][]TopologyFeature `json:"-"`

	// Document is the raw map document handed to the chart as mapData.
	Document json.RawMessage `json:"-"`

	Diagnostics []string `json:"diagnostics,omitempty"`
}

// TopologyFeature is one region shape in a topology.
type TopologyFeature struct {
	RegionKey  string          `json:"hc-key"`
	Name       string          `json:"name,omitempty"`
	ISOA2      string          `json:"iso-a2,omitempty"`
	ISOA3      string          `json:"iso-a3,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
	Geometry   json.RawMessage `json:"-"`
	Bounds     *geom.Bounds    `json:"-"`
}

// Feature returns the default-collection feature with the given key, or nil.
func (t *Topology) Feature(key string) *TopologyFeature {
	if t == nil {
		return nil
	}
	for i := range t.Features {
		if t.Features[i].RegionKey == key {
			return &t.Features[i]
		}
	}
	return nil
}

// Region is an entry of the drill-down picker built from a topology.
type Region struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	ISOA2 string `json:"iso_a2,omitempty"`
	ISOA3 string `json:"iso_a3,omitempty"`
}

// Label returns the display label, falling back to the key.
func (r Region) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Key
}
