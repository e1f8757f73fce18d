// Package join matches dataset points to topology features by region key.
package join

import (
	"github.com/sells-group/choropleth/internal/model"
)

// Match reports whether a dataset region key and a feature key join.
// Matching is exact and case-sensitive.
func Match(a, b string) bool {
	return a == b
}

// Index is the key set of a topology's default collection, built once per
// topology load.
type Index struct {
	keys map[string]int
}

// NewIndex indexes features by region key. Features without a key are not
// indexed. When keys repeat, the first feature wins.
func NewIndex(features []model.TopologyFeature) *Index {
	idx := &Index{keys: make(map[string]int, len(features))}
	for i, f := range features {
		if f.RegionKey == "" {
			continue
		}
		if _, ok := idx.keys[f.RegionKey]; !ok {
			idx.keys[f.RegionKey] = i
		}
	}
	return idx
}

// Has reports whether key names an indexed feature.
func (idx *Index) Has(key string) bool {
	if idx == nil || key == "" {
		return false
	}
	_, ok := idx.keys[key]
	return ok
}

// Position returns the feature's position in the indexed slice.
func (idx *Index) Position(key string) (int, bool) {
	if idx == nil {
		return 0, false
	}
	i, ok := idx.keys[key]
	return i, ok
}

// Len returns the number of indexed keys.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.keys)
}

// MatchResult counts how many points of a dataset join the topology.
type MatchResult struct {
	Dataset string `json:"dataset"`
	Matched int    `json:"matched"`
	Total   int    `json:"total"`
}

// Unmatched returns the number of points with no feature.
func (r MatchResult) Unmatched() int {
	return r.Total - r.Matched
}

// ComputeMatch counts the dataset's points whose key is in the index.
// Unmatched points are kept in the dataset.
func (idx *Index) ComputeMatch(ds *model.DatasetRecord) MatchResult {
	res := MatchResult{Dataset: ds.Key, Total: len(ds.Data)}
	for _, p := range ds.Data {
		if idx.Has(p.RegionKey) {
			res.Matched++
		}
	}
	return res
}

// Range is the color axis range. Min is always zero; Max is only meaningful
// when HasMax is set.
type Range struct {
	Min    float64
	Max    float64
	HasMax bool
}

// ColorRange computes the axis range over the dataset's finite values.
// Negative values are included; the minimum stays at zero.
func ColorRange(ds *model.DatasetRecord) Range {
	var r Range
	if ds == nil {
		return r
	}
	for _, p := range ds.Data {
		if !p.HasValue() {
			continue
		}
		if !r.HasMax || *p.Value > r.Max {
			r.Max = *p.Value
			r.HasMax = true
		}
	}
	return r
}
