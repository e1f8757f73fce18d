package topology

import (
	"encoding/json"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/choropleth/internal/model"
)

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoDocument struct {
	Type      string                  `json:"type"`
	Transform *topoTransform          `json:"transform"`
	Arcs      [][][]float64           `json:"arcs"`
	Objects   map[string]topoGeometry `json:"objects"`
}

type topoGeometry struct {
	Type        string          `json:"type"`
	Properties  map[string]any  `json:"properties"`
	Arcs        json.RawMessage `json:"arcs"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  []topoGeometry  `json:"geometries"`
}

// decodeTopoJSON reads a TopoJSON document. A missing default collection is
// reported as a diagnostic and yields no features.
func decodeTopoJSON(path string, data []byte) (*model.Topology, error) {
	var doc topoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &model.ParseError{Source: path, Err: err}
	}

	arcs := decodeArcs(doc.Arcs, doc.Transform)
	t := &model.Topology{
		Path:     path,
		Format:   model.FormatTopoJSON,
		Objects:  make(map[string][]model.TopologyFeature, len(doc.Objects)),
		Document: json.RawMessage(data),
	}

	for name, obj := range doc.Objects {
		geoms := obj.Geometries
		if obj.Type != "GeometryCollection" {
			geoms = []topoGeometry{obj}
		}
		features := make([]model.TopologyFeature, 0, len(geoms))
		for _, g := range geoms {
			f := newFeature(g.Properties, "hc-key")
			f.Geometry = g.Arcs
			if len(g.Coordinates) > 0 {
				f.Geometry = g.Coordinates
			}
			f.Bounds = topoBounds(g, arcs, doc.Transform)
			features = append(features, f)
		}
		t.Objects[name] = features
	}

	if def, ok := t.Objects[model.DefaultObject]; ok {
		t.Features = def
	} else {
		t.Diagnostics = append(t.Diagnostics, "no default geometry collection in "+path)
	}
	return t, nil
}

// decodeArcs returns every arc as flat XY coordinates in map units. Quantized
// arcs are delta-decoded and transformed.
func decodeArcs(raw [][][]float64, tr *topoTransform) [][]float64 {
	arcs := make([][]float64, len(raw))
	for i, arc := range raw {
		flat := make([]float64, 0, 2*len(arc))
		var x, y float64
		for _, pos := range arc {
			if len(pos) < 2 {
				continue
			}
			if tr != nil {
				x += pos[0]
				y += pos[1]
				flat = append(flat, x*tr.Scale[0]+tr.Translate[0], y*tr.Scale[1]+tr.Translate[1])
			} else {
				flat = append(flat, pos[0], pos[1])
			}
		}
		arcs[i] = flat
	}
	return arcs
}

// topoBounds computes the extent of a geometry from its arcs or, for point
// geometries, its coordinates.
func topoBounds(g topoGeometry, arcs [][]float64, tr *topoTransform) *geom.Bounds {
	var flat []float64
	collect := func(g topoGeometry) {
		for _, ref := range arcRefs(g.Arcs) {
			idx := ref
			if idx < 0 {
				idx = ^idx
			}
			if idx < len(arcs) {
				flat = append(flat, arcs[idx]...)
			}
		}
		for _, pos := range positions(g.Coordinates) {
			if tr != nil {
				pos[0] = pos[0]*tr.Scale[0] + tr.Translate[0]
				pos[1] = pos[1]*tr.Scale[1] + tr.Translate[1]
			}
			flat = append(flat, pos[0], pos[1])
		}
	}
	collect(g)
	for _, child := range g.Geometries {
		collect(child)
	}
	return flatBounds(flat)
}

// arcRefs flattens a nested arc index array.
func arcRefs(raw json.RawMessage) []int {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	var refs []int
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case float64:
			refs = append(refs, int(t))
		case []any:
			for _, c := range t {
				walk(c)
			}
		}
	}
	walk(v)
	return refs
}

// positions flattens a nested coordinate array into XY pairs.
func positions(raw json.RawMessage) [][2]float64 {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	var out [][2]float64
	var walk func(any)
	walk = func(v any) {
		arr, ok := v.([]any)
		if !ok {
			return
		}
		if len(arr) >= 2 {
			x, okx := arr[0].(float64)
			y, oky := arr[1].(float64)
			if okx && oky {
				out = append(out, [2]float64{x, y})
				return
			}
		}
		for _, c := range arr {
			walk(c)
		}
	}
	walk(v)
	return out
}

// flatBounds returns the XY extent of flat coordinates, or nil when empty.
func flatBounds(flat []float64) *geom.Bounds {
	if len(flat) < 2 {
		return nil
	}
	return geom.NewMultiPointFlat(geom.XY, flat[:len(flat)-len(flat)%2]).Bounds()
}
