package topology

import (
	"encoding/json"

	geojson "github.com/paulmach/go.geojson"

	"github.com/sells-group/choropleth/internal/model"
)

// decodeGeoJSON reads a FeatureCollection. Its features form the default
// collection.
func decodeGeoJSON(path string, data []byte) (*model.Topology, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &model.ParseError{Source: path, Err: err}
	}
	return fromFeatureCollection(path, model.FormatGeoJSON, fc, json.RawMessage(data)), nil
}

func fromFeatureCollection(path, format string, fc *geojson.FeatureCollection, doc json.RawMessage) *model.Topology {
	features := make([]model.TopologyFeature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		if gf == nil {
			continue
		}
		f := newFeature(gf.Properties, "hc-key", "hc_key")
		if gf.Geometry != nil {
			if raw, err := gf.Geometry.MarshalJSON(); err == nil {
				f.Geometry = raw
			}
			f.Bounds = flatBounds(geometryCoords(gf.Geometry))
		}
		features = append(features, f)
	}
	return &model.Topology{
		Path:     path,
		Format:   format,
		Features: features,
		Objects:  map[string][]model.TopologyFeature{model.DefaultObject: features},
		Document: doc,
	}
}

// geometryCoords flattens every position of g into XY pairs.
func geometryCoords(g *geojson.Geometry) []float64 {
	var flat []float64
	addRing := func(ring [][]float64) {
		for _, p := range ring {
			if len(p) >= 2 {
				flat = append(flat, p[0], p[1])
			}
		}
	}
	switch g.Type {
	case geojson.GeometryPoint:
		addRing([][]float64{g.Point})
	case geojson.GeometryMultiPoint:
		addRing(g.MultiPoint)
	case geojson.GeometryLineString:
		addRing(g.LineString)
	case geojson.GeometryMultiLineString:
		for _, l := range g.MultiLineString {
			addRing(l)
		}
	case geojson.GeometryPolygon:
		for _, r := range g.Polygon {
			addRing(r)
		}
	case geojson.GeometryMultiPolygon:
		for _, poly := range g.MultiPolygon {
			for _, r := range poly {
				addRing(r)
			}
		}
	case geojson.GeometryCollection:
		for _, child := range g.Geometries {
			if child != nil {
				flat = append(flat, geometryCoords(child)...)
			}
		}
	}
	return flat
}
