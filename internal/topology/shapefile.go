package topology

import (
	"strings"

	"github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/model"
)

// decodeShapefile reads a local ESRI shapefile and re-encodes it as a
// GeoJSON FeatureCollection for the chart. DBF fields become properties.
func decodeShapefile(path, localPath string) (*model.Topology, error) {
	reader, err := shp.Open(localPath)
	if err != nil {
		return nil, &model.ParseError{Source: path, Err: eris.Wrap(err, "open shapefile")}
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	fc := geojson.NewFeatureCollection()
	skipped := 0
	for reader.Next() {
		_, shape := reader.Shape()
		gf := shapeToFeature(shape)
		if gf == nil {
			skipped++
			continue
		}
		for i, name := range names {
			gf.SetProperty(name, strings.Trim(reader.Attribute(i), " \x00"))
		}
		fc.AddFeature(gf)
	}
	if skipped > 0 {
		zap.L().Debug("topology: skipped unsupported shapes",
			zap.String("path", path), zap.Int("count", skipped))
	}

	doc, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "topology: encode shapefile as geojson")
	}
	t := fromFeatureCollection(path, model.FormatShapefile, fc, doc)
	if len(names) == 0 {
		msg := "no attribute table for " + path
		t.Diagnostics = append(t.Diagnostics, msg)
		zap.L().Warn("topology: "+msg,
			zap.String("component", "topology"), zap.String("path", path))
	}
	return t, nil
}

func shapeToFeature(s shp.Shape) *geojson.Feature {
	switch shape := s.(type) {
	case *shp.Polygon:
		polys := partsOf(shape.Parts, shape.Points)
		if len(polys) == 0 {
			return nil
		}
		mp := make([][][][]float64, 0, len(polys))
		for _, ring := range polys {
			mp = append(mp, [][][]float64{ring})
		}
		return geojson.NewMultiPolygonFeature(mp...)
	case *shp.PolyLine:
		lines := partsOf(shape.Parts, shape.Points)
		if len(lines) == 0 {
			return nil
		}
		return geojson.NewMultiLineStringFeature(lines...)
	case *shp.Point:
		return geojson.NewPointFeature([]float64{shape.X, shape.Y})
	default:
		return nil
	}
}

// partsOf splits shapefile points into their parts.
func partsOf(parts []int32, points []shp.Point) [][][]float64 {
	out := make([][][]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(points)) {
			continue
		}
		coords := make([][]float64, 0, end-start)
		for _, p := range points[start:end] {
			coords = append(coords, []float64{p.X, p.Y})
		}
		out = append(out, coords)
	}
	return out
}
