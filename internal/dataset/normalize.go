// Package dataset loads dataset sources and normalizes their rows into
// (region key, value) points.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/choropleth/internal/model"
)

// Column spellings in resolution order.
var (
	RegionKeyColumns = []string{"hc-key", "hc_key"}
	ValueColumns     = []string{"value", "Value"}
)

// CleanValue strips thousands separators and every character that cannot be
// part of a decimal number. Cleaning is idempotent.
func CleanValue(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+', r == 'e', r == 'E':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseValue cleans raw and parses it. Empty, unparseable and non-finite
// inputs return nil.
func ParseValue(raw string) *float64 {
	cleaned := CleanValue(raw)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// row is a header-keyed view over one record.
type row map[string]string

func newRow(header, record []string) row {
	r := make(row, len(header))
	for i, h := range header {
		if _, dup := r[h]; dup {
			continue
		}
		if i < len(record) {
			r[h] = record[i]
		} else {
			r[h] = ""
		}
	}
	return r
}

// first returns the first non-empty trimmed value among columns.
func (r row) first(columns []string) string {
	for _, c := range columns {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v
		}
	}
	return ""
}

// NormalizeRow converts one parsed row into a DataPoint.
func NormalizeRow(header, record []string) model.DataPoint {
	r := newRow(header, record)
	return model.DataPoint{
		RegionKey: r.first(RegionKeyColumns),
		Value:     ParseValue(r.first(ValueColumns)),
	}
}

// NormalizeRows converts a table into points. Every row yields a point;
// rows without a region key keep an empty key.
func NormalizeRows(header []string, records [][]string) []model.DataPoint {
	header = trimHeader(header)
	points := make([]model.DataPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, NormalizeRow(header, rec))
	}
	return points
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = h
	}
	return out
}
