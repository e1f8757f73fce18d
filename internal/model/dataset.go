package model

import "math"

// DatasetConfig describes one dataset source as listed in the catalog.
type DatasetConfig struct {
	Key    string `yaml:"key" mapstructure:"key" json:"key"`
	Name   string `yaml:"name" mapstructure:"name" json:"name"`
	Color  string `yaml:"color" mapstructure:"color" json:"color"`
	Source string `yaml:"source" mapstructure:"source" json:"source"`
}

// DatasetRecord is a loaded dataset. It is not modified after load.
type DatasetRecord struct {
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	Color string      `json:"color"`
	Data  []DataPoint `json:"data"`
}

// DataPoint is a single (region, value) row. A nil Value is a null measure.
type DataPoint struct {
	RegionKey string   `json:"hc-key"`
	Value     *float64 `json:"value"`
}

// HasValue reports whether the point carries a finite value.
func (p DataPoint) HasValue() bool {
	return p.Value != nil && !math.IsNaN(*p.Value) && !math.IsInf(*p.Value, 0)
}

// Lookup returns the first point whose region key equals key.
func (d *DatasetRecord) Lookup(key string) (DataPoint, bool) {
	for _, p := range d.Data {
		if p.RegionKey == key {
			return p, true
		}
	}
	return DataPoint{}, false
}

// FindDataset returns the dataset with the given key, or nil.
func FindDataset(datasets []DatasetRecord, key string) *DatasetRecord {
	for i := range datasets {
		if datasets[i].Key == key {
			return &datasets[i]
		}
	}
	return nil
}

// Float returns a pointer to v. Handy for building points in code and tests.
func Float(v float64) *float64 {
	return &v
}
