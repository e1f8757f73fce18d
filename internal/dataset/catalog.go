package dataset

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/choropleth/internal/model"
)

// DefaultCatalog is the dataset list used when no catalog is configured.
var DefaultCatalog = []model.DatasetConfig{
	{Key: "population", Name: "Population", Color: "#1f77b4", Source: "/datasets/population.csv"},
	{Key: "gdp", Name: "GDP", Color: "#ff7f0e", Source: "/datasets/gdp.csv"},
}

// Palette supplies colors for datasets that do not name one.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type catalogFile struct {
	Datasets []model.DatasetConfig `yaml:"datasets"`
}

// LoadCatalog reads a YAML catalog. The file is either a list of datasets or
// a mapping with a top-level "datasets" list.
func LoadCatalog(path string) ([]model.DatasetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read catalog %s", path)
	}
	return ParseCatalog(path, data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(source string, data []byte) ([]model.DatasetConfig, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &model.ParseError{Source: source, Err: err}
	}

	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]

	var configs []model.DatasetConfig
	if root.Kind == yaml.SequenceNode {
		if err := root.Decode(&configs); err != nil {
			return nil, &model.ParseError{Source: source, Err: err}
		}
	} else {
		var f catalogFile
		if err := root.Decode(&f); err != nil {
			return nil, &model.ParseError{Source: source, Err: err}
		}
		configs = f.Datasets
	}

	return Validate(configs)
}

// Validate checks keys and sources and fills in names and colors. It
// returns a new slice; configs is not modified.
func Validate(configs []model.DatasetConfig) ([]model.DatasetConfig, error) {
	out := make([]model.DatasetConfig, 0, len(configs))
	seen := make(map[string]bool, len(configs))
	for i, cfg := range configs {
		cfg.Key = strings.TrimSpace(cfg.Key)
		cfg.Source = strings.TrimSpace(cfg.Source)
		if cfg.Key == "" {
			return nil, eris.Errorf("dataset %d: key is required", i)
		}
		if seen[cfg.Key] {
			return nil, eris.Errorf("dataset %s: duplicate key", cfg.Key)
		}
		seen[cfg.Key] = true
		if cfg.Source == "" {
			return nil, eris.Errorf("dataset %s: source is required", cfg.Key)
		}
		if cfg.Name == "" {
			cfg.Name = cfg.Key
		}
		if cfg.Color == "" {
			cfg.Color = Palette[i%len(Palette)]
		}
		out = append(out, cfg)
	}
	return out, nil
}
