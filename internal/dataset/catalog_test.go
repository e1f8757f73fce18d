package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/choropleth/internal/model"
)

func TestParseCatalog_List(t *testing.T) {
	configs, err := ParseCatalog("catalog.yaml", []byte(`
- key: population
  name: Population
  color: "#1f77b4"
  source: /datasets/population.csv
- key: area
  source: /datasets/area.csv
`))
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "Population", configs[0].Name)
	assert.Equal(t, "area", configs[1].Name)
	assert.Equal(t, Palette[1], configs[1].Color)
}

func TestParseCatalog_Mapping(t *testing.T) {
	configs, err := ParseCatalog("catalog.yaml", []byte(`
datasets:
  - key: gdp
    name: GDP
    source: ftp://data.example.com/gdp.csv
`))
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "gdp", configs[0].Key)
	assert.Equal(t, "ftp://data.example.com/gdp.csv", configs[0].Source)
}

func TestParseCatalog_Malformed(t *testing.T) {
	_, err := ParseCatalog("catalog.yaml", []byte("datasets: [unclosed"))
	require.Error(t, err)
	assert.True(t, model.IsParse(err))
}

func TestParseCatalog_Empty(t *testing.T) {
	configs, err := ParseCatalog("catalog.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestValidate(t *testing.T) {
	_, err := Validate([]model.DatasetConfig{{Source: "/a.csv"}})
	assert.Error(t, err)

	_, err = Validate([]model.DatasetConfig{{Key: "a"}})
	assert.Error(t, err)

	_, err = Validate([]model.DatasetConfig{{Key: "a", Source: "/a.csv"}, {Key: " a ", Source: "/b.csv"}})
	assert.Error(t, err)

	in := []model.DatasetConfig{{Key: "a", Source: "/a.csv"}}
	out, err := Validate(in)
	require.NoError(t, err)
	assert.Equal(t, Palette[0], out[0].Color)
	assert.Empty(t, in[0].Color)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- key: gdp\n  source: /datasets/gdp.csv\n"), 0o644))

	configs, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	configs, err := Validate(DefaultCatalog)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog, configs)
}
