package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Equal(t, "public", cfg.Server.PublicDir)
	assert.Equal(t, "node_modules", cfg.Server.AssetsDir)
	assert.Equal(t, "/topoList.json", cfg.Map.TopoList)
	assert.Equal(t, "/node_modules/@highcharts/map-collection", cfg.Map.CollectionRoot)
	assert.Empty(t, cfg.Map.Default)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("render"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: 8081
  public_dir: web
map:
  default: /maps/europe.topo.json
log:
  level: debug
  format: console
datasets:
  - key: area
    name: Area
    source: /datasets/area.csv
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "web", cfg.Server.PublicDir)
	assert.Equal(t, "/maps/europe.topo.json", cfg.Map.Default)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "/topoList.json", cfg.Map.TopoList)

	datasets, err := cfg.DatasetCatalog()
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "area", datasets[0].Key)
	assert.NotEmpty(t, datasets[0].Color)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("CHOROPLETH_LOG_LEVEL", "warn")
	t.Setenv("CHOROPLETH_SERVER_PORT", "4000")
	t.Setenv("CHOROPLETH_MAP_DEFAULT", "/maps/us.topo.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "/maps/us.topo.json", cfg.Map.Default)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHOROPLETH_FETCH_BASE_URL=http://localhost:3000\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("CHOROPLETH_FETCH_BASE_URL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.Fetch.BaseURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestDatasetCatalog(t *testing.T) {
	cfg := &Config{}
	datasets, err := cfg.DatasetCatalog()
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, "population", datasets[0].Key)
	assert.Equal(t, "gdp", datasets[1].Key)

	path := filepath.Join(t.TempDir(), "datasets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datasets:\n  - key: gdp\n    source: /datasets/gdp.csv\n"), 0o644))
	cfg = &Config{DatasetsFile: path, Datasets: []model.DatasetConfig{{Key: "ignored", Source: "/x.csv"}}}
	datasets, err = cfg.DatasetCatalog()
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "gdp", datasets[0].Key)

	cfg = &Config{Datasets: []model.DatasetConfig{{Key: "a", Source: "/a.csv"}, {Key: "a", Source: "/b.csv"}}}
	_, err = cfg.DatasetCatalog()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000, PublicDir: "public"},
		Map:    MapConfig{TopoList: "/topoList.json"},
		Fetch:  FetchConfig{TimeoutSecs: 30, MaxRetries: 3, Concurrency: 4},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")

	assert.NoError(t, cfg.Validate("render"))
}

func TestValidateRender_MissingTopoList(t *testing.T) {
	cfg := validDefaults()
	cfg.Map.TopoList = ""

	err := cfg.Validate("render")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "map.topo_list is required")
}

func TestValidateFetchBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Fetch.MaxRetries = 0
	cfg.Fetch.Concurrency = 64
	cfg.Fetch.BaseURL = "localhost:3000"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.max_retries must be between 1 and 10")
	assert.Contains(t, err.Error(), "fetch.concurrency must be between 1 and 32")
	assert.Contains(t, err.Error(), "fetch.base_url must be an http(s) URL")
}

func TestValidateLogFormat(t *testing.T) {
	cfg := validDefaults()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
