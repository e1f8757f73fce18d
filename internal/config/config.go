package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/choropleth/internal/dataset"
	"github.com/sells-group/choropleth/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Server       ServerConfig          `yaml:"server" mapstructure:"server"`
	Map          MapConfig             `yaml:"map" mapstructure:"map"`
	Fetch        FetchConfig           `yaml:"fetch" mapstructure:"fetch"`
	Datasets     []model.DatasetConfig `yaml:"datasets" mapstructure:"datasets"`
	DatasetsFile string                `yaml:"datasets_file" mapstructure:"datasets_file"`
	Log          LogConfig             `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the static map server.
type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	PublicDir      string   `yaml:"public_dir" mapstructure:"public_dir"`
	AssetsDir      string   `yaml:"assets_dir" mapstructure:"assets_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MapConfig configures topology selection.
type MapConfig struct {
	// Default overrides the world map rendered on start.
	Default        string `yaml:"default" mapstructure:"default"`
	TopoList       string `yaml:"topo_list" mapstructure:"topo_list"`
	CollectionRoot string `yaml:"collection_root" mapstructure:"collection_root"`
}

// FetchConfig configures how datasets and topologies are fetched.
type FetchConfig struct {
	// BaseURL resolves server paths against a running map server. When
	// empty, server paths are read from the public and assets directories.
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	FTPTimeoutSecs int    `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the HTTP timeout.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// FTPTimeout returns the FTP dial timeout.
func (c FetchConfig) FTPTimeout() time.Duration {
	return time.Duration(c.FTPTimeoutSecs) * time.Second
}

// DatasetCatalog returns the configured datasets: the catalog file when set,
// else the inline list, else the built-in catalog.
func (c *Config) DatasetCatalog() ([]model.DatasetConfig, error) {
	if c.DatasetsFile != "" {
		return dataset.LoadCatalog(c.DatasetsFile)
	}
	if len(c.Datasets) > 0 {
		return dataset.Validate(c.Datasets)
	}
	return dataset.Validate(dataset.DefaultCatalog)
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHOROPLETH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.public_dir", "public")
	v.SetDefault("server.assets_dir", "node_modules")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("map.default", "")
	v.SetDefault("map.topo_list", "/topoList.json")
	v.SetDefault("map.collection_root", "/node_modules/@highcharts/map-collection")
	v.SetDefault("fetch.base_url", "")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "choropleth/1.0")
	v.SetDefault("fetch.ftp_timeout_secs", 30)
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("datasets_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
