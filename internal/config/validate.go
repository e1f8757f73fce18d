package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command needs. Mode is "serve" or "render".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.PublicDir == "" {
			errs = append(errs, "server.public_dir is required")
		}
	case "render":
		if c.Map.TopoList == "" {
			errs = append(errs, "map.topo_list is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Fetch.TimeoutSecs <= 0 {
		errs = append(errs, "fetch.timeout_secs must be > 0")
	}
	if c.Fetch.MaxRetries < 1 || c.Fetch.MaxRetries > 10 {
		errs = append(errs, "fetch.max_retries must be between 1 and 10")
	}
	if c.Fetch.Concurrency < 1 || c.Fetch.Concurrency > 32 {
		errs = append(errs, "fetch.concurrency must be between 1 and 32")
	}
	if c.Fetch.BaseURL != "" && !strings.HasPrefix(c.Fetch.BaseURL, "http://") && !strings.HasPrefix(c.Fetch.BaseURL, "https://") {
		errs = append(errs, "fetch.base_url must be an http(s) URL")
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, "log.format must be json or console")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
