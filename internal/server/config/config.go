// Package config handles configuration for the server: defaults, an
// optional JSON file, environment variables and command-line flags, applied
// in that order.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the assessment server.
//
// Fields:
//   - EndpointAddr: HTTP bind address.
//   - DatabasePath: location of the SQLite database file.
//   - IndexPage: static HTML page served at "/".
//   - LogLevel: debug, info, warn or error.
//   - ReadHeaderTimeout: http.Server read-header timeout.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
type Config struct {
	EndpointAddr      string
	DatabasePath      string
	IndexPage         string
	LogLevel          string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// LoadDefaults populates Config with the values used when nothing else is
// configured.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabasePath = "tissue_salts.db"
	c.IndexPage = "index.html"
	c.LogLevel = "info"
	c.ReadHeaderTimeout = 10 * time.Second
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.Getenv)
}

// Load applies defaults, then the JSON file named by -c/-config, then the
// environment, then flags.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, getenv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	return cfg, nil
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
