package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tissuesalts/internal/flagx"
	"github.com/dmitrijs2005/tissuesalts/internal/timex"
)

// JSONConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "10s" and integer nanoseconds are accepted.
type JSONConfig struct {
	EndpointAddr      string         `json:"endpoint_addr"`
	DatabasePath      string         `json:"database_path"`
	IndexPage         string         `json:"index_page"`
	LogLevel          string         `json:"log_level"`
	ReadHeaderTimeout timex.Duration `json:"read_header_timeout"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
}

// parseJSON overlays values from the file given by -c/-config. Fields left
// out of the file keep their current value.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabasePath, c.DatabasePath)
	setString(&config.IndexPage, c.IndexPage)
	setString(&config.LogLevel, c.LogLevel)
	if c.ReadHeaderTimeout.Duration > 0 {
		config.ReadHeaderTimeout = c.ReadHeaderTimeout.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
