package config

import "strings"

// parseEnv reads PORT, DATABASE_PATH and LOG_LEVEL.
func parseEnv(config *Config, getenv func(string) string) {
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		config.EndpointAddr = ":" + port
	}
	setString(&config.DatabasePath, getenv("DATABASE_PATH"))
	setString(&config.LogLevel, getenv("LOG_LEVEL"))
}
