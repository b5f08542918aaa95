package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/tissuesalts/internal/flagx"
)

// parseFlags applies command-line overrides.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   SQLite database path
//	-i string   index page served at "/"
//	-l string   log level
//	-t int      shutdown timeout, seconds
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-i", "-l", "-t"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabasePath, "d", config.DatabasePath, "database file path")
	fs.StringVar(&config.IndexPage, "i", config.IndexPage, "index page")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	shutdown := fs.Int("t", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.ShutdownTimeout = secondsToDuration(*shutdown)
		}
	})
	return nil
}
