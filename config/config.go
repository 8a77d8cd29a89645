// Package config loads the mediator's process-level configuration: which
// state store and bus backends to wire up, where definitions live, and
// ambient logging/metrics settings — adapted from the teacher's flat
// JSON config file pattern.
package config

import (
	"encoding/json"
	"os"

	"github.com/meshflow/mediator/bus"
	"github.com/meshflow/mediator/state"
)

// Config is the top-level process configuration (§6 Process Surface).
type Config struct {
	State          state.Config `json:"state"`
	Bus            bus.Config   `json:"bus"`
	DefinitionsDir string       `json:"definitions_dir"`
	Log            LogConfig    `json:"log"`
	Metrics        MetricsConfig `json:"metrics"`
}

// LogConfig controls the logging package's verbosity.
type LogConfig struct {
	// Level is "production" (info and above) or "debug".
	Level string `json:"level"`
}

// MetricsConfig controls the optional Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// LoadConfig reads and decodes a JSON configuration document from path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WithDefaults returns a copy of cfg with zero-valued fields replaced by
// the package defaults, so a partial or absent config file still produces
// a runnable process.
func (c Config) WithDefaults() Config {
	if c.State.Driver == "" {
		c.State.Driver = "memory"
	}
	if c.State.Driver == "sqlite" && c.State.DSN == "" {
		c.State.DSN = DefaultSQLiteDSN
	}
	if c.Bus.Driver == "" {
		c.Bus.Driver = "memory"
	}
	if c.DefinitionsDir == "" {
		c.DefinitionsDir = DefaultDefinitionsDir
	}
	if c.Log.Level == "" {
		c.Log.Level = "production"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	return c
}
