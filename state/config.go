package state

import "fmt"

// Config selects and parameterizes the Store implementation. Driver
// "memory" (default) keeps run state in-process; "sqlite" and "postgres"
// persist to the named dsn.
type Config struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// New constructs a Store from cfg. A nil or empty-driver cfg defaults to
// MemoryStore.
func New(cfg *Config) (Store, error) {
	if cfg == nil || cfg.Driver == "" || cfg.Driver == "memory" {
		return NewMemoryStore(), nil
	}
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteStore(cfg.DSN)
	case "postgres":
		return NewPostgresStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("state: unsupported driver %q", cfg.Driver)
	}
}
