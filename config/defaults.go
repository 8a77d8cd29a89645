package config

// Default directories, paths, and addresses for the mediator process.
const (
	// DefaultConfigDir is the base directory for mediator artifacts.
	DefaultConfigDir = ".mediator"
	// DefaultSQLiteDSN is the default data source name for SQLite state.
	DefaultSQLiteDSN = DefaultConfigDir + "/mediator.db"
	// DefaultDefinitionsDir is the default directory of workflow YAMLs.
	DefaultDefinitionsDir = "workflows"
	// DefaultMetricsAddr is the default bind address for the Prometheus
	// scrape endpoint, when metrics are enabled.
	DefaultMetricsAddr = ":9090"
)
