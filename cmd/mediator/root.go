package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/meshflow/mediator/config"
	"github.com/meshflow/mediator/logging"
)

var (
	configPath     string
	debug          bool
	definitionsDir string
	cfg            config.Config
)

// NewRootCmd creates the root "mediator" command with persistent flags and
// subcommands, following the teacher's flat cobra-plus-godotenv bootstrap.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{Use: "mediator"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mediator.json", "path to mediator config JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logs")
	rootCmd.PersistentFlags().StringVar(&definitionsDir, "definitions-dir", "", "workflow definitions directory (overrides config file)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			loaded = &config.Config{}
		}
		cfg = loaded.WithDefaults()

		if definitionsDir != "" {
			cfg.DefinitionsDir = definitionsDir
		}
		if debug {
			cfg.Log.Level = "debug"
		}
		logging.SetMode(cfg.Log.Level)
	}

	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}
