package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meshflow/mediator/bus"
	"github.com/meshflow/mediator/logging"
	"github.com/meshflow/mediator/mediator"
	"github.com/meshflow/mediator/metrics"
	"github.com/meshflow/mediator/state"
)

// closer is implemented by the state stores that hold an open resource
// (SQLite/Postgres); MemoryStore doesn't need it.
type closer interface {
	Close() error
}

// newServeCmd creates the "serve" subcommand: the real process bootstrap,
// replacing the teacher's stub of the same name.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load workflow definitions and run the mediator until shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := state.New(&cfg.State)
	if err != nil {
		return logging.Errorf("serve: open state store: %w", err)
	}
	if c, ok := store.(closer); ok {
		defer c.Close()
	}

	b, err := bus.New(&cfg.Bus)
	if err != nil {
		return logging.Errorf("serve: connect bus: %w", err)
	}

	if _, err := metrics.InitTracing("mediator"); err != nil {
		logging.Error("init tracing: %v", err)
	}

	med := mediator.New(b, store, nil)
	if err := med.LoadDefinitions(cfg.DefinitionsDir); err != nil {
		return logging.Errorf("serve: load definitions: %w", err)
	}
	if err := med.Start(ctx); err != nil {
		return logging.Errorf("serve: start: %w", err)
	}
	logging.User("mediator: serving workflows from %s", cfg.DefinitionsDir)

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	<-ctx.Done()
	logging.User("mediator: shutting down")
	return med.Close()
}
