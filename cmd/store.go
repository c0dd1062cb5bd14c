package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wegman-software/osm2sql-go/internal/logger"
	"github.com/wegman-software/osm2sql-go/internal/store"
)

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore validates the configuration and connects to the configured
// backend.
func openStore(ctx context.Context) *store.Store {
	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	s, err := store.Open(ctx, cfg)
	if err != nil {
		exitWithError("failed to open store", err)
	}

	logger.Get().Debug("Store opened",
		zap.String("backend", cfg.Backend),
		zap.String("dialect", s.Dialect().Name),
		zap.Int("max_params", s.Dialect().MaxParams))
	return s
}
