package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/tagdeck/internal/config"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/store/postgres"
	"github.com/teemow/tagdeck/internal/store/sqlite"
)

// openStore opens the configured tag store with its schema applied.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to migrate postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
