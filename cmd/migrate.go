package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/tagdeck/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the tag store schema",
		Long: `Create the tag store tables and indexes if they do not exist yet.
The schema is idempotent, so migrate is safe to run on every deploy.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd, map[string]string{
				"store.driver": "store-driver",
				"store.dsn":    "store-dsn",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}

	cmd.Flags().String("store-driver", "sqlite", "Store driver: sqlite or postgres")
	cmd.Flags().String("store-dsn", "tagdeck.db", "SQLite path or PostgreSQL connection string")

	return cmd
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})

	s, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	logger.Info("store schema applied", "driver", cfg.Store.Driver)
	fmt.Printf("Schema applied to %s store\n", cfg.Store.Driver)
	return nil
}
