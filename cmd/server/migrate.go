package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codewithrodrick/portfolio-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Run database migrations",
	Long:      `Apply (up, the default) or roll back (down) the embedded Postgres schema migrations.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("unknown migration direction %q (want up or down)", direction)
	}

	db, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	slog.Info("running database migrations", "direction", direction)
	if err := database.RunMigrations(db, direction); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations completed")
	return nil
}
