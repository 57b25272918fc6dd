package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewithrodrick/portfolio-backend/internal/database"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
)

var adminStatusCmd = &cobra.Command{
	Use:   "admin-status",
	Short: "Report whether the admin account has been registered",
	Args:  cobra.NoArgs,
	RunE:  runAdminStatus,
}

func init() {
	rootCmd.AddCommand(adminStatusCmd)
}

func runAdminStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	exists, err := services.NewAdminStore(db).Exists(cmd.Context())
	if err != nil {
		return err
	}
	if exists {
		fmt.Fprintln(cmd.OutOrStdout(), "admin account: registered (registration closed)")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "admin account: none (registration open)")
	}
	return nil
}
