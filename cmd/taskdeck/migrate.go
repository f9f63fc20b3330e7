package main

import (
	"fmt"
	"log"

	"github.com/monocle-dev/taskdeck/db"
	"github.com/monocle-dev/taskdeck/internal/config"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			conn, err := db.Connect(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}

			if err := db.MigrateDatabase(conn); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			log.Println("Database migrated")

			return nil
		},
	}
}
