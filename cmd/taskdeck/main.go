package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "taskdeck",
		Short:   "Taskdeck - personal task manager",
		Version: Version,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./taskdeck.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
