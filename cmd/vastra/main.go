package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/vastra/pkg/logger"

	// Import migrations so their init() funcs run and register themselves.
	_ "github.com/shashiranjanraj/vastra/database/migrations"
)

func main() {
	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vastra",
	Short: "Vastra — catalog import & reconciliation engine",
	Long: "Vastra ingests delimited vendor product feeds, normalizes them and\n" +
		"reconciles them into the catalog without creating duplicates.",
}

func init() {
	// Imports
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(profilesCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers & ops
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(serveCmd)
}
