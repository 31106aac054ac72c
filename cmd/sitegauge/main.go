// Package main provides the entry point for the sitegauge audit server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sitegauge",
	Short: "Lighthouse audit dashboard backend",
	Long:  "sitegauge runs Lighthouse audits across the routes of a site, aggregates the category scores, and serves the history over a REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
