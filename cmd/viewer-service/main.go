// Package main is the estimate viewer: an HTTP service that generates cloud cost estimates
// per project and serves the markdown library they live in.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "viewer-service",
	Short: "Estimate viewer and generator",
	Long:  "Serves project estimates and markdown references over HTTP and generates provider estimates in the background.",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default $VIEWER_SERVICE_CONFIG_PATH or configs/viewer-service/config.yaml)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
