// Command geofetch resolves place names to coordinates through a
// Nominatim-compatible geocoding service.
//
// Usage:
//
//	geofetch seed                  # write the default city list to cities.json
//	geofetch run                   # resolve cities.json into coordinates.json
//	geofetch run --redis-url redis://localhost:6379/0 --concurrency 2
//	geofetch show "Paris, France"  # print stored results from REDIS_URL
//
// Settings come from the environment (or a .env file) and can be overridden
// by flags. See internal/config for the variable names.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/geo-enrich/internal/config"
	"github.com/Sternrassler/geo-enrich/pkg/logging"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geofetch",
	Short: "Concurrent geocoding fetcher",
	Long:  "Resolves a list of place names to latitude/longitude through a Nominatim-compatible service with bounded concurrency, retries and 429 handling.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		logging.Setup(cfg.LoggingConfig())
		return nil
	},
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
