// Command weathersales loads the raw point-of-sale and weather extracts into
// the warehouse and serves the Weather-Sales views, the dashboard and the
// Kafka export.
package main

import (
	"context"
	"log/slog"
	"os"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-sales-pipeline/internal/config"
	"github.com/couchcryptid/weather-sales-pipeline/internal/observability"
	"github.com/couchcryptid/weather-sales-pipeline/internal/pipeline"
	"github.com/couchcryptid/weather-sales-pipeline/internal/raw"
	"github.com/couchcryptid/weather-sales-pipeline/internal/warehouse"
	"github.com/spf13/cobra"
)

// app is the state every subcommand shares once the root command has run.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

var env app

var rootCmd = &cobra.Command{
	Use:   "weathersales",
	Short: "Weather and point-of-sale analytics pipeline",
	Long: `weathersales loads raw CSV extracts (orders, trucks, menu, customers,
locations, postal codes and daily weather) into a SQL warehouse and computes
the harmonized and analytics views from them on every read.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		env.cfg = cfg
		env.logger = newLogger(cmd, cfg)
		env.metrics = observability.NewMetrics()
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger := env.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newLogger logs to stdout for serve, like any service, and to stderr for
// the commands that print results on stdout.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if cmd == serveCmd {
		return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	return observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// openPipeline opens the configured warehouse and wraps it in a Pipeline.
// The caller closes the returned warehouse.
func openPipeline(ctx context.Context) (*pipeline.Pipeline, *warehouse.Warehouse, error) {
	wh, err := warehouse.Open(ctx, env.cfg.WarehouseDriver, env.cfg.WarehouseDSN, env.logger)
	if err != nil {
		return nil, nil, err
	}
	csv := raw.CSVOptions{Delimiter: env.cfg.CSVDelimiter, Header: env.cfg.CSVHeader}
	return pipeline.New(wh, csv, env.logger, env.metrics), wh, nil
}
