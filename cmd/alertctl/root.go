package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/analysis"
	"github.com/robert-malhotra/glad-analysis/internal/config"
	"github.com/robert-malhotra/glad-analysis/internal/metrics"
	"github.com/robert-malhotra/glad-analysis/pkg/server"
)

var (
	logLevel string
	dataset  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alertctl",
	Short: "Query GLAD and Terra-i deforestation alerts.",
	Long: `alertctl counts forest-change alerts for an area and period, and reports
the dates covered by each alert dataset.

Configuration is read from the environment (and a .env file), exactly like the server.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&dataset, "dataset", "d", "glad", "Alert dataset: glad or terrai")

	rootCmd.AddCommand(countCmd, dateRangeCmd, latestCmd)
}

func datasetKind() (alerts.Kind, error) {
	switch k := alerts.Kind(strings.ToLower(dataset)); k {
	case alerts.KindGlad, alerts.KindTerrai:
		return k, nil
	default:
		return "", fmt.Errorf("unknown dataset %q, expected glad or terrai", dataset)
	}
}

// newService loads configuration and wires the analysis core. Logs go to stderr
// so stdout only carries the result document.
func newService(grouped bool) (*analysis.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Metrics.Enabled = false

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(logLevel)}))
	srv, err := server.FromConfig(cfg, metrics.BuildInfo{}, logger)
	if err != nil {
		return nil, err
	}
	return srv.Service().WithGroupedAggregation(grouped), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
