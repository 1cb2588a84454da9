// Command shopfloor is the operator-facing entry point for the scheduling
// and collection surfaces described in SPEC_FULL.md §6: a synchronous batch
// scheduler invocation, a long-lived job worker, a device collector per
// protocol, and an on-demand OEE reconciliation sweep.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesforge/shopfloor/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var cfg config.Config
var log zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "shopfloor",
	Short: "Shopfloor manufacturing scheduling and collection system",
	Long: `shopfloor schedules production orders against shop-floor machines,
reconciles logged production against the active schedule, collects live
machine status over OPC UA, LSV2 and Modbus, and projects each order's
probable completion date.`,
}

func init() {
	cobra.OnInitialize(func() {
		cfg = config.Load()
		log = buildLogger(cfg)
	})

	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(collectorCmd)
	rootCmd.AddCommand(oeeCmd)
}

// buildLogger constructs the process root logger from cfg. It is stored in
// this package's log variable, which the commands read and pass explicitly
// into every constructor; no package under internal reads a package-level
// logger.
func buildLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if cfg.LogJSON {
		l = zerolog.New(os.Stderr)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return l.Level(level).With().Timestamp().Logger()
}
