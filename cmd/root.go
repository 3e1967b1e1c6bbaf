package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jpkvat/internal/config"
	"jpkvat/internal/ledger"
	"jpkvat/internal/logger"
	"jpkvat/pkg/models"
)

var version = "1.0.0"

// cfg is set by Execute before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "jpkvat",
	Short: "jpkvat - JPK_V7M declaration generator",
	Long: `jpkvat turns a company's VAT registers into a JPK_V7M (2) declaration:
the combined monthly VAT return and sales/purchase register file filed with
the Polish tax administration.

Registers can be supplied as a JSON generation request, an XLSX workbook or
a Google Sheets ledger. Every run either produces a schema-ordered XML
document or a complete list of diagnostics explaining why it was rejected.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("jpkvat executed without subcommand")

		_ = cmd.Help()
	},
}

// Execute runs the root command with c as the process configuration.
func Execute(c *config.Config) {
	cfg = c
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// commandContext returns a context that ends after timeout or on SIGINT/SIGTERM.
func commandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// registerSheets returns the configured register sheet names.
func registerSheets() ledger.Sheets {
	return ledger.Sheets{Sales: cfg.SalesSheet, Purchase: cfg.PurchaseSheet}
}

// applyGeneratorDefaults fills generator info the request leaves empty.
func applyGeneratorDefaults(req *models.GenerationRequest) {
	if req.Generator.SystemName == "" {
		req.Generator.SystemName = cfg.SystemName
	}
	if req.Generator.OperatorID == "" {
		req.Generator.OperatorID = cfg.OperatorID
	}
}
