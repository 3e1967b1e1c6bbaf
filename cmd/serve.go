package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jpkvat/internal/api"
	"jpkvat/internal/jpk"
	"jpkvat/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the declaration generator over HTTP",
	Long: `Start an HTTP server exposing the declaration generator.

Endpoints:
  GET  /health                      - liveness and registered document kinds
  POST /api/v1/declarations         - generate one declaration
  POST /api/v1/declarations/batch   - generate up to 100 declarations
  GET  /api/v1/nip/:nip             - check a NIP

Send "Accept: application/xml" to receive a generated declaration as XML
instead of the JSON result.

Optional environment variables:
  HTTP_ADDR     - Listen address (default: :8080)
  APP_ENV       - "production" switches gin to release mode
  BATCH_WORKERS - Workers per batch request (default: 12)`,
	Example: `  jpkvat serve
  HTTP_ADDR=127.0.0.1:9000 jpkvat serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	gen := jpk.NewGenerator(jpk.WithWorkers(cfg.BatchWorkers))
	kinds := make([]string, 0)
	for _, k := range gen.Kinds() {
		kinds = append(kinds, k.String())
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(cfg, gen, kinds),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Strs("kinds", kinds).Msg("jpkvat listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Server error")
			return err
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}
