package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/planforge/internal/preview"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP preview server",
	Long: `Serve exposes compile, budget, project, duplicates, merge and diff as JSON
endpoints under /v1, plus /healthz. Compilation is lenient unless a request
sets "strict": true.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := settings.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		if settings.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		router := preview.NewRouter(preview.Config{
			Logger:      logger,
			CORSOrigins: settings.CORSOrigins,
			Version:     version,
		})
		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", addr).Str("version", version).Msg("preview server listening")
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (default from PLANFORGE_ADDR)")
}
