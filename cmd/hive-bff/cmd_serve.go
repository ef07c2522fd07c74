package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivehq/hive-bff/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the BFF HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			fetcher := newFetcher(logger)
			uploader := newUploader(logger)
			proxy := api.NewProxy(cfg.Upstream.BaseURL, cfg.Upstream.Timeout(), newCredentials(), logger)

			srv := api.NewServer(fetcher, uploader, proxy, logger, cfg.API.AuthToken, cfg.Dents.IncludeDeleted)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set HIVE_BFF_API_AUTH_TOKEN or cfg.api.auth_token for production use")
			}

			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", "addr", cfg.API.ListenAddr, "upstream", cfg.Upstream.BaseURL)
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
					errCh <- fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
				close(errCh)
			}()

			select {
			case <-cmd.Context().Done():
				logger.Info("shutting down")
			case startErr := <-errCh:
				if startErr != nil {
					return startErr
				}
				return nil
			}

			const shutdownTimeout = 10 * time.Second
			if shutdownErr := api.Shutdown(httpSrv, shutdownTimeout); shutdownErr != nil {
				return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
			}

			// Drain the errCh in case ListenAndServe returned after Shutdown.
			if startErr := <-errCh; startErr != nil {
				return startErr
			}

			return nil
		},
	}
	return cmd
}
