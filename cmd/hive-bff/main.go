package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hivehq/hive-bff/internal/auth"
	"github.com/hivehq/hive-bff/internal/config"
	"github.com/hivehq/hive-bff/internal/dents"
	"github.com/hivehq/hive-bff/internal/upload"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "hive-bff",
		Short: "Hive BFF — backend-for-frontend for the Hive household organizer",
		Long:  "hive-bff serves the Hive web client: it aggregates documents, events, notes, and tasks per entity, handles document attach, and proxies the remaining API surface to the Hive backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		dentsCmd(),
		uploadCmd(),
		healthCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newCredentials() auth.CredentialProvider {
	if cfg.Auth.UpstreamToken != "" {
		return auth.StaticProvider{Token: cfg.Auth.UpstreamToken}
	}
	return auth.EnvProvider{Var: cfg.Auth.UpstreamTokenEnv}
}

func newFetcher(logger *slog.Logger) *dents.Client {
	return dents.NewClient(
		cfg.Upstream.BaseURL,
		cfg.Upstream.Timeout(),
		newCredentials(),
		logger,
	)
}

func newUploader(logger *slog.Logger) *upload.Uploader {
	storage := upload.DiskStorage{Dir: cfg.Upload.StorageDir}
	records := upload.NewRecordsClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout(), newCredentials())
	notifier := upload.SlogNotifier{Logger: logger}
	return upload.NewUploader(storage, records, notifier, logger, uuid.NewString)
}
