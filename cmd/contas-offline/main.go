// Command contas-offline is a terminal client for the contas API. Mutations
// made while the API is unreachable are queued locally and replayed once it
// comes back.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contas/internal/cli"
	"contas/internal/client"
	"contas/internal/config"
	"contas/internal/offline"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := offline.NewSQLiteStore(cfg.OfflineDBPath)
	if err != nil {
		logger.Error("Failed to open offline store", "error", err, "path", cfg.OfflineDBPath)
		os.Exit(1)
	}
	defer store.Close()

	a := newApp(appConfig{
		BaseURL:      cfg.APIBaseURL,
		Store:        store,
		Checker:      client.NewProber(cfg.APIBaseURL, 3*time.Second),
		SyncInterval: cfg.OfflineSyncInterval,
		Out:          os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = a.run(ctx, os.Args[1:])
	switch {
	case errors.Is(err, client.ErrQueued):
		fmt.Fprintln(os.Stdout, "API indisponível: ação salva para sincronização.")
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}
