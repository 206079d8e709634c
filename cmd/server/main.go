package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vanshika/downline/internal/aggregate"
	"github.com/vanshika/downline/internal/backend"
	"github.com/vanshika/downline/internal/config"
	"github.com/vanshika/downline/internal/logging"
	"github.com/vanshika/downline/internal/server"
	"github.com/vanshika/downline/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)

	if err := run(logger, cfg); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closer, err := backend.Open(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return err
	}
	preset, err := aggregate.ParsePreset(cfg.Reporting.DefaultPreset)
	if err != nil {
		return err
	}

	analytics := service.NewAnalyticsService(store, service.AnalyticsOptions{
		ScopeLimit:    cfg.Reporting.ScopeLimit,
		TrendCap:      cfg.Reporting.TrendCap,
		Location:      loc,
		DefaultPreset: preset,
		Logger:        logger.With("component", "analytics"),
	})
	ingest := service.NewIngestService(store)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: store},
		API:              server.NewAPIHandlers(logger, analytics, ingest, loc),
		AllowedOrigins:   splitOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
	})
	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	// The signal context is already done; drain with a fresh one.
	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-errCh
}

func splitOrigins(csv string) []string {
	var origins []string
	for _, part := range strings.Split(csv, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
