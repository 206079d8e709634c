// Package backend opens the member/deal store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vanshika/downline/internal/config"
	"github.com/vanshika/downline/internal/dataset"
	"github.com/vanshika/downline/internal/graph"
	"github.com/vanshika/downline/internal/pgstore"
	"github.com/vanshika/downline/internal/repository"
	"github.com/vanshika/downline/internal/service"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open builds the store for cfg.Store.Driver. The returned closer releases
// the underlying connections and is never nil on success.
func Open(ctx context.Context, logger *slog.Logger, cfg config.Config) (service.Store, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.DriverNeo4j:
		return openGraph(ctx, logger, cfg.Graph)
	case config.DriverPostgres:
		return openPostgres(logger, cfg.Postgres)
	case config.DriverMemory:
		return openMemory(logger, cfg.Store)
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Store.Driver)
}

func openGraph(ctx context.Context, logger *slog.Logger, cfg config.GraphConfig) (service.Store, io.Closer, error) {
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
		AcquireTimeout: cfg.AcquireTimeout,
		MaxRetryTime:   cfg.MaxRetryTime,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, nil, fmt.Errorf("verify graph connectivity: %w", err)
	}
	closer := closerFunc(func() error { return client.Close(context.Background()) })

	repo := repository.New(client)
	if cfg.EnsureSchema {
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
	}
	logger.Info("connected to graph", "uri", cfg.URI, "database", cfg.Database)
	return repo, closer, nil
}

func openPostgres(logger *slog.Logger, cfg config.PostgresConfig) (service.Store, io.Closer, error) {
	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := pgstore.Open(cfg.DSN, cfg.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	store := pgstore.New(db)

	if cfg.MigrationsPath != "" {
		err = pgstore.RunMigrations(db, cfg.MigrationsPath)
	} else {
		err = store.AutoMigrate()
	}
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("prepare schema: %w", err)
	}
	logger.Info("connected to postgres", "migrations", cfg.MigrationsPath)
	return store, store, nil
}

func openMemory(logger *slog.Logger, cfg config.StoreConfig) (service.Store, io.Closer, error) {
	noop := closerFunc(func() error { return nil })
	if cfg.DatasetDir == "" {
		return dataset.NewStore(), noop, nil
	}
	snap, err := dataset.Load(cfg.DatasetDir)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("seeded memory store", "dir", cfg.DatasetDir, "members", len(snap.Members), "deals", len(snap.Deals))
	return dataset.FromSnapshot(snap), noop, nil
}
