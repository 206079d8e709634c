package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/downline/internal/backend"
	"github.com/vanshika/downline/internal/config"
	"github.com/vanshika/downline/internal/dataset"
	"github.com/vanshika/downline/internal/logging"
	"github.com/vanshika/downline/internal/service"
)

func main() {
	var (
		datasetDir = flag.String("dataset-dir", "./seed-data", "Directory containing members.json and deals.json")
		workers    = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Store.Driver == config.DriverMemory {
		fmt.Fprintln(os.Stderr, "ingest needs a persistent store; set STORE_DRIVER to neo4j or postgres")
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	snap, err := dataset.Load(*datasetDir)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "dir", *datasetDir)
		os.Exit(1)
	}
	if len(snap.Members) == 0 {
		logger.Error("members dataset empty", "dir", *datasetDir)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closer, err := backend.Open(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()

	ingestor := service.NewBulkIngestor(service.NewIngestService(store), *workers).
		WithProgress(func(kind string, done, total int) {
			if step := total / 10; step > 0 && done%step == 0 {
				logger.Info("ingest progress", "kind", kind, "done", done, "total", total)
			}
		})

	members := make([]service.MemberInput, 0, len(snap.Members))
	for _, m := range snap.Members {
		members = append(members, service.MemberInputFrom(m))
	}
	deals := make([]service.DealInput, 0, len(snap.Deals))
	for _, d := range snap.Deals {
		deals = append(deals, service.DealInputFrom(d))
	}

	start := time.Now()
	logger.Info("ingesting members", "count", len(members), "workers", *workers)
	if err := ingestor.IngestMembers(ctx, members); err != nil {
		logger.Error("member ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingesting deals", "count", len(deals))
	if err := ingestor.IngestDeals(ctx, deals); err != nil {
		logger.Error("deal ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "members", len(members), "deals", len(deals))
}
