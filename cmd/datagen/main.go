package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/downline/internal/dataset"
	"github.com/vanshika/downline/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		members     = flag.Int("members", cfg.NumMembers, "number of members to generate")
		deals       = flag.Int("deals", cfg.NumDeals, "number of deals to generate")
		maxChildren = flag.Int("max-children", cfg.MaxChildren, "maximum direct downline per member")
		historyDays = flag.Int("history-days", cfg.HistoryDays, "days of deal history before now")
		writerShare = flag.Float64("writer-share", cfg.WriterShare, "fraction of members that write deals")
		textChance  = flag.Float64("text-premium-chance", cfg.TextPremiumChance, "probability a premium is stored as formatted text")
		badChance   = flag.Float64("malformed-chance", cfg.MalformedChance, "probability a premium does not parse")
		dangling    = flag.Float64("dangling-chance", cfg.DanglingChance, "probability a member points at a missing upline")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir   = flag.String("output-dir", "data", "directory to write members.json and deals.json")
		writeStdout = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumMembers:        *members,
		NumDeals:          *deals,
		MaxChildren:       *maxChildren,
		HistoryDays:       *historyDays,
		WriterShare:       clampProbability(*writerShare),
		TextPremiumChance: clampProbability(*textChance),
		MalformedChance:   clampProbability(*badChance),
		DanglingChance:    clampProbability(*dangling),
		Seed:              *seed,
		Now:               time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(snap); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := dataset.Write(snap, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d members and %d deals into %s\n", len(snap.Members), len(snap.Deals), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
