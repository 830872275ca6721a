package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/deduction-bench/internal/bench"
	"github.com/tatianab/deduction-bench/internal/config"
	"github.com/tatianab/deduction-bench/internal/storage/sqlite"
	"github.com/tatianab/deduction-bench/internal/telemetry"
	"github.com/tatianab/deduction-bench/internal/tournament"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error loading config: %v", err)
	}
	log, err := cfg.Logger()
	if err != nil {
		config.Exitf("Error creating logger: %v", err)
	}
	defer log.Sync()

	shutdown, err := telemetry.Setup(ctx, cfg, "deduction-bench-tournament")
	if err != nil {
		config.Exitf("Error setting up tracing: %v", err)
	}
	defer shutdown(context.Background())

	roster, err := cfg.LoadRoster()
	if err != nil {
		config.Exitf("Error loading roster: %v", err)
	}
	pool, err := cfg.LoadPool()
	if err != nil {
		config.Exitf("Error loading pool: %v", err)
	}
	entrants := roster
	if pool != nil {
		entrants = config.Roster{Seats: pool}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		config.Exitf("Error creating database directory: %v", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("Error opening database: %v", err)
	}
	defer store.Close()

	b, err := bench.NewBuilder(ctx, cfg, entrants, log)
	if err != nil {
		config.Exitf("Error creating builder: %v", err)
	}
	defer b.Close()

	sum, err := tournament.Run(ctx, b, store, tournament.Spec{
		Games:    cfg.Games,
		Parallel: cfg.Parallel,
		Seed:     cfg.Seed,
		Roster:   roster,
		Pool:     pool,
		Seats:    cfg.Players,
	}, log)
	if err != nil {
		config.Exitf("Error running tournament: %v", err)
	}

	overall, err := store.Standings(ctx, cfg.Variant)
	if err != nil {
		config.Exitf("Error reading standings: %v", err)
	}

	out, err := yaml.Marshal(map[string]any{
		"tournament": sum.ID,
		"played":     len(sum.Results),
		"failed":     sum.Failed,
		"standings":  sum.Standings,
		"all_time":   overall,
	})
	if err != nil {
		config.Exitf("Error encoding summary: %v", err)
	}
	fmt.Print(string(out))
}
