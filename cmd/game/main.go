package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tatianab/deduction-bench/internal/bench"
	"github.com/tatianab/deduction-bench/internal/config"
	"github.com/tatianab/deduction-bench/internal/engine"
	"github.com/tatianab/deduction-bench/internal/models"
	"github.com/tatianab/deduction-bench/internal/telemetry"
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

	shutdown, err := telemetry.Setup(ctx, cfg, "deduction-bench-game")
	if err != nil {
		config.Exitf("Error setting up tracing: %v", err)
	}
	defer shutdown(context.Background())

	roster, err := cfg.LoadRoster()
	if err != nil {
		config.Exitf("Error loading roster: %v", err)
	}

	b, err := bench.NewBuilder(ctx, cfg, roster, log)
	if err != nil {
		config.Exitf("Error creating builder: %v", err)
	}
	defer b.Close()

	gameID := uuid.NewString()
	res, err := b.Play(ctx, roster, gameID, cfg.Seed)
	if err != nil {
		log.Error("game failed", zap.String("game_id", gameID), zap.Error(err))
		if engine.IsCorruption(err) {
			config.Exitf("Game %s stopped on corrupted state: %v", gameID, err)
		}
		config.Exitf("Error playing game: %v", err)
	}

	path, err := models.SaveResult(cfg.ResultDir, res)
	if err != nil {
		config.Exitf("Error saving result: %v", err)
	}
	out, err := yaml.Marshal(res)
	if err != nil {
		config.Exitf("Error encoding result: %v", err)
	}
	fmt.Print(string(out))
	fmt.Printf("\nResult saved to %s\n", path)
}
