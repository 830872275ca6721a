package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/tatianab/deduction-bench/internal/agent"
	"github.com/tatianab/deduction-bench/internal/bench"
	"github.com/tatianab/deduction-bench/internal/config"
	"github.com/tatianab/deduction-bench/internal/engine"
	"github.com/tatianab/deduction-bench/internal/gamelog"
	"github.com/tatianab/deduction-bench/internal/models"
	"github.com/tatianab/deduction-bench/internal/tui"
)

const maxSteps = 2000

// Drives one game step by step from outside the orchestrator, the way an
// external environment loop would, and prints the public record as it grows.
func main() {
	seed := flag.Int64("seed", 1, "game seed")
	players := flag.Int("players", 5, "number of seats")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	v, err := bench.Registry().Lookup(cfg.Variant)
	if err != nil {
		log.Fatalf("Failed to find variant: %v", err)
	}

	agents := make([]agent.Agent, *players)
	for i := range agents {
		base := agent.NewBase(models.PlayerID(i), fmt.Sprintf("random-%d", i), cfg.MemoryCapacity, false)
		agents[i] = agent.NewRandom(base, *seed*7919+int64(i))
	}
	rec := gamelog.New("simulation", gamelog.Options{LogPrivate: true})
	o, err := engine.New(v, agents, engine.Config{
		Seed:             *seed,
		DiscussionRounds: cfg.DiscussionRounds,
		MaxRounds:        cfg.MaxRounds,
	}, engine.WithRecord(rec))
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	// 1. Start the game
	fmt.Println("--- Setup ---")
	if _, err := o.Reset(); err != nil {
		log.Fatalf("Failed to reset: %v", err)
	}
	printed := printPublic(rec, 0)

	// 2. Play until an outcome
	ctx := context.Background()
	for step := 1; step <= maxSteps; step++ {
		p, ok := o.CurrentActor()
		if !ok {
			break
		}
		obs, err := o.Observation(p)
		if err != nil {
			log.Fatalf("Failed to observe player %d: %v", p, err)
		}
		a, err := agents[p].Act(ctx, obs)
		if err != nil {
			log.Fatalf("Player %d failed to act: %v", p, err)
		}
		res, err := o.Step(a)
		if err != nil {
			fmt.Printf("Step %d rejected: %v\n", step, err)
			continue
		}
		fmt.Printf("--- Step %d: player %d %s (%s, round %v) ---\n", step, p, a.Type, res.Info["phase"], res.Info["round"])
		printed = printPublic(rec, printed)
		if res.Done {
			fmt.Printf("Game Ended: %v wins (%v)\n", res.Info["winner"], res.Info["reason"])
			break
		}
	}

	// 3. Summarize
	r := o.Result()
	fmt.Printf("\nRounds: %d, winners: %v\n", r.NumRounds, r.Winners)
	st := rec.Stats()
	fmt.Printf("Record: %d entries, %d private\n", st.Total, st.Private)
}

// printPublic prints public entries after the first n and returns the new
// count of retained entries.
func printPublic(rec *gamelog.Logger, n int) int {
	all := rec.Entries(gamelog.Filter{})
	for _, r := range all[n:] {
		if !r.IsPrivate {
			fmt.Println("  " + tui.RenderRecord(r))
		}
	}
	return len(all)
}
