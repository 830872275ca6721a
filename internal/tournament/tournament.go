// Package tournament runs many independent games, possibly concurrently,
// either of one fixed roster or of round-robin matchups drawn from an agent
// pool, and aggregates the results.
package tournament

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tatianab/deduction-bench/internal/config"
	"github.com/tatianab/deduction-bench/internal/engine"
	"github.com/tatianab/deduction-bench/internal/models"
)

// Player plays one game to completion. bench.Builder implements it.
type Player interface {
	Play(ctx context.Context, roster config.Roster, gameID string, seed int64) (models.GameResult, error)
}

// ResultStore receives each finished game. storage/sqlite.Store implements it.
type ResultStore interface {
	SaveResult(ctx context.Context, tournamentID string, r models.GameResult) error
}

type Spec struct {
	// ID defaults to a fresh UUID and prefixes every game id.
	ID       string
	Games    int
	Parallel int
	// Seed derives every game's seed, so a tournament is reproducible.
	Seed   int64
	Roster config.Roster
	// Pool, when set, replaces Roster: games cycle through every Seats-sized
	// matchup of the pool. See Rosters.
	Pool  []config.Seat
	Seats int
}

type Standing struct {
	Agent   string  `json:"agent" yaml:"agent"`
	Games   int     `json:"games" yaml:"games"`
	Wins    int     `json:"wins" yaml:"wins"`
	WinRate float64 `json:"win_rate" yaml:"win_rate"`
}

type Summary struct {
	ID        string              `json:"id" yaml:"id"`
	Results   []models.GameResult `json:"results" yaml:"results"`
	Failed    []string            `json:"failed,omitempty" yaml:"failed,omitempty"`
	Standings []Standing          `json:"standings" yaml:"standings"`
}

// Seeds derives n game seeds from seed.
func Seeds(seed int64, n int) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	for i := range out {
		out[i] = rng.Int63()
	}
	return out
}

// Run plays spec.Games games with at most spec.Parallel in flight. Games
// share nothing but the player's dependencies and the store. A failed game
// is logged and listed in the summary; only ctx cancellation stops the run.
func Run(ctx context.Context, p Player, store ResultStore, spec Spec, log *zap.Logger) (Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.Games <= 0 {
		return Summary{}, fmt.Errorf("tournament needs at least one game, got %d", spec.Games)
	}
	if spec.Parallel <= 0 {
		spec.Parallel = 1
	}

	rosters, err := spec.Rosters()
	if err != nil {
		return Summary{}, fmt.Errorf("tournament %s: %w", spec.ID, err)
	}
	seeds := Seeds(spec.Seed, spec.Games)
	results := make([]*models.GameResult, spec.Games)
	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spec.Parallel)
	for i := range spec.Games {
		gameID := fmt.Sprintf("%s-%03d", spec.ID, i)
		seed, roster := seeds[i], rosters[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.Play(gctx, roster, gameID, seed)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Error("game failed",
					zap.String("game_id", gameID),
					zap.Int64("seed", seed),
					zap.Bool("corrupt", engine.IsCorruption(err)),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, gameID)
				mu.Unlock()
				return nil
			}
			if store != nil {
				if err := store.SaveResult(gctx, spec.ID, res); err != nil {
					return fmt.Errorf("store %s: %w", gameID, err)
				}
			}
			log.Info("game finished",
				zap.String("game_id", gameID),
				zap.String("winner", res.Winner),
				zap.Int("rounds", res.NumRounds))
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("tournament %s: %w", spec.ID, err)
	}

	sum := Summary{ID: spec.ID}
	for _, r := range results {
		if r != nil {
			sum.Results = append(sum.Results, *r)
		}
	}
	sort.Strings(failed)
	sum.Failed = failed
	sum.Standings = Standings(sum.Results)
	return sum, nil
}

// Standings tallies wins per agent name, best win rate first.
func Standings(results []models.GameResult) []Standing {
	by := map[string]*Standing{}
	for _, r := range results {
		winners := map[models.PlayerID]bool{}
		for _, w := range r.Winners {
			winners[w] = true
		}
		for p, stats := range r.PlayerStats {
			name, _ := stats["agent"].(string)
			st := by[name]
			if st == nil {
				st = &Standing{Agent: name}
				by[name] = st
			}
			st.Games++
			if winners[p] {
				st.Wins++
			}
		}
	}
	out := make([]Standing, 0, len(by))
	for _, st := range by {
		st.WinRate = float64(st.Wins) / float64(st.Games)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].Agent < out[j].Agent
	})
	return out
}
