// Package bench wires configuration into runnable games: the variant
// registry, the agents of a roster, and an orchestrator with its record.
package bench

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tatianab/deduction-bench/internal/agent"
	"github.com/tatianab/deduction-bench/internal/config"
	"github.com/tatianab/deduction-bench/internal/engine"
	"github.com/tatianab/deduction-bench/internal/gamelog"
	"github.com/tatianab/deduction-bench/internal/llm"
	"github.com/tatianab/deduction-bench/internal/models"
	"github.com/tatianab/deduction-bench/internal/variants/secrethitler"
)

// Registry returns a registry with every built-in variant.
func Registry() *engine.Registry {
	r := engine.NewRegistry()
	if err := secrethitler.Register(r); err != nil {
		panic(err)
	}
	return r
}

// Builder creates agents and games from one configuration. The limiter is
// shared by every LLM seat of every game built from it.
type Builder struct {
	Config   *config.Config
	Registry *engine.Registry
	Log      *zap.Logger
	Limiter  *llm.Limiter
	// Client, when set, serves every LLM seat. Otherwise seats derive a
	// Gemini model from Gemini.
	Client llm.Client
	Gemini *llm.Gemini
}

// NewBuilder connects to Gemini only when the roster needs a model.
func NewBuilder(ctx context.Context, cfg *config.Config, roster config.Roster, log *zap.Logger) (*Builder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Builder{
		Config:   cfg,
		Registry: Registry(),
		Log:      log,
		Limiter:  llm.NewLimiter(cfg.CallsPerMinute, cfg.MaxInFlight),
	}
	if roster.NeedsLLM() {
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is not set")
		}
		g, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, llm.Params{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to gemini: %w", err)
		}
		b.Gemini = g
	}
	return b, nil
}

func (b *Builder) Close() {
	if b.Gemini != nil {
		b.Gemini.Close()
	}
}

// seatSeed spreads the game seed over seats.
func seatSeed(seed int64, seat int) int64 {
	return seed*7919 + int64(seat)
}

// Agents seats the roster; seat i becomes player i.
func (b *Builder) Agents(roster config.Roster, variant string, seed int64) ([]agent.Agent, error) {
	out := make([]agent.Agent, len(roster.Seats))
	for i, s := range roster.Seats {
		base := agent.NewBase(models.PlayerID(i), s.Name, b.Config.MemoryCapacity, b.Config.MemoryCarryOver)
		switch s.Kind {
		case config.KindRandom:
			sd := seatSeed(seed, i)
			if s.Seed != nil {
				sd = *s.Seed
			}
			if s.Name == "" {
				base.Label = fmt.Sprintf("random-%d", i)
			}
			out[i] = agent.NewRandom(base, sd)
		case config.KindLLM:
			client, err := b.client(s)
			if err != nil {
				return nil, fmt.Errorf("seat %d: %w", i, err)
			}
			if s.Name == "" {
				base.Label = fmt.Sprintf("llm-%d", i)
			}
			out[i] = agent.NewLLM(base, variant, client)
		case config.KindLua:
			if s.Name == "" {
				base.Label = fmt.Sprintf("lua-%d", i)
			}
			a, err := agent.LoadLua(base, s.Script)
			if err != nil {
				return nil, fmt.Errorf("seat %d: %w", i, err)
			}
			out[i] = a
		default:
			return nil, fmt.Errorf("seat %d: unknown agent kind %q", i, s.Kind)
		}
	}
	return out, nil
}

// client decorates the seat's model with the shared limiter and the retry
// policy. Each retry waits on the limiter again.
func (b *Builder) client(s config.Seat) (llm.Client, error) {
	var c llm.Client
	switch {
	case b.Client != nil:
		c = b.Client
	case b.Gemini != nil:
		c = b.Gemini.Model(llm.Params{Model: s.Model, Temperature: s.Temperature, MaxTokens: s.MaxTokens})
	default:
		return nil, errors.New("no language model configured")
	}
	policy := llm.DefaultRetryPolicy()
	policy.MaxRetries = b.Config.MaxRetries
	return llm.WithRetry(llm.WithLimiter(c, b.Limiter), policy, b.Log), nil
}

// Game is one built game: the orchestrator plus the resources it owns.
type Game struct {
	*engine.Orchestrator
	agents []agent.Agent
}

// Close flushes the record and releases agent resources.
func (g *Game) Close() error {
	for _, a := range g.agents {
		if c, ok := a.(interface{ Close() }); ok {
			c.Close()
		}
	}
	return g.Record().Close()
}

// NewGame builds an orchestrator for one game. The record goes to
// <LogDir>/<gameID>.jsonl when LogDir is set.
func (b *Builder) NewGame(roster config.Roster, gameID string, seed int64) (*Game, error) {
	v, err := b.Registry.Lookup(b.Config.Variant)
	if err != nil {
		return nil, err
	}
	agents, err := b.Agents(roster, v.Name(), seed)
	if err != nil {
		return nil, err
	}
	opts := gamelog.Options{LogPrivate: b.Config.LogPrivate}
	var rec *gamelog.Logger
	if b.Config.LogDir != "" {
		if rec, err = gamelog.Create(b.Config.LogDir, gameID, opts); err != nil {
			return nil, err
		}
	} else {
		rec = gamelog.New(gameID, opts)
	}
	cfg := engine.Config{
		GameID:           gameID,
		Seed:             seed,
		DiscussionRounds: b.Config.DiscussionRounds,
		MaxRounds:        b.Config.MaxRounds,
		MaxRetries:       b.Config.ActionRetries,
		DecisionTimeout:  b.Config.DecisionTimeout,
	}
	o, err := engine.New(v, agents, cfg, engine.WithRecord(rec), engine.WithLogger(b.Log.With(zap.String("game_id", gameID))))
	if err != nil {
		rec.Close()
		return nil, err
	}
	return &Game{Orchestrator: o, agents: agents}, nil
}

// Play builds, runs and closes one game.
func (b *Builder) Play(ctx context.Context, roster config.Roster, gameID string, seed int64) (models.GameResult, error) {
	g, err := b.NewGame(roster, gameID, seed)
	if err != nil {
		return models.GameResult{}, err
	}
	res, err := g.PlayGame(ctx)
	if cerr := g.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return res, err
}
