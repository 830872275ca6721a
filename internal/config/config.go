// Package config loads benchmark settings from the environment and the
// per-seat agent roster from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	Variant string `env:"SDB_VARIANT" envDefault:"secret_hitler"`
	Players int    `env:"SDB_PLAYERS" envDefault:"5"`
	Seed    int64  `env:"SDB_SEED" envDefault:"0"`

	LogPrivate bool   `env:"SDB_LOG_PRIVATE" envDefault:"true"`
	LogDir     string `env:"SDB_LOG_DIR" envDefault:".results/logs"`
	ResultDir  string `env:"SDB_RESULT_DIR" envDefault:".results"`

	MemoryCapacity  int  `env:"SDB_MEMORY_CAPACITY" envDefault:"100"`
	MemoryCarryOver bool `env:"SDB_MEMORY_CARRY_OVER" envDefault:"false"`

	MaxRounds        int           `env:"SDB_MAX_ROUNDS" envDefault:"50"`
	DiscussionRounds int           `env:"SDB_DISCUSSION_ROUNDS" envDefault:"1"`
	DecisionTimeout  time.Duration `env:"SDB_DECISION_TIMEOUT" envDefault:"60s"`
	ActionRetries    int           `env:"SDB_ACTION_RETRIES" envDefault:"2"`

	CallsPerMinute int     `env:"SDB_CALLS_PER_MINUTE" envDefault:"60"`
	MaxInFlight    int     `env:"SDB_MAX_IN_FLIGHT" envDefault:"4"`
	MaxRetries     int     `env:"SDB_MAX_RETRIES" envDefault:"3"`
	Model          string  `env:"SDB_MODEL" envDefault:"gemini-2.5-flash"`
	Temperature    float32 `env:"SDB_TEMPERATURE" envDefault:"0.7"`
	MaxTokens      int     `env:"SDB_MAX_TOKENS" envDefault:"1024"`

	// Roster is a YAML seat list. Without one every seat is DefaultAgent.
	Roster       string `env:"SDB_ROSTER"`
	DefaultAgent string `env:"SDB_AGENT" envDefault:"random"`

	DBPath   string `env:"SDB_DB_PATH" envDefault:".results/bench.db"`
	Games    int    `env:"SDB_GAMES" envDefault:"10"`
	Parallel int    `env:"SDB_PARALLEL" envDefault:"4"`

	// Tracing exports spans over OTLP/HTTP only when an endpoint is set.
	OTelEndpoint string `env:"SDB_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"SDB_OTEL_ENABLED" envDefault:"true"`

	// Pool is a YAML seat list of tournament entrants. When set, each game
	// seats Players of them in round-robin matchups instead of the roster.
	Pool string `env:"SDB_POOL"`

	Debug bool `env:"SDB_DEBUG" envDefault:"false"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Players <= 0 {
		return nil, fmt.Errorf("SDB_PLAYERS must be positive, got %d", cfg.Players)
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}
	return cfg, nil
}

// Logger builds the diagnostic logger: development output with SDB_DEBUG,
// production JSON otherwise.
func (c *Config) Logger() (*zap.Logger, error) {
	if c.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Agent kinds accepted in a roster.
const (
	KindRandom = "random"
	KindLLM    = "llm"
	KindLua    = "lua"
)

// Seat configures the agent in one seat. Zero model parameters take the
// environment defaults.
type Seat struct {
	Kind        string  `yaml:"kind"`
	Name        string  `yaml:"name,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Script      string  `yaml:"script,omitempty"`
	Seed        *int64  `yaml:"seed,omitempty"`
}

type Roster struct {
	Seats []Seat `yaml:"seats"`
}

// LoadRoster reads a roster file.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("read roster: %w", err)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Roster{}, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return Roster{}, fmt.Errorf("roster %s: %w", path, err)
	}
	return r, nil
}

// Uniform seats n agents of one kind.
func Uniform(n int, kind string) Roster {
	r := Roster{Seats: make([]Seat, n)}
	for i := range r.Seats {
		r.Seats[i] = Seat{Kind: kind}
	}
	return r
}

func (r Roster) Validate() error {
	if len(r.Seats) == 0 {
		return errors.New("no seats")
	}
	for i, s := range r.Seats {
		switch s.Kind {
		case KindRandom, KindLLM:
		case KindLua:
			if s.Script == "" {
				return fmt.Errorf("seat %d: lua agent needs a script", i)
			}
		default:
			return fmt.Errorf("seat %d: unknown agent kind %q", i, s.Kind)
		}
	}
	return nil
}

// NeedsLLM reports whether any seat calls a language model.
func (r Roster) NeedsLLM() bool {
	for _, s := range r.Seats {
		if s.Kind == KindLLM {
			return true
		}
	}
	return false
}

// LoadRoster resolves the configured roster: the file when set, otherwise
// Players seats of DefaultAgent.
func (c *Config) LoadRoster() (Roster, error) {
	if c.Roster != "" {
		return LoadRoster(c.Roster)
	}
	r := Uniform(c.Players, c.DefaultAgent)
	return r, r.Validate()
}

// LoadPool reads the tournament pool, or returns nil when none is set.
func (c *Config) LoadPool() ([]Seat, error) {
	if c.Pool == "" {
		return nil, nil
	}
	r, err := LoadRoster(c.Pool)
	if err != nil {
		return nil, err
	}
	if len(r.Seats) < c.Players {
		return nil, fmt.Errorf("pool %s has %d entrants for %d seats", c.Pool, len(r.Seats), c.Players)
	}
	return r.Seats, nil
}

// Exitf prints to stderr and exits with status 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
