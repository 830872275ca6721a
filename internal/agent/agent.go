// Package agent contains the players: the Agent contract, the shared Base
// with memory and beliefs, and the random, LLM and Lua-scripted agents.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tatianab/deduction-bench/internal/models"
)

// Agent is one seat at the table. Act must return promptly once ctx is done.
// Notify is called between decisions and must not block.
type Agent interface {
	Player() models.PlayerID
	Name() string
	Act(ctx context.Context, obs models.Observation) (models.Action, error)
	Notify(ev models.Event)
	Reset()
}

// StatsReporter is implemented by agents that contribute to the game result.
type StatsReporter interface {
	Stats() map[string]any
}

// ErrNoOptions is returned by Act when the observation offers nothing to do.
var ErrNoOptions = errors.New("no legal options")

func errNoOptions(obs models.Observation) error {
	return fmt.Errorf("player %d in %s: %w", obs.Player, obs.Phase, ErrNoOptions)
}
