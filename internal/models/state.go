package models

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrIllegalTransition is returned for any status change other than
	// SETUP -> ONGOING -> ENDED.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrUnknownPlayer is returned for ids outside [0, NumPlayers).
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrRevival is returned when an eliminated player would rejoin a game
	// that does not allow it.
	ErrRevival = errors.New("eliminated player cannot be revived")
)

// GameState is the complete authoritative state of one game. Only the
// orchestrator mutates it, and only between agent decisions. Ext carries the
// variant's own rule state.
type GameState struct {
	GameID     string
	NumPlayers int
	Status     Status
	Phase      Phase
	Round      int
	Alive      []PlayerID
	Transcript []Statement
	// AllowRevival lets a variant bring eliminated players back.
	AllowRevival bool
	Ext          any

	eliminated []PlayerID
}

// NewGameState creates a SETUP state with every seat alive.
func NewGameState(gameID string, numPlayers int) *GameState {
	alive := make([]PlayerID, numPlayers)
	for i := range alive {
		alive[i] = PlayerID(i)
	}
	return &GameState{
		GameID:     gameID,
		NumPlayers: numPlayers,
		Status:     StatusSetup,
		Alive:      alive,
	}
}

// Valid reports whether p names a seat in this game.
func (s *GameState) Valid(p PlayerID) bool {
	return p >= 0 && int(p) < s.NumPlayers
}

// IsAlive reports whether p is still in the game.
func (s *GameState) IsAlive(p PlayerID) bool {
	return slices.Contains(s.Alive, p)
}

// AlivePlayers returns a copy of the alive set in seat order.
func (s *GameState) AlivePlayers() []PlayerID {
	return slices.Clone(s.Alive)
}

// Eliminated returns players in the order they were removed.
func (s *GameState) Eliminated() []PlayerID {
	return slices.Clone(s.eliminated)
}

// Eliminate removes p from the alive set. Eliminating an already
// eliminated player is a no-op.
func (s *GameState) Eliminate(p PlayerID) error {
	if !s.Valid(p) {
		return fmt.Errorf("eliminate %d: %w", p, ErrUnknownPlayer)
	}
	i := slices.Index(s.Alive, p)
	if i < 0 {
		return nil
	}
	s.Alive = slices.Delete(s.Alive, i, i+1)
	s.eliminated = append(s.eliminated, p)
	return nil
}

// Revive returns p to the alive set when the variant allows it.
func (s *GameState) Revive(p PlayerID) error {
	if !s.Valid(p) {
		return fmt.Errorf("revive %d: %w", p, ErrUnknownPlayer)
	}
	if !s.AllowRevival {
		return fmt.Errorf("revive %d: %w", p, ErrRevival)
	}
	if s.IsAlive(p) {
		return nil
	}
	s.Alive = append(s.Alive, p)
	slices.Sort(s.Alive)
	if i := slices.Index(s.eliminated, p); i >= 0 {
		s.eliminated = slices.Delete(s.eliminated, i, i+1)
	}
	return nil
}

// Transition moves the status forward. It never goes backwards and never
// skips ONGOING.
func (s *GameState) Transition(to Status) error {
	switch {
	case s.Status == StatusSetup && to == StatusOngoing,
		s.Status == StatusOngoing && to == StatusEnded:
		s.Status = to
		return nil
	}
	return fmt.Errorf("%s -> %s: %w", s.Status, to, ErrIllegalTransition)
}

// Say appends a statement to the round-scoped transcript.
func (s *GameState) Say(speaker PlayerID, text string) Statement {
	st := Statement{Speaker: speaker, Text: text, Phase: s.Phase, Round: s.Round}
	s.Transcript = append(s.Transcript, st)
	return st
}

// Observe projects the visibility partition onto viewer. visible decides each
// field; keys of fields the viewer cannot see are absent from the result.
func (s *GameState) Observe(viewer PlayerID, fields []Field, visible func(PlayerID, Field) bool) map[string]any {
	out := make(map[string]any, len(fields)+2)
	for _, f := range fields {
		if visible(viewer, f) {
			out[f.Key] = f.Value
		}
	}
	return out
}
