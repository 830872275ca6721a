package engine

import (
	"errors"
	"fmt"

	"github.com/tatianab/deduction-bench/internal/models"
)

// Rejection codes carried by ActionRejected.
const (
	CodeNotOngoing        = "not_ongoing"
	CodeNotAlive          = "not_alive"
	CodeNotYourTurn       = "not_your_turn"
	CodeIllegalActionType = "illegal_action_type"
	CodeInvalidTarget     = "invalid_target"
	CodeInvalidPayload    = "invalid_payload"
)

// ActionRejected is returned by Step for an illegal action. State is left
// untouched.
type ActionRejected struct {
	Code   string
	Player models.PlayerID
	Type   models.ActionType
	Reason string
}

func (e *ActionRejected) Error() string {
	return fmt.Sprintf("action %s by player %d rejected (%s): %s", e.Type, e.Player, e.Code, e.Reason)
}

// Reject builds an ActionRejected for a variant's own argument checks.
func Reject(a models.Action, code, format string, args ...any) *ActionRejected {
	return &ActionRejected{Code: code, Player: a.Player, Type: a.Type, Reason: fmt.Sprintf(format, args...)}
}

func IsRejected(err error) bool {
	var r *ActionRejected
	return errors.As(err, &r)
}

// Corruption codes carried by StateCorruption.
const (
	CodeActionAfterEnd = "action_after_end"
	CodePhaseLoop      = "phase_loop"
	CodeRevival        = "revival"
	CodeUnknownPlayer  = "unknown_player"
	CodeVariantFailure = "variant_failure"
	CodeNoActor        = "no_actor"
)

// StateCorruption is a violated internal invariant. It is fatal for the game.
type StateCorruption struct {
	Code   string
	Detail string
	Err    error
}

func (e *StateCorruption) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("state corruption (%s): %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("state corruption (%s): %s", e.Code, e.Detail)
}

func (e *StateCorruption) Unwrap() error {
	return e.Err
}

func IsCorruption(err error) bool {
	var c *StateCorruption
	return errors.As(err, &c)
}

func corrupt(code string, err error, format string, args ...any) *StateCorruption {
	if code == CodeVariantFailure {
		switch {
		case errors.Is(err, models.ErrRevival):
			code = CodeRevival
		case errors.Is(err, models.ErrUnknownPlayer):
			code = CodeUnknownPlayer
		}
	}
	return &StateCorruption{Code: code, Detail: fmt.Sprintf(format, args...), Err: err}
}

var (
	// ErrNotReset is returned by operations that need a game in progress
	// before Reset has been called.
	ErrNotReset = errors.New("orchestrator not reset")
	// ErrVariantNotFound is returned by Registry.Lookup.
	ErrVariantNotFound = errors.New("variant not found")
	// ErrVariantRegistered is returned when a name is registered twice.
	ErrVariantRegistered = errors.New("variant already registered")
	// ErrPlayerCount is returned when the roster size is outside the
	// variant's supported range.
	ErrPlayerCount = errors.New("unsupported player count")
)
