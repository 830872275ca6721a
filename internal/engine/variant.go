package engine

import (
	"math/rand"

	"github.com/tatianab/deduction-bench/internal/models"
)

// Solicit says who must act before a phase's requirements are met.
type Solicit int

const (
	// SolicitActors asks the players named by Variant.Actors, in order.
	SolicitActors Solicit = iota
	// SolicitAll asks every alive player once.
	SolicitAll
)

// Order is the turn order of a SolicitAll phase.
type Order int

const (
	OrderShuffle Order = iota
	OrderSeat
)

// PhaseSpec describes one sub-phase. Discussion phases are run by the
// orchestrator itself: every alive player may SPEAK or PASS once per
// discussion round, and the phase is advanced after Rounds rounds (0 means
// the orchestrator's configured default).
type PhaseSpec struct {
	Phase      models.Phase
	Solicit    Solicit
	Order      Order
	Discussion bool
	Rounds     int
}

// Outcome is a terminal result. Winners may be empty when the variant
// reports a team only.
type Outcome struct {
	Winner  string
	Winners []models.PlayerID
	Reason  string
}

// Variant is the rule engine of one game. The orchestrator owns the
// GameState and calls into the variant only between agent decisions; a
// variant mutates state exclusively inside Setup, Apply and Advance.
type Variant interface {
	Name() string
	// Players returns the inclusive supported player-count range.
	Players() (min, max int)
	// Phases lists every sub-phase. The first entry starts a round.
	Phases() []PhaseSpec

	// Setup prepares rule state in s.Ext and sets the first phase.
	Setup(s *models.GameState, rng *rand.Rand) ([]models.Event, error)

	// Fields is the canonical visibility partition of the current state.
	Fields(s *models.GameState) []models.Field
	// Visible decides whether viewer sees f.
	Visible(s *models.GameState, viewer models.PlayerID, f models.Field) bool

	// Actors lists who must act in a SolicitActors phase.
	Actors(s *models.GameState) []models.PlayerID
	// Options lists the legal options for p, who is the current actor of a
	// non-discussion phase.
	Options(s *models.GameState, p models.PlayerID) []models.Option
	// Validate performs checks beyond option shape. It must not mutate s.
	Validate(s *models.GameState, a models.Action) error
	// Apply resolves one validated action.
	Apply(s *models.GameState, a models.Action, rng *rand.Rand) ([]models.Event, error)
	// Advance runs once the current phase's requirements are met. It must
	// set the next phase (or a terminal outcome).
	Advance(s *models.GameState, rng *rand.Rand) ([]models.Event, error)
	// Outcome reports a terminal result once the game is decided.
	Outcome(s *models.GameState) (Outcome, bool)

	// Fallback is the deterministic action used when p's decision failed.
	Fallback(s *models.GameState, p models.PlayerID) models.Action
	// Stats returns per-player statistics for the result.
	Stats(s *models.GameState, o Outcome) map[models.PlayerID]map[string]any
}

// AudienceVisible is the plain visibility rule: public fields are visible
// to everyone and private fields to their audience.
func AudienceVisible(_ *models.GameState, viewer models.PlayerID, f models.Field) bool {
	return f.VisibleTo(viewer)
}
