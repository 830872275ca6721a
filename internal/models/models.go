package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PlayerID is a seat index in [0, NumPlayers).
type PlayerID int

// Status is the top-level lifecycle of a game: SETUP -> ONGOING -> ENDED.
type Status string

const (
	StatusSetup   Status = "SETUP"
	StatusOngoing Status = "ONGOING"
	StatusEnded   Status = "ENDED"
)

// Phase is a variant-defined sub-phase inside ONGOING (e.g. "NOMINATION").
type Phase string

// ActionType names a kind of player decision.
type ActionType string

// Action types shared by the engine. Variants declare their own on top.
const (
	ActionSpeak    ActionType = "SPEAK"
	ActionPass     ActionType = "PASS"
	ActionVote     ActionType = "VOTE"
	ActionNominate ActionType = "NOMINATE"
)

// Action is a typed player decision.
type Action struct {
	Player   PlayerID       `json:"player_id" yaml:"player_id"`
	Type     ActionType     `json:"action_type" yaml:"action_type"`
	Target   *PlayerID      `json:"target,omitempty" yaml:"target,omitempty"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Target returns a pointer suitable for Action.Target.
func Target(p PlayerID) *PlayerID {
	return &p
}

// String returns the value stored under key as a trimmed string.
func (a Action) String(key string) string {
	v, ok := a.Data[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Int reads key as an integer. It accepts the same encodings SameChoice
// does: 2, 2.0, "2" and "2.0" all read as 2, while 2.5 does not.
func (a Action) Int(key string) (int, bool) {
	v, ok := a.Data[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(v)), 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// Bool reads key as a boolean. "ja"/"yes" count as true and "nein"/"no" as false.
func (a Action) Bool(key string) (bool, bool) {
	v, ok := a.Data[key]
	if !ok {
		return false, false
	}
	if b, ok := v.(bool); ok {
		return b, true
	}
	switch strings.ToLower(strings.TrimSpace(fmt.Sprint(v))) {
	case "true", "ja", "yes", "1":
		return true, true
	case "false", "nein", "no", "0":
		return false, true
	}
	return false, false
}

// Fallback reports whether the action was substituted for a failed decision.
func (a Action) Fallback() bool {
	b, _ := a.Metadata["fallback"].(bool)
	return b
}

// Summary is the loggable view of an action. Metadata is excluded.
func (a Action) Summary() map[string]any {
	out := map[string]any{"action_type": string(a.Type)}
	if a.Target != nil {
		out["target"] = int(*a.Target)
	}
	if len(a.Data) > 0 {
		out["data"] = a.Data
	}
	return out
}

// Option is one legal action for the player whose turn it is. A non-empty
// Targets means a target is required and must be one of them. A non-empty
// Field means Data[Field] is required; when Choices is set it must match one.
type Option struct {
	Type    ActionType `json:"type" yaml:"type"`
	Targets []PlayerID `json:"targets,omitempty" yaml:"targets,omitempty"`
	Field   string     `json:"field,omitempty" yaml:"field,omitempty"`
	Choices []any      `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Allows reports whether a satisfies the option's target and payload shape.
func (o Option) Allows(a Action) bool {
	if a.Type != o.Type {
		return false
	}
	if len(o.Targets) > 0 {
		if a.Target == nil || !containsPlayer(o.Targets, *a.Target) {
			return false
		}
	}
	if o.Field == "" {
		return true
	}
	if len(o.Choices) == 0 {
		return a.String(o.Field) != ""
	}
	v, ok := a.Data[o.Field]
	if !ok {
		return false
	}
	for _, c := range o.Choices {
		if SameChoice(v, c) {
			return true
		}
	}
	return false
}

// SameChoice compares a submitted value with a declared choice loosely, so
// that 1, 1.0 and "1" all match the choice 1.
func SameChoice(v, choice any) bool {
	norm := func(x any) string {
		s := strings.ToLower(strings.TrimSpace(fmt.Sprint(x)))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return s
	}
	return norm(v) == norm(choice)
}

// DefaultAction is the deterministic no-frills choice over a set of options:
// PASS when offered, otherwise the first option with its first target and
// first choice.
func DefaultAction(p PlayerID, options []Option) (Action, bool) {
	if len(options) == 0 {
		return Action{}, false
	}
	opt := options[0]
	for _, o := range options {
		if o.Type == ActionPass {
			opt = o
			break
		}
	}
	a := Action{Player: p, Type: opt.Type, Data: map[string]any{}}
	if len(opt.Targets) > 0 {
		a.Target = Target(opt.Targets[0])
	}
	if opt.Field != "" {
		if len(opt.Choices) > 0 {
			a.Data[opt.Field] = opt.Choices[0]
		} else {
			a.Data[opt.Field] = "..."
		}
	}
	return a, true
}

// Statement is one contribution to a round-scoped discussion transcript.
type Statement struct {
	Speaker PlayerID `json:"speaker" yaml:"speaker"`
	Text    string   `json:"statement" yaml:"statement"`
	Phase   Phase    `json:"phase" yaml:"phase"`
	Round   int      `json:"round" yaml:"round"`
}

// Observation is a player-specific filtered view of the state at one
// decision point. It is rebuilt on every request.
type Observation struct {
	Player     PlayerID       `json:"player_id" yaml:"player_id"`
	Status     Status         `json:"status" yaml:"status"`
	Phase      Phase          `json:"phase" yaml:"phase"`
	Round      int            `json:"round" yaml:"round"`
	Alive      []PlayerID     `json:"alive_players" yaml:"alive_players"`
	Data       map[string]any `json:"data" yaml:"data"`
	Legal      []Option       `json:"legal,omitempty" yaml:"legal,omitempty"`
	Transcript []Statement    `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	// Feedback explains why the player's previous submission was rejected.
	Feedback string `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// LegalTypes lists the action types offered in the observation.
func (o Observation) LegalTypes() []ActionType {
	out := make([]ActionType, 0, len(o.Legal))
	for _, opt := range o.Legal {
		out = append(out, opt.Type)
	}
	return out
}

// Option returns the offered option for t.
func (o Observation) Option(t ActionType) (Option, bool) {
	for _, opt := range o.Legal {
		if opt.Type == t {
			return opt, true
		}
	}
	return Option{}, false
}

// EventType is the fixed set of record/notification kinds shared by all variants.
type EventType string

const (
	EventGameStart           EventType = "GAME_START"
	EventGameEnd             EventType = "GAME_END"
	EventRoundStart          EventType = "ROUND_START"
	EventRoundEnd            EventType = "ROUND_END"
	EventPhaseChange         EventType = "PHASE_CHANGE"
	EventRoleAssigned        EventType = "ROLE_ASSIGNED"
	EventPlayerAction        EventType = "PLAYER_ACTION"
	EventDiscussion          EventType = "DISCUSSION"
	EventNomination          EventType = "NOMINATION"
	EventVoteCast            EventType = "VOTE_CAST"
	EventElectionResult      EventType = "ELECTION_RESULT"
	EventPolicyEnacted       EventType = "POLICY_ENACTED"
	EventPresidentialPower   EventType = "PRESIDENTIAL_POWER"
	EventInvestigationResult EventType = "INVESTIGATION_RESULT"
	EventVetoProposed        EventType = "VETO_PROPOSED"
	EventVetoResponse        EventType = "VETO_RESPONSE"
	EventPlayerEliminated    EventType = "PLAYER_ELIMINATED"
	EventAgentReasoning      EventType = "AGENT_REASONING"
	EventLLMCall             EventType = "LLM_CALL"
	EventInfo                EventType = "INFO"
	EventError               EventType = "ERROR"
)

// Event is the notify/log payload. Private events reach only Audience and are
// subject to the logger's privacy policy.
type Event struct {
	Type     EventType
	Data     map[string]any
	Player   *PlayerID
	Private  bool
	Audience []PlayerID
}

// Field is one entry of the canonical visibility partition. A nil Audience
// means the field is public.
type Field struct {
	Key      string
	Value    any
	Audience []PlayerID
}

// Public reports whether every player may see the field.
func (f Field) Public() bool {
	return f.Audience == nil
}

// VisibleTo reports audience membership.
func (f Field) VisibleTo(p PlayerID) bool {
	return f.Public() || containsPlayer(f.Audience, p)
}

// GameResult is the outcome surface of one finished game.
type GameResult struct {
	GameID          string                      `json:"game_id" yaml:"game_id"`
	Variant         string                      `json:"variant" yaml:"variant"`
	Seed            int64                       `json:"seed" yaml:"seed"`
	Winner          string                      `json:"winner" yaml:"winner"`
	Winners         []PlayerID                  `json:"winners,omitempty" yaml:"winners,omitempty"`
	WinReason       string                      `json:"win_reason" yaml:"win_reason"`
	NumRounds       int                         `json:"num_rounds" yaml:"num_rounds"`
	DurationSeconds float64                     `json:"duration_seconds" yaml:"duration_seconds"`
	PlayerStats     map[PlayerID]map[string]any `json:"player_stats" yaml:"player_stats"`
}

func containsPlayer(ps []PlayerID, p PlayerID) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}
