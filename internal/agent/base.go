package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tatianab/deduction-bench/internal/memory"
	"github.com/tatianab/deduction-bench/internal/models"
)

// Base carries the identity, memory and beliefs every agent kind shares.
// Concrete agents embed it and implement Act.
type Base struct {
	ID    models.PlayerID
	Label string
	// CarryOver keeps memory and beliefs across Reset.
	CarryOver bool

	Memory  memory.Memory
	Beliefs memory.Tracker

	decisions int
	fallbacks int
	received  int
}

func NewBase(id models.PlayerID, name string, capacity int, carryOver bool) Base {
	if name == "" {
		name = fmt.Sprintf("player-%d", id)
	}
	return Base{
		ID:        id,
		Label:     name,
		CarryOver: carryOver,
		Memory:    memory.New(capacity),
		Beliefs:   memory.NewTracker(),
	}
}

func (b *Base) Player() models.PlayerID { return b.ID }
func (b *Base) Name() string            { return b.Label }

// Notify remembers the event and folds any hard evidence into beliefs.
func (b *Base) Notify(ev models.Event) {
	b.received++
	b.Memory.Add(Describe(ev), importance(ev.Type), string(ev.Type))
	b.learn(ev)
}

func (b *Base) Reset() {
	b.decisions, b.fallbacks, b.received = 0, 0, 0
	if !b.CarryOver {
		b.Memory.Clear()
		b.Beliefs.Clear()
	}
}

func (b *Base) Stats() map[string]any {
	return map[string]any{
		"decisions":       b.decisions,
		"fallbacks":       b.fallbacks,
		"events_received": b.received,
		"memories":        b.Memory.Len(),
		"beliefs":         b.Beliefs.Len(),
	}
}

// track counts a decision on its way out of Act.
func (b *Base) track(a models.Action) models.Action {
	b.decisions++
	if a.Fallback() {
		b.fallbacks++
	}
	return a
}

// learn records certain knowledge: team reveals, investigations and
// eliminations.
func (b *Base) learn(ev models.Event) {
	switch ev.Type {
	case models.EventRoleAssigned:
		for _, p := range playerList(ev.Data["fascist_team"]) {
			if p != b.ID {
				b.Beliefs.Add(p, "fascist", 1, "team reveal")
			}
		}
		if h, ok := playerOf(ev.Data["hitler"]); ok && h != b.ID {
			b.Beliefs.Add(h, "hitler", 1, "team reveal")
		}
	case models.EventInvestigationResult:
		target, ok := playerOf(ev.Data["target"])
		party, _ := ev.Data["party"].(string)
		if ok && party != "" {
			b.Beliefs.Add(target, party, 1, "investigation")
		}
	case models.EventPlayerEliminated:
		if p, ok := playerOf(ev.Data["player"]); ok {
			b.Beliefs.Add(p, "eliminated", 1, fmt.Sprint(ev.Data["reason"]))
		}
	}
}

func importance(t models.EventType) float64 {
	switch t {
	case models.EventGameStart, models.EventGameEnd, models.EventRoleAssigned:
		return 1
	case models.EventInvestigationResult:
		return 0.9
	case models.EventPlayerEliminated, models.EventPresidentialPower:
		return 0.8
	case models.EventPolicyEnacted, models.EventVetoProposed, models.EventVetoResponse:
		return 0.7
	case models.EventElectionResult:
		return 0.6
	case models.EventNomination, models.EventVoteCast:
		return 0.5
	case models.EventDiscussion:
		return 0.4
	}
	return 0.2
}

// Describe renders an event as one line for memory and prompts.
func Describe(ev models.Event) string {
	var sb strings.Builder
	sb.WriteString(string(ev.Type))
	if ev.Player != nil {
		fmt.Fprintf(&sb, " player %d", *ev.Player)
	}
	keys := make([]string, 0, len(ev.Data))
	for k := range ev.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i == 0 {
			sb.WriteString(":")
		}
		fmt.Fprintf(&sb, " %s=%v", k, ev.Data[k])
	}
	return sb.String()
}

func playerOf(v any) (models.PlayerID, bool) {
	switch x := v.(type) {
	case int:
		return models.PlayerID(x), true
	case models.PlayerID:
		return x, true
	case float64:
		return models.PlayerID(x), true
	}
	return 0, false
}

func playerList(v any) []models.PlayerID {
	switch x := v.(type) {
	case []models.PlayerID:
		return x
	case []int:
		out := make([]models.PlayerID, len(x))
		for i, p := range x {
			out[i] = models.PlayerID(p)
		}
		return out
	case []any:
		var out []models.PlayerID
		for _, e := range x {
			if p, ok := playerOf(e); ok {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

// fallback is the agent-side deterministic choice when its own decision
// process failed. The error code travels in metadata so the record shows it.
func fallback(obs models.Observation, code string, err error) (models.Action, error) {
	a, ok := models.DefaultAction(obs.Player, obs.Legal)
	if !ok {
		return models.Action{}, fmt.Errorf("no legal actions for player %d: %w", obs.Player, err)
	}
	a.Metadata = map[string]any{
		"fallback":   true,
		"error_code": code,
		"error":      err.Error(),
	}
	return a, nil
}
