package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tatianab/deduction-bench/internal/llm"
	"github.com/tatianab/deduction-bench/internal/models"
)

func voteObs() models.Observation {
	return models.Observation{
		Player: 0,
		Status: models.StatusOngoing,
		Phase:  "VOTING",
		Round:  2,
		Alive:  []models.PlayerID{0, 1, 2, 3},
		Data:   map[string]any{"president": 1, "chancellor_nominee": 2},
		Legal:  []models.Option{{Type: models.ActionVote, Field: "ja", Choices: []any{true, false}}},
	}
}

func nominateObs() models.Observation {
	return models.Observation{
		Player: 0,
		Status: models.StatusOngoing,
		Phase:  "NOMINATION",
		Alive:  []models.PlayerID{0, 1, 2, 3},
		Legal:  []models.Option{{Type: models.ActionNominate, Targets: []models.PlayerID{1, 2, 3}}},
	}
}

func TestBaseLearnsFromEvents(t *testing.T) {
	b := NewBase(0, "", 10, false)
	if b.Name() != "player-0" {
		t.Errorf("Expected default name player-0, got %q", b.Name())
	}
	b.Notify(models.Event{Type: models.EventRoleAssigned, Data: map[string]any{
		"role":         "fascist",
		"fascist_team": []int{0, 2},
		"hitler":       2,
	}})
	b.Notify(models.Event{Type: models.EventInvestigationResult, Data: map[string]any{"target": 3, "party": "liberal"}})

	if _, ok := b.Beliefs.Get(2, "fascist"); !ok {
		t.Errorf("Expected teammate belief about player 2")
	}
	if _, ok := b.Beliefs.Get(0, "fascist"); ok {
		t.Errorf("Expected no belief about self")
	}
	if bel, ok := b.Beliefs.Get(3, "liberal"); !ok || bel.Confidence != 1 {
		t.Errorf("Expected investigation belief, got %+v", bel)
	}
	if b.Memory.Len() != 2 {
		t.Errorf("Expected 2 memories, got %d", b.Memory.Len())
	}
	if got := b.Memory.All()[0].Content; !strings.Contains(got, "ROLE_ASSIGNED") {
		t.Errorf("unexpected memory %q", got)
	}
}

func TestBaseResetCarryOver(t *testing.T) {
	for _, carry := range []bool{false, true} {
		b := NewBase(1, "b", 10, carry)
		b.Notify(models.Event{Type: models.EventPlayerEliminated, Data: map[string]any{"player": 2}})
		b.Reset()
		if got := b.Memory.Len() == 1 && b.Beliefs.Len() == 1; got != carry {
			t.Errorf("carry=%v: memories=%d beliefs=%d after Reset", carry, b.Memory.Len(), b.Beliefs.Len())
		}
		if b.Stats()["events_received"] != 0 {
			t.Errorf("carry=%v: counters survived Reset", carry)
		}
	}
}

func TestDescribeSortsKeys(t *testing.T) {
	p := models.PlayerID(4)
	got := Describe(models.Event{Type: models.EventNomination, Player: &p, Data: map[string]any{"president": 4, "nominee": 1}})
	if want := "NOMINATION player 4: nominee=1 president=4"; got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestRandomReproducible(t *testing.T) {
	r := NewRandom(NewBase(0, "r", 10, false), 42)
	var first []models.PlayerID
	for range 10 {
		a, err := r.Act(context.Background(), nominateObs())
		if err != nil {
			t.Fatalf("Act: %v", err)
		}
		first = append(first, *a.Target)
	}
	r.Reset()
	for i := range 10 {
		a, _ := r.Act(context.Background(), nominateObs())
		if *a.Target != first[i] {
			t.Fatalf("choice %d differs after Reset: %d vs %d", i, *a.Target, first[i])
		}
	}
	if r.Stats()["decisions"] != 10 {
		t.Errorf("Expected 10 decisions, got %v", r.Stats()["decisions"])
	}
}

func TestLLMParsesFencedYAML(t *testing.T) {
	client := llm.NewStatic("```yaml\nreasoning: the nominee looks shady\naction: vote\nja: false\n```")
	a := NewLLM(NewBase(0, "gemini", 10, false), "secret_hitler", client)
	act, err := a.Act(context.Background(), voteObs())
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if act.Type != models.ActionVote {
		t.Fatalf("Expected VOTE, got %s", act.Type)
	}
	if ja, ok := act.Bool("ja"); !ok || ja {
		t.Errorf("Expected ja=false, got %v", act.Data["ja"])
	}
	if act.Fallback() {
		t.Errorf("unexpected fallback")
	}
	if act.Metadata["reasoning"] != "the nominee looks shady" {
		t.Errorf("reasoning = %v", act.Metadata["reasoning"])
	}
	if a.Stats()["total_tokens"].(int) == 0 {
		t.Errorf("Expected token usage to be tracked")
	}
}

func TestLLMParsesJSONTarget(t *testing.T) {
	client := llm.NewStatic(`{"reasoning": "quiet so far", "action": "NOMINATE", "target": 3}`)
	a := NewLLM(NewBase(0, "gemini", 10, false), "secret_hitler", client)
	act, err := a.Act(context.Background(), nominateObs())
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if act.Target == nil || *act.Target != 3 {
		t.Errorf("Expected target 3, got %v", act.Target)
	}
}

func TestLLMFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		client *llm.Static
		code   string
	}{
		{"call error", llm.NewStatic("action: VOTE").FailFirst(&llm.CallError{Code: llm.CodeRetriesExhausted, Attempts: 4, Err: errors.New("503")}), llm.CodeRetriesExhausted},
		{"illegal action", llm.NewStatic("action: EXECUTE\ntarget: 2"), CodeParseError},
		{"not yaml", llm.NewStatic("I think I will vote yes! : : ["), CodeParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLLM(NewBase(0, "gemini", 10, false), "secret_hitler", tt.client)
			act, err := a.Act(context.Background(), voteObs())
			if err != nil {
				t.Fatalf("Act: %v", err)
			}
			if !act.Fallback() || act.Metadata["error_code"] != tt.code {
				t.Errorf("Expected fallback with %s, got %+v", tt.code, act.Metadata)
			}
			if act.Type != models.ActionVote {
				t.Errorf("Expected fallback VOTE, got %s", act.Type)
			}
			if a.Stats()["llm_failures"] != 1 {
				t.Errorf("Expected one failure, got %v", a.Stats()["llm_failures"])
			}
		})
	}
}

func TestLLMPromptContents(t *testing.T) {
	client := llm.NewStatic("action: VOTE\nja: true")
	a := NewLLM(NewBase(0, "gemini", 10, false), "secret_hitler", client)
	a.Notify(models.Event{Type: models.EventRoleAssigned, Data: map[string]any{"fascist_team": []int{0, 2}, "hitler": 2}})
	obs := voteObs()
	obs.Feedback = "ja must be one of [true false]"
	obs.Transcript = []models.Statement{{Speaker: 3, Text: "vote nein"}}
	if _, err := a.Act(context.Background(), obs); err != nil {
		t.Fatalf("Act: %v", err)
	}
	calls := client.Calls()
	if len(calls) != 1 || len(calls[0]) != 2 {
		t.Fatalf("unexpected calls %v", calls)
	}
	prompt := calls[0][1].Content
	for _, want := range []string{
		"player 2 is hitler",
		"previous answer was rejected: ja must be one of",
		"player 3: vote nein",
		"VOTE, ja one of [true false]",
		"chancellor_nominee: 2",
		"secret_hitler",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt is missing %q:\n%s", want, prompt)
		}
	}
}

const nominateLast = `
function act(obs)
  local opt = obs.legal[1]
  return { action_type = opt.type, target = opt.targets[#opt.targets], data = { note = "last" } }
end
`

func TestLuaPolicy(t *testing.T) {
	l, err := NewLua(NewBase(0, "lua", 10, false), nominateLast)
	if err != nil {
		t.Fatalf("NewLua: %v", err)
	}
	defer l.Close()
	a, err := l.Act(context.Background(), nominateObs())
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if a.Type != models.ActionNominate || a.Target == nil || *a.Target != 3 {
		t.Errorf("unexpected action %+v", a)
	}
	if a.Data["note"] != "last" {
		t.Errorf("Expected data note, got %v", a.Data)
	}
}

func TestLuaScriptErrorFallsBack(t *testing.T) {
	l, err := NewLua(NewBase(0, "lua", 10, false), `function act(obs) error("boom") end`)
	if err != nil {
		t.Fatalf("NewLua: %v", err)
	}
	defer l.Close()
	a, err := l.Act(context.Background(), nominateObs())
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if !a.Fallback() || a.Metadata["error_code"] != CodeScriptError {
		t.Errorf("Expected script_error fallback, got %+v", a.Metadata)
	}
	if *a.Target != 1 {
		t.Errorf("Expected fallback target 1, got %d", *a.Target)
	}
}

func TestLuaRequiresAct(t *testing.T) {
	if _, err := NewLua(NewBase(0, "lua", 10, false), `x = 1`); err == nil {
		t.Errorf("Expected an error for a script without act")
	}
}

func TestLuaReloadFailureKeepsPolicy(t *testing.T) {
	l, err := NewLua(NewBase(0, "lua", 10, false), nominateLast)
	if err != nil {
		t.Fatalf("NewLua: %v", err)
	}
	defer l.Close()

	l.Reset()
	if got := l.Stats()["reload_errors"]; got != 0 {
		t.Fatalf("Expected no reload errors, got %v", got)
	}

	l.source = `x = 1`
	l.Reset()
	st := l.Stats()
	if st["reload_errors"] != 1 {
		t.Errorf("Expected one reload error, got %v", st["reload_errors"])
	}
	if msg, _ := st["last_reload_error"].(string); !strings.Contains(msg, "act(obs)") {
		t.Errorf("Expected the reload error in stats, got %q", msg)
	}
	a, err := l.Act(context.Background(), nominateObs())
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if a.Fallback() || *a.Target != 3 {
		t.Errorf("Expected the previous policy to keep running, got %+v", a)
	}
}

const trustLiberals = `
function act(obs)
  local opt = obs.legal[1]
  for _, p in ipairs(opt.targets) do
    for _, b in ipairs(beliefs(p)) do
      if b.predicate == "liberal" and b.confidence >= 0.9 then
        return { action_type = opt.type, target = p }
      end
    end
  end
  return { action_type = opt.type, target = opt.targets[1] }
end
`

func TestLuaSeesBeliefs(t *testing.T) {
	l, err := NewLua(NewBase(0, "lua", 10, false), trustLiberals)
	if err != nil {
		t.Fatalf("NewLua: %v", err)
	}
	defer l.Close()

	a, err := l.Act(context.Background(), nominateObs())
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if *a.Target != 1 {
		t.Errorf("Expected target 1 without beliefs, got %d", *a.Target)
	}

	l.Notify(models.Event{Type: models.EventInvestigationResult, Data: map[string]any{"target": 2, "party": "liberal"}})
	if a, err = l.Act(context.Background(), nominateObs()); err != nil {
		t.Fatalf("Act: %v", err)
	}
	if a.Fallback() || *a.Target != 2 {
		t.Errorf("Expected the investigated liberal 2, got %+v", a)
	}
}
