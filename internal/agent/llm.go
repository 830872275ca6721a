package agent

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/deduction-bench/internal/llm"
	"github.com/tatianab/deduction-bench/internal/memory"
	"github.com/tatianab/deduction-bench/internal/models"
)

//go:embed prompts/act.txt
var actPrompt string

var actTemplate = template.Must(template.New("act").Parse(actPrompt))

const (
	systemPrompt = "You are playing a social deduction game against other AI players. " +
		"Stay in character, keep your hidden information to yourself unless revealing it helps your team, " +
		"and always answer in the requested YAML format."

	// CodeParseError marks a model reply that could not be turned into an action.
	CodeParseError = "parse_error"

	defaultRecent = 15
)

// LLM decides by prompting a language model with its observation, recent
// memories and confident beliefs. Any failure falls back to the first legal
// option with the error code in metadata.
type LLM struct {
	Base
	Variant string
	// Recent is how many memories go into each prompt.
	Recent int
	// BeliefThreshold selects the beliefs shown to the model.
	BeliefThreshold float64

	client   llm.Client
	usage    llm.Usage
	calls    int
	failures int
}

// NewLLM wraps client; callers decorate it with the shared limiter and retry
// policy before passing it in.
func NewLLM(base Base, variant string, client llm.Client) *LLM {
	return &LLM{
		Base:            base,
		Variant:         variant,
		Recent:          defaultRecent,
		BeliefThreshold: memory.HighConfidence,
		client:          client,
	}
}

func (l *LLM) Reset() {
	l.Base.Reset()
	l.usage = llm.Usage{}
	l.calls, l.failures = 0, 0
}

func (l *LLM) Act(ctx context.Context, obs models.Observation) (models.Action, error) {
	if len(obs.Legal) == 0 {
		return models.Action{}, errNoOptions(obs)
	}
	prompt, err := l.prompt(obs)
	if err != nil {
		return models.Action{}, fmt.Errorf("render prompt: %w", err)
	}

	l.calls++
	resp, err := l.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		l.failures++
		a, ferr := fallback(obs, llm.ErrorCode(err), err)
		if ferr != nil {
			return models.Action{}, ferr
		}
		return l.track(a), nil
	}
	l.usage = l.usage.Add(resp.Usage)

	a, reasoning, err := parseAction(resp.Text, obs)
	if err != nil {
		l.failures++
		a, err = fallback(obs, CodeParseError, err)
		if err != nil {
			return models.Action{}, err
		}
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	a.Metadata["reasoning"] = reasoning
	a.Metadata["model"] = resp.Model
	a.Metadata["usage"] = map[string]any{
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"latency_ms":        resp.Latency.Milliseconds(),
	}
	return l.track(a), nil
}

func (l *LLM) Stats() map[string]any {
	s := l.Base.Stats()
	s["llm_calls"] = l.calls
	s["llm_failures"] = l.failures
	s["prompt_tokens"] = l.usage.PromptTokens
	s["completion_tokens"] = l.usage.CompletionTokens
	s["total_tokens"] = l.usage.TotalTokens
	return s
}

func (l *LLM) prompt(obs models.Observation) (string, error) {
	state, err := yaml.Marshal(obs.Data)
	if err != nil {
		return "", err
	}
	var legal, fields []string
	for _, opt := range obs.Legal {
		legal = append(legal, describeOption(opt))
		if opt.Field != "" && !slices.Contains(fields, opt.Field) {
			fields = append(fields, opt.Field)
		}
	}
	data := struct {
		Name       string
		Player     models.PlayerID
		Variant    string
		Round      int
		Phase      models.Phase
		Alive      []models.PlayerID
		State      string
		Transcript []models.Statement
		Beliefs    []memory.Belief
		Memories   []memory.Entry
		Feedback   string
		Legal      []string
		Fields     []string
	}{
		Name:       l.Label,
		Player:     obs.Player,
		Variant:    l.Variant,
		Round:      obs.Round,
		Phase:      obs.Phase,
		Alive:      obs.Alive,
		State:      strings.TrimSpace(string(state)),
		Transcript: obs.Transcript,
		Beliefs:    l.Beliefs.HighConfidence(l.BeliefThreshold),
		Memories:   l.Memory.Recent(l.Recent),
		Feedback:   obs.Feedback,
		Legal:      legal,
		Fields:     fields,
	}
	var buf bytes.Buffer
	if err := actTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func describeOption(opt models.Option) string {
	s := string(opt.Type)
	if len(opt.Targets) > 0 {
		s += fmt.Sprintf(", target one of %v", opt.Targets)
	}
	switch {
	case opt.Field == "":
	case len(opt.Choices) > 0:
		s += fmt.Sprintf(", %s one of %v", opt.Field, opt.Choices)
	default:
		s += fmt.Sprintf(", %s as free text", opt.Field)
	}
	return s
}

type reply struct {
	Reasoning string         `yaml:"reasoning"`
	Action    string         `yaml:"action"`
	Target    *int           `yaml:"target"`
	Data      map[string]any `yaml:"data"`
	Extra     map[string]any `yaml:",inline"`
}

// cleanReply strips the markdown fences models like to wrap YAML in.
func cleanReply(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseAction reads a YAML (or JSON) reply into an action of a type the
// observation offers. Targets and payload are left for the engine to judge.
func parseAction(text string, obs models.Observation) (models.Action, string, error) {
	clean := cleanReply(text)
	var r reply
	if err := yaml.Unmarshal([]byte(clean), &r); err != nil {
		return models.Action{}, "", fmt.Errorf("failed to parse reply: %v\nOutput was: %s", err, clean)
	}
	typ := models.ActionType(strings.ToUpper(strings.TrimSpace(r.Action)))
	opt, ok := obs.Option(typ)
	if !ok {
		return models.Action{}, r.Reasoning, fmt.Errorf("action %q is not one of %v", r.Action, obs.LegalTypes())
	}
	a := models.Action{Player: obs.Player, Type: typ, Data: r.Data}
	if a.Data == nil {
		a.Data = map[string]any{}
	}
	if r.Target != nil {
		a.Target = models.Target(models.PlayerID(*r.Target))
	}
	if opt.Field != "" {
		if _, ok := a.Data[opt.Field]; !ok {
			if v, ok := r.Extra[opt.Field]; ok {
				a.Data[opt.Field] = v
			}
		}
	}
	return a, r.Reasoning, nil
}
