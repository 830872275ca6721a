package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

var tracer = otel.Tracer("github.com/tatianab/deduction-bench/internal/llm")

// Gemini adapts the generative-ai-go client to Client. One genai.Client is
// shared; Model derives per-agent settings from it.
type Gemini struct {
	client *genai.Client
	params Params
	owner  bool
}

func NewGemini(ctx context.Context, apiKey string, params Params) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if params.Model == "" {
		params.Model = DefaultModel
	}
	return &Gemini{client: client, params: params, owner: true}, nil
}

// Model returns a Gemini sharing the same connection with different params.
// Zero fields inherit from g.
func (g *Gemini) Model(p Params) *Gemini {
	if p.Model == "" {
		p.Model = g.params.Model
	}
	if p.Temperature == 0 {
		p.Temperature = g.params.Temperature
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = g.params.MaxTokens
	}
	return &Gemini{client: g.client, params: p}
}

func (g *Gemini) Close() {
	if g.owner {
		g.client.Close()
	}
}

func (g *Gemini) Chat(ctx context.Context, messages []Message) (Response, error) {
	ctx, span := tracer.Start(ctx, "llm.Gemini.Chat", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("llm.model", g.params.Model), attribute.Int("llm.messages", len(messages)))
	defer span.End()

	model := g.client.GenerativeModel(g.params.Model)
	model.SetTemperature(g.params.Temperature)
	if g.params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.params.MaxTokens))
	}

	var system []string
	var history []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	if len(history) == 0 {
		return Response{}, fmt.Errorf("no user message to send")
	}

	cs := model.StartChat()
	cs.History = history[:len(history)-1]
	start := time.Now()
	resp, err := cs.SendMessage(ctx, history[len(history)-1].Parts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Response{}, &CallError{Code: CodeEmptyResponse, Err: fmt.Errorf("no content returned from Gemini")}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return Response{}, &CallError{Code: CodeEmptyResponse, Err: fmt.Errorf("unexpected response type from Gemini")}
	}

	out := Response{
		Text:    text.String(),
		Model:   g.params.Model,
		Latency: time.Since(start),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	span.SetAttributes(attribute.Int("llm.total_tokens", out.Usage.TotalTokens))
	return out, nil
}
