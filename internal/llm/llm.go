// Package llm is the outbound language-model boundary: a small chat
// contract, the Gemini adapter, and the rate-limit and retry decorators
// every agent call goes through.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Usage is the token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" yaml:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" yaml:"total_tokens"`
}

func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

type Response struct {
	Text    string        `json:"text" yaml:"text"`
	Model   string        `json:"model" yaml:"model"`
	Usage   Usage         `json:"usage" yaml:"usage"`
	Latency time.Duration `json:"latency" yaml:"latency"`
}

// Client sends one chat exchange. Implementations must honor ctx.
type Client interface {
	Chat(ctx context.Context, messages []Message) (Response, error)
}

// Params are per-agent generation settings.
type Params struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Error codes carried by CallError.
const (
	CodeRetriesExhausted = "retries_exhausted"
	CodeCanceled         = "canceled"
	CodeEmptyResponse    = "empty_response"
	CodeRateLimited      = "rate_limited"
)

// CallError is the terminal failure of an external call after the retry
// policy gave up.
type CallError struct {
	Code     string
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("llm call %s after %d attempts: %v", e.Code, e.Attempts, e.Err)
	}
	return fmt.Sprintf("llm call %s: %v", e.Code, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the CallError code in err's chain, or "llm_error".
func ErrorCode(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCanceled
	}
	return "llm_error"
}
