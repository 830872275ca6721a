package llm

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Static replays canned responses in order, cycling when exhausted. It is
// used for tests and offline runs.
type Static struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	next      int
	calls     [][]Message
}

func NewStatic(responses ...string) *Static {
	return &Static{responses: responses}
}

// FailFirst makes the first len(errs) calls fail with errs in order.
func (s *Static) FailFirst(errs ...error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, errs...)
	return s
}

func (s *Static) Chat(ctx context.Context, messages []Message) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, slices.Clone(messages))
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return Response{}, err
	}
	if len(s.responses) == 0 {
		return Response{}, &CallError{Code: CodeEmptyResponse, Err: errors.New("no canned responses")}
	}
	text := s.responses[s.next%len(s.responses)]
	s.next++

	prompt := 0
	for _, m := range messages {
		prompt += len(m.Content) / 4
	}
	completion := len(text) / 4
	return Response{
		Text:  text,
		Model: "static",
		Usage: Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion},
	}, nil
}

// Calls returns the message lists received so far.
func (s *Static) Calls() [][]Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}
