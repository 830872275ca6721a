package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// RetryPolicy bounds retries of a failed call with exponential backoff.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialInterval: time.Second, MaxInterval: 30 * time.Second}
}

// Retrying retries transient failures of next. It gives up with a CallError
// once the policy is exhausted or ctx is done.
type Retrying struct {
	next   Client
	policy RetryPolicy
	log    *zap.Logger
}

func WithRetry(next Client, policy RetryPolicy, log *zap.Logger) *Retrying {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = time.Second
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	return &Retrying{next: next, policy: policy, log: log}
}

func (r *Retrying) Chat(ctx context.Context, messages []Message) (Response, error) {
	attempts := 0
	op := func() (Response, error) {
		attempts++
		resp, err := r.next.Chat(ctx, messages)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, backoff.Permanent(err)
		}
		var ce *CallError
		if errors.As(err, &ce) && ce.Code == CodeRateLimited {
			return Response{}, backoff.Permanent(err)
		}
		return Response{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.RandomizationFactor = 0

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(max(r.policy.MaxRetries, 0)+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Warn("llm call failed, retrying",
				zap.Int("attempt", attempts),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
	if err == nil {
		return resp, nil
	}

	var ce *CallError
	if errors.As(err, &ce) && ce.Code == CodeRateLimited {
		return Response{}, err
	}
	code := CodeRetriesExhausted
	if ctx.Err() != nil {
		code = CodeCanceled
	}
	return Response{}, &CallError{Code: code, Attempts: attempts, Err: err}
}
