package llm

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Limiter bounds outbound calls process-wide: a token bucket for calls per
// minute plus an optional cap on calls in flight. Every Acquire that
// succeeds must be paired with the returned release.
type Limiter struct {
	rl    *rate.Limiter
	slots chan struct{}
}

// NewLimiter allows callsPerMinute (<= 0 means unlimited) with at most
// maxInFlight concurrent calls (<= 0 means no cap).
func NewLimiter(callsPerMinute, maxInFlight int) *Limiter {
	l := &Limiter{rl: rate.NewLimiter(rate.Inf, 1)}
	if callsPerMinute > 0 {
		every := time.Duration(math.Ceil(float64(time.Minute) / float64(callsPerMinute)))
		l.rl = rate.NewLimiter(rate.Every(every), 1)
	}
	if maxInFlight > 0 {
		l.slots = make(chan struct{}, maxInFlight)
	}
	return l
}

// Acquire blocks until a call may start or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if l.slots != nil {
		select {
		case l.slots <- struct{}{}:
		case <-ctx.Done():
			return nil, &CallError{Code: CodeRateLimited, Err: ctx.Err()}
		}
	}
	if err := l.rl.Wait(ctx); err != nil {
		l.release()
		return nil, &CallError{Code: CodeRateLimited, Err: err}
	}
	return l.release, nil
}

func (l *Limiter) release() {
	if l.slots != nil {
		<-l.slots
	}
}

// Limited gates a Client behind a shared Limiter.
type Limited struct {
	next Client
	lim  *Limiter
}

func WithLimiter(next Client, lim *Limiter) *Limited {
	return &Limited{next: next, lim: lim}
}

func (c *Limited) Chat(ctx context.Context, messages []Message) (Response, error) {
	release, err := c.lim.Acquire(ctx)
	if err != nil {
		return Response{}, err
	}
	defer release()
	return c.next.Chat(ctx, messages)
}
