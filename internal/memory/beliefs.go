package memory

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tatianab/deduction-bench/internal/models"
)

// HighConfidence is the default threshold for HighConfidence queries.
const HighConfidence = 0.7

// ErrInvalidBelief is returned for confidences outside [0, 1].
var ErrInvalidBelief = errors.New("invalid belief")

// Belief is a claim about one player with a confidence in [0, 1].
type Belief struct {
	Subject    models.PlayerID `json:"subject" yaml:"subject"`
	Predicate  string          `json:"predicate" yaml:"predicate"`
	Confidence float64         `json:"confidence" yaml:"confidence"`
	Evidence   []string        `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at" yaml:"updated_at"`
}

type key struct {
	subject   models.PlayerID
	predicate string
}

// MergeFunc combines a stored belief with an incoming one for the same key.
// The result is stored as-is.
type MergeFunc func(prev, next Belief) Belief

// Overwrite replaces the stored belief wholesale.
func Overwrite(_, next Belief) Belief {
	return next
}

// Tracker stores at most one belief per (subject, predicate). The zero value
// is usable and merges by Overwrite.
type Tracker struct {
	Merge MergeFunc

	beliefs map[key]Belief
	order   []key
	now     func() time.Time
}

func NewTracker() Tracker {
	return Tracker{Merge: Overwrite}
}

// SetClock overrides the timestamp source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Add upserts a belief. Confidence outside [0, 1] (including NaN) is rejected
// and leaves the tracker untouched.
func (t *Tracker) Add(subject models.PlayerID, predicate string, confidence float64, evidence ...string) (Belief, error) {
	if !(confidence >= 0 && confidence <= 1) {
		return Belief{}, fmt.Errorf("%w: confidence %v for %d/%s", ErrInvalidBelief, confidence, subject, predicate)
	}
	if t.beliefs == nil {
		t.beliefs = make(map[key]Belief)
	}
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	next := Belief{
		Subject:    subject,
		Predicate:  predicate,
		Confidence: confidence,
		Evidence:   slices.Clone(evidence),
		UpdatedAt:  now(),
	}
	k := key{subject, predicate}
	prev, exists := t.beliefs[k]
	if exists {
		merge := t.Merge
		if merge == nil {
			merge = Overwrite
		}
		next = merge(prev, next)
	} else {
		t.order = append(t.order, k)
	}
	t.beliefs[k] = next
	return next, nil
}

func (t *Tracker) Get(subject models.PlayerID, predicate string) (Belief, bool) {
	b, ok := t.beliefs[key{subject, predicate}]
	return b, ok
}

// HighConfidence returns beliefs with confidence >= threshold in first-seen order.
func (t *Tracker) HighConfidence(threshold float64) []Belief {
	var out []Belief
	for _, k := range t.order {
		if b := t.beliefs[k]; b.Confidence >= threshold {
			out = append(out, b)
		}
	}
	return out
}

// About returns every belief about subject in first-seen order.
func (t *Tracker) About(subject models.PlayerID) []Belief {
	var out []Belief
	for _, k := range t.order {
		if k.subject == subject {
			out = append(out, t.beliefs[k])
		}
	}
	return out
}

func (t *Tracker) Len() int {
	return len(t.beliefs)
}

func (t *Tracker) Clear() {
	t.beliefs = nil
	t.order = nil
}
