package agent

import (
	"context"
	"math/rand"

	"github.com/tatianab/deduction-bench/internal/models"
)

var statements = []string{
	"I'm liberal, I promise.",
	"I don't trust the last government.",
	"Let's see how the vote goes.",
	"Something about that nomination feels off.",
	"I have nothing to add.",
}

// Random picks uniformly among legal options, targets and choices. It is
// reseeded on every Reset so a game is reproducible from its seed.
type Random struct {
	Base
	seed int64
	rng  *rand.Rand
}

func NewRandom(base Base, seed int64) *Random {
	r := &Random{Base: base, seed: seed}
	r.rng = rand.New(rand.NewSource(seed))
	return r
}

func (r *Random) Reset() {
	r.Base.Reset()
	r.rng = rand.New(rand.NewSource(r.seed))
}

func (r *Random) Act(ctx context.Context, obs models.Observation) (models.Action, error) {
	if err := ctx.Err(); err != nil {
		return models.Action{}, err
	}
	if len(obs.Legal) == 0 {
		return models.Action{}, errNoOptions(obs)
	}
	opt := obs.Legal[r.rng.Intn(len(obs.Legal))]
	a := models.Action{Player: r.ID, Type: opt.Type, Data: map[string]any{}}
	if len(opt.Targets) > 0 {
		a.Target = models.Target(opt.Targets[r.rng.Intn(len(opt.Targets))])
	}
	switch {
	case opt.Field == "":
	case len(opt.Choices) > 0:
		a.Data[opt.Field] = opt.Choices[r.rng.Intn(len(opt.Choices))]
	default:
		a.Data[opt.Field] = statements[r.rng.Intn(len(statements))]
	}
	return r.track(a), nil
}
