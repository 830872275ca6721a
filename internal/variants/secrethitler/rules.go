package secrethitler

import (
	"math/rand"
	"slices"
)

type Role string

const (
	RoleLiberal Role = "liberal"
	RoleFascist Role = "fascist"
	RoleHitler  Role = "hitler"
)

// Party is a membership and also a policy card.
type Party string

const (
	Liberal Party = "liberal"
	Fascist Party = "fascist"
)

func (r Role) Party() Party {
	if r == RoleLiberal {
		return Liberal
	}
	return Fascist
}

type Power string

const (
	PowerNone        Power = ""
	PowerInvestigate Power = "investigate_loyalty"
	PowerPeek        Power = "policy_peek"
	PowerSpecial     Power = "special_election"
	PowerExecution   Power = "execution"
)

const (
	liberalPolicies = 6
	fascistPolicies = 11
	liberalToWin    = 5
	fascistToWin    = 6
	vetoThreshold   = 5
	hitlerZone      = 3
	trackerLimit    = 3
	termLimitCutoff = 5
	handSize        = 3
	// Hitler knows the fascists only in games up to this size.
	hitlerKnowsUpTo = 6
)

type distribution struct{ liberals, fascists int }

// roles maps player count to liberals and plain fascists; there is always
// exactly one Hitler.
var roles = map[int]distribution{
	5:  {3, 1},
	6:  {4, 1},
	7:  {4, 2},
	8:  {5, 2},
	9:  {5, 3},
	10: {6, 3},
}

// powers is indexed by the number of fascist policies enacted, minus one.
var (
	powersSmall  = [6]Power{PowerNone, PowerNone, PowerPeek, PowerExecution, PowerExecution, PowerNone}
	powersMedium = [6]Power{PowerNone, PowerInvestigate, PowerSpecial, PowerExecution, PowerExecution, PowerNone}
	powersLarge  = [6]Power{PowerInvestigate, PowerInvestigate, PowerSpecial, PowerExecution, PowerExecution, PowerNone}
)

// powerFor returns the presidential power unlocked by the count-th fascist
// policy in a game of n players.
func powerFor(n, count int) Power {
	if count < 1 || count > len(powersSmall) {
		return PowerNone
	}
	switch {
	case n <= 6:
		return powersSmall[count-1]
	case n <= 8:
		return powersMedium[count-1]
	default:
		return powersLarge[count-1]
	}
}

func dealRoles(n int, rng *rand.Rand) []Role {
	d := roles[n]
	out := make([]Role, 0, n)
	for range d.liberals {
		out = append(out, RoleLiberal)
	}
	for range d.fascists {
		out = append(out, RoleFascist)
	}
	out = append(out, RoleHitler)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// deck is the policy draw pile plus discards. When fewer cards remain than
// a draw needs, the discards are shuffled back in.
type deck struct {
	Draw    []Party `json:"draw"`
	Discard []Party `json:"discard"`
}

func newDeck(rng *rand.Rand) deck {
	d := deck{Draw: make([]Party, 0, liberalPolicies+fascistPolicies)}
	for range liberalPolicies {
		d.Draw = append(d.Draw, Liberal)
	}
	for range fascistPolicies {
		d.Draw = append(d.Draw, Fascist)
	}
	rng.Shuffle(len(d.Draw), func(i, j int) { d.Draw[i], d.Draw[j] = d.Draw[j], d.Draw[i] })
	return d
}

// ensure reshuffles when fewer than n cards are left and reports whether it did.
func (d *deck) ensure(n int, rng *rand.Rand) bool {
	if len(d.Draw) >= n {
		return false
	}
	d.Draw = append(d.Draw, d.Discard...)
	d.Discard = nil
	rng.Shuffle(len(d.Draw), func(i, j int) { d.Draw[i], d.Draw[j] = d.Draw[j], d.Draw[i] })
	return true
}

func (d *deck) take(n int, rng *rand.Rand) ([]Party, bool) {
	reshuffled := d.ensure(n, rng)
	n = min(n, len(d.Draw))
	out := slices.Clone(d.Draw[:n])
	d.Draw = d.Draw[n:]
	return out, reshuffled
}

func (d *deck) peek(n int, rng *rand.Rand) []Party {
	d.ensure(n, rng)
	return slices.Clone(d.Draw[:min(n, len(d.Draw))])
}

func (d *deck) discard(ps ...Party) {
	d.Discard = append(d.Discard, ps...)
}

func parties(ps []Party) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
