package tournament

import (
	"fmt"
	"slices"

	"github.com/tatianab/deduction-bench/internal/config"
)

// Matchups lists every k-entry subset of an n-entry pool in lexicographic
// order.
func Matchups(n, k int) [][]int {
	if k <= 0 || k > n {
		return nil
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	for {
		out = append(out, slices.Clone(idx))
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// Rosters seats every game of the tournament. Without a pool each game uses
// Roster. With one, game i plays matchup i mod M of the M pool subsets, and
// each pass over the matchups rotates the seat order by one so every agent
// sits in every seat.
func (s Spec) Rosters() ([]config.Roster, error) {
	out := make([]config.Roster, s.Games)
	if len(s.Pool) == 0 {
		for i := range out {
			out[i] = s.Roster
		}
		return out, nil
	}
	if s.Seats <= 0 || s.Seats > len(s.Pool) {
		return nil, fmt.Errorf("cannot seat %d players from a pool of %d", s.Seats, len(s.Pool))
	}
	pool, err := namePool(s.Pool)
	if err != nil {
		return nil, err
	}
	matchups := Matchups(len(pool), s.Seats)
	for i := range out {
		m := matchups[i%len(matchups)]
		shift := (i / len(matchups)) % s.Seats
		seats := make([]config.Seat, s.Seats)
		for j := range seats {
			seats[j] = pool[m[(j+shift)%s.Seats]]
		}
		out[i] = config.Roster{Seats: seats}
	}
	return out, nil
}

// namePool gives unnamed entries a stable name so standings can tell pool
// entries apart.
func namePool(pool []config.Seat) ([]config.Seat, error) {
	out := slices.Clone(pool)
	seen := make(map[string]bool, len(out))
	for i := range out {
		if out[i].Name == "" {
			out[i].Name = fmt.Sprintf("%s-%d", out[i].Kind, i)
		}
		if seen[out[i].Name] {
			return nil, fmt.Errorf("pool entry %d: duplicate name %q", i, out[i].Name)
		}
		seen[out[i].Name] = true
	}
	return out, nil
}
