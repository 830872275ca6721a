package secrethitler

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/tatianab/deduction-bench/internal/agent"
	"github.com/tatianab/deduction-bench/internal/engine"
	"github.com/tatianab/deduction-bench/internal/gamelog"
	"github.com/tatianab/deduction-bench/internal/models"
)

// chooser picks uniformly among its legal options with a per-seat rng.
type chooser struct {
	id     models.PlayerID
	seed   int64
	rng    *rand.Rand
	events []models.Event
}

func (c *chooser) Player() models.PlayerID { return c.id }
func (c *chooser) Name() string            { return "chooser" }
func (c *chooser) Notify(ev models.Event)  { c.events = append(c.events, ev) }

func (c *chooser) Reset() {
	c.rng = rand.New(rand.NewSource(c.seed + int64(c.id)))
	c.events = nil
}

func (c *chooser) Act(_ context.Context, obs models.Observation) (models.Action, error) {
	opt := obs.Legal[c.rng.Intn(len(obs.Legal))]
	a := models.Action{Player: c.id, Type: opt.Type, Data: map[string]any{}}
	if len(opt.Targets) > 0 {
		a.Target = models.Target(opt.Targets[c.rng.Intn(len(opt.Targets))])
	}
	if opt.Field != "" {
		if len(opt.Choices) > 0 {
			a.Data[opt.Field] = opt.Choices[c.rng.Intn(len(opt.Choices))]
		} else {
			a.Data[opt.Field] = "I am a liberal."
		}
	}
	return a, nil
}

func roster(n int, seed int64) []agent.Agent {
	out := make([]agent.Agent, n)
	for i := range out {
		out[i] = &chooser{id: models.PlayerID(i), seed: seed}
	}
	return out
}

func fixedNow() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

func newGame(t *testing.T, n int, seed int64, cfg engine.Config, opts ...engine.Option) *engine.Orchestrator {
	t.Helper()
	if cfg.GameID == "" {
		cfg.GameID = "sh-test"
	}
	cfg.Seed = seed
	o, err := engine.New(New(), roster(n, seed), cfg, append([]engine.Option{engine.WithClock(fixedNow)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func stateOf(o *engine.Orchestrator) (*models.GameState, *table) {
	s := o.State()
	return &s, tableOf(&s)
}

func step(t *testing.T, o *engine.Orchestrator, a models.Action) {
	t.Helper()
	if _, err := o.Step(a); err != nil {
		t.Fatalf("Step(%s by %d): %v", a.Type, a.Player, err)
	}
}

// passDiscussion has every speaker pass until the phase changes.
func passDiscussion(t *testing.T, o *engine.Orchestrator) int {
	t.Helper()
	steps := 0
	for o.State().Phase == PhaseDiscussion {
		p, ok := o.CurrentActor()
		if !ok {
			t.Fatalf("no actor in discussion")
		}
		step(t, o, models.Action{Player: p, Type: models.ActionPass})
		steps++
	}
	return steps
}

func voteAll(t *testing.T, o *engine.Orchestrator, ja bool) {
	t.Helper()
	for o.State().Phase == PhaseVoting {
		p, _ := o.CurrentActor()
		step(t, o, models.Action{Player: p, Type: ActionVote, Data: map[string]any{"ja": ja}})
	}
}

func TestNominationThroughDiscussionToVoting(t *testing.T) {
	o := newGame(t, 5, 7, engine.Config{DiscussionRounds: 2})
	if _, err := o.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s, tb := stateOf(o)
	if s.Phase != PhaseNomination {
		t.Fatalf("Expected phase %s, got %s", PhaseNomination, s.Phase)
	}
	pres := tb.president
	if got := o.LegalActions(pres); !slices.Equal(got, []models.ActionType{ActionNominate}) {
		t.Fatalf("president legal actions = %v, want [NOMINATE]", got)
	}
	for p := models.PlayerID(0); p < 5; p++ {
		if p != pres && len(o.LegalActions(p)) != 0 {
			t.Errorf("player %d has legal actions %v outside their turn", p, o.LegalActions(p))
		}
	}

	step(t, o, models.Action{Player: pres, Type: ActionNominate, Target: models.Target(tb.eligible(s)[0])})
	if got := o.State().Phase; got != PhaseDiscussion {
		t.Fatalf("Expected phase %s after nomination, got %s", PhaseDiscussion, got)
	}
	if n := passDiscussion(t, o); n != 10 {
		t.Errorf("Expected 10 discussion turns for 5 players and 2 rounds, got %d", n)
	}
	if got := o.State().Phase; got != PhaseVoting {
		t.Errorf("Expected phase %s after discussion, got %s", PhaseVoting, got)
	}
}

func TestNominationRejectsIneligible(t *testing.T) {
	o := newGame(t, 5, 3, engine.Config{})
	if _, err := o.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	_, tb := stateOf(o)
	_, err := o.Step(models.Action{Player: tb.president, Type: ActionNominate, Target: models.Target(tb.president)})
	if !engine.IsRejected(err) {
		t.Errorf("Expected self-nomination to be rejected, got %v", err)
	}
}

func TestHandsVisibleToHolderOnly(t *testing.T) {
	o := newGame(t, 6, 5, engine.Config{})
	if _, err := o.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s, tb := stateOf(o)
	pres := tb.president
	nominee := tb.eligible(s)[0]
	step(t, o, models.Action{Player: pres, Type: ActionNominate, Target: models.Target(nominee)})
	passDiscussion(t, o)
	voteAll(t, o, true)

	if got := o.State().Phase; got != PhasePresident {
		t.Fatalf("Expected phase %s after a passed vote, got %s", PhasePresident, got)
	}
	for p := models.PlayerID(0); p < 6; p++ {
		obs, err := o.Observation(p)
		if err != nil {
			t.Fatalf("Observation(%d): %v", p, err)
		}
		hand, ok := obs.Data["hand"].([]string)
		if p == pres {
			if !ok || len(hand) != 3 {
				t.Errorf("president sees hand %v, want 3 cards", obs.Data["hand"])
			}
		} else if ok {
			t.Errorf("player %d sees the president's hand", p)
		}
	}

	step(t, o, models.Action{Player: pres, Type: ActionDiscard, Data: map[string]any{"index": 0}})
	if got := o.State().Phase; got != PhaseChancellor {
		t.Fatalf("Expected phase %s, got %s", PhaseChancellor, got)
	}
	obs, _ := o.Observation(nominee)
	if hand, _ := obs.Data["hand"].([]string); len(hand) != 2 {
		t.Errorf("chancellor sees hand %v, want 2 cards", obs.Data["hand"])
	}
	if obs, _ := o.Observation(pres); obs.Data["hand"] != nil {
		t.Errorf("president still sees a hand after discarding")
	}
}

func TestObservationRoleKnowledge(t *testing.T) {
	for n := 5; n <= 10; n++ {
		for seed := int64(1); seed <= 5; seed++ {
			o := newGame(t, n, seed, engine.Config{})
			obs, err := o.Reset()
			if err != nil {
				t.Fatalf("Reset: %v", err)
			}
			_, tb := stateOf(o)
			for p, ob := range obs {
				role := tb.roles[p]
				if ob.Data["role"] != string(role) {
					t.Errorf("n=%d seed=%d: player %d sees role %v, want %s", n, seed, p, ob.Data["role"], role)
				}
				_, sees := ob.Data["fascist_team"]
				want := role == RoleFascist || (role == RoleHitler && n <= 6)
				if sees != want {
					t.Errorf("n=%d seed=%d: %s player %d sees fascist team = %v, want %v", n, seed, role, p, sees, want)
				}
			}
		}
	}
}

func TestPrivateRecordToggle(t *testing.T) {
	run := func(logPrivate bool) []gamelog.Record {
		rec := gamelog.New("toggle", gamelog.Options{LogPrivate: logPrivate, Now: fixedNow})
		o := newGame(t, 7, 21, engine.Config{GameID: "toggle"}, engine.WithRecord(rec))
		if _, err := o.PlayGame(context.Background()); err != nil {
			t.Fatalf("PlayGame: %v", err)
		}
		return rec.Entries(gamelog.Filter{})
	}
	full, public := run(true), run(false)
	for _, r := range public {
		if r.IsPrivate {
			t.Fatalf("private entry %d (%s) recorded with LogPrivate off", r.Seq, r.EventType)
		}
	}
	want := gamelog.FilterRecords(full, gamelog.Filter{PublicOnly: true})
	if !reflect.DeepEqual(want, public) {
		t.Errorf("public record differs between toggles: %d vs %d entries", len(want), len(public))
	}
	if len(full) == len(public) {
		t.Errorf("Expected private entries in the full record")
	}
}

func TestPlayGameDeterministic(t *testing.T) {
	run := func() []byte {
		var buf bytes.Buffer
		rec := gamelog.New("det", gamelog.Options{LogPrivate: true, Sink: &buf, Now: fixedNow})
		o := newGame(t, 8, 99, engine.Config{GameID: "det", DiscussionRounds: 2}, engine.WithRecord(rec))
		if _, err := o.PlayGame(context.Background()); err != nil {
			t.Fatalf("PlayGame: %v", err)
		}
		return buf.Bytes()
	}
	if a, b := run(), run(); !bytes.Equal(a, b) {
		t.Errorf("records differ for the same seed")
	}
}

func TestPlayGameTerminates(t *testing.T) {
	for n := 5; n <= 10; n++ {
		for seed := int64(0); seed < 4; seed++ {
			o := newGame(t, n, seed, engine.Config{})
			res, err := o.PlayGame(context.Background())
			if err != nil {
				t.Fatalf("n=%d seed=%d: PlayGame: %v", n, seed, err)
			}
			switch res.Winner {
			case string(Liberal), string(Fascist), "none":
			default:
				t.Errorf("n=%d seed=%d: unexpected winner %q", n, seed, res.Winner)
			}
			if len(res.PlayerStats) != n {
				t.Errorf("n=%d seed=%d: stats for %d players", n, seed, len(res.PlayerStats))
			}
		}
	}
}

func fixture(n int) (*models.GameState, *table) {
	s := models.NewGameState("fixture", n)
	rng := rand.New(rand.NewSource(1))
	t := &table{
		roles:           make([]Role, n),
		deck:            newDeck(rng),
		president:       0,
		nominee:         nobody,
		chancellor:      nobody,
		lastPresident:   nobody,
		lastChancellor:  nobody,
		pendingSpecial:  nobody,
		specialReturn:   nobody,
		votes:           map[models.PlayerID]bool{},
		investigations:  map[models.PlayerID]map[models.PlayerID]Party{},
		peeks:           map[models.PlayerID][]Party{},
		chancellorTerms: map[models.PlayerID]int{},
		enacted:         map[models.PlayerID][]Party{},
	}
	for i := range t.roles {
		t.roles[i] = RoleLiberal
	}
	t.roles[n-1] = RoleHitler
	t.roles[n-2] = RoleFascist
	s.Ext = t
	s.Phase = PhaseNomination
	return s, t
}

func TestTermLimits(t *testing.T) {
	s, tb := fixture(7)
	tb.president = 0
	tb.lastPresident = 1
	tb.lastChancellor = 2
	if got, want := tb.eligible(s), []models.PlayerID{3, 4, 5, 6}; !slices.Equal(got, want) {
		t.Errorf("eligible with 7 alive = %v, want %v", got, want)
	}

	for _, p := range []models.PlayerID{5, 6} {
		if err := s.Eliminate(p); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := tb.eligible(s), []models.PlayerID{1, 3, 4}; !slices.Equal(got, want) {
		t.Errorf("eligible with 5 alive = %v, want %v", got, want)
	}
}

func TestChaosPolicy(t *testing.T) {
	s, tb := fixture(5)
	rng := rand.New(rand.NewSource(2))
	tb.tracker = trackerLimit - 1
	tb.lastPresident, tb.lastChancellor = 1, 2
	tb.deck.Draw = []Party{Fascist, Liberal, Liberal}

	tb.advanceTracker(s, rng)
	if tb.fascist != 1 || tb.tracker != 0 {
		t.Errorf("Expected one fascist policy and a reset tracker, got fascist=%d tracker=%d", tb.fascist, tb.tracker)
	}
	if tb.lastPresident != nobody || tb.lastChancellor != nobody {
		t.Errorf("Expected term limits cleared after chaos")
	}
	if tb.power != PowerNone {
		t.Errorf("chaos policy granted power %q", tb.power)
	}
}

func TestFailedElectionAdvancesPresident(t *testing.T) {
	s, tb := fixture(5)
	rng := rand.New(rand.NewSource(3))
	tb.president = 4
	tb.nominee = 1
	s.Phase = PhaseVoting
	tb.tally(s, rng)
	if tb.tracker != 1 {
		t.Errorf("Expected tracker 1, got %d", tb.tracker)
	}
	if tb.president != 0 || s.Phase != PhaseNomination {
		t.Errorf("Expected president 0 in %s, got %d in %s", PhaseNomination, tb.president, s.Phase)
	}
}

func TestHitlerElectedChancellor(t *testing.T) {
	s, tb := fixture(5)
	rng := rand.New(rand.NewSource(4))
	tb.fascist = hitlerZone
	tb.nominee = 4
	for _, p := range s.Alive {
		tb.votes[p] = true
	}
	tb.tally(s, rng)
	out, ok := Variant{}.Outcome(s)
	if !ok || out.Winner != string(Fascist) {
		t.Fatalf("Expected fascist win, got %+v (decided %v)", out, ok)
	}
	if !slices.Equal(out.Winners, []models.PlayerID{3, 4}) {
		t.Errorf("winners = %v, want [3 4]", out.Winners)
	}
}

func TestExecutingHitler(t *testing.T) {
	s, tb := fixture(7)
	rng := rand.New(rand.NewSource(5))
	tb.power = PowerExecution
	s.Phase = PhaseExecutive
	if _, err := (Variant{}).Apply(s, models.Action{Player: 0, Type: ActionExecute, Target: models.Target(6)}, rng); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.IsAlive(6) {
		t.Errorf("executed player is still alive")
	}
	if out, ok := (Variant{}).Outcome(s); !ok || out.Winner != string(Liberal) {
		t.Errorf("Expected liberal win, got %+v", out)
	}
}

func TestSpecialElectionReturnsRotation(t *testing.T) {
	s, tb := fixture(7)
	tb.president = 2
	tb.pendingSpecial = 5
	tb.endTerm(s)
	if tb.president != 5 {
		t.Fatalf("Expected special president 5, got %d", tb.president)
	}
	tb.endTerm(s)
	if tb.president != 3 {
		t.Errorf("Expected rotation to resume at 3, got %d", tb.president)
	}
}

func TestVetoUnlock(t *testing.T) {
	s, tb := fixture(5)
	s.Phase = PhaseChancellor
	tb.chancellor = 1
	tb.chancellorHand = []Party{Fascist, Liberal}
	has := func() bool {
		return slices.ContainsFunc(Variant{}.Options(s, 1), func(o models.Option) bool { return o.Type == ActionVeto })
	}
	tb.fascist = vetoThreshold - 1
	if has() {
		t.Errorf("veto offered below the threshold")
	}
	tb.fascist = vetoThreshold
	if !has() {
		t.Errorf("veto not offered at the threshold")
	}
	tb.vetoRejected = true
	if has() {
		t.Errorf("veto offered again after rejection")
	}
}

func TestDeckReshuffle(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	d := deck{Draw: []Party{Liberal, Fascist}, Discard: []Party{Fascist, Fascist, Liberal}}
	hand, reshuffled := d.take(3, rng)
	if !reshuffled {
		t.Errorf("Expected a reshuffle")
	}
	if len(hand) != 3 || len(d.Draw) != 2 || len(d.Discard) != 0 {
		t.Errorf("Expected 3 drawn and 2 left, got hand=%v draw=%v discard=%v", hand, d.Draw, d.Discard)
	}
}

func TestPowerFor(t *testing.T) {
	tests := []struct {
		n, count int
		want     Power
	}{
		{5, 1, PowerNone},
		{5, 3, PowerPeek},
		{6, 4, PowerExecution},
		{7, 2, PowerInvestigate},
		{8, 3, PowerSpecial},
		{9, 1, PowerInvestigate},
		{10, 5, PowerExecution},
		{10, 6, PowerNone},
		{5, 0, PowerNone},
	}
	for _, tt := range tests {
		if got := powerFor(tt.n, tt.count); got != tt.want {
			t.Errorf("powerFor(%d, %d) = %q, want %q", tt.n, tt.count, got, tt.want)
		}
	}
}

func TestDealRoles(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n, d := range roles {
		got := map[Role]int{}
		for _, r := range dealRoles(n, rng) {
			got[r]++
		}
		if got[RoleLiberal] != d.liberals || got[RoleFascist] != d.fascists || got[RoleHitler] != 1 {
			t.Errorf("n=%d: dealt %v", n, got)
		}
	}
}

func TestRegister(t *testing.T) {
	r := engine.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("Register: %v", err)
	}
	v, err := r.Lookup("Secret_Hitler")
	if err != nil || v.Name() != Name {
		t.Errorf("Lookup = %v, %v", v, err)
	}
}

// elect nominates the first eligible player who is not Hitler and passes the
// vote, leaving the game at the president's legislative session.
func elect(t *testing.T, o *engine.Orchestrator) (pres, chancellor models.PlayerID) {
	t.Helper()
	s, tb := stateOf(o)
	pres, chancellor = tb.president, nobody
	for _, p := range tb.eligible(s) {
		if tb.roles[p] != RoleHitler {
			chancellor = p
			break
		}
	}
	if chancellor == nobody {
		t.Fatalf("no eligible chancellor besides Hitler")
	}
	step(t, o, models.Action{Player: pres, Type: ActionNominate, Target: models.Target(chancellor)})
	passDiscussion(t, o)
	voteAll(t, o, true)
	if got := o.State().Phase; got != PhasePresident {
		t.Fatalf("Expected phase %s after the vote, got %s", PhasePresident, got)
	}
	return pres, chancellor
}

func TestHandIndexEncodings(t *testing.T) {
	o := newGame(t, 5, 11, engine.Config{})
	if _, err := o.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	_, tb := stateOf(o)
	pres, chancellor := elect(t, o)

	tb.presidentHand = []Party{Liberal, Liberal, Fascist}
	if _, err := o.Step(models.Action{Player: pres, Type: ActionDiscard, Data: map[string]any{"index": 2.5}}); !engine.IsRejected(err) {
		t.Fatalf("Expected index 2.5 to be rejected, got %v", err)
	}
	step(t, o, models.Action{Player: pres, Type: ActionDiscard, Data: map[string]any{"index": "2.0"}})
	if !slices.Equal(tb.chancellorHand, []Party{Liberal, Liberal}) {
		t.Errorf("chancellor hand = %v, want [liberal liberal]", tb.chancellorHand)
	}
	if d := tb.deck.Discard; len(d) != 1 || d[0] != Fascist {
		t.Errorf("discard pile = %v, want [fascist]", d)
	}

	tb.chancellorHand = []Party{Liberal, Fascist}
	step(t, o, models.Action{Player: chancellor, Type: ActionEnact, Data: map[string]any{"index": 1.0}})
	if tb.fascist != 1 || tb.liberal != 0 {
		t.Errorf("Expected the card at index 1 enacted, got liberal=%d fascist=%d", tb.liberal, tb.fascist)
	}
	if got := tb.enacted[chancellor]; !slices.Equal(got, []Party{Fascist}) {
		t.Errorf("enacted by chancellor = %v, want [fascist]", got)
	}
}

func TestApplyRejectsBadIndex(t *testing.T) {
	s, tb := fixture(5)
	rng := rand.New(rand.NewSource(8))
	s.Phase = PhasePresident
	tb.presidentHand = []Party{Liberal, Fascist, Fascist}
	for _, idx := range []any{3, -1, "x", 1.5, nil} {
		a := models.Action{Player: 0, Type: ActionDiscard, Data: map[string]any{"index": idx}}
		if _, err := (Variant{}).Apply(s, a, rng); err == nil {
			t.Errorf("Apply with index %v succeeded", idx)
		}
	}
	if len(tb.presidentHand) != 3 || len(tb.deck.Discard) != 0 {
		t.Errorf("a refused discard changed the table: hand=%v discard=%v", tb.presidentHand, tb.deck.Discard)
	}
}

// vetoSession elects a government with veto unlocked and has the chancellor
// propose a veto.
func vetoSession(t *testing.T, rec *gamelog.Logger) (o *engine.Orchestrator, tb *table, pres, chancellor models.PlayerID) {
	t.Helper()
	o = newGame(t, 5, 13, engine.Config{GameID: "veto"}, engine.WithRecord(rec))
	if _, err := o.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	_, tb = stateOf(o)
	tb.fascist = vetoThreshold
	pres, chancellor = elect(t, o)
	step(t, o, models.Action{Player: pres, Type: ActionDiscard, Data: map[string]any{"index": 0}})
	if got := o.LegalActions(chancellor); !slices.Equal(got, []models.ActionType{ActionEnact, ActionVeto}) {
		t.Fatalf("chancellor legal actions = %v, want [ENACT VETO]", got)
	}
	step(t, o, models.Action{Player: chancellor, Type: ActionVeto})
	if got := o.State().Phase; got != PhaseVeto {
		t.Fatalf("Expected phase %s after a veto, got %s", PhaseVeto, got)
	}
	if got := o.LegalActions(pres); !slices.Equal(got, []models.ActionType{ActionAcceptVeto, ActionRejectVeto}) {
		t.Fatalf("president legal actions = %v, want [ACCEPT_VETO REJECT_VETO]", got)
	}
	if len(o.LegalActions(chancellor)) != 0 {
		t.Errorf("chancellor may still act while the president answers the veto")
	}
	return o, tb, pres, chancellor
}

func TestVetoAccepted(t *testing.T) {
	rec := gamelog.New("veto", gamelog.Options{LogPrivate: true, Now: fixedNow})
	o, tb, pres, _ := vetoSession(t, rec)

	step(t, o, models.Action{Player: pres, Type: ActionAcceptVeto})
	if tb.fascist != vetoThreshold || tb.liberal != 0 {
		t.Errorf("a vetoed agenda enacted a policy: liberal=%d fascist=%d", tb.liberal, tb.fascist)
	}
	if tb.tracker != 1 {
		t.Errorf("Expected the election tracker at 1, got %d", tb.tracker)
	}
	if n := len(tb.deck.Discard); n != handSize {
		t.Errorf("Expected all %d cards discarded, got %d", handSize, n)
	}
	s := o.State()
	if s.Phase != PhaseNomination || tb.president == pres {
		t.Errorf("Expected a new president in %s, got %d in %s", PhaseNomination, tb.president, s.Phase)
	}
	if len(rec.Entries(gamelog.Filter{Type: models.EventVetoProposed})) != 1 {
		t.Errorf("Expected one %s entry", models.EventVetoProposed)
	}
	responses := rec.Entries(gamelog.Filter{Type: models.EventVetoResponse})
	if len(responses) != 1 || responses[0].Data["accepted"] != true {
		t.Errorf("veto responses = %+v, want one accepted", responses)
	}
}

func TestVetoRejected(t *testing.T) {
	rec := gamelog.New("veto", gamelog.Options{LogPrivate: true, Now: fixedNow})
	o, tb, pres, chancellor := vetoSession(t, rec)

	step(t, o, models.Action{Player: pres, Type: ActionRejectVeto})
	if got := o.State().Phase; got != PhaseChancellor {
		t.Fatalf("Expected phase %s after a rejected veto, got %s", PhaseChancellor, got)
	}
	if got := o.LegalActions(chancellor); !slices.Equal(got, []models.ActionType{ActionEnact}) {
		t.Fatalf("chancellor legal actions = %v, want [ENACT]", got)
	}
	if _, err := o.Step(models.Action{Player: chancellor, Type: ActionVeto}); !engine.IsRejected(err) {
		t.Errorf("Expected a second veto to be rejected, got %v", err)
	}

	tb.chancellorHand = []Party{Liberal, Liberal}
	step(t, o, models.Action{Player: chancellor, Type: ActionEnact, Data: map[string]any{"index": 0}})
	if tb.liberal != 1 || tb.tracker != 0 {
		t.Errorf("Expected one liberal policy and a clear tracker, got liberal=%d tracker=%d", tb.liberal, tb.tracker)
	}
	if got := o.State().Phase; got != PhaseNomination {
		t.Errorf("Expected phase %s, got %s", PhaseNomination, got)
	}
	responses := rec.Entries(gamelog.Filter{Type: models.EventVetoResponse})
	if len(responses) != 1 || responses[0].Data["accepted"] != false {
		t.Errorf("veto responses = %+v, want one rejected", responses)
	}
}

func TestPolicyPeekIsPrivate(t *testing.T) {
	rec := gamelog.New("peek", gamelog.Options{LogPrivate: true, Now: fixedNow})
	agents := roster(5, 17)
	o, err := engine.New(New(), agents, engine.Config{GameID: "peek", Seed: 17},
		engine.WithClock(fixedNow), engine.WithRecord(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := o.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	_, tb := stateOf(o)
	tb.fascist = 2
	tb.deck.Draw = []Party{Fascist, Fascist, Fascist, Liberal, Liberal, Liberal, Fascist}
	pres, chancellor := elect(t, o)
	step(t, o, models.Action{Player: pres, Type: ActionDiscard, Data: map[string]any{"index": 0}})
	step(t, o, models.Action{Player: chancellor, Type: ActionEnact, Data: map[string]any{"index": 0}})

	if tb.fascist != 3 {
		t.Fatalf("Expected a third fascist policy, got %d", tb.fascist)
	}
	top := []Party{Liberal, Liberal, Liberal}
	if got := tb.peeks[pres]; !slices.Equal(got, top) {
		t.Errorf("peeked = %v, want %v", got, top)
	}
	if len(tb.deck.Draw) != 4 {
		t.Errorf("a peek consumed cards: %d left, want 4", len(tb.deck.Draw))
	}
	if got := o.State().Phase; got != PhaseNomination {
		t.Errorf("Expected the term to end after a peek, got phase %s", got)
	}

	for i, ag := range agents {
		p := models.PlayerID(i)
		obs, err := o.Observation(p)
		if err != nil {
			t.Fatalf("Observation(%d): %v", p, err)
		}
		peeked, ok := obs.Data["peeked_policies"].([]string)
		if p == pres {
			if !ok || !slices.Equal(peeked, parties(top)) {
				t.Errorf("president sees peeked policies %v, want %v", obs.Data["peeked_policies"], parties(top))
			}
		} else if ok {
			t.Errorf("player %d sees the president's peek", p)
		}

		saw := slices.ContainsFunc(ag.(*chooser).events, func(ev models.Event) bool {
			return ev.Type == models.EventPresidentialPower && ev.Data["policies"] != nil
		})
		if saw != (p == pres) {
			t.Errorf("player %d notified of the peeked cards = %v", p, saw)
		}
	}

	var private, public int
	for _, r := range rec.Entries(gamelog.Filter{Type: models.EventPresidentialPower}) {
		if r.IsPrivate {
			private++
			if r.PlayerID == nil || *r.PlayerID != pres {
				t.Errorf("private peek recorded for %v, want %d", r.PlayerID, pres)
			}
			continue
		}
		public++
		if _, ok := r.Data["policies"]; ok {
			t.Errorf("public entry %d reveals the peeked cards", r.Seq)
		}
	}
	if private != 1 || public != 1 {
		t.Errorf("Expected one public and one private power entry, got %d and %d", public, private)
	}
}

var allActions = []models.ActionType{
	ActionNominate, ActionVote, ActionDiscard, ActionEnact, ActionVeto, ActionAcceptVeto,
	ActionRejectVeto, ActionInvestigate, ActionSpecialElection, ActionExecute,
	models.ActionSpeak, models.ActionPass,
}

// checkObservations compares every player's view with the field partition:
// a key is present only when one of its fields is visible to the viewer,
// and then it carries that field's value.
func checkObservations(t *testing.T, o *engine.Orchestrator, label string) {
	t.Helper()
	s, tb := stateOf(o)
	fields := Variant{}.Fields(s)
	actor, hasActor := o.CurrentActor()
	for i := range s.NumPlayers {
		p := models.PlayerID(i)
		obs, err := o.Observation(p)
		if err != nil {
			t.Fatalf("%s: Observation(%d): %v", label, p, err)
		}
		want := map[string]any{}
		for _, f := range fields {
			if f.VisibleTo(p) {
				want[f.Key] = f.Value
			}
		}
		for _, f := range fields {
			got, present := obs.Data[f.Key]
			v, visible := want[f.Key]
			switch {
			case present && !visible:
				t.Fatalf("%s: player %d sees %q, which is not theirs", label, p, f.Key)
			case visible && !reflect.DeepEqual(got, v):
				t.Fatalf("%s: player %d sees %q = %v, want %v", label, p, f.Key, got, v)
			}
		}
		if obs.Data["role"] != string(tb.roles[p]) {
			t.Fatalf("%s: player %d sees role %v, want %s", label, p, obs.Data["role"], tb.roles[p])
		}

		legal := o.LegalActions(p)
		if len(legal) > 0 && (!hasActor || actor != p) {
			t.Fatalf("%s: player %d has legal actions %v off turn", label, p, legal)
		}
		for _, at := range allActions {
			if o.IsActionLegal(models.Action{Player: p, Type: at}) != slices.Contains(legal, at) {
				t.Fatalf("%s: IsActionLegal(%d, %s) disagrees with %v", label, p, at, legal)
			}
		}
	}
}

func TestObservationsHideOthersSecrets(t *testing.T) {
	for n := 5; n <= 10; n++ {
		for seed := int64(1); seed <= 3; seed++ {
			agents := roster(n, seed)
			o, err := engine.New(New(), agents, engine.Config{GameID: "sweep", Seed: seed}, engine.WithClock(fixedNow))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, err := o.Reset(); err != nil {
				t.Fatalf("Reset: %v", err)
			}
			steps := 0
			for ; steps < 5000; steps++ {
				checkObservations(t, o, fmt.Sprintf("n=%d seed=%d step %d", n, seed, steps))
				p, ok := o.CurrentActor()
				if !ok {
					break
				}
				obs, err := o.Observation(p)
				if err != nil {
					t.Fatalf("Observation(%d): %v", p, err)
				}
				a, err := agents[p].Act(context.Background(), obs)
				if err != nil {
					t.Fatalf("Act: %v", err)
				}
				res, err := o.Step(a)
				if err != nil {
					t.Fatalf("n=%d seed=%d: Step(%s by %d): %v", n, seed, a.Type, p, err)
				}
				if res.Done {
					checkObservations(t, o, fmt.Sprintf("n=%d seed=%d final", n, seed))
					break
				}
			}
			if st := o.State().Status; st != models.StatusEnded {
				t.Errorf("n=%d seed=%d: game still %s after %d steps", n, seed, st, steps)
			}
		}
	}
}
