// Package secrethitler is the Secret Hitler rule set: hidden roles for 5-10
// players, elections, a policy deck, presidential powers and veto.
package secrethitler

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/tatianab/deduction-bench/internal/engine"
	"github.com/tatianab/deduction-bench/internal/models"
)

const Name = "secret_hitler"

const (
	PhaseNomination models.Phase = "NOMINATION"
	PhaseDiscussion models.Phase = "DISCUSSION"
	PhaseVoting     models.Phase = "VOTING"
	PhasePresident  models.Phase = "LEGISLATIVE_PRESIDENT"
	PhaseChancellor models.Phase = "LEGISLATIVE_CHANCELLOR"
	PhaseVeto       models.Phase = "VETO_RESPONSE"
	PhaseExecutive  models.Phase = "EXECUTIVE_ACTION"
)

const (
	ActionNominate        = models.ActionNominate
	ActionVote            = models.ActionVote
	ActionDiscard         models.ActionType = "DISCARD"
	ActionEnact           models.ActionType = "ENACT"
	ActionVeto            models.ActionType = "VETO"
	ActionAcceptVeto      models.ActionType = "ACCEPT_VETO"
	ActionRejectVeto      models.ActionType = "REJECT_VETO"
	ActionInvestigate     models.ActionType = "INVESTIGATE"
	ActionSpecialElection models.ActionType = "SPECIAL_ELECTION"
	ActionExecute         models.ActionType = "EXECUTE"
)

const nobody models.PlayerID = -1

// table is the rule state kept in GameState.Ext.
type table struct {
	roles          []Role
	deck           deck
	president      models.PlayerID
	nominee        models.PlayerID
	chancellor     models.PlayerID
	lastPresident  models.PlayerID
	lastChancellor models.PlayerID
	pendingSpecial models.PlayerID
	specialReturn  models.PlayerID

	liberal int
	fascist int
	tracker int

	votes     map[models.PlayerID]bool
	lastVotes map[models.PlayerID]bool

	presidentHand  []Party
	chancellorHand []Party
	vetoProposed   bool
	vetoAccepted   bool
	vetoRejected   bool
	power          Power

	investigations map[models.PlayerID]map[models.PlayerID]Party
	peeks          map[models.PlayerID][]Party
	notHitler      []models.PlayerID

	chancellorTerms map[models.PlayerID]int
	enacted         map[models.PlayerID][]Party
	outcome         *engine.Outcome
}

func tableOf(s *models.GameState) *table {
	return s.Ext.(*table)
}

// Variant implements engine.Variant.
type Variant struct{}

func New() engine.Variant {
	return Variant{}
}

// Register adds Secret Hitler to r.
func Register(r *engine.Registry) error {
	return r.Register(New)
}

func (Variant) Name() string        { return Name }
func (Variant) Players() (int, int) { return 5, 10 }

func (Variant) Phases() []engine.PhaseSpec {
	return []engine.PhaseSpec{
		{Phase: PhaseNomination, Solicit: engine.SolicitActors},
		{Phase: PhaseDiscussion, Solicit: engine.SolicitAll, Order: engine.OrderShuffle, Discussion: true},
		{Phase: PhaseVoting, Solicit: engine.SolicitAll, Order: engine.OrderSeat},
		{Phase: PhasePresident, Solicit: engine.SolicitActors},
		{Phase: PhaseChancellor, Solicit: engine.SolicitActors},
		{Phase: PhaseVeto, Solicit: engine.SolicitActors},
		{Phase: PhaseExecutive, Solicit: engine.SolicitActors},
	}
}

func (Variant) Setup(s *models.GameState, rng *rand.Rand) ([]models.Event, error) {
	n := s.NumPlayers
	if _, ok := roles[n]; !ok {
		return nil, fmt.Errorf("%w: %s needs 5-10 players, got %d", engine.ErrPlayerCount, Name, n)
	}
	t := &table{
		roles:           dealRoles(n, rng),
		deck:            newDeck(rng),
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
	t.president = models.PlayerID(rng.Intn(n))
	s.Ext = t
	s.Phase = PhaseNomination

	all := make([]string, n)
	for i, r := range t.roles {
		all[i] = string(r)
	}
	events := []models.Event{{Type: models.EventRoleAssigned, Private: true, Data: map[string]any{"roles": all}}}
	team, hitler := t.fascistTeam()
	for i, r := range t.roles {
		p := models.PlayerID(i)
		data := map[string]any{"role": string(r), "party": string(r.Party())}
		if t.knowsTeam(p) {
			data["fascist_team"] = ints(team)
			data["hitler"] = int(hitler)
		}
		events = append(events, models.Event{
			Type: models.EventRoleAssigned, Player: &p, Private: true, Audience: []models.PlayerID{p}, Data: data,
		})
	}
	events = append(events, models.Event{Type: models.EventInfo, Data: map[string]any{
		"president": int(t.president),
		"kind":      "first_president",
	}})
	return events, nil
}

func (t *table) fascistTeam() (team []models.PlayerID, hitler models.PlayerID) {
	hitler = nobody
	for i, r := range t.roles {
		if r == RoleLiberal {
			continue
		}
		team = append(team, models.PlayerID(i))
		if r == RoleHitler {
			hitler = models.PlayerID(i)
		}
	}
	return team, hitler
}

func (t *table) knowsTeam(p models.PlayerID) bool {
	switch t.roles[p] {
	case RoleFascist:
		return true
	case RoleHitler:
		return len(t.roles) <= hitlerKnowsUpTo
	}
	return false
}

func (Variant) Fields(s *models.GameState) []models.Field {
	t := tableOf(s)
	fields := []models.Field{
		{Key: "num_players", Value: s.NumPlayers},
		{Key: "president", Value: int(t.president)},
		{Key: "liberal_policies", Value: t.liberal},
		{Key: "fascist_policies", Value: t.fascist},
		{Key: "election_tracker", Value: t.tracker},
		{Key: "veto_unlocked", Value: t.fascist >= vetoThreshold},
		{Key: "draw_pile", Value: len(t.deck.Draw)},
		{Key: "last_government", Value: map[string]any{
			"president":  int(t.lastPresident),
			"chancellor": int(t.lastChancellor),
		}},
		{Key: "confirmed_not_hitler", Value: ints(t.notHitler)},
	}
	if t.nominee != nobody {
		fields = append(fields, models.Field{Key: "chancellor_nominee", Value: int(t.nominee)})
	}
	if t.chancellor != nobody {
		fields = append(fields, models.Field{Key: "chancellor", Value: int(t.chancellor)})
	}
	if t.lastVotes != nil {
		ja, nein := split(t.lastVotes)
		fields = append(fields, models.Field{Key: "last_votes", Value: map[string]any{"ja": ints(ja), "nein": ints(nein)}})
	}
	if s.Phase == PhaseExecutive {
		fields = append(fields, models.Field{Key: "pending_power", Value: string(t.power)})
	}

	team, hitler := t.fascistTeam()
	var knowers []models.PlayerID
	for i, r := range t.roles {
		p := models.PlayerID(i)
		only := []models.PlayerID{p}
		fields = append(fields,
			models.Field{Key: "role", Value: string(r), Audience: only},
			models.Field{Key: "party", Value: string(r.Party()), Audience: only})
		if t.knowsTeam(p) {
			knowers = append(knowers, p)
		}
		if inv, ok := t.investigations[p]; ok {
			results := make(map[string]any, len(inv))
			for target, party := range inv {
				results[fmt.Sprint(target)] = string(party)
			}
			fields = append(fields, models.Field{Key: "investigations", Value: results, Audience: only})
		}
		if peek, ok := t.peeks[p]; ok {
			fields = append(fields, models.Field{Key: "peeked_policies", Value: parties(peek), Audience: only})
		}
	}
	if len(knowers) > 0 {
		fields = append(fields,
			models.Field{Key: "fascist_team", Value: ints(team), Audience: knowers},
			models.Field{Key: "hitler", Value: int(hitler), Audience: knowers})
	}

	switch s.Phase {
	case PhasePresident:
		fields = append(fields, models.Field{Key: "hand", Value: parties(t.presidentHand), Audience: []models.PlayerID{t.president}})
	case PhaseChancellor, PhaseVeto:
		fields = append(fields, models.Field{Key: "hand", Value: parties(t.chancellorHand), Audience: []models.PlayerID{t.chancellor}})
	}
	return fields
}

func (Variant) Visible(s *models.GameState, viewer models.PlayerID, f models.Field) bool {
	return engine.AudienceVisible(s, viewer, f)
}

func (Variant) Actors(s *models.GameState) []models.PlayerID {
	t := tableOf(s)
	switch s.Phase {
	case PhaseNomination, PhasePresident, PhaseVeto, PhaseExecutive:
		return []models.PlayerID{t.president}
	case PhaseChancellor:
		return []models.PlayerID{t.chancellor}
	}
	return nil
}

// eligible lists legal chancellor nominees under the term limits.
func (t *table) eligible(s *models.GameState) []models.PlayerID {
	var out []models.PlayerID
	for _, p := range s.Alive {
		if p == t.president || p == t.lastChancellor {
			continue
		}
		if len(s.Alive) > termLimitCutoff && p == t.lastPresident {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return slices.DeleteFunc(s.AlivePlayers(), func(p models.PlayerID) bool { return p == t.president })
	}
	return out
}

func (t *table) powerTargets(s *models.GameState) []models.PlayerID {
	var out []models.PlayerID
	for _, p := range s.Alive {
		if p == t.president {
			continue
		}
		if t.power == PowerInvestigate && t.investigated(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (t *table) investigated(p models.PlayerID) bool {
	for _, inv := range t.investigations {
		if _, ok := inv[p]; ok {
			return true
		}
	}
	return false
}

func powerAction(p Power) models.ActionType {
	switch p {
	case PowerInvestigate:
		return ActionInvestigate
	case PowerSpecial:
		return ActionSpecialElection
	case PowerExecution:
		return ActionExecute
	}
	return ""
}

// handIndex reads the card index of a DISCARD or ENACT.
func handIndex(a models.Action, hand []Party) (int, error) {
	i, ok := a.Int("index")
	if !ok || i < 0 || i >= len(hand) {
		return 0, fmt.Errorf("%s index %v does not address a hand of %d", a.Type, a.Data["index"], len(hand))
	}
	return i, nil
}

func indexChoices(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (Variant) Options(s *models.GameState, p models.PlayerID) []models.Option {
	t := tableOf(s)
	switch s.Phase {
	case PhaseNomination:
		return []models.Option{{Type: ActionNominate, Targets: t.eligible(s)}}
	case PhaseVoting:
		return []models.Option{{Type: ActionVote, Field: "ja", Choices: []any{true, false}}}
	case PhasePresident:
		return []models.Option{{Type: ActionDiscard, Field: "index", Choices: indexChoices(len(t.presidentHand))}}
	case PhaseChancellor:
		opts := []models.Option{{Type: ActionEnact, Field: "index", Choices: indexChoices(len(t.chancellorHand))}}
		if t.fascist >= vetoThreshold && !t.vetoRejected {
			opts = append(opts, models.Option{Type: ActionVeto})
		}
		return opts
	case PhaseVeto:
		return []models.Option{{Type: ActionAcceptVeto}, {Type: ActionRejectVeto}}
	case PhaseExecutive:
		if at := powerAction(t.power); at != "" {
			return []models.Option{{Type: at, Targets: t.powerTargets(s)}}
		}
	}
	return nil
}

func (Variant) Validate(s *models.GameState, a models.Action) error {
	t := tableOf(s)
	switch a.Type {
	case ActionDiscard:
		if len(t.presidentHand) == 0 {
			return engine.Reject(a, engine.CodeInvalidPayload, "no hand to discard from")
		}
	case ActionEnact:
		if len(t.chancellorHand) == 0 {
			return engine.Reject(a, engine.CodeInvalidPayload, "no hand to enact from")
		}
	}
	return nil
}

func (Variant) Apply(s *models.GameState, a models.Action, rng *rand.Rand) ([]models.Event, error) {
	t := tableOf(s)
	p := a.Player
	only := []models.PlayerID{p}

	switch a.Type {
	case ActionNominate:
		t.nominee = *a.Target
		return []models.Event{{Type: models.EventNomination, Player: &p, Data: map[string]any{
			"president": int(p),
			"nominee":   int(t.nominee),
		}}}, nil

	case ActionVote:
		ja, _ := a.Bool("ja")
		t.votes[p] = ja
		return []models.Event{{Type: models.EventVoteCast, Player: &p, Private: true, Audience: only, Data: map[string]any{
			"ja":      ja,
			"nominee": int(t.nominee),
		}}}, nil

	case ActionDiscard:
		hand := t.presidentHand
		i, err := handIndex(a, hand)
		if err != nil {
			return nil, err
		}
		t.deck.discard(hand[i])
		t.chancellorHand = slices.Delete(slices.Clone(hand), i, i+1)
		t.presidentHand = nil
		return []models.Event{
			{Type: models.EventPlayerAction, Player: &p, Private: true, Audience: only, Data: map[string]any{
				"action_type": string(ActionDiscard),
				"hand":        parties(hand),
				"discarded":   string(hand[i]),
			}},
			{Type: models.EventPlayerAction, Player: &p, Data: map[string]any{
				"action_type": string(ActionDiscard),
				"chancellor":  int(t.chancellor),
			}},
		}, nil

	case ActionEnact:
		hand := t.chancellorHand
		i, err := handIndex(a, hand)
		if err != nil {
			return nil, err
		}
		card := hand[i]
		t.deck.discard(slices.Delete(slices.Clone(hand), i, i+1)...)
		t.chancellorHand = nil
		t.enacted[p] = append(t.enacted[p], card)
		events := []models.Event{{Type: models.EventPlayerAction, Player: &p, Private: true, Audience: only, Data: map[string]any{
			"action_type": string(ActionEnact),
			"hand":        parties(hand),
			"enacted":     string(card),
		}}}
		return append(events, t.enact(s, card, false)...), nil

	case ActionVeto:
		t.vetoProposed = true
		return []models.Event{{Type: models.EventVetoProposed, Player: &p, Data: map[string]any{
			"chancellor": int(p),
			"president":  int(t.president),
		}}}, nil

	case ActionAcceptVeto:
		t.deck.discard(t.chancellorHand...)
		t.chancellorHand = nil
		t.vetoProposed = false
		t.vetoAccepted = true
		events := []models.Event{{Type: models.EventVetoResponse, Player: &p, Data: map[string]any{"accepted": true}}}
		return append(events, t.advanceTracker(s, rng)...), nil

	case ActionRejectVeto:
		t.vetoProposed = false
		t.vetoRejected = true
		return []models.Event{{Type: models.EventVetoResponse, Player: &p, Data: map[string]any{"accepted": false}}}, nil

	case ActionInvestigate:
		target := *a.Target
		party := t.roles[target].Party()
		if t.investigations[p] == nil {
			t.investigations[p] = map[models.PlayerID]Party{}
		}
		t.investigations[p][target] = party
		t.power = PowerNone
		return []models.Event{
			{Type: models.EventPresidentialPower, Player: &p, Data: map[string]any{
				"power":  string(PowerInvestigate),
				"target": int(target),
			}},
			{Type: models.EventInvestigationResult, Player: &p, Private: true, Audience: only, Data: map[string]any{
				"target": int(target),
				"party":  string(party),
			}},
		}, nil

	case ActionSpecialElection:
		t.pendingSpecial = *a.Target
		t.power = PowerNone
		return []models.Event{{Type: models.EventPresidentialPower, Player: &p, Data: map[string]any{
			"power":  string(PowerSpecial),
			"target": int(t.pendingSpecial),
		}}}, nil

	case ActionExecute:
		target := *a.Target
		if err := s.Eliminate(target); err != nil {
			return nil, err
		}
		t.power = PowerNone
		events := []models.Event{
			{Type: models.EventPresidentialPower, Player: &p, Data: map[string]any{
				"power":  string(PowerExecution),
				"target": int(target),
			}},
			{Type: models.EventPlayerEliminated, Player: &target, Data: map[string]any{
				"player": int(target),
				"reason": "executed",
			}},
		}
		if t.roles[target] == RoleHitler {
			t.win(Liberal, "Hitler was executed")
		}
		return events, nil
	}
	return nil, fmt.Errorf("unsupported action %s", a.Type)
}

func (Variant) Advance(s *models.GameState, rng *rand.Rand) ([]models.Event, error) {
	t := tableOf(s)
	switch s.Phase {
	case PhaseNomination:
		s.Phase = PhaseDiscussion
	case PhaseDiscussion:
		s.Phase = PhaseVoting
	case PhaseVoting:
		return t.tally(s, rng), nil
	case PhasePresident:
		s.Phase = PhaseChancellor
	case PhaseChancellor:
		if t.vetoProposed {
			s.Phase = PhaseVeto
			return nil, nil
		}
		return t.afterLegislation(s, rng), nil
	case PhaseVeto:
		if t.vetoAccepted {
			if t.outcome != nil {
				return nil, nil
			}
			return t.afterLegislation(s, rng), nil
		}
		s.Phase = PhaseChancellor
	case PhaseExecutive:
		return t.endTerm(s), nil
	default:
		return nil, fmt.Errorf("advance from unknown phase %q", s.Phase)
	}
	return nil, nil
}

// tally reveals the votes all at once. A strict majority of the living
// players must vote ja.
func (t *table) tally(s *models.GameState, rng *rand.Rand) []models.Event {
	votes := make(map[models.PlayerID]bool, len(s.Alive))
	for _, p := range s.Alive {
		votes[p] = t.votes[p]
	}
	t.votes = map[models.PlayerID]bool{}
	t.lastVotes = votes
	ja, nein := split(votes)
	passed := len(ja) > len(s.Alive)/2

	events := []models.Event{{Type: models.EventElectionResult, Data: map[string]any{
		"president": int(t.president),
		"nominee":   int(t.nominee),
		"ja":        ints(ja),
		"nein":      ints(nein),
		"passed":    passed,
	}}}

	if !passed {
		t.nominee = nobody
		events = append(events, t.advanceTracker(s, rng)...)
		if t.outcome != nil {
			return events
		}
		return append(events, t.endTerm(s)...)
	}

	t.chancellor = t.nominee
	t.nominee = nobody
	t.lastPresident = t.president
	t.lastChancellor = t.chancellor
	t.chancellorTerms[t.chancellor]++
	if t.fascist >= hitlerZone {
		if t.roles[t.chancellor] == RoleHitler {
			t.win(Fascist, "Hitler was elected chancellor")
			return events
		}
		if !slices.Contains(t.notHitler, t.chancellor) {
			t.notHitler = append(t.notHitler, t.chancellor)
		}
	}

	hand, reshuffled := t.deck.take(handSize, rng)
	if reshuffled {
		events = append(events, reshuffleEvent(len(t.deck.Draw)+len(hand)))
	}
	t.presidentHand = hand
	t.vetoProposed, t.vetoAccepted, t.vetoRejected = false, false, false
	s.Phase = PhasePresident
	return events
}

// advanceTracker records a failed government. The third in a row enacts the
// top policy.
func (t *table) advanceTracker(s *models.GameState, rng *rand.Rand) []models.Event {
	t.tracker++
	if t.tracker < trackerLimit {
		return []models.Event{{Type: models.EventInfo, Data: map[string]any{"kind": "election_tracker", "election_tracker": t.tracker}}}
	}
	var events []models.Event
	cards, reshuffled := t.deck.take(1, rng)
	if reshuffled {
		events = append(events, reshuffleEvent(len(t.deck.Draw)+1))
	}
	return append(events, t.enact(s, cards[0], true)...)
}

func (t *table) enact(s *models.GameState, card Party, chaos bool) []models.Event {
	if card == Liberal {
		t.liberal++
	} else {
		t.fascist++
	}
	t.tracker = 0
	if chaos {
		t.lastPresident, t.lastChancellor = nobody, nobody
	}
	events := []models.Event{{Type: models.EventPolicyEnacted, Data: map[string]any{
		"policy":           string(card),
		"chaos":            chaos,
		"liberal_policies": t.liberal,
		"fascist_policies": t.fascist,
	}}}

	switch {
	case t.liberal >= liberalToWin:
		t.win(Liberal, fmt.Sprintf("%d liberal policies enacted", liberalToWin))
	case t.fascist >= fascistToWin:
		t.win(Fascist, fmt.Sprintf("%d fascist policies enacted", fascistToWin))
	case card == Fascist && !chaos:
		t.power = powerFor(s.NumPlayers, t.fascist)
	}
	return events
}

// afterLegislation grants the pending power or ends the term.
func (t *table) afterLegislation(s *models.GameState, rng *rand.Rand) []models.Event {
	if t.outcome != nil {
		return nil
	}
	pres := t.president
	switch t.power {
	case PowerPeek:
		top := t.deck.peek(handSize, rng)
		t.peeks[pres] = top
		events := []models.Event{
			{Type: models.EventPresidentialPower, Player: &pres, Data: map[string]any{"power": string(PowerPeek)}},
			{Type: models.EventPresidentialPower, Player: &pres, Private: true, Audience: []models.PlayerID{pres}, Data: map[string]any{
				"power":    string(PowerPeek),
				"policies": parties(top),
			}},
		}
		return append(events, t.endTerm(s)...)
	case PowerInvestigate, PowerSpecial, PowerExecution:
		if len(t.powerTargets(s)) == 0 {
			return t.endTerm(s)
		}
		s.Phase = PhaseExecutive
		return []models.Event{{Type: models.EventPresidentialPower, Player: &pres, Data: map[string]any{
			"power":  string(t.power),
			"status": "granted",
		}}}
	}
	return t.endTerm(s)
}

// endTerm passes the presidency on. A special election returns to the
// regular rotation from the president who called it.
func (t *table) endTerm(s *models.GameState) []models.Event {
	t.power = PowerNone
	t.chancellor = nobody
	t.vetoProposed, t.vetoAccepted, t.vetoRejected = false, false, false
	s.Phase = PhaseNomination

	if t.pendingSpecial != nobody {
		t.specialReturn = t.president
		t.president = t.pendingSpecial
		t.pendingSpecial = nobody
		return nil
	}
	from := t.president
	if t.specialReturn != nobody {
		from = t.specialReturn
		t.specialReturn = nobody
	}
	t.president = nextAlive(s, from)
	return nil
}

func nextAlive(s *models.GameState, from models.PlayerID) models.PlayerID {
	for i := 1; i <= s.NumPlayers; i++ {
		p := models.PlayerID((int(from) + i) % s.NumPlayers)
		if s.IsAlive(p) {
			return p
		}
	}
	return from
}

func (t *table) win(party Party, reason string) {
	var winners []models.PlayerID
	for i, r := range t.roles {
		if r.Party() == party {
			winners = append(winners, models.PlayerID(i))
		}
	}
	t.outcome = &engine.Outcome{Winner: string(party), Winners: winners, Reason: reason}
}

func (Variant) Outcome(s *models.GameState) (engine.Outcome, bool) {
	t := tableOf(s)
	if t.outcome == nil {
		return engine.Outcome{}, false
	}
	return *t.outcome, true
}

// Fallback is the conservative choice for each phase: nominate the first
// eligible player, vote nein, keep the first cards, reject veto, and use a
// power on the first valid target.
func (Variant) Fallback(s *models.GameState, p models.PlayerID) models.Action {
	t := tableOf(s)
	a := models.Action{Player: p, Data: map[string]any{}}
	switch s.Phase {
	case PhaseNomination:
		a.Type = ActionNominate
		if e := t.eligible(s); len(e) > 0 {
			a.Target = models.Target(e[0])
		}
	case PhaseVoting:
		a.Type = ActionVote
		a.Data["ja"] = false
	case PhasePresident:
		a.Type = ActionDiscard
		a.Data["index"] = 0
	case PhaseChancellor:
		a.Type = ActionEnact
		a.Data["index"] = 0
	case PhaseVeto:
		a.Type = ActionRejectVeto
	case PhaseExecutive:
		a.Type = powerAction(t.power)
		if targets := t.powerTargets(s); len(targets) > 0 {
			a.Target = models.Target(targets[0])
		}
	default:
		a.Type = models.ActionPass
	}
	return a
}

func (Variant) Stats(s *models.GameState, o engine.Outcome) map[models.PlayerID]map[string]any {
	t := tableOf(s)
	out := make(map[models.PlayerID]map[string]any, s.NumPlayers)
	for i, r := range t.roles {
		p := models.PlayerID(i)
		lib, fas := 0, 0
		for _, c := range t.enacted[p] {
			if c == Liberal {
				lib++
			} else {
				fas++
			}
		}
		out[p] = map[string]any{
			"role":             string(r),
			"party":            string(r.Party()),
			"survived":         s.IsAlive(p),
			"won":              o.Winner != "" && o.Winner == string(r.Party()),
			"chancellor_terms": t.chancellorTerms[p],
			"enacted_liberal":  lib,
			"enacted_fascist":  fas,
		}
	}
	return out
}

func reshuffleEvent(size int) models.Event {
	return models.Event{Type: models.EventInfo, Data: map[string]any{"kind": "deck_reshuffled", "draw_pile": size}}
}

func split(votes map[models.PlayerID]bool) (ja, nein []models.PlayerID) {
	for p, v := range votes {
		if v {
			ja = append(ja, p)
		} else {
			nein = append(nein, p)
		}
	}
	slices.Sort(ja)
	slices.Sort(nein)
	return ja, nein
}

func ints(ps []models.PlayerID) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = int(p)
	}
	return out
}
