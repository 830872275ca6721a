package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/tatianab/deduction-bench/internal/agent"
	"github.com/tatianab/deduction-bench/internal/gamelog"
	"github.com/tatianab/deduction-bench/internal/models"
)

var tracer = otel.Tracer("github.com/tatianab/deduction-bench/internal/engine")

// Reason codes recorded with decision failures.
const (
	ReasonDecisionTimeout = "decision_timeout"
	ReasonAgentError      = "agent_error"
	ReasonFallbackUsed    = "fallback_used"
	ReasonNotifyFailed    = "notify_failed"
)

type Config struct {
	// GameID defaults to the record's id, then to a fresh UUID.
	GameID string
	Seed   int64
	// DiscussionRounds is the default for discussion phases that do not
	// set their own.
	DiscussionRounds int
	// MaxRounds ends the game with no winner once reached. Zero means 50.
	MaxRounds int
	// MaxRetries is how many times an illegal submission is re-requested
	// before the fallback is applied.
	MaxRetries      int
	DecisionTimeout time.Duration
}

const (
	defaultMaxRounds = 50
	maxAdvances      = 64
)

type Option func(*Orchestrator)

// WithRecord sets the game record. Without it a memory-only record is used.
func WithRecord(l *gamelog.Logger) Option {
	return func(o *Orchestrator) { o.record = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// StepResult is what Step reports after applying an action.
type StepResult struct {
	Observations map[models.PlayerID]models.Observation
	Done         bool
	Info         map[string]any
}

// Orchestrator drives one game at a time: it owns the GameState, asks the
// current actor for a decision, applies it through the variant, advances
// phases and rounds, and fans out notifications.
type Orchestrator struct {
	variant Variant
	agents  []agent.Agent
	cfg     Config
	record  *gamelog.Logger
	log     *zap.Logger
	now     func() time.Time
	phases  []PhaseSpec
	specs   map[models.Phase]PhaseSpec

	rng       *rand.Rand
	state     *models.GameState
	queue     []models.PlayerID
	discRound int
	started   time.Time
	outcome   *Outcome
}

// New seats agents in roster order; agent i must be player i.
func New(v Variant, agents []agent.Agent, cfg Config, opts ...Option) (*Orchestrator, error) {
	lo, hi := v.Players()
	if n := len(agents); n < lo || n > hi {
		return nil, fmt.Errorf("%w: %s supports %d-%d players, got %d", ErrPlayerCount, v.Name(), lo, hi, n)
	}
	for i, a := range agents {
		if a.Player() != models.PlayerID(i) {
			return nil, fmt.Errorf("agent %q in seat %d reports player %d", a.Name(), i, a.Player())
		}
	}
	phases := v.Phases()
	if len(phases) == 0 {
		return nil, fmt.Errorf("variant %s declares no phases", v.Name())
	}
	if cfg.DiscussionRounds <= 0 {
		cfg.DiscussionRounds = 1
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	o := &Orchestrator{
		variant: v,
		agents:  agents,
		cfg:     cfg,
		log:     zap.NewNop(),
		now:     time.Now,
		phases:  phases,
		specs:   make(map[models.Phase]PhaseSpec, len(phases)),
	}
	for _, p := range phases {
		o.specs[p.Phase] = p
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Reset starts a fresh game and returns every player's initial observation.
func (o *Orchestrator) Reset() (map[models.PlayerID]models.Observation, error) {
	gameID := o.cfg.GameID
	if gameID == "" && o.record != nil {
		gameID = o.record.GameID()
	}
	if gameID == "" {
		gameID = uuid.NewString()
	}
	if o.record == nil {
		o.record = gamelog.New(gameID, gamelog.Options{Now: o.now})
	}

	o.rng = rand.New(rand.NewSource(o.cfg.Seed))
	o.queue = nil
	o.outcome = nil
	o.discRound = 0
	o.started = o.now()
	for _, a := range o.agents {
		a.Reset()
	}

	s := models.NewGameState(gameID, len(o.agents))
	o.state = s
	seated := s.AlivePlayers()
	events, err := o.variant.Setup(s, o.rng)
	if err != nil {
		return nil, corrupt(CodeVariantFailure, err, "setup %s", o.variant.Name())
	}
	if err := o.checkAlive(seated, "setup"); err != nil {
		return nil, err
	}
	if err := s.Transition(models.StatusOngoing); err != nil {
		return nil, corrupt(CodeVariantFailure, err, "start %s", gameID)
	}
	s.Round = 1
	o.record.SetRound(s.Round)

	names := make([]string, len(o.agents))
	for i, a := range o.agents {
		names[i] = a.Name()
	}
	o.emit(models.Event{Type: models.EventGameStart, Data: map[string]any{
		"variant":     o.variant.Name(),
		"num_players": len(o.agents),
		"seed":        o.cfg.Seed,
		"players":     names,
	}})
	o.emit(events...)
	o.emit(models.Event{Type: models.EventRoundStart, Data: map[string]any{"round": s.Round}})
	if err := o.enterPhase(""); err != nil {
		return nil, err
	}
	if err := o.settle(); err != nil {
		return nil, err
	}

	o.log.Info("game started",
		zap.String("game_id", gameID),
		zap.String("variant", o.variant.Name()),
		zap.Int("players", len(o.agents)),
		zap.Int64("seed", o.cfg.Seed),
		zap.Bool("log_private", o.record.LogsPrivate()))
	return o.observations(), nil
}

// Step validates and applies one action. An illegal action is rejected with
// *ActionRejected and leaves the state untouched.
func (o *Orchestrator) Step(a models.Action) (StepResult, error) {
	if o.state == nil {
		return StepResult{}, ErrNotReset
	}
	if o.state.Status == models.StatusEnded {
		return StepResult{}, corrupt(CodeActionAfterEnd, nil, "%s by player %d after game end", a.Type, a.Player)
	}
	if err := o.check(a); err != nil {
		return StepResult{}, err
	}
	if err := o.apply(a); err != nil {
		return StepResult{}, err
	}
	if err := o.settle(); err != nil {
		return StepResult{}, err
	}

	res := StepResult{
		Observations: o.observations(),
		Done:         o.state.Status == models.StatusEnded,
		Info: map[string]any{
			"phase":  string(o.state.Phase),
			"round":  o.state.Round,
			"status": string(o.state.Status),
		},
	}
	if p, ok := o.CurrentActor(); ok {
		res.Info["actor"] = int(p)
	}
	if o.outcome != nil {
		res.Info["winner"] = o.outcome.Winner
		res.Info["reason"] = o.outcome.Reason
	}
	return res, nil
}

// PlayGame resets and runs to completion. Agent failures are absorbed by the
// fallback path; only state corruption or ctx cancellation end it early.
func (o *Orchestrator) PlayGame(ctx context.Context) (models.GameResult, error) {
	ctx, span := tracer.Start(ctx, "engine.PlayGame")
	defer span.End()

	if _, err := o.Reset(); err != nil {
		span.RecordError(err)
		return models.GameResult{}, err
	}
	span.SetAttributes(attribute.String("game.id", o.state.GameID), attribute.String("game.variant", o.variant.Name()))

	for o.state.Status != models.StatusEnded {
		if err := ctx.Err(); err != nil {
			o.record.Save()
			return models.GameResult{}, fmt.Errorf("play %s: %w", o.state.GameID, err)
		}
		p, ok := o.CurrentActor()
		if !ok {
			err := corrupt(CodeNoActor, nil, "phase %s has no pending actor", o.state.Phase)
			span.SetStatus(codes.Error, err.Error())
			return models.GameResult{}, err
		}
		if err := o.turn(ctx, p); err != nil {
			span.SetStatus(codes.Error, err.Error())
			o.record.Save()
			return models.GameResult{}, err
		}
	}

	if err := o.record.Save(); err != nil {
		return models.GameResult{}, err
	}
	res := o.Result()
	o.log.Info("game finished",
		zap.String("game_id", res.GameID),
		zap.String("winner", res.Winner),
		zap.String("reason", res.WinReason),
		zap.Int("rounds", res.NumRounds))
	return res, nil
}

// turn gets one accepted action from p, falling back after MaxRetries
// rejected submissions or a failed decision.
func (o *Orchestrator) turn(ctx context.Context, p models.PlayerID) error {
	feedback := ""
	cause := ""
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		a, ok := o.decide(ctx, p, feedback)
		if !ok {
			cause = ReasonAgentError
			break
		}
		_, err := o.Step(a)
		if err == nil {
			return nil
		}
		var rej *ActionRejected
		if !errors.As(err, &rej) {
			return err
		}
		o.fail(p, rej.Code, rej.Reason, a.Type)
		feedback = rej.Error()
		cause = rej.Code
	}

	fb := o.fallback(p)
	o.fail(p, ReasonFallbackUsed, fmt.Sprintf("cause %s, applying %s", cause, fb.Type), fb.Type)
	if _, err := o.Step(fb); err != nil {
		if IsRejected(err) {
			return corrupt(CodeVariantFailure, err, "fallback for player %d is illegal", p)
		}
		return err
	}
	return nil
}

func (o *Orchestrator) decide(ctx context.Context, p models.PlayerID, feedback string) (models.Action, bool) {
	ag := o.agents[p]
	obs := o.observe(p)
	obs.Feedback = feedback

	dctx, cancel := ctx, context.CancelFunc(func() {})
	if o.cfg.DecisionTimeout > 0 {
		dctx, cancel = context.WithTimeout(ctx, o.cfg.DecisionTimeout)
	}
	defer cancel()
	dctx, span := tracer.Start(dctx, "engine.decide")
	span.SetAttributes(
		attribute.Int("player", int(p)),
		attribute.String("phase", string(obs.Phase)),
		attribute.Int("round", obs.Round))
	defer span.End()

	a, err := o.act(dctx, ag, obs)
	if err == nil && dctx.Err() != nil && ctx.Err() == nil {
		err = fmt.Errorf("no decision within %s: %w", o.cfg.DecisionTimeout, dctx.Err())
	}
	if err != nil {
		code := ReasonAgentError
		if errors.Is(err, context.DeadlineExceeded) {
			code = ReasonDecisionTimeout
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		o.fail(p, code, err.Error(), "")
		return models.Action{}, false
	}

	if a.Fallback() {
		o.fail(p, fmt.Sprint(a.Metadata["error_code"]), fmt.Sprint(a.Metadata["error"]), a.Type)
	}
	if r, ok := a.Metadata["reasoning"].(string); ok && r != "" {
		o.note(models.EventAgentReasoning, p, true, map[string]any{"reasoning": r, "phase": string(obs.Phase)})
	}
	if u, ok := a.Metadata["usage"]; ok {
		o.note(models.EventLLMCall, p, false, map[string]any{"usage": u, "model": a.Metadata["model"]})
	}
	o.log.Debug("decision",
		zap.String("game_id", o.state.GameID),
		zap.Int("player", int(p)),
		zap.String("action", string(a.Type)))
	return a, true
}

func (o *Orchestrator) act(ctx context.Context, ag agent.Agent, obs models.Observation) (a models.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %q panicked: %v", ag.Name(), r)
		}
	}()
	return ag.Act(ctx, obs)
}

func (o *Orchestrator) fallback(p models.PlayerID) models.Action {
	var a models.Action
	if o.spec().Discussion {
		a = models.Action{Type: models.ActionPass}
	} else {
		a = o.variant.Fallback(o.state, p)
	}
	a.Player = p
	a.Metadata = map[string]any{"fallback": true}
	return a
}

func (o *Orchestrator) fail(p models.PlayerID, code, reason string, t models.ActionType) {
	o.log.Error("decision failed",
		zap.String("game_id", o.state.GameID),
		zap.Int("player", int(p)),
		zap.String("code", code),
		zap.String("action", string(t)),
		zap.String("reason", reason))
	o.note(models.EventError, p, false, map[string]any{
		"code":        code,
		"reason":      reason,
		"action_type": string(t),
		"phase":       string(o.state.Phase),
	})
}

// note records an event without notifying anyone.
func (o *Orchestrator) note(t models.EventType, p models.PlayerID, private bool, data map[string]any) {
	o.record.Log(t, data, &p, private)
}

// check is the full validation Step applies: turn and type legality, then
// the option's target and payload shape, then the variant's own checks.
func (o *Orchestrator) check(a models.Action) error {
	if err := o.checkTurn(a); err != nil {
		return err
	}
	opts := o.options(a.Player)
	opt := opts[slices.IndexFunc(opts, func(opt models.Option) bool { return opt.Type == a.Type })]
	if !opt.Allows(a) {
		if len(opt.Targets) > 0 && (a.Target == nil || !slices.Contains(opt.Targets, *a.Target)) {
			return Reject(a, CodeInvalidTarget, "target must be one of %v", opt.Targets)
		}
		if len(opt.Choices) > 0 {
			return Reject(a, CodeInvalidPayload, "%s must be one of %v", opt.Field, opt.Choices)
		}
		return Reject(a, CodeInvalidPayload, "%s is required", opt.Field)
	}
	if o.spec().Discussion {
		return nil
	}
	if err := o.variant.Validate(o.state, a); err != nil {
		var rej *ActionRejected
		if errors.As(err, &rej) {
			return rej
		}
		return Reject(a, CodeInvalidPayload, "%v", err)
	}
	return nil
}

// checkTurn decides type-level legality: the game is running, a.Player is
// the alive current actor, and a.Type is among their options.
func (o *Orchestrator) checkTurn(a models.Action) error {
	s := o.state
	if s.Status != models.StatusOngoing {
		return Reject(a, CodeNotOngoing, "game is %s", s.Status)
	}
	if !s.Valid(a.Player) || !s.IsAlive(a.Player) {
		return Reject(a, CodeNotAlive, "player %d is not an alive player", a.Player)
	}
	if actor, ok := o.CurrentActor(); !ok || actor != a.Player {
		return Reject(a, CodeNotYourTurn, "waiting on player %d", actor)
	}
	if !slices.Contains(o.LegalActions(a.Player), a.Type) {
		return Reject(a, CodeIllegalActionType, "legal actions are %v", o.LegalActions(a.Player))
	}
	return nil
}

func (o *Orchestrator) apply(a models.Action) error {
	p := a.Player
	o.queue = o.queue[1:]
	if o.spec().Discussion {
		if a.Type == models.ActionSpeak {
			st := o.state.Say(p, a.String("statement"))
			o.emit(models.Event{Type: models.EventDiscussion, Player: &p, Data: map[string]any{
				"statement":        st.Text,
				"phase":            string(st.Phase),
				"discussion_round": o.discRound,
			}})
		} else {
			o.emit(models.Event{Type: models.EventPlayerAction, Player: &p, Data: map[string]any{
				"action_type":      string(a.Type),
				"discussion_round": o.discRound,
			}})
		}
		return nil
	}

	before := o.state.AlivePlayers()
	events, err := o.variant.Apply(o.state, a, o.rng)
	if err != nil {
		return corrupt(CodeVariantFailure, err, "apply %s by player %d", a.Type, p)
	}
	if err := o.checkAlive(before, fmt.Sprintf("apply %s", a.Type)); err != nil {
		return err
	}
	o.emit(events...)
	o.queue = slices.DeleteFunc(o.queue, func(q models.PlayerID) bool { return !o.state.IsAlive(q) })
	return nil
}

// settle advances phases until someone must act or the game is over.
func (o *Orchestrator) settle() error {
	for i := 0; ; i++ {
		if i > maxAdvances+o.cfg.DiscussionRounds {
			return corrupt(CodePhaseLoop, nil, "phase %s did not settle", o.state.Phase)
		}
		if o.finishIfDecided() || len(o.queue) > 0 {
			return nil
		}
		spec := o.spec()
		if spec.Discussion && o.discRound < o.discussionRounds(spec) {
			o.discRound++
			o.queue = o.buildQueue(spec)
			continue
		}

		from := o.state.Phase
		before := o.state.AlivePlayers()
		events, err := o.variant.Advance(o.state, o.rng)
		if err != nil {
			return corrupt(CodeVariantFailure, err, "advance from %s", from)
		}
		if err := o.checkAlive(before, fmt.Sprintf("advance from %s", from)); err != nil {
			return err
		}
		o.emit(events...)
		if o.finishIfDecided() {
			return nil
		}
		if o.state.Phase == o.phases[0].Phase && o.nextRound() {
			return nil
		}
		if err := o.enterPhase(from); err != nil {
			return err
		}
	}
}

// checkAlive verifies the alive set after the variant ran: every id names a
// seat, appears once, and was alive before unless revival is allowed.
func (o *Orchestrator) checkAlive(before []models.PlayerID, during string) error {
	s := o.state
	seen := make(map[models.PlayerID]bool, len(s.Alive))
	for _, p := range s.Alive {
		if !s.Valid(p) {
			return corrupt(CodeUnknownPlayer, nil, "%s: alive set holds player %d in a %d-seat game", during, p, s.NumPlayers)
		}
		if seen[p] {
			return corrupt(CodeUnknownPlayer, nil, "%s: player %d is listed alive twice", during, p)
		}
		seen[p] = true
		if !s.AllowRevival && !slices.Contains(before, p) {
			return corrupt(CodeRevival, nil, "%s: player %d came back without revival", during, p)
		}
	}
	return nil
}

func (o *Orchestrator) enterPhase(from models.Phase) error {
	spec, ok := o.specs[o.state.Phase]
	if !ok {
		return corrupt(CodeVariantFailure, nil, "unknown phase %q", o.state.Phase)
	}
	o.discRound = 1
	o.queue = o.buildQueue(spec)
	data := map[string]any{"from": string(from), "to": string(spec.Phase)}
	if spec.Solicit == SolicitAll || spec.Discussion {
		data["turn_order"] = slices.Clone(o.queue)
	}
	o.emit(models.Event{Type: models.EventPhaseChange, Data: data})
	return nil
}

func (o *Orchestrator) buildQueue(spec PhaseSpec) []models.PlayerID {
	s := o.state
	if spec.Solicit == SolicitActors && !spec.Discussion {
		return slices.DeleteFunc(slices.Clone(o.variant.Actors(s)), func(p models.PlayerID) bool { return !s.Valid(p) || !s.IsAlive(p) })
	}
	q := slices.DeleteFunc(s.AlivePlayers(), func(p models.PlayerID) bool { return !s.Valid(p) })
	if spec.Order == OrderShuffle {
		o.rng.Shuffle(len(q), func(i, j int) { q[i], q[j] = q[j], q[i] })
	}
	return q
}

func (o *Orchestrator) discussionRounds(spec PhaseSpec) int {
	if spec.Rounds > 0 {
		return spec.Rounds
	}
	return o.cfg.DiscussionRounds
}

// nextRound closes the current round and opens the next one. It reports
// whether the round cap ended the game instead.
func (o *Orchestrator) nextRound() bool {
	s := o.state
	o.emit(models.Event{Type: models.EventRoundEnd, Data: map[string]any{"round": s.Round}})
	if s.Round >= o.cfg.MaxRounds {
		o.finish(Outcome{Winner: "none", Reason: fmt.Sprintf("max rounds (%d) reached", o.cfg.MaxRounds)})
		return true
	}
	s.Round++
	s.Transcript = nil
	o.record.SetRound(s.Round)
	o.emit(models.Event{Type: models.EventRoundStart, Data: map[string]any{"round": s.Round}})
	return false
}

func (o *Orchestrator) finishIfDecided() bool {
	if o.state.Status == models.StatusEnded {
		return true
	}
	out, ok := o.variant.Outcome(o.state)
	if !ok {
		return false
	}
	o.finish(out)
	return true
}

func (o *Orchestrator) finish(out Outcome) {
	o.outcome = &out
	o.queue = nil
	if err := o.state.Transition(models.StatusEnded); err != nil {
		o.log.Warn("end game", zap.String("game_id", o.state.GameID), zap.Error(err))
	}
	o.emit(models.Event{Type: models.EventGameEnd, Data: map[string]any{
		"winner":  out.Winner,
		"winners": slices.Clone(out.Winners),
		"reason":  out.Reason,
		"rounds":  o.state.Round,
	}})
}

// emit records each event and delivers it to the relevant agents in roster
// order. A private event reaches its audience. A public one reaches every
// alive player and its subject, and GAME_END reaches everyone.
func (o *Orchestrator) emit(events ...models.Event) {
	for _, ev := range events {
		o.record.Log(ev.Type, ev.Data, ev.Player, ev.Private)
		for _, ag := range o.agents {
			if o.relevant(ev, ag.Player()) {
				o.deliver(ag, ev)
			}
		}
	}
}

func (o *Orchestrator) relevant(ev models.Event, p models.PlayerID) bool {
	if ev.Private {
		return slices.Contains(ev.Audience, p)
	}
	if ev.Type == models.EventGameEnd {
		return true
	}
	return o.state.IsAlive(p) || (ev.Player != nil && *ev.Player == p)
}

func (o *Orchestrator) deliver(ag agent.Agent, ev models.Event) {
	p := ag.Player()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("notify panicked",
				zap.String("game_id", o.state.GameID),
				zap.Int("player", int(p)),
				zap.String("event", string(ev.Type)),
				zap.Any("panic", r))
			o.note(models.EventError, p, false, map[string]any{
				"code":       ReasonNotifyFailed,
				"event_type": string(ev.Type),
				"reason":     fmt.Sprint(r),
			})
		}
	}()
	ev.Data = maps.Clone(ev.Data)
	ev.Audience = slices.Clone(ev.Audience)
	ag.Notify(ev)
}

func (o *Orchestrator) spec() PhaseSpec {
	return o.specs[o.state.Phase]
}

func (o *Orchestrator) options(p models.PlayerID) []models.Option {
	s := o.state
	if s == nil || s.Status != models.StatusOngoing || !s.IsAlive(p) {
		return nil
	}
	if actor, ok := o.CurrentActor(); !ok || actor != p {
		return nil
	}
	if o.spec().Discussion {
		return []models.Option{
			{Type: models.ActionSpeak, Field: "statement"},
			{Type: models.ActionPass},
		}
	}
	return o.variant.Options(s, p)
}

func (o *Orchestrator) observe(p models.PlayerID) models.Observation {
	s := o.state
	visible := func(v models.PlayerID, f models.Field) bool { return o.variant.Visible(s, v, f) }
	return models.Observation{
		Player:     p,
		Status:     s.Status,
		Phase:      s.Phase,
		Round:      s.Round,
		Alive:      s.AlivePlayers(),
		Data:       s.Observe(p, o.variant.Fields(s), visible),
		Legal:      o.options(p),
		Transcript: slices.Clone(s.Transcript),
	}
}

func (o *Orchestrator) observations() map[models.PlayerID]models.Observation {
	out := make(map[models.PlayerID]models.Observation, len(o.agents))
	for _, ag := range o.agents {
		out[ag.Player()] = o.observe(ag.Player())
	}
	return out
}

// Observation rebuilds p's filtered view of the current state.
func (o *Orchestrator) Observation(p models.PlayerID) (models.Observation, error) {
	if o.state == nil {
		return models.Observation{}, ErrNotReset
	}
	if !o.state.Valid(p) {
		return models.Observation{}, fmt.Errorf("observation for %d: %w", p, models.ErrUnknownPlayer)
	}
	return o.observe(p), nil
}

// LegalActions lists the action types p may submit now. It is empty for
// anyone but the current actor.
func (o *Orchestrator) LegalActions(p models.PlayerID) []models.ActionType {
	opts := o.options(p)
	out := make([]models.ActionType, 0, len(opts))
	for _, opt := range opts {
		out = append(out, opt.Type)
	}
	return out
}

// IsActionLegal reports whether a.Type is legal for a.Player right now. It
// agrees with LegalActions; Step additionally validates target and payload.
func (o *Orchestrator) IsActionLegal(a models.Action) bool {
	return o.state != nil && o.checkTurn(a) == nil
}

// CurrentActor is the player whose decision is pending.
func (o *Orchestrator) CurrentActor() (models.PlayerID, bool) {
	if o.state == nil || o.state.Status != models.StatusOngoing || len(o.queue) == 0 {
		return -1, false
	}
	return o.queue[0], true
}

// State returns a snapshot of the game state. Ext is shared with the live
// state and must be treated as read-only.
func (o *Orchestrator) State() models.GameState {
	if o.state == nil {
		return models.GameState{}
	}
	s := *o.state
	s.Alive = slices.Clone(o.state.Alive)
	s.Transcript = slices.Clone(o.state.Transcript)
	return s
}

func (o *Orchestrator) Record() *gamelog.Logger {
	return o.record
}

// Result summarizes the game so far. Winner is empty until the game ends.
func (o *Orchestrator) Result() models.GameResult {
	s := o.state
	if s == nil {
		return models.GameResult{}
	}
	var out Outcome
	if o.outcome != nil {
		out = *o.outcome
	}
	stats := o.variant.Stats(s, out)
	if stats == nil {
		stats = make(map[models.PlayerID]map[string]any)
	}
	for _, ag := range o.agents {
		m := stats[ag.Player()]
		if m == nil {
			m = make(map[string]any)
			stats[ag.Player()] = m
		}
		m["agent"] = ag.Name()
		if sr, ok := ag.(agent.StatsReporter); ok {
			for k, v := range sr.Stats() {
				if _, exists := m[k]; !exists {
					m[k] = v
				}
			}
		}
	}
	return models.GameResult{
		GameID:          s.GameID,
		Variant:         o.variant.Name(),
		Seed:            o.cfg.Seed,
		Winner:          out.Winner,
		Winners:         slices.Clone(out.Winners),
		WinReason:       out.Reason,
		NumRounds:       s.Round,
		DurationSeconds: o.now().Sub(o.started).Seconds(),
		PlayerStats:     stats,
	}
}
