// Package simulator runs one simulated client conversation against an email counterpart.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/janhq/client-sim/internal/domain/analytics"
	"github.com/janhq/client-sim/internal/domain/conversation"
	"github.com/janhq/client-sim/internal/domain/retry"
)

var (
	// ErrRetriesExhausted is returned when sending or polling kept failing past its cap.
	ErrRetriesExhausted = retry.ErrRetriesExhausted
	// ErrNoReply is returned when MaxIdlePolls polls in a row found nothing.
	ErrNoReply = errors.New("counterpart stopped replying")
	// ErrAlreadyStarted is returned by a second Run on the same orchestrator.
	ErrAlreadyStarted = errors.New("conversation already started")
)

// Email kinds passed to Recorder.EmailSent.
const (
	KindInitial  = "initial"
	KindReply    = "reply"
	KindFollowUp = "follow_up"
)

// Settings is the immutable run configuration.
type Settings struct {
	Brief           conversation.Brief
	To              string
	Subject         string
	MessageIDDomain string

	PollInterval    time.Duration
	MaxRounds       int
	Retry           retry.Policy
	MaxPollFailures int
	// MaxIdlePolls ends the run after that many empty polls in a row. 0 waits forever.
	MaxIdlePolls int

	FollowUpProbability float64
	FollowUpMinRounds   int
	FollowUpDelayMin    time.Duration
	FollowUpDelayMax    time.Duration
}

// DefaultSettings returns the timing the simulator normally runs with.
func DefaultSettings() Settings {
	return Settings{
		Subject:             "Trip Planning Request",
		MessageIDDomain:     "wandero-simulator",
		PollInterval:        120 * time.Second,
		MaxRounds:           50,
		Retry:               retry.DefaultPolicy(),
		MaxPollFailures:     10,
		FollowUpProbability: 0.15,
		FollowUpMinRounds:   2,
		FollowUpDelayMin:    60 * time.Second,
		FollowUpDelayMax:    180 * time.Second,
	}
}

// Result is what a finished run leaves behind.
type Result struct {
	ConversationID string            `json:"conversation_id"`
	Rounds         int               `json:"rounds"`
	Summary        analytics.Summary `json:"summary"`
	Report         string            `json:"-"`
}

// Status is a point-in-time view of a running conversation.
type Status struct {
	ConversationID string    `json:"id"`
	State          State     `json:"state"`
	Round          int       `json:"round"`
	MaxRounds      int       `json:"max_rounds"`
	StartedAt      time.Time `json:"started_at"`
	LastError      string    `json:"last_error,omitempty"`
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Orchestrator drives one conversation. Run is called once; the accessors are safe to
// call from other goroutines while it runs.
type Orchestrator struct {
	settings  Settings
	transport Transport
	generator Generator
	log       zerolog.Logger
	recorder  Recorder
	tracer    RoundTracer
	redact    func(string) string
	redactTo  func(string) string
	now       func() time.Time
	sleep     SleepFunc
	rand      func() float64
	signals   []analytics.Signal

	id        string
	startedAt time.Time
	history   *conversation.History
	ledger    *analytics.Ledger
	scorer    *analytics.Scorer

	mu      sync.RWMutex
	state   State
	rounds  int
	marker  Marker
	started bool
	stopped bool
	cancel  context.CancelFunc
	lastErr error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithRoundTracer wraps every round in a trace span.
func WithRoundTracer(t RoundTracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRedactor filters email bodies before they reach the logs.
func WithRedactor(fn func(string) string) Option {
	return func(o *Orchestrator) { o.redact = fn }
}

// WithAddressRedactor filters email addresses before they reach the logs.
func WithAddressRedactor(fn func(string) string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.redactTo = fn
		}
	}
}

// WithClock replaces time.Now for history timestamps and the ledger.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSleep replaces the context-aware timer used between polls.
func WithSleep(fn SleepFunc) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// WithRand replaces the [0,1) source used for follow-up decisions.
func WithRand(fn func() float64) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.rand = fn
		}
	}
}

// WithSignals replaces the scorer's signal set.
func WithSignals(signals []analytics.Signal) Option {
	return func(o *Orchestrator) { o.signals = signals }
}

// WithID sets the conversation id instead of generating a ULID.
func WithID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.id = id
		}
	}
}

// NewID returns a fresh conversation id.
func NewID() string {
	return ulid.Make().String()
}

// New creates an orchestrator owning a fresh history and ledger.
func New(settings Settings, transport Transport, generator Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings:  settings,
		transport: transport,
		generator: generator,
		log:       zerolog.Nop(),
		recorder:  nopRecorder{},
		tracer:    nopTracer{},
		redact:    func(s string) string { return s },
		redactTo:  func(s string) string { return s },
		now:       time.Now,
		sleep:     Sleep,
		rand:      rand.Float64,
		id:        NewID(),
		history:   conversation.NewHistory(),
		state:     StateAwaitingInitialSend,
	}
	for _, opt := range opts {
		opt(o)
	}
	ledgerOpts := []analytics.Option{analytics.WithClock(o.now)}
	if o.signals != nil {
		ledgerOpts = append(ledgerOpts, analytics.WithSignals(o.signals))
	}
	o.ledger = analytics.NewLedger(ledgerOpts...)
	o.scorer = analytics.NewScorer(o.ledger)
	o.startedAt = o.now()
	o.log = o.log.With().
		Str("component", "simulator").
		Str("conversation_id", o.id).
		Logger()
	return o
}

// Sleep waits for d unless ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ID returns the conversation id.
func (o *Orchestrator) ID() string { return o.id }

// Ledger exposes the conversation's analytics.
func (o *Orchestrator) Ledger() *analytics.Ledger { return o.ledger }

// History returns a copy of the messages exchanged so far.
func (o *Orchestrator) History() []conversation.Message { return o.history.Messages() }

// Summary snapshots the analytics.
func (o *Orchestrator) Summary() analytics.Summary { return o.ledger.Summary() }

// Status reports the current state and round.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := Status{
		ConversationID: o.id,
		State:          o.state,
		Round:          o.rounds,
		MaxRounds:      o.settings.MaxRounds,
		StartedAt:      o.startedAt,
	}
	if o.lastErr != nil {
		s.LastError = o.lastErr.Error()
	}
	return s
}

// Rounds returns the number of completed receive/reply cycles.
func (o *Orchestrator) Rounds() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rounds
}

// Stop asks a running conversation to end at its next wait point. Calling it before
// Run makes Run return immediately.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
}

// Run drives the conversation until MaxRounds, a terminal error, or ctx is done. The
// result carries the final report in every case.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	o.started = true
	o.cancel = cancel
	if o.stopped {
		cancel()
	}
	o.mu.Unlock()

	o.log.Info().
		Str("to", o.redactTo(o.settings.To)).
		Str("company", o.settings.Brief.CompanyName).
		Str("country", o.settings.Brief.Country).
		Int("max_rounds", o.settings.MaxRounds).
		Msg("starting conversation")

	err := o.run(ctx)

	o.mu.Lock()
	o.state = StateTerminated
	o.lastErr = err
	rounds := o.rounds
	o.mu.Unlock()

	result := &Result{
		ConversationID: o.id,
		Rounds:         rounds,
		Summary:        o.ledger.Summary(),
		Report:         o.ledger.Report(o.settings.Brief.Counterpart()),
	}

	event := o.log.Info()
	if err != nil && !errors.Is(err, context.Canceled) {
		event = o.log.Error().Err(err)
	}
	event.
		Int("rounds", rounds).
		Float64("score", result.Summary.Score).
		Msg("conversation completed")
	return result, err
}

func (o *Orchestrator) run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.sendInitial(ctx); err != nil {
		return err
	}
	for o.Rounds() < o.settings.MaxRounds {
		inbound, err := o.awaitReply(ctx)
		if err != nil {
			return err
		}

		round := o.Rounds() + 1
		roundCtx, end := o.tracer.StartRound(ctx, round)
		err = o.reply(roundCtx, inbound)
		end(err)
		if err != nil {
			return err
		}

		o.maybeFollowUp(ctx)
	}
	return nil
}

func (o *Orchestrator) sendInitial(ctx context.Context) error {
	body := o.generator.Initial(ctx, o.settings.Brief)
	if err := o.send(ctx, KindInitial, body, o.settings.Retry); err != nil {
		return err
	}
	o.progress("initial email sent")
	return o.transition(StateAwaitingReply)
}

// awaitReply polls until the counterpart's next email arrives.
func (o *Orchestrator) awaitReply(ctx context.Context) (*Inbound, error) {
	idle, failures := 0, 0
	for {
		if err := o.sleep(ctx, o.settings.PollInterval); err != nil {
			return nil, err
		}

		o.mu.RLock()
		since := o.marker
		o.mu.RUnlock()

		inbound, err := o.transport.Poll(ctx, since, o.settings.To)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failures++
			o.recorder.TransportFailure("poll")
			o.log.Warn().Err(err).Int("consecutive_failures", failures).Msg("poll failed")
			if failures > o.settings.MaxPollFailures {
				return nil, fmt.Errorf("poll: %w after %d attempts: %w", ErrRetriesExhausted, failures, err)
			}
		case inbound == nil:
			failures = 0
			idle++
			o.log.Debug().Int("idle_polls", idle).Msg("no new email")
			if o.settings.MaxIdlePolls > 0 && idle >= o.settings.MaxIdlePolls {
				return nil, ErrNoReply
			}
		default:
			o.receive(inbound)
			return inbound, nil
		}
	}
}

func (o *Orchestrator) receive(inbound *Inbound) {
	o.ledger.RecordReceived()
	o.recorder.EmailReceived()

	if elapsed, ok := o.ledger.RecordResponseTime(); ok {
		o.recorder.ResponseTime(elapsed)
		o.log.Info().Float64("response_minutes", elapsed/60).Msg("counterpart responded")
	}

	preceding := ""
	if msg, ok := o.history.LastClientMessage(); ok {
		preceding = msg.Body
	}
	o.scorer.Analyze(inbound.Body, preceding)

	if err := o.history.Append(conversation.Message{
		Sender:   conversation.SenderCounterpart,
		Body:     inbound.Body,
		SentAt:   o.now(),
		ThreadID: o.id,
	}); err != nil {
		o.log.Warn().Err(err).Msg("inbound email not added to history")
	}

	o.mu.Lock()
	if !inbound.Marker.IsZero() {
		o.marker = inbound.Marker
	}
	o.mu.Unlock()

	o.recorder.Score(o.ledger.Score())
	o.log.Info().
		Str("from", o.redactTo(inbound.From)).
		Str("body", o.redact(inbound.Body)).
		Msg("email received")
	o.progress("email received")
}

func (o *Orchestrator) reply(ctx context.Context, inbound *Inbound) error {
	if err := o.transition(StateReplying); err != nil {
		return err
	}

	latest, _ := o.history.Latest()
	body := o.generator.Reply(ctx, o.history.Messages(), latest)
	if err := o.send(ctx, KindReply, body, o.settings.Retry); err != nil {
		return err
	}

	o.mu.Lock()
	o.rounds++
	round := o.rounds
	o.mu.Unlock()

	o.recorder.RoundCompleted(round)
	o.progress("reply sent")
	return nil
}

// maybeFollowUp occasionally sends a short extra email. Any failure skips it.
func (o *Orchestrator) maybeFollowUp(ctx context.Context) {
	defer func() {
		if err := o.transition(StateAwaitingReply); err != nil {
			o.log.Debug().Err(err).Msg("state not reset after follow-up")
		}
	}()

	rounds := o.Rounds()
	if rounds <= o.settings.FollowUpMinRounds || rounds >= o.settings.MaxRounds {
		return
	}
	if o.rand() >= o.settings.FollowUpProbability {
		return
	}
	if err := o.transition(StateSendingFollowUp); err != nil {
		return
	}

	delay := o.followUpDelay()
	o.log.Debug().Dur("delay", delay).Msg("follow-up scheduled")
	if err := o.sleep(ctx, delay); err != nil {
		return
	}

	body, ok := o.generator.FollowUp(ctx, o.history.Messages())
	if !ok {
		o.log.Debug().Msg("no follow-up generated")
		return
	}
	if err := o.send(ctx, KindFollowUp, body, retry.NoRetryPolicy()); err != nil {
		o.log.Warn().Err(err).Msg("follow-up skipped")
	}
}

func (o *Orchestrator) followUpDelay() time.Duration {
	lo, hi := o.settings.FollowUpDelayMin, o.settings.FollowUpDelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(o.rand()*float64(hi-lo))
}

// send delivers body with the current threading headers and records it on success.
func (o *Orchestrator) send(ctx context.Context, kind, body string, policy retry.Policy) error {
	inReplyTo, references := o.ledger.Threading().Headers()
	msg := Outbound{
		Subject:    o.settings.Subject,
		Body:       body,
		To:         o.settings.To,
		MessageID:  o.newMessageID(),
		InReplyTo:  inReplyTo,
		References: references,
	}

	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		return o.transport.Send(ctx, msg)
	}, func(err error, attempt int, next time.Duration) {
		o.recorder.TransportFailure("send")
		o.log.Warn().
			Err(err).
			Str("kind", kind).
			Int("attempt", attempt+1).
			Dur("retry_in", next).
			Msg("send failed")
	})
	if err != nil {
		if errors.Is(err, ErrRetriesExhausted) {
			o.recorder.TransportFailure("send")
		}
		return fmt.Errorf("send %s email: %w", kind, err)
	}

	o.ledger.RecordSent(msg.MessageID)
	if err := o.history.Append(conversation.Message{
		Sender:   conversation.SenderClient,
		Body:     body,
		SentAt:   o.now(),
		ThreadID: o.id,
	}); err != nil {
		return fmt.Errorf("record %s email: %w", kind, err)
	}
	o.recorder.EmailSent(kind)
	o.log.Info().
		Str("kind", kind).
		Str("message_id", msg.MessageID).
		Str("body", o.redact(body)).
		Msg("email sent")
	return nil
}

func (o *Orchestrator) newMessageID() string {
	domain := o.settings.MessageIDDomain
	if domain == "" {
		domain = "localhost"
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

func (o *Orchestrator) transition(next State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == next {
		return nil
	}
	state, err := o.state.TransitionTo(next)
	if err != nil {
		return fmt.Errorf("%s -> %s: %w", o.state, next, err)
	}
	o.state = state
	return nil
}

func (o *Orchestrator) progress(msg string) {
	event := o.log.Info().
		Int("round", o.Rounds()).
		Int("sent", o.ledger.Sent()).
		Int("received", o.ledger.Received())
	if avg, ok := o.ledger.AverageResponseTime(); ok {
		event = event.
			Float64("avg_response_minutes", avg/60).
			Float64("score", o.ledger.Score())
	}
	event.Msg(msg)
}
