package simulator

import (
	"log"
	"math/rand"
	"time"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/idempotency"
)

// Default tuning for the simulated service.
const (
	DefaultRetryAfter = 1000 * time.Millisecond
	DefaultMinDelay   = 5000 * time.Millisecond
	DefaultMaxDelay   = 10000 * time.Millisecond
)

// ResultKind classifies what the handler should answer.
type ResultKind int

const (
	// ResultSuccess maps to 200, first-time or idempotent replay.
	ResultSuccess ResultKind = iota
	// ResultTransient maps to 503 with a retry-after hint.
	ResultTransient
	// ResultDelayed maps to 202 with an estimated completion delay.
	ResultDelayed
)

// Result is the simulator's answer for one submission attempt.
type Result struct {
	Kind           ResultKind
	Record         idempotency.Record
	RetryAfter     time.Duration // set for ResultTransient
	EstimatedDelay time.Duration // set for ResultDelayed
}

// Simulator decides, per idempotency key, whether a submission succeeds
// immediately, fails transiently, or completes asynchronously. It owns the
// asynchronous completion timer for delayed outcomes.
type Simulator struct {
	store      idempotency.Store
	decide     Decider
	delay      DelayFunc
	retryAfter time.Duration
	nowFunc    func() time.Time
	afterFunc  func(time.Duration, func()) *time.Timer
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithDecider replaces the random outcome draw, letting tests force a branch.
func WithDecider(d Decider) Option {
	return func(s *Simulator) { s.decide = d }
}

// WithDelayFunc replaces the random completion-delay draw.
func WithDelayFunc(d DelayFunc) Option {
	return func(s *Simulator) { s.delay = d }
}

// WithRetryAfter sets the retry-after hint returned on transient failures.
func WithRetryAfter(d time.Duration) Option {
	return func(s *Simulator) { s.retryAfter = d }
}

// WithClock replaces the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.nowFunc = now }
}

// WithAfterFunc replaces the completion timer, letting tests fire it by hand.
func WithAfterFunc(after func(time.Duration, func()) *time.Timer) Option {
	return func(s *Simulator) { s.afterFunc = after }
}

// New returns a Simulator backed by the given store. Defaults draw outcomes
// uniformly over the three classes and delays uniformly over 5–10 s.
func New(store idempotency.Store, opts ...Option) *Simulator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &Simulator{
		store:      store,
		decide:     RandomDecider(rng),
		delay:      UniformDelay(rng, DefaultMinDelay, DefaultMaxDelay),
		retryAfter: DefaultRetryAfter,
		nowFunc:    time.Now,
		afterFunc:  time.AfterFunc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit handles one attempt for the given idempotency key.
//
// A key that already completed replays the stored success record — the
// result is indistinguishable from a first-time success. Otherwise the key
// is recorded as pending and one outcome class is drawn. Transient failures
// do not consume the key: the next attempt with the same key draws again.
func (s *Simulator) Submit(requestID, email string, amount float64) Result {
	if rec, ok := s.store.Get(requestID); ok && rec.Terminal() {
		log.Printf("[simulator] replaying success for request=%s", requestID)
		return Result{Kind: ResultSuccess, Record: rec}
	}

	rec := s.store.PutPending(requestID, email, amount)
	if rec.Terminal() {
		// Completion timer won the race against this write.
		return Result{Kind: ResultSuccess, Record: rec}
	}

	switch s.decide() {
	case OutcomeSuccess:
		done, _ := s.store.MarkSuccess(requestID, s.nowFunc())
		return Result{Kind: ResultSuccess, Record: done}

	case OutcomeTransient:
		return Result{Kind: ResultTransient, Record: rec, RetryAfter: s.retryAfter}

	default:
		delay := s.delay()
		s.afterFunc(delay, func() {
			if done, ok := s.store.MarkSuccess(requestID, s.nowFunc()); ok {
				log.Printf("[simulator] completed request=%s at %s", requestID, done.Timestamp.Format(time.RFC3339))
			}
		})
		return Result{Kind: ResultDelayed, Record: rec, EstimatedDelay: delay}
	}
}

// Status returns the current record for the key.
func (s *Simulator) Status(requestID string) (idempotency.Record, bool) {
	return s.store.Get(requestID)
}
