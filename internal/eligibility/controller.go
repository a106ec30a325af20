// Package eligibility drives the whitelist check for one visitor: it
// validates input, queries the record store, asks the oracle for a reading
// and keeps exactly one current Outcome.
//
// Actions may overlap. Each accepted action takes a new sequence number and
// cancels the one in flight; only the holder of the latest number may
// publish, so the last accepted action always decides the outcome.
package eligibility

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/doodleleagues/whitelist_checker/internal/identifier"
	"github.com/doodleleagues/whitelist_checker/internal/metrics"
)

// Controller owns one visitor's eligibility state machine.
type Controller struct {
	store     RecordStore
	oracle    Generator
	pace      Pacer
	logger    *slog.Logger
	onPublish func(Snapshot)
	now       func() time.Time

	mu         sync.Mutex
	seq        uint64
	cancel     context.CancelFunc
	outcome    Outcome
	remembered string
}

// Option configures a Controller.
type Option func(*Controller)

// WithPacer sets the reveal delay used before eligible and not eligible outcomes.
func WithPacer(p Pacer) Option {
	return func(c *Controller) { c.pace = p }
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOnPublish registers fn to receive every published state. fn runs with
// the controller lock held and must not call back into the controller.
func WithOnPublish(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onPublish = fn }
}

// WithSnapshot restores a previously published state. A snapshot taken while
// checking restores as idle, since nothing is in flight any more.
func WithSnapshot(s Snapshot) Option {
	return func(c *Controller) {
		c.outcome = s.Outcome
		c.remembered = s.RememberedUsername
		if c.outcome.Status == "" || c.outcome.Status == StatusChecking {
			c.outcome = Outcome{Status: StatusIdle, At: s.Outcome.At}
		}
	}
}

// New builds a controller in the idle state.
func New(store RecordStore, oracle Generator, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		oracle: oracle,
		pace:   NoDelay,
		logger: slog.Default(),
		now:    time.Now,
	}
	c.outcome = Outcome{Status: StatusIdle, At: c.now().UTC()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outcome returns the current outcome.
func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Snapshot returns the current outcome and remembered username.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// AwaitingWallet reports whether a wallet submission would be accepted.
func (c *Controller) AwaitingWallet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remembered != ""
}

// CheckEligibility runs a check for rawInput and returns the outcome current
// when it finishes. If a later action superseded this one, that is the later
// action's outcome.
func (c *Controller) CheckEligibility(ctx context.Context, rawInput string) Outcome {
	if identifier.TooShort(rawInput) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.supersedeLocked()
		c.remembered = ""
		c.setLocked(Outcome{Status: StatusError, Message: MessageTypeSomething})
		return c.outcome
	}

	c.mu.Lock()
	actx, seq := c.beginLocked(ctx)
	c.remembered = ""
	c.setLocked(Outcome{Status: StatusChecking})
	c.mu.Unlock()

	id := identifier.Parse(rawInput)
	res := c.store.Lookup(actx, id.Normalized, id.Field)
	if !c.isCurrent(seq) {
		return c.Outcome()
	}

	if res.Found && id.Shape == identifier.ShapeUsername && res.Record != nil && !res.Record.Complete() {
		username := res.Record.UsernameOrEmpty()
		if username == "" {
			username = id.Normalized
		}
		c.logger.Info("whitelisted username without wallet", slog.String("username", username))
		return c.publish(seq, Outcome{
			Status:  StatusMissingWallet,
			Message: fmt.Sprintf(missingWalletFormat, username),
		}, func() { c.remembered = username })
	}

	reading := c.oracle.Generate(actx, id.Raw, res.Found)
	if !c.isCurrent(seq) {
		return c.Outcome()
	}
	c.pace(actx)

	status := StatusNotEligible
	if res.Found {
		status = StatusEligible
	}
	return c.publish(seq, Outcome{Status: status, Reading: reading}, nil)
}

// SubmitWallet links rawWallet to the username remembered by the last check.
// Without a remembered username it changes nothing.
func (c *Controller) SubmitWallet(ctx context.Context, rawWallet string) Outcome {
	trimmed := strings.TrimSpace(rawWallet)

	c.mu.Lock()
	if !identifier.IsWallet(trimmed) {
		defer c.mu.Unlock()
		c.supersedeLocked()
		c.setLocked(Outcome{Status: StatusError, Message: MessageInvalidWallet})
		return c.outcome
	}
	username := c.remembered
	if username == "" {
		defer c.mu.Unlock()
		return c.outcome
	}
	actx, seq := c.beginLocked(ctx)
	c.setLocked(Outcome{Status: StatusChecking})
	c.mu.Unlock()

	res := c.store.UpdateWallet(actx, username, identifier.NormalizeWallet(trimmed))
	if !c.isCurrent(seq) {
		return c.Outcome()
	}
	if !res.Success {
		reason := res.Message
		if reason == "" {
			reason = unknownError
		}
		return c.publish(seq, Outcome{
			Status:  StatusError,
			Message: fmt.Sprintf(updateFailedFormat, reason),
		}, nil)
	}

	reading := c.oracle.Generate(actx, trimmed, true)
	return c.publish(seq, Outcome{Status: StatusEligible, Reading: reading}, func() { c.remembered = "" })
}

// Close cancels any action in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
}

func (c *Controller) isCurrent(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq == seq
}

// beginLocked starts a new action, cancelling the previous one.
func (c *Controller) beginLocked(ctx context.Context) (context.Context, uint64) {
	c.supersedeLocked()
	actx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return actx, c.seq
}

func (c *Controller) supersedeLocked() {
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// publish sets the outcome of action seq unless a newer action exists, and
// returns the outcome current afterwards.
func (c *Controller) publish(seq uint64, o Outcome, mutate func()) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		metrics.StaleOutcomesTotal.Inc()
		return c.outcome
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if mutate != nil {
		mutate()
	}
	c.setLocked(o)
	return c.outcome
}

func (c *Controller) setLocked(o Outcome) {
	o.At = c.now().UTC()
	c.outcome = o
	metrics.OutcomesTotal.WithLabelValues(string(o.Status)).Inc()
	if c.onPublish != nil {
		c.onPublish(c.snapshotLocked())
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Outcome: c.outcome, RememberedUsername: c.remembered}
}
