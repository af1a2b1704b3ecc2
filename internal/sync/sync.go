// Package sync fetches authoritative server state and merges it into the
// app, guaranteeing that only the latest attempt's results ever apply.
//
// A sync attempt is keyed by (user, viewed date, effective goal). Issuing
// a new attempt cancels the previous one; a cancelled attempt's responses
// are discarded at merge time, not at request time, so there is no window
// where stale data can land after fresher data.
//
// Each attempt runs two independent fetches, stats and day ledger. The
// halves merge independently: a stats failure does not discard a ledger
// that arrived intact. (All-or-nothing would just throw away good data.)
//
// Attempt lifecycle: Pending -> Success | Cancelled | Failed. Terminal
// states never change. Cancelled means superseded; Failed means at least
// one half hit a real error; Success means both halves merged.
//
// INVARIANTS:
//   - At most one attempt's results merge per issue; older attempts are
//     recognized by attempt number, never by timing.
//   - A cancelled fetch is silent: no error surfaced, no offline flip.
//   - A guest-keyed attempt is refused outright once an authenticated
//     attempt has merged (identity never regresses mid-session).
package sync

import (
	"context"
	"errors"
	"log/slog"
	stdsync "sync"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/identity"
	"github.com/roach88/sipstream/internal/waterlog"
)

// DefaultStatsDays is the trailing window requested from the stats
// endpoint.
const DefaultStatsDays = 30

// Key identifies what an attempt fetches. EffectiveGoal rides along
// because the backend computes the streak against it.
type Key struct {
	UserID        string
	Date          string
	EffectiveGoal int
}

// State is an attempt's lifecycle state.
type State int32

const (
	Pending State = iota
	Success
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Success:
		return "SUCCESS"
	case Cancelled:
		return "CANCELLED"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Attempt is one issued sync. Done unblocks when both halves have
// finished (merged or discarded); State is terminal by then.
type Attempt struct {
	ID  int64
	Key Key

	mu      stdsync.Mutex
	state   State
	pending int
	failed  bool
	done    chan struct{}
}

// State returns the attempt's current lifecycle state.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Done returns a channel closed when both halves have finished.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Coordinator issues and merges sync attempts. Create with New.
type Coordinator struct {
	client    *api.Client
	statsDays int

	onStats  func(Key, waterlog.Stats)
	onLedger func(Key, waterlog.DayLedger)
	onOnline func(bool)

	mu       stdsync.Mutex
	clock    Clock
	cancel   context.CancelFunc
	current  *Attempt
	authSeen bool

	// applyMu spans staleness check plus apply so a superseding attempt
	// cannot slip its merge between the two.
	applyMu stdsync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStatsDays overrides DefaultStatsDays.
func WithStatsDays(days int) Option {
	return func(c *Coordinator) { c.statsDays = days }
}

// WithConnectivity registers a callback for online/offline transitions.
func WithConnectivity(fn func(bool)) Option {
	return func(c *Coordinator) { c.onOnline = fn }
}

// New builds a coordinator. onStats and onLedger receive merged
// authoritative state, tagged with the attempt key; they are invoked
// outside the coordinator lock (but serialized per concern).
func New(client *api.Client, onStats func(Key, waterlog.Stats), onLedger func(Key, waterlog.DayLedger), opts ...Option) *Coordinator {
	c := &Coordinator{
		client:    client,
		statsDays: DefaultStatsDays,
		onStats:   onStats,
		onLedger:  onLedger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Sync issues a new attempt for key, superseding whatever attempt is in
// flight. Returns nil when the attempt is refused (guest key after an
// authenticated merge).
func (c *Coordinator) Sync(ctx context.Context, key Key) *Attempt {
	c.mu.Lock()
	if key.UserID == identity.GuestID && c.authSeen {
		c.mu.Unlock()
		slog.Warn("refusing guest sync after authenticated state", "date", key.Date)
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	if c.current != nil {
		c.current.supersede()
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	a := &Attempt{
		ID:      c.clock.Next(),
		Key:     key,
		pending: 2,
		done:    make(chan struct{}),
	}
	c.current = a
	c.mu.Unlock()

	go c.fetchStats(ctx, a)
	go c.fetchLedger(ctx, a)
	return a
}

func (c *Coordinator) fetchStats(ctx context.Context, a *Attempt) {
	stats, err := c.client.Stats(ctx, a.Key.UserID, c.statsDays, a.Key.EffectiveGoal)
	c.merge(a, err, func() {
		c.onStats(a.Key, stats)
	})
}

func (c *Coordinator) fetchLedger(ctx context.Context, a *Attempt) {
	day, err := c.client.DayLedger(ctx, a.Key.UserID, a.Key.Date)
	c.merge(a, err, func() {
		c.onLedger(a.Key, day)
	})
}

// merge applies one half's result. Stale and cancelled halves are dropped
// silently; real failures keep last-known-good state and flip offline.
func (c *Coordinator) merge(a *Attempt, err error, apply func()) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	stale := c.current == nil || c.current.ID != a.ID

	switch {
	case stale || errors.Is(err, context.Canceled):
		c.mu.Unlock()
		a.finishPart(true, false)
		return
	case err != nil:
		c.mu.Unlock()
		slog.Warn("sync fetch failed, keeping last known state",
			"user", a.Key.UserID, "date", a.Key.Date, "err", err)
		if c.onOnline != nil {
			c.onOnline(false)
		}
		a.finishPart(false, true)
		return
	}

	if a.Key.UserID != identity.GuestID {
		c.authSeen = true
	}
	c.mu.Unlock()

	apply()
	if c.onOnline != nil {
		c.onOnline(true)
	}
	a.finishPart(false, false)
}

// supersede marks the attempt cancelled. Its in-flight fetches observe
// the context cancellation and finish as dropped halves.
func (a *Attempt) supersede() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Pending {
		a.state = Cancelled
	}
}

func (a *Attempt) finishPart(cancelled, failed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cancelled && a.state == Pending {
		a.state = Cancelled
	}
	if failed {
		a.failed = true
	}
	a.pending--
	if a.pending == 0 {
		if a.state == Pending {
			if a.failed {
				a.state = Failed
			} else {
				a.state = Success
			}
		}
		close(a.done)
	}
}
