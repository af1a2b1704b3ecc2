// Package goalsync pushes effective-goal changes to the backend.
//
// Goal edits arrive in bursts (a user tapping condition chips), so pushes
// for today are debounced through a single slot: a new change while a push
// is pending replaces the pending value, and only the final value is sent.
// Historical corrections bypass the debounce entirely but share the same
// push lock, so a today-push can never interleave with a correction for
// the same date.
//
// INVARIANTS:
//   - Only today's goal is ever pushed by GoalChanged; if the day rolls
//     over while a push is pending, the push is dropped.
//   - At most one pending push exists at a time.
package goalsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/waterlog"
)

// DefaultDebounce is the settle time before a goal change is pushed.
const DefaultDebounce = 500 * time.Millisecond

// Agent debounces and serializes goal pushes.
type Agent struct {
	client   *api.Client
	debounce time.Duration
	now      func() time.Time

	onPushed func(date string, goal int)
	onOnline func(bool)

	mu      sync.Mutex
	timer   *time.Timer
	pending struct {
		userID, date string
		goal         int
	}

	// pushMu serializes every remote goal write, debounced or not.
	pushMu sync.Mutex
}

// Option configures an Agent.
type Option func(*Agent)

// WithDebounce overrides DefaultDebounce (tests use a short window).
func WithDebounce(d time.Duration) Option {
	return func(a *Agent) { a.debounce = d }
}

// WithClock substitutes the wall clock.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// WithPushed registers a callback invoked after a successful push. The
// app uses it to refresh the streak, which the backend derives from
// stored goals.
func WithPushed(fn func(date string, goal int)) Option {
	return func(a *Agent) { a.onPushed = fn }
}

// WithConnectivity registers a callback for online/offline transitions.
func WithConnectivity(fn func(bool)) Option {
	return func(a *Agent) { a.onOnline = fn }
}

// New builds an agent.
func New(client *api.Client, opts ...Option) *Agent {
	a := &Agent{client: client, debounce: DefaultDebounce, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// GoalChanged schedules a push of today's effective goal. Changes for any
// other date are ignored; callers correct past days through PushNow. A
// pending push is replaced, not queued.
func (a *Agent) GoalChanged(userID string, date string, effectiveGoal int) {
	if date != waterlog.Day(a.now()) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending.userID, a.pending.date, a.pending.goal = userID, date, effectiveGoal
	a.timer = time.AfterFunc(a.debounce, func() {
		// Re-check at fire time: if midnight passed, this push belongs
		// to a day that is no longer today.
		if date != waterlog.Day(a.now()) {
			slog.Warn("dropping goal push across day rollover", "date", date)
			return
		}
		a.push(userID, date, effectiveGoal)
	})
}

// Flush runs any pending debounced push synchronously. One-shot CLI
// commands call this before exiting.
func (a *Agent) Flush() {
	a.mu.Lock()
	if a.timer == nil || !a.timer.Stop() {
		a.mu.Unlock()
		return
	}
	p := a.pending
	a.timer = nil
	a.mu.Unlock()

	if p.date == waterlog.Day(a.now()) {
		a.push(p.userID, p.date, p.goal)
	}
}

// PushNow writes a goal snapshot for the given date synchronously,
// serialized against any debounced push. Used for historical corrections
// and for today-corrections that must not wait out the debounce.
func (a *Agent) PushNow(ctx context.Context, userID, date string, goal int) error {
	a.pushMu.Lock()
	defer a.pushMu.Unlock()
	if err := a.client.UpsertGoal(ctx, userID, date, goal); err != nil {
		a.setOnline(false)
		return err
	}
	a.setOnline(true)
	if a.onPushed != nil {
		a.onPushed(date, goal)
	}
	return nil
}

func (a *Agent) push(userID, date string, goal int) {
	ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
	defer cancel()
	if err := a.PushNow(ctx, userID, date, goal); err != nil {
		slog.Warn("goal push failed", "date", date, "goal", goal, "err", err)
	}
}

func (a *Agent) setOnline(online bool) {
	if a.onOnline != nil {
		a.onOnline(online)
	}
}
