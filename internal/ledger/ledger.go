// Package ledger holds the in-memory day ledger and applies optimistic
// mutations against it.
//
// The ledger is the single source of truth for "what the user sees" on the
// viewed day. Mutations apply locally first and reconcile with the backend
// after:
//
//   - Add: the optimistic entry SURVIVES a remote failure. The drink was
//     consumed; losing the log because the network blinked is worse than a
//     temporary id. Guest-era failures are also appended to the store
//     backlog for later import.
//   - Delete: the removal ROLLS BACK on remote failure. A delete that the
//     backend never saw would resurrect on the next sync anyway; restoring
//     it immediately keeps local and remote views convergent.
//
// INVARIANTS:
//   - Total never goes below zero, no matter the mutation order.
//   - Deleting an absent id is a no-op, so replayed deletes are harmless.
//   - An authoritative Replace fully overwrites entries, total, and goal
//     snapshot; no local merge.
//   - A Reset invalidates in-flight reconciliations; their results are
//     dropped when they land.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/waterlog"
)

// ErrInvalidAmount rejects non-positive log amounts before any state
// changes.
var ErrInvalidAmount = errors.New("amount must be positive")

// Ledger is the mutable day view. All methods are safe for concurrent
// use; remote calls happen outside the lock.
type Ledger struct {
	client *api.Client

	now       func() time.Time
	onOnline  func(bool)
	onBacklog func(waterlog.Entry)

	mu           sync.Mutex
	epoch        int
	userID       string
	date         string
	entries      []waterlog.Entry
	total        int
	goalSnapshot int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock substitutes the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithConnectivity registers a callback for online/offline transitions
// observed during reconciliation.
func WithConnectivity(fn func(online bool)) Option {
	return func(l *Ledger) { l.onOnline = fn }
}

// WithBacklog registers a sink for guest-era entries whose upload failed.
func WithBacklog(fn func(waterlog.Entry)) Option {
	return func(l *Ledger) { l.onBacklog = fn }
}

// New builds an empty ledger bound to an API client.
func New(client *api.Client, opts ...Option) *Ledger {
	l := &Ledger{client: client, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Reset rebinds the ledger to a user-day and clears its contents. Any
// reconciliation still in flight for the previous binding is dropped when
// it completes.
func (l *Ledger) Reset(userID, date string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.userID = userID
	l.date = date
	l.entries = nil
	l.total = 0
	l.goalSnapshot = 0
}

// Replace installs an authoritative server view wholesale.
func (l *Ledger) Replace(d waterlog.DayLedger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replaceLocked(d)
}

func (l *Ledger) replaceLocked(d waterlog.DayLedger) {
	l.entries = append([]waterlog.Entry(nil), d.Entries...)
	l.total = max(0, d.Total)
	l.goalSnapshot = d.GoalSnapshot
}

// Snapshot returns a copy of the current entries with the running total
// and goal snapshot.
func (l *Ledger) Snapshot() ([]waterlog.Entry, int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]waterlog.Entry(nil), l.entries...), l.total, l.goalSnapshot
}

// Add logs a drink of the given hydration-effective amount. goal is the
// target attributed to the entry's day at log time. The returned entry is
// the optimistic record; after a successful reconciliation the ledger
// holds the server's version instead.
func (l *Ledger) Add(ctx context.Context, amount int, drinkType string, goal int) (waterlog.Entry, error) {
	if amount <= 0 {
		return waterlog.Entry{}, fmt.Errorf("add: %w", ErrInvalidAmount)
	}

	l.mu.Lock()
	userID, date, epoch := l.userID, l.date, l.epoch

	ts := l.now()
	backdated := date != "" && date != waterlog.Day(ts)
	if backdated {
		noon, err := waterlog.Noon(date)
		if err != nil {
			l.mu.Unlock()
			return waterlog.Entry{}, fmt.Errorf("add: %w", err)
		}
		ts = noon
	}

	entry := waterlog.Entry{
		ID:        "tmp-" + uuid.NewString(),
		Amount:    amount,
		Timestamp: ts,
		DrinkType: drinkType,
	}
	l.entries = append(l.entries, entry)
	l.total += amount
	l.mu.Unlock()

	req := api.CreateEntryRequest{
		UserID:    userID,
		Amount:    amount,
		Goal:      goal,
		Date:      date,
		DrinkType: drinkType,
	}
	if !backdated {
		req.Timestamp = &entry.Timestamp
	}
	day, err := l.client.CreateEntry(ctx, req)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch != epoch {
		return entry, nil // view changed mid-flight, result no longer relevant
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return entry, nil
		}
		slog.Warn("log upload failed, keeping optimistic entry",
			"user", userID, "date", date, "err", err)
		l.setOnline(false)
		if l.onBacklog != nil {
			l.onBacklog(entry)
		}
		return entry, nil
	}
	l.replaceLocked(day)
	l.setOnline(true)
	return entry, nil
}

// Delete removes a logged drink. Absent ids are a no-op; entries the
// backend never confirmed are removed locally without a remote call.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := -1
	for i, e := range l.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return nil
	}

	removed := l.entries[idx]
	userID, date, epoch := l.userID, l.date, l.epoch
	l.entries = append(l.entries[:idx:idx], l.entries[idx+1:]...)
	l.total = max(0, l.total-removed.Amount)

	if removed.Pending() {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	day, err := l.client.DeleteEntry(ctx, userID, id, date)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch != epoch {
		return nil
	}
	if err != nil {
		// Roll back at the original position so the list order holds.
		if idx > len(l.entries) {
			idx = len(l.entries)
		}
		l.entries = append(l.entries[:idx], append([]waterlog.Entry{removed}, l.entries[idx:]...)...)
		l.total += removed.Amount

		if errors.Is(err, context.Canceled) {
			return nil
		}
		slog.Warn("delete failed, restoring entry",
			"user", userID, "date", date, "entry", id, "err", err)
		l.setOnline(false)
		return nil
	}
	l.replaceLocked(day)
	l.setOnline(true)
	return nil
}

func (l *Ledger) setOnline(online bool) {
	if l.onOnline != nil {
		l.onOnline(online)
	}
}
