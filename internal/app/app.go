// Package app composes the sipstream engines into one hydration core.
//
// The App owns the canonical client state: resolved identity, the viewed
// date, the goal pipeline, the day ledger, aggregate stats, connectivity,
// and the unlocked badge set. UI surfaces (the CLI here) read State() and
// call the action methods; everything else flows through the engines.
//
// Trigger wiring, in the order things happen in a session:
//
//   - identity resolves   -> guest data migrates (once), then a full sync
//   - viewed date changes -> ledger resets, full sync for the new key
//   - base goal edits     -> persist, recompute, debounced push, resync
//   - condition toggles   -> persist with today's date, recompute, push
//
// Authoritative merges arrive from the sync coordinator on its own
// goroutines; App methods are safe for concurrent use.
package app

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/badge"
	"github.com/roach88/sipstream/internal/config"
	"github.com/roach88/sipstream/internal/goal"
	"github.com/roach88/sipstream/internal/goalsync"
	"github.com/roach88/sipstream/internal/identity"
	"github.com/roach88/sipstream/internal/insight"
	"github.com/roach88/sipstream/internal/ledger"
	"github.com/roach88/sipstream/internal/migrate"
	"github.com/roach88/sipstream/internal/store"
	sipsync "github.com/roach88/sipstream/internal/sync"
	"github.com/roach88/sipstream/internal/waterlog"
)

// Event is an asynchronous user-facing notification.
type Event struct {
	Badge     badge.Def // zero unless a badge unlocked
	Milestone int       // zero unless a streak milestone was crossed
}

// State is a point-in-time snapshot of everything a surface renders.
type State struct {
	Identity   identity.Snapshot
	ViewedDate string
	IsToday    bool

	BaseGoal       int
	Conditions     goal.Conditions
	Target         goal.Target
	HistoricalGoal int // snapshot for a past viewed date, 0 if none
	DisplayGoal    int

	Entries []waterlog.Entry
	Total   int
	Stats   waterlog.Stats
	Online  bool
	Badges  []string
}

// dayConditions is the persisted shape of today's condition toggles. The
// date stamp makes stale toggles self-expiring: conditions from yesterday
// read as all-off.
type dayConditions struct {
	Date       string          `json:"date"`
	Conditions goal.Conditions `json:"conditions"`
}

// App is the reconciliation core. Create with New, then Start.
type App struct {
	cfg      config.Config
	prefs    *store.Store
	client   *api.Client
	resolver *identity.Resolver
	registry *badge.Registry
	days     *ledger.Ledger
	coord    *sipsync.Coordinator
	goals    *goalsync.Agent
	migrator *migrate.Agent
	coach    *insight.Service
	now      func() time.Time
	debounce time.Duration

	mu             stdsync.Mutex
	viewedDate     string
	baseGoal       int
	conditions     goal.Conditions
	stats          waterlog.Stats
	online         bool
	unlocked       badge.Set
	statsSeen      bool
	lastStreak     int
	shownMilestone int
	migrated       bool

	events chan Event
}

// Option configures an App.
type Option func(*App)

// WithClock substitutes the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithDebounce overrides the goal push debounce (tests).
func WithDebounce(d time.Duration) Option {
	return func(a *App) { a.debounce = d }
}

// New wires the engines. provider supplies identity; prefs must be open.
func New(cfg config.Config, prefs *store.Store, client *api.Client, provider identity.Provider, registry *badge.Registry, opts ...Option) *App {
	a := &App{
		cfg:      cfg,
		prefs:    prefs,
		client:   client,
		registry: registry,
		now:      time.Now,
		online:   true,
		events:   make(chan Event, 16),
		debounce: goalsync.DefaultDebounce,
	}
	if cfg.GoalDebounce > 0 {
		a.debounce = cfg.GoalDebounce
	}
	for _, o := range opts {
		o(a)
	}

	a.resolver = identity.NewResolver(provider)
	a.days = ledger.New(client,
		ledger.WithClock(a.now),
		ledger.WithConnectivity(a.setOnline),
		ledger.WithBacklog(a.captureBacklog),
	)
	a.coord = sipsync.New(client, a.applyStats, a.applyLedger,
		sipsync.WithStatsDays(cfg.StatsDays),
		sipsync.WithConnectivity(a.setOnline),
	)
	a.goals = goalsync.New(client,
		goalsync.WithDebounce(a.debounce),
		goalsync.WithClock(a.now),
		goalsync.WithPushed(a.goalPushed),
		goalsync.WithConnectivity(a.setOnline),
	)
	a.migrator = migrate.New(client, prefs)
	a.coach = insight.New(client)
	return a
}

// Start loads persisted preferences, resolves identity, and issues the
// first sync. It returns after the identity resolution; sync results
// arrive asynchronously (use SyncWait when a settled view is needed).
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	today := waterlog.Day(a.now())
	a.viewedDate = today
	a.baseGoal = a.prefs.GetInt(store.KeyBaseGoal, a.cfg.DefaultGoal, store.MinGoal, store.MaxGoal)
	a.conditions = a.loadConditions(today)
	a.unlocked = a.registry.NewSet(a.prefs.BadgeSet())
	a.mu.Unlock()

	a.days.Reset(identity.GuestID, today)
	a.resolver.Subscribe(func(snap identity.Snapshot) { a.onIdentity(ctx, snap) })
	if err := a.resolver.Start(ctx); err != nil {
		slog.Warn("identity resolution degraded to guest", "err", err)
	}
	return nil
}

// Registry exposes the badge catalog for rendering.
func (a *App) Registry() *badge.Registry { return a.registry }

// QuickAdds returns the logging presets, seeded with defaults.
func (a *App) QuickAdds() []store.QuickAdd { return a.prefs.QuickAdds() }

// AddQuickAdd saves a preset, replacing any with the same name.
func (a *App) AddQuickAdd(q store.QuickAdd) error { return a.prefs.AddQuickAdd(q) }

// RemoveQuickAdd deletes a preset by name.
func (a *App) RemoveQuickAdd(name string) error { return a.prefs.RemoveQuickAdd(name) }

// LookupQuickAdd resolves a preset name to its volume.
func (a *App) LookupQuickAdd(name string) (store.QuickAdd, bool) {
	return a.prefs.LookupQuickAdd(name)
}

// Events delivers badge unlocks and streak milestones. The channel is
// buffered; when a surface stops draining it, further events are dropped
// rather than blocking an engine.
func (a *App) Events() <-chan Event { return a.events }

// State snapshots current client state.
func (a *App) State() State {
	entries, total, goalSnap := a.days.Snapshot()

	a.mu.Lock()
	defer a.mu.Unlock()
	today := waterlog.Day(a.now())
	isToday := a.viewedDate == today
	target := goal.ComputeDailyTarget(a.baseGoal, a.conditions)

	s := State{
		Identity:   a.resolver.Current(),
		ViewedDate: a.viewedDate,
		IsToday:    isToday,
		BaseGoal:   a.baseGoal,
		Conditions: a.conditions,
		Target:     target,
		Entries:    entries,
		Total:      total,
		Stats:      a.stats,
		Online:     a.online,
		Badges:     a.registry.IDs(a.unlocked),
	}
	if isToday {
		s.DisplayGoal = target.EffectiveGoal
	} else {
		s.HistoricalGoal = goalSnap
		s.DisplayGoal = goal.HistoricalGoal(goalSnap, a.baseGoal)
	}
	return s
}

// SyncWait issues a sync for the current key and blocks until it settles.
func (a *App) SyncWait(ctx context.Context) error {
	att := a.resync(ctx)
	if att == nil {
		return nil
	}
	select {
	case <-att.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SelectDate switches the viewed day. Future dates are rejected; past
// dates load read-mostly history with the goal snapshot applied.
func (a *App) SelectDate(ctx context.Context, date string) error {
	if _, err := waterlog.ParseDay(date); err != nil {
		return err
	}
	today := waterlog.Day(a.now())
	if date > today {
		return fmt.Errorf("cannot view future date %s", date)
	}

	a.mu.Lock()
	a.viewedDate = date
	user := a.resolver.Current().UserID
	a.mu.Unlock()

	a.days.Reset(user, date)
	a.resync(ctx)
	return nil
}

// SetBaseGoal updates the default daily goal. Takes effect immediately on
// today's target and is pushed (debounced) as today's snapshot.
func (a *App) SetBaseGoal(ctx context.Context, ml int) error {
	if ml < store.MinGoal || ml > store.MaxGoal {
		return fmt.Errorf("goal %dml out of range [%d, %d]", ml, store.MinGoal, store.MaxGoal)
	}

	a.mu.Lock()
	a.baseGoal = ml
	if err := a.prefs.SetInt(store.KeyBaseGoal, ml); err != nil {
		slog.Warn("persisting base goal failed", "err", err)
	}
	target := goal.ComputeDailyTarget(a.baseGoal, a.conditions)
	user := a.resolver.Current().UserID
	guest := a.resolver.Current().IsGuest
	a.mu.Unlock()

	a.goals.GoalChanged(user, waterlog.Day(a.now()), target.EffectiveGoal)
	if !guest {
		a.pushPreferences(ctx, user)
	}
	a.resync(ctx)
	return nil
}

// ToggleCondition flips a contextual condition for today.
func (a *App) ToggleCondition(ctx context.Context, id string) error {
	known := false
	for _, f := range goal.Factors {
		if f.ID == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown condition %q", id)
	}

	today := waterlog.Day(a.now())
	a.mu.Lock()
	a.conditions = a.loadConditions(today).Toggle(id)
	if err := a.prefs.SetJSON(store.KeyConditions, dayConditions{Date: today, Conditions: a.conditions}); err != nil {
		slog.Warn("persisting conditions failed", "err", err)
	}
	target := goal.ComputeDailyTarget(a.baseGoal, a.conditions)
	user := a.resolver.Current().UserID
	a.mu.Unlock()

	a.goals.GoalChanged(user, today, target.EffectiveGoal)
	a.resync(ctx)
	return nil
}

// AddDrink logs rawML of the given drink against the viewed day. The
// hydration factor is applied here; the goal attributed to the entry is
// the viewed day's display goal at log time.
func (a *App) AddDrink(ctx context.Context, rawML int, drinkID string) (waterlog.Entry, error) {
	effective := waterlog.EffectiveAmount(rawML, drinkID)
	st := a.State()

	entry, err := a.days.Add(ctx, effective, drinkID, st.DisplayGoal)
	if err != nil {
		return waterlog.Entry{}, err
	}

	a.evaluateBadges(&entry)
	if !entry.Pending() || !a.pendingMatchesLedger(entry.ID) {
		// Reconciled (or the view moved on): refresh stats so the streak
		// reflects the new total.
		a.resync(ctx)
	}
	return entry, nil
}

// pendingMatchesLedger reports whether the ledger still holds the given
// optimistic entry. When it does, a resync would clobber it with the
// server view that lacks it, so the caller skips the resync.
func (a *App) pendingMatchesLedger(id string) bool {
	entries, _, _ := a.days.Snapshot()
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// DeleteEntry removes a logged drink from the viewed day.
func (a *App) DeleteEntry(ctx context.Context, id string) error {
	if err := a.days.Delete(ctx, id); err != nil {
		return err
	}
	a.evaluateBadges(nil)
	if a.State().Online {
		a.resync(ctx)
	}
	return nil
}

// CorrectGoal rewrites the goal snapshot for a specific past or present
// date. Corrections bypass the debounce and are serialized against any
// pending today-push. Correcting today also updates the base goal.
func (a *App) CorrectGoal(ctx context.Context, date string, ml int) error {
	if _, err := waterlog.ParseDay(date); err != nil {
		return err
	}
	today := waterlog.Day(a.now())
	if date > today {
		return fmt.Errorf("cannot correct future date %s", date)
	}
	if ml < store.MinGoal || ml > store.MaxGoal {
		return fmt.Errorf("goal %dml out of range [%d, %d]", ml, store.MinGoal, store.MaxGoal)
	}

	user := a.resolver.Current().UserID
	if err := a.goals.PushNow(ctx, user, date, ml); err != nil {
		return fmt.Errorf("correcting goal for %s: %w", date, err)
	}

	if date == today {
		a.mu.Lock()
		a.baseGoal = ml
		if err := a.prefs.SetInt(store.KeyBaseGoal, ml); err != nil {
			slog.Warn("persisting base goal failed", "err", err)
		}
		a.mu.Unlock()
	}
	a.resync(ctx)
	return nil
}

// FetchInsight returns the coach message for the viewed day's progress.
func (a *App) FetchInsight(ctx context.Context) (string, bool) {
	st := a.State()
	return a.coach.Coach(ctx, st.Identity.UserID, st.Total, st.DisplayGoal)
}

// SignIn runs the provider's sign-in flow. Migration and resync follow
// automatically when the session lands.
func (a *App) SignIn(ctx context.Context) error {
	return a.resolver.SignIn(ctx)
}

// Flush pushes any pending debounced goal write. One-shot commands call
// this before exit.
func (a *App) Flush() { a.goals.Flush() }

// ReminderInterval is the minimum gap between hydration nudges.
const ReminderInterval = 2 * time.Hour

// ReminderDue reports whether a nudge should fire now: quiet hours are
// respected and at least ReminderInterval has passed since the last one.
func (a *App) ReminderDue() bool {
	now := a.now()
	if h := now.Hour(); h < 8 || h >= 22 {
		return false
	}
	raw, ok, err := a.prefs.Get(store.KeyLastReminder)
	if err != nil || !ok {
		return true
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return now.Sub(last) >= ReminderInterval
}

// MarkReminded records that a nudge fired now.
func (a *App) MarkReminded() {
	if err := a.prefs.Set(store.KeyLastReminder, a.now().Format(time.RFC3339)); err != nil {
		slog.Warn("persisting reminder timestamp failed", "err", err)
	}
}
