package app

import (
	"context"
	"log/slog"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/badge"
	"github.com/roach88/sipstream/internal/goal"
	"github.com/roach88/sipstream/internal/identity"
	"github.com/roach88/sipstream/internal/store"
	sipsync "github.com/roach88/sipstream/internal/sync"
	"github.com/roach88/sipstream/internal/waterlog"
)

// onIdentity reacts to resolved identity. The guest-to-authenticated
// transition runs migration exactly once per session before the first
// authenticated sync, so claimed data is present when that sync lands.
func (a *App) onIdentity(ctx context.Context, snap identity.Snapshot) {
	if snap.Loading {
		return
	}

	a.mu.Lock()
	runMigration := !snap.IsGuest && !a.migrated
	if runMigration {
		a.migrated = true
	}
	date := a.viewedDate
	a.mu.Unlock()

	a.days.Reset(snap.UserID, date)

	if runMigration {
		if err := a.migrator.Run(ctx, identity.GuestID, snap.UserID); err != nil {
			slog.Warn("guest migration incomplete", "user", snap.UserID, "err", err)
		}
		a.adoptPreferences(ctx, snap.UserID)
	}
	a.resync(ctx)
}

// resync issues a sync for the current (user, date, goal) key.
func (a *App) resync(ctx context.Context) *sipsync.Attempt {
	a.mu.Lock()
	key := sipsync.Key{
		UserID:        a.resolver.Current().UserID,
		Date:          a.viewedDate,
		EffectiveGoal: goal.ComputeDailyTarget(a.baseGoal, a.conditions).EffectiveGoal,
	}
	a.mu.Unlock()
	return a.coord.Sync(ctx, key)
}

// applyStats merges an authoritative stats response. Stats are anchored
// to today regardless of the viewed date, so no date filter applies.
func (a *App) applyStats(k sipsync.Key, stats waterlog.Stats) {
	a.mu.Lock()
	if k.UserID != a.resolver.Current().UserID {
		a.mu.Unlock()
		return
	}
	a.stats = stats

	milestone := 0
	if a.statsSeen {
		milestone = badge.MilestoneReached(a.lastStreak, stats.Streak)
		if milestone <= a.shownMilestone {
			milestone = 0
		}
	}
	a.statsSeen = true
	a.lastStreak = stats.Streak
	if milestone > 0 {
		a.shownMilestone = milestone
	}

	recovered := a.registry.RecoverStreakBadges(a.unlocked, stats.Streak)
	for _, d := range recovered {
		a.unlocked[d.ID] = true
	}
	if len(recovered) > 0 {
		if err := a.prefs.SaveBadgeSet(a.registry.IDs(a.unlocked)); err != nil {
			slog.Warn("persisting recovered badges failed", "err", err)
		}
	}
	a.mu.Unlock()

	if milestone > 0 {
		a.emit(Event{Milestone: milestone})
	}
	for _, d := range recovered {
		a.emit(Event{Badge: d})
	}
}

// applyLedger merges an authoritative day ledger. Responses for a view
// the user has already left are dropped.
func (a *App) applyLedger(k sipsync.Key, day waterlog.DayLedger) {
	a.mu.Lock()
	stale := k.Date != a.viewedDate || k.UserID != a.resolver.Current().UserID
	a.mu.Unlock()
	if stale {
		return
	}

	a.days.Replace(day)
	a.evaluateBadges(nil)
}

// evaluateBadges runs the catalog against current state, persists any new
// unlocks, and emits events for them.
func (a *App) evaluateBadges(justAdded *waterlog.Entry) {
	entries, total, goalSnap := a.days.Snapshot()

	a.mu.Lock()
	today := waterlog.Day(a.now())
	displayGoal := goal.ComputeDailyTarget(a.baseGoal, a.conditions).EffectiveGoal
	if a.viewedDate != today {
		displayGoal = goal.HistoricalGoal(goalSnap, a.baseGoal)
	}

	newly := a.registry.Evaluate(a.unlocked, badge.Inputs{
		History:   entries,
		JustAdded: justAdded,
		Total:     total,
		Goal:      displayGoal,
		Streak:    a.stats.Streak,
	})
	for _, d := range newly {
		a.unlocked[d.ID] = true
	}
	if len(newly) > 0 {
		if err := a.prefs.SaveBadgeSet(a.registry.IDs(a.unlocked)); err != nil {
			slog.Warn("persisting badges failed", "err", err)
		}
	}
	a.mu.Unlock()

	for _, d := range newly {
		a.emit(Event{Badge: d})
	}
}

// goalPushed follows a successful goal write with a stats refresh: the
// backend derives the streak from stored goals, so the streak may have
// changed.
func (a *App) goalPushed(date string, goalML int) {
	a.resync(context.Background())
}

// captureBacklog preserves a failed upload for later migration, but only
// while the session is still guest. Authenticated failures retry through
// normal resyncs instead.
func (a *App) captureBacklog(e waterlog.Entry) {
	if !a.resolver.Current().IsGuest {
		return
	}
	if err := a.prefs.AppendBacklog(e); err != nil {
		slog.Warn("persisting offline entry failed", "entry", e.ID, "err", err)
	}
}

func (a *App) setOnline(online bool) {
	a.mu.Lock()
	a.online = online
	a.mu.Unlock()
}

func (a *App) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
	}
}

// loadConditions reads today's toggles; a stored record for a different
// date reads as all-off (conditions never carry across midnight).
// Caller holds a.mu.
func (a *App) loadConditions(today string) goal.Conditions {
	var dc dayConditions
	if a.prefs.GetJSON(store.KeyConditions, &dc) && dc.Date == today {
		return dc.Conditions
	}
	return goal.Conditions{}
}

// adoptPreferences reconciles local preferences with the cloud copy after
// sign-in: an existing cloud record wins, otherwise the local values seed
// it. Best-effort; failures are logged and retried implicitly on the next
// preference write.
func (a *App) adoptPreferences(ctx context.Context, userID string) {
	remote, ok, err := a.client.GetPreferences(ctx, userID)
	if err != nil {
		slog.Warn("fetching cloud preferences failed", "err", err)
		return
	}
	if !ok {
		a.pushPreferences(ctx, userID)
		return
	}

	a.mu.Lock()
	if remote.BaseGoal >= store.MinGoal && remote.BaseGoal <= store.MaxGoal {
		a.baseGoal = remote.BaseGoal
		if err := a.prefs.SetInt(store.KeyBaseGoal, remote.BaseGoal); err != nil {
			slog.Warn("persisting cloud base goal failed", "err", err)
		}
	}
	if remote.DrinkAmount > 0 {
		if err := a.prefs.SetInt(store.KeyDrinkAmount, remote.DrinkAmount); err != nil {
			slog.Warn("persisting cloud drink amount failed", "err", err)
		}
	}
	if remote.Theme != "" {
		if err := a.prefs.Set(store.KeyTheme, remote.Theme); err != nil {
			slog.Warn("persisting cloud theme failed", "err", err)
		}
	}
	a.mu.Unlock()
}

// pushPreferences uploads the local preference snapshot.
func (a *App) pushPreferences(ctx context.Context, userID string) {
	a.mu.Lock()
	p := api.Preferences{
		BaseGoal:    a.baseGoal,
		DrinkAmount: a.prefs.GetInt(store.KeyDrinkAmount, a.cfg.DrinkAmount, 1, 2000),
	}
	if theme, ok, _ := a.prefs.Get(store.KeyTheme); ok {
		p.Theme = theme
	}
	a.mu.Unlock()

	if err := a.client.PutPreferences(ctx, userID, p); err != nil {
		slog.Warn("pushing preferences failed", "err", err)
	}
}
