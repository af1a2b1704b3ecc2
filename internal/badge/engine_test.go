package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sipstream/internal/waterlog"
)

func mustLoad(t *testing.T) *Registry {
	t.Helper()
	r, err := Load()
	require.NoError(t, err)
	return r
}

func TestLoadCompilesEmbeddedCatalog(t *testing.T) {
	r := mustLoad(t)
	assert.Len(t, r.Defs(), 12)

	d, ok := r.Lookup("hydration_hero")
	require.True(t, ok)
	assert.Equal(t, "milestone", d.Category)
	assert.Equal(t, 1.0, d.GoalRatio)
}

func TestEvaluateGoalReached(t *testing.T) {
	// ============================================================
	// Crossing the goal unlocks hydration_hero but not overachiever
	// ============================================================
	r := mustLoad(t)
	added := waterlog.Entry{
		ID:        "7",
		Amount:    600,
		Timestamp: time.Date(2026, 8, 28, 14, 0, 0, 0, time.Local),
		DrinkType: "water",
	}
	in := Inputs{
		History:   []waterlog.Entry{{ID: "5", Amount: 2000}, added},
		JustAdded: &added,
		Total:     2600,
		Goal:      2500,
		Streak:    1,
	}

	got := r.Evaluate(r.NewSet([]string{"first_sip"}), in)

	ids := defIDs(got)
	assert.Contains(t, ids, "hydration_hero")
	assert.NotContains(t, ids, "overachiever")
	assert.NotContains(t, ids, "first_sip") // already unlocked, never re-emitted
}

func TestEvaluateIsIdempotent(t *testing.T) {
	r := mustLoad(t)
	in := Inputs{
		History: []waterlog.Entry{{ID: "1", Amount: 4200}},
		Total:   4200,
		Goal:    2500,
	}

	unlocked := r.NewSet(nil)
	first := r.Evaluate(unlocked, in)
	require.NotEmpty(t, first)
	for _, d := range first {
		unlocked[d.ID] = true
	}

	// Same inputs against the merged set: nothing new.
	assert.Empty(t, r.Evaluate(unlocked, in))
}

func TestEvaluateTimeWindows(t *testing.T) {
	r := mustLoad(t)

	at := func(hour int) Inputs {
		e := waterlog.Entry{ID: "1", Amount: 200,
			Timestamp: time.Date(2026, 8, 28, hour, 30, 0, 0, time.Local)}
		return Inputs{History: []waterlog.Entry{e}, JustAdded: &e, Total: 200, Goal: 2500}
	}

	assert.Contains(t, defIDs(r.Evaluate(r.NewSet(nil), at(6))), "early_bird")
	assert.NotContains(t, defIDs(r.Evaluate(r.NewSet(nil), at(8))), "early_bird")
	assert.Contains(t, defIDs(r.Evaluate(r.NewSet(nil), at(23))), "night_owl")

	// No just-added entry means time badges cannot fire.
	in := at(6)
	in.JustAdded = nil
	assert.NotContains(t, defIDs(r.Evaluate(r.NewSet(nil), in)), "early_bird")
}

func TestEvaluateDrinkCounts(t *testing.T) {
	r := mustLoad(t)
	var hist []waterlog.Entry
	for i := 0; i < 10; i++ {
		hist = append(hist, waterlog.Entry{ID: "c", DrinkType: "coffee", Amount: 100})
	}
	hist = append(hist, waterlog.Entry{ID: "p", DrinkType: "protein", Amount: 100})

	ids := defIDs(r.Evaluate(r.NewSet(nil), Inputs{History: hist, Total: 1100, Goal: 2500}))
	assert.Contains(t, ids, "coffee_lover")
	assert.NotContains(t, ids, "gym_rat") // only one shake
}

func TestRecoverStreakBadges(t *testing.T) {
	// ============================================================
	// Server-derived streak heals a lost local badge set
	// ============================================================
	r := mustLoad(t)

	got := r.RecoverStreakBadges(r.NewSet(nil), 30)
	assert.Equal(t, []string{"week_warrior", "month_master"}, defIDs(got))

	got = r.RecoverStreakBadges(r.NewSet([]string{"week_warrior"}), 8)
	assert.Empty(t, got)
}

func TestNewSetDropsUnknownIDs(t *testing.T) {
	r := mustLoad(t)
	s := r.NewSet([]string{"first_sip", "retired_badge"})
	assert.True(t, s["first_sip"])
	assert.False(t, s["retired_badge"])
	assert.Equal(t, []string{"first_sip"}, r.IDs(s))
}

func TestMilestoneReached(t *testing.T) {
	assert.Equal(t, 7, MilestoneReached(6, 7))
	assert.Equal(t, 14, MilestoneReached(2, 15)) // highest crossed wins
	assert.Equal(t, 0, MilestoneReached(7, 8))
	assert.Equal(t, 0, MilestoneReached(10, 10))
	assert.Equal(t, 3, MilestoneReached(0, 3))
}

func defIDs(defs []Def) []string {
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	return ids
}
