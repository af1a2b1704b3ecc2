package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sipstream/internal/waterlog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotentOnDisk(t *testing.T) {
	path := t.TempDir() + "/prefs.db"

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetInt(KeyBaseGoal, 3000))
	require.NoError(t, s.Close())

	// Re-open the same file: schema apply must be a no-op and data survive.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 3000, s.GetInt(KeyBaseGoal, 2500, MinGoal, MaxGoal))
}

func TestGetSetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("theme", "dark"))
	v, ok, err := s.Get("theme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.Delete("theme"))
	_, ok, _ = s.Get("theme")
	assert.False(t, ok)
}

func TestGetIntRecoversCorruption(t *testing.T) {
	// ============================================================
	// Corrupt or out-of-range values reset to the default in place
	// ============================================================
	s := openTestStore(t)

	require.NoError(t, s.Set(KeyBaseGoal, "NaN"))
	assert.Equal(t, 2500, s.GetInt(KeyBaseGoal, 2500, MinGoal, MaxGoal))

	// The reset was written back.
	raw, ok, err := s.Get(KeyBaseGoal)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2500", raw)

	// Out of range counts as corrupt.
	require.NoError(t, s.SetInt(KeyBaseGoal, 99))
	assert.Equal(t, 2500, s.GetInt(KeyBaseGoal, 2500, MinGoal, MaxGoal))
}

func TestGetBoolDefaults(t *testing.T) {
	s := openTestStore(t)

	assert.False(t, s.GetBool(KeyLocalMigrated, false))
	require.NoError(t, s.SetBool(KeyLocalMigrated, true))
	assert.True(t, s.GetBool(KeyLocalMigrated, false))

	require.NoError(t, s.Set(KeyLocalMigrated, "maybe"))
	assert.False(t, s.GetBool(KeyLocalMigrated, false))
}

func TestGetJSONDropsCorruptValue(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set(KeyConditions, "{not json"))
	var out map[string]any
	assert.False(t, s.GetJSON(KeyConditions, &out))

	// Corrupt value was deleted, not left to poison later reads.
	_, ok, err := s.Get(KeyConditions)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveBadgeSetGuardsAgainstEmptyOverwrite(t *testing.T) {
	// ============================================================
	// Badge sets only grow: empty never clobbers non-empty
	// ============================================================
	s := openTestStore(t)

	require.NoError(t, s.SaveBadgeSet([]string{"first_sip", "early_bird"}))
	require.NoError(t, s.SaveBadgeSet(nil))
	assert.Equal(t, []string{"first_sip", "early_bird"}, s.BadgeSet())

	// Non-empty updates still apply.
	require.NoError(t, s.SaveBadgeSet([]string{"first_sip", "early_bird", "night_owl"}))
	assert.Len(t, s.BadgeSet(), 3)

	// Empty-to-empty is fine.
	s2 := openTestStore(t)
	require.NoError(t, s2.SaveBadgeSet(nil))
	assert.Empty(t, s2.BadgeSet())
}

func TestBacklogAppendsAndClears(t *testing.T) {
	s := openTestStore(t)
	assert.Empty(t, s.Backlog())

	e1 := waterlog.Entry{ID: "tmp-a", Amount: 300, DrinkType: "water",
		Timestamp: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
	e2 := waterlog.Entry{ID: "tmp-b", Amount: 250, DrinkType: "tea",
		Timestamp: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, s.AppendBacklog(e1))
	require.NoError(t, s.AppendBacklog(e2))

	got := s.Backlog()
	require.Len(t, got, 2)
	assert.Equal(t, "tmp-a", got[0].ID)
	assert.Equal(t, 250, got[1].Amount)

	require.NoError(t, s.ClearBacklog())
	assert.Empty(t, s.Backlog())
}
