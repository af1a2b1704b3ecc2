package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Known preference keys. The store accepts arbitrary keys; these constants
// keep callers from drifting.
const (
	KeyBaseGoal      = "base_goal"       // int, ml
	KeyDrinkAmount   = "drink_amount"    // int, ml, default quick-add volume
	KeyTheme         = "theme"           // string
	KeyBadges        = "badges"          // JSON []string of unlocked ids
	KeyConditions    = "conditions"      // JSON {date, hot, active, recovery}
	KeyQuickAdds     = "quick_adds"      // JSON []QuickAdd presets
	KeyLastReminder  = "last_reminder"   // RFC3339 timestamp of last nudge
	KeyLocalMigrated = "local_migrated"  // bool, guest backlog imported
	KeyServerClaimed = "server_claimed"  // bool, guest rows reassigned
	KeyGuestBacklog  = "guest_backlog"   // JSON []waterlog.Entry pending upload
)

// Goal bounds enforced at the storage boundary. Values outside reset to
// the default.
const (
	MinGoal = 500
	MaxGoal = 10000
)

// Get returns the raw value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// Set writes the raw value for key, replacing any existing value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are a no-op.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// GetInt reads an integer preference, clamping recovery to [min, max]. A
// missing, unparseable, or out-of-range value resets to def, which is
// written back so the next read is clean.
func (s *Store) GetInt(key string, def, min, max int) int {
	raw, ok, err := s.Get(key)
	if err != nil {
		slog.Warn("preference read failed", "key", key, "err", err)
		return def
	}
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		slog.Warn("resetting corrupt preference", "key", key, "value", raw, "default", def)
		if werr := s.SetInt(key, def); werr != nil {
			slog.Warn("preference reset failed", "key", key, "err", werr)
		}
		return def
	}
	return n
}

// SetInt writes an integer preference.
func (s *Store) SetInt(key string, v int) error {
	return s.Set(key, strconv.Itoa(v))
}

// GetBool reads a boolean preference, resetting corruption to def.
func (s *Store) GetBool(key string, def bool) bool {
	raw, ok, err := s.Get(key)
	if err != nil {
		slog.Warn("preference read failed", "key", key, "err", err)
		return def
	}
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("resetting corrupt preference", "key", key, "value", raw, "default", def)
		if werr := s.SetBool(key, def); werr != nil {
			slog.Warn("preference reset failed", "key", key, "err", werr)
		}
		return def
	}
	return b
}

// SetBool writes a boolean preference.
func (s *Store) SetBool(key string, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

// GetJSON decodes a structured preference into out. Returns false (with
// out untouched beyond partial decode) when the key is missing or corrupt;
// corrupt values are deleted so they cannot poison later reads.
func (s *Store) GetJSON(key string, out any) bool {
	raw, ok, err := s.Get(key)
	if err != nil {
		slog.Warn("preference read failed", "key", key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		slog.Warn("dropping corrupt preference", "key", key, "err", err)
		if derr := s.Delete(key); derr != nil {
			slog.Warn("preference delete failed", "key", key, "err", derr)
		}
		return false
	}
	return true
}

// SetJSON stores a structured preference as JSON.
func (s *Store) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.Set(key, string(data))
}

// BadgeSet returns the persisted unlocked badge ids.
func (s *Store) BadgeSet() []string {
	var ids []string
	s.GetJSON(KeyBadges, &ids)
	return ids
}

// SaveBadgeSet persists the unlocked badge ids with a one-way guard: an
// empty incoming set never overwrites a non-empty stored set. Badge data
// only grows; an empty set here means the caller raced initialization, not
// that the user lost every badge.
func (s *Store) SaveBadgeSet(ids []string) error {
	if len(ids) == 0 {
		if existing := s.BadgeSet(); len(existing) > 0 {
			slog.Warn("refusing to overwrite badge set with empty set", "existing", len(existing))
			return nil
		}
	}
	return s.SetJSON(KeyBadges, ids)
}
