package badge

import (
	"log/slog"

	"github.com/roach88/sipstream/internal/waterlog"
)

// Inputs is everything a badge predicate may inspect. History and Total
// describe the viewed day's ledger; Streak comes from the stats merge.
// JustAdded is nil when evaluation was triggered by something other than a
// new log (an authoritative merge, a streak refresh).
type Inputs struct {
	History   []waterlog.Entry
	JustAdded *waterlog.Entry
	Total     int
	Goal      int
	Streak    int
}

// Set is the persisted collection of unlocked badge ids.
type Set map[string]bool

// NewSet builds a Set from a stored id list, dropping ids the catalog no
// longer knows.
func (r *Registry) NewSet(ids []string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			s[id] = true
		}
	}
	return s
}

// IDs returns the set's contents in catalog order.
func (r *Registry) IDs(s Set) []string {
	out := make([]string, 0, len(s))
	for _, d := range r.defs {
		if s[d.ID] {
			out = append(out, d.ID)
		}
	}
	return out
}

// Evaluate runs every locked badge's predicate against in and returns the
// badges that just unlocked, in catalog order. Already-unlocked badges are
// never re-emitted. The unlocked set is not modified; callers merge the
// result once it has been persisted.
func (r *Registry) Evaluate(unlocked Set, in Inputs) []Def {
	var out []Def
	for _, d := range r.defs {
		if unlocked[d.ID] {
			continue
		}
		if satisfied(d, in) {
			out = append(out, d)
		}
	}
	return out
}

// RecoverStreakBadges returns streak badges whose threshold the current
// streak already meets but which are missing from the unlocked set. This
// heals sets lost to a cleared store or an account switch: the streak is
// server-derived, so it survives where local state does not.
func (r *Registry) RecoverStreakBadges(unlocked Set, streak int) []Def {
	var out []Def
	for _, d := range r.defs {
		if d.Category != "streak" || unlocked[d.ID] {
			continue
		}
		if streak >= d.MinStreak {
			out = append(out, d)
		}
	}
	return out
}

// satisfied runs one predicate, treating a panic as "not unlocked".
func satisfied(d Def, in Inputs) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("badge predicate panicked", "badge", d.ID, "panic", rec)
			ok = false
		}
	}()

	switch d.Category {
	case "milestone":
		if d.MinEntries > 0 && len(in.History) >= d.MinEntries {
			return true
		}
		return d.GoalRatio > 0 && in.Goal > 0 &&
			float64(in.Total) >= d.GoalRatio*float64(in.Goal)
	case "time":
		if in.JustAdded == nil {
			return false
		}
		h := in.JustAdded.Timestamp.Local().Hour()
		return h >= d.FromHour && h < d.ToHour
	case "streak":
		return in.Streak >= d.MinStreak
	case "drink":
		n := 0
		for _, e := range in.History {
			if e.DrinkType == d.DrinkType {
				n++
			}
		}
		return n >= d.MinCount
	case "volume":
		if d.MinTotal > 0 && in.Total >= d.MinTotal {
			return true
		}
		return d.MinEntries > 0 && len(in.History) >= d.MinEntries
	}
	return false
}

// StreakMilestones are the streak lengths that earn a celebration toast,
// ascending.
var StreakMilestones = []int{3, 7, 14, 21, 30, 60, 90, 180, 365}

// MilestoneReached returns the highest milestone crossed when a streak
// moves from prev to cur, or 0 if none was.
func MilestoneReached(prev, cur int) int {
	hit := 0
	for _, m := range StreakMilestones {
		if prev < m && cur >= m {
			hit = m
		}
	}
	return hit
}
