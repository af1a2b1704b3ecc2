// Package goal computes daily hydration targets.
//
// A target is derived in three tiers:
//
//  1. The user's base goal (persisted preference).
//  2. Additive bonuses for active contextual conditions (hot day,
//     heavy activity, recovery).
//  3. For past dates, a persisted per-day snapshot overrides tiers 1-2.
//
// The engine is pure: it validates nothing and performs no I/O. Inputs are
// sanitized at the storage boundary before they reach this package.
//
// INVARIANTS:
//   - EffectiveGoal == BaseGoal + sum(active bonuses), always.
//   - Condition order in Target.Bonuses matches the Factors declaration
//     order so breakdowns render deterministically.
//   - Historical resolution never consults current conditions.
package goal

// Factor is one contextual condition that raises today's target by a fixed
// additive bonus while active.
type Factor struct {
	ID    string
	Label string
	Icon  string
	Bonus int // ml added while active
	Hint  string
}

// Factors lists the supported conditions in evaluation and display order.
var Factors = []Factor{
	{ID: "hot", Label: "Hot Day", Icon: "🌡️", Bonus: 500, Hint: "High temperature increases fluid loss"},
	{ID: "active", Label: "Active Day", Icon: "🏃", Bonus: 750, Hint: "Exercise or heavy physical work"},
	{ID: "recovery", Label: "Recovery", Icon: "🤒", Bonus: 1000, Hint: "Illness, hangover, or travel"},
}

// Conditions is the per-day on/off state of each factor. The zero value
// means no conditions are active.
type Conditions struct {
	Hot      bool `json:"hot"`
	Active   bool `json:"active"`
	Recovery bool `json:"recovery"`
}

// IsActive reports whether the factor with the given id is on.
func (c Conditions) IsActive(id string) bool {
	switch id {
	case "hot":
		return c.Hot
	case "active":
		return c.Active
	case "recovery":
		return c.Recovery
	}
	return false
}

// Toggle returns a copy with the named factor flipped. Unknown ids return
// the receiver unchanged.
func (c Conditions) Toggle(id string) Conditions {
	switch id {
	case "hot":
		c.Hot = !c.Hot
	case "active":
		c.Active = !c.Active
	case "recovery":
		c.Recovery = !c.Recovery
	}
	return c
}

// Any reports whether at least one condition is active.
func (c Conditions) Any() bool {
	return c.Hot || c.Active || c.Recovery
}

// Bonus is one active factor's contribution to a computed target.
type Bonus struct {
	ID     string
	Label  string
	Icon   string
	Amount int
}

// Target is a fully resolved daily goal with its additive breakdown.
type Target struct {
	BaseGoal      int
	TotalBonus    int
	EffectiveGoal int
	Bonuses       []Bonus
}

// ComputeDailyTarget derives today's effective goal from the base goal and
// the active conditions.
func ComputeDailyTarget(baseGoal int, c Conditions) Target {
	t := Target{BaseGoal: baseGoal, EffectiveGoal: baseGoal}
	for _, f := range Factors {
		if !c.IsActive(f.ID) {
			continue
		}
		t.Bonuses = append(t.Bonuses, Bonus{ID: f.ID, Label: f.Label, Icon: f.Icon, Amount: f.Bonus})
		t.TotalBonus += f.Bonus
	}
	t.EffectiveGoal = baseGoal + t.TotalBonus
	return t
}

// HistoricalGoal resolves the goal governing a past date: the persisted
// snapshot when one exists, otherwise the current base goal. Today's
// condition bonuses never apply retroactively.
func HistoricalGoal(snapshot, baseGoal int) int {
	if snapshot > 0 {
		return snapshot
	}
	return baseGoal
}
