// Package badge evaluates unlock conditions for the achievement catalog.
//
// The catalog itself lives in badges.cue, embedded at build time and
// compiled through the CUE API on first use. CUE gives the catalog a real
// schema: categories are a closed enum and predicate parameters are
// range-checked, so a malformed badge is a load error instead of a badge
// that can never unlock.
//
// INVARIANTS:
//   - A badge that has been unlocked is never re-emitted by Evaluate.
//   - Evaluate returns newly unlocked badges in catalog order.
//   - A panicking predicate disables that badge for the call and logs a
//     warning; it never aborts evaluation of the remaining catalog.
package badge

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed badges.cue
var catalogCUE []byte

// Def is one badge as declared in badges.cue. Only the predicate
// parameters matching Category are set.
type Def struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Category    string  `json:"category"`
	MinEntries  int     `json:"minEntries,omitempty"`
	GoalRatio   float64 `json:"goalRatio,omitempty"`
	FromHour    int     `json:"fromHour,omitempty"`
	ToHour      int     `json:"toHour,omitempty"`
	MinStreak   int     `json:"minStreak,omitempty"`
	DrinkType   string  `json:"drinkType,omitempty"`
	MinCount    int     `json:"minCount,omitempty"`
	MinTotal    int     `json:"minTotal,omitempty"`
}

// Registry is the compiled, validated badge catalog.
type Registry struct {
	defs []Def
	byID map[string]Def
}

// Load compiles the embedded catalog. Schema violations (unknown category,
// out-of-range hours, duplicate ids) are returned as errors with the badge
// id where possible.
func Load() (*Registry, error) {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(catalogCUE, cue.Filename("badges.cue"))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compiling badge catalog: %w", err)
	}
	if err := val.Validate(cue.Concrete(false)); err != nil {
		return nil, fmt.Errorf("validating badge catalog: %w", err)
	}

	list := val.LookupPath(cue.ParsePath("badges"))
	if !list.Exists() {
		return nil, fmt.Errorf("badge catalog: missing 'badges' list")
	}
	iter, err := list.List()
	if err != nil {
		return nil, fmt.Errorf("badge catalog: 'badges' is not a list: %w", err)
	}

	r := &Registry{byID: make(map[string]Def)}
	for iter.Next() {
		var d Def
		if err := iter.Value().Decode(&d); err != nil {
			return nil, fmt.Errorf("decoding badge at index %d: %w", len(r.defs), err)
		}
		if err := d.check(); err != nil {
			return nil, fmt.Errorf("badge %q: %w", d.ID, err)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("badge %q: duplicate id", d.ID)
		}
		r.defs = append(r.defs, d)
		r.byID[d.ID] = d
	}
	if len(r.defs) == 0 {
		return nil, fmt.Errorf("badge catalog: empty")
	}
	return r, nil
}

// check enforces the per-category parameter contract that the CUE schema
// cannot express (which optional fields are required for which category).
func (d Def) check() error {
	switch d.Category {
	case "milestone":
		if d.MinEntries == 0 && d.GoalRatio == 0 {
			return fmt.Errorf("milestone badge needs minEntries or goalRatio")
		}
	case "time":
		if d.ToHour <= d.FromHour {
			return fmt.Errorf("time badge needs fromHour < toHour")
		}
	case "streak":
		if d.MinStreak == 0 {
			return fmt.Errorf("streak badge needs minStreak")
		}
	case "drink":
		if d.DrinkType == "" || d.MinCount == 0 {
			return fmt.Errorf("drink badge needs drinkType and minCount")
		}
	case "volume":
		if d.MinTotal == 0 && d.MinEntries == 0 {
			return fmt.Errorf("volume badge needs minTotal or minEntries")
		}
	default:
		return fmt.Errorf("unknown category %q", d.Category)
	}
	return nil
}

// Defs returns the catalog in declaration order. The slice is shared; do
// not mutate it.
func (r *Registry) Defs() []Def { return r.defs }

// Lookup returns the badge with the given id.
func (r *Registry) Lookup(id string) (Def, bool) {
	d, ok := r.byID[id]
	return d, ok
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the embedded catalog, compiling it on first call. The
// embedded catalog is checked in alongside this package, so a load failure
// here is a programming error.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load()
	})
	return defaultReg, defaultErr
}
