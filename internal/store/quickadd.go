package store

import (
	"fmt"
	"strings"
)

// QuickAdd is a named preset volume for one-command logging.
type QuickAdd struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"` // ml
}

// DefaultQuickAdds seed a fresh install.
var DefaultQuickAdds = []QuickAdd{
	{Name: "Small Glass", Amount: 150},
	{Name: "Coffee", Amount: 300},
	{Name: "Bottle", Amount: 500},
	{Name: "Large Flask", Amount: 750},
}

// QuickAdds returns the persisted presets, or the defaults when none have
// been saved yet.
func (s *Store) QuickAdds() []QuickAdd {
	var list []QuickAdd
	if !s.GetJSON(KeyQuickAdds, &list) || len(list) == 0 {
		return append([]QuickAdd(nil), DefaultQuickAdds...)
	}
	return list
}

// SaveQuickAdds replaces the preset list.
func (s *Store) SaveQuickAdds(list []QuickAdd) error {
	return s.SetJSON(KeyQuickAdds, list)
}

// AddQuickAdd appends a preset, replacing any existing preset with the
// same name (case-insensitive).
func (s *Store) AddQuickAdd(q QuickAdd) error {
	if q.Name == "" {
		return fmt.Errorf("quick-add needs a name")
	}
	if q.Amount <= 0 || q.Amount > 2000 {
		return fmt.Errorf("quick-add amount %dml out of range", q.Amount)
	}
	list := s.QuickAdds()
	replaced := false
	for i, existing := range list {
		if strings.EqualFold(existing.Name, q.Name) {
			list[i] = q
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, q)
	}
	return s.SaveQuickAdds(list)
}

// RemoveQuickAdd removes the preset by name (case-insensitive). Unknown
// names are an error so typos surface instead of silently succeeding.
func (s *Store) RemoveQuickAdd(name string) error {
	list := s.QuickAdds()
	for i, existing := range list {
		if strings.EqualFold(existing.Name, name) {
			return s.SaveQuickAdds(append(list[:i], list[i+1:]...))
		}
	}
	return fmt.Errorf("no quick-add named %q", name)
}

// LookupQuickAdd resolves a preset name to its volume.
func (s *Store) LookupQuickAdd(name string) (QuickAdd, bool) {
	for _, q := range s.QuickAdds() {
		if strings.EqualFold(q.Name, name) {
			return q, true
		}
	}
	return QuickAdd{}, false
}
