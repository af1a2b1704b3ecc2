package store

import (
	"github.com/roach88/sipstream/internal/waterlog"
)

// AppendBacklog records a guest-era entry that could not reach the
// backend. The backlog is drained by the migration agent after sign-in.
func (s *Store) AppendBacklog(e waterlog.Entry) error {
	entries := s.Backlog()
	entries = append(entries, e)
	return s.SetJSON(KeyGuestBacklog, entries)
}

// Backlog returns the pending guest-era entries, oldest first.
func (s *Store) Backlog() []waterlog.Entry {
	var entries []waterlog.Entry
	s.GetJSON(KeyGuestBacklog, &entries)
	return entries
}

// ClearBacklog drops the backlog after a successful import.
func (s *Store) ClearBacklog() error {
	return s.Delete(KeyGuestBacklog)
}
