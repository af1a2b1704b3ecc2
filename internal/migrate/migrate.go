// Package migrate moves guest-era data onto an authenticated account.
//
// Migration has two independent steps, each latched by its own completion
// flag in the preference store:
//
//  1. Local import: guest entries stranded in the offline backlog are
//     bulk-uploaded under the new user id.
//  2. Server claim: backend rows keyed by the guest id are reassigned to
//     the new user id.
//
// A step that fails leaves its flag unset and is retried on the next
// sign-in; a step that succeeded (including vacuously, with nothing to
// move) never runs again. The steps do not abort each other.
package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/store"
)

// Agent runs the two migration steps.
type Agent struct {
	client *api.Client
	prefs  *store.Store
}

// New builds an agent over the API client and preference store.
func New(client *api.Client, prefs *store.Store) *Agent {
	return &Agent{client: client, prefs: prefs}
}

// Run executes any step not yet latched complete. The returned error
// reports the first step failure but does not prevent the other step from
// running.
func (a *Agent) Run(ctx context.Context, guestID, userID string) error {
	var firstErr error

	if err := a.importBacklog(ctx, userID); err != nil {
		slog.Warn("guest backlog import failed, will retry next sign-in", "err", err)
		firstErr = err
	}
	if err := a.claimServerData(ctx, guestID, userID); err != nil {
		slog.Warn("guest data claim failed, will retry next sign-in", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *Agent) importBacklog(ctx context.Context, userID string) error {
	if a.prefs.GetBool(store.KeyLocalMigrated, false) {
		return nil
	}

	entries := a.prefs.Backlog()
	if len(entries) > 0 {
		if err := a.client.BulkImport(ctx, userID, entries); err != nil {
			return fmt.Errorf("bulk import of %d entries: %w", len(entries), err)
		}
		if err := a.prefs.ClearBacklog(); err != nil {
			return fmt.Errorf("clearing imported backlog: %w", err)
		}
		slog.Info("imported guest backlog", "user", userID, "entries", len(entries))
	}
	return a.prefs.SetBool(store.KeyLocalMigrated, true)
}

func (a *Agent) claimServerData(ctx context.Context, guestID, userID string) error {
	if a.prefs.GetBool(store.KeyServerClaimed, false) {
		return nil
	}
	if err := a.client.ClaimGuestData(ctx, guestID, userID); err != nil {
		return fmt.Errorf("claiming guest rows: %w", err)
	}
	slog.Info("claimed guest server data", "guest", guestID, "user", userID)
	return a.prefs.SetBool(store.KeyServerClaimed, true)
}
