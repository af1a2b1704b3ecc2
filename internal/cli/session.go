package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/sipstream/internal/api"
	"github.com/roach88/sipstream/internal/app"
	"github.com/roach88/sipstream/internal/badge"
	"github.com/roach88/sipstream/internal/config"
	"github.com/roach88/sipstream/internal/identity"
	"github.com/roach88/sipstream/internal/store"
)

// session is one CLI invocation's fully wired app plus the resources it
// must release on exit.
type session struct {
	App      *app.App
	Config   config.Config
	Provider *identity.FileProvider

	prefs *store.Store
}

// openSession builds the app from config, resolves identity, and waits
// for the initial sync so commands act on settled state.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	cfg := opts.Config()
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "creating data dir", err)
	}

	prefs, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening preference store", err)
	}

	client, err := api.New(cfg.BackendURL, api.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		prefs.Close()
		return nil, WrapExitError(ExitCommandError, "building API client", err)
	}

	registry, err := badge.Default()
	if err != nil {
		prefs.Close()
		return nil, WrapExitError(ExitCommandError, "loading badge catalog", err)
	}

	provider := identity.NewFileProvider(cfg.SessionFile())
	a := app.New(cfg, prefs, client, provider, registry)
	if err := a.Start(ctx); err != nil {
		prefs.Close()
		return nil, fmt.Errorf("starting app: %w", err)
	}
	if err := a.SyncWait(ctx); err != nil {
		prefs.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}

	return &session{App: a, Config: cfg, Provider: provider, prefs: prefs}, nil
}

// Close flushes pending goal pushes and releases the store.
func (s *session) Close() {
	s.App.Flush()
	s.prefs.Close()
}
