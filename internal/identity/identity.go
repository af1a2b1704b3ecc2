// Package identity resolves who the app is acting as.
//
// Identity comes from a pluggable Provider (the hosted auth service in the
// app, a session file for the CLI, a scripted fake in tests). The resolver
// collapses provider output into a stable Snapshot with one hard rule:
// once a session has authenticated, the snapshot never regresses to guest
// for the remainder of the process. Provider blips that would otherwise
// flash guest state over an authenticated view are logged and dropped.
package identity

import (
	"context"
	"log/slog"
	"sync"
)

// GuestID is the synthetic user id used before any sign-in. Guest data is
// keyed under this id both locally and on the backend.
const GuestID = "guest-local"

// Session is a provider-issued authenticated session.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Provider is the source of sessions. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Session returns the current session, or nil when signed out.
	Session(ctx context.Context) (*Session, error)
	// OnChange registers a callback invoked whenever the session changes.
	OnChange(fn func(*Session))
	// SignIn starts the provider's sign-in flow.
	SignIn(ctx context.Context) error
}

// Snapshot is the resolved identity handed to the rest of the app.
type Snapshot struct {
	UserID  string
	Email   string
	IsGuest bool
	Loading bool
}

// Resolver turns provider sessions into monotonic identity snapshots.
type Resolver struct {
	provider Provider

	mu      sync.Mutex
	snap    Snapshot
	sawAuth bool
	subs    []func(Snapshot)
}

// NewResolver wraps a provider. The initial snapshot is Loading until
// Start resolves the first session.
func NewResolver(p Provider) *Resolver {
	return &Resolver{
		provider: p,
		snap:     Snapshot{UserID: GuestID, IsGuest: true, Loading: true},
	}
}

// Start performs the initial session fetch and subscribes to provider
// changes. A provider error resolves to guest rather than blocking the
// app; the error is logged and returned for the caller's information.
func (r *Resolver) Start(ctx context.Context) error {
	r.provider.OnChange(r.apply)

	sess, err := r.provider.Session(ctx)
	if err != nil {
		slog.Warn("initial session fetch failed, starting as guest", "err", err)
	}
	r.apply(sess)
	return err
}

// Current returns the latest snapshot.
func (r *Resolver) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Subscribe registers fn for every snapshot change. Callbacks run on the
// goroutine that delivered the change, outside the resolver lock.
func (r *Resolver) Subscribe(fn func(Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// SignIn delegates to the provider. The resulting session arrives through
// OnChange.
func (r *Resolver) SignIn(ctx context.Context) error {
	return r.provider.SignIn(ctx)
}

func (r *Resolver) apply(sess *Session) {
	r.mu.Lock()

	next := r.snap
	next.Loading = false
	switch {
	case sess == nil && r.sawAuth:
		// Never regress an authenticated view to guest mid-session.
		slog.Warn("ignoring session drop after authentication", "user", r.snap.UserID)
		r.mu.Unlock()
		return
	case sess == nil:
		next.UserID = GuestID
		next.Email = ""
		next.IsGuest = true
	case r.sawAuth && sess.UserID != r.snap.UserID:
		slog.Warn("ignoring mid-session account switch",
			"current", r.snap.UserID, "incoming", sess.UserID)
		r.mu.Unlock()
		return
	default:
		next.UserID = sess.UserID
		next.Email = sess.Email
		next.IsGuest = false
		r.sawAuth = true
	}

	if next == r.snap {
		r.mu.Unlock()
		return
	}
	r.snap = next
	subs := make([]func(Snapshot), len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
