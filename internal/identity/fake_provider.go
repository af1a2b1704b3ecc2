package identity

import (
	"context"
	"sync"
)

// FakeProvider is a scripted provider for tests. Emit pushes a session
// change as the real auth service would; SignIn emits the preconfigured
// SignInSession.
type FakeProvider struct {
	mu            sync.Mutex
	current       *Session
	err           error
	subs          []func(*Session)
	SignInSession *Session
}

// NewFakeProvider starts with the given session (nil = signed out).
func NewFakeProvider(s *Session) *FakeProvider {
	return &FakeProvider{current: s}
}

func (p *FakeProvider) Session(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.err
}

func (p *FakeProvider) OnChange(fn func(*Session)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

func (p *FakeProvider) SignIn(ctx context.Context) error {
	p.Emit(p.SignInSession)
	return nil
}

// Emit delivers a session change to all subscribers.
func (p *FakeProvider) Emit(s *Session) {
	p.mu.Lock()
	p.current = s
	subs := make([]func(*Session), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// FailWith makes the next Session call return err.
func (p *FakeProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}
