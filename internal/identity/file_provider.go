package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInteractiveSignIn is returned by FileProvider.SignIn: the CLI signs
// in by writing the session file (`sipstream login`), not interactively.
var ErrInteractiveSignIn = errors.New("sign in with 'sipstream login --user <id>'")

// FileProvider reads sessions from a JSON file on disk. It is the CLI's
// identity source: no file means guest, a valid file means signed in.
type FileProvider struct {
	path string
	subs []func(*Session)
}

// NewFileProvider uses the session file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Session(ctx context.Context) (*Session, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", p.path, err)
	}
	if s.UserID == "" {
		return nil, fmt.Errorf("session file %s: missing user_id", p.path)
	}
	return &s, nil
}

func (p *FileProvider) OnChange(fn func(*Session)) {
	p.subs = append(p.subs, fn)
}

func (p *FileProvider) SignIn(ctx context.Context) error {
	return ErrInteractiveSignIn
}

// Save writes a session file and notifies subscribers. Used by the login
// command.
func (p *FileProvider) Save(s Session) error {
	if s.UserID == "" {
		return errors.New("session needs a user id")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	for _, fn := range p.subs {
		fn(&s)
	}
	return nil
}
