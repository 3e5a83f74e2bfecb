// Package identity supplies the opaque user identity the sync session is
// keyed by. The file provider keeps an anonymous identity in a credentials
// file under the user config dir; a real deployment would swap in a
// federated provider behind the same interface.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Identity is an opaque authenticated user.
type Identity struct {
	UID         string `json:"uid"`
	Token       string `json:"token"`
	IsAnonymous bool   `json:"is_anonymous"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Provider is the identity provider contract: sign in (anonymously on first
// run), upgrade the anonymous identity to a named one, sign out, and notify
// listeners on every state change.
type Provider interface {
	// SignIn returns the stored identity, minting an anonymous one on
	// first use.
	SignIn(ctx context.Context) (Identity, error)

	// Upgrade attaches profile fields to the current identity, keeping its
	// UID so the document path is unchanged.
	Upgrade(ctx context.Context, displayName, email string) (Identity, error)

	// SignOut discards the stored identity.
	SignOut(ctx context.Context) error

	// OnChange registers a listener invoked after every sign-in, upgrade,
	// and sign-out. signedIn is false only for sign-out.
	OnChange(fn func(id Identity, signedIn bool))
}

const credFileName = "credentials.json"

// FileProvider persists the identity as JSON in a credentials file.
// LARDER_UID and LARDER_TOKEN environment variables override the file,
// which keeps tests and scripted use away from the real credential.
type FileProvider struct {
	dir string

	mu        sync.Mutex
	listeners []func(Identity, bool)
}

// NewFileProvider builds a provider rooted at dir. An empty dir uses
// ~/.config/larder.
func NewFileProvider(dir string) (*FileProvider, error) {
	if strings.TrimSpace(dir) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "larder")
	}
	return &FileProvider{dir: dir}, nil
}

type storedCredentials struct {
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}

// SignIn loads the stored identity or mints an anonymous one.
func (p *FileProvider) SignIn(ctx context.Context) (Identity, error) {
	if uid := strings.TrimSpace(os.Getenv("LARDER_UID")); uid != "" {
		id := Identity{
			UID:         uid,
			Token:       strings.TrimSpace(os.Getenv("LARDER_TOKEN")),
			IsAnonymous: true,
		}
		if id.Token == "" {
			return Identity{}, fmt.Errorf("LARDER_UID set without LARDER_TOKEN")
		}
		p.notify(id, true)
		return id, nil
	}

	id, err := p.load()
	if err != nil {
		return Identity{}, err
	}
	if id.UID == "" {
		id = Identity{
			UID:         uuid.NewString(),
			Token:       uuid.NewString(),
			IsAnonymous: true,
		}
		if err := p.save(id); err != nil {
			return Identity{}, err
		}
	}
	p.notify(id, true)
	return id, nil
}

// Upgrade records profile fields on the current identity.
func (p *FileProvider) Upgrade(ctx context.Context, displayName, email string) (Identity, error) {
	id, err := p.load()
	if err != nil {
		return Identity{}, err
	}
	if id.UID == "" {
		return Identity{}, errors.New("not signed in")
	}
	id.DisplayName = strings.TrimSpace(displayName)
	id.Email = strings.TrimSpace(email)
	id.IsAnonymous = false
	if err := p.save(id); err != nil {
		return Identity{}, err
	}
	p.notify(id, true)
	return id, nil
}

// SignOut removes the credentials file.
func (p *FileProvider) SignOut(ctx context.Context) error {
	if err := os.Remove(p.credPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	p.notify(Identity{}, false)
	return nil
}

// OnChange registers a state-change listener.
func (p *FileProvider) OnChange(fn func(Identity, bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *FileProvider) notify(id Identity, signedIn bool) {
	p.mu.Lock()
	listeners := append([]func(Identity, bool){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(id, signedIn)
	}
}

func (p *FileProvider) credPath() string {
	return filepath.Join(p.dir, credFileName)
}

func (p *FileProvider) load() (Identity, error) {
	b, err := os.ReadFile(p.credPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("read credentials: %w", err)
	}
	var creds storedCredentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return Identity{}, fmt.Errorf("parse credentials: %w", err)
	}
	return creds.Identity, nil
}

func (p *FileProvider) save(id Identity) error {
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	b, err := json.MarshalIndent(storedCredentials{Identity: id, CreatedAt: time.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(p.credPath(), b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
