package app

import (
	"context"
	"fmt"

	"github.com/larderapp/larder/internal/config"
	"github.com/larderapp/larder/internal/docstore"
	"github.com/larderapp/larder/internal/identity"
	"github.com/larderapp/larder/internal/prefs"
	"github.com/larderapp/larder/internal/state"
	"github.com/larderapp/larder/internal/sync"
	"github.com/larderapp/larder/internal/ui"
)

// Options configure the larder client.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/larder/prefs.toml

	// ShareToken opens someone else's inventory read-only instead of the
	// signed-in user's own document.
	ShareToken string
}

// Run boots the larder TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	// The HTTP client carries the bearer token on every request, so the
	// identity has to exist before the client does. SignIn is
	// load-or-create: the session's own sign-in later resolves to the
	// same identity.
	var provider *identity.FileProvider
	var token string
	if opts.ShareToken == "" {
		provider, err = identity.NewFileProvider(cfg.CredentialsDir)
		if err != nil {
			return fmt.Errorf("init identity provider: %w", err)
		}
		id, err := provider.SignIn(ctx)
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		token = id.Token
	}

	client, err := docstore.NewClient(cfg.Server, token)
	if err != nil {
		return fmt.Errorf("init document client: %w", err)
	}

	cache := &state.Store{}

	sessionOpts := sync.Options{
		Store:      client,
		Cache:      cache,
		Namespace:  cfg.Namespace,
		App:        cfg.App,
		ShareToken: opts.ShareToken,
	}
	if provider != nil {
		sessionOpts.Provider = provider
	}
	session := sync.NewSession(sessionOpts)

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start sync session: %w", err)
	}

	return ui.Run(ctx, ui.Options{
		Cache:     cache,
		Session:   session,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
}
