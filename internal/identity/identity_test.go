package identity

import (
	"context"
	"testing"
)

func TestFileProvider_SignInMintsAndReloads(t *testing.T) {
	t.Setenv("LARDER_UID", "")
	t.Setenv("LARDER_TOKEN", "")

	p, err := NewFileProvider(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileProvider: %v", err)
	}

	var events int
	p.OnChange(func(id Identity, signedIn bool) { events++ })

	ctx := context.Background()
	first, err := p.SignIn(ctx)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if first.UID == "" || first.Token == "" {
		t.Fatalf("anonymous identity incomplete: %#v", first)
	}
	if !first.IsAnonymous {
		t.Fatalf("minted identity should be anonymous: %#v", first)
	}

	second, err := p.SignIn(ctx)
	if err != nil {
		t.Fatalf("second SignIn: %v", err)
	}
	if second.UID != first.UID || second.Token != first.Token {
		t.Fatalf("identity not stable across sign-ins: %#v vs %#v", first, second)
	}
	if events != 2 {
		t.Fatalf("state-change events = %d, want 2", events)
	}
}

func TestFileProvider_UpgradeKeepsUID(t *testing.T) {
	t.Setenv("LARDER_UID", "")
	t.Setenv("LARDER_TOKEN", "")

	p, err := NewFileProvider(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileProvider: %v", err)
	}
	ctx := context.Background()

	anon, err := p.SignIn(ctx)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	named, err := p.Upgrade(ctx, "Alex", "alex@example.com")
	if err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if named.UID != anon.UID {
		t.Fatalf("UID changed on upgrade: %q -> %q", anon.UID, named.UID)
	}
	if named.IsAnonymous || named.DisplayName != "Alex" || named.Email != "alex@example.com" {
		t.Fatalf("upgrade fields wrong: %#v", named)
	}
}

func TestFileProvider_SignOutForgetsIdentity(t *testing.T) {
	t.Setenv("LARDER_UID", "")
	t.Setenv("LARDER_TOKEN", "")

	p, err := NewFileProvider(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileProvider: %v", err)
	}
	ctx := context.Background()

	first, err := p.SignIn(ctx)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	var lastSignedIn = true
	p.OnChange(func(id Identity, signedIn bool) { lastSignedIn = signedIn })

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if lastSignedIn {
		t.Fatal("no signed-out event delivered")
	}

	next, err := p.SignIn(ctx)
	if err != nil {
		t.Fatalf("SignIn after SignOut: %v", err)
	}
	if next.UID == first.UID {
		t.Fatalf("identity survived sign-out: %q", next.UID)
	}

	// Signing out twice is fine.
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("second SignOut: %v", err)
	}
}

func TestFileProvider_EnvOverride(t *testing.T) {
	t.Setenv("LARDER_UID", "env-user")
	t.Setenv("LARDER_TOKEN", "env-token")

	p, err := NewFileProvider(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileProvider: %v", err)
	}

	id, err := p.SignIn(context.Background())
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if id.UID != "env-user" || id.Token != "env-token" {
		t.Fatalf("env identity = %#v", id)
	}
}
