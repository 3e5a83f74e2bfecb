package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server != defaultServer {
		t.Fatalf("Server = %q, want %q", cfg.Server, defaultServer)
	}
	if cfg.Namespace != defaultNamespace || cfg.App != defaultApp {
		t.Fatalf("Namespace/App = %q/%q, want defaults", cfg.Namespace, cfg.App)
	}

	wantCreds, err := expandPath(defaultCredsDir)
	if err != nil {
		t.Fatalf("expandPath(defaultCredsDir) returned error: %v", err)
	}
	if cfg.CredentialsDir != wantCreds {
		t.Fatalf("CredentialsDir = %q, want %q", cfg.CredentialsDir, wantCreds)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
server = "  10.0.0.5:9999  "
namespace = "homelab"
app = "family"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server != "10.0.0.5:9999" {
		t.Fatalf("Server = %q, want trimmed value", cfg.Server)
	}
	if cfg.Namespace != "homelab" || cfg.App != "family" {
		t.Fatalf("Namespace/App = %q/%q", cfg.Namespace, cfg.App)
	}
}

func TestLoad_BadTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("server = [broken"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted unparseable config")
	}
}
