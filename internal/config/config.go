// Package config loads the larder client configuration from
// ~/.config/larder/config.toml, falling back to defaults when missing.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the fields larder needs to reach its document server.
type Config struct {
	// Server is the host:port (or URL) of the larderd document server.
	Server string
	// Namespace and App form the leading segments of every document path.
	Namespace string
	App       string
	// CredentialsDir holds the identity credentials file.
	CredentialsDir string
}

const (
	defaultConfigPath = "~/.config/larder/config.toml"
	defaultServer     = "127.0.0.1:7433"
	defaultNamespace  = "larder"
	defaultApp        = "default"
	defaultCredsDir   = "~/.config/larder"
)

// Load locates and parses the config file. A missing file is not an error;
// a present but unparseable one is, because a half-applied config would
// silently point the client at the wrong document.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server:         defaultServer,
		Namespace:      defaultNamespace,
		App:            defaultApp,
		CredentialsDir: mustExpand(defaultCredsDir),
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Server         string `toml:"server"`
		Namespace      string `toml:"namespace"`
		App            string `toml:"app"`
		CredentialsDir string `toml:"credentials_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Server); v != "" {
		cfg.Server = v
	}
	if v := strings.TrimSpace(raw.Namespace); v != "" {
		cfg.Namespace = v
	}
	if v := strings.TrimSpace(raw.App); v != "" {
		cfg.App = v
	}
	if v := strings.TrimSpace(raw.CredentialsDir); v != "" {
		cfg.CredentialsDir = mustExpand(v)
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
