// Package prefs handles storefront local storage.
// Preferences and mirrored scalars are stored in ~/.config/storefront/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds everything the storefront keeps across restarts.
type Prefs struct {
	Theme   string            `toml:"theme"`
	Scalars map[string]string `toml:"scalars,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/storefront/prefs.toml"
	defaultTheme     = "Dracula"
)

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	prefs := Prefs{Theme: defaultTheme}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Scalars is a string key/value view over the prefs file. Each Persist
// rewrites the file so values survive a cold start.
type Scalars struct {
	mu    sync.Mutex
	path  string
	prefs Prefs
}

// OpenScalars loads the prefs file at path for scalar access.
func OpenScalars(path string) *Scalars {
	p, _ := Load(path)
	return &Scalars{path: path, prefs: p}
}

// Read returns the stored value for key.
func (s *Scalars) Read(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.prefs.Scalars[key]
	return v, ok
}

// Persist stores value under key and flushes the file.
func (s *Scalars) Persist(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.prefs.Scalars)+1)
	maps.Copy(next, s.prefs.Scalars)
	next[key] = value

	updated := s.prefs
	updated.Scalars = next
	if err := Save(s.path, updated); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	s.prefs = updated
	return nil
}

// SetTheme stores the UI theme alongside the scalars.
func (s *Scalars) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.prefs
	updated.Theme = theme
	if err := Save(s.path, updated); err != nil {
		return err
	}
	s.prefs = updated
	return nil
}

// Theme returns the stored UI theme.
func (s *Scalars) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Theme
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
