package update

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/leadpilot/pilot/internal/paths"
)

const (
	stateFileName = "update-check.json"

	// CheckInterval is how long a cached check stays fresh.
	CheckInterval = 24 * time.Hour
)

// State caches the last release check so commands can mention new versions
// without calling GitHub every time.
type State struct {
	CheckedAt  time.Time `json:"checked_at"`
	Latest     string    `json:"latest_version,omitempty"`
	ReleaseURL string    `json:"release_url,omitempty"`
}

func statePath() (string, error) {
	root, err := paths.StateRoot()
	if err != nil {
		return "", fmt.Errorf("resolve state directory: %w", err)
	}

	return filepath.Join(root, stateFileName), nil
}

// LoadState reads the cached check. A missing or corrupt cache yields a zero State.
func LoadState() (State, error) {
	path, err := statePath()
	if err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path under the pilot state directory
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}

	if err != nil {
		return State{}, fmt.Errorf("read update state: %w", err)
	}

	var state State
	if json.Unmarshal(data, &state) != nil {
		return State{}, nil
	}

	return state, nil
}

// Save writes the cache through a temp file and rename.
func (s State) Save() error {
	path, err := statePath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal update state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, stateFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp update state: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write update state: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close update state: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace update state: %w", err)
	}

	return nil
}

// Due reports whether the cache is older than CheckInterval at now.
func (s State) Due(now time.Time) bool {
	return s.CheckedAt.IsZero() || now.Sub(s.CheckedAt) >= CheckInterval
}

// NewerThan reports whether the cached release is newer than current.
func (s State) NewerThan(current string) bool {
	return s.Latest != "" && Newer(s.Latest, current)
}

// Record caches rel as checked at now.
func Record(rel *Release, now time.Time) error {
	return State{CheckedAt: now, Latest: rel.Latest, ReleaseURL: rel.URL}.Save()
}
