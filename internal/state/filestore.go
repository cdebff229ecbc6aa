// Package state persists the per-target heal state markers that gate the
// remediation cooldown. Markers survive daemon restarts; a missing marker
// means the target has never been healed.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/homefleet/fleetd/internal/contracts"
	"github.com/homefleet/fleetd/internal/domain"
	"github.com/homefleet/fleetd/internal/errors"
	"github.com/homefleet/fleetd/internal/perms"
)

var _ contracts.StateStore = (*FileStore)(nil)

// FileStore keeps one JSON marker file per target under a state directory.
// Writes are atomic (temp file then rename) so a crashed write can never
// leave a corrupt marker behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the state directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("state directory cannot be empty")
	}

	if err := os.MkdirAll(dir, perms.SecureDir); err != nil {
		return nil, fmt.Errorf("failed to create state directory (%s): %w", dir, err)
	}

	return &FileStore{dir: dir}, nil
}

// DefaultDir returns the state directory used when none is configured.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fleetd", "state"), nil
}

// Load returns the heal state for a target. Absence of the marker is not
// an error: the returned state has a nil LastHealAt.
func (s *FileStore) Load(name string) (domain.HealState, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.HealState{}, nil
		}
		return domain.HealState{}, fmt.Errorf("%w: target '%s': %w", errors.ErrStateRead, name, err)
	}

	var st domain.HealState
	if err := json.Unmarshal(data, &st); err != nil {
		return domain.HealState{}, fmt.Errorf("%w: target '%s': corrupt marker: %w", errors.ErrStateRead, name, err)
	}

	return st, nil
}

// Save durably writes the heal state marker for a target.
func (s *FileStore) Save(name string, st domain.HealState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: target '%s': %w", errors.ErrStateWrite, name, err)
	}

	path := s.path(name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: target '%s': %w", errors.ErrStateWrite, name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: target '%s': %w", errors.ErrStateWrite, name, err)
	}
	if err := tmp.Chmod(perms.SecureFile); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: target '%s': %w", errors.ErrStateWrite, name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: target '%s': %w", errors.ErrStateWrite, name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: target '%s': %w", errors.ErrStateWrite, name, err)
	}

	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
