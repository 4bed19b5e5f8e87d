package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/itantech/napista/internal/event"
)

// DefaultPath is the snapshot location used when none is configured.
const DefaultPath = "data/events.json"

// Store handles persistence of the event snapshot
type Store struct {
	path string
}

// New creates a Store for the snapshot file at path.
func New(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	return &Store{
		path: path,
	}, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file is an error: there is nothing to
// fall back to.
func (s *Store) Load() ([]event.Event, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var events []event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if events == nil {
		return nil, fmt.Errorf("parsing snapshot: %s holds no event array", s.path)
	}

	return events, nil
}

// Save writes events to the snapshot file. The file is replaced atomically so
// readers never observe a partial snapshot.
func (s *Store) Save(events []event.Event) error {
	if events == nil {
		events = []event.Event{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".events-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}
