// ABOUTME: JSON file persister writing snapshots atomically via temp-then-rename
// ABOUTME: Missing or corrupt files load as empty state, never as a fatal error

package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FilePersister stores snapshots as a single JSON document. Writes go to a
// temp file in the same directory followed by a rename, so a crash mid-write
// can never leave a truncated snapshot behind.
type FilePersister struct {
	path   string
	logger *slog.Logger
}

// NewFilePersister creates a file persister at path, creating parent
// directories as needed.
func NewFilePersister(path string) (*FilePersister, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &FilePersister{
		path:   path,
		logger: slog.Default().With("component", "snapshot"),
	}, nil
}

// Load reads the snapshot file. A missing file yields an empty snapshot; a
// corrupt file is logged and also yields an empty snapshot so startup never
// fails on bad state.
func (p *FilePersister) Load() (*Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		p.logger.Warn("snapshot file is corrupt, starting empty", "path", p.path, "error", err)
		return NewSnapshot(), nil
	}
	if snap.Profiles == nil {
		snap.Profiles = make(map[int64]*Profile)
	}
	if snap.Histories == nil {
		snap.Histories = make(map[int64][]Turn)
	}
	return &snap, nil
}

// Save writes the snapshot atomically.
func (p *FilePersister) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}

// Close implements Persister. File persisters hold no resources.
func (p *FilePersister) Close() error {
	return nil
}
