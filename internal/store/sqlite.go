// ABOUTME: SQLite persister keeping the snapshot in a single-row table
// ABOUTME: Uses modernc.org/sqlite; the transactional UPSERT is the atomicity equivalent of rename

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLitePersister stores snapshots in SQLite. The snapshot is still one
// structured record; the database buys crash-safe writes and easy external
// inspection, not a second data model.
type SQLitePersister struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLitePersister opens (or creates) the database at path.
func NewSQLitePersister(path string) (*SQLitePersister, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger := slog.Default().With("component", "snapshot")
	logger.Info("sqlite snapshot persister initialized", "path", path)
	return &SQLitePersister{db: db, logger: logger}, nil
}

// Load reads the snapshot row. No row means empty state; an unparseable row
// is logged and treated as empty, never fatal.
func (p *SQLitePersister) Load() (*Snapshot, error) {
	var data string
	err := p.db.QueryRow("SELECT data FROM snapshots WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot row: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		p.logger.Warn("snapshot row is corrupt, starting empty", "error", err)
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

// Save upserts the single snapshot row.
func (p *SQLitePersister) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	_, err = p.db.Exec(`
		INSERT INTO snapshots (id, data, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, string(data))
	if err != nil {
		return fmt.Errorf("writing snapshot row: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
