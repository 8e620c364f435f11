package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"trainpilot/internal/types"
)

// SQLiteStore persists history entries to a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the run database at the given path.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		config     TEXT NOT NULL,
		analysis   TEXT NOT NULL,
		status     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		selected   INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append writes one history entry.
func (s *SQLiteStore) Append(entry types.HistoryEntry) error {
	cfg, err := json.Marshal(entry.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	analysis, err := json.Marshal(entry.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (id, config, analysis, status, created_at, selected) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, string(cfg), string(analysis), string(entry.Status),
		entry.Timestamp.UTC().Format(time.RFC3339Nano), boolToInt(entry.Selected),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// SetSelected updates one entry's selection flag.
func (s *SQLiteStore) SetSelected(id string, selected bool) error {
	res, err := s.db.Exec(`UPDATE runs SET selected = ? WHERE id = ?`, boolToInt(selected), id)
	if err != nil {
		return fmt.Errorf("update selection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// List returns all persisted runs, oldest first.
func (s *SQLiteStore) List() ([]types.HistoryEntry, error) {
	rows, err := s.db.Query(`SELECT id, config, analysis, status, created_at, selected FROM runs ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []types.HistoryEntry
	for rows.Next() {
		var (
			entry         types.HistoryEntry
			cfg, analysis string
			status        string
			createdAt     string
			selected      int
		)
		if err := rows.Scan(&entry.ID, &cfg, &analysis, &status, &createdAt, &selected); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(cfg), &entry.Config); err != nil {
			return nil, fmt.Errorf("decode config for %s: %w", entry.ID, err)
		}
		if err := json.Unmarshal([]byte(analysis), &entry.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis for %s: %w", entry.ID, err)
		}
		entry.Status = types.RunStatus(status)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.Timestamp = ts
		}
		entry.Selected = selected != 0
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
