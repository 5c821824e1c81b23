package production

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                 TEXT PRIMARY KEY,
	machine_id         TEXT NOT NULL,
	definition_version TEXT,
	current_state      TEXT NOT NULL,
	fields_json        TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	seq                INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS snapshots_machine ON snapshots(machine_id, seq);
`

// SQLitePersister keeps every saved snapshot; Load returns the newest.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister opens a SQLite database and runs migrations.
// Use ":memory:" for a throwaway store.
func NewSQLitePersister(dbPath string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLitePersister{db: db}, nil
}

// Close closes the underlying database connection.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

// Save appends the snapshot as a new version. An empty ID gets a fresh UUID.
func (p *SQLitePersister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	fieldsJSON, err := json.Marshal(snapshot.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots WHERE machine_id = ?`,
		snapshot.MachineID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, machine_id, definition_version, current_state, fields_json, created_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.MachineID,
		nullIfEmpty(snapshot.DefinitionVersion),
		snapshot.Current,
		string(fieldsJSON),
		snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
		seq,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns the most recent snapshot of machineID.
func (p *SQLitePersister) Load(ctx context.Context, machineID string) (Snapshot, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, machine_id, definition_version, current_state, fields_json, created_at
		 FROM snapshots WHERE machine_id = ? ORDER BY seq DESC LIMIT 1`,
		machineID,
	)
	s, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("machine %q: %w", machineID, err)
	}
	return s, nil
}

// LoadVersion returns the snapshot with the given ID.
func (p *SQLitePersister) LoadVersion(ctx context.Context, id string) (Snapshot, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, machine_id, definition_version, current_state, fields_json, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	)
	s, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", id, err)
	}
	return s, nil
}

// Versions lists snapshot IDs of machineID, newest first.
func (p *SQLitePersister) Versions(ctx context.Context, machineID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id FROM snapshots WHERE machine_id = ? ORDER BY seq DESC`,
		machineID,
	)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Machines lists every machine ID with at least one snapshot.
func (p *SQLitePersister) Machines(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT DISTINCT machine_id FROM snapshots ORDER BY machine_id`)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSnapshot(row *sql.Row) (Snapshot, error) {
	var (
		s          Snapshot
		defVersion sql.NullString
		fieldsJSON string
		createdAt  string
	)
	err := row.Scan(&s.ID, &s.MachineID, &defVersion, &s.Current, &fieldsJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	s.DefinitionVersion = defVersion.String
	if err := json.Unmarshal([]byte(fieldsJSON), &s.Fields); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	s.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse created_at: %w", err)
	}
	return s, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
