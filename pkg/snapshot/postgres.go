package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ftpwatch_states (
	state_key    TEXT PRIMARY KEY,
	version      INTEGER NOT NULL,
	last_checked TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS ftpwatch_entries (
	state_key TEXT NOT NULL REFERENCES ftpwatch_states(state_key) ON DELETE CASCADE,
	path      TEXT NOT NULL,
	type      TEXT NOT NULL,
	mtime     BIGINT NOT NULL,
	PRIMARY KEY (state_key, path)
);`

// PostgresBackend stores states as rows, one per tracked path
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend opens the database and creates the tables if needed.
func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state tables: %w", err)
	}

	return &PostgresBackend{db: db}, nil
}

// Load reads the state rows for key. Returns a new empty state if none are stored.
func (b *PostgresBackend) Load(ctx context.Context, key string) (*State, error) {
	state := NewState(key)

	var lastChecked sql.NullTime
	err := b.db.QueryRowContext(ctx,
		`SELECT version, last_checked FROM ftpwatch_states WHERE state_key = $1`, key,
	).Scan(&state.Version, &lastChecked)
	if err == sql.ErrNoRows {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}
	if state.Version > stateVersion {
		return nil, fmt.Errorf("state version %d is newer than supported version %d", state.Version, stateVersion)
	}
	if lastChecked.Valid {
		state.LastChecked = lastChecked.Time
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT path, type, mtime FROM ftpwatch_entries WHERE state_key = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		var e Entry
		if err := rows.Scan(&path, &e.Type, &e.MTime); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		state.Files[path] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return state, nil
}

// Save replaces the stored rows for the state's key in one transaction
func (b *PostgresBackend) Save(ctx context.Context, state *State) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lastChecked sql.NullTime
	if !state.LastChecked.IsZero() {
		lastChecked = sql.NullTime{Time: state.LastChecked, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ftpwatch_states (state_key, version, last_checked)
		VALUES ($1, $2, $3)
		ON CONFLICT (state_key) DO UPDATE SET version = EXCLUDED.version, last_checked = EXCLUDED.last_checked`,
		state.Key, stateVersion, lastChecked)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ftpwatch_entries WHERE state_key = $1`, state.Key); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ftpwatch_entries (state_key, path, type, mtime) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for path, e := range state.Files {
		if _, err := stmt.ExecContext(ctx, state.Key, path, e.Type, e.MTime); err != nil {
			return fmt.Errorf("insert entry %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

// Clear deletes the state for key; entries cascade
func (b *PostgresBackend) Clear(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM ftpwatch_states WHERE state_key = $1`, key); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// Close closes the database connection
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

func (b *PostgresBackend) Name() string {
	return KindPostgres
}
