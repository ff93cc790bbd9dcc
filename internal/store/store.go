// Package store persists parsed match stats in a local sqlite database, one
// row per replay file. Map and players are stored as JSON text and decoded
// tolerantly on the way out, so a half-parsed row never breaks the read path.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	replay_file TEXT NOT NULL UNIQUE,
	game_version TEXT,
	map TEXT,
	game_type TEXT,
	duration INTEGER,
	winner TEXT,
	players TEXT,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_stats_timestamp ON game_stats (timestamp DESC);
`

// Row is one stored match. Map and Players hold the JSON text (or bare
// string) exactly as it was ingested.
type Row struct {
	ID          int
	ReplayFile  string
	GameVersion string
	Map         string
	GameType    string
	Duration    int
	Winner      string
	Players     string
	Timestamp   string
}

// Store wraps the sqlite connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a row, keyed by replay file. It reports false when the replay
// is already in the database.
func (s *Store) Insert(ctx context.Context, r Row) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO game_stats (replay_file, game_version, map, game_type, duration, winner, players, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(replay_file) DO NOTHING`,
		r.ReplayFile, r.GameVersion, r.Map, r.GameType, r.Duration, r.Winner, r.Players, r.Timestamp)
	if err != nil {
		return false, fmt.Errorf("insert game stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Has reports whether a replay file has already been ingested.
func (s *Store) Has(ctx context.Context, replayFile string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM game_stats WHERE replay_file = ?`, replayFile).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup replay: %w", err)
	}
	return true, nil
}

// All returns every stored match, newest first.
func (s *Store) All(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, replay_file, game_version, map, game_type, duration, winner, players, timestamp
		FROM game_stats ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("query game stats: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.ReplayFile, &r.GameVersion, &r.Map, &r.GameType,
			&r.Duration, &r.Winner, &r.Players, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan game stats: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
