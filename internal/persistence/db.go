// Package persistence provides SQLite-based game storage. Each game is a
// world snapshot keyed by an opaque token, with a sliding expiry.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/regime-world/internal/snapshot"
	"github.com/talgya/regime-world/internal/world"
)

var (
	// ErrNotFound is returned for tokens with no stored game.
	ErrNotFound = errors.New("game not found")
	// ErrExpired is returned for games whose expiry has passed.
	ErrExpired = errors.New("game expired")
)

// DB wraps a SQLite connection for game storage.
type DB struct {
	conn *sqlx.DB
	ttl  time.Duration
	now  func() time.Time
}

// GameSummary is the listing row for one stored game.
type GameSummary struct {
	Token     string `db:"token" json:"token"`
	WorldID   string `db:"world_id" json:"world_id"`
	Step      int    `db:"step" json:"step"`
	Regimes   int    `db:"regimes" json:"regimes"`
	Done      bool   `db:"done" json:"done"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
	ExpiresAt int64  `db:"expires_at" json:"expires_at"`
}

// Open opens or creates a SQLite database at the given path. Games expire
// ttl after their last save or touch.
func Open(path string, ttl time.Duration) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, ttl: ttl, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		token TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		regimes INTEGER NOT NULL,
		done INTEGER NOT NULL,
		snapshot BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_expires ON games(expires_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) expiry(now time.Time) int64 {
	return now.Add(db.ttl).Unix()
}

// SaveGame writes the world for token, replacing any previous state and
// extending its expiry.
func (db *DB) SaveGame(token string, w *world.World) error {
	blob, err := snapshot.Encode(w)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", token, err)
	}

	now := db.now()
	_, err = db.conn.Exec(`INSERT INTO games
		(token, world_id, step, regimes, done, snapshot, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			world_id = excluded.world_id,
			step = excluded.step,
			regimes = excluded.regimes,
			done = excluded.done,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		token, w.ID, w.Step, len(w.Regimes), w.Done, blob, now.Unix(), now.Unix(), db.expiry(now),
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", token, err)
	}
	slog.Debug("game saved", "token", token, "step", w.Step, "size", humanize.Bytes(uint64(len(blob))))
	return nil
}

// LoadGame returns the stored world for token.
func (db *DB) LoadGame(token string) (*world.World, error) {
	var row struct {
		Snapshot  []byte `db:"snapshot"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := db.conn.Get(&row, "SELECT snapshot, expires_at FROM games WHERE token = ?", token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", token, err)
	}
	if row.ExpiresAt <= db.now().Unix() {
		return nil, ErrExpired
	}

	w, err := snapshot.Decode(row.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("decode game %s: %w", token, err)
	}
	return w, nil
}

// TouchGame extends the expiry of a live game.
func (db *DB) TouchGame(token string) error {
	now := db.now()
	res, err := db.conn.Exec(
		"UPDATE games SET expires_at = ? WHERE token = ? AND expires_at > ?",
		db.expiry(now), token, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("touch game %s: %w", token, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGame removes a game. Deleting a missing game is not an error.
func (db *DB) DeleteGame(token string) error {
	_, err := db.conn.Exec("DELETE FROM games WHERE token = ?", token)
	return err
}

// PurgeExpired deletes every expired game and returns how many were removed.
func (db *DB) PurgeExpired() (int64, error) {
	res, err := db.conn.Exec("DELETE FROM games WHERE expires_at <= ?", db.now().Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if n > 0 {
		slog.Info("expired games purged", "count", n)
	}
	return n, err
}

// ListGames returns live games, most recently updated first.
func (db *DB) ListGames(limit int) ([]GameSummary, error) {
	var games []GameSummary
	err := db.conn.Select(&games,
		`SELECT token, world_id, step, regimes, done, updated_at, expires_at
		FROM games WHERE expires_at > ? ORDER BY updated_at DESC, token LIMIT ?`,
		db.now().Unix(), limit,
	)
	return games, err
}

// StorageSize returns the total compressed size of stored snapshots.
func (db *DB) StorageSize() (uint64, error) {
	var n sql.NullInt64
	if err := db.conn.Get(&n, "SELECT SUM(LENGTH(snapshot)) FROM games"); err != nil {
		return 0, err
	}
	return uint64(n.Int64), nil
}

// SaveMeta stores a key-value pair in metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}
