// Package store persists resolved laps in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lapwatch/lapwatch-go/pkg/lapwatch"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "./laptimes.db"

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS players (
    id INTEGER PRIMARY KEY,
    name TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS cars (
    id INTEGER PRIMARY KEY,
    model TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS tracks (
    id INTEGER PRIMARY KEY,
    name TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS lap_times (
    id INTEGER PRIMARY KEY,
    player_id INTEGER,
    car_id INTEGER,
    track_id INTEGER,
    laptime_ms INTEGER,
    timestamp DATETIME DEFAULT (datetime('now')),
    FOREIGN KEY(player_id) REFERENCES players(id),
    FOREIGN KEY(car_id) REFERENCES cars(id),
    FOREIGN KEY(track_id) REFERENCES tracks(id)
);
`

// Entity is a name table referenced by lap times.
type Entity int

const (
	Player Entity = iota
	Car
	Track
)

// table returns the table and the name column of e.
func (e Entity) table() (string, string) {
	switch e {
	case Player:
		return "players", "name"
	case Car:
		return "cars", "model"
	case Track:
		return "tracks", "name"
	}
	panic(fmt.Sprintf("store: unknown entity %d", e))
}

func (e Entity) String() string {
	switch e {
	case Player:
		return "player"
	case Car:
		return "car"
	case Track:
		return "track"
	}
	return "unknown"
}

// BestLap is the fastest lap of a player in a car on a track.
type BestLap struct {
	Player   string    `json:"player"`
	Car      string    `json:"car"`
	Track    string    `json:"track"`
	LapMs    int64     `json:"laptime_ms"`
	Recorded time.Time `json:"timestamp"`
}

// Store is a SQLite lap store. It implements lapwatch.Store.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *slog.Logger
}

var _ lapwatch.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	// Foreign keys are enforced per connection, so they go in the DSN.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	s := &Store{
		db:  db,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.log.Debug("database ready", "path", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// execer is implemented by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetOrCreate returns the id of name in the table of e, inserting it if needed.
func (s *Store) GetOrCreate(ctx context.Context, e Entity, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return getOrCreate(ctx, s.db, e, name)
}

// InsertLapTime inserts a lap time row.
func (s *Store) InsertLapTime(ctx context.Context, playerID, carID, trackID, ms int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertLapTime(ctx, s.db, playerID, carID, trackID, ms)
}

// RecordLap resolves the lap's names to ids and inserts it, in one transaction.
func (s *Store) RecordLap(ctx context.Context, lap lapwatch.Lap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 3)
	for i, ref := range []struct {
		e    Entity
		name string
	}{{Player, lap.Player}, {Car, lap.Car}, {Track, lap.Track}} {
		if ids[i], err = getOrCreate(ctx, tx, ref.e, ref.name); err != nil {
			return err
		}
	}
	if err := insertLapTime(ctx, tx, ids[0], ids[1], ids[2], lap.LapMs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("lap stored", "player", lap.Player, "car", lap.Car, "track", lap.Track, "lap_ms", lap.LapMs)
	return nil
}

func getOrCreate(ctx context.Context, x execer, e Entity, name string) (int64, error) {
	table, column := e.table()

	var id int64
	err := x.QueryRowContext(ctx, fmt.Sprintf("SELECT id FROM %s WHERE %s = ?", table, column), name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up %s %q: %w", e, name, err)
	}

	res, err := x.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", table, column), name)
	if err != nil {
		return 0, fmt.Errorf("inserting %s %q: %w", e, name, err)
	}
	return res.LastInsertId()
}

func insertLapTime(ctx context.Context, x execer, playerID, carID, trackID, ms int64) error {
	_, err := x.ExecContext(ctx,
		"INSERT INTO lap_times (player_id, car_id, track_id, laptime_ms) VALUES (?, ?, ?, ?)",
		playerID, carID, trackID, ms)
	if err != nil {
		return fmt.Errorf("inserting lap time: %w", err)
	}
	return nil
}

const bestLapsQuery = `
WITH best_laps AS (
    SELECT player_id, car_id, track_id, MIN(laptime_ms) AS best_ms
    FROM lap_times
    WHERE track_id = (SELECT id FROM tracks WHERE name = ?)
    GROUP BY player_id, car_id, track_id
)
SELECT p.name, c.model, t.name, b.best_ms, MIN(l.timestamp)
FROM best_laps b
JOIN lap_times l
  ON l.player_id = b.player_id
 AND l.car_id = b.car_id
 AND l.track_id = b.track_id
 AND l.laptime_ms = b.best_ms
JOIN players p ON p.id = b.player_id
JOIN cars c ON c.id = b.car_id
JOIN tracks t ON t.id = b.track_id
GROUP BY b.player_id, b.car_id, b.track_id
ORDER BY b.best_ms ASC, p.name ASC
LIMIT ?
`

// BestLaps returns the fastest lap per player and car on track, fastest first.
func (s *Store) BestLaps(ctx context.Context, track string, limit int) ([]BestLap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, bestLapsQuery, track, limit)
	if err != nil {
		return nil, fmt.Errorf("querying best laps: %w", err)
	}
	return readBestLaps(rows)
}

const topPerTrackQuery = `
WITH best_per_track AS (
    SELECT track_id, MIN(laptime_ms) AS best_ms
    FROM lap_times
    GROUP BY track_id
)
SELECT p.name, c.model, t.name, l.laptime_ms, MIN(l.timestamp)
FROM best_per_track b
JOIN lap_times l
  ON l.track_id = b.track_id
 AND l.laptime_ms = b.best_ms
JOIN players p ON p.id = l.player_id
JOIN cars c ON c.id = l.car_id
JOIN tracks t ON t.id = l.track_id
GROUP BY l.track_id
ORDER BY t.name ASC
`

// TopPerTrack returns the track record of every track, by track name.
func (s *Store) TopPerTrack(ctx context.Context) ([]BestLap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, topPerTrackQuery)
	if err != nil {
		return nil, fmt.Errorf("querying track records: %w", err)
	}
	return readBestLaps(rows)
}

const playerLapsQuery = `
SELECT p.name, c.model, t.name, l.laptime_ms, l.timestamp
FROM lap_times l
JOIN players p ON p.id = l.player_id
JOIN cars c ON c.id = l.car_id
JOIN tracks t ON t.id = l.track_id
WHERE p.name = ?
ORDER BY l.laptime_ms ASC, l.id ASC
LIMIT ?
`

// PlayerLaps returns the laps of player on every track, fastest first.
func (s *Store) PlayerLaps(ctx context.Context, player string, limit int) ([]BestLap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, playerLapsQuery, player, limit)
	if err != nil {
		return nil, fmt.Errorf("querying player laps: %w", err)
	}
	return readBestLaps(rows)
}

// PlayerRecord summarizes the laps of one player across all tracks.
type PlayerRecord struct {
	Player string `json:"player"`
	BestMs int64  `json:"best_ms"`
	Laps   int    `json:"laps"`
}

const leaderboardQuery = `
SELECT p.name, MIN(l.laptime_ms) AS best_ms, COUNT(*)
FROM lap_times l
JOIN players p ON p.id = l.player_id
GROUP BY p.id
ORDER BY best_ms ASC, p.name ASC
LIMIT ?
`

// Leaderboard returns every player's fastest lap and lap count, fastest first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, leaderboardQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var records []PlayerRecord
	for rows.Next() {
		var r PlayerRecord
		if err := rows.Scan(&r.Player, &r.BestMs, &r.Laps); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Tracks returns the known track keys in name order.
func (s *Store) Tracks(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM tracks ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var tracks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tracks = append(tracks, name)
	}
	return tracks, rows.Err()
}

func readBestLaps(rows *sql.Rows) ([]BestLap, error) {
	defer rows.Close()

	var laps []BestLap
	for rows.Next() {
		var (
			l  BestLap
			ts sql.NullString
		)
		if err := rows.Scan(&l.Player, &l.Car, &l.Track, &l.LapMs, &ts); err != nil {
			return nil, err
		}
		if ts.Valid {
			l.Recorded = parseTimestamp(ts.String)
		}
		laps = append(laps, l)
	}
	return laps, rows.Err()
}

// parseTimestamp parses SQLite datetime('now') output, which is UTC.
// The driver may also hand back an RFC 3339 rendering.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
