package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/justdancerequests/overlay/internal/streamer"
)

// ErrNotInitialized is returned when the store is used before Init.
var ErrNotInitialized = errors.New("store not initialized")

// Store persists streamer configurations and the song request history in an
// embedded SQLite database (modernc.org/sqlite, no CGO).
type Store struct {
	dbPath string
	db     *sql.DB
}

// NewStore creates a Store at dbPath. Call Init before using it.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Init opens the database, sets pragmas and creates the schema.
func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA synchronous=NORMAL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("exec %q: %w", pragma, err)
		}
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS streamer_configurations (
			streamer_id TEXT PRIMARY KEY,
			payload     TEXT NOT NULL,
			updated_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS song_requests (
			id             TEXT PRIMARY KEY,
			song_id        TEXT NOT NULL,
			title          TEXT NOT NULL DEFAULT '',
			artist         TEXT NOT NULL DEFAULT '',
			status_type    TEXT NOT NULL,
			status_message TEXT NOT NULL DEFAULT '',
			requested_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_song_requests_requested_at ON song_requests(requested_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveConfiguration upserts the configuration of a streamer.
func (s *Store) SaveConfiguration(ctx context.Context, streamerID string, cfg streamer.StreamerConfiguration) error {
	if s.db == nil {
		return ErrNotInitialized
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO streamer_configurations (streamer_id, payload, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(streamer_id) DO UPDATE SET
		   payload=excluded.payload,
		   updated_at=excluded.updated_at`,
		streamerID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save configuration %s: %w", streamerID, err)
	}
	return nil
}

// LoadConfiguration returns the stored configuration and whether one existed.
func (s *Store) LoadConfiguration(ctx context.Context, streamerID string) (streamer.StreamerConfiguration, bool, error) {
	if s.db == nil {
		return streamer.StreamerConfiguration{}, false, ErrNotInitialized
	}
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM streamer_configurations WHERE streamer_id = ?`, streamerID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return streamer.StreamerConfiguration{}, false, nil
	}
	if err != nil {
		return streamer.StreamerConfiguration{}, false, fmt.Errorf("load configuration %s: %w", streamerID, err)
	}

	cfg := streamer.Default()
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return streamer.StreamerConfiguration{}, false, fmt.Errorf("decode configuration %s: %w", streamerID, err)
	}
	return cfg, true, nil
}

// RequestRecord is one song request outcome.
type RequestRecord struct {
	ID            string    `json:"id"`
	SongID        string    `json:"song_id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	StatusType    string    `json:"status_type"`
	StatusMessage string    `json:"status_message"`
	RequestedAt   time.Time `json:"requested_at"`
}

// RecordRequest appends a request outcome. Empty ID and time are filled in.
func (s *Store) RecordRequest(ctx context.Context, r RequestRecord) (RequestRecord, error) {
	if s.db == nil {
		return r, ErrNotInitialized
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now()
	}
	r.RequestedAt = r.RequestedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO song_requests (id, song_id, title, artist, status_type, status_message, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SongID, r.Title, r.Artist, r.StatusType, r.StatusMessage, r.RequestedAt,
	)
	if err != nil {
		return r, fmt.Errorf("record request %s: %w", r.SongID, err)
	}
	return r, nil
}

// ListRequests returns the most recent request outcomes, newest first.
func (s *Store) ListRequests(ctx context.Context, limit int) ([]RequestRecord, error) {
	if s.db == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, song_id, title, artist, status_type, status_message, requested_at
		 FROM song_requests ORDER BY requested_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	out := make([]RequestRecord, 0)
	for rows.Next() {
		var r RequestRecord
		if err := rows.Scan(&r.ID, &r.SongID, &r.Title, &r.Artist, &r.StatusType, &r.StatusMessage, &r.RequestedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
