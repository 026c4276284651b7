// Package store persists camera-link sessions: short URL-safe tokens
// mapped to the owning Telegram user and the image URL the token was
// minted for. Rows are never expired; a token stays valid until a later
// Put overwrites it. Known limitation: the table grows without bound.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get for unknown session ids. Callers must
// treat it as a request-level miss, not a store fault.
var ErrNotFound = errors.New("session not found")

// Session is one row of the user_sessions table
type Session struct {
	SessionID     string
	UserID        int64
	OriginalImage string
}

// Store is a sqlite-backed session registry shared by the bot loop and
// the webhook handlers. database/sql serializes access to the single
// connection handle, so both entry points may call it concurrently.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (and if needed creates) the session database at dbPath
func Open(dbPath string, logger zerolog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Str("path", dbPath).Msg("Session store opened")
	return s, nil
}

// initSchema creates the sessions table
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS user_sessions (
			user_id INTEGER,
			session_id TEXT PRIMARY KEY,
			original_image TEXT
		)
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put upserts a session row. A second Put with the same session id
// replaces the previous row, it never duplicates it.
func (s *Store) Put(ctx context.Context, sessionID string, userID int64, imageRef string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO user_sessions (user_id, session_id, original_image) VALUES (?, ?, ?)",
		userID, sessionID, imageRef,
	)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Int64("user_id", userID).
		Msg("Session stored")

	return nil
}

// Get looks up a session by id. Returns ErrNotFound for unknown ids.
func (s *Store) Get(ctx context.Context, sessionID string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, session_id, original_image FROM user_sessions WHERE session_id = ?",
		sessionID,
	).Scan(&sess.UserID, &sess.SessionID, &sess.OriginalImage)

	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	return sess, nil
}

// Count returns the number of stored sessions
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}
