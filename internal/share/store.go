package share

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/fakeyudi/blockrec/internal/clock"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - no schema
// 1 - projects and saves tables
const currentSchemaVersion = 1

// Store keeps shared projects in SQLite.
type Store struct {
	db    *sql.DB
	clock clock.Clock
	rand  io.Reader
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for creation stamps and rate limiting.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithRand sets the randomness used for ids.
func WithRand(r io.Reader) Option {
	return func(s *Store) { s.rand = r }
}

// Open creates or opens the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open share database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect share database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, clock: clock.Real(), rand: rand.Reader}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("share database schema %d is newer than this build (%d)", version, currentSchemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Save stores a project for client and returns its share id. Requests over
// the client's rate limit fail with *RateLimitError.
func (s *Store) Save(ctx context.Context, client string, req Request) (string, error) {
	now := s.clock.Now()
	if err := s.checkRate(ctx, client, now); err != nil {
		return "", err
	}
	req, err := req.Normalize()
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < idAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO projects (id, title, board, mode, data, created, views) VALUES (?, ?, ?, ?, ?, ?, 0)`,
			id, req.Title, req.Board, req.Mode, req.Data, now.UTC().Format(time.RFC3339))
		if isConstraint(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("insert project: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO saves (client, at) VALUES (?, ?)`, client, now.Unix()); err != nil {
			return "", fmt.Errorf("record save: %w", err)
		}
		return id, nil
	}
	return "", ErrIDGeneration
}

func (s *Store) checkRate(ctx context.Context, client string, now time.Time) error {
	cutoff := now.Add(-time.Hour).Unix()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE at <= ?`, cutoff); err != nil {
		return fmt.Errorf("prune saves: %w", err)
	}

	var count int
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(at) FROM saves WHERE client = ? AND at > ?`, client, cutoff,
	).Scan(&count, &last)
	if err != nil {
		return fmt.Errorf("count saves: %w", err)
	}
	if count >= MaxPerHour {
		return &RateLimitError{Hourly: true}
	}
	if last.Valid {
		since := now.Sub(time.Unix(last.Int64, 0))
		if since < MinInterval {
			return &RateLimitError{Wait: (MinInterval - since).Truncate(time.Second)}
		}
	}
	return nil
}

// Load returns the project with the given id and counts the view.
func (s *Store) Load(ctx context.Context, id string) (*Project, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("count view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	var p Project
	var created string
	err = s.db.QueryRowContext(ctx,
		`SELECT id, title, board, mode, data, created, views FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Board, &p.Mode, &p.Data, &created, &p.Views)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if p.Created, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("%w: created %q", ErrCorruptedData, created)
	}
	return &p, nil
}

// newID draws characters by rejection sampling: bytes at or above the
// largest multiple of the alphabet size are discarded so every character is
// equally likely.
func (s *Store) newID() (string, error) {
	limit := 256 - 256%len(idAlphabet)
	id := make([]byte, 0, idLength)
	buf := make([]byte, idLength)
	for len(id) < idLength {
		n := idLength - len(id)
		if _, err := io.ReadFull(s.rand, buf[:n]); err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		for _, b := range buf[:n] {
			if int(b) < limit {
				id = append(id, idAlphabet[int(b)%len(idAlphabet)])
			}
		}
	}
	return string(id), nil
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
