package data

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// fixed width so text ordering matches time ordering
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps the action log in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating when needed) the database at dbFilePath and
// applies pending migrations.
func NewSQLiteStore(ctx context.Context, dbFilePath string) (*SQLiteStore, error) {
	if dbFilePath == "" {
		return nil, errors.New("dbFilePath not specified")
	}
	if err := os.MkdirAll(filepath.Dir(dbFilePath), 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create database directory for: %s", dbFilePath)
	}

	db, err := sql.Open("sqlite", dbFilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", dbFilePath)
	}
	// single writer keeps sqlite free of SQLITE_BUSY under the HTTP server
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db, dialectSQLite); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to migrate database: %s", dbFilePath)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddAction(ctx context.Context, a *Action) error {
	if err := a.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO action (id, subject_id, action, note, created_at) VALUES (?, ?, ?, ?, ?)",
		a.ID.String(), a.SubjectID, a.Action, a.Note, a.CreatedAt.UTC().Format(sqliteTimeFormat))
	if err != nil {
		return errors.Wrap(err, "failed to insert action")
	}
	return nil
}

func (s *SQLiteStore) GetAction(ctx context.Context, id uuid.UUID) (*Action, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, subject_id, action, note, created_at FROM action WHERE id = ?", id.String())
	a, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *SQLiteStore) ListActions(ctx context.Context, subjectID string) ([]*Action, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, subject_id, action, note, created_at
		FROM action
		WHERE ? = '' OR subject_id = ?
		ORDER BY created_at, id`, subjectID, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query actions")
	}
	return scanActions(rows, func(r *sql.Rows) (*Action, error) { return scanSQLite(r) })
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(r scanner) (*Action, error) {
	var a Action
	var created string
	if err := r.Scan(&a.ID, &a.SubjectID, &a.Action, &a.Note, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(sqliteTimeFormat, created)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid created_at: %s", created)
	}
	a.CreatedAt = t
	return &a, nil
}
