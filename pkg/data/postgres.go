package data

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// PostgresStore keeps the action log in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to url and applies pending migrations.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	if err := migrate(ctx, db, dialectPostgres); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate postgres")
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) AddAction(ctx context.Context, a *Action) error {
	if err := a.validate(); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO action (id, subject_id, action, note, created_at) VALUES ($1, $2, $3, $4, $5)",
		a.ID, a.SubjectID, a.Action, a.Note, a.CreatedAt.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return errors.Wrapf(err, "action %s already exists", a.ID)
		}
		return errors.Wrap(err, "failed to insert action")
	}
	return nil
}

func (p *PostgresStore) GetAction(ctx context.Context, id uuid.UUID) (*Action, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT id, subject_id, action, note, created_at FROM action WHERE id = $1", id)
	a, err := scanPostgres(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (p *PostgresStore) ListActions(ctx context.Context, subjectID string) ([]*Action, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, subject_id, action, note, created_at
		FROM action
		WHERE $1::text = '' OR subject_id = $1
		ORDER BY created_at, id`, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query actions")
	}
	return scanActions(rows, func(r *sql.Rows) (*Action, error) { return scanPostgres(r) })
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func scanPostgres(r scanner) (*Action, error) {
	var a Action
	if err := r.Scan(&a.ID, &a.SubjectID, &a.Action, &a.Note, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
