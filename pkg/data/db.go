// Package data persists the intervention action log. Risk scores are always
// recomputed and never stored.
package data

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DataFileName is the default SQLite file name.
	DataFileName = "data.db"

	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

var (
	//go:embed sql/*
	f embed.FS
)

// Open returns a PostgreSQL store when postgresURL is set and a SQLite store
// at dbPath otherwise. Migrations are applied before returning.
func Open(ctx context.Context, dbPath, postgresURL string) (Store, error) {
	if postgresURL != "" {
		return NewPostgresStore(ctx, postgresURL)
	}
	return NewSQLiteStore(ctx, dbPath)
}

type migration struct {
	version int
	name    string
	body    string
}

func migrations(dialect string) ([]migration, error) {
	dir := path.Join("sql", dialect)
	entries, err := fs.ReadDir(f, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read migrations for %s", dialect)
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid migration name: %s", e.Name())
		}
		b, err := f.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration: %s", e.Name())
		}
		out = append(out, migration{version: v, name: e.Name(), body: string(b)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrate applies the dialect's pending migrations, each in its own
// transaction, and records them in schema_version.
func migrate(ctx context.Context, db *sql.DB, dialect string) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL PRIMARY KEY,
		name TEXT NOT NULL
	)`); err != nil {
		return errors.Wrap(err, "failed to create schema_version table")
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}

	ms, err := migrations(dialect)
	if err != nil {
		return err
	}

	insert := "INSERT INTO schema_version (version, name) VALUES (?, ?)"
	if dialect == dialectPostgres {
		insert = "INSERT INTO schema_version (version, name) VALUES ($1, $2)"
	}

	for _, m := range ms {
		if m.version <= current {
			continue
		}
		slog.Debug("applying migration", "dialect", dialect, "name", m.name)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "failed to begin migration")
		}
		if _, err := tx.ExecContext(ctx, m.body); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to apply migration %s", m.name)
		}
		if _, err := tx.ExecContext(ctx, insert, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to record migration %s", m.name)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "failed to commit migration %s", m.name)
		}
	}

	return nil
}

func scanActions(rows *sql.Rows, scan func(*sql.Rows) (*Action, error)) ([]*Action, error) {
	defer rows.Close()

	list := make([]*Action, 0)
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}
	return list, nil
}
