package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS layouts (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	components  TEXT NOT NULL,
	grid        TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id                   TEXT PRIMARY KEY,
	persona              TEXT NOT NULL,
	preferences          TEXT NOT NULL,
	consciousness_state  REAL NOT NULL,
	updated_at           TEXT NOT NULL
);
`

// SQLite stores layouts and profiles in a SQLite database. Documents are
// kept as JSON text columns.
type SQLite struct {
	db *sql.DB
}

var _ Repository = (*SQLite)(nil)

// NewSQLite opens the database at path and runs migrations
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite", goerr.V("path", path))
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to enable WAL", goerr.V("path", path))
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to migrate sqlite", goerr.V("path", path))
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) GetLayout(ctx context.Context, id model.LayoutID) (*model.Layout, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, components, grid FROM layouts WHERE id = ?`, string(id))

	l, err := scanLayout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrLayoutNotFound, "failed to get layout", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get layout", goerr.V("id", id))
	}
	return l, nil
}

func (s *SQLite) PutLayout(ctx context.Context, layout *model.Layout) error {
	if err := layout.Validate(); err != nil {
		return goerr.Wrap(err, "invalid layout", goerr.V("id", layout.ID))
	}

	components, err := json.Marshal(layout.Components)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal components", goerr.V("id", layout.ID))
	}
	grid, err := json.Marshal(layout.Grid)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal grid", goerr.V("id", layout.ID))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO layouts (id, name, components, grid, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			components = excluded.components,
			grid = excluded.grid,
			updated_at = excluded.updated_at`,
		string(layout.ID), layout.Name, string(components), string(grid), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put layout", goerr.V("id", layout.ID))
	}
	return nil
}

func (s *SQLite) ListLayouts(ctx context.Context) ([]*model.Layout, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, components, grid FROM layouts ORDER BY id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list layouts")
	}
	defer rows.Close()

	var layouts []*model.Layout
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan layout")
		}
		layouts = append(layouts, l)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate layouts")
	}
	return layouts, nil
}

func (s *SQLite) GetProfile(ctx context.Context, id model.ProfileID) (*model.UserProfile, error) {
	var (
		p           model.UserProfile
		preferences string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, persona, preferences, consciousness_state FROM profiles WHERE id = ?`, string(id),
	).Scan(&p.ID, &p.Persona, &preferences, &p.ConsciousnessState)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrProfileNotFound, "failed to get profile", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V("id", id))
	}

	if p.Preferences, err = model.ParseJSON([]byte(preferences)); err != nil {
		return nil, goerr.Wrap(err, "failed to decode preferences", goerr.V("id", id))
	}
	return &p, nil
}

func (s *SQLite) PutProfile(ctx context.Context, profile *model.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return goerr.Wrap(err, "invalid profile", goerr.V("id", profile.ID))
	}

	preferences, err := json.Marshal(profile.Preferences)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal preferences", goerr.V("id", profile.ID))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, persona, preferences, consciousness_state, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			persona = excluded.persona,
			preferences = excluded.preferences,
			consciousness_state = excluded.consciousness_state,
			updated_at = excluded.updated_at`,
		string(profile.ID), profile.Persona, string(preferences), profile.ConsciousnessState,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put profile", goerr.V("id", profile.ID))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLayout(row scanner) (*model.Layout, error) {
	var (
		l          model.Layout
		components string
		grid       string
	)
	if err := row.Scan(&l.ID, &l.Name, &components, &grid); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(components), &l.Components); err != nil {
		return nil, goerr.Wrap(err, "failed to decode components", goerr.V("id", l.ID))
	}
	g, err := model.ParseJSON([]byte(grid))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode grid", goerr.V("id", l.ID))
	}
	l.Grid = g
	return &l, nil
}
