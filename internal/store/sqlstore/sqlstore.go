// Package sqlstore is the SQLite-backed record store.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS pipelines (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS stages (
	id               TEXT PRIMARY KEY,
	pipeline_id      TEXT NOT NULL REFERENCES pipelines(id),
	name             TEXT NOT NULL,
	sort_order       INTEGER NOT NULL DEFAULT 0,
	deal_probability REAL
);
CREATE TABLE IF NOT EXISTS organizations (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS people (
	id              TEXT PRIMARY KEY,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	notes           TEXT NOT NULL DEFAULT '',
	organization_id TEXT REFERENCES organizations(id),
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS deals (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	stage_id   TEXT NOT NULL REFERENCES stages(id),
	amount     REAL,
	person_id  TEXT REFERENCES people(id),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stages_pipeline ON stages(pipeline_id, sort_order);
`

// Store implements store.Store on a SQLite database.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlstore: ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	return &Store{db: db, clock: func() time.Time { return time.Now().UTC() }}, nil
}

// Seed loads fixtures into an empty database. A database that already holds
// pipelines is left untouched.
func (s *Store) Seed(ctx context.Context, fx store.Fixtures) error {
	if err := fx.Validate(); err != nil {
		return fmt.Errorf("sqlstore: seed: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pipelines`).Scan(&count); err != nil {
		return fmt.Errorf("sqlstore: seed: count pipelines: %w", err)
	}
	if count > 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: seed: begin: %w", err)
	}
	defer tx.Rollback()

	now := s.clock()
	for i, p := range fx.Pipelines {
		if _, err := tx.ExecContext(ctx, `INSERT INTO pipelines (id, name, position) VALUES (?, ?, ?)`, p.ID, p.Name, i); err != nil {
			return fmt.Errorf("sqlstore: seed pipeline %s: %w", p.ID, err)
		}
		for _, st := range p.Stages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO stages (id, pipeline_id, name, sort_order, deal_probability) VALUES (?, ?, ?, ?, ?)`,
				st.ID, p.ID, st.Name, st.Order, nullFloat(st.DealProbability)); err != nil {
				return fmt.Errorf("sqlstore: seed stage %s: %w", st.ID, err)
			}
		}
	}
	for _, o := range fx.Organizations {
		if _, err := tx.ExecContext(ctx, `INSERT INTO organizations (id, name, address) VALUES (?, ?, ?)`, o.ID, o.Name, o.Address); err != nil {
			return fmt.Errorf("sqlstore: seed organization %s: %w", o.ID, err)
		}
	}
	for _, p := range fx.People {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO people (id, first_name, last_name, email, phone, notes, organization_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.Notes, nullString(p.OrganizationID), now, now); err != nil {
			return fmt.Errorf("sqlstore: seed person %s: %w", p.ID, err)
		}
	}
	for _, d := range fx.Deals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deals (id, name, stage_id, amount, person_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.StageID, nullFloat(d.Amount), nullString(d.PersonID), now, now); err != nil {
			return fmt.Errorf("sqlstore: seed deal %s: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: seed: commit: %w", err)
	}
	return nil
}

func (s *Store) Pipelines(ctx context.Context) ([]crm.Pipeline, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM pipelines ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: pipelines: %w", err)
	}
	defer rows.Close()
	var out []crm.Pipeline
	for rows.Next() {
		var p crm.Pipeline
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("sqlstore: scan pipeline: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Stages(ctx context.Context, pipelineID string) ([]crm.Stage, error) {
	if err := s.exists(ctx, "pipelines", pipelineID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pipeline_id, name, sort_order, deal_probability FROM stages WHERE pipeline_id = ? ORDER BY sort_order, name`,
		pipelineID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: stages: %w", err)
	}
	defer rows.Close()
	out := []crm.Stage{}
	for rows.Next() {
		var (
			st   crm.Stage
			prob sql.NullFloat64
		)
		if err := rows.Scan(&st.ID, &st.PipelineID, &st.Name, &st.Order, &prob); err != nil {
			return nil, fmt.Errorf("sqlstore: scan stage: %w", err)
		}
		st.DealProbability = floatPtr(prob)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) People(ctx context.Context) ([]crm.Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+personColumns+` FROM people`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: people: %w", err)
	}
	defer rows.Close()
	var out []crm.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortPeople(out)
	return out, nil
}

func (s *Store) Organizations(ctx context.Context) ([]crm.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: organizations: %w", err)
	}
	defer rows.Close()
	var out []crm.Organization
	for rows.Next() {
		var o crm.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Address); err != nil {
			return nil, fmt.Errorf("sqlstore: scan organization: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) Deals(ctx context.Context) ([]crm.Deal, error) {
	rows, err := s.db.QueryContext(ctx, dealQuery+` ORDER BY d.name, d.id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: deals: %w", err)
	}
	defer rows.Close()
	var out []crm.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Deal(ctx context.Context, id string) (crm.Deal, error) {
	d, err := scanDeal(s.db.QueryRowContext(ctx, dealQuery+` WHERE d.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return crm.Deal{}, fmt.Errorf("sqlstore: deal %q: %w", id, crm.ErrNotFound)
	}
	return d, err
}

func (s *Store) CreateDeal(ctx context.Context, input crm.DealInput) (crm.Deal, error) {
	in, err := s.resolveDeal(ctx, input)
	if err != nil {
		return crm.Deal{}, err
	}
	id := ulid.Make().String()
	now := s.clock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO deals (id, name, stage_id, amount, person_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.StageID, nullFloat(in.Amount), nullString(crm.Deref(in.PersonID)), now, now); err != nil {
		return crm.Deal{}, fmt.Errorf("sqlstore: create deal: %w", err)
	}
	return s.Deal(ctx, id)
}

func (s *Store) UpdateDeal(ctx context.Context, id string, input crm.DealInput) (crm.Deal, error) {
	in, err := s.resolveDeal(ctx, input)
	if err != nil {
		return crm.Deal{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE deals SET name = ?, stage_id = ?, amount = ?, person_id = ?, updated_at = ? WHERE id = ?`,
		in.Name, in.StageID, nullFloat(in.Amount), nullString(crm.Deref(in.PersonID)), s.clock(), id)
	if err != nil {
		return crm.Deal{}, fmt.Errorf("sqlstore: update deal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return crm.Deal{}, fmt.Errorf("sqlstore: deal %q: %w", id, crm.ErrNotFound)
	}
	return s.Deal(ctx, id)
}

func (s *Store) CreatePerson(ctx context.Context, input crm.PersonInput) (crm.Person, error) {
	if err := input.Validate(); err != nil {
		return crm.Person{}, fmt.Errorf("sqlstore: create person: %w", err)
	}
	in := input.Normalize()
	if in.OrganizationID != nil {
		if err := s.exists(ctx, "organizations", *in.OrganizationID); err != nil {
			return crm.Person{}, err
		}
	}
	id := ulid.Make().String()
	now := s.clock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO people (id, first_name, last_name, email, phone, notes, organization_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, crm.Deref(in.FirstName), crm.Deref(in.LastName), crm.Deref(in.Email), crm.Deref(in.Phone),
		crm.Deref(in.Notes), nullString(crm.Deref(in.OrganizationID)), now, now); err != nil {
		return crm.Person{}, fmt.Errorf("sqlstore: create person: %w", err)
	}
	return scanPerson(s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id))
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) resolveDeal(ctx context.Context, input crm.DealInput) (crm.DealInput, error) {
	if err := input.Validate(); err != nil {
		return crm.DealInput{}, fmt.Errorf("sqlstore: deal: %w", err)
	}
	in := input.Normalize()
	if err := s.exists(ctx, "stages", in.StageID); err != nil {
		return crm.DealInput{}, err
	}
	if in.PersonID != nil {
		if err := s.exists(ctx, "people", *in.PersonID); err != nil {
			return crm.DealInput{}, err
		}
	}
	return in, nil
}

// exists checks a row by id. table is always one of this package's constants.
func (s *Store) exists(ctx context.Context, table, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlstore: %s %q: %w", table, id, crm.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: lookup %s: %w", table, err)
	}
	return nil
}
