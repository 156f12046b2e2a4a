package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresStore implements Store over database/sql with the pgx stdlib driver.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

// Migrate creates catalog tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS partners (
  partner_id    BIGSERIAL PRIMARY KEY,
  partner_name  TEXT NOT NULL,
  contact_type  TEXT NOT NULL DEFAULT '',
  contact_phone TEXT NOT NULL DEFAULT '',
  contact_email TEXT NOT NULL DEFAULT '',
  active        BOOLEAN NOT NULL DEFAULT TRUE,
  created_at    TIMESTAMPTZ NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS programs (
  program_id   BIGSERIAL PRIMARY KEY,
  program_name TEXT NOT NULL,
  description  TEXT NOT NULL DEFAULT '',
  base_fees    BIGINT NOT NULL DEFAULT 0,
  category     TEXT NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL,
  updated_at   TIMESTAMPTZ NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS program_events (
  event_id       BIGSERIAL PRIMARY KEY,
  program_id     BIGINT NOT NULL REFERENCES programs(program_id),
  event_datetime TIMESTAMPTZ NOT NULL,
  fees           BIGINT NOT NULL DEFAULT 0,
  discount       BIGINT NOT NULL DEFAULT 0,
  seats          INT NOT NULL DEFAULT 0,
  created_at     TIMESTAMPTZ NOT NULL,
  updated_at     TIMESTAMPTZ NOT NULL
)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) GetPartner(ctx context.Context, id int64) (Partner, error) {
	const q = `
SELECT partner_id, partner_name, contact_type, contact_phone, contact_email, active, created_at, updated_at
FROM partners
WHERE partner_id = $1
`
	var p Partner
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.ContactType, &p.Phone, &p.Email, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Partner{}, ErrNotFound
		}
		return Partner{}, err
	}
	return p, nil
}

func (s *PostgresStore) ListPartners(ctx context.Context, limit int) ([]Partner, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT partner_id, partner_name, contact_type, contact_phone, contact_email, active, created_at, updated_at
FROM partners
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.ContactType, &p.Phone, &p.Email, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreatePartner(ctx context.Context, p Partner) (Partner, error) {
	if err := p.Validate(); err != nil {
		return Partner{}, err
	}
	now := s.clock().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	const q = `
INSERT INTO partners (partner_name, contact_type, contact_phone, contact_email, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING partner_id
`
	if err := s.db.QueryRowContext(ctx, q, p.Name, p.ContactType, p.Phone, p.Email, p.Active, p.CreatedAt, p.UpdatedAt).Scan(&p.ID); err != nil {
		return Partner{}, err
	}
	return p, nil
}

func (s *PostgresStore) GetProgram(ctx context.Context, id int64) (Program, error) {
	const q = `
SELECT program_id, program_name, description, base_fees, category, created_at, updated_at
FROM programs
WHERE program_id = $1
`
	var p Program
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.BaseFees, &p.Category, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Program{}, ErrNotFound
		}
		return Program{}, err
	}
	return p, nil
}

func (s *PostgresStore) ListPrograms(ctx context.Context, limit int) ([]Program, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT program_id, program_name, description, base_fees, category, created_at, updated_at
FROM programs
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.BaseFees, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateProgram(ctx context.Context, p Program) (Program, error) {
	if err := p.Validate(); err != nil {
		return Program{}, err
	}
	now := s.clock().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	const q = `
INSERT INTO programs (program_name, description, base_fees, category, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING program_id
`
	if err := s.db.QueryRowContext(ctx, q, p.Name, p.Description, p.BaseFees, p.Category, p.CreatedAt, p.UpdatedAt).Scan(&p.ID); err != nil {
		return Program{}, err
	}
	return p, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (ProgramEvent, error) {
	const q = `
SELECT event_id, program_id, event_datetime, fees, discount, seats, created_at, updated_at
FROM program_events
WHERE event_id = $1
`
	var e ProgramEvent
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.ProgramID, &e.StartsAt, &e.Fees, &e.Discount, &e.Seats, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProgramEvent{}, ErrNotFound
		}
		return ProgramEvent{}, err
	}
	return e, nil
}

func (s *PostgresStore) ListEventsByProgram(ctx context.Context, programID int64) ([]ProgramEvent, error) {
	const q = `
SELECT event_id, program_id, event_datetime, fees, discount, seats, created_at, updated_at
FROM program_events
WHERE program_id = $1
ORDER BY event_datetime ASC
`
	rows, err := s.db.QueryContext(ctx, q, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) UpcomingEvents(ctx context.Context, now time.Time, window time.Duration) ([]ProgramEvent, error) {
	const q = `
SELECT event_id, program_id, event_datetime, fees, discount, seats, created_at, updated_at
FROM program_events
WHERE event_datetime >= $1 AND event_datetime < $2
ORDER BY event_datetime ASC
`
	rows, err := s.db.QueryContext(ctx, q, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) CreateEvent(ctx context.Context, e ProgramEvent) (ProgramEvent, error) {
	if err := e.Validate(); err != nil {
		return ProgramEvent{}, err
	}
	now := s.clock().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	const q = `
INSERT INTO program_events (program_id, event_datetime, fees, discount, seats, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING event_id
`
	if err := s.db.QueryRowContext(ctx, q, e.ProgramID, e.StartsAt, e.Fees, e.Discount, e.Seats, e.CreatedAt, e.UpdatedAt).Scan(&e.ID); err != nil {
		return ProgramEvent{}, err
	}
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]ProgramEvent, error) {
	var out []ProgramEvent
	for rows.Next() {
		var e ProgramEvent
		if err := rows.Scan(&e.ID, &e.ProgramID, &e.StartsAt, &e.Fees, &e.Discount, &e.Seats, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
