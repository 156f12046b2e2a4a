package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteStore implements Store over modernc.org/sqlite (CGO-free).
// SQLite keeps local and single-host deployments free of a Postgres
// dependency; queries use ? placeholders and Unix-epoch timestamps.
type SQLiteStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, clock: time.Now}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS partners (
  partner_id    INTEGER PRIMARY KEY AUTOINCREMENT,
  partner_name  TEXT NOT NULL,
  contact_type  TEXT NOT NULL DEFAULT '',
  contact_phone TEXT NOT NULL DEFAULT '',
  contact_email TEXT NOT NULL DEFAULT '',
  active        INTEGER NOT NULL DEFAULT 1,
  created_at    INTEGER NOT NULL,
  updated_at    INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS programs (
  program_id   INTEGER PRIMARY KEY AUTOINCREMENT,
  program_name TEXT NOT NULL,
  description  TEXT NOT NULL DEFAULT '',
  base_fees    INTEGER NOT NULL DEFAULT 0,
  category     TEXT NOT NULL DEFAULT '',
  created_at   INTEGER NOT NULL,
  updated_at   INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS program_events (
  event_id       INTEGER PRIMARY KEY AUTOINCREMENT,
  program_id     INTEGER NOT NULL,
  event_datetime INTEGER NOT NULL,
  fees           INTEGER NOT NULL DEFAULT 0,
  discount       INTEGER NOT NULL DEFAULT 0,
  seats          INTEGER NOT NULL DEFAULT 0,
  created_at     INTEGER NOT NULL,
  updated_at     INTEGER NOT NULL
)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetPartner(ctx context.Context, id int64) (Partner, error) {
	const q = `
SELECT partner_id, partner_name, contact_type, contact_phone, contact_email, active, created_at, updated_at
FROM partners WHERE partner_id = ?`
	var p Partner
	var active int
	var created, updated int64
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.ContactType, &p.Phone, &p.Email, &active, &created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Partner{}, ErrNotFound
		}
		return Partner{}, err
	}
	p.Active = active != 0
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

func (s *SQLiteStore) ListPartners(ctx context.Context, limit int) ([]Partner, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT partner_id, partner_name, contact_type, contact_phone, contact_email, active, created_at, updated_at
FROM partners ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Partner
	for rows.Next() {
		var p Partner
		var active int
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.Name, &p.ContactType, &p.Phone, &p.Email, &active, &created, &updated); err != nil {
			return nil, err
		}
		p.Active = active != 0
		p.CreatedAt = time.Unix(created, 0).UTC()
		p.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreatePartner(ctx context.Context, p Partner) (Partner, error) {
	if err := p.Validate(); err != nil {
		return Partner{}, err
	}
	now := s.clock().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	const q = `
INSERT INTO partners (partner_name, contact_type, contact_phone, contact_email, active, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)`
	res, err := s.db.ExecContext(ctx, q, p.Name, p.ContactType, p.Phone, p.Email, boolToInt(p.Active), now.Unix(), now.Unix())
	if err != nil {
		return Partner{}, err
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return Partner{}, err
	}
	return p, nil
}

func (s *SQLiteStore) GetProgram(ctx context.Context, id int64) (Program, error) {
	const q = `
SELECT program_id, program_name, description, base_fees, category, created_at, updated_at
FROM programs WHERE program_id = ?`
	var p Program
	var created, updated int64
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.BaseFees, &p.Category, &created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Program{}, ErrNotFound
		}
		return Program{}, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

func (s *SQLiteStore) ListPrograms(ctx context.Context, limit int) ([]Program, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT program_id, program_name, description, base_fees, category, created_at, updated_at
FROM programs ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.BaseFees, &p.Category, &created, &updated); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		p.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateProgram(ctx context.Context, p Program) (Program, error) {
	if err := p.Validate(); err != nil {
		return Program{}, err
	}
	now := s.clock().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	const q = `
INSERT INTO programs (program_name, description, base_fees, category, created_at, updated_at)
VALUES (?,?,?,?,?,?)`
	res, err := s.db.ExecContext(ctx, q, p.Name, p.Description, p.BaseFees, p.Category, now.Unix(), now.Unix())
	if err != nil {
		return Program{}, err
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return Program{}, err
	}
	return p, nil
}

func (s *SQLiteStore) GetEvent(ctx context.Context, id int64) (ProgramEvent, error) {
	const q = `
SELECT event_id, program_id, event_datetime, fees, discount, seats, created_at, updated_at
FROM program_events WHERE event_id = ?`
	var e ProgramEvent
	var starts, created, updated int64
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.ProgramID, &starts, &e.Fees, &e.Discount, &e.Seats, &created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProgramEvent{}, ErrNotFound
		}
		return ProgramEvent{}, err
	}
	e.StartsAt = time.Unix(starts, 0).UTC()
	e.CreatedAt = time.Unix(created, 0).UTC()
	e.UpdatedAt = time.Unix(updated, 0).UTC()
	return e, nil
}

func (s *SQLiteStore) ListEventsByProgram(ctx context.Context, programID int64) ([]ProgramEvent, error) {
	const q = `
SELECT event_id, program_id, event_datetime, fees, discount, seats, created_at, updated_at
FROM program_events WHERE program_id = ? ORDER BY event_datetime ASC`
	rows, err := s.db.QueryContext(ctx, q, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteEvents(rows)
}

func (s *SQLiteStore) UpcomingEvents(ctx context.Context, now time.Time, window time.Duration) ([]ProgramEvent, error) {
	const q = `
SELECT event_id, program_id, event_datetime, fees, discount, seats, created_at, updated_at
FROM program_events WHERE event_datetime >= ? AND event_datetime < ? ORDER BY event_datetime ASC`
	rows, err := s.db.QueryContext(ctx, q, now.Unix(), now.Add(window).Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteEvents(rows)
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, e ProgramEvent) (ProgramEvent, error) {
	if err := e.Validate(); err != nil {
		return ProgramEvent{}, err
	}
	now := s.clock().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	const q = `
INSERT INTO program_events (program_id, event_datetime, fees, discount, seats, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)`
	res, err := s.db.ExecContext(ctx, q, e.ProgramID, e.StartsAt.Unix(), e.Fees, e.Discount, e.Seats, now.Unix(), now.Unix())
	if err != nil {
		return ProgramEvent{}, err
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return ProgramEvent{}, err
	}
	return e, nil
}

func scanSQLiteEvents(rows *sql.Rows) ([]ProgramEvent, error) {
	var out []ProgramEvent
	for rows.Next() {
		var e ProgramEvent
		var starts, created, updated int64
		if err := rows.Scan(&e.ID, &e.ProgramID, &starts, &e.Fees, &e.Discount, &e.Seats, &created, &updated); err != nil {
			return nil, err
		}
		e.StartsAt = time.Unix(starts, 0).UTC()
		e.CreatedAt = time.Unix(created, 0).UTC()
		e.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
