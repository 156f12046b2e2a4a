package notify

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteOTPStore implements OTPStore over modernc.org/sqlite with the
// same one-row-per-request semantics as the Postgres store. The
// single-writer connection makes the check-then-consume sequence
// atomic without row locks.
type SQLiteOTPStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewSQLiteOTPStore(db *sql.DB) *SQLiteOTPStore {
	return &SQLiteOTPStore{db: db, clock: time.Now}
}

func (s *SQLiteOTPStore) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS otp_requests (
  otp_id      INTEGER PRIMARY KEY AUTOINCREMENT,
  destination TEXT NOT NULL,
  otp_code    TEXT NOT NULL,
  expires_at  INTEGER NOT NULL,
  consumed    INTEGER NOT NULL DEFAULT 0,
  created_at  INTEGER NOT NULL
)`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *SQLiteOTPStore) Save(ctx context.Context, destination, code string, expiresAt time.Time) error {
	const q = `
INSERT INTO otp_requests (destination, otp_code, expires_at, consumed, created_at)
VALUES (?, ?, ?, 0, ?)`
	_, err := s.db.ExecContext(ctx, q, destination, code, expiresAt.Unix(), s.clock().Unix())
	return err
}

func (s *SQLiteOTPStore) Consume(ctx context.Context, destination, code string) error {
	const q = `
SELECT otp_id, otp_code, consumed
FROM otp_requests
WHERE destination = ? AND expires_at > ?
ORDER BY otp_id DESC
LIMIT 1`
	var (
		id       int64
		stored   string
		consumed int
	)
	err := s.db.QueryRowContext(ctx, q, destination, s.clock().Unix()).Scan(&id, &stored, &consumed)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOTPExpired
	}
	if err != nil {
		return err
	}
	if consumed != 0 {
		return ErrOTPExpired
	}
	if stored != code {
		return ErrOTPMismatch
	}
	res, err := s.db.ExecContext(ctx, `UPDATE otp_requests SET consumed = 1 WHERE otp_id = ? AND consumed = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOTPExpired
	}
	return nil
}
