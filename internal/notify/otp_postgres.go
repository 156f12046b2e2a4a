package notify

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"telecaller-platform/pkg/utils"
)

// PostgresOTPStore keeps one row per issued code in otp_requests.
// Only the newest unexpired row for a destination is verifiable, so
// reissuing a code invalidates earlier ones.
type PostgresOTPStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresOTPStore(db *sql.DB) *PostgresOTPStore {
	return &PostgresOTPStore{db: db, clock: time.Now}
}

func (s *PostgresOTPStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS otp_requests (
  otp_id      BIGSERIAL PRIMARY KEY,
  destination TEXT NOT NULL,
  otp_code    TEXT NOT NULL,
  expires_at  TIMESTAMPTZ NOT NULL,
  consumed    BOOLEAN NOT NULL DEFAULT FALSE,
  created_at  TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS otp_requests_destination_idx
  ON otp_requests (destination, otp_id DESC)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresOTPStore) Save(ctx context.Context, destination, code string, expiresAt time.Time) error {
	const q = `
INSERT INTO otp_requests (destination, otp_code, expires_at, consumed, created_at)
VALUES ($1, $2, $3, FALSE, $4)`
	_, err := s.db.ExecContext(ctx, q, destination, code, expiresAt.UTC(), s.clock().UTC())
	return err
}

func (s *PostgresOTPStore) Consume(ctx context.Context, destination, code string) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
SELECT otp_id, otp_code, consumed
FROM otp_requests
WHERE destination = $1 AND expires_at > $2
ORDER BY otp_id DESC
LIMIT 1
FOR UPDATE`
		var (
			id       int64
			stored   string
			consumed bool
		)
		err := tx.QueryRowContext(ctx, q, destination, s.clock().UTC()).Scan(&id, &stored, &consumed)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOTPExpired
		}
		if err != nil {
			return err
		}
		if consumed {
			return ErrOTPExpired
		}
		if stored != code {
			return ErrOTPMismatch
		}
		_, err = tx.ExecContext(ctx, `UPDATE otp_requests SET consumed = TRUE WHERE otp_id = $1`, id)
		return err
	})
}
