package calllog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"telecaller-platform/pkg/utils"

	"github.com/google/uuid"
)

// PostgresStore implements Store over database/sql with the pgx stdlib driver.
//
// Finalize serializes per-row with SELECT ... FOR UPDATE so two status
// webhooks for the same call cannot both apply a terminal update.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS call_logs (
  call_id          TEXT PRIMARY KEY,
  partner_id       BIGINT NOT NULL DEFAULT 0,
  program_event_id BIGINT NOT NULL DEFAULT 0,
  call_sid         TEXT NOT NULL UNIQUE,
  to_number        TEXT NOT NULL,
  call_status      TEXT NOT NULL,
  started_at       TIMESTAMPTZ NOT NULL,
  ended_at         TIMESTAMPTZ,
  duration_seconds INT NOT NULL DEFAULT 0,
  outcome          TEXT NOT NULL DEFAULT '',
  transcript_path  TEXT NOT NULL DEFAULT '',
  recording_url    TEXT NOT NULL DEFAULT '',
  created_at       TIMESTAMPTZ NOT NULL,
  updated_at       TIMESTAMPTZ NOT NULL
)`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *PostgresStore) Create(ctx context.Context, log CallLog) (CallLog, error) {
	if log.CallSid == "" || log.ToNumber == "" {
		return CallLog{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = StatusInitiated
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = now
	}
	log.CreatedAt, log.UpdatedAt = now, now

	const q = `
INSERT INTO call_logs (
  call_id, partner_id, program_event_id, call_sid, to_number, call_status,
  started_at, ended_at, duration_seconds, outcome, transcript_path, recording_url,
  created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`
	_, err := s.db.ExecContext(ctx, q,
		log.ID, log.PartnerID, log.ProgramEventID, log.CallSid, log.ToNumber, log.Status,
		log.StartedAt, log.EndedAt, log.DurationSeconds, log.Outcome, log.TranscriptPath, log.RecordingURL,
		log.CreatedAt, log.UpdatedAt,
	)
	if err != nil {
		return CallLog{}, err
	}
	return log, nil
}

const selectColumns = `
SELECT call_id, partner_id, program_event_id, call_sid, to_number, call_status,
       started_at, ended_at, duration_seconds, outcome, transcript_path, recording_url,
       created_at, updated_at
FROM call_logs
`

func (s *PostgresStore) Get(ctx context.Context, id string) (CallLog, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+`WHERE call_id = $1`, id)
	return scanCallLog(row)
}

func (s *PostgresStore) GetByCallSid(ctx context.Context, callSid string) (CallLog, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+`WHERE call_sid = $1`, callSid)
	return scanCallLog(row)
}

func (s *PostgresStore) Finalize(ctx context.Context, callSid string, req FinalizeRequest) (CallLog, bool, error) {
	if callSid == "" || !req.Status.IsTerminal() {
		return CallLog{}, false, ErrInvalidArgument
	}

	var out CallLog
	applied := false

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, selectColumns+`WHERE call_sid = $1 FOR UPDATE`, callSid)
		cur, err := scanCallLog(row)
		if err != nil {
			return err
		}
		if cur.Status.IsTerminal() {
			out = cur
			return nil
		}

		now := s.clock().UTC()
		endedAt := req.EndedAt
		if endedAt.IsZero() {
			endedAt = now
		}

		const q = `
UPDATE call_logs
SET call_status = $2, ended_at = $3, duration_seconds = $4,
    outcome = $5, transcript_path = $6, recording_url = $7, updated_at = $8
WHERE call_sid = $1
`
		if _, err := tx.ExecContext(ctx, q,
			callSid, req.Status, endedAt, req.DurationSeconds,
			req.Outcome, req.TranscriptPath, req.RecordingURL, now,
		); err != nil {
			return err
		}

		cur.Status = req.Status
		cur.EndedAt = &endedAt
		cur.DurationSeconds = req.DurationSeconds
		cur.Outcome = req.Outcome
		cur.TranscriptPath = req.TranscriptPath
		cur.RecordingURL = req.RecordingURL
		cur.UpdatedAt = now
		out = cur
		applied = true
		return nil
	})
	if err != nil {
		return CallLog{}, false, err
	}
	return out, applied, nil
}

func (s *PostgresStore) List(ctx context.Context, from, to time.Time, limit int) ([]CallLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
WHERE started_at >= $1 AND started_at < $2
ORDER BY started_at DESC
LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		l, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallLog(row rowScanner) (CallLog, error) {
	var l CallLog
	var ended sql.NullTime
	err := row.Scan(
		&l.ID, &l.PartnerID, &l.ProgramEventID, &l.CallSid, &l.ToNumber, &l.Status,
		&l.StartedAt, &ended, &l.DurationSeconds, &l.Outcome, &l.TranscriptPath, &l.RecordingURL,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	if ended.Valid {
		t := ended.Time
		l.EndedAt = &t
	}
	return l, nil
}
