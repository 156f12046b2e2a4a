package calllog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore implements Store over modernc.org/sqlite.
//
// SQLite has no FOR UPDATE; Finalize instead relies on a conditional
// UPDATE guarded on non-terminal status, which the single-writer model
// makes atomic.
type SQLiteStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, clock: time.Now}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS call_logs (
  call_id          TEXT PRIMARY KEY,
  partner_id       INTEGER NOT NULL DEFAULT 0,
  program_event_id INTEGER NOT NULL DEFAULT 0,
  call_sid         TEXT NOT NULL UNIQUE,
  to_number        TEXT NOT NULL,
  call_status      TEXT NOT NULL,
  started_at       INTEGER NOT NULL,
  ended_at         INTEGER,
  duration_seconds INTEGER NOT NULL DEFAULT 0,
  outcome          TEXT NOT NULL DEFAULT '',
  transcript_path  TEXT NOT NULL DEFAULT '',
  recording_url    TEXT NOT NULL DEFAULT '',
  created_at       INTEGER NOT NULL,
  updated_at       INTEGER NOT NULL
)`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, log CallLog) (CallLog, error) {
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
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	var ended any
	if log.EndedAt != nil {
		ended = log.EndedAt.Unix()
	}
	_, err := s.db.ExecContext(ctx, q,
		log.ID, log.PartnerID, log.ProgramEventID, log.CallSid, log.ToNumber, log.Status,
		log.StartedAt.Unix(), ended, log.DurationSeconds, log.Outcome, log.TranscriptPath, log.RecordingURL,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		return CallLog{}, err
	}
	return log, nil
}

const sqliteSelect = `
SELECT call_id, partner_id, program_event_id, call_sid, to_number, call_status,
       started_at, ended_at, duration_seconds, outcome, transcript_path, recording_url,
       created_at, updated_at
FROM call_logs
`

func (s *SQLiteStore) Get(ctx context.Context, id string) (CallLog, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+`WHERE call_id = ?`, id)
	return scanSQLiteCallLog(row)
}

func (s *SQLiteStore) GetByCallSid(ctx context.Context, callSid string) (CallLog, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+`WHERE call_sid = ?`, callSid)
	return scanSQLiteCallLog(row)
}

func (s *SQLiteStore) Finalize(ctx context.Context, callSid string, req FinalizeRequest) (CallLog, bool, error) {
	if callSid == "" || !req.Status.IsTerminal() {
		return CallLog{}, false, ErrInvalidArgument
	}

	now := s.clock().UTC()
	endedAt := req.EndedAt
	if endedAt.IsZero() {
		endedAt = now
	}

	const q = `
UPDATE call_logs
SET call_status = ?, ended_at = ?, duration_seconds = ?,
    outcome = ?, transcript_path = ?, recording_url = ?, updated_at = ?
WHERE call_sid = ?
  AND call_status NOT IN ('completed','busy','no-answer','failed')`
	res, err := s.db.ExecContext(ctx, q,
		req.Status, endedAt.Unix(), req.DurationSeconds,
		req.Outcome, req.TranscriptPath, req.RecordingURL, now.Unix(),
		callSid,
	)
	if err != nil {
		return CallLog{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return CallLog{}, false, err
	}

	out, err := s.GetByCallSid(ctx, callSid)
	if err != nil {
		return CallLog{}, false, err
	}
	return out, n > 0, nil
}

func (s *SQLiteStore) List(ctx context.Context, from, to time.Time, limit int) ([]CallLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, sqliteSelect+`
WHERE started_at >= ? AND started_at < ?
ORDER BY started_at DESC
LIMIT ?`, from.Unix(), to.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		l, err := scanSQLiteCallLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanSQLiteCallLog(row rowScanner) (CallLog, error) {
	var l CallLog
	var started, created, updated int64
	var ended sql.NullInt64
	err := row.Scan(
		&l.ID, &l.PartnerID, &l.ProgramEventID, &l.CallSid, &l.ToNumber, &l.Status,
		&started, &ended, &l.DurationSeconds, &l.Outcome, &l.TranscriptPath, &l.RecordingURL,
		&created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	l.StartedAt = time.Unix(started, 0).UTC()
	if ended.Valid {
		t := time.Unix(ended.Int64, 0).UTC()
		l.EndedAt = &t
	}
	l.CreatedAt = time.Unix(created, 0).UTC()
	l.UpdatedAt = time.Unix(updated, 0).UTC()
	return l, nil
}
