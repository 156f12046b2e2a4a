package calllog

import (
	"errors"
	"time"
)

// CallLog is one row per outbound call. Created when the call is
// initiated, updated exactly once when the provider reports a terminal
// status, immutable afterward.
type CallLog struct {
	ID             string `json:"call_id" db:"call_id"`
	PartnerID      int64  `json:"partner_id,omitempty" db:"partner_id"`
	ProgramEventID int64  `json:"program_event_id,omitempty" db:"program_event_id"`

	// CallSid is the provider's reference correlating webhook events.
	CallSid string `json:"call_sid" db:"call_sid"`

	ToNumber string `json:"to_number" db:"to_number"`

	Status Status `json:"call_status" db:"call_status"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// Outcome is a free-text summary of how the conversation went.
	Outcome        string `json:"outcome,omitempty" db:"outcome"`
	TranscriptPath string `json:"transcript_path,omitempty" db:"transcript_path"`
	RecordingURL   string `json:"recording_url,omitempty" db:"recording_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusInitiated  Status = "initiated"
	StatusRinging    Status = "ringing"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBusy       Status = "busy"
	StatusNoAnswer   Status = "no-answer"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether a status ends the call. Once a row holds a
// terminal status no further writes occur.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusBusy, StatusNoAnswer, StatusFailed:
		return true
	default:
		return false
	}
}

// ParseStatus maps provider status strings onto the fixed vocabulary.
// Unknown strings map to failed so a terminal webhook always lands on a
// terminal status.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusInitiated, StatusRinging, StatusInProgress, StatusCompleted, StatusBusy, StatusNoAnswer, StatusFailed:
		return Status(s)
	case "queued":
		return StatusInitiated
	default:
		return StatusFailed
	}
}

var (
	ErrNotFound        = errors.New("calllog: not found")
	ErrInvalidArgument = errors.New("calllog: invalid argument")
)
