package calllog

import (
	"context"
	"time"
)

// FinalizeRequest carries the terminal update for a call.
type FinalizeRequest struct {
	Status          Status
	DurationSeconds int
	EndedAt         time.Time
	Outcome         string
	TranscriptPath  string
	RecordingURL    string
}

// Store abstracts call-log persistence.
//
// Finalize must be idempotent: once the row holds a terminal status the
// call is a no-op regardless of what the provider re-delivers.
type Store interface {
	Create(ctx context.Context, log CallLog) (CallLog, error)
	Get(ctx context.Context, id string) (CallLog, error)
	GetByCallSid(ctx context.Context, callSid string) (CallLog, error)
	// Finalize applies the terminal update keyed by the provider call
	// reference. Returns the resulting row and whether this invocation
	// applied the update (false when already terminal).
	Finalize(ctx context.Context, callSid string, req FinalizeRequest) (CallLog, bool, error)
	List(ctx context.Context, from, to time.Time, limit int) ([]CallLog, error)
}
