package catalog

import (
	"context"
	"time"
)

// Store abstracts catalog persistence. Postgres and SQLite
// implementations carry their own SQL; callers never branch on the
// backing engine.
type Store interface {
	GetPartner(ctx context.Context, id int64) (Partner, error)
	ListPartners(ctx context.Context, limit int) ([]Partner, error)
	CreatePartner(ctx context.Context, p Partner) (Partner, error)

	GetProgram(ctx context.Context, id int64) (Program, error)
	ListPrograms(ctx context.Context, limit int) ([]Program, error)
	CreateProgram(ctx context.Context, p Program) (Program, error)

	GetEvent(ctx context.Context, id int64) (ProgramEvent, error)
	ListEventsByProgram(ctx context.Context, programID int64) ([]ProgramEvent, error)
	// UpcomingEvents returns events starting within the window, soonest first.
	UpcomingEvents(ctx context.Context, now time.Time, window time.Duration) ([]ProgramEvent, error)
	CreateEvent(ctx context.Context, e ProgramEvent) (ProgramEvent, error)
}
