// Package callcontext assembles the per-call context a prompt is built
// from. Resolution never fails: missing or unreachable reference data
// degrades to synthetic placeholder records so a call can always proceed.
package callcontext

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"telecaller-platform/internal/catalog"
)

// Source labels where the resolved data came from.
const (
	SourceDatabase    = "database"
	SourcePlaceholder = "placeholder"
)

// CallContext is ephemeral, assembled fresh per call and never persisted.
type CallContext struct {
	Partner catalog.Partner
	Program catalog.Program
	Event   catalog.ProgramEvent

	HasEvent bool

	// DatabaseSource is SourceDatabase when every lookup succeeded,
	// SourcePlaceholder when any entity was substituted.
	DatabaseSource string
	Err            error
}

// Resolver looks up partner, program and optional event rows and
// substitutes placeholders on miss or store error.
type Resolver struct {
	store catalog.Store
	log   *slog.Logger
}

func NewResolver(store catalog.Store, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, log: log}
}

// Resolve builds the context for one call. eventID <= 0 means the call
// has no scheduled event attached. Store errors and missing rows are
// recorded on the returned context, not returned.
func (r *Resolver) Resolve(ctx context.Context, partnerID, programID, eventID int64) CallContext {
	out := CallContext{DatabaseSource: SourceDatabase}

	partner, err := r.store.GetPartner(ctx, partnerID)
	if err != nil {
		r.degrade(&out, "partner", partnerID, err)
		partner = placeholderPartner(partnerID)
	}
	out.Partner = partner

	program, err := r.store.GetProgram(ctx, programID)
	if err != nil {
		r.degrade(&out, "program", programID, err)
		program = placeholderProgram(programID)
	}
	out.Program = program

	if eventID > 0 {
		out.HasEvent = true
		event, err := r.store.GetEvent(ctx, eventID)
		if err != nil {
			r.degrade(&out, "event", eventID, err)
			event = placeholderEvent(eventID, programID)
		}
		out.Event = event
	}

	return out
}

func (r *Resolver) degrade(c *CallContext, entity string, id int64, err error) {
	c.DatabaseSource = SourcePlaceholder
	if c.Err == nil {
		c.Err = fmt.Errorf("resolve %s %d: %w", entity, id, err)
	}
	r.log.Warn("call context degraded to placeholder",
		"entity", entity, "id", id, "error", err)
}

func placeholderPartner(id int64) catalog.Partner {
	return catalog.Partner{
		ID:          id,
		Name:        fmt.Sprintf("Partner %d", id),
		ContactType: "unknown",
	}
}

func placeholderProgram(id int64) catalog.Program {
	return catalog.Program{
		ID:       id,
		Name:     fmt.Sprintf("Program %d", id),
		Category: "unknown",
	}
}

func placeholderEvent(id, programID int64) catalog.ProgramEvent {
	return catalog.ProgramEvent{
		ID:        id,
		ProgramID: programID,
		StartsAt:  time.Time{},
	}
}
