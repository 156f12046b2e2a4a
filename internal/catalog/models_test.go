package catalog

import (
	"context"
	"testing"
	"time"
)

func TestFinalPrice(t *testing.T) {
	// Canned scenario from the program scripts: 4850 fee, 850 scholarship.
	e := ProgramEvent{Fees: 4850, Discount: 850}
	if got := e.FinalPrice(); got != 4000 {
		t.Fatalf("expected 4000, got %d", got)
	}
}

func TestFinalPrice_ClampsAtZero(t *testing.T) {
	e := ProgramEvent{Fees: 100, Discount: 850}
	if got := e.FinalPrice(); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestFinalPrice_NoDiscount(t *testing.T) {
	e := ProgramEvent{Fees: 115}
	if got := e.FinalPrice(); got != 115 {
		t.Fatalf("expected 115, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	if err := (Partner{}).Validate(); err == nil {
		t.Fatalf("expected error for empty partner name")
	}
	if err := (Program{Name: "x", BaseFees: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative base fees")
	}
	if err := (ProgramEvent{ProgramID: 1, Discount: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative discount")
	}
	if err := (ProgramEvent{ProgramID: 1, Fees: 4850, Discount: 850, Seats: 5}).Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestMemoryStore_PartnerRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	created, err := m.CreatePartner(ctx, Partner{Name: "Delhi Public School", Phone: "+911234567890", Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := m.GetPartner(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Delhi Public School" {
		t.Fatalf("unexpected partner: %+v", got)
	}

	if _, err := m.GetPartner(ctx, 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_UpcomingEvents(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	now := time.Now().UTC()
	prog, _ := m.CreateProgram(ctx, Program{Name: "Cambridge Summer Programme", BaseFees: 4850})

	soon, _ := m.CreateEvent(ctx, ProgramEvent{ProgramID: prog.ID, StartsAt: now.Add(24 * time.Hour), Fees: 4850, Discount: 850, Seats: 5})
	_, _ = m.CreateEvent(ctx, ProgramEvent{ProgramID: prog.ID, StartsAt: now.Add(200 * 24 * time.Hour), Fees: 4850, Seats: 5})

	events, err := m.UpcomingEvents(ctx, now, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(events) != 1 || events[0].ID != soon.ID {
		t.Fatalf("expected only the near event, got %+v", events)
	}
}
