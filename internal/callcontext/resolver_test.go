package callcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"telecaller-platform/internal/catalog"
)

func seededStore(t *testing.T) (catalog.Store, catalog.Partner, catalog.Program, catalog.ProgramEvent) {
	t.Helper()
	ctx := context.Background()
	store := catalog.NewMemoryStore()

	partner, err := store.CreatePartner(ctx, catalog.Partner{
		Name:        "Greenwood High",
		ContactType: "school",
		Phone:       "+15550001111",
		Email:       "principal@greenwood.example",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("seed partner: %v", err)
	}
	program, err := store.CreateProgram(ctx, catalog.Program{
		Name:        "Global Leaders Bootcamp",
		Description: "Leadership program for high school students",
		BaseFees:    4850,
		Category:    "leadership",
	})
	if err != nil {
		t.Fatalf("seed program: %v", err)
	}
	event, err := store.CreateEvent(ctx, catalog.ProgramEvent{
		ProgramID: program.ID,
		StartsAt:  time.Now().Add(72 * time.Hour),
		Fees:      4850,
		Discount:  850,
		Seats:     30,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return store, partner, program, event
}

func TestResolve_AllFromDatabase(t *testing.T) {
	store, partner, program, event := seededStore(t)
	r := NewResolver(store, nil)

	got := r.Resolve(context.Background(), partner.ID, program.ID, event.ID)

	if got.DatabaseSource != SourceDatabase {
		t.Fatalf("expected database source, got %s", got.DatabaseSource)
	}
	if got.Err != nil {
		t.Fatalf("unexpected err: %v", got.Err)
	}
	if got.Partner.Name != "Greenwood High" || got.Program.Name != "Global Leaders Bootcamp" {
		t.Fatalf("unexpected context: %+v", got)
	}
	if !got.HasEvent || got.Event.FinalPrice() != 4000 {
		t.Fatalf("unexpected event: %+v", got.Event)
	}
}

func TestResolve_MissingPartnerGetsPlaceholder(t *testing.T) {
	store, _, program, _ := seededStore(t)
	r := NewResolver(store, nil)

	got := r.Resolve(context.Background(), 9999, program.ID, 0)

	if got.DatabaseSource != SourcePlaceholder {
		t.Fatalf("expected placeholder source, got %s", got.DatabaseSource)
	}
	if got.Err == nil {
		t.Fatalf("expected degradation error recorded")
	}
	if got.Partner.Name != "Partner 9999" {
		t.Fatalf("expected synthetic partner name, got %q", got.Partner.Name)
	}
	// The hit entity still comes from the database.
	if got.Program.Name != "Global Leaders Bootcamp" {
		t.Fatalf("expected real program, got %+v", got.Program)
	}
	if got.HasEvent {
		t.Fatalf("no event requested")
	}
}

type brokenStore struct {
	catalog.Store
	err error
}

func (b brokenStore) GetPartner(context.Context, int64) (catalog.Partner, error) {
	return catalog.Partner{}, b.err
}
func (b brokenStore) GetProgram(context.Context, int64) (catalog.Program, error) {
	return catalog.Program{}, b.err
}
func (b brokenStore) GetEvent(context.Context, int64) (catalog.ProgramEvent, error) {
	return catalog.ProgramEvent{}, b.err
}

func TestResolve_StoreErrorNeverPropagates(t *testing.T) {
	connErr := errors.New("connection refused")
	r := NewResolver(brokenStore{err: connErr}, nil)

	got := r.Resolve(context.Background(), 1, 2, 3)

	if got.DatabaseSource != SourcePlaceholder {
		t.Fatalf("expected placeholder source, got %s", got.DatabaseSource)
	}
	if !errors.Is(got.Err, connErr) {
		t.Fatalf("expected wrapped store error, got %v", got.Err)
	}
	if got.Partner.Name != "Partner 1" || got.Program.Name != "Program 2" {
		t.Fatalf("expected placeholders, got %+v", got)
	}
	if !got.HasEvent || got.Event.ID != 3 {
		t.Fatalf("expected placeholder event, got %+v", got.Event)
	}
}
