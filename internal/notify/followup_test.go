package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"telecaller-platform/internal/catalog"
)

func TestFollowUpMailer_SendsProgramDetails(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()

	program, err := store.CreateProgram(ctx, catalog.Program{
		Name: "Global Leaders Bootcamp", Description: "A leadership immersion for senior students.", BaseFees: 4850,
	})
	if err != nil {
		t.Fatalf("seed program: %v", err)
	}
	event, err := store.CreateEvent(ctx, catalog.ProgramEvent{
		ProgramID: program.ID,
		StartsAt:  time.Date(2026, 7, 14, 9, 0, 0, 0, time.UTC),
		Fees:      4850, Discount: 850, Seats: 12,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	partner, err := store.CreatePartner(ctx, catalog.Partner{
		Name: "Greenwood High", Email: "principal@greenwood.example", Active: true,
	})
	if err != nil {
		t.Fatalf("seed partner: %v", err)
	}

	email := &captureEmail{}
	mailer := NewFollowUpMailer(email, store, nil)

	if err := mailer.SendFollowUp(ctx, partner.ID, event.ID); err != nil {
		t.Fatalf("send follow-up: %v", err)
	}
	if email.to != "principal@greenwood.example" {
		t.Fatalf("to = %q", email.to)
	}
	for _, want := range []string{
		"Dear Greenwood High",
		"Global Leaders Bootcamp",
		"Event date: 14 July 2026",
		"Programme fee: £4850",
		"Scholarship: £850",
		"Final price: £4000",
	} {
		if !strings.Contains(email.body, want) {
			t.Fatalf("body missing %q:\n%s", want, email.body)
		}
	}
}

func TestFollowUpMailer_PartnerWithoutEmail(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	partner, err := store.CreatePartner(ctx, catalog.Partner{Name: "No Mail School", Active: true})
	if err != nil {
		t.Fatalf("seed partner: %v", err)
	}

	mailer := NewFollowUpMailer(&captureEmail{}, store, nil)
	if err := mailer.SendFollowUp(ctx, partner.ID, 0); err == nil {
		t.Fatal("expected error for partner without email")
	}
}

func TestFollowUpMailer_MissingEventStillMails(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemoryStore()
	partner, err := store.CreatePartner(ctx, catalog.Partner{
		Name: "Greenwood High", Email: "principal@greenwood.example", Active: true,
	})
	if err != nil {
		t.Fatalf("seed partner: %v", err)
	}

	email := &captureEmail{}
	mailer := NewFollowUpMailer(email, store, nil)
	if err := mailer.SendFollowUp(ctx, partner.ID, 999); err != nil {
		t.Fatalf("send follow-up: %v", err)
	}
	if !strings.Contains(email.body, "Thank you for taking the time") {
		t.Fatalf("unexpected body:\n%s", email.body)
	}
	if strings.Contains(email.body, "Final price") {
		t.Fatalf("missing event must not produce pricing lines:\n%s", email.body)
	}
}
