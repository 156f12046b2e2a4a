package prompt

import (
	"strings"
	"testing"
	"time"

	"telecaller-platform/internal/callcontext"
	"telecaller-platform/internal/catalog"
)

func TestTimeGreeting(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{5, "Good morning"},
		{11, "Good morning"},
		{12, "Good afternoon"},
		{16, "Good afternoon"},
		{17, "Good evening"},
		{21, "Good evening"},
		{2, "Good evening"},
	}
	for _, c := range cases {
		if got := TimeGreeting(c.hour); got != c.want {
			t.Errorf("TimeGreeting(%d) = %q, want %q", c.hour, got, c.want)
		}
	}
}

func fullContext() callcontext.CallContext {
	return callcontext.CallContext{
		Partner: catalog.Partner{
			ID:          1,
			Name:        "Greenwood High",
			ContactType: "school",
			Phone:       "+15550001111",
			Email:       "principal@greenwood.example",
		},
		Program: catalog.Program{
			ID:          2,
			Name:        "IGNITE Young Minds Summer Programme",
			Description: "Residential programme at the University of Cambridge",
			BaseFees:    4850,
		},
		Event: catalog.ProgramEvent{
			ID:        3,
			ProgramID: 2,
			StartsAt:  time.Date(2026, time.July, 14, 9, 0, 0, 0, time.UTC),
			Fees:      4850,
			Discount:  850,
			Seats:     5,
		},
		HasEvent:       true,
		DatabaseSource: callcontext.SourceDatabase,
	}
}

func TestBuild_ContainsContextAndPricing(t *testing.T) {
	got := Build(fullContext(), 10)

	for _, want := range []string{
		"Sarah",
		"Learn with Leaders",
		"Good morning! Am I speaking with the school leader or coordinator?",
		"Greenwood High",
		"IGNITE Young Minds Summer Programme",
		"Base Fee: £4850",
		"Scholarship Available: £850",
		"Final Price: £4000",
		"Available Seats: 5",
		"Event Date: 14 July 2026",
		"principal@greenwood.example",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuild_MissingFieldsRenderPlaceholders(t *testing.T) {
	ctx := callcontext.CallContext{
		Partner:  catalog.Partner{ID: 42},
		Program:  catalog.Program{ID: 7},
		HasEvent: true,
	}
	got := Build(ctx, 14)

	for _, want := range []string{
		EmailPlaceholder,
		PhonePlaceholder,
		DatePlaceholder,
		"Partner 42",
		"Program 7",
		"Available Seats: limited",
		"Good afternoon",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	ctx := fullContext()
	if Build(ctx, 9) != Build(ctx, 9) {
		t.Fatal("same context and hour must yield identical prompts")
	}
	if Build(ctx, 9) == Build(ctx, 19) {
		t.Fatal("hour must affect the greeting")
	}
}
