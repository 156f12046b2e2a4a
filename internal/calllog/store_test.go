package calllog

import (
	"context"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	if got := ParseStatus("completed"); got != StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	if got := ParseStatus("queued"); got != StatusInitiated {
		t.Fatalf("expected initiated for queued, got %s", got)
	}
	if got := ParseStatus("something-new"); got != StatusFailed {
		t.Fatalf("expected failed for unknown status, got %s", got)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusBusy, StatusNoAnswer, StatusFailed} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusInitiated, StatusRinging, StatusInProgress} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestMemoryStore_FinalizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	created, err := m.Create(ctx, CallLog{CallSid: "CA123", ToNumber: "+15550001111"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != StatusInitiated {
		t.Fatalf("expected initiated, got %s", created.Status)
	}

	final, applied, err := m.Finalize(ctx, "CA123", FinalizeRequest{Status: StatusCompleted, DurationSeconds: 120, Outcome: "interested"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !applied {
		t.Fatalf("expected first finalize to apply")
	}
	if final.Status != StatusCompleted || final.DurationSeconds != 120 {
		t.Fatalf("unexpected row: %+v", final)
	}

	// Second delivery of the same terminal status must be a no-op.
	again, applied, err := m.Finalize(ctx, "CA123", FinalizeRequest{Status: StatusCompleted, DurationSeconds: 999})
	if err != nil {
		t.Fatalf("finalize again: %v", err)
	}
	if applied {
		t.Fatalf("expected second finalize to be a no-op")
	}
	if again.DurationSeconds != 120 || again.Outcome != "interested" {
		t.Fatalf("terminal row mutated: %+v", again)
	}
}

func TestMemoryStore_TerminalBeatsLateProgress(t *testing.T) {
	// Providers can deliver an out-of-order terminal status; it is
	// authoritative and later non-terminal updates must not revert it.
	ctx := context.Background()
	m := NewMemoryStore()

	if _, err := m.Create(ctx, CallLog{CallSid: "CA456", ToNumber: "+15550002222"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := m.Finalize(ctx, "CA456", FinalizeRequest{Status: StatusNoAnswer}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	_, applied, err := m.Finalize(ctx, "CA456", FinalizeRequest{Status: StatusFailed})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if applied {
		t.Fatalf("terminal status must not be overwritten")
	}
	got, _ := m.GetByCallSid(ctx, "CA456")
	if got.Status != StatusNoAnswer {
		t.Fatalf("expected no-answer to stick, got %s", got.Status)
	}
}

func TestMemoryStore_FinalizeRejectsNonTerminal(t *testing.T) {
	m := NewMemoryStore()
	if _, _, err := m.Finalize(context.Background(), "CA789", FinalizeRequest{Status: StatusRinging}); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Now().UTC()

	_, _ = m.Create(ctx, CallLog{CallSid: "CA1", ToNumber: "+1", StartedAt: now.Add(-time.Hour)})
	_, _ = m.Create(ctx, CallLog{CallSid: "CA2", ToNumber: "+2", StartedAt: now.Add(-48 * time.Hour)})

	rows, err := m.List(ctx, now.Add(-2*time.Hour), now, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].CallSid != "CA1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
