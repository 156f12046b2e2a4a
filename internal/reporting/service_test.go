package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"telecaller-platform/internal/calllog"
)

func seedLogs(t *testing.T, now time.Time) *calllog.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := calllog.NewMemoryStore()

	mk := func(sid string, started time.Time) {
		if _, err := store.Create(ctx, calllog.CallLog{CallSid: sid, ToNumber: "+1", StartedAt: started}); err != nil {
			t.Fatalf("seed %s: %v", sid, err)
		}
	}
	fin := func(sid string, req calllog.FinalizeRequest) {
		if _, _, err := store.Finalize(ctx, sid, req); err != nil {
			t.Fatalf("finalize %s: %v", sid, err)
		}
	}

	mk("CA1", now.Add(-time.Hour))
	fin("CA1", calllog.FinalizeRequest{Status: calllog.StatusCompleted, DurationSeconds: 120, Outcome: "interested after 6 exchanges"})
	mk("CA2", now.Add(-2*time.Hour))
	fin("CA2", calllog.FinalizeRequest{Status: calllog.StatusCompleted, DurationSeconds: 60, Outcome: "objections raised after 9 exchanges"})
	mk("CA3", now.Add(-time.Hour))
	fin("CA3", calllog.FinalizeRequest{Status: calllog.StatusNoAnswer})
	mk("CA4", now.Add(-30*time.Minute)) // still in flight
	mk("CA5", now.Add(-50*time.Hour))   // outside the range
	return store
}

func TestCallsSummary(t *testing.T) {
	now := time.Now().UTC()
	svc := NewService(seedLogs(t, now))

	got, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		Range: TimeRange{From: now.Add(-24 * time.Hour), To: now},
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if got.TotalCalls != 4 {
		t.Fatalf("total = %d, want 4", got.TotalCalls)
	}
	if got.CompletedCalls != 2 || got.NoAnswerCalls != 1 || got.InFlightCalls != 1 {
		t.Fatalf("unexpected status counts: %+v", got)
	}
	if got.AverageDurationSeconds != 90 {
		t.Fatalf("avg duration = %d, want 90", got.AverageDurationSeconds)
	}
	if got.InterestedCalls != 1 || got.ObjectionCalls != 1 {
		t.Fatalf("unexpected outcome counts: %+v", got)
	}
}

func TestCallsSummary_RejectsBadRange(t *testing.T) {
	svc := NewService(calllog.NewMemoryStore())
	now := time.Now()

	cases := []TimeRange{
		{},
		{From: now},
		{From: now, To: now},
		{From: now, To: now.Add(-time.Hour)},
	}
	for _, r := range cases {
		if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{Range: r}); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("range %+v: expected ErrInvalidRequest, got %v", r, err)
		}
	}
}
