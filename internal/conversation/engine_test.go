package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type scriptedResponder struct {
	err   error
	calls int
}

func (s *scriptedResponder) Respond(_ context.Context, _ string, _ []Entry, stage Stage) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("line for %s", stage), nil
}

func newTestEngine(r Responder) *Engine {
	e := NewEngine(r, 20, 5*time.Minute, nil)
	e.clock = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC) }
	return e
}

func TestClassifier_ObjectionBeatsInterest(t *testing.T) {
	c := NewKeywordClassifier()
	cases := []struct {
		in   string
		want Signal
	}{
		{"That sounds too EXPENSIVE for us", SignalObjection},
		{"yes, tell me more", SignalInterest},
		{"I'm interested but the price worries me", SignalObjection},
		{"not interested", SignalObjection},
		{"hmm let me think", SignalNone},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.in); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStep_HappyPathWalksAllStages(t *testing.T) {
	r := &scriptedResponder{}
	e := newTestEngine(r)
	st := NewState("prompt", e.clock())

	// First webhook arrives with no utterance and speaks the greeting.
	turn := e.Step(context.Background(), st, "")
	if turn.Stage != StageGreeting || st.Stage != StagePermissionCheck {
		t.Fatalf("first step: spoke %s, now %s", turn.Stage, st.Stage)
	}

	replies := []string{
		"Yes, speaking",     // permission_check
		"That's right",      // identity_verification
		"Go on",             // program_introduction
		"OK",                // benefits_discussion -> pricing
		"Fine",              // pricing_discussion -> next_steps
		"Please send it",    // next_steps -> closing
		"Thanks, goodbye",   // closing -> ended
	}
	var last Turn
	for _, reply := range replies {
		last = e.Step(context.Background(), st, reply)
	}
	if last.Stage != StageClosing || !last.Done {
		t.Fatalf("expected closing/done, got %s done=%v", last.Stage, last.Done)
	}
	if st.Stage != StageEnded {
		t.Fatalf("expected ended, got %s", st.Stage)
	}
	if st.Exchanges != 8 {
		t.Fatalf("expected 8 exchanges, got %d", st.Exchanges)
	}
}

func TestStep_ObjectionBranchesAndReturns(t *testing.T) {
	r := &scriptedResponder{}
	e := newTestEngine(r)
	st := NewState("prompt", e.clock())
	st.Stage = StageBenefitsDiscussion

	turn := e.Step(context.Background(), st, "that's far too expensive for our budget")
	if turn.Stage != StageObjectionHandling {
		t.Fatalf("expected objection_handling, spoke from %s", turn.Stage)
	}
	if st.Stage != StageBenefitsDiscussion {
		t.Fatalf("objection handling must return to benefits, got %s", st.Stage)
	}
	if st.Objections != 1 {
		t.Fatalf("objection not recorded: %d", st.Objections)
	}
}

func TestStep_ObjectionLoopIsCappedByExchanges(t *testing.T) {
	r := &scriptedResponder{}
	e := NewEngine(r, 6, time.Hour, nil)
	e.clock = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC) }
	st := NewState("prompt", e.clock())
	st.Stage = StageBenefitsDiscussion

	// An adversarial caller who objects forever must still reach ended.
	var ended bool
	for i := 0; i < 50; i++ {
		turn := e.Step(context.Background(), st, "too expensive")
		if turn.Done {
			ended = true
			break
		}
	}
	if !ended {
		t.Fatal("objection loop never terminated")
	}
	if st.Exchanges > 8 {
		t.Fatalf("cap not enforced, %d exchanges", st.Exchanges)
	}
}

func TestStep_WallClockForcesClosing(t *testing.T) {
	r := &scriptedResponder{}
	e := NewEngine(r, 100, 5*time.Minute, nil)
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	now := start
	e.clock = func() time.Time { return now }
	st := NewState("prompt", start)
	st.Stage = StageBenefitsDiscussion

	now = start.Add(6 * time.Minute)
	turn := e.Step(context.Background(), st, "tell me more")
	if turn.Stage != StageClosing {
		t.Fatalf("expected forced closing, got %s", turn.Stage)
	}
}

func TestStep_ResponderFailureUsesStaticLine(t *testing.T) {
	r := &scriptedResponder{err: errors.New("api timeout")}
	e := newTestEngine(r)
	st := NewState("prompt", e.clock())

	turn := e.Step(context.Background(), st, "")
	if turn.Utterance == "" {
		t.Fatal("expected a static fallback utterance")
	}
	if st.Stage != StagePermissionCheck {
		t.Fatalf("failure must not stall the flow, got %s", st.Stage)
	}
}

func TestStep_TerminalStateIsInert(t *testing.T) {
	r := &scriptedResponder{}
	e := newTestEngine(r)
	st := NewState("prompt", e.clock())
	st.Stage = StageEnded

	turn := e.Step(context.Background(), st, "hello?")
	if !turn.Done || turn.Stage != StageEnded {
		t.Fatalf("ended must stay ended: %+v", turn)
	}
	if r.calls != 0 {
		t.Fatal("responder must not be invoked after ended")
	}
}

func TestSummary(t *testing.T) {
	st := NewState("prompt", time.Now())
	st.Interests = 2
	st.Exchanges = 7
	st.Stage = StageEnded
	if got := st.Summary(); !strings.HasPrefix(got, "interested") {
		t.Fatalf("expected interested outcome, got %q", got)
	}
	st2 := NewState("prompt", time.Now())
	st2.Objections = 3
	st2.Interests = 1
	if got := st2.Summary(); !strings.HasPrefix(got, "objections raised") {
		t.Fatalf("expected objection outcome, got %q", got)
	}
}
