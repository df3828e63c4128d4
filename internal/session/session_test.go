package session

import (
	"errors"
	"testing"
	"time"

	"trenbot/internal/planner"
	logx "trenbot/pkg/logx"
)

func TestAddFlowHappyPath(t *testing.T) {
	t.Parallel()
	s := NewStore(0, logx.Nop())
	const uid = int64(100)

	s.BeginAdd(uid)
	if got := s.StateOf(uid); got != AwaitingDay {
		t.Fatalf("state = %v, want AwaitingDay", got)
	}
	if err := s.SetDay(uid, planner.Wednesday); err != nil {
		t.Fatalf("SetDay: %v", err)
	}
	if err := s.SetHour(uid, 18); err != nil {
		t.Fatalf("SetHour: %v", err)
	}
	d, err := s.CompleteTitle(uid, "Legs")
	if err != nil {
		t.Fatalf("CompleteTitle: %v", err)
	}
	if d.Day != planner.Wednesday || d.Hour != 18 || d.Title != "Legs" {
		t.Fatalf("draft = %+v", d)
	}
	if got := s.StateOf(uid); got != Idle {
		t.Fatalf("state after completion = %v, want Idle", got)
	}
}

func TestOutOfSequenceInputsIgnored(t *testing.T) {
	t.Parallel()
	s := NewStore(0, logx.Nop())
	const uid = int64(7)

	// No flow at all: everything is out of sequence.
	if err := s.SetDay(uid, planner.Monday); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("SetDay while idle: %v", err)
	}
	if _, err := s.CompleteTitle(uid, "ghost"); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("CompleteTitle while idle: %v", err)
	}

	// A stray day press while AwaitingTitle must not corrupt the draft.
	s.BeginAdd(uid)
	if err := s.SetDay(uid, planner.Friday); err != nil {
		t.Fatal(err)
	}
	if err := s.SetHour(uid, 9); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDay(uid, planner.Sunday); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("stray day press: %v", err)
	}
	if err := s.SetHour(uid, 23); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("stray hour press: %v", err)
	}
	d, err := s.CompleteTitle(uid, "Run")
	if err != nil {
		t.Fatal(err)
	}
	if d.Day != planner.Friday || d.Hour != 9 {
		t.Fatalf("draft corrupted by stray presses: %+v", d)
	}
}

func TestInvalidPayloadsRejected(t *testing.T) {
	t.Parallel()
	s := NewStore(0, logx.Nop())
	const uid = int64(8)

	s.BeginAdd(uid)
	if err := s.SetDay(uid, planner.Weekday(12)); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("invalid day accepted: %v", err)
	}
	if err := s.SetDay(uid, planner.Monday); err != nil {
		t.Fatal(err)
	}
	if err := s.SetHour(uid, 24); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("invalid hour accepted: %v", err)
	}
	// State must still be AwaitingTime after the rejected hour.
	if got := s.StateOf(uid); got != AwaitingTime {
		t.Fatalf("state = %v, want AwaitingTime", got)
	}
}

func TestNewFlowAbandonsPrevious(t *testing.T) {
	t.Parallel()
	s := NewStore(0, logx.Nop())
	const uid = int64(9)

	s.BeginAdd(uid)
	if err := s.SetDay(uid, planner.Tuesday); err != nil {
		t.Fatal(err)
	}
	// Starting the interval flow abandons the half-built add form.
	s.BeginInterval(uid)
	if got := s.StateOf(uid); got != AwaitingInterval {
		t.Fatalf("state = %v, want AwaitingInterval", got)
	}
	if _, err := s.CompleteTitle(uid, "x"); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("stale add flow still completable: %v", err)
	}
	if err := s.CompleteInterval(uid); err != nil {
		t.Fatalf("CompleteInterval: %v", err)
	}
	if got := s.StateOf(uid); got != Idle {
		t.Fatalf("state = %v, want Idle", got)
	}
}

func TestIntervalFlowOutOfSequence(t *testing.T) {
	t.Parallel()
	s := NewStore(0, logx.Nop())
	if err := s.CompleteInterval(55); !errors.Is(err, ErrOutOfSequence) {
		t.Fatalf("CompleteInterval while idle: %v", err)
	}
}

func TestSweepExpiresAbandonedFlows(t *testing.T) {
	t.Parallel()
	s := NewStore(10*time.Minute, logx.Nop())

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.BeginAdd(1)
	s.BeginAdd(2)

	// User 2 keeps interacting; user 1 walks away.
	s.now = func() time.Time { return base.Add(9 * time.Minute) }
	if err := s.SetDay(2, planner.Monday); err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return base.Add(12 * time.Minute) }
	if n := s.sweep(); n != 1 {
		t.Fatalf("swept %d entries, want 1", n)
	}
	if got := s.StateOf(1); got != Idle {
		t.Fatalf("abandoned flow survived sweep: %v", got)
	}
	if got := s.StateOf(2); got != AwaitingTime {
		t.Fatalf("active flow swept: %v", got)
	}
}
