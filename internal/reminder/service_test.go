package reminder

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"trenbot/internal/planner"
	"trenbot/internal/storage"
	kit "trenbot/internal/transport"
	logx "trenbot/pkg/logx"
)

type sentMsg struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMsg
	failFor map[int64]error
	panicAt int64
}

func (f *fakeSender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicAt != 0 && to.ChatID == f.panicAt {
		panic("sender blew up")
	}
	if err, ok := f.failFor[to.ChatID]; ok {
		return kit.MessageRef{}, err
	}
	f.sent = append(f.sent, sentMsg{ChatID: to.ChatID, Text: text})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeSender) messages() []sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMsg(nil), f.sent...)
}

func newTestService(t *testing.T, sender Sender) (*Service, storage.Store) {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "planner.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(Config{Enabled: true}, st, sender, logx.Nop()), st
}

// Wednesday 2024-01-03.
func wednesdayAt(hour int) time.Time {
	return time.Date(2024, 1, 3, hour, 0, 0, 0, time.UTC)
}

func TestTickDeliversDueWorkout(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	if _, err := st.CreateWorkout(ctx, planner.Workout{UserID: 42, Day: planner.Wednesday, Hour: 18, Title: "Legs"}); err != nil {
		t.Fatal(err)
	}

	rep, err := svc.Tick(ctx, wednesdayAt(18))
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rep.Due != 1 || rep.Eligible != 1 || rep.Delivered != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}

	msgs := sender.messages()
	if len(msgs) != 1 || msgs[0].ChatID != 42 {
		t.Fatalf("sent = %+v", msgs)
	}
	if !strings.Contains(msgs[0].Text, "Legs") || !strings.Contains(msgs[0].Text, "18:00") {
		t.Fatalf("reminder text = %q", msgs[0].Text)
	}

	p, err := st.Profile(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if p.CompletionCount != 1 {
		t.Fatalf("completion count = %d, want 1", p.CompletionCount)
	}
}

func TestTickSendFailureRecordsNothing(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{failFor: map[int64]error{42: errors.New("forbidden: bot was blocked by the user")}}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	if _, err := st.CreateWorkout(ctx, planner.Workout{UserID: 42, Day: planner.Wednesday, Hour: 18, Title: "Legs"}); err != nil {
		t.Fatal(err)
	}

	rep, err := svc.Tick(ctx, wednesdayAt(18))
	if err != nil {
		t.Fatalf("Tick must not escalate a delivery failure: %v", err)
	}
	if rep.Failed != 1 || rep.Delivered != 0 {
		t.Fatalf("report = %+v", rep)
	}

	p, err := st.Profile(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if p.CompletionCount != 0 {
		t.Fatalf("completion count = %d, want 0", p.CompletionCount)
	}
}

func TestTickFailureIsolatedPerRecipient(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{failFor: map[int64]error{1: errors.New("unreachable")}}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	for _, uid := range []int64{1, 2, 3} {
		if _, err := st.CreateWorkout(ctx, planner.Workout{UserID: uid, Day: planner.Wednesday, Hour: 18, Title: "Legs"}); err != nil {
			t.Fatal(err)
		}
	}

	rep, err := svc.Tick(ctx, wednesdayAt(18))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Delivered != 2 || rep.Failed != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestTickIntervalGating(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	// Interval 6: hour 15 is due but not eligible (15 % 6 != 0).
	if _, err := st.CreateWorkout(ctx, planner.Workout{UserID: 5, Day: planner.Wednesday, Hour: 15, Title: "Swim"}); err != nil {
		t.Fatal(err)
	}
	if err := st.SetUserInterval(ctx, 5, 6); err != nil {
		t.Fatal(err)
	}

	rep, err := svc.Tick(ctx, wednesdayAt(15))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Due != 1 || rep.Eligible != 0 || rep.Delivered != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if len(sender.messages()) != 0 {
		t.Fatalf("ineligible user received a reminder")
	}

	// Same slot with interval 3 is eligible (15 % 3 == 0).
	if err := st.SetUserInterval(ctx, 5, 3); err != nil {
		t.Fatal(err)
	}
	rep, err = svc.Tick(ctx, wednesdayAt(15))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Delivered != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestTickWrongSlotNotDue(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	if _, err := st.CreateWorkout(ctx, planner.Workout{UserID: 6, Day: planner.Thursday, Hour: 18, Title: "Row"}); err != nil {
		t.Fatal(err)
	}

	rep, err := svc.Tick(ctx, wednesdayAt(18))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Due != 0 || len(sender.messages()) != 0 {
		t.Fatalf("workout fired on the wrong weekday: %+v", rep)
	}
}

func TestSharedSlotDeliversAllTitles(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	for _, title := range []string{"Squats", "Bench"} {
		if _, err := st.CreateWorkout(ctx, planner.Workout{UserID: 9, Day: planner.Wednesday, Hour: 18, Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	rep, err := svc.Tick(ctx, wednesdayAt(18))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Delivered != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if len(sender.messages()) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.messages()))
	}
}

func TestSafeTickSwallowsPanic(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{panicAt: 42}
	svc, st := newTestService(t, sender)
	ctx := context.Background()

	if _, err := st.CreateWorkout(ctx, planner.Workout{UserID: 42, Day: planner.Wednesday, Hour: 18, Title: "Legs"}); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return wednesdayAt(18) }
	// Must not propagate: the loop has to survive to the next wake-up.
	svc.safeTick(ctx)
}
