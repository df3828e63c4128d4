package queries

import (
	"context"
	"path/filepath"
	"testing"

	"trenbot/internal/planner"
	"trenbot/internal/storage"
	logx "trenbot/pkg/logx"
)

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "planner.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st, logx.Nop()), st
}

func TestListWorkoutsOrdering(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	// Insertion order deliberately scrambled.
	for _, w := range []planner.Workout{
		{UserID: 1, Day: planner.Wednesday, Hour: 18, Title: "Legs"},
		{UserID: 1, Day: planner.Friday, Hour: 6, Title: "Run"},
		{UserID: 1, Day: planner.Monday, Hour: 7, Title: "Push"},
	} {
		if _, err := st.CreateWorkout(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.ListWorkouts(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []planner.Weekday{planner.Monday, planner.Wednesday, planner.Friday}
	if len(got) != len(want) {
		t.Fatalf("got %d workouts", len(got))
	}
	for i := range want {
		if got[i].Day != want[i] {
			t.Fatalf("position %d: %v, want %v", i, got[i].Day, want[i])
		}
	}
}

func TestDeleteWorkoutTwice(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	id, err := st.CreateWorkout(ctx, planner.Workout{UserID: 2, Day: planner.Monday, Hour: 7, Title: "Push"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteWorkout(ctx, id); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.DeleteWorkout(ctx, id); err != nil {
		t.Fatalf("duplicate delete tap must succeed: %v", err)
	}
	left, err := svc.ListWorkouts(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("row survived delete")
	}
}

func TestProfileAggregate(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	if _, err := st.UpsertUser(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if err := st.SetUserInterval(ctx, 3, 3); err != nil {
		t.Fatal(err)
	}
	var wid int64
	for i := 0; i < 4; i++ {
		id, err := st.CreateWorkout(ctx, planner.Workout{UserID: 3, Day: planner.Weekday(i % 7), Hour: 8, Title: "W"})
		if err != nil {
			t.Fatal(err)
		}
		wid = id
	}
	for i := 0; i < 2; i++ {
		if err := st.AppendCompletion(ctx, planner.Completion{UserID: 3, WorkoutID: wid}); err != nil {
			t.Fatal(err)
		}
	}

	p, err := svc.Profile(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if p.WorkoutCount != 4 || p.CompletionCount != 2 || p.IntervalHours != 3 {
		t.Fatalf("profile = %+v, want {4 2 3}", p)
	}
}

func TestProfileCreatesFirstTimeUser(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	p, err := svc.Profile(context.Background(), 777)
	if err != nil {
		t.Fatalf("Profile for brand-new user: %v", err)
	}
	if p.WorkoutCount != 0 || p.CompletionCount != 0 || p.IntervalHours != planner.DefaultIntervalHours {
		t.Fatalf("profile = %+v", p)
	}
}
