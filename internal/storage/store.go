// Package storage persists users, workouts and completion records behind a
// minimal query contract. The reminder loop and the interactive handlers
// share one Store; SQLite serializes their access with a single connection.
package storage

import (
	"context"
	"errors"
	"time"

	"trenbot/internal/planner"
)

var ErrNotFound = errors.New("not found")

// Config configures storage.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Store is the persistence API used by the reminder loop and the handlers.
type Store interface {
	// UpsertUser creates the user on first interaction. Re-creation is a
	// no-op; the existing interval and created_at are kept.
	UpsertUser(ctx context.Context, id int64) (planner.User, error)
	GetUser(ctx context.Context, id int64) (planner.User, error)
	SetUserInterval(ctx context.Context, id int64, hours int) error

	// CreateWorkout upserts the owner first so the foreign reference always
	// holds, then inserts the workout and returns its id.
	CreateWorkout(ctx context.Context, w planner.Workout) (int64, error)
	// DeleteWorkout is idempotent: deleting a nonexistent id succeeds.
	DeleteWorkout(ctx context.Context, id int64) error
	// ListWorkouts returns the user's workouts ordered by (day, hour)
	// ascending in weekday enumeration order.
	ListWorkouts(ctx context.Context, userID int64) ([]planner.Workout, error)

	// ListDue returns workouts scheduled at the given weekday/hour joined
	// with each owner's reminder interval.
	ListDue(ctx context.Context, day planner.Weekday, hour int) ([]planner.DueWorkout, error)

	AppendCompletion(ctx context.Context, c planner.Completion) error
	Profile(ctx context.Context, userID int64) (planner.Profile, error)

	Close() error
}
