// Package queries backs the read-side views: the workout list, the profile
// card, and the delete command.
package queries

import (
	"context"
	"errors"
	"fmt"

	"trenbot/internal/planner"
	"trenbot/internal/storage"
	logx "trenbot/pkg/logx"
)

type Service struct {
	store storage.Store
	log   logx.Logger
}

func New(store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, log: log}
}

// ListWorkouts returns the user's workouts in weekday enumeration order.
// An empty list is a normal, displayable result.
func (s *Service) ListWorkouts(ctx context.Context, userID int64) ([]planner.Workout, error) {
	return s.store.ListWorkouts(ctx, userID)
}

// DeleteWorkout removes a workout by id. Duplicate delete taps are expected
// from the UI, so deleting an id that is already gone still succeeds.
func (s *Service) DeleteWorkout(ctx context.Context, id int64) error {
	if err := s.store.DeleteWorkout(ctx, id); err != nil {
		return fmt.Errorf("delete workout %d: %w", id, err)
	}
	s.log.Debug("workout deleted", logx.Int64("workout_id", id))
	return nil
}

// Profile returns the aggregate stats for the user. Unknown users are
// created on the fly so the very first /profile works without a prior
// interaction having hit the upsert path.
func (s *Service) Profile(ctx context.Context, userID int64) (planner.Profile, error) {
	p, err := s.store.Profile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		if _, uerr := s.store.UpsertUser(ctx, userID); uerr != nil {
			return planner.Profile{}, uerr
		}
		return s.store.Profile(ctx, userID)
	}
	return p, err
}
