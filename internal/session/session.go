// Package session keeps per-user scratch state for the multi-step entry
// flows (add workout, set reminder interval). State is process-local and
// deliberately not persisted: a restart loses in-flight forms, which is fine
// because every flow restarts cleanly from the menu.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"trenbot/internal/planner"
	logx "trenbot/pkg/logx"
)

// ErrOutOfSequence is returned when a flow input arrives in a state that
// does not expect it (e.g. a stray day button press while waiting for a
// title). Callers ignore the input; captured state stays untouched.
var ErrOutOfSequence = errors.New("input out of sequence")

type State int

const (
	Idle State = iota
	AwaitingDay
	AwaitingTime
	AwaitingTitle
	AwaitingInterval
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingDay:
		return "awaiting_day"
	case AwaitingTime:
		return "awaiting_time"
	case AwaitingTitle:
		return "awaiting_title"
	case AwaitingInterval:
		return "awaiting_interval"
	default:
		return "unknown"
	}
}

// Draft is the completed add-workout form.
type Draft struct {
	Day   planner.Weekday
	Hour  int
	Title string
}

type entry struct {
	state   State
	day     planner.Weekday
	hour    int
	touched time.Time
}

// Store holds the ephemeral per-user conversation state.
// Distinct users never contend beyond the map lock; same-user concurrent
// updates are last-write-wins.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry

	ttl time.Duration
	log logx.Logger

	now func() time.Time // test hook
}

const defaultTTL = 15 * time.Minute

func NewStore(ttl time.Duration, log logx.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{
		entries: map[int64]*entry{},
		ttl:     ttl,
		log:     log,
		now:     time.Now,
	}
}

// StateOf reports the user's current flow state.
func (s *Store) StateOf(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return Idle
	}
	return e.state
}

// BeginAdd starts the add-workout flow. Any prior in-flight flow for the
// user is abandoned; its partial payload is discarded, never merged.
func (s *Store) BeginAdd(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = &entry{state: AwaitingDay, touched: s.now()}
}

// SetDay records the chosen day. Valid only while AwaitingDay.
func (s *Store) SetDay(userID int64, day planner.Weekday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || e.state != AwaitingDay {
		return ErrOutOfSequence
	}
	if !day.Valid() {
		return ErrOutOfSequence
	}
	e.day = day
	e.state = AwaitingTime
	e.touched = s.now()
	return nil
}

// SetHour records the chosen hour slot. Valid only while AwaitingTime.
func (s *Store) SetHour(userID int64, hour int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || e.state != AwaitingTime {
		return ErrOutOfSequence
	}
	if !planner.ValidHour(hour) {
		return ErrOutOfSequence
	}
	e.hour = hour
	e.state = AwaitingTitle
	e.touched = s.now()
	return nil
}

// CompleteTitle finishes the add flow with the received free text and
// returns the full draft. The conversation returns to Idle.
func (s *Store) CompleteTitle(userID int64, title string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || e.state != AwaitingTitle {
		return Draft{}, ErrOutOfSequence
	}
	delete(s.entries, userID)
	return Draft{Day: e.day, Hour: e.hour, Title: title}, nil
}

// BeginInterval starts the set-interval flow, abandoning any prior flow.
func (s *Store) BeginInterval(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = &entry{state: AwaitingInterval, touched: s.now()}
}

// CompleteInterval closes the set-interval flow. Valid only while
// AwaitingInterval; the chosen value travels in the callback token and is
// validated by the caller.
func (s *Store) CompleteInterval(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok || e.state != AwaitingInterval {
		return ErrOutOfSequence
	}
	delete(s.entries, userID)
	return nil
}

// Reset drops the user's flow state unconditionally.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// Len reports the number of in-flight flows (janitor metric).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunJanitor sweeps abandoned flows until ctx is cancelled. This bounds
// memory growth from users who open a picker and walk away.
func (s *Store) RunJanitor(ctx context.Context) {
	period := s.ttl / 2
	if period < time.Minute {
		period = time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.log.Debug("expired sessions swept", logx.Int("count", n))
			}
		}
	}
}

func (s *Store) sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}
