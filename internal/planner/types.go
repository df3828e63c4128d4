// Package planner holds the domain model for recurring weekly workouts:
// weekday/hour slots, owners, completion records and the reminder
// eligibility rule shared by the scheduler and the query layer.
package planner

import (
	"fmt"
	"strings"
	"time"
)

// DefaultIntervalHours is the reminder interval assigned to new users.
const DefaultIntervalHours = 3

// Picker bounds for the hour choice set. Storage accepts the full 0..23
// range; the UI only offers 06:00..23:00.
const (
	PickerFirstHour = 6
	PickerLastHour  = 23
)

// Weekday is a workout's day of week. Monday is 0 so that the zero-based
// ordinal matches the order users expect in the list view; sorting by this
// ordinal is what keeps listings in Mon..Sun order instead of lexical order.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayTokens = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

// Token returns the stable callback token for the day ("mon".."sun").
func (d Weekday) Token() string {
	if !d.Valid() {
		return ""
	}
	return weekdayTokens[d]
}

// Label returns the short display name for the day.
func (d Weekday) Label() string {
	if !d.Valid() {
		return "?"
	}
	return weekdayLabels[d]
}

func (d Weekday) String() string { return d.Label() }

// ParseWeekdayToken maps a day callback token back to a Weekday.
func ParseWeekdayToken(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, tok := range weekdayTokens {
		if s == tok {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday token %q", s)
}

// WeekdayOf converts a wall-clock time to the planner weekday
// (Go's time.Weekday starts the week on Sunday).
func WeekdayOf(t time.Time) Weekday {
	wd := int(t.Weekday()) // Sunday=0
	return Weekday((wd + 6) % 7)
}

// Weekdays lists all days in enumeration order, for building the day picker.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// ValidHour reports whether h is a storable hour slot.
func ValidHour(h int) bool { return h >= 0 && h <= 23 }

// FormatHour renders an hour slot as "HH:00".
func FormatHour(h int) string { return fmt.Sprintf("%02d:00", h) }

// EligibleAt reports whether a user with the given reminder interval should
// be notified at the given hour. The modulo rule is applied literally even
// for intervals that do not divide 24; with interval=5 only hours
// 0,5,10,15,20 are eligible and slots outside that set never fire.
func EligibleAt(hour, intervalHours int) bool {
	if intervalHours <= 0 {
		intervalHours = DefaultIntervalHours
	}
	return hour%intervalHours == 0
}

// User is the owner of workouts. Created lazily on first interaction.
type User struct {
	ID            int64
	IntervalHours int
	CreatedAt     time.Time
}

// Workout is a recurring weekly scheduled event. There is no update
// operation: changing a workout is delete + recreate.
type Workout struct {
	ID        int64
	UserID    int64
	Day       Weekday
	Hour      int
	Title     string
	CreatedAt time.Time
}

// Completion is an append-only log entry marking one successful reminder
// delivery. It backs the profile statistic only.
type Completion struct {
	ID         int64
	UserID     int64
	WorkoutID  int64
	OccurredAt time.Time
}

// DueWorkout is a workout matching the current tick's weekday/hour, joined
// with its owner's reminder interval for eligibility gating.
type DueWorkout struct {
	Workout
	IntervalHours int
}

// Profile is the aggregate read backing the profile view.
type Profile struct {
	WorkoutCount    int
	CompletionCount int
	IntervalHours   int
}
