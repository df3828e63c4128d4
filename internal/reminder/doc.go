// Package reminder runs the background delivery loop: once per hour it
// selects workouts whose slot matches the wall clock, gates recipients by
// their configured reminder interval, and sends each one a message.
//
// Delivery is best-effort and at-most-once per eligible tick. A failed send
// is logged and skipped; nothing is retried until the user's next eligible
// tick. Ticks missed while the process was down are not backfilled.
package reminder
