package reminder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"trenbot/internal/planner"
	"trenbot/internal/storage"
	kit "trenbot/internal/transport"
	logx "trenbot/pkg/logx"
)

// Sender is the slice of the messaging endpoint the dispatcher needs.
type Sender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error)
}

// SendResult is the typed outcome of one delivery attempt. Failures are
// suppressed (never escalated past the tick) but kept here so the caller can
// log and count them instead of losing the information.
type SendResult struct {
	Workout planner.DueWorkout
	Err     error
}

// Report summarizes one tick.
type Report struct {
	Due       int
	Eligible  int
	Delivered int
	Failed    int
}

// Dispatcher sends reminders for due workouts and records completions.
type Dispatcher struct {
	sender Sender
	store  storage.Store
	log    logx.Logger

	limiter     *rate.Limiter
	sendTimeout time.Duration
}

const (
	defaultSendTimeout = 10 * time.Second
	defaultRatePerSec  = 25 // under Telegram's ~30 msg/s broadcast ceiling
)

func NewDispatcher(sender Sender, store storage.Store, log logx.Logger, sendTimeout time.Duration, ratePerSec int) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		sender:      sender,
		store:       store,
		log:         log,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		sendTimeout: sendTimeout,
	}
}

// Deliver sends one reminder per due workout. One recipient's failure never
// stops the batch; the per-send timeout keeps a hung recipient from
// blocking the rest.
func (d *Dispatcher) Deliver(ctx context.Context, due []planner.DueWorkout) ([]SendResult, Report) {
	results := make([]SendResult, 0, len(due))
	rep := Report{Due: len(due), Eligible: len(due)}

	for _, w := range due {
		if ctx.Err() != nil {
			break
		}
		err := d.deliverOne(ctx, w)
		results = append(results, SendResult{Workout: w, Err: err})
		if err != nil {
			rep.Failed++
			d.log.Warn("reminder delivery failed",
				logx.Int64("user_id", w.UserID),
				logx.Int64("workout_id", w.ID),
				logx.Err(err),
			)
			continue
		}
		rep.Delivered++
	}
	return results, rep
}

func (d *Dispatcher) deliverOne(ctx context.Context, w planner.DueWorkout) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	text := fmt.Sprintf("⏰ Reminder! Workout today at %s:\n🏋️ %s", planner.FormatHour(w.Hour), w.Title)
	if _, err := d.sender.SendText(sendCtx, kit.ChatTarget{ChatID: w.UserID}, text, nil); err != nil {
		return err
	}

	// Best-effort ordering: record only after the send is confirmed. A crash
	// in between leaves a sent-but-unrecorded reminder, which is acceptable
	// (completion count is a statistic, not a ledger).
	if err := d.store.AppendCompletion(ctx, planner.Completion{UserID: w.UserID, WorkoutID: w.ID}); err != nil {
		d.log.Warn("completion record failed after delivery",
			logx.Int64("user_id", w.UserID),
			logx.Int64("workout_id", w.ID),
			logx.Err(err),
		)
	}
	return nil
}
