package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"trenbot/internal/planner"
	"trenbot/internal/session"
	kit "trenbot/internal/transport"
	logx "trenbot/pkg/logx"
	"trenbot/pkg/tgui"
)

func (r *Router) onStart(ctx context.Context, userID int64) {
	if _, err := r.store.UpsertUser(ctx, userID); err != nil {
		r.log.Error("user upsert failed", logx.Int64("user_id", userID), logx.Err(err))
		r.sendError(ctx, userID)
		return
	}
	msg := tgui.New().
		Title("👋", "Workout planner").
		Line("I keep your weekly workouts and remind you when it's time.").
		Inline(mainMenu()).
		Build()
	if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
		r.log.Warn("greeting send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}

// ---- add-workout flow ----

func (r *Router) startAdd(ctx context.Context, userID int64) {
	if _, err := r.store.UpsertUser(ctx, userID); err != nil {
		r.log.Error("user upsert failed", logx.Int64("user_id", userID), logx.Err(err))
		r.sendError(ctx, userID)
		return
	}
	r.sessions.BeginAdd(userID)
	if _, err := r.ad.SendChoices(ctx, kit.ChatTarget{ChatID: userID},
		"Pick a day for the workout:", 2, dayChoices()); err != nil {
		r.log.Warn("day picker send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}

func (r *Router) onDay(ctx context.Context, userID int64, payload string) {
	day, err := planner.ParseWeekdayToken(payload)
	if err != nil {
		r.log.Debug("bad day token ignored", logx.Int64("user_id", userID), logx.String("payload", payload))
		return
	}
	if err := r.sessions.SetDay(userID, day); err != nil {
		// Stray press from an old keyboard; captured state stays untouched.
		if errors.Is(err, session.ErrOutOfSequence) {
			r.log.Debug("day press out of sequence", logx.Int64("user_id", userID))
			return
		}
		return
	}
	text := fmt.Sprintf("Day: %s\nNow pick a time:", day.Label())
	if _, err := r.ad.SendChoices(ctx, kit.ChatTarget{ChatID: userID}, text, 3, timeChoices()); err != nil {
		r.log.Warn("time picker send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}

func (r *Router) onTime(ctx context.Context, userID int64, payload string) {
	hour, err := strconv.Atoi(payload)
	if err != nil || hour < planner.PickerFirstHour || hour > planner.PickerLastHour {
		r.log.Debug("bad time token ignored", logx.Int64("user_id", userID), logx.String("payload", payload))
		return
	}
	if err := r.sessions.SetHour(userID, hour); err != nil {
		if errors.Is(err, session.ErrOutOfSequence) {
			r.log.Debug("time press out of sequence", logx.Int64("user_id", userID))
		}
		return
	}
	msg := tgui.New().Line("Send me the workout title:").Build()
	if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
		r.log.Warn("title prompt send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}

func (r *Router) onTitle(ctx context.Context, userID int64, title string) {
	draft, err := r.sessions.CompleteTitle(userID, title)
	if err != nil {
		return
	}
	id, err := r.store.CreateWorkout(ctx, planner.Workout{
		UserID: userID,
		Day:    draft.Day,
		Hour:   draft.Hour,
		Title:  draft.Title,
	})
	if err != nil {
		r.log.Error("workout create failed", logx.Int64("user_id", userID), logx.Err(err))
		r.sendError(ctx, userID)
		return
	}
	r.log.Info("workout created",
		logx.Int64("user_id", userID),
		logx.Int64("workout_id", id),
		logx.String("day", draft.Day.Label()),
		logx.Int("hour", draft.Hour),
	)
	msg := tgui.New().
		Line(fmt.Sprintf("✅ Workout added: %s at %s — %s", draft.Day.Label(), planner.FormatHour(draft.Hour), draft.Title)).
		Inline(mainMenu()).
		Build()
	if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
		r.log.Warn("confirmation send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}

// ---- reminder-interval flow ----

func (r *Router) startInterval(ctx context.Context, userID int64) {
	if _, err := r.store.UpsertUser(ctx, userID); err != nil {
		r.log.Error("user upsert failed", logx.Int64("user_id", userID), logx.Err(err))
		r.sendError(ctx, userID)
		return
	}
	r.sessions.BeginInterval(userID)
	if _, err := r.ad.SendChoices(ctx, kit.ChatTarget{ChatID: userID},
		"How often should I remind you?", 3, intervalChoiceSet()); err != nil {
		r.log.Warn("interval picker send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}

func (r *Router) onIntervalChoice(ctx context.Context, userID int64, payload string) {
	hours, err := strconv.Atoi(payload)
	if err != nil || !validInterval(hours) {
		r.log.Debug("bad interval token ignored", logx.Int64("user_id", userID), logx.String("payload", payload))
		return
	}
	if err := r.sessions.CompleteInterval(userID); err != nil {
		r.log.Debug("interval press out of sequence", logx.Int64("user_id", userID))
		return
	}
	if err := r.store.SetUserInterval(ctx, userID, hours); err != nil {
		r.log.Error("interval update failed", logx.Int64("user_id", userID), logx.Err(err))
		r.sendError(ctx, userID)
		return
	}
	msg := tgui.New().
		Line(fmt.Sprintf("✅ I'll remind you every %d hour(s).", hours)).
		Inline(mainMenu()).
		Build()
	if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
		r.log.Warn("confirmation send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}

// ---- list / delete / profile ----

func (r *Router) onList(ctx context.Context, userID int64) {
	workouts, err := r.queries.ListWorkouts(ctx, userID)
	if err != nil {
		r.log.Error("list failed", logx.Int64("user_id", userID), logx.Err(err))
		r.sendError(ctx, userID)
		return
	}
	if len(workouts) == 0 {
		msg := tgui.New().
			Line("No workouts yet 😴").
			Inline(mainMenu()).
			Build()
		if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
			r.log.Warn("list send failed", logx.Int64("user_id", userID), logx.Err(err))
		}
		return
	}

	// One message per workout so each row carries its own delete button.
	for _, w := range workouts {
		msg := tgui.New().
			Line(fmt.Sprintf("📅 %s %s", w.Day.Label(), planner.FormatHour(w.Hour))).
			Line("🏋️ " + w.Title).
			Inline(deleteButton(w.ID)).
			Build()
		if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
			r.log.Warn("list row send failed",
				logx.Int64("user_id", userID),
				logx.Int64("workout_id", w.ID),
				logx.Err(err),
			)
			return
		}
	}
}

func (r *Router) onDelete(ctx context.Context, cb *kit.Callback, payload string) {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		r.log.Debug("bad delete token ignored", logx.String("payload", payload))
		return
	}
	if err := r.queries.DeleteWorkout(ctx, id); err != nil {
		r.log.Error("delete failed", logx.Int64("workout_id", id), logx.Err(err))
		r.sendError(ctx, cb.FromID)
		return
	}
	// Replace the row message in place, like tapping "delete" should feel.
	msg := tgui.New().Line("❌ Workout deleted").Build()
	if err := msg.Edit(ctx, r.ad, kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}); err != nil {
		r.log.Debug("delete edit failed", logx.Int64("workout_id", id), logx.Err(err))
	}
}

func (r *Router) onProfile(ctx context.Context, userID int64) {
	p, err := r.queries.Profile(ctx, userID)
	if err != nil {
		r.log.Error("profile failed", logx.Int64("user_id", userID), logx.Err(err))
		r.sendError(ctx, userID)
		return
	}
	msg := tgui.New().
		Title("👤", "Profile").
		KV("Workouts", strconv.Itoa(p.WorkoutCount)).
		KV("Reminders delivered", strconv.Itoa(p.CompletionCount)).
		KV("Reminder interval", fmt.Sprintf("%dh", p.IntervalHours)).
		Inline(mainMenu()).
		Build()
	if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
		r.log.Warn("profile send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}
