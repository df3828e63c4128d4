// Package bot routes inbound transport updates to the entry flows and the
// read-side views. It owns all user-facing text and keyboards; the domain
// rules live in session, storage and queries.
package bot

import (
	"context"
	"runtime/debug"
	"strings"

	"trenbot/internal/queries"
	"trenbot/internal/session"
	"trenbot/internal/storage"
	kit "trenbot/internal/transport"
	logx "trenbot/pkg/logx"
	"trenbot/pkg/tgui"
)

type Router struct {
	ad       kit.Adapter
	store    storage.Store
	sessions *session.Store
	queries  *queries.Service
	log      logx.Logger
}

func NewRouter(ad kit.Adapter, store storage.Store, sessions *session.Store, q *queries.Service, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{ad: ad, store: store, sessions: sessions, queries: q, log: log}
}

// RegisterMenuCommands publishes the command menu when the adapter supports it.
func (r *Router) RegisterMenuCommands(ctx context.Context) {
	updater, ok := r.ad.(kit.CommandMenuUpdater)
	if !ok {
		return
	}
	cmds := []kit.BotCommand{
		{Command: "start", Description: "Show the menu"},
		{Command: "add", Description: "Add a workout"},
		{Command: "list", Description: "My workouts"},
		{Command: "profile", Description: "Profile and stats"},
		{Command: "interval", Description: "Set reminder interval"},
	}
	if err := updater.UpdateMenuCommands(ctx, cmds); err != nil {
		r.log.Warn("menu command update failed", logx.Err(err))
	}
}

// DispatchLoop consumes updates until the channel closes or ctx is done.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				return
			}
			go r.handle(ctx, up)
		}
	}
}

func (r *Router) handle(ctx context.Context, up kit.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("update handler panicked",
				logx.Any("panic", rec),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()

	switch up.Kind {
	case kit.UpdateMessage:
		if up.Message != nil {
			r.handleMessage(ctx, up.Message)
		}
	case kit.UpdateCallback:
		if up.Callback != nil {
			r.handleCallback(ctx, up.Callback)
		}
	}
}

func (r *Router) handleMessage(ctx context.Context, m *kit.Message) {
	text := strings.TrimSpace(m.Text)

	switch command(text) {
	case "start":
		r.onStart(ctx, m.FromID)
		return
	case "add":
		r.startAdd(ctx, m.FromID)
		return
	case "list":
		r.onList(ctx, m.FromID)
		return
	case "profile":
		r.onProfile(ctx, m.FromID)
		return
	case "interval":
		r.startInterval(ctx, m.FromID)
		return
	}

	// Free text is only meaningful as a workout title while the add flow is
	// waiting for one. Anything else is ignored, not guessed at.
	if r.sessions.StateOf(m.FromID) == session.AwaitingTitle {
		r.onTitle(ctx, m.FromID, text)
		return
	}
	r.log.Debug("unhandled text ignored", logx.Int64("user_id", m.FromID))
}

func (r *Router) handleCallback(ctx context.Context, cb *kit.Callback) {
	area, action, payload := tgui.Split(cb.Data)

	// Clear the client-side spinner regardless of outcome.
	defer func() {
		if err := r.ad.AnswerCallback(ctx, cb.ID, ""); err != nil {
			r.log.Debug("callback answer failed", logx.Err(err))
		}
	}()

	switch area {
	case areaMenu:
		switch action {
		case actionAdd:
			r.startAdd(ctx, cb.FromID)
		case actionList:
			r.onList(ctx, cb.FromID)
		case actionProfile:
			r.onProfile(ctx, cb.FromID)
		case actionInterval:
			r.startInterval(ctx, cb.FromID)
		}
	case areaAdd:
		switch action {
		case actionDay:
			r.onDay(ctx, cb.FromID, payload)
		case actionTime:
			r.onTime(ctx, cb.FromID, payload)
		}
	case areaInterval:
		if action == actionSet {
			r.onIntervalChoice(ctx, cb.FromID, payload)
		}
	case areaWorkout:
		if action == actionDelete {
			r.onDelete(ctx, cb, payload)
		}
	default:
		r.log.Debug("unknown callback ignored", logx.String("data", cb.Data))
	}
}

// command extracts a leading "/cmd" (with optional @botname suffix).
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	cmd = strings.TrimPrefix(cmd, "/")
	if at := strings.IndexByte(cmd, '@'); at != -1 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

func (r *Router) sendError(ctx context.Context, userID int64) {
	msg := tgui.New().
		Line("⚠️ Something went wrong. Please try again.").
		Inline(mainMenu()).
		Build()
	if _, err := msg.Send(ctx, r.ad, kit.ChatTarget{ChatID: userID}); err != nil {
		r.log.Warn("error acknowledgment failed", logx.Int64("user_id", userID), logx.Err(err))
	}
}
