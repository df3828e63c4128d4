// Package app wires the bot together: config, logging, storage, sessions,
// the reminder loop and the Telegram transport.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"trenbot/internal/bot"
	"trenbot/internal/config"
	"trenbot/internal/queries"
	"trenbot/internal/reminder"
	"trenbot/internal/session"
	"trenbot/internal/storage"
	kit "trenbot/internal/transport"
	"trenbot/internal/transport/telegram"
	logx "trenbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	sessions *session.Store
	rem      *reminder.Service
	router   *bot.Router

	adapter kit.Adapter
	updates chan kit.Update

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	busyTimeout, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	sessionTTL, err := config.ParseDurationOrDefault("session.ttl", cfg.Session.TTL, 0)
	if err != nil {
		return nil, err
	}
	sessions := session.NewStore(sessionTTL, log.With(logx.String("comp", "session")))

	sendTimeout, err := config.ParseDurationOrDefault("reminder.send_timeout", cfg.Reminder.SendTimeout, 0)
	if err != nil {
		return nil, err
	}
	rem := reminder.New(reminder.Config{
		Enabled:     cfg.Reminder.IsEnabled(),
		SendTimeout: sendTimeout,
		RatePerSec:  cfg.Reminder.RatePerSec,
	}, st, ad, log.With(logx.String("comp", "reminder")))

	q := queries.New(st, log.With(logx.String("comp", "queries")))
	router := bot.NewRouter(ad, st, sessions, q, log.With(logx.String("comp", "bot")))

	return &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		store:    st,
		sessions: sessions,
		rem:      rem,
		router:   router,
		adapter:  ad,
		updates:  make(chan kit.Update, 256),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// Config reloads are validated before they are published; a broken edit
	// never reaches subscribers.
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validate(cfg)
	})

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return fmt.Errorf("start transport: %w", err)
	}

	a.router.RegisterMenuCommands(runCtx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.router.DispatchLoop(runCtx, a.updates)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.sessions.RunJanitor(runCtx)
	}()

	if a.rem.Enabled() {
		if err := a.rem.Start(runCtx); err != nil {
			cancel()
			return fmt.Errorf("start reminder loop: %w", err)
		}
	} else {
		a.log.Info("reminder loop disabled by config")
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.consumeConfigUpdates(runCtx)
	}()

	a.log.Info("started")
	return nil
}

// consumeConfigUpdates applies the hot-swappable parts of a reloaded config.
// Only logging is live-reconfigurable; token, storage path and the reminder
// schedule need a restart.
func (a *App) consumeConfigUpdates(ctx context.Context) {
	sub := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	a.rem.Stop(ctx)

	var errs []error
	if err := a.adapter.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop transport: %w", err))
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("shutdown deadline hit while workers were still draining")
	}

	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}

// validate checks the fields a live reload could break.
func validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		return errors.New("storage.path is required")
	}
	for _, f := range []struct{ name, val string }{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeout},
		{"storage.busy_timeout", cfg.Storage.BusyTimeout},
		{"reminder.send_timeout", cfg.Reminder.SendTimeout},
		{"session.ttl", cfg.Session.TTL},
	} {
		if _, err := config.ParseDurationOrDefault(f.name, f.val, 0); err != nil {
			return err
		}
	}
	return nil
}
