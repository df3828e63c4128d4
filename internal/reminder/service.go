package reminder

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"trenbot/internal/planner"
	"trenbot/internal/storage"
	logx "trenbot/pkg/logx"
)

type Config struct {
	Enabled     bool
	SendTimeout time.Duration // per-recipient send timeout; 0 means default
	RatePerSec  int           // outbound rate limit; 0 means default
}

// Service drives the hourly reminder tick. The cron trigger fires on the
// hour; everything else (due selection, interval gating, delivery) happens
// inside Tick so tests can drive it with a fixed clock.
type Service struct {
	cfg   Config
	store storage.Store
	disp  *Dispatcher
	log   logx.Logger

	mu sync.Mutex
	c  *cron.Cron

	now func() time.Time // test hook
}

func New(cfg Config, store storage.Store, sender Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:   cfg,
		store: store,
		disp:  NewDispatcher(sender, store, log, cfg.SendTimeout, cfg.RatePerSec),
		log:   log,
		now:   time.Now,
	}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc("0 * * * *", func() { s.safeTick(ctx) }); err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	s.c = c
	c.Start()
	s.log.Info("reminder loop started")
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.log.Warn("reminder stop cancelled while a tick was running")
	}
	s.log.Info("reminder loop stopped")
}

// safeTick isolates one tick from the loop: a panic or error inside a tick
// is logged and the next scheduled wake-up still happens.
func (s *Service) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick panicked",
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()
	if _, err := s.Tick(ctx, s.now()); err != nil {
		s.log.Warn("tick failed", logx.Err(err))
	}
}

// Tick performs one scheduling pass for the given wall-clock time:
// select workouts due at (weekday, hour), keep the ones whose owner is
// eligible this hour, and hand the set to the dispatcher.
func (s *Service) Tick(ctx context.Context, now time.Time) (Report, error) {
	day := planner.WeekdayOf(now)
	hour := now.Hour()

	due, err := s.store.ListDue(ctx, day, hour)
	if err != nil {
		return Report{}, fmt.Errorf("list due: %w", err)
	}

	eligible := due[:0:0]
	for _, w := range due {
		if planner.EligibleAt(hour, w.IntervalHours) {
			eligible = append(eligible, w)
		}
	}

	_, rep := s.disp.Deliver(ctx, eligible)
	rep.Due = len(due)

	if rep.Due > 0 || s.log.Enabled(logx.LevelDebug) {
		s.log.Info("tick complete",
			logx.String("day", day.Label()),
			logx.Int("hour", hour),
			logx.Int("due", rep.Due),
			logx.Int("eligible", rep.Eligible),
			logx.Int("delivered", rep.Delivered),
			logx.Int("failed", rep.Failed),
		)
	}
	return rep, nil
}
