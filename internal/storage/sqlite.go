package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"trenbot/internal/planner"
	logx "trenbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open opens (and migrates) the SQLite store at cfg.Path.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	path := cfg.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) UpsertUser(ctx context.Context, id int64) (planner.User, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, interval_hours, created_at) VALUES(?,?,?)
		 ON CONFLICT(id) DO NOTHING`,
		id, planner.DefaultIntervalHours, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return planner.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *sqliteStore) GetUser(ctx context.Context, id int64) (planner.User, error) {
	var (
		u   planner.User
		raw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, interval_hours, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.IntervalHours, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.User{}, ErrNotFound
	}
	if err != nil {
		return planner.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTime(raw)
	return u, nil
}

func (s *sqliteStore) SetUserInterval(ctx context.Context, id int64, hours int) error {
	if hours <= 0 {
		return fmt.Errorf("interval must be positive, got %d", hours)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET interval_hours = ? WHERE id = ?`, hours, id)
	if err != nil {
		return fmt.Errorf("set interval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) CreateWorkout(ctx context.Context, w planner.Workout) (int64, error) {
	if !w.Day.Valid() {
		return 0, fmt.Errorf("invalid weekday %d", w.Day)
	}
	if !planner.ValidHour(w.Hour) {
		return 0, fmt.Errorf("invalid hour %d", w.Hour)
	}
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	// Owner must exist before the workout references it.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users(id, interval_hours, created_at) VALUES(?,?,?)
		 ON CONFLICT(id) DO NOTHING`,
		w.UserID, planner.DefaultIntervalHours, now.Format(time.RFC3339Nano),
	); err != nil {
		return 0, fmt.Errorf("upsert owner: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO workouts(user_id, day, hour, title, created_at) VALUES(?,?,?,?,?)`,
		w.UserID, int(w.Day), w.Hour, w.Title, w.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert workout: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *sqliteStore) DeleteWorkout(ctx context.Context, id int64) error {
	// Idempotent: zero rows affected is still success.
	_, err := s.db.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}

func (s *sqliteStore) ListWorkouts(ctx context.Context, userID int64) ([]planner.Workout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, day, hour, title, created_at
		 FROM workouts WHERE user_id = ?
		 ORDER BY day, hour, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var out []planner.Workout
	for rows.Next() {
		var (
			w   planner.Workout
			day int
			raw string
		)
		if err := rows.Scan(&w.ID, &w.UserID, &day, &w.Hour, &w.Title, &raw); err != nil {
			return nil, err
		}
		w.Day = planner.Weekday(day)
		w.CreatedAt = parseTime(raw)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ListDue(ctx context.Context, day planner.Weekday, hour int) ([]planner.DueWorkout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT w.id, w.user_id, w.day, w.hour, w.title, w.created_at, u.interval_hours
		 FROM workouts w
		 JOIN users u ON u.id = w.user_id
		 WHERE w.day = ? AND w.hour = ?
		 ORDER BY w.user_id, w.id`, int(day), hour)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	defer rows.Close()

	var out []planner.DueWorkout
	for rows.Next() {
		var (
			d   planner.DueWorkout
			wd  int
			raw string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &wd, &d.Hour, &d.Title, &raw, &d.IntervalHours); err != nil {
			return nil, err
		}
		d.Day = planner.Weekday(wd)
		d.CreatedAt = parseTime(raw)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AppendCompletion(ctx context.Context, c planner.Completion) error {
	if c.OccurredAt.IsZero() {
		c.OccurredAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO completions(user_id, workout_id, occurred_at) VALUES(?,?,?)`,
		c.UserID, c.WorkoutID, c.OccurredAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append completion: %w", err)
	}
	return nil
}

func (s *sqliteStore) Profile(ctx context.Context, userID int64) (planner.Profile, error) {
	var p planner.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT u.interval_hours,
		        (SELECT COUNT(*) FROM workouts w WHERE w.user_id = u.id),
		        (SELECT COUNT(*) FROM completions c WHERE c.user_id = u.id)
		 FROM users u WHERE u.id = ?`, userID,
	).Scan(&p.IntervalHours, &p.WorkoutCount, &p.CompletionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.Profile{}, ErrNotFound
	}
	if err != nil {
		return planner.Profile{}, fmt.Errorf("profile: %w", err)
	}
	return p, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
