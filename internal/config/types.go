package config

// Config is the on-disk configuration. YAML and JSON are both accepted;
// unknown keys are rejected so typos surface at startup instead of being
// silently ignored.
//
// Credentials can be supplied via environment variables instead of the
// file: TELEGRAM_TOKEN and DB_PATH override their file counterparts.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Reminder ReminderConfig `json:"reminder"`
	Session  SessionConfig  `json:"session"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout is a Go duration string (sqlite busy_timeout pragma).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// ReminderConfig controls the hourly delivery loop.
//
// Enabled is a pointer so an omitted field defaults to true while an
// explicit false still disables the loop.
type ReminderConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
	// SendTimeout is a Go duration string; per-recipient send deadline.
	SendTimeout string `json:"send_timeout,omitempty"`
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
}

func (r ReminderConfig) IsEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

type SessionConfig struct {
	// TTL is a Go duration string; abandoned entry flows older than this
	// are swept from memory.
	TTL string `json:"ttl,omitempty"`
}
