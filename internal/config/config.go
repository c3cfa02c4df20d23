package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings read from MERGINGTON_* environment variables.
type Config struct {
	Addr           string        `env:"MERGINGTON_ADDR"            envDefault:":8080"`
	Env            string        `env:"MERGINGTON_ENV"             envDefault:"development"`
	LogLevel       string        `env:"MERGINGTON_LOG_LEVEL"       envDefault:"info"`
	SourceURL      string        `env:"MERGINGTON_SOURCE_URL"      envDefault:"http://localhost:8000/activities"`
	SourceTimeout  time.Duration `env:"MERGINGTON_SOURCE_TIMEOUT"  envDefault:"0s"`
	MessageTTL     time.Duration `env:"MERGINGTON_MESSAGE_TTL"     envDefault:"3s"`
	JournalPath    string        `env:"MERGINGTON_JOURNAL_PATH"    envDefault:"mergington.db"`
	CSRFKey        string        `env:"MERGINGTON_CSRF_KEY"`
	TrustedOrigins []string      `env:"MERGINGTON_TRUSTED_ORIGINS" envDefault:"localhost:8080,127.0.0.1:8080" envSeparator:","`
	RateLimit      int           `env:"MERGINGTON_RATE_LIMIT"      envDefault:"10"`
	SlowRequestMS  int           `env:"MERGINGTON_SLOW_REQUEST_MS" envDefault:"200"`
	SlowQueryMS    int           `env:"MERGINGTON_SLOW_QUERY_MS"   envDefault:"50"`
	ResendKey      string        `env:"MERGINGTON_RESEND_KEY"`
	MailFrom       string        `env:"MERGINGTON_MAIL_FROM"       envDefault:"Mergington High School <noreply@mergington.edu>"`
}

// Load parses the environment and validates the result.
// PRE: none
// POST: Returns a validated config or an error naming the bad setting
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parse but make no sense.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("MERGINGTON_ADDR must not be empty")
	}
	if c.MessageTTL <= 0 {
		return errors.New("MERGINGTON_MESSAGE_TTL must be positive")
	}
	if c.SourceTimeout < 0 {
		return errors.New("MERGINGTON_SOURCE_TIMEOUT must not be negative")
	}
	if c.RateLimit <= 0 {
		return errors.New("MERGINGTON_RATE_LIMIT must be positive")
	}
	if c.SlowRequestMS < 0 || c.SlowQueryMS < 0 {
		return errors.New("slow thresholds must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.IsProduction() && c.CSRFKey == "" {
		return errors.New("MERGINGTON_CSRF_KEY is required in production")
	}
	return nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlowRequest is the threshold above which a request is logged as slow.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}

// SlowQuery is the threshold above which a journal query is logged as slow.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}

// Origins returns the trusted origins with blanks removed.
func (c Config) Origins() []string {
	out := make([]string, 0, len(c.TrustedOrigins))
	for _, o := range c.TrustedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// CSRFSecret decodes MERGINGTON_CSRF_KEY (hex-encoded, 32 bytes).
// Outside production a missing key yields a random one per startup.
// PRE: none
// POST: Returns a 32-byte key or an error
func (c Config) CSRFSecret() ([]byte, error) {
	if c.CSRFKey != "" {
		key, err := hex.DecodeString(c.CSRFKey)
		if err != nil || len(key) != 32 {
			return nil, errors.New("MERGINGTON_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if c.IsProduction() {
		return nil, errors.New("MERGINGTON_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "forms won't survive restart; set MERGINGTON_CSRF_KEY")
	return key, nil
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}
