package global

import (
	"time"

	env "github.com/Netflix/go-env"
	"github.com/pkg/errors"
)

// AppConfig carries everything the process needs, loaded from environment
// variables at boot. Durations are strings so defaults stay readable;
// the norm() step parses and bounds them.
type AppConfig struct {
	ListenAddr string `env:"CHAT_LISTEN_ADDR,default=:8080"`
	LogLevel   string `env:"CHAT_LOG_LEVEL,default=info"`
	NodeID     int64  `env:"CHAT_NODE_ID,default=1"`

	JWTSecret  string `env:"CHAT_JWT_SECRET,default=dev-only-secret-change-me"`
	AccessTTL  string `env:"CHAT_ACCESS_TTL,default=2h"`
	ResetTTL   string `env:"CHAT_RESET_TTL,default=30m"`
	SessionTTL string `env:"CHAT_SESSION_TTL,default=72h"`

	RedisAddr     string `env:"CHAT_REDIS_ADDR"` // empty => in-memory stores
	RedisPassword string `env:"CHAT_REDIS_PASSWORD"`
	RedisDB       int    `env:"CHAT_REDIS_DB,default=0"`

	DefaultRoom   string `env:"CHAT_DEFAULT_ROOM,default=ROOM"`
	SendQueueSize int    `env:"CHAT_SEND_QUEUE,default=256"`

	AllowedOrigins string `env:"CHAT_ALLOWED_ORIGINS"` // comma separated; empty => allow all

	accessTTL  time.Duration
	resetTTL   time.Duration
	sessionTTL time.Duration
}

// Load reads the configuration from the environment.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := cfg.norm(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) norm() error {
	var err error
	if c.accessTTL, err = parseTTL(c.AccessTTL, 2*time.Hour); err != nil {
		return errors.Wrap(err, "CHAT_ACCESS_TTL")
	}
	if c.resetTTL, err = parseTTL(c.ResetTTL, 30*time.Minute); err != nil {
		return errors.Wrap(err, "CHAT_RESET_TTL")
	}
	if c.sessionTTL, err = parseTTL(c.SessionTTL, 72*time.Hour); err != nil {
		return errors.Wrap(err, "CHAT_SESSION_TTL")
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.DefaultRoom == "" {
		c.DefaultRoom = "ROOM"
	}
	return nil
}

func parseTTL(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

func (c *AppConfig) AccessTokenTTL() time.Duration  { return c.accessTTL }
func (c *AppConfig) ResetTokenTTL() time.Duration   { return c.resetTTL }
func (c *AppConfig) SessionTokenTTL() time.Duration { return c.sessionTTL }

func (c *AppConfig) JwtSecret() []byte { return []byte(c.JWTSecret) }
