// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/rachel/internal/session"
	"github.com/sirupsen/logrus"
)

// Config is read from the environment. Binaries autoload .env before parsing.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr   string `env:"REDIS_ADDR"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`
	QueueName   string `env:"HISTORIAN_QUEUE_NAME" envDefault:"rachel_games"`
	DatabaseURL string `env:"DATABASE_URL"`

	MaxPlayers      int           `env:"MAX_PLAYERS" envDefault:"4"`
	HandSize        int           `env:"HAND_SIZE" envDefault:"7"`
	IdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	DisconnectGrace time.Duration `env:"DISCONNECT_GRACE" envDefault:"30s"`
	ThinkScale      float64       `env:"AI_THINK_SCALE" envDefault:"1"`

	// TokenExpire of zero issues tokens that never expire.
	TokenExpire time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`

	HistorianBatchSize int `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlushMs   int `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxPlayers < 2 || cfg.MaxPlayers > 8 {
		return Config{}, fmt.Errorf("MAX_PLAYERS must be between 2 and 8, got %d", cfg.MaxPlayers)
	}
	return cfg, nil
}

// Sessions is the default per-session configuration.
func (c Config) Sessions() session.Config {
	return session.Config{
		MaxPlayers:      c.MaxPlayers,
		HandSize:        c.HandSize,
		IdleTimeout:     c.IdleTimeout,
		DisconnectGrace: c.DisconnectGrace,
		ThinkScale:      c.ThinkScale,
	}
}

func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.HistorianFlushMs) * time.Millisecond
}

// NewLogger builds the process logger at the configured level, falling back to info.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Warnf("unknown LOG_LEVEL %q, using info", c.LogLevel)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
