// Package config loads runtime settings from the environment and optional
// .env files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

// DefaultEnvFiles are read by Load when no files are given.
var DefaultEnvFiles = []string{".env", ".env.local"}

type DatabaseOptions struct {
	Path        string        `env:"DB_PATH" envDefault:"requirements.db"`
	BusyTimeout time.Duration `env:"DB_BUSY_TIMEOUT" envDefault:"5s"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Prometheus PrometheusOptions

	ServerPort       int           `env:"PORT" envDefault:"5000"`
	Host             string        `env:"HOST" envDefault:"localhost"`
	OwnerID          int64         `env:"OWNER_ID" envDefault:"1"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"text"`
	GoAppEnvironment string        `env:"GO_APP_ENV" envDefault:"development"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// The request id is taken from this header when present, otherwise a uuid is generated.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	SocketAddress string `env:"-"`

	logger *logrus.Logger
}

// LoadEnv loads the env files that exist and returns how many were loaded.
// Variables already set in the environment take precedence.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads envFiles (DefaultEnvFiles when none are given) and parses the
// environment into a Configuration.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("%s:%d", c.Host, c.ServerPort)
	}
	c.logger = c.newLogger()
	return c, nil
}

func (c *Configuration) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.OwnerID <= 0 {
		return fmt.Errorf("OWNER_ID must be positive, got %d", c.OwnerID)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got '%s'", c.LogFormat)
	}
	return nil
}

// Logger returns the logger configured by LOG_LEVEL and LOG_FORMAT.
func (c *Configuration) Logger() *logrus.Logger {
	if c.logger == nil {
		c.logger = c.newLogger()
	}
	return c.logger
}

func (c *Configuration) newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(c.LogrusLogLevel())
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
