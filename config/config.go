/*
Package config loads runtime settings from the environment.

PURPOSE:
  One place for everything the server and CLI read from outside the
  binary: listen port, database path, policy file, logging and CORS.
  Values come from the process environment, optionally seeded from
  .env files in the working directory.

ENVIRONMENT:
  PORT                  HTTP port (default: 8080)
  DB_PATH               SQLite path, ":memory:" for ephemeral (default: payroll.db)
  POLICY_FILE           JSON payroll policy; empty uses built-in defaults
  LOG_LEVEL             silent | error | warn | info | debug (default: info)
  LOG_FORMAT            text | json (default: text)
  METRICS_PATH          Prometheus scrape path (default: /metrics)
  CORS_ALLOWED_ORIGINS  Comma separated origins
  TIMEZONE              IANA zone used for "now" in edit windows (default: America/La_Paz)

SEE ALSO:
  - cmd/payroll/serve.go: consumes Config
  - factory/policy.go: POLICY_FILE format
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultEnvFiles are read, when present, before parsing the environment.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds the runtime settings.
type Config struct {
	Port               int      `env:"PORT" envDefault:"8080"`
	DBPath             string   `env:"DB_PATH" envDefault:"payroll.db"`
	PolicyFile         string   `env:"POLICY_FILE"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string   `env:"LOG_FORMAT" envDefault:"text"`
	MetricsPath        string   `env:"METRICS_PATH" envDefault:"/metrics"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
	Timezone           string   `env:"TIMEZONE" envDefault:"America/La_Paz"`
}

// LoadEnv loads the env files that exist and returns how many were read.
// Variables already set in the process win over file values.
func LoadEnv(envFiles []string) (int, error) {
	exists := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			exists = append(exists, file)
		}
	}
	if len(exists) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(exists...); err != nil {
		return 0, fmt.Errorf("load env files: %w", err)
	}
	return len(exists), nil
}

// Load reads DefaultEnvFiles and parses the environment.
func Load() (*Config, error) {
	if _, err := LoadEnv(DefaultEnvFiles); err != nil {
		return nil, err
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", c.Port)
	}
	return c, nil
}

// Address is the listen address for http.Server.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Location resolves Timezone, falling back to UTC when the zone is unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogrusLogLevel maps LOG_LEVEL to a logrus level.
func (c *Config) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(c.LogrusLogLevel())
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
