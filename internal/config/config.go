package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const DefaultStorageKey = "@gomarketplace/cart"

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Storage struct {
	Backend     string
	Key         string
	Dir         string
	RedisURL    string
	PostgresDSN string
}

type Config struct {
	LogLevel    string
	Storage     Storage
	WriteMode   string
	ErrorPolicy string
}

// Load reads the configuration from CART_* environment variables.
func Load() (Config, error) {
	cfg := Config{
		LogLevel: getEnv("CART_LOG_LEVEL", "info"),
		Storage: Storage{
			Backend:     getEnv("CART_STORAGE", BackendMemory),
			Key:         getEnv("CART_STORAGE_KEY", DefaultStorageKey),
			Dir:         getEnv("CART_STORAGE_DIR", ""),
			RedisURL:    getEnv("CART_REDIS_URL", ""),
			PostgresDSN: getEnv("CART_POSTGRES_DSN", ""),
		},
		WriteMode:   getEnv("CART_WRITE_MODE", "concurrent"),
		ErrorPolicy: getEnv("CART_ERROR_POLICY", "log"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("cfg.Validate: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level[%s] is not valid", c.LogLevel))
	}

	switch c.WriteMode {
	case "concurrent", "serial":
	default:
		errs = append(errs, fmt.Errorf("write mode[%s] is not valid", c.WriteMode))
	}

	switch c.ErrorPolicy {
	case "silent", "log", "propagate":
	default:
		errs = append(errs, fmt.Errorf("error policy[%s] is not valid", c.ErrorPolicy))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s Storage) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("storage key is empty")
	}

	switch s.Backend {
	case BackendMemory:
	case BackendFile:
		if s.Dir == "" {
			return fmt.Errorf("storage dir is empty")
		}
	case BackendRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("redis url is empty")
		}
	case BackendPostgres:
		if s.PostgresDSN == "" {
			return fmt.Errorf("postgres dsn is empty")
		}
	default:
		return fmt.Errorf("storage backend[%s] is not valid", s.Backend)
	}

	return nil
}

// NewLogger returns a JSON logger, falling back to info for an unknown level.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
