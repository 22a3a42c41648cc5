package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/dailyalbum/internal/logger"
)

type Config struct {
	Addr                  string
	DBPath                string
	LogLevel              string
	ChallengeTZ           string
	CatalogURL            string
	CatalogTimeoutSeconds int
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	CatalogCacheTTLSecs   int
	DefaultMaxAttempts    int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                  envOr("ADDR", ":8080"),
		DBPath:                envOr("DB_PATH", "file:dailyalbum.db"),
		LogLevel:              envOr("LOG_LEVEL", "INFO"),
		ChallengeTZ:           envOr("CHALLENGE_TZ", "UTC"),
		CatalogURL:            envOr("CATALOG_URL", "http://localhost:8090"),
		CatalogTimeoutSeconds: envIntOr("CATALOG_TIMEOUT_SECONDS", 5),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               envIntOr("REDIS_DB", 0),
		CatalogCacheTTLSecs:   envIntOr("CATALOG_CACHE_TTL_SECONDS", 3600),
		DefaultMaxAttempts:    envIntOr("DEFAULT_MAX_ATTEMPTS", 6),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	if _, err := time.LoadLocation(c.ChallengeTZ); err != nil || c.ChallengeTZ == "" {
		errs = append(errs, fmt.Errorf("CHALLENGE_TZ %q is not a known time zone", c.ChallengeTZ))
	}
	if u, err := url.Parse(c.CatalogURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("CATALOG_URL must be an absolute http(s) URL, got %q", c.CatalogURL))
	}
	if c.CatalogTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_TIMEOUT_SECONDS must be positive, got %d", c.CatalogTimeoutSeconds))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB cannot be negative, got %d", c.RedisDB))
	}
	if c.CatalogCacheTTLSecs <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_CACHE_TTL_SECONDS must be positive, got %d", c.CatalogCacheTTLSecs))
	}
	if c.DefaultMaxAttempts < 1 || c.DefaultMaxAttempts > 20 {
		errs = append(errs, fmt.Errorf("DEFAULT_MAX_ATTEMPTS must be between 1 and 20, got %d", c.DefaultMaxAttempts))
	}

	return errors.Join(errs...)
}

// Location returns the time zone that decides which calendar date is "today".
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ChallengeTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutSeconds) * time.Second
}

func (c Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSecs) * time.Second
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
