package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "https://api.hubapi.com/crm/v3/objects"
	// MaxBatchSize is the largest batch the CRM batch-create endpoint accepts.
	MaxBatchSize = 100
)

var ErrMissingAccessToken = errors.New("CRM_ACCESS_TOKEN environment variable is required")

type Config struct {
	AccessToken          string
	BaseURL              string
	BatchSize            int
	PageSize             int
	RateLimitPause       time.Duration
	PageMaxRetries       int
	HTTPTimeout          time.Duration
	RosterFile           string
	ReservedEmailDomains []string
	MySQLDSN             string
	StubHTTPPort         string
	LogLevel             string
	LogFormat            string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	token := strings.TrimSpace(getEnv("CRM_ACCESS_TOKEN", os.Getenv("HUBSPOT_ACCESS_TOKEN")))
	if token == "" {
		return nil, ErrMissingAccessToken
	}

	return &Config{
		AccessToken:          token,
		BaseURL:              strings.TrimRight(getEnv("CRM_BASE_URL", DefaultBaseURL), "/"),
		BatchSize:            clamp(getIntEnv("CRM_BATCH_SIZE", MaxBatchSize), 1, MaxBatchSize),
		PageSize:             clamp(getIntEnv("CRM_PAGE_SIZE", 100), 1, 100),
		RateLimitPause:       getDurationEnv("CRM_RATE_LIMIT_PAUSE", 10*time.Second),
		PageMaxRetries:       max(getIntEnv("CRM_PAGE_MAX_RETRIES", 0), 0),
		HTTPTimeout:          getDurationEnv("CRM_HTTP_TIMEOUT", 30*time.Second),
		RosterFile:           getEnv("ROSTER_CSV", "playmetrics_players.csv"),
		ReservedEmailDomains: getListEnv("RESERVED_EMAIL_DOMAINS", []string{"example.com"}),
		MySQLDSN:             strings.TrimSpace(os.Getenv("MYSQL_DSN")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}, nil
}

// LoadStub reads only the settings the local CRM stub needs; the access
// token is optional there and disables the bearer check when empty.
func LoadStub() *Config {
	_ = godotenv.Load()

	return &Config{
		AccessToken:  strings.TrimSpace(getEnv("CRM_ACCESS_TOKEN", os.Getenv("HUBSPOT_ACCESS_TOKEN"))),
		StubHTTPPort: getEnv("STUB_HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
	}
}

// LoadDSN is used by commands that only touch the run-history store.
func LoadDSN() (string, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return "", errors.New("MYSQL_DSN environment variable is required")
	}
	return dsn, nil
}

func (c *Config) HasRunStore() bool {
	return c.MySQLDSN != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a whole number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
