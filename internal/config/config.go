// Package config handles application configuration from environment variables,
// an optional .env file and an optional YAML tuning file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"tipbot/internal/scoring"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken    string
	DatabasePath        string
	StoreBackend        string
	RedisAddr           string
	LogLevel            string
	AllowedUsers        []int64
	OddsAPIKey          string
	OddsAPIBase         string
	ScanInterval        time.Duration
	ConfidenceThreshold int
	TopTipsPerScan      int
	DefaultProfile      scoring.Profile
	Location            *time.Location
	HTTPAddr            string
	DataDir             string
	NewsFeeds           []string
	Tuning              Tuning
}

// Load reads configuration and requires a Telegram token.
func Load() (*Config, error) {
	cfg, err := LoadWithoutToken()
	if err != nil {
		return nil, err
	}
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	return cfg, nil
}

// LoadWithoutToken reads configuration for tools that never talk to Telegram.
func LoadWithoutToken() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabasePath:     getenv("DATABASE_PATH", "./data/bot.db"),
		StoreBackend:     strings.ToLower(getenv("STORE_BACKEND", BackendMemory)),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		OddsAPIKey:       strings.TrimSpace(os.Getenv("ODDS_API_KEY")),
		OddsAPIBase:      os.Getenv("ODDS_API_BASE"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		DataDir:          getenv("DATA_DIR", "."),
		NewsFeeds:        splitList(os.Getenv("NEWS_FEEDS")),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q, use: memory, sqlite, redis", cfg.StoreBackend)
	}

	users, err := parseUsers(os.Getenv("ALLOWED_USERS"))
	if err != nil {
		return nil, err
	}
	cfg.AllowedUsers = users

	mins, err := intEnv("SCAN_INTERVAL_MIN", 10, 1, 1440)
	if err != nil {
		return nil, err
	}
	cfg.ScanInterval = time.Duration(mins) * time.Minute

	if cfg.ConfidenceThreshold, err = intEnv("CONFIDENCE_THRESHOLD", 85, 0, 100); err != nil {
		return nil, err
	}
	if cfg.TopTipsPerScan, err = intEnv("TOP_TIPS_PER_SCAN", 3, 1, 50); err != nil {
		return nil, err
	}

	if cfg.DefaultProfile, err = scoring.ParseProfile(getenv("DEFAULT_PROFILE", string(scoring.ProfileFlamengo))); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_PROFILE: %w", err)
	}

	tz := getenv("TIMEZONE", "Europe/Prague")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if cfg.Tuning, err = LoadTuning(os.Getenv("TUNING_FILE")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", key, lo, hi)
	}
	return v, nil
}

func parseUsers(raw string) ([]int64, error) {
	var users []int64
	for _, s := range splitList(raw) {
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		users = append(users, uid)
	}
	return users, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
