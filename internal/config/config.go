// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults and allowed ranges for tunable settings.
const (
	DefaultPort            = 5055
	DefaultRefreshSeconds  = 120
	DefaultPageSize        = 50
	DefaultRatingThreshold = 7.5

	MinRefreshSeconds = 30
	MaxRefreshSeconds = 3600
	MinPageSize       = 25
	MaxPageSize       = 200
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	AllowedUsers     []int64
	NotifyChatID     int64

	JellyseerrHost   string
	JellyseerrPort   int
	JellyseerrSSL    bool
	JellyseerrAPIKey string

	RefreshSeconds  int
	PageSize        int
	RatingThreshold float64
	TrustedUsers    []string

	DatabasePath string
	LogLevel     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	host := os.Getenv("JELLYSEERR_HOST")
	if host == "" {
		return nil, fmt.Errorf("JELLYSEERR_HOST is required")
	}

	apiKey := os.Getenv("JELLYSEERR_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("JELLYSEERR_API_KEY is required")
	}

	port, err := intEnv("JELLYSEERR_PORT", DefaultPort, 1, 65535)
	if err != nil {
		return nil, err
	}

	ssl, err := boolEnv("JELLYSEERR_SSL")
	if err != nil {
		return nil, err
	}

	refresh, err := intEnv("REFRESH_INTERVAL_SECONDS", DefaultRefreshSeconds, MinRefreshSeconds, MaxRefreshSeconds)
	if err != nil {
		return nil, err
	}

	pageSize, err := intEnv("PAGE_SIZE", DefaultPageSize, MinPageSize, MaxPageSize)
	if err != nil {
		return nil, err
	}

	threshold := DefaultRatingThreshold
	if raw := os.Getenv("RATING_THRESHOLD"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 10 {
			return nil, fmt.Errorf("RATING_THRESHOLD must be a number between 0 and 10")
		}
	}

	var trusted []string
	for _, s := range strings.Split(os.Getenv("TRUSTED_USERS"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			trusted = append(trusted, s)
		}
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	var notifyChat int64
	if raw := os.Getenv("NOTIFY_CHAT_ID"); raw != "" {
		notifyChat, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFY_CHAT_ID %q: %w", raw, err)
		}
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		TelegramBotToken: token,
		AllowedUsers:     allowedUsers,
		NotifyChatID:     notifyChat,
		JellyseerrHost:   host,
		JellyseerrPort:   port,
		JellyseerrSSL:    ssl,
		JellyseerrAPIKey: apiKey,
		RefreshSeconds:   refresh,
		PageSize:         pageSize,
		RatingThreshold:  threshold,
		TrustedUsers:     trusted,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
	}, nil
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

func intEnv(key string, def, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, min, max)
	}
	return v, nil
}

func boolEnv(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean value", key)
	}
	return v, nil
}
