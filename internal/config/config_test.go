package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("JELLYSEERR_HOST", "media.example.com")
	t.Setenv("JELLYSEERR_API_KEY", "secret")
	for _, key := range []string{
		"JELLYSEERR_PORT", "JELLYSEERR_SSL",
		"REFRESH_INTERVAL_SECONDS", "PAGE_SIZE", "RATING_THRESHOLD",
		"TRUSTED_USERS", "ALLOWED_USERS", "NOTIFY_CHAT_ID",
		"DATABASE_PATH", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &Config{
		TelegramBotToken: "test-token",
		JellyseerrHost:   "media.example.com",
		JellyseerrPort:   DefaultPort,
		JellyseerrAPIKey: "secret",
		RefreshSeconds:   DefaultRefreshSeconds,
		PageSize:         DefaultPageSize,
		RatingThreshold:  DefaultRatingThreshold,
		DatabasePath:     "./data/bot.db",
		LogLevel:         "info",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFull(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JELLYSEERR_PORT", "443")
	t.Setenv("JELLYSEERR_SSL", "true")
	t.Setenv("REFRESH_INTERVAL_SECONDS", "60")
	t.Setenv("PAGE_SIZE", "100")
	t.Setenv("RATING_THRESHOLD", "8")
	t.Setenv("TRUSTED_USERS", "alice, bob ,")
	t.Setenv("ALLOWED_USERS", "100, 200")
	t.Setenv("NOTIFY_CHAT_ID", "-1001234")
	t.Setenv("DATABASE_PATH", "/var/lib/bot/bot.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &Config{
		TelegramBotToken: "test-token",
		AllowedUsers:     []int64{100, 200},
		NotifyChatID:     -1001234,
		JellyseerrHost:   "media.example.com",
		JellyseerrPort:   443,
		JellyseerrSSL:    true,
		JellyseerrAPIKey: "secret",
		RefreshSeconds:   60,
		PageSize:         100,
		RatingThreshold:  8,
		TrustedUsers:     []string{"alice", "bob"},
		DatabasePath:     "/var/lib/bot/bot.db",
		LogLevel:         "debug",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"missing token", "TELEGRAM_BOT_TOKEN", ""},
		{"missing host", "JELLYSEERR_HOST", ""},
		{"missing api key", "JELLYSEERR_API_KEY", ""},
		{"port not a number", "JELLYSEERR_PORT", "abc"},
		{"port out of range", "JELLYSEERR_PORT", "70000"},
		{"ssl not a bool", "JELLYSEERR_SSL", "maybe"},
		{"refresh below minimum", "REFRESH_INTERVAL_SECONDS", "10"},
		{"refresh above maximum", "REFRESH_INTERVAL_SECONDS", "7200"},
		{"page size below minimum", "PAGE_SIZE", "10"},
		{"page size above maximum", "PAGE_SIZE", "500"},
		{"threshold not a number", "RATING_THRESHOLD", "high"},
		{"threshold out of range", "RATING_THRESHOLD", "11"},
		{"bad allowed user", "ALLOWED_USERS", "100,abc"},
		{"bad notify chat", "NOTIFY_CHAT_ID", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestIsUserAllowed(t *testing.T) {
	open := &Config{}
	if !open.IsUserAllowed(42) {
		t.Error("empty allow list should permit everyone")
	}

	restricted := &Config{AllowedUsers: []int64{100, 200}}
	if !restricted.IsUserAllowed(100) {
		t.Error("listed user rejected")
	}
	if restricted.IsUserAllowed(42) {
		t.Error("unlisted user permitted")
	}
}
