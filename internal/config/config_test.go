package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	t.Setenv(key, "")
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MinVoteRequired != 20 {
		t.Fatalf("MinVoteRequired = %d, want 20", cfg.MinVoteRequired)
	}
	if cfg.RemoveFromLogAfter != 15*24*time.Hour {
		t.Fatalf("RemoveFromLogAfter = %v, want 360h", cfg.RemoveFromLogAfter)
	}
	if !cfg.SilentBroadcast {
		t.Fatalf("SilentBroadcast should default to true")
	}
	if cfg.NewsURL != "https://news.ycombinator.com/" {
		t.Fatalf("NewsURL = %q", cfg.NewsURL)
	}
	if filepath.Base(cfg.SentLogPath) != "sent.json" || filepath.Base(filepath.Dir(cfg.SentLogPath)) != AppName {
		t.Fatalf("SentLogPath should be scoped to %s, got %q", AppName, cfg.SentLogPath)
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("MIN_VOTE_REQUIRED", "50")
	t.Setenv("SILENT_BROADCAST", "false")
	t.Setenv("REMOVE_FROM_LOG_AFTER", "48h")
	t.Setenv("SENT_LOG_BACKEND", "Redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.BasicAuthUser != "user" || cfg.BasicAuthPass != "pass" {
		t.Fatalf("BasicAuthUser/Pass not loaded correctly: %+v", cfg)
	}
	if cfg.MinVoteRequired != 50 {
		t.Fatalf("MinVoteRequired = %d, want 50", cfg.MinVoteRequired)
	}
	if cfg.SilentBroadcast {
		t.Fatalf("SilentBroadcast should be false")
	}
	if cfg.RemoveFromLogAfter != 48*time.Hour {
		t.Fatalf("RemoveFromLogAfter = %v, want 48h", cfg.RemoveFromLogAfter)
	}
	if cfg.SentLogBackend != BackendRedis {
		t.Fatalf("SentLogBackend = %q, want %q", cfg.SentLogBackend, BackendRedis)
	}
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.yaml")
	content := []byte(`
telegram_bot_token: "file-token"
telegram_channel: "@from_file"
min_vote_required: 42
remove_from_log_after: 72h
fetch_timeout: 3s
sent_log_path: /tmp/poster/sent.json
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHANNEL", "@from_env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TelegramBotToken != "file-token" {
		t.Fatalf("TelegramBotToken = %q, want file-token", cfg.TelegramBotToken)
	}
	if cfg.TelegramChannel != "@from_env" {
		t.Fatalf("env should win over file, got %q", cfg.TelegramChannel)
	}
	if cfg.MinVoteRequired != 42 {
		t.Fatalf("MinVoteRequired = %d, want 42", cfg.MinVoteRequired)
	}
	if cfg.RemoveFromLogAfter != 72*time.Hour || cfg.FetchTimeout != 3*time.Second {
		t.Fatalf("durations not loaded: retention=%v timeout=%v", cfg.RemoveFromLogAfter, cfg.FetchTimeout)
	}
	// 文件未写的字段保持默认
	if !cfg.SilentBroadcast || cfg.SentLogBackend != BackendFile {
		t.Fatalf("defaults lost after file merge: %+v", cfg)
	}
	if cfg.SentLogPath != "/tmp/poster/sent.json" {
		t.Fatalf("SentLogPath = %q", cfg.SentLogPath)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	t.Setenv("MIN_VOTE_REQUIRED", "twenty")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric MIN_VOTE_REQUIRED")
	}
	t.Setenv("MIN_VOTE_REQUIRED", "")

	t.Setenv("SENT_LOG_BACKEND", "mongo")
	if _, err := Load(); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("Load() error = %v, want ErrUnknownBackend", err)
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	base.TelegramBotToken = "t"

	cases := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"ok", func(c *Config) {}, nil},
		{"missing token", func(c *Config) { c.TelegramBotToken = "" }, ErrMissingBotToken},
		{"negative threshold", func(c *Config) { c.MinVoteRequired = -1 }, ErrInvalidThreshold},
		{"zero retention", func(c *Config) { c.RemoveFromLogAfter = 0 }, ErrInvalidRetention},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, ErrInvalidTimeout},
		{"bad fetch mode", func(c *Config) { c.FetchMode = "ftp" }, ErrUnknownFetchMode},
	}

	for _, tc := range cases {
		c := base
		tc.mutate(&c)
		err := c.Validate()
		if tc.want == nil && err != nil {
			t.Fatalf("%s: Validate() = %v, want nil", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: Validate() = %v, want %v", tc.name, err, tc.want)
		}
	}
}
