package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName 作业标识，决定状态文件所在目录
const AppName = "ycomb-poster"

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config 一次进程生命周期内不可变，构造后按值传给各组件
type Config struct {
	AppPort       string `yaml:"app_port"`
	BasicAuthUser string `yaml:"basic_auth_user"`
	BasicAuthPass string `yaml:"basic_auth_pass"`
	LogLevel      string `yaml:"log_level"`

	NewsURL      string        `yaml:"news_url"`
	FetchMode    string        `yaml:"fetch_mode"`
	FetchTimeout time.Duration `yaml:"-"`
	UserAgent    string        `yaml:"user_agent"`

	TelegramAPIURL   string `yaml:"telegram_api_url"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChannel  string `yaml:"telegram_channel"`
	SilentBroadcast  bool   `yaml:"silent_broadcast"`
	TelegramConfirm  bool   `yaml:"telegram_confirm"`

	MinVoteRequired    int           `yaml:"min_vote_required"`
	RemoveFromLogAfter time.Duration `yaml:"-"`

	SentLogBackend  string `yaml:"sent_log_backend"`
	SentLogPath     string `yaml:"sent_log_path"`
	ResetCorruptLog bool   `yaml:"reset_corrupt_log"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisKey        string `yaml:"redis_key"`
	PostgresDSN     string `yaml:"postgres_dsn"`

	CronSpec string `yaml:"cron_spec"`
}

// Default 返回内置默认值
func Default() Config {
	return Config{
		AppPort:  "9000",
		LogLevel: "info",

		NewsURL:      "https://news.ycombinator.com/",
		FetchMode:    FetchModeHTTP,
		FetchTimeout: 10 * time.Second,
		UserAgent:    "YcombPosterBot/1.0",

		TelegramAPIURL:  "https://api.telegram.org",
		TelegramChannel: "@news_ycombinator",
		SilentBroadcast: true,

		MinVoteRequired:    20,
		RemoveFromLogAfter: 15 * 24 * time.Hour,

		SentLogBackend: BackendFile,
		SentLogPath:    filepath.Join(xdg.DataHome, AppName, "sent.json"),
		RedisAddr:      "localhost:6379",
		RedisKey:       AppName + ":sent",
		PostgresDSN:    "host=localhost user=ycomb password=ycomb dbname=ycomb port=5432 sslmode=disable TimeZone=UTC",

		CronSpec: "*/15 * * * *",
	}
}

// Load 依次叠加：默认值 -> CONFIG_FILE 指定的 YAML -> 环境变量，最后校验
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	// 时长字段在文件里写成 "10s" / "360h"，单独按字符串读
	var raw struct {
		Config             `yaml:",inline"`
		FetchTimeout       string `yaml:"fetch_timeout"`
		RemoveFromLogAfter string `yaml:"remove_from_log_after"`
	}
	raw.Config = *cfg
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*cfg = raw.Config

	if raw.FetchTimeout != "" {
		d, err := time.ParseDuration(raw.FetchTimeout)
		if err != nil {
			return fmt.Errorf("config file: fetch_timeout: %w", err)
		}
		cfg.FetchTimeout = d
	}
	if raw.RemoveFromLogAfter != "" {
		d, err := time.ParseDuration(raw.RemoveFromLogAfter)
		if err != nil {
			return fmt.Errorf("config file: remove_from_log_after: %w", err)
		}
		cfg.RemoveFromLogAfter = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.BasicAuthUser = getEnv("APP_BASIC_USER", cfg.BasicAuthUser)
	cfg.BasicAuthPass = getEnv("APP_BASIC_PASS", cfg.BasicAuthPass)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.NewsURL = getEnv("NEWS_URL", cfg.NewsURL)
	cfg.FetchMode = strings.ToLower(getEnv("FETCH_MODE", cfg.FetchMode))
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)

	cfg.TelegramAPIURL = getEnv("TELEGRAM_API_URL", cfg.TelegramAPIURL)
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.TelegramChannel = getEnv("TELEGRAM_CHANNEL", cfg.TelegramChannel)

	cfg.SentLogBackend = strings.ToLower(getEnv("SENT_LOG_BACKEND", cfg.SentLogBackend))
	cfg.SentLogPath = getEnv("SENT_LOG_PATH", cfg.SentLogPath)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisKey = getEnv("REDIS_KEY", cfg.RedisKey)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.CronSpec = getEnv("CRON_SPEC", cfg.CronSpec)

	var err error
	if cfg.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return err
	}
	if cfg.RemoveFromLogAfter, err = getEnvDuration("REMOVE_FROM_LOG_AFTER", cfg.RemoveFromLogAfter); err != nil {
		return err
	}
	if cfg.MinVoteRequired, err = getEnvInt("MIN_VOTE_REQUIRED", cfg.MinVoteRequired); err != nil {
		return err
	}
	if cfg.SilentBroadcast, err = getEnvBool("SILENT_BROADCAST", cfg.SilentBroadcast); err != nil {
		return err
	}
	if cfg.TelegramConfirm, err = getEnvBool("TELEGRAM_CONFIRM", cfg.TelegramConfirm); err != nil {
		return err
	}
	if cfg.ResetCorruptLog, err = getEnvBool("RESET_CORRUPT_LOG", cfg.ResetCorruptLog); err != nil {
		return err
	}
	return nil
}

// Validate 检查必填项与取值范围
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return ErrMissingBotToken
	}
	if c.MinVoteRequired < 0 {
		return ErrInvalidThreshold
	}
	if c.RemoveFromLogAfter <= 0 {
		return ErrInvalidRetention
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	switch c.SentLogBackend {
	case BackendFile, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.SentLogBackend)
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFetchMode, c.FetchMode)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("env %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", key, err)
	}
	return d, nil
}
