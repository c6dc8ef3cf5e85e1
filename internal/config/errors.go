package config

import "errors"

// 配置校验错误，调用方可用 errors.Is 判断
var (
	ErrMissingBotToken  = errors.New("telegram bot token is required (TELEGRAM_BOT_TOKEN)")
	ErrInvalidThreshold = errors.New("invalid min vote threshold: must be non-negative")
	ErrInvalidRetention = errors.New("invalid retention window: must be positive")
	ErrInvalidTimeout   = errors.New("invalid fetch timeout: must be positive")
	ErrUnknownBackend   = errors.New("unknown sent log backend")
	ErrUnknownFetchMode = errors.New("unknown fetch mode")
)
