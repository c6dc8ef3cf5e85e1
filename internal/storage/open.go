package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LJTian/ycomb-poster/internal/config"
)

// Open 按配置选择发送记录后端，返回的 close 用于进程退出时释放连接
func Open(cfg *config.Config, logger *slog.Logger) (Opener, func() error, error) {
	switch cfg.SentLogBackend {
	case config.BackendFile:
		open := FileOpener(cfg.SentLogPath)
		if cfg.ResetCorruptLog {
			open = ResetOnCorrupt(open, FreshFileOpener(cfg.SentLogPath), logger)
		}
		logger.Info("sent log backend", slog.String("backend", "file"), slog.String("path", cfg.SentLogPath))
		return open, func() error { return nil }, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		}
		open := RedisOpener(rdb, cfg.RedisKey)
		if cfg.ResetCorruptLog {
			open = ResetOnCorrupt(open, FreshRedisOpener(rdb, cfg.RedisKey), logger)
		}
		logger.Info("sent log backend", slog.String("backend", "redis"), slog.String("key", cfg.RedisKey))
		return open, rdb.Close, nil

	case config.BackendPostgres:
		db, err := OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("postgres handle: %w", err)
		}
		logger.Info("sent log backend", slog.String("backend", "postgres"))
		return PostgresOpener(db), sqlDB.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.SentLogBackend)
}
