package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/LJTian/ycomb-poster/internal/config"
	"github.com/LJTian/ycomb-poster/internal/scheduler"
	"github.com/LJTian/ycomb-poster/internal/storage"
)

// 只执行一轮抓取推送后退出，适合交给 systemd timer / k8s CronJob 调度
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", slog.String("error", err.Error()))
		return 1
	}

	var lv slog.Level
	if err := lv.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		lv = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
	slog.SetDefault(logger)

	open, closeLog, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Error("init sent log failed", slog.String("error", err.Error()))
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 失败原因已由 Runner 记录
	if err := scheduler.NewRunner(cfg, open, logger).Run(ctx); err != nil {
		return 1
	}
	return 0
}
