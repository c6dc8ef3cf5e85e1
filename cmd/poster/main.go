package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/ycomb-poster/internal/api"
	"github.com/LJTian/ycomb-poster/internal/config"
	"github.com/LJTian/ycomb-poster/internal/scheduler"
	"github.com/LJTian/ycomb-poster/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	open, closeLog, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Error("init sent log failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := closeLog(); err != nil {
			logger.Warn("close sent log", slog.String("error", err.Error()))
		}
	}()

	runner := scheduler.NewRunner(cfg, open, logger)
	s, err := scheduler.New(cfg.CronSpec, runner, logger)
	if err != nil {
		logger.Error("init scheduler failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	s.Start()

	// API
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	// 若配置了访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}
	api.NewServer(runner, open).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exit", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", slog.String("error", err.Error()))
	}
	// 等待正在执行的一轮结束，避免推送到一半被打断
	select {
	case <-s.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("run still in progress at shutdown")
	}
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}
