package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/ycomb-poster/internal/collector"
	"github.com/LJTian/ycomb-poster/internal/config"
	"github.com/LJTian/ycomb-poster/internal/notifier"
	"github.com/LJTian/ycomb-poster/internal/processor"
	"github.com/LJTian/ycomb-poster/internal/storage"
)

// 进程启动后稍等片刻再跑首轮，避开与 HTTP 服务启动争抢
const startupDelay = 5 * time.Second

// NewRunner 按配置组装一条完整流水线
func NewRunner(cfg *config.Config, open storage.Opener, logger *slog.Logger) *Runner {
	var fetcher collector.Fetcher
	switch cfg.FetchMode {
	case config.FetchModeBrowser:
		fetcher = &collector.BrowserFetcher{URL: cfg.NewsURL, UserAgent: cfg.UserAgent, Timeout: cfg.FetchTimeout}
	default:
		fetcher = &collector.HackerNewsFetcher{URL: cfg.NewsURL, UserAgent: cfg.UserAgent, Timeout: cfg.FetchTimeout}
	}

	return &Runner{
		Fetcher:   fetcher,
		Parser:    collector.NewParser(cfg.NewsURL),
		OpenLog:   open,
		Filter:    processor.NewFilter(cfg.MinVoteRequired),
		Notifier:  notifier.NewTelegramNotifier(cfg),
		Retention: cfg.RemoveFromLogAfter,
		Logger:    logger,
	}
}

// Scheduler 用 cron 周期触发 Runner
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	logger *slog.Logger
}

func New(spec string, runner *Runner, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		runner: runner,
		logger: logger,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	time.AfterFunc(startupDelay, s.runOnce)
}

// Stop 停止调度，返回的 context 在正在执行的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.runner.Run(ctx)
}

func (s *Scheduler) runOnce() {
	// 错误已在 Runner 内记录，这里只处理重叠
	if err := s.runner.Run(context.Background()); errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("previous run still in progress, skipping tick")
	}
}
