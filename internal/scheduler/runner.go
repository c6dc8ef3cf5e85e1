package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LJTian/ycomb-poster/internal/collector"
	"github.com/LJTian/ycomb-poster/internal/notifier"
	"github.com/LJTian/ycomb-poster/internal/processor"
	"github.com/LJTian/ycomb-poster/internal/storage"
)

// ErrRunInProgress 同一进程内上一轮还没结束
var ErrRunInProgress = errors.New("a run is already in progress")

// RunResult 最近一轮的执行摘要
type RunResult struct {
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
	Fetched    int       `json:"fetched"`
	Selected   int       `json:"selected"`
	Sent       int       `json:"sent"`
	Pruned     int       `json:"pruned"`
	Error      string    `json:"error,omitempty"`
}

// Runner 串行执行一轮：抓取 -> 解析 -> 加载记录 -> 过滤 -> (记账 -> 推送)* -> 清理过期记录。
// 任一步失败即终止本轮，已记账的条目保留在记录里。
type Runner struct {
	Fetcher   collector.Fetcher
	Parser    *collector.Parser
	OpenLog   storage.Opener
	Filter    *processor.Filter
	Notifier  notifier.Notifier
	Retention time.Duration
	Logger    *slog.Logger
	// Now 测试时可替换
	Now func() time.Time

	running atomic.Bool

	mu   sync.Mutex
	last *RunResult
}

// Run 执行一轮；错误已记录日志，返回值供一次性命令决定退出码
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer r.running.Store(false)

	logger := r.logger()
	start := r.now()
	res := RunResult{StartedAt: start}
	logger.Info("run started")

	err := r.run(ctx, &res)
	res.DurationMs = r.now().Sub(start).Milliseconds()

	if err != nil {
		res.Error = err.Error()
		runsTotal.WithLabelValues("failure").Inc()
		logger.Error("run failed",
			slog.String("error", err.Error()),
			slog.Int("sent", res.Sent),
			slog.Int64("duration_ms", res.DurationMs),
		)
	} else {
		runsTotal.WithLabelValues("success").Inc()
		logger.Info("run done",
			slog.Int("fetched", res.Fetched),
			slog.Int("selected", res.Selected),
			slog.Int("sent", res.Sent),
			slog.Int("pruned", res.Pruned),
			slog.Int64("duration_ms", res.DurationMs),
		)
	}

	r.mu.Lock()
	r.last = &res
	r.mu.Unlock()
	return err
}

func (r *Runner) run(ctx context.Context, res *RunResult) error {
	logger := r.logger()

	html, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", r.Fetcher.Name(), err)
	}
	logger.Debug("html fetched", slog.Int("bytes", len(html)))

	items, err := r.Parser.Parse(html)
	if err != nil {
		return err
	}
	res.Fetched = len(items)
	itemsFetchedTotal.Add(float64(len(items)))
	logger.Info("listing parsed", slog.Int("fetched", len(items)))

	sent, err := r.OpenLog(ctx)
	if err != nil {
		return fmt.Errorf("load sent log: %w", err)
	}

	selected := r.Filter.SelectNew(sent, items)
	res.Selected = len(selected)

	for _, it := range selected {
		logger.Info("sending",
			slog.String("title", it.Title),
			slog.String("item_url", it.URL),
			slog.Int("score", it.Score),
		)
		// 先记账后推送：宁可漏发一条，也不重复发
		if err := sent.MarkSent(ctx, it.URL, r.now()); err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		if err := r.Notifier.Notify(ctx, it); err != nil {
			return fmt.Errorf("notify %q: %w", it.Title, err)
		}
		res.Sent++
		itemsSentTotal.Inc()
	}

	pruned, err := sent.Prune(ctx, r.now(), r.Retention)
	if err != nil {
		return fmt.Errorf("prune sent log: %w", err)
	}
	res.Pruned = pruned
	logPrunedTotal.Add(float64(pruned))
	sentLogEntries.Set(float64(sent.Len()))
	return nil
}

// LastResult 返回最近一轮的摘要，尚未运行过时 ok 为 false
func (r *Runner) LastResult() (RunResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return RunResult{}, false
	}
	return *r.last, true
}

// Running 是否有一轮正在执行
func (r *Runner) Running() bool {
	return r.running.Load()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
