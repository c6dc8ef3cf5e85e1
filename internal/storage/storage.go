package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SentLog 已发送记录：URL -> 最近一次发送的毫秒时间戳。
// 每次运行开始时重新加载；MarkSent 与 Prune 返回前已落盘。
type SentLog interface {
	Has(url string) bool
	MarkSent(ctx context.Context, url string, at time.Time) error
	// Prune 删除 now-发送时间 > retention 的记录（恰好等于边界的保留），返回删除条数
	Prune(ctx context.Context, now time.Time, retention time.Duration) (int, error)
	Entries() map[string]int64
	Len() int
}

// Opener 加载一份发送记录，由调度器在每次运行开始时调用
type Opener func(ctx context.Context) (SentLog, error)

// CorruptLogError 持久化状态存在但无法解码
type CorruptLogError struct {
	Source string
	Err    error
}

func (e *CorruptLogError) Error() string {
	return fmt.Sprintf("sent log %s is corrupt: %v", e.Source, e.Err)
}

func (e *CorruptLogError) Unwrap() error { return e.Err }

// ResetOnCorrupt 遇到 CorruptLogError 时记录告警并改用 fresh 返回的空记录。
// 代价是之前发过的条目会被重新推送一遍。
func ResetOnCorrupt(open, fresh Opener, logger *slog.Logger) Opener {
	return func(ctx context.Context) (SentLog, error) {
		log, err := open(ctx)
		var cerr *CorruptLogError
		if errors.As(err, &cerr) {
			logger.Warn("sent log corrupt, starting empty",
				slog.String("source", cerr.Source),
				slog.String("error", cerr.Err.Error()),
			)
			return fresh(ctx)
		}
		return log, err
	}
}

// sentSet 各后端共用的内存索引
type sentSet map[string]int64

func (s sentSet) has(url string) bool {
	_, ok := s[url]
	return ok
}

func (s sentSet) copyOut() map[string]int64 {
	out := make(map[string]int64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// expired 返回超出保留窗口的 URL，比较为严格大于
func (s sentSet) expired(now time.Time, retention time.Duration) []string {
	nowMs := now.UnixMilli()
	limit := retention.Milliseconds()
	var urls []string
	for url, ts := range s {
		if nowMs-ts > limit {
			urls = append(urls, url)
		}
	}
	return urls
}
