package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLog 发送记录存放在一个 hash 里：field=URL，value=毫秒时间戳。
// 多台机器共用同一份记录时使用。
type RedisLog struct {
	client redis.Cmdable
	key    string
	sent   sentSet
}

// LoadRedis 用 HGETALL 一次性读入内存；存在无法解析的时间戳时返回 CorruptLogError
func LoadRedis(ctx context.Context, client redis.Cmdable, key string) (*RedisLog, error) {
	raw, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("load sent log from redis: %w", err)
	}

	l := &RedisLog{client: client, key: key, sent: make(sentSet, len(raw))}
	for url, v := range raw {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &CorruptLogError{Source: "redis:" + key, Err: fmt.Errorf("field %q: %w", url, err)}
		}
		l.sent[url] = ts
	}
	return l, nil
}

func RedisOpener(client redis.Cmdable, key string) Opener {
	return func(ctx context.Context) (SentLog, error) {
		return LoadRedis(ctx, client, key)
	}
}

// FreshRedisOpener 删除整个 hash 后返回空记录
func FreshRedisOpener(client redis.Cmdable, key string) Opener {
	return func(ctx context.Context) (SentLog, error) {
		if err := client.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("reset sent log in redis: %w", err)
		}
		return &RedisLog{client: client, key: key, sent: sentSet{}}, nil
	}
}

func (l *RedisLog) Has(url string) bool { return l.sent.has(url) }

func (l *RedisLog) Len() int { return len(l.sent) }

func (l *RedisLog) Entries() map[string]int64 { return l.sent.copyOut() }

func (l *RedisLog) MarkSent(ctx context.Context, url string, at time.Time) error {
	ms := at.UnixMilli()
	if err := l.client.HSet(ctx, l.key, url, ms).Err(); err != nil {
		return fmt.Errorf("mark sent in redis: %w", err)
	}
	l.sent[url] = ms
	return nil
}

func (l *RedisLog) Prune(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	urls := l.sent.expired(now, retention)
	if len(urls) == 0 {
		return 0, nil
	}
	if err := l.client.HDel(ctx, l.key, urls...).Err(); err != nil {
		return 0, fmt.Errorf("prune sent log in redis: %w", err)
	}
	for _, url := range urls {
		delete(l.sent, url)
	}
	return len(urls), nil
}
