package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// logDocument 文件格式：{"sent": {"<url>": <epoch-ms>}}，外层留给后续扩展
type logDocument struct {
	Sent map[string]int64 `json:"sent"`
}

// FileLog 单个 JSON 文件保存的发送记录
type FileLog struct {
	path string
	sent sentSet
}

// NewFileLog 返回一份空记录，首次写入时创建文件
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path, sent: sentSet{}}
}

// LoadFile 文件不存在时返回空记录；内容无法解码时返回 CorruptLogError
func LoadFile(path string) (*FileLog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewFileLog(path), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sent log: %w", err)
	}

	var doc logDocument
	if err := json.Unmarshal(bytes.TrimSpace(data), &doc); err != nil {
		return nil, &CorruptLogError{Source: path, Err: err}
	}
	l := NewFileLog(path)
	for url, ts := range doc.Sent {
		l.sent[url] = ts
	}
	return l, nil
}

// FileOpener 每次调用都重新读文件
func FileOpener(path string) Opener {
	return func(context.Context) (SentLog, error) {
		return LoadFile(path)
	}
}

// FreshFileOpener 不读旧文件，直接给一份空记录
func FreshFileOpener(path string) Opener {
	return func(context.Context) (SentLog, error) {
		return NewFileLog(path), nil
	}
}

func (l *FileLog) Path() string { return l.path }

func (l *FileLog) Has(url string) bool { return l.sent.has(url) }

func (l *FileLog) Len() int { return len(l.sent) }

func (l *FileLog) Entries() map[string]int64 { return l.sent.copyOut() }

// MarkSent 先记账再推送：写盘成功后才返回，进程重启也不会重复推送
func (l *FileLog) MarkSent(_ context.Context, url string, at time.Time) error {
	l.sent[url] = at.UnixMilli()
	return l.save()
}

func (l *FileLog) Prune(_ context.Context, now time.Time, retention time.Duration) (int, error) {
	urls := l.sent.expired(now, retention)
	for _, url := range urls {
		delete(l.sent, url)
	}
	if err := l.save(); err != nil {
		return 0, err
	}
	return len(urls), nil
}

// save 写临时文件后 rename 覆盖，中途崩溃不会留下截断的文件
func (l *FileLog) save() error {
	data, err := json.MarshalIndent(logDocument{Sent: l.sent}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sent log: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sent log dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sent-*.json")
	if err != nil {
		return fmt.Errorf("create temp sent log: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// rename 成功后该文件已不存在，这里的错误可以忽略
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp sent log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp sent log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp sent log: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("replace sent log: %w", err)
	}
	return nil
}
