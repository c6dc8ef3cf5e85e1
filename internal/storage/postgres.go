package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SentItem 发送记录表，一行对应一个 URL
type SentItem struct {
	URL       string    `gorm:"primaryKey;size:1024" json:"url"`
	SentAtMs  int64     `gorm:"index;not null" json:"sentAtMs"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OpenPostgres 连接数据库并确保表结构存在
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SentItem{}); err != nil {
		return nil, err
	}
	return db, nil
}

// PostgresLog 基于 gorm 的发送记录
type PostgresLog struct {
	db   *gorm.DB
	sent sentSet
}

func LoadPostgres(ctx context.Context, db *gorm.DB) (*PostgresLog, error) {
	var rows []SentItem
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load sent log from postgres: %w", err)
	}
	l := &PostgresLog{db: db, sent: make(sentSet, len(rows))}
	for _, r := range rows {
		l.sent[r.URL] = r.SentAtMs
	}
	return l, nil
}

// PostgresOpener 列类型固定，不会出现无法解码的状态，因此没有对应的 Fresh 版本
func PostgresOpener(db *gorm.DB) Opener {
	return func(ctx context.Context) (SentLog, error) {
		return LoadPostgres(ctx, db)
	}
}

func (l *PostgresLog) Has(url string) bool { return l.sent.has(url) }

func (l *PostgresLog) Len() int { return len(l.sent) }

func (l *PostgresLog) Entries() map[string]int64 { return l.sent.copyOut() }

func (l *PostgresLog) MarkSent(ctx context.Context, url string, at time.Time) error {
	row := SentItem{URL: url, SentAtMs: at.UnixMilli()}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"sent_at_ms", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("mark sent in postgres: %w", err)
	}
	l.sent[url] = row.SentAtMs
	return nil
}

// Prune 在库里按 sent_at_ms < now-retention 删除，等价于 now-ts > retention
func (l *PostgresLog) Prune(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	cutoff := now.UnixMilli() - retention.Milliseconds()
	res := l.db.WithContext(ctx).Where("sent_at_ms < ?", cutoff).Delete(&SentItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune sent log in postgres: %w", res.Error)
	}
	for _, url := range l.sent.expired(now, retention) {
		delete(l.sent, url)
	}
	return int(res.RowsAffected), nil
}
