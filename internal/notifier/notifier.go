package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/LJTian/ycomb-poster/internal/collector"
)

// Notifier 把一条新闻推送到消息渠道
type Notifier interface {
	Notify(ctx context.Context, item collector.NewsItem) error
}

// FormatMessage 生成 Telegram Markdown 消息：
//
//	*<title>*
//	<url> | [<comment label>](<comment link>)
func FormatMessage(item collector.NewsItem) string {
	return fmt.Sprintf("*%s*\n%s | [%s](%s)",
		escapeUnderscores(item.Title),
		item.URL,
		item.CommentCount,
		item.CommentLink,
	)
}

// escapeUnderscores 未转义的 _ 会被当作斜体标记；已转义的保持不变
func escapeUnderscores(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && (i == 0 || s[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
