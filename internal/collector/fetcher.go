package collector

import "context"

// NewsItem 列表页上的一行新闻，URL 作为去重键
type NewsItem struct {
	// URL 已转为绝对地址，下划线已转义为 \_（Markdown 中 _ 表示斜体）
	URL   string
	Title string
	// Score 页面未显示分数时为 0
	Score int
	// CommentLink 讨论页绝对地址
	CommentLink string
	// CommentCount 原样保留的标签文本，如 "discuss"、"12 comments"
	CommentCount string
}

// Fetcher 拉取列表页原始 HTML，每次运行只调用一次，不重试
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (string, error)
}
