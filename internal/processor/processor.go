package processor

import (
	"github.com/LJTian/ycomb-poster/internal/collector"
)

// SentLookup 已发送记录的只读视图
type SentLookup interface {
	Has(url string) bool
}

// Filter 按分数阈值和发送记录筛选新条目，无副作用
type Filter struct {
	// MinVoteRequired 严格大于才会入选
	MinVoteRequired int
}

func NewFilter(minVoteRequired int) *Filter {
	return &Filter{MinVoteRequired: minVoteRequired}
}

// SelectNew 保留 score > 阈值 且 未在发送记录中的条目，保持输入顺序
func (f *Filter) SelectNew(sent SentLookup, items []collector.NewsItem) []collector.NewsItem {
	out := make([]collector.NewsItem, 0, len(items))
	for _, it := range items {
		if it.Score <= f.MinVoteRequired {
			continue
		}
		if sent.Has(it.URL) {
			continue
		}
		out = append(out, it)
	}
	return out
}
