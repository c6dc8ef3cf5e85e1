package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher 用 headless Chrome 渲染列表页后取整页 HTML，页面改为前端渲染时可切换到此模式
type BrowserFetcher struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

func (b *BrowserFetcher) Name() string {
	return "hackernews_front_browser"
}

func (b *BrowserFetcher) Fetch(ctx context.Context) (string, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if b.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = hnDefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(b.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &NetworkError{Op: OpFetch, URL: b.URL, Err: err}
	}
	if strings.TrimSpace(html) == "" {
		return "", &NetworkError{Op: OpFetch, URL: b.URL, Err: errors.New("empty document")}
	}
	return html, nil
}
