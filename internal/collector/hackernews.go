package collector

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	hnDefaultTimeout   = 10 * time.Second
	hnDefaultUserAgent = "YcombPosterBot/1.0"
	hnMaxBodyBytes     = 2 << 20 // 2MB，首页 HTML 远小于此
)

// HackerNewsFetcher 用 colly 对列表页做一次 GET
type HackerNewsFetcher struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

func (h *HackerNewsFetcher) Name() string {
	return "hackernews_front"
}

func (h *HackerNewsFetcher) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &NetworkError{Op: OpFetch, URL: h.URL, Err: err}
	}

	u, err := url.Parse(h.URL)
	if err != nil || u.Hostname() == "" {
		return "", &NetworkError{Op: OpFetch, URL: h.URL, Err: errors.New("invalid listing url")}
	}

	ua := h.UserAgent
	if ua == "" {
		ua = hnDefaultUserAgent
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = hnDefaultTimeout
	}

	c := colly.NewCollector(
		colly.AllowedDomains(u.Hostname()),
		colly.UserAgent(ua),
		colly.MaxBodySize(hnMaxBodyBytes),
	)
	c.SetRequestTimeout(timeout)

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	slog.Debug("fetching listing", slog.String("url", h.URL))
	if err := c.Visit(h.URL); err != nil {
		return "", &NetworkError{Op: OpFetch, URL: h.URL, StatusCode: status, Err: err}
	}
	if len(body) == 0 {
		return "", &NetworkError{Op: OpFetch, URL: h.URL, StatusCode: status, Err: errors.New("empty response body")}
	}
	return string(body), nil
}
