package collector

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors 描述列表页结构，默认值同时兼容旧版（.itemlist / a.storylink）与新版（#bigbox / span.titleline）HN 页面
type Selectors struct {
	Container string
	Row       string
	Link      string
	Subtext   string
	Score     string
	// Comment 取 subtext 块内匹配到的最后一个元素
	Comment string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Container: ".itemlist, #bigbox",
		Row:       ".athing",
		Link:      "a.storylink, span.titleline > a",
		Subtext:   ".subtext",
		Score:     ".score",
		Comment:   "a",
	}
}

// Parser 把列表页 HTML 解析为有序的 NewsItem
type Parser struct {
	// BaseURL 相对链接按前缀拼接补全，需以 / 结尾
	BaseURL   string
	Selectors Selectors
}

// NewParser 以列表页所在目录作为 BaseURL
func NewParser(listingURL string) *Parser {
	return &Parser{BaseURL: BaseURL(listingURL), Selectors: DefaultSelectors()}
}

// BaseURL 去掉查询串与路径最后一段，"https://news.ycombinator.com/news?p=2" -> "https://news.ycombinator.com/"
func BaseURL(listingURL string) string {
	u, err := url.Parse(listingURL)
	if err != nil || u.Host == "" {
		if strings.HasSuffix(listingURL, "/") {
			return listingURL
		}
		return listingURL + "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = u.Path[:strings.LastIndex(u.Path, "/")+1]
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawPath = ""
	return u.String()
}

// Parse 按行号把 .athing 行与其 subtext 块配对。
// 两者在页面上是兄弟节点而非父子，数量不一致时直接报 ParseError，不做猜测性对齐。
func (p *Parser) Parse(html string) ([]NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Reason: "read document: " + err.Error()}
	}

	sel := p.Selectors
	container := doc.Find(sel.Container).First()
	if container.Length() == 0 {
		return nil, &ParseError{Reason: "listing container not found"}
	}

	rows := container.Find(sel.Row)
	subtexts := container.Find(sel.Subtext)
	if rows.Length() != subtexts.Length() {
		return nil, &ParseError{
			Reason:   "row and subtext counts differ",
			Rows:     rows.Length(),
			Subtexts: subtexts.Length(),
		}
	}

	items := make([]NewsItem, 0, rows.Length())
	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		link := row.Find(sel.Link).First()
		href, ok := link.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			rowErr = &ParseError{Reason: fmt.Sprintf("row %d: story link not found", i)}
			return false
		}

		sub := subtexts.Eq(i)

		score := 0
		if s := sub.Find(sel.Score).First(); s.Length() > 0 {
			score = parseLeadingInt(s.Text())
		}

		// 刚发布、还没有讨论入口的条目回落到列表页本身
		commentLink, commentCount := p.BaseURL, "discuss"
		if a := sub.Find(sel.Comment).Last(); a.Length() > 0 {
			if h, ok := a.Attr("href"); ok && strings.TrimSpace(h) != "" {
				commentLink = p.resolve(strings.TrimSpace(h))
			}
			if t := normalizeLabel(a.Text()); t != "" {
				commentCount = t
			}
		}

		items = append(items, NewsItem{
			URL:          p.resolve(escapeUnderscores(href)),
			Title:        strings.TrimSpace(link.Text()),
			Score:        score,
			CommentLink:  commentLink,
			CommentCount: commentCount,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return items, nil
}

// resolve 不以 http 开头（忽略大小写）的链接视为站内相对地址，直接拼在 BaseURL 后面
func (p *Parser) resolve(link string) string {
	if strings.HasPrefix(strings.ToLower(link), "http") {
		return link
	}
	return p.BaseURL + link
}

func escapeUnderscores(s string) string {
	return strings.ReplaceAll(s, "_", `\_`)
}

// normalizeLabel HN 在 "12&nbsp;comments" 中使用不换行空格
func normalizeLabel(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

// parseLeadingInt 取文本开头的数字部分，"42 points" -> 42，无数字时为 0
func parseLeadingInt(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	end := 0
	for ; end < len(s); end++ {
		if s[end] < '0' || s[end] > '9' {
			break
		}
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
