package collector

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const testBase = "https://news.ycombinator.com/"

type testRow struct {
	href, title, score, commentHref, commentText string
	noSubtext                                   bool
}

// listingHTML 生成旧版 HN 结构（.itemlist / a.storylink）的页面
func listingHTML(rows []testRow) string {
	var b strings.Builder
	b.WriteString(`<html><body><center><table><tr><td><table class="itemlist">`)
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr class="athing" id="%d"><td class="title"><a href="%s" class="storylink">%s</a></td></tr>`, i, r.href, r.title)
		if r.noSubtext {
			continue
		}
		b.WriteString(`<tr><td class="subtext">`)
		if r.score != "" {
			fmt.Fprintf(&b, `<span class="score" id="score_%d">%s</span> by <a href="user?id=u" class="hnuser">u</a> `, i, r.score)
		}
		fmt.Fprintf(&b, `<span class="age"><a href="item?id=%d">1 hour ago</a></span> | `, i)
		if r.commentHref != "" {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, r.commentHref, r.commentText)
		}
		b.WriteString(`</td></tr><tr class="spacer"></tr>`)
	}
	b.WriteString(`<tr><td><a href="news?p=2" class="morelink">More</a></td></tr></table></td></tr></table></center></body></html>`)
	return b.String()
}

func TestParseOldMarkup(t *testing.T) {
	html := listingHTML([]testRow{
		{href: "https://example.com/a", title: "Alpha", score: "42 points", commentHref: "item?id=1", commentText: "12&nbsp;comments"},
		{href: "item?id=2", title: "Ask HN: Beta?", score: "7 points", commentHref: "item?id=2", commentText: "discuss"},
	})

	items, err := NewParser(testBase).Parse(html)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.URL != "https://example.com/a" || first.Title != "Alpha" || first.Score != 42 {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.CommentLink != testBase+"item?id=1" {
		t.Fatalf("CommentLink = %q, want %q", first.CommentLink, testBase+"item?id=1")
	}
	if first.CommentCount != "12 comments" {
		t.Fatalf("CommentCount = %q, want %q", first.CommentCount, "12 comments")
	}

	// 相对地址按前缀拼接
	if items[1].URL != testBase+"item?id=2" {
		t.Fatalf("relative URL = %q, want %q", items[1].URL, testBase+"item?id=2")
	}
	if items[1].CommentCount != "discuss" {
		t.Fatalf("CommentCount = %q, want discuss", items[1].CommentCount)
	}
}

func TestParseNewMarkup(t *testing.T) {
	html := `<html><body><table id="hnmain"><tr id="bigbox"><td><table>
<tr class="athing submission" id="100"><td class="title"><span class="titleline"><a href="https://example.org/x">Gamma</a><span class="sitebit comhead"> (<a href="from?site=example.org"><span class="sitestr">example.org</span></a>)</span></span></td></tr>
<tr><td class="subtext"><span class="subline"><span class="score" id="score_100">123 points</span> by <a class="hnuser" href="user?id=pg">pg</a> <span class="age"><a href="item?id=100">2 hours ago</a></span> | <a href="item?id=100">56&nbsp;comments</a></span></td></tr>
<tr class="spacer"></tr>
</table></td></tr></table></body></html>`

	items, err := NewParser(testBase).Parse(html)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.URL != "https://example.org/x" || it.Title != "Gamma" || it.Score != 123 {
		t.Fatalf("unexpected item: %+v", it)
	}
	if it.CommentLink != testBase+"item?id=100" || it.CommentCount != "56 comments" {
		t.Fatalf("unexpected comment fields: %+v", it)
	}
}

func TestParseMissingScoreIsZero(t *testing.T) {
	// 招聘帖没有分数，也没有评论链接
	html := listingHTML([]testRow{{href: "https://jobs.example.com", title: "Hiring"}})

	items, err := NewParser(testBase).Parse(html)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if items[0].Score != 0 {
		t.Fatalf("Score = %d, want 0", items[0].Score)
	}
	// 只有 age 链接时取它作为讨论入口
	if items[0].CommentLink != testBase+"item?id=0" {
		t.Fatalf("CommentLink = %q", items[0].CommentLink)
	}
}

func TestParseNoAnchorFallsBackToListing(t *testing.T) {
	html := `<table class="itemlist">
<tr class="athing"><td><a class="storylink" href="https://a.example">A</a></td></tr>
<tr><td class="subtext"><span class="score">3 points</span></td></tr>
</table>`

	items, err := NewParser(testBase).Parse(html)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if items[0].CommentLink != testBase || items[0].CommentCount != "discuss" {
		t.Fatalf("unexpected fallback: %+v", items[0])
	}
}

func TestParseEscapesUnderscores(t *testing.T) {
	html := listingHTML([]testRow{{href: "https://example.com/some_long_path", title: "snake_case", score: "30 points", commentHref: "item?id=9", commentText: "discuss"}})

	items, err := NewParser(testBase).Parse(html)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := `https://example.com/some\_long\_path`
	if items[0].URL != want {
		t.Fatalf("URL = %q, want %q", items[0].URL, want)
	}
	// 标题保持原样，转义在生成消息时处理
	if items[0].Title != "snake_case" {
		t.Fatalf("Title = %q, want raw title", items[0].Title)
	}
}

func TestParseCaseInsensitiveHTTPPrefix(t *testing.T) {
	html := listingHTML([]testRow{{href: "HTTPS://Example.com/Up", title: "Upper", score: "1 point", commentHref: "item?id=1", commentText: "discuss"}})

	items, err := NewParser(testBase).Parse(html)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if items[0].URL != "HTTPS://Example.com/Up" {
		t.Fatalf("absolute URL should be kept, got %q", items[0].URL)
	}
}

func TestParseMisalignedSubtextFails(t *testing.T) {
	html := listingHTML([]testRow{
		{href: "https://a.example", title: "A", score: "50 points", commentHref: "item?id=1", commentText: "discuss"},
		{href: "https://b.example", title: "B", noSubtext: true},
		{href: "https://c.example", title: "C", score: "30 points", commentHref: "item?id=3", commentText: "discuss"},
	})

	_, err := NewParser(testBase).Parse(html)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Rows != 3 || perr.Subtexts != 2 {
		t.Fatalf("ParseError counts = %d/%d, want 3/2", perr.Rows, perr.Subtexts)
	}
}

func TestParseMissingContainerFails(t *testing.T) {
	_, err := NewParser(testBase).Parse(`<html><body><p>Sorry, we're not able to serve your requests this quickly.</p></body></html>`)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseMissingStoryLinkFails(t *testing.T) {
	html := `<table class="itemlist">
<tr class="athing"><td class="title">no link here</td></tr>
<tr><td class="subtext"><span class="score">3 points</span></td></tr>
</table>`
	_, err := NewParser(testBase).Parse(html)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParsePreservesOrder(t *testing.T) {
	rows := make([]testRow, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, testRow{
			href:        fmt.Sprintf("https://example.com/%d", i),
			title:       fmt.Sprintf("T%d", i),
			score:       fmt.Sprintf("%d points", i*10),
			commentHref: fmt.Sprintf("item?id=%d", i),
			commentText: "discuss",
		})
	}
	items, err := NewParser(testBase).Parse(listingHTML(rows))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	for i, it := range items {
		if it.Title != fmt.Sprintf("T%d", i) || it.Score != i*10 || it.CommentLink != fmt.Sprintf("%sitem?id=%d", testBase, i) {
			t.Fatalf("item %d misaligned: %+v", i, it)
		}
	}
}

func TestParseLeadingInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"42 points", 42},
		{" 1 point", 1},
		{"1,234 points", 1234},
		{"points", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := parseLeadingInt(c.in); got != c.want {
			t.Fatalf("parseLeadingInt(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestBaseURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://news.ycombinator.com/", "https://news.ycombinator.com/"},
		{"https://news.ycombinator.com", "https://news.ycombinator.com/"},
		{"https://news.ycombinator.com/news?p=2", "https://news.ycombinator.com/"},
		{"http://127.0.0.1:8080/hn/front", "http://127.0.0.1:8080/hn/"},
	}
	for _, c := range cases {
		if got := BaseURL(c.in); got != c.want {
			t.Fatalf("BaseURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
