package collector

import (
	"fmt"
	"strings"
)

const (
	OpFetch = "fetch"
	OpSend  = "send"
)

// NetworkError 抓取或推送时网络层失败（非 2xx、超时、DNS 等）
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.URL != "" {
		b.WriteString(" ")
		b.WriteString(e.URL)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError 页面结构不符合预期，例如行数与 subtext 块数对不上
type ParseError struct {
	Reason   string
	Rows     int
	Subtexts int
}

func (e *ParseError) Error() string {
	if e.Rows != 0 || e.Subtexts != 0 {
		return fmt.Sprintf("parse listing: %s (rows=%d subtexts=%d)", e.Reason, e.Rows, e.Subtexts)
	}
	return "parse listing: " + e.Reason
}
