package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LJTian/ycomb-poster/internal/collector"
	"github.com/LJTian/ycomb-poster/internal/config"
)

const (
	telegramClientTimeout    = 10 * time.Second
	telegramMaxResponseBytes = 64 * 1024
)

// TelegramNotifier 通过 Bot API sendMessage 发送，参数全部放在 GET 查询串里
type TelegramNotifier struct {
	APIURL string
	Token  string
	ChatID string
	// Silent 对应 disable_notification=true
	Silent bool
	// Confirm 为 true 时解析响应体，"ok": false 视为失败
	Confirm bool
	Client  *http.Client
}

func NewTelegramNotifier(cfg *config.Config) *TelegramNotifier {
	return &TelegramNotifier{
		APIURL:  cfg.TelegramAPIURL,
		Token:   cfg.TelegramBotToken,
		ChatID:  cfg.TelegramChannel,
		Silent:  cfg.SilentBroadcast,
		Confirm: cfg.TelegramConfirm,
		Client:  &http.Client{Timeout: telegramClientTimeout},
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, item collector.NewsItem) error {
	return n.Send(ctx, FormatMessage(item))
}

// Send 发送一段已排版的 Markdown 文本
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	q := url.Values{}
	q.Set("chat_id", n.ChatID)
	q.Set("parse_mode", "Markdown")
	if n.Silent {
		q.Set("disable_notification", "true")
	}
	q.Set("text", text)

	base := strings.TrimRight(n.APIURL, "/")
	endpoint := base + "/bot" + n.Token + "/sendMessage?" + q.Encode()
	// 错误信息里不能带 token
	safeURL := base + "/bot<redacted>/sendMessage"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &collector.NetworkError{Op: collector.OpSend, URL: safeURL, Err: errors.New("build request")}
	}

	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: telegramClientTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return &collector.NetworkError{Op: collector.OpSend, URL: safeURL, Err: stripURL(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &collector.NetworkError{Op: collector.OpSend, URL: safeURL, StatusCode: resp.StatusCode}
	}

	if !n.Confirm {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, telegramMaxResponseBytes))
		return nil
	}

	var out struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, telegramMaxResponseBytes)).Decode(&out); err != nil {
		return &collector.NetworkError{Op: collector.OpSend, URL: safeURL, StatusCode: resp.StatusCode, Err: err}
	}
	if !out.OK {
		desc := out.Description
		if desc == "" {
			desc = "telegram returned ok=false"
		}
		return &collector.NetworkError{Op: collector.OpSend, URL: safeURL, StatusCode: resp.StatusCode, Err: errors.New(desc)}
	}
	return nil
}

// stripURL *url.Error 的文本里包含完整请求地址（含 token），只保留底层错误
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
