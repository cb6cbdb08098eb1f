// Package wechatbot delivers notifications to an enterprise chat-bot
// incoming webhook (WeCom group robot API).
package wechatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

const defaultTimeout = 10 * time.Second

// Config holds sender construction options.
type Config struct {
	Timeout time.Duration
}

// Sender implements the enterprise chat-bot channel.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a wechatbot sender.
func NewSender(config Config) *Sender {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Sender{httpClient: &http.Client{Timeout: config.Timeout}}
}

// Name returns the channel name.
func (s *Sender) Name() string {
	return domain.ChannelWechatBot
}

type textContent struct {
	Content             string   `json:"content"`
	MentionedList       []string `json:"mentioned_list,omitempty"`
	MentionedMobileList []string `json:"mentioned_mobile_list,omitempty"`
}

type markdownContent struct {
	Content string `json:"content"`
}

type botMessage struct {
	MsgType  string           `json:"msgtype"`
	Text     *textContent     `json:"text,omitempty"`
	Markdown *markdownContent `json:"markdown,omitempty"`
}

type botAck struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Send posts the message to the bot webhook. Success requires both an
// HTTP success status and errcode=0 in the structured ack.
func (s *Sender) Send(ctx context.Context, msg notifications.Message, cfg domain.NotificationSettings) error {
	bot := cfg.WechatBot
	if bot.WebhookURL == "" {
		return errors.New("wechatbot: webhook url is required")
	}

	payload, err := json.Marshal(buildMessage(msg, bot))
	if err != nil {
		return fmt.Errorf("wechatbot: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bot.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wechatbot: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wechatbot: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("wechatbot: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wechatbot: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var ack botAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return fmt.Errorf("wechatbot: parse response: %w", err)
	}
	if ack.ErrCode != 0 {
		return fmt.Errorf("wechatbot: provider rejected message: errcode=%d errmsg=%s", ack.ErrCode, ack.ErrMsg)
	}
	return nil
}

func buildMessage(msg notifications.Message, bot domain.WechatBotSettings) botMessage {
	if bot.MsgType == "markdown" {
		return botMessage{
			MsgType:  "markdown",
			Markdown: &markdownContent{Content: fmt.Sprintf("# %s\n\n%s", msg.Title, msg.Body)},
		}
	}

	text := &textContent{Content: fmt.Sprintf("%s\n\n%s", msg.Title, msg.Body)}
	if bot.AtAll {
		text.MentionedList = []string{"@all"}
	} else if mobiles := splitMobiles(bot.AtMobiles); len(mobiles) > 0 {
		text.MentionedMobileList = mobiles
	}
	return botMessage{MsgType: "text", Text: text}
}

func splitMobiles(s string) []string {
	var mobiles []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			mobiles = append(mobiles, m)
		}
	}
	return mobiles
}
