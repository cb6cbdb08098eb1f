// Package telegram delivers notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second
)

// Config holds sender construction options. Credentials live in the
// settings snapshot passed to Send, not here.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // messages per second, 0 disables limiting
}

// Sender implements the telegram channel.
type Sender struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSender creates a telegram sender.
func NewSender(config Config) *Sender {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Sender{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
	}
}

// Name returns the channel name.
func (s *Sender) Name() string {
	return domain.ChannelTelegram
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the message via sendMessage. Success requires both an
// HTTP success status and ok=true in the API response.
func (s *Sender) Send(ctx context.Context, msg notifications.Message, cfg domain.NotificationSettings) error {
	tg := cfg.Telegram
	if tg.BotToken == "" || tg.ChatID == "" {
		return errors.New("telegram: bot token and chat id are required")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram: wait for rate limiter: %w", err)
		}
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    tg.ChatID,
		Text:      msg.Body,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, tg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("telegram: parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !result.OK {
		return fmt.Errorf("telegram: api rejected message (status %d): %s", resp.StatusCode, result.Description)
	}
	return nil
}
