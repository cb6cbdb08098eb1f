// Package notifyx delivers notifications through the NotifyX push API.
package notifyx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

const (
	defaultBaseURL = "https://www.notifyx.cn"
	defaultTimeout = 10 * time.Second
)

// Config holds sender construction options.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Sender implements the NotifyX channel.
type Sender struct {
	baseURL    string
	httpClient *http.Client
}

// NewSender creates a NotifyX sender.
func NewSender(config Config) *Sender {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Sender{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Name returns the channel name.
func (s *Sender) Name() string {
	return domain.ChannelNotifyX
}

type sendRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send posts the message to the push API. Success requires both an
// HTTP success status and status="queued" in the response.
func (s *Sender) Send(ctx context.Context, msg notifications.Message, cfg domain.NotificationSettings) error {
	if cfg.NotifyX.APIKey == "" {
		return errors.New("notifyx: api key is required")
	}

	payload, err := json.Marshal(sendRequest{
		Title:       msg.Title,
		Content:     msg.Body,
		Description: msg.Title,
	})
	if err != nil {
		return fmt.Errorf("notifyx: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/send/%s", s.baseURL, cfg.NotifyX.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notifyx: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notifyx: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notifyx: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifyx: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result sendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("notifyx: parse response: %w", err)
	}
	if result.Status != "queued" {
		return fmt.Errorf("notifyx: provider rejected message: status=%s message=%s", result.Status, result.Message)
	}
	return nil
}
