// Package email delivers notifications as transactional email through
// the Resend HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

const (
	defaultBaseURL = "https://api.resend.com"
	defaultTimeout = 10 * time.Second
)

// Config holds sender construction options.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Sender implements the email channel.
type Sender struct {
	baseURL    string
	httpClient *http.Client
}

// NewSender creates an email sender.
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
	return domain.ChannelEmail
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send posts the message to the transactional email API. Success
// requires both an HTTP success status and a non-empty message id in
// the response.
func (s *Sender) Send(ctx context.Context, msg notifications.Message, cfg domain.NotificationSettings) error {
	em := cfg.Email
	if em.APIKey == "" || em.From == "" || em.To == "" {
		return errors.New("email: api key, from and to are required")
	}

	from := em.From
	if em.FromName != "" {
		from = fmt.Sprintf("%s <%s>", em.FromName, em.From)
	}

	payload, err := json.Marshal(sendRequest{
		From:    from,
		To:      splitRecipients(em.To),
		Subject: msg.Title,
		HTML:    buildHTML(msg.Title, msg.Body),
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("email: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("email: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+em.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result sendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("email: parse response: %w", err)
	}
	if result.ID == "" {
		return fmt.Errorf("email: provider did not acknowledge message: %s", string(body))
	}
	return nil
}

func splitRecipients(to string) []string {
	var recipients []string
	for _, r := range strings.Split(to, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return recipients
}

// buildHTML wraps the plain-text body in a minimal HTML shell for mail
// clients that prefer the HTML part.
func buildHTML(title, body string) string {
	escaped := html.EscapeString(body)
	return fmt.Sprintf(
		`<html><body><h2>%s</h2><div style="line-height:1.6">%s</div><p style="color:#888;font-size:13px">Sent automatically by the subscription tracker.</p></body></html>`,
		html.EscapeString(title),
		strings.ReplaceAll(escaped, "\n", "<br>"),
	)
}
