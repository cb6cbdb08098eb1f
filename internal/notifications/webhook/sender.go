// Package webhook delivers notifications to an operator-configured
// JSON endpoint, with optional payload templating.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

const (
	defaultTimeout = 10 * time.Second

	timestampLayout = "2006-01-02 15:04:05"
)

// Config holds sender construction options.
type Config struct {
	Timeout time.Duration
}

// Sender implements the generic webhook channel.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a webhook sender.
func NewSender(config Config) *Sender {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Sender{httpClient: &http.Client{Timeout: config.Timeout}}
}

// Name returns the channel name.
func (s *Sender) Name() string {
	return domain.ChannelWebhook
}

// Send posts the message to the configured URL. The request body comes
// from the operator template when it substitutes into valid JSON, and
// from the default {title, content, timestamp} envelope otherwise.
// Success is any HTTP 2xx status.
func (s *Sender) Send(ctx context.Context, msg notifications.Message, cfg domain.NotificationSettings) error {
	wh := cfg.Webhook
	if wh.URL == "" {
		return errors.New("webhook: url is required")
	}

	timestamp := time.Now().Format(timestampLayout)
	payload := buildPayload(wh.Template, msg.Title, msg.Body, timestamp)

	method := wh.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, wh.URL, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	applyCustomHeaders(req, wh.Headers)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// buildPayload substitutes {{title}}, {{content}} and {{timestamp}}
// into the template as JSON-escaped strings, then re-parses the result.
// Any parse failure falls back to the default envelope with a logged
// warning, so a malformed template is never swallowed silently.
func buildPayload(template, title, content, timestamp string) json.RawMessage {
	if template == "" {
		return defaultEnvelope(title, content, timestamp)
	}

	substituted := strings.NewReplacer(
		"{{title}}", jsonEscape(title),
		"{{content}}", jsonEscape(content),
		"{{timestamp}}", jsonEscape(timestamp),
	).Replace(template)

	if !json.Valid([]byte(substituted)) {
		slog.Warn("webhook template did not produce valid JSON, using default payload")
		return defaultEnvelope(title, content, timestamp)
	}
	return json.RawMessage(substituted)
}

func defaultEnvelope(title, content, timestamp string) json.RawMessage {
	payload, _ := json.Marshal(map[string]string{
		"title":     title,
		"content":   content,
		"timestamp": timestamp,
	})
	return payload
}

// jsonEscape renders s as it would appear inside a JSON string literal.
func jsonEscape(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted[1 : len(quoted)-1])
}

func applyCustomHeaders(req *http.Request, headers string) {
	if headers == "" {
		return
	}
	var custom map[string]string
	if err := json.Unmarshal([]byte(headers), &custom); err != nil {
		slog.Warn("webhook custom headers are not a JSON object, ignoring", "error", err)
		return
	}
	for k, v := range custom {
		req.Header.Set(k, v)
	}
}
