package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

func settingsWith(url string) domain.NotificationSettings {
	cfg := domain.DefaultNotificationSettings()
	cfg.Webhook.URL = url
	return cfg
}

func TestSender_Name(t *testing.T) {
	sender := NewSender(Config{})
	assert.Equal(t, domain.ChannelWebhook, sender.Name())
}

func TestSender_Send_MissingURL(t *testing.T) {
	sender := NewSender(Config{})

	err := sender.Send(context.Background(), notifications.Message{
		Title: "Test",
		Body:  "body",
	}, settingsWith(""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}

func TestSender_Send_DefaultPayload(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(Config{})

	err := sender.Send(context.Background(), notifications.Message{
		Title: "Reminder",
		Body:  "two subscriptions expire soon",
	}, settingsWith(server.URL))

	require.NoError(t, err)
	assert.Equal(t, "Reminder", received["title"])
	assert.Equal(t, "two subscriptions expire soon", received["content"])
	assert.NotEmpty(t, received["timestamp"])
}

func TestSender_Send_CustomMethodAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := settingsWith(server.URL)
	cfg.Webhook.Method = http.MethodPut
	cfg.Webhook.Headers = `{"X-Api-Key": "secret"}`

	sender := NewSender(Config{})
	err := sender.Send(context.Background(), notifications.Message{Title: "t", Body: "b"}, cfg)
	assert.NoError(t, err)
}

func TestSender_Send_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	sender := NewSender(Config{})
	err := sender.Send(context.Background(), notifications.Message{Title: "t", Body: "b"}, settingsWith(server.URL))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSender_Send_TemplatePayload(t *testing.T) {
	var raw []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		raw, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := settingsWith(server.URL)
	cfg.Webhook.Template = `{"text": "{{title}}: {{content}}", "at": "{{timestamp}}"}`

	sender := NewSender(Config{})
	err := sender.Send(context.Background(), notifications.Message{
		Title: "Reminder",
		Body:  "Netflix expires in 3 days",
	}, cfg)
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "Reminder: Netflix expires in 3 days", payload["text"])
	assert.NotEmpty(t, payload["at"])
}

func TestBuildPayload_EscapesControlCharacters(t *testing.T) {
	// Bodies contain newlines; substitution must keep the template
	// parseable instead of injecting raw control characters.
	payload := buildPayload(`{"text": "{{content}}"}`, "t", "line one\nline two", "ts")

	require.True(t, json.Valid(payload))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "line one\nline two", decoded["text"])
}

func TestBuildPayload_InvalidTemplateFallsBack(t *testing.T) {
	payload := buildPayload(`{"text": {{content}}`, "Reminder", "body", "ts")

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "Reminder", decoded["title"])
	assert.Equal(t, "body", decoded["content"])
	assert.Equal(t, "ts", decoded["timestamp"])
}
