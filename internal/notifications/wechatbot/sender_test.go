package wechatbot

import (
	"context"
	"encoding/json"
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
	cfg.WechatBot.WebhookURL = url
	return cfg
}

func TestSender_Name(t *testing.T) {
	sender := NewSender(Config{})
	assert.Equal(t, domain.ChannelWechatBot, sender.Name())
}

func TestSender_Send_MissingURL(t *testing.T) {
	sender := NewSender(Config{})

	err := sender.Send(context.Background(), notifications.Message{Title: "t", Body: "b"}, settingsWith(""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook url is required")
}

func TestSender_Send_TextMessage(t *testing.T) {
	var received botMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(botAck{ErrCode: 0, ErrMsg: "ok"})
	}))
	defer server.Close()

	sender := NewSender(Config{})
	err := sender.Send(context.Background(), notifications.Message{
		Title: "Reminder",
		Body:  "Netflix expires in 3 days",
	}, settingsWith(server.URL))

	require.NoError(t, err)
	assert.Equal(t, "text", received.MsgType)
	require.NotNil(t, received.Text)
	assert.Equal(t, "Reminder\n\nNetflix expires in 3 days", received.Text.Content)
	assert.Empty(t, received.Text.MentionedList)
}

func TestSender_Send_MarkdownMessage(t *testing.T) {
	var received botMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(botAck{ErrCode: 0})
	}))
	defer server.Close()

	cfg := settingsWith(server.URL)
	cfg.WechatBot.MsgType = "markdown"

	sender := NewSender(Config{})
	err := sender.Send(context.Background(), notifications.Message{Title: "Reminder", Body: "body"}, cfg)

	require.NoError(t, err)
	assert.Equal(t, "markdown", received.MsgType)
	require.NotNil(t, received.Markdown)
	assert.Equal(t, "# Reminder\n\nbody", received.Markdown.Content)
}

func TestSender_Send_Mentions(t *testing.T) {
	tests := []struct {
		name        string
		atAll       bool
		atMobiles   string
		wantList    []string
		wantMobiles []string
	}{
		{
			name:     "at all wins over mobiles",
			atAll:    true,
			wantList: []string{"@all"},
		},
		{
			name:        "mobile list",
			atMobiles:   "13800000000, 13900000000",
			wantMobiles: []string{"13800000000", "13900000000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received botMessage
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				_ = json.NewEncoder(w).Encode(botAck{ErrCode: 0})
			}))
			defer server.Close()

			cfg := settingsWith(server.URL)
			cfg.WechatBot.AtAll = tt.atAll
			cfg.WechatBot.AtMobiles = tt.atMobiles

			sender := NewSender(Config{})
			err := sender.Send(context.Background(), notifications.Message{Title: "t", Body: "b"}, cfg)

			require.NoError(t, err)
			require.NotNil(t, received.Text)
			assert.Equal(t, tt.wantList, received.Text.MentionedList)
			assert.Equal(t, tt.wantMobiles, received.Text.MentionedMobileList)
		})
	}
}

func TestSender_Send_ProviderRejects(t *testing.T) {
	// The bot API reports failures in the ack body with a 200 status.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(botAck{ErrCode: 93000, ErrMsg: "invalid webhook url"})
	}))
	defer server.Close()

	sender := NewSender(Config{})
	err := sender.Send(context.Background(), notifications.Message{Title: "t", Body: "b"}, settingsWith(server.URL))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "errcode=93000")
}
