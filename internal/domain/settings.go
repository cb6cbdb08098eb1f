package domain

// Channel names understood by the dispatcher. The enabled list in
// NotificationSettings refers to channels by these names; unknown names
// are skipped silently.
const (
	ChannelTelegram  = "telegram"
	ChannelWebhook   = "webhook"
	ChannelWechatBot = "wechatbot"
	ChannelNotifyX   = "notifyx"
	ChannelEmail     = "email"
)

// NotificationSettings is the operator-owned channel configuration.
// It is stored as one row and passed into each dispatch as an immutable
// snapshot, so senders never share mutable state.
type NotificationSettings struct {
	EnabledChannels []string `json:"enabled_channels"`
	ShowLunar       bool     `json:"show_lunar"`

	Telegram  TelegramSettings  `json:"telegram"`
	Webhook   WebhookSettings   `json:"webhook"`
	WechatBot WechatBotSettings `json:"wechatbot"`
	NotifyX   NotifyXSettings   `json:"notifyx"`
	Email     EmailSettings     `json:"email"`
}

// TelegramSettings configures the Telegram bot channel.
type TelegramSettings struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// WebhookSettings configures the generic JSON webhook channel.
// Headers is a JSON object string with extra request headers.
// Template is a JSON document with {{title}}, {{content}} and
// {{timestamp}} placeholders; when empty or invalid, a default
// {title, content, timestamp} envelope is sent instead.
type WebhookSettings struct {
	URL      string `json:"url"`
	Method   string `json:"method"`
	Headers  string `json:"headers"`
	Template string `json:"template"`
}

// WechatBotSettings configures the enterprise chat-bot webhook channel.
// MsgType is "text" or "markdown". Mentions only apply to text messages.
type WechatBotSettings struct {
	WebhookURL string `json:"webhook_url"`
	MsgType    string `json:"msg_type"`
	AtMobiles  string `json:"at_mobiles"` // comma-separated
	AtAll      bool   `json:"at_all"`
}

// NotifyXSettings configures the NotifyX push channel.
type NotifyXSettings struct {
	APIKey string `json:"api_key"`
}

// EmailSettings configures transactional email delivery.
// To may hold several comma-separated recipients.
type EmailSettings struct {
	APIKey   string `json:"api_key"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
}

const redactedPlaceholder = "***"

// Redacted returns a copy safe to expose over the API: credential
// fields are masked, non-secret fields kept as-is. Dispatch always
// works from the unredacted snapshot.
func (s NotificationSettings) Redacted() NotificationSettings {
	out := s
	out.Telegram.BotToken = mask(s.Telegram.BotToken)
	out.NotifyX.APIKey = mask(s.NotifyX.APIKey)
	out.Email.APIKey = mask(s.Email.APIKey)
	return out
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	return redactedPlaceholder
}

// RestoreRedacted returns a copy of s where credential fields still
// holding the redaction placeholder are replaced with the value from
// stored. A read-modify-write round trip through the API therefore
// keeps the real credentials instead of persisting the mask.
func (s NotificationSettings) RestoreRedacted(stored NotificationSettings) NotificationSettings {
	out := s
	out.Telegram.BotToken = unmask(s.Telegram.BotToken, stored.Telegram.BotToken)
	out.NotifyX.APIKey = unmask(s.NotifyX.APIKey, stored.NotifyX.APIKey)
	out.Email.APIKey = unmask(s.Email.APIKey, stored.Email.APIKey)
	return out
}

func unmask(v, stored string) string {
	if v == redactedPlaceholder {
		return stored
	}
	return v
}

// DefaultNotificationSettings returns the settings used before the
// operator has saved anything.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EnabledChannels: []string{},
		Webhook:         WebhookSettings{Method: "POST"},
		WechatBot:       WechatBotSettings{MsgType: "text"},
	}
}
