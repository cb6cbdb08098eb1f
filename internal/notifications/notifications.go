// Package notifications renders subscription reminders and fans them
// out to the enabled channels with per-channel failure isolation.
package notifications

import (
	"context"

	"github.com/subgarden/subgarden/internal/domain"
)

// Message is the rendered content handed to one channel sender, already
// adapted to that channel's markup conventions.
type Message struct {
	Title string
	Body  string
}

// Sender delivers a message through one provider. Implementations read
// their own section of the settings snapshot and must return an error
// when the provider did not explicitly acknowledge the message.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message, cfg domain.NotificationSettings) error
}

// Result records one channel's delivery outcome. The dispatcher never
// retries and never raises; it only reports.
type Result struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}
