// Package settings manages the runtime notification configuration.
package settings

import (
	"context"
	"fmt"

	"github.com/subgarden/subgarden/internal/domain"
)

var knownChannels = map[string]bool{
	domain.ChannelTelegram:  true,
	domain.ChannelWebhook:   true,
	domain.ChannelWechatBot: true,
	domain.ChannelNotifyX:   true,
	domain.ChannelEmail:     true,
}

// ErrUnknownChannel is returned when an enabled channel name is not recognized.
type ErrUnknownChannel struct {
	Channel string
}

func (e *ErrUnknownChannel) Error() string {
	return fmt.Sprintf("unknown notification channel %q", e.Channel)
}

// Service exposes read and update operations over the settings snapshot.
type Service struct {
	repo Repository
}

// NewService creates a new settings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the current settings, falling back to defaults when nothing
// has been saved yet.
func (s *Service) Get(ctx context.Context) (*domain.NotificationSettings, error) {
	return s.repo.Load(ctx)
}

// Update validates and persists a new settings snapshot. Credential
// fields still carrying the redaction placeholder from a previous read
// keep their stored value, so clients may write back what GET returned.
func (s *Service) Update(ctx context.Context, cfg *domain.NotificationSettings) error {
	for _, ch := range cfg.EnabledChannels {
		if !knownChannels[ch] {
			return &ErrUnknownChannel{Channel: ch}
		}
	}

	stored, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load current settings: %w", err)
	}
	*cfg = cfg.RestoreRedacted(*stored)

	return s.repo.Save(ctx, cfg)
}
