package settings

import (
	"context"

	"github.com/subgarden/subgarden/internal/domain"
)

// Repository persists the notification settings snapshot.
type Repository interface {
	Load(ctx context.Context) (*domain.NotificationSettings, error)
	Save(ctx context.Context, cfg *domain.NotificationSettings) error
}
