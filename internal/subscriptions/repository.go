// Package subscriptions provides the subscription record CRUD surface.
package subscriptions

import (
	"context"

	"github.com/subgarden/subgarden/internal/domain"
)

// Repository defines the interface for subscription data access.
// ReplaceAll swaps the whole collection in one transaction; it exists
// for the evaluation pass, which always writes back the full set.
type Repository interface {
	List(ctx context.Context) ([]domain.Subscription, error)
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
	Create(ctx context.Context, sub *domain.Subscription) error
	Update(ctx context.Context, sub *domain.Subscription) error
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, subs []domain.Subscription) error
}
