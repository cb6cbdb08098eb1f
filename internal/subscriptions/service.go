package subscriptions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/renewals"
)

// CreateInput carries the fields accepted when creating or updating a
// subscription. Nil pointers keep the current value on update and take
// the documented default on create.
type CreateInput struct {
	Name         string
	Category     string
	StartDate    *time.Time
	ExpiryDate   time.Time
	Period       *domain.Period
	ReminderDays *int
	Notes        string
	IsActive     *bool
	AutoRenew    *bool
}

// Service provides subscription business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a subscriptions service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns all subscriptions.
func (s *Service) List(ctx context.Context) ([]domain.Subscription, error) {
	return s.repo.List(ctx)
}

// Get returns one subscription by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new subscription. An expiry date already in the past
// is rolled forward to the first future cycle when a period is set, so
// a freshly created subscription never starts out expired by accident.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Subscription, error) {
	now := s.now()

	sub := &domain.Subscription{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Category:     input.Category,
		StartDate:    input.StartDate,
		ExpiryDate:   s.normalizeExpiry(input.ExpiryDate, input.Period, now),
		Period:       input.Period,
		ReminderDays: input.ReminderDays,
		Notes:        input.Notes,
		IsActive:     true,
		AutoRenew:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.IsActive != nil {
		sub.IsActive = *input.IsActive
	}
	if input.AutoRenew != nil {
		sub.AutoRenew = *input.AutoRenew
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// Update overwrites an existing subscription with the given input,
// applying the same past-expiry normalization as Create.
func (s *Service) Update(ctx context.Context, id string, input CreateInput) (*domain.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()

	sub.Name = input.Name
	sub.Category = input.Category
	if input.StartDate != nil {
		sub.StartDate = input.StartDate
	}
	if input.Period != nil {
		sub.Period = input.Period
	}
	sub.ExpiryDate = s.normalizeExpiry(input.ExpiryDate, sub.Period, now)
	if input.ReminderDays != nil {
		sub.ReminderDays = input.ReminderDays
	}
	sub.Notes = input.Notes
	if input.IsActive != nil {
		sub.IsActive = *input.IsActive
	}
	if input.AutoRenew != nil {
		sub.AutoRenew = *input.AutoRenew
	}
	sub.UpdatedAt = now

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return sub, nil
}

// ToggleActive flips the active flag.
func (s *Service) ToggleActive(ctx context.Context, id string, isActive bool) (*domain.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sub.IsActive = isActive
	sub.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("toggle subscription: %w", err)
	}
	return sub, nil
}

// Delete removes a subscription.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) normalizeExpiry(expiry time.Time, period *domain.Period, now time.Time) time.Time {
	if !expiry.Before(now) || period == nil {
		return expiry
	}
	next, err := renewals.RollForward(expiry, period.Value, period.Unit, now)
	if err != nil {
		slog.Warn("cannot normalize past expiry date", "error", err)
		return expiry
	}
	return next
}
