package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgarden/subgarden/internal/domain"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	subs      map[string]*domain.Subscription
	createErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{subs: make(map[string]*domain.Subscription)}
}

func (m *mockRepository) List(_ context.Context) ([]domain.Subscription, error) {
	out := make([]domain.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*domain.Subscription, error) {
	if s, ok := m.subs[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (m *mockRepository) Create(_ context.Context, sub *domain.Subscription) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.subs[sub.ID] = sub
	return nil
}

func (m *mockRepository) Update(_ context.Context, sub *domain.Subscription) error {
	if _, ok := m.subs[sub.ID]; !ok {
		return domain.ErrSubscriptionNotFound
	}
	m.subs[sub.ID] = sub
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.subs[id]; !ok {
		return domain.ErrSubscriptionNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *mockRepository) ReplaceAll(_ context.Context, subs []domain.Subscription) error {
	m.subs = make(map[string]*domain.Subscription, len(subs))
	for i := range subs {
		m.subs[subs[i].ID] = &subs[i]
	}
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo Repository, now time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func boolPtr(v bool) *bool { return &v }

func TestCreate_Defaults(t *testing.T) {
	now := date(2026, time.September, 1)
	repo := newMockRepository()
	svc := newTestService(repo, now)

	sub, err := svc.Create(context.Background(), CreateInput{
		Name:       "Netflix",
		Category:   "entertainment",
		ExpiryDate: date(2026, time.October, 1),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.True(t, sub.IsActive)
	assert.True(t, sub.AutoRenew)
	assert.Equal(t, now, sub.CreatedAt)
	assert.Equal(t, now, sub.UpdatedAt)
	assert.Len(t, repo.subs, 1)
}

func TestCreate_ExplicitFlags(t *testing.T) {
	svc := newTestService(newMockRepository(), date(2026, time.September, 1))

	sub, err := svc.Create(context.Background(), CreateInput{
		Name:       "VPS",
		ExpiryDate: date(2026, time.October, 1),
		IsActive:   boolPtr(false),
		AutoRenew:  boolPtr(false),
	})

	require.NoError(t, err)
	assert.False(t, sub.IsActive)
	assert.False(t, sub.AutoRenew)
}

func TestCreate_PastExpiryRollsForward(t *testing.T) {
	now := date(2026, time.September, 1)
	svc := newTestService(newMockRepository(), now)

	sub, err := svc.Create(context.Background(), CreateInput{
		Name:       "Netflix",
		ExpiryDate: date(2026, time.July, 20),
		Period:     &domain.Period{Value: 1, Unit: domain.PeriodUnitMonth},
	})

	require.NoError(t, err)
	assert.Equal(t, date(2026, time.September, 20), sub.ExpiryDate)
}

func TestCreate_PastExpiryWithoutPeriodKept(t *testing.T) {
	now := date(2026, time.September, 1)
	svc := newTestService(newMockRepository(), now)

	past := date(2026, time.August, 1)
	sub, err := svc.Create(context.Background(), CreateInput{
		Name:       "Lapsed",
		ExpiryDate: past,
	})

	require.NoError(t, err)
	assert.Equal(t, past, sub.ExpiryDate)
}

func TestUpdate(t *testing.T) {
	now := date(2026, time.September, 1)
	repo := newMockRepository()
	svc := newTestService(repo, now)

	created, err := svc.Create(context.Background(), CreateInput{
		Name:       "Netflix",
		ExpiryDate: date(2026, time.October, 1),
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, CreateInput{
		Name:       "Netflix Premium",
		Category:   "entertainment",
		ExpiryDate: date(2026, time.November, 1),
		Notes:      "upgraded",
	})

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Netflix Premium", updated.Name)
	assert.Equal(t, date(2026, time.November, 1), updated.ExpiryDate)
	assert.Equal(t, "upgraded", updated.Notes)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUpdate_OmittedPeriodKept(t *testing.T) {
	now := date(2026, time.September, 1)
	repo := newMockRepository()
	svc := newTestService(repo, now)

	created, err := svc.Create(context.Background(), CreateInput{
		Name:       "Netflix",
		ExpiryDate: date(2026, time.October, 1),
		Period:     &domain.Period{Value: 1, Unit: domain.PeriodUnitMonth},
	})
	require.NoError(t, err)

	// No period in the request: the stored one survives and still
	// drives past-expiry normalization.
	updated, err := svc.Update(context.Background(), created.ID, CreateInput{
		Name:       "Netflix",
		ExpiryDate: date(2026, time.July, 20),
	})

	require.NoError(t, err)
	require.NotNil(t, updated.Period)
	assert.Equal(t, 1, updated.Period.Value)
	assert.Equal(t, domain.PeriodUnitMonth, updated.Period.Unit)
	assert.Equal(t, date(2026, time.September, 20), updated.ExpiryDate)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(newMockRepository(), date(2026, time.September, 1))

	_, err := svc.Update(context.Background(), "missing", CreateInput{
		Name:       "X",
		ExpiryDate: date(2026, time.October, 1),
	})

	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestToggleActive(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, date(2026, time.September, 1))

	created, err := svc.Create(context.Background(), CreateInput{
		Name:       "Netflix",
		ExpiryDate: date(2026, time.October, 1),
	})
	require.NoError(t, err)

	toggled, err := svc.ToggleActive(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestDelete(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, date(2026, time.September, 1))

	created, err := svc.Create(context.Background(), CreateInput{
		Name:       "Netflix",
		ExpiryDate: date(2026, time.October, 1),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}
