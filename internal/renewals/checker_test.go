package renewals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

// mockStore implements SubscriptionStore for testing.
type mockStore struct {
	subs       []domain.Subscription
	listErr    error
	replaceErr error
	replaced   []domain.Subscription
}

func (m *mockStore) List(_ context.Context) ([]domain.Subscription, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.subs, nil
}

func (m *mockStore) ReplaceAll(_ context.Context, subs []domain.Subscription) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced = subs
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (*domain.Subscription, error) {
	for i := range m.subs {
		if m.subs[i].ID == id {
			return &m.subs[i], nil
		}
	}
	return nil, domain.ErrSubscriptionNotFound
}

// mockSettings implements SettingsStore for testing.
type mockSettings struct {
	cfg domain.NotificationSettings
	err error
}

func (m *mockSettings) Load(_ context.Context) (domain.NotificationSettings, error) {
	if m.err != nil {
		return domain.NotificationSettings{}, m.err
	}
	return m.cfg, nil
}

// mockDispatcher implements Dispatcher for testing.
type mockDispatcher struct {
	calls   int
	title   string
	body    string
	results []notifications.Result
}

func (m *mockDispatcher) Dispatch(_ context.Context, title, body string, _ domain.NotificationSettings) []notifications.Result {
	m.calls++
	m.title = title
	m.body = body
	return m.results
}

func enabledSettings() domain.NotificationSettings {
	cfg := domain.DefaultNotificationSettings()
	cfg.EnabledChannels = []string{domain.ChannelWebhook}
	return cfg
}

func newTestChecker(store *mockStore, dispatcher *mockDispatcher, now time.Time) *Checker {
	c := NewChecker(store, &mockSettings{cfg: enabledSettings()}, notifications.NewRenderer(nil), dispatcher, 0)
	c.now = func() time.Time { return now }
	return c
}

func TestRunPass_NothingDue(t *testing.T) {
	now := date(2026, time.September, 1)
	store := &mockStore{subs: []domain.Subscription{
		sub("far-out", date(2026, time.December, 1)),
	}}
	dispatcher := &mockDispatcher{}

	checker := newTestChecker(store, dispatcher, now)
	summary, err := checker.RunPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Evaluated)
	assert.False(t, summary.RolledOver)
	assert.Zero(t, summary.Due)
	assert.Zero(t, dispatcher.calls, "nothing due must not dispatch")
	assert.Nil(t, store.replaced)
}

func TestRunPass_DueDispatchesDigest(t *testing.T) {
	now := date(2026, time.September, 1)
	store := &mockStore{subs: []domain.Subscription{
		sub("netflix", date(2026, time.September, 4)),
	}}
	dispatcher := &mockDispatcher{results: []notifications.Result{
		{Channel: domain.ChannelWebhook, Success: true, Message: "delivered"},
	}}

	checker := newTestChecker(store, dispatcher, now)
	summary, err := checker.RunPass(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Due)
	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, notifications.DigestTitle, dispatcher.title)
	assert.Contains(t, dispatcher.body, "netflix")
	assert.Contains(t, dispatcher.body, "expires in 3 days")
	require.Len(t, summary.Results, 1)
	assert.True(t, summary.Results[0].Success)
}

func TestRunPass_RolloverPersistedBeforeDispatch(t *testing.T) {
	now := date(2026, time.September, 1)
	store := &mockStore{subs: []domain.Subscription{
		sub("netflix", date(2026, time.July, 20), withPeriod(1, domain.PeriodUnitMonth)),
	}}
	dispatcher := &mockDispatcher{}

	checker := newTestChecker(store, dispatcher, now)
	summary, err := checker.RunPass(context.Background())

	require.NoError(t, err)
	assert.True(t, summary.RolledOver)
	require.Len(t, store.replaced, 1)
	assert.Equal(t, date(2026, time.September, 20), store.replaced[0].ExpiryDate)
}

func TestRunPass_PersistFailureAbortsBeforeDispatch(t *testing.T) {
	now := date(2026, time.September, 1)
	store := &mockStore{
		subs: []domain.Subscription{
			sub("rolls-into-window", date(2026, time.August, 30), withPeriod(5, domain.PeriodUnitDay)),
		},
		replaceErr: errors.New("connection lost"),
	}
	dispatcher := &mockDispatcher{}

	checker := newTestChecker(store, dispatcher, now)
	_, err := checker.RunPass(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist rolled-over subscriptions")
	assert.Zero(t, dispatcher.calls, "dispatch must not run when persistence failed")
}

func TestRunPass_ListFailureAborts(t *testing.T) {
	store := &mockStore{listErr: errors.New("connection lost")}
	dispatcher := &mockDispatcher{}

	checker := newTestChecker(store, dispatcher, date(2026, time.September, 1))
	_, err := checker.RunPass(context.Background())

	require.Error(t, err)
	assert.Zero(t, dispatcher.calls)
}

func TestRunPass_ChannelFailureDoesNotFailPass(t *testing.T) {
	now := date(2026, time.September, 1)
	store := &mockStore{subs: []domain.Subscription{
		sub("netflix", now),
	}}
	dispatcher := &mockDispatcher{results: []notifications.Result{
		{Channel: domain.ChannelWebhook, Success: false, Message: "unexpected status 502"},
	}}

	checker := newTestChecker(store, dispatcher, now)
	summary, err := checker.RunPass(context.Background())

	require.NoError(t, err, "channel failures are reported, not raised")
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Success)
}

func TestTestSubscription(t *testing.T) {
	now := date(2026, time.September, 1)
	store := &mockStore{subs: []domain.Subscription{
		sub("netflix", date(2026, time.September, 20)),
	}}
	dispatcher := &mockDispatcher{results: []notifications.Result{
		{Channel: domain.ChannelWebhook, Success: true},
	}}

	checker := newTestChecker(store, dispatcher, now)
	results, err := checker.TestSubscription(context.Background(), "netflix")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Manual test notification: netflix", dispatcher.title)
	assert.Contains(t, dispatcher.body, "Sep 20, 2026")
}

func TestTestSubscription_NotFound(t *testing.T) {
	checker := newTestChecker(&mockStore{}, &mockDispatcher{}, date(2026, time.September, 1))

	_, err := checker.TestSubscription(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestNotify_RelaysArbitraryMessage(t *testing.T) {
	dispatcher := &mockDispatcher{results: []notifications.Result{
		{Channel: domain.ChannelWebhook, Success: true},
	}}
	checker := newTestChecker(&mockStore{}, dispatcher, date(2026, time.September, 1))

	results, err := checker.Notify(context.Background(), "Deploy finished", "all good")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Deploy finished", dispatcher.title)
	assert.Equal(t, "all good", dispatcher.body)
}
