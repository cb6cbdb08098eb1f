package renewals

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/notifications"
)

// SubscriptionStore is the persistence surface one check pass needs.
// ReplaceAll swaps the whole collection atomically; the checker never
// patches individual records.
type SubscriptionStore interface {
	List(ctx context.Context) ([]domain.Subscription, error)
	ReplaceAll(ctx context.Context, subs []domain.Subscription) error
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
}

// SettingsStore loads the current notification settings snapshot.
type SettingsStore interface {
	Load(ctx context.Context) (domain.NotificationSettings, error)
}

// Dispatcher fans a rendered message out to the enabled channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, title, body string, cfg domain.NotificationSettings) []notifications.Result
}

// PassSummary describes what one check pass did.
type PassSummary struct {
	Evaluated  int                    `json:"evaluated"`
	RolledOver bool                   `json:"rolled_over"`
	Due        int                    `json:"due"`
	Results    []notifications.Result `json:"results"`
}

// Checker runs complete check passes: load, evaluate, persist
// rollovers, render and dispatch. Passes are serialized so a manual
// trigger can never overlap the scheduled one.
type Checker struct {
	store               SubscriptionStore
	settings            SettingsStore
	renderer            *notifications.Renderer
	dispatcher          Dispatcher
	defaultReminderDays int

	now func() time.Time

	mu sync.Mutex
}

// NewChecker creates a checker. A non-positive defaultReminderDays
// falls back to DefaultReminderDays.
func NewChecker(store SubscriptionStore, settings SettingsStore, renderer *notifications.Renderer, dispatcher Dispatcher, defaultReminderDays int) *Checker {
	if defaultReminderDays <= 0 {
		defaultReminderDays = DefaultReminderDays
	}
	return &Checker{
		store:               store,
		settings:            settings,
		renderer:            renderer,
		dispatcher:          dispatcher,
		defaultReminderDays: defaultReminderDays,
		now:                 time.Now,
	}
}

// RunPass executes one evaluation pass. Storage failures abort the
// whole pass before anything is dispatched; channel failures are
// reported in the summary but never fail the pass.
func (c *Checker) RunPass(ctx context.Context) (*PassSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	slog.Info("check pass started", "now", now)

	subs, err := c.store.List(ctx)
	if err != nil {
		recordPass("error")
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	settings, err := c.settings.Load(ctx)
	if err != nil {
		recordPass("error")
		return nil, fmt.Errorf("load notification settings: %w", err)
	}

	result := Evaluate(subs, now, c.defaultReminderDays)

	if result.Updated != nil {
		if err := c.store.ReplaceAll(ctx, result.Updated); err != nil {
			recordPass("error")
			return nil, fmt.Errorf("persist rolled-over subscriptions: %w", err)
		}
		recordRollovers()
		slog.Info("rolled-over subscriptions persisted", "total", len(result.Updated))
	}

	summary := &PassSummary{
		Evaluated:  len(subs),
		RolledOver: result.Updated != nil,
		Due:        len(result.Due),
	}

	if len(result.Due) == 0 {
		slog.Info("check pass completed, nothing due")
		recordPass("ok")
		return summary, nil
	}

	recordDueTargets(len(result.Due))

	title, body := c.renderer.RenderDigest(targetsToEntries(result.Due), settings.ShowLunar)
	summary.Results = c.dispatcher.Dispatch(ctx, title, body, settings)

	for _, r := range summary.Results {
		if r.Success {
			slog.Info("notification delivered", "channel", r.Channel)
		} else {
			slog.Warn("notification failed", "channel", r.Channel, "message", r.Message)
		}
	}

	recordPass("ok")
	slog.Info("check pass completed", "due", summary.Due, "channels", len(summary.Results))
	return summary, nil
}

// TestSubscription renders the manual-test message for one
// subscription and dispatches it to every enabled channel.
func (c *Checker) TestSubscription(ctx context.Context, id string) ([]notifications.Result, error) {
	sub, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	settings, err := c.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notification settings: %w", err)
	}

	title, body := c.renderer.RenderTest(*sub, settings.ShowLunar)
	return c.dispatcher.Dispatch(ctx, title, body, settings), nil
}

// Notify relays an arbitrary message through every enabled channel,
// for callers integrating with the relay endpoint.
func (c *Checker) Notify(ctx context.Context, title, content string) ([]notifications.Result, error) {
	settings, err := c.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notification settings: %w", err)
	}
	return c.dispatcher.Dispatch(ctx, title, content, settings), nil
}

func targetsToEntries(targets []Target) []notifications.Entry {
	entries := make([]notifications.Entry, len(targets))
	for i, t := range targets {
		entries[i] = notifications.Entry{
			Name:       t.Subscription.Name,
			Category:   t.Subscription.Category,
			Period:     t.Subscription.Period,
			ExpiryDate: t.Subscription.ExpiryDate,
			DaysLeft:   t.DaysLeft,
			Notes:      t.Subscription.Notes,
		}
	}
	return entries
}
