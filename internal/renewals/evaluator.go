package renewals

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
)

// DaysUntil returns the signed whole-day count from now to expiry.
// Fractional days round up: any partial remaining time counts as one
// more day until the boundary is actually crossed.
func DaysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// Target is one subscription due for notification in the current pass,
// snapshotted together with its day count at evaluation time.
type Target struct {
	Subscription domain.Subscription
	DaysLeft     int
}

// Result is the outcome of one evaluation pass.
type Result struct {
	// Updated holds the full subscription set when at least one
	// subscription rolled over, for the store to persist as a single
	// whole-collection replacement. Nil when nothing changed.
	Updated []domain.Subscription

	// Due lists notification targets sorted ascending by DaysLeft,
	// most urgent first.
	Due []Target
}

// Evaluate walks the subscription set once. Expired subscriptions with
// a period and auto-renew roll forward to their next cycle; expired
// ones without auto-renew are enqueued on every pass; everything else
// is enqueued only while inside its reminder window. Inactive
// subscriptions are skipped entirely.
func Evaluate(subs []domain.Subscription, now time.Time, defaultReminderDays int) Result {
	out := make([]domain.Subscription, len(subs))
	copy(out, subs)

	var due []Target
	changed := false

	for i := range out {
		sub := &out[i]
		if !sub.IsActive {
			slog.Debug("subscription inactive, skipping", "id", sub.ID, "name", sub.Name)
			continue
		}

		days := DaysUntil(sub.ExpiryDate, now)
		reminderDays := defaultReminderDays
		if sub.ReminderDays != nil {
			reminderDays = *sub.ReminderDays
		}

		switch {
		case days < 0 && sub.Period != nil && sub.AutoRenew:
			next, err := RollForward(sub.ExpiryDate, sub.Period.Value, sub.Period.Unit, now)
			if err != nil {
				slog.Warn("cannot roll subscription forward, leaving unchanged",
					"id", sub.ID,
					"name", sub.Name,
					"error", err,
				)
				continue
			}

			slog.Info("subscription rolled over",
				"id", sub.ID,
				"name", sub.Name,
				"old_expiry", sub.ExpiryDate,
				"new_expiry", next,
			)

			sub.ExpiryDate = next
			sub.UpdatedAt = now
			changed = true

			// Re-check the window against the new expiry so a
			// subscription that rolls over into its own reminder
			// window still notifies on this pass.
			if newDays := DaysUntil(next, now); IsDue(reminderDays, newDays) {
				due = append(due, Target{Subscription: *sub, DaysLeft: newDays})
			}

		case days < 0 && !sub.AutoRenew:
			// Expired without auto-renew: keep nagging on every pass.
			due = append(due, Target{Subscription: *sub, DaysLeft: days})

		case IsDue(reminderDays, days):
			due = append(due, Target{Subscription: *sub, DaysLeft: days})
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DaysLeft < due[j].DaysLeft
	})

	res := Result{Due: due}
	if changed {
		res.Updated = out
	}
	return res
}
