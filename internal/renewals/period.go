// Package renewals implements the expiry evaluation engine: period
// arithmetic, the reminder-window policy and the per-pass evaluator that
// decides which subscriptions roll over and which need a notification.
package renewals

import (
	"fmt"
	"time"

	"github.com/subgarden/subgarden/internal/domain"
)

// Advance adds value calendar units to date. Month and year addition
// follow the standard calendar overflow rules, so Jan 31 + 1 month
// normalizes into March.
func Advance(date time.Time, value int, unit domain.PeriodUnit) time.Time {
	switch unit {
	case domain.PeriodUnitDay:
		return date.AddDate(0, 0, value)
	case domain.PeriodUnitMonth:
		return date.AddDate(0, value, 0)
	case domain.PeriodUnitYear:
		return date.AddDate(value, 0, 0)
	}
	return date
}

// RollForward advances date by whole periods until it is no longer
// strictly before now. A date already at or past now is returned
// unchanged. Value must be positive, otherwise the loop could never
// terminate, so it is rejected up front.
func RollForward(date time.Time, value int, unit domain.PeriodUnit, now time.Time) (time.Time, error) {
	if value < 1 {
		return time.Time{}, fmt.Errorf("period value must be positive, got %d", value)
	}
	if !unit.Valid() {
		return time.Time{}, fmt.Errorf("unknown period unit %q", unit)
	}

	next := date
	for next.Before(now) {
		next = Advance(next, value, unit)
	}
	return next, nil
}
