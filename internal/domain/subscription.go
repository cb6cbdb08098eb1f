package domain

import "time"

// PeriodUnit is the calendar unit of a renewal period.
type PeriodUnit string

const (
	PeriodUnitDay   PeriodUnit = "day"
	PeriodUnitMonth PeriodUnit = "month"
	PeriodUnitYear  PeriodUnit = "year"
)

// Valid reports whether the unit is one of the known calendar units.
func (u PeriodUnit) Valid() bool {
	switch u {
	case PeriodUnitDay, PeriodUnitMonth, PeriodUnitYear:
		return true
	}
	return false
}

// Period is a renewal cycle length, e.g. {1, month}.
type Period struct {
	Value int        `json:"value"`
	Unit  PeriodUnit `json:"unit"`
}

// Subscription is a recurring service with an expiry date.
// A subscription without a Period never renews automatically.
type Subscription struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	ExpiryDate   time.Time  `json:"expiry_date"`
	Period       *Period    `json:"period,omitempty"`
	ReminderDays *int       `json:"reminder_days,omitempty"` // nil means "use the service default"
	Notes        string     `json:"notes,omitempty"`
	IsActive     bool       `json:"is_active"`
	AutoRenew    bool       `json:"auto_renew"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
