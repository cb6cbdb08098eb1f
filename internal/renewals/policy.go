package renewals

// DefaultReminderDays is used for subscriptions that do not set their
// own reminder window.
const DefaultReminderDays = 7

// IsDue reports whether a reminder should fire for the given window
// size and signed day count to expiry. A zero window means "remind only
// on the exact expiry day".
func IsDue(reminderDays, daysToExpiry int) bool {
	if reminderDays == 0 {
		return daysToExpiry == 0
	}
	return daysToExpiry >= 0 && daysToExpiry <= reminderDays
}
