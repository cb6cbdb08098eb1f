package notifications

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/subgarden/subgarden/internal/domain"
)

// DigestTitle is the title of the periodic reminder digest.
const DigestTitle = "Subscription Expiry Reminder"

const defaultCategory = "other"

// CalendarLabelFunc supplies an extra calendar label (e.g. a lunar date)
// for an expiry date. It may return "" when no label applies.
type CalendarLabelFunc func(t time.Time) string

// Entry is one due subscription as seen by the renderer. Entries are
// rendered in the order given; callers sort most urgent first.
type Entry struct {
	Name       string
	Category   string
	Period     *domain.Period
	ExpiryDate time.Time
	DaysLeft   int
	Notes      string
}

// Renderer builds the human-readable reminder messages.
type Renderer struct {
	calendarLabel CalendarLabelFunc
}

// NewRenderer creates a renderer. The label hook may be nil, in which
// case calendar labels are never added.
func NewRenderer(label CalendarLabelFunc) *Renderer {
	return &Renderer{calendarLabel: label}
}

// RenderDigest turns the due entries into one title and one
// multi-paragraph markdown body, one paragraph per entry.
func (r *Renderer) RenderDigest(entries []Entry, withCalendar bool) (title, body string) {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.renderEntry(e, withCalendar))
	}
	return DigestTitle, b.String()
}

func (r *Renderer) renderEntry(e Entry, withCalendar bool) string {
	var b strings.Builder

	b.WriteString(urgencyGlyph(e.DaysLeft))
	b.WriteString(" **")
	b.WriteString(e.Name)
	b.WriteString("** (")
	b.WriteString(categoryLabel(e.Category))
	b.WriteString(")")

	if e.Period != nil {
		fmt.Fprintf(&b, " (period: %s)", formatPeriod(*e.Period))
	}

	b.WriteString(" ")
	b.WriteString(statusText(e.DaysLeft))
	b.WriteString(r.calendarSuffix(e.ExpiryDate, withCalendar))

	if e.Notes != "" {
		b.WriteString("\n   Notes: ")
		b.WriteString(e.Notes)
	}
	return b.String()
}

// RenderTest builds the one-off manual-test message for a single
// subscription.
func (r *Renderer) RenderTest(sub domain.Subscription, withCalendar bool) (title, body string) {
	title = fmt.Sprintf("Manual test notification: %s", sub.Name)

	notes := sub.Notes
	if notes == "" {
		notes = "none"
	}

	body = fmt.Sprintf(
		"**Subscription details**:\n- **Category**: %s\n- **Expires**: %s%s\n- **Notes**: %s",
		categoryLabel(sub.Category),
		sub.ExpiryDate.Format("Jan 2, 2006"),
		r.calendarSuffix(sub.ExpiryDate, withCalendar),
		notes,
	)
	return title, body
}

func (r *Renderer) calendarSuffix(t time.Time, enabled bool) string {
	if !enabled || r.calendarLabel == nil {
		return ""
	}
	label := r.calendarLabel(t)
	if label == "" {
		return ""
	}
	return fmt.Sprintf(" (lunar: %s)", label)
}

var titleCaser = cases.Title(language.English)

func categoryLabel(category string) string {
	if category == "" {
		category = defaultCategory
	}
	return titleCaser.String(category)
}

// urgencyGlyph picks the marker for a paragraph: due today, overdue or
// upcoming.
func urgencyGlyph(daysLeft int) string {
	switch {
	case daysLeft == 0:
		return "⚠️"
	case daysLeft < 0:
		return "🚨"
	default:
		return "📅"
	}
}

// statusText resolves purely on the sign of the day count.
func statusText(daysLeft int) string {
	switch {
	case daysLeft == 0:
		return "expires today!"
	case daysLeft < 0:
		return fmt.Sprintf("overdue by %d days", -daysLeft)
	default:
		return fmt.Sprintf("expires in %d days", daysLeft)
	}
}

func formatPeriod(p domain.Period) string {
	unit := string(p.Unit)
	if p.Value != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", p.Value, unit)
}
