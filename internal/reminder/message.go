package reminder

import (
	"fmt"
	"time"
)

// Payload is what a reminder needs to render and deliver its message.
type Payload struct {
	Phone          string
	Doctor         string
	Specialization string
	Date           string
	Time           string
}

func RenderConfirmation(p Payload, loc *time.Location) string {
	return fmt.Sprintf(
		"Your appointment with %s (%s) has been confirmed for %s. Thank you for choosing our hospital.",
		p.Doctor, p.Specialization, formatWhen(p.Date, p.Time, loc),
	)
}

func RenderReminder(p Payload, loc *time.Location) string {
	return fmt.Sprintf(
		"Reminder: You have an appointment with Dr. %s (%s) on %s. Please arrive 15 minutes early.",
		p.Doctor, p.Specialization, formatWhen(p.Date, p.Time, loc),
	)
}

func RenderRescheduled(p Payload, loc *time.Location) string {
	return fmt.Sprintf(
		"Your appointment with %s (%s) has been moved to %s.",
		p.Doctor, p.Specialization, formatWhen(p.Date, p.Time, loc),
	)
}

// formatWhen renders "Wednesday, January 1, 2025 at 02:00 PM"; the raw date
// is used when it cannot be parsed.
func formatWhen(date, clock string, loc *time.Location) string {
	day, err := ParseDate(date, loc)
	if err != nil {
		return fmt.Sprintf("%s at %s", date, clock)
	}
	return fmt.Sprintf("%s at %s", day.Format("Monday, January 2, 2006"), clock)
}
