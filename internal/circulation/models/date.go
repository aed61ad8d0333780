package models

import "time"

// DateLayout is how calendar dates are exchanged with callers.
const DateLayout = "2006-01-02"

// CalendarDate truncates t to midnight UTC of the calendar day t falls on in
// its own location. Due dates are stored and compared in this form.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
