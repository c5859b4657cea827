// Package schedule holds the pure recurrence and day-completion rules.
// Every function here is deterministic and side-effect free so the same
// logic serves the toggle and batch transactions as well as read-only
// reporting.
package schedule

import (
	"time"

	"github.com/thallesv/habitflow/internal/server/models"
)

// Normalize truncates t to midnight in its own location, yielding the
// canonical calendar-day value used everywhere in this package.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsDue reports whether the habit is due on the given date. The date is
// normalized internally; dates before the habit's creation date are never
// due. A monthly rule matches the exact day of month only; day 31 is never
// due in shorter months, there is no clamping.
func IsDue(h *models.Habit, date time.Time) bool {
	day := Normalize(date)

	if day.Before(Normalize(h.CreatedAt)) {
		return false
	}

	switch h.Recurrence.Kind {
	case models.RecurrenceWeekly:
		wd := int(day.Weekday())
		for _, d := range h.Recurrence.WeekDays {
			if d == wd {
				return true
			}
		}
		return false
	case models.RecurrenceMonthly:
		return day.Day() == h.Recurrence.MonthlyDay
	case models.RecurrenceSpecific:
		return day.Equal(Normalize(h.Recurrence.SpecificDate))
	default:
		return false
	}
}

// DayCompleted derives a day's completion flag: every due habit completed,
// and at least one habit due. A day with nothing due is never completed,
// and done > due (corrupt data) also yields false; the caller is expected
// to surface that anomaly rather than clamp it.
func DayCompleted(due, done int) bool {
	return due > 0 && done == due
}

// DeferredStart resolves a new habit's effective creation date. A recurring
// habit whose daily start time has already passed at creation time starts
// tomorrow instead of today; specific-date habits and habits without a
// start time always start today. timeStart is an "HH:MM" string; malformed
// values are treated as absent. Evaluated once, at creation.
func DeferredStart(now time.Time, timeStart string, specific bool) time.Time {
	today := Normalize(now)

	if specific || timeStart == "" {
		return today
	}

	startToday, err := time.ParseInLocation("15:04", timeStart, now.Location())
	if err != nil {
		return today
	}
	startToday = time.Date(now.Year(), now.Month(), now.Day(),
		startToday.Hour(), startToday.Minute(), 0, 0, now.Location())

	if now.After(startToday) {
		return today.AddDate(0, 0, 1)
	}
	return today
}
