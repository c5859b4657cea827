// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"time"

	"github.com/thallesv/habitflow/internal/common"
)

// RecurrenceKind discriminates the recurrence variants of a habit.
type RecurrenceKind int

const (
	// RecurrenceWeekly repeats on a fixed set of weekdays (0=Sunday..6=Saturday).
	RecurrenceWeekly RecurrenceKind = iota
	// RecurrenceMonthly repeats on a fixed day of month (1..31). Months
	// shorter than the configured day simply never match.
	RecurrenceMonthly
	// RecurrenceSpecific is due on exactly one calendar day ever.
	RecurrenceSpecific
)

// Recurrence is the tagged due-date rule of a habit. Exactly one variant is
// populated, selected by Kind; use the New* constructors or NewRecurrence.
type Recurrence struct {
	Kind         RecurrenceKind
	WeekDays     []int     // RecurrenceWeekly
	MonthlyDay   int       // RecurrenceMonthly
	SpecificDate time.Time // RecurrenceSpecific, normalized to midnight
}

func NewWeekly(weekDays []int) (Recurrence, error) {
	if len(weekDays) == 0 {
		return Recurrence{}, fmt.Errorf("%w: empty weekday set", common.ErrorValidation)
	}
	seen := make(map[int]struct{}, len(weekDays))
	days := make([]int, 0, len(weekDays))
	for _, d := range weekDays {
		if d < 0 || d > 6 {
			return Recurrence{}, fmt.Errorf("%w: weekday %d out of range", common.ErrorValidation, d)
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	return Recurrence{Kind: RecurrenceWeekly, WeekDays: days}, nil
}

func NewMonthly(day int) (Recurrence, error) {
	if day < 1 || day > 31 {
		return Recurrence{}, fmt.Errorf("%w: monthly day %d out of range", common.ErrorValidation, day)
	}
	return Recurrence{Kind: RecurrenceMonthly, MonthlyDay: day}, nil
}

func NewSpecific(date time.Time) Recurrence {
	return Recurrence{Kind: RecurrenceSpecific, SpecificDate: midnight(date)}
}

// NewRecurrence builds the tagged variant from the optional request fields.
// Exactly one source must be supplied: a non-empty weekday set, a monthly
// day, or a specific date. Zero or multiple sources fail validation.
func NewRecurrence(weekDays []int, monthlyDay int, specificDate *time.Time) (Recurrence, error) {
	supplied := 0
	if len(weekDays) > 0 {
		supplied++
	}
	if monthlyDay != 0 {
		supplied++
	}
	if specificDate != nil {
		supplied++
	}
	if supplied == 0 {
		return Recurrence{}, fmt.Errorf("%w: missing frequency configuration", common.ErrorValidation)
	}
	if supplied > 1 {
		return Recurrence{}, fmt.Errorf("%w: multiple frequency configurations supplied", common.ErrorValidation)
	}

	switch {
	case len(weekDays) > 0:
		return NewWeekly(weekDays)
	case monthlyDay != 0:
		return NewMonthly(monthlyDay)
	default:
		return NewSpecific(*specificDate), nil
	}
}

// Habit is a recurring or one-off task owned by a user. CreatedAt is a
// calendar date (midnight) and is the earliest date the habit can be due.
// TimeStart/TimeEnd are informational "HH:MM" strings; the engine only reads
// TimeStart once, at creation time, for the deferral policy.
type Habit struct {
	ID         string
	UserID     string
	Title      string
	CreatedAt  time.Time
	TimeStart  string
	TimeEnd    string
	Recurrence Recurrence
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
