package models

import "time"

// Day aggregates completion state for one user on one calendar date.
// Completed is derived from the due/completed counts and is recomputed on
// every completion mutation, never toggled directly.
type Day struct {
	ID        string
	UserID    string
	Date      time.Time
	Completed bool
}

// Completion records that a habit was marked done on a day. The
// (DayID, HabitID) pair is unique; rows are created and deleted, never
// updated in place.
type Completion struct {
	ID      string
	DayID   string
	HabitID string
}
