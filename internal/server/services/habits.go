// Package services implements the business flows of the HabitFlow server.
// Services own the transaction boundary: repositories are rebound to the
// transactional handle for every unit of work that mutates state.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thallesv/habitflow/internal/common"
	"github.com/thallesv/habitflow/internal/dbx"
	"github.com/thallesv/habitflow/internal/logging"
	"github.com/thallesv/habitflow/internal/server/models"
	"github.com/thallesv/habitflow/internal/server/repositories/days"
	"github.com/thallesv/habitflow/internal/server/repositories/repomanager"
	"github.com/thallesv/habitflow/internal/server/schedule"
)

// HabitInput is the boundary shape of a habit create/update request.
// Exactly one of WeekDays / MonthlyDay / SpecificDate must be set.
type HabitInput struct {
	Title        string
	WeekDays     []int
	MonthlyDay   int
	SpecificDate *time.Time
	TimeStart    string
	TimeEnd      string
}

// MarkAsCompleted asks BatchCreate to mark a subset of the just-created
// habits complete on one date, referencing them by input position.
type MarkAsCompleted struct {
	Date         *time.Time
	HabitIndexes []int
}

// BatchResult is what BatchCreate returns: the created habits in input
// order, the ids actually marked complete in this call, and the final
// completion flag of the touched day (false when no day was touched).
type BatchResult struct {
	CreatedHabits     []*models.Habit
	CompletedHabitIDs []string
	DayCompleted      bool
}

// DayOverview lists the habits due on a date alongside the ids already
// completed on it.
type DayOverview struct {
	PossibleHabits    []*models.Habit
	CompletedHabitIDs []string
}

type HabitService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
	now    func() time.Time
}

func NewHabitService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *HabitService {
	return &HabitService{
		db:     db,
		rm:     rm,
		logger: logger.With("module", "habit_service"),
		now:    time.Now,
	}
}

// Create validates the input, applies the start-time deferral policy once
// against the current wall clock, and persists the habit with its weekday
// set in one transaction.
func (s *HabitService) Create(ctx context.Context, userID string, in HabitInput) (*models.Habit, error) {

	h, err := s.buildHabit(userID, in)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.rm.Habits(tx).Create(ctx, h)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating habit: %w", err)
	}

	return h, nil
}

// Update replaces the habit's title, times, and recurrence. The creation
// date is untouched: deferral is a creation-time policy only.
func (s *HabitService) Update(ctx context.Context, userID, habitID string, in HabitInput) (*models.Habit, error) {

	if in.Title == "" {
		return nil, fmt.Errorf("%w: missing title", common.ErrorValidation)
	}
	rec, err := models.NewRecurrence(in.WeekDays, in.MonthlyDay, in.SpecificDate)
	if err != nil {
		return nil, err
	}

	var updated *models.Habit

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Habits(tx)

		h, err := repo.Get(ctx, habitID)
		if err != nil {
			return err
		}
		if h.UserID != userID {
			return common.ErrorNotFound
		}

		h.Title = in.Title
		h.TimeStart = in.TimeStart
		h.TimeEnd = in.TimeEnd
		h.Recurrence = rec

		if err := repo.Update(ctx, h); err != nil {
			return err
		}
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *HabitService) Delete(ctx context.Context, userID, habitID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Habits(tx)

		h, err := repo.Get(ctx, habitID)
		if err != nil {
			return err
		}
		if h.UserID != userID {
			return common.ErrorNotFound
		}

		return repo.Delete(ctx, habitID)
	})
}

func (s *HabitService) List(ctx context.Context, userID string) ([]*models.Habit, error) {
	return s.rm.Habits(s.db).ListByUser(ctx, userID)
}

// Overview reports, for one date, which of the user's habits are due and
// which are already completed. Read-only, so no transaction is needed.
func (s *HabitService) Overview(ctx context.Context, userID string, date time.Time) (*DayOverview, error) {
	when := schedule.Normalize(date)

	all, err := s.rm.Habits(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ov := &DayOverview{}
	for _, h := range all {
		if schedule.IsDue(h, when) {
			ov.PossibleHabits = append(ov.PossibleHabits, h)
		}
	}

	day, err := s.rm.Days(s.db).FindByDate(ctx, userID, when)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ov, nil
		}
		return nil, err
	}

	if ov.CompletedHabitIDs, err = s.rm.Completions(s.db).ListHabitIDs(ctx, day.ID); err != nil {
		return nil, err
	}

	return ov, nil
}

// Toggle flips the completion record of one habit on one date and
// recomputes the day's completion flag, all inside a single serializable
// transaction. date defaults to today. Returns the new flag.
func (s *HabitService) Toggle(ctx context.Context, userID, habitID string, date *time.Time) (bool, error) {

	when := schedule.Normalize(s.now())
	if date != nil {
		when = schedule.Normalize(*date)
	}

	var completed bool

	err := dbx.WithSerializableTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		habitRepo := s.rm.Habits(tx)
		dayRepo := s.rm.Days(tx)
		completionRepo := s.rm.Completions(tx)

		h, err := habitRepo.Get(ctx, habitID)
		if err != nil {
			return err
		}
		if h.UserID != userID {
			return common.ErrorNotFound
		}

		day, err := s.getOrCreateDay(ctx, dayRepo, userID, when)
		if err != nil {
			return err
		}

		// pure flip: present record is removed, absent record is created
		rec, err := completionRepo.Find(ctx, day.ID, h.ID)
		switch {
		case err == nil:
			if err := completionRepo.Delete(ctx, rec.ID); err != nil {
				return err
			}
		case errors.Is(err, common.ErrorNotFound):
			if _, err := completionRepo.Create(ctx, day.ID, h.ID); err != nil {
				return err
			}
		default:
			return err
		}

		completed, err = s.recomputeDay(ctx, tx, userID, day, when)
		return err
	})
	if err != nil {
		return false, err
	}

	return completed, nil
}

// BatchCreate creates the given habits in input order and, optionally,
// marks a subset of them complete on one date. The whole call is
// all-or-nothing: the first invalid spec aborts everything and nothing is
// persisted. Indexes outside the created range are skipped; marking an
// already-marked habit is idempotent.
func (s *HabitService) BatchCreate(ctx context.Context, userID string, specs []HabitInput, mark *MarkAsCompleted) (*BatchResult, error) {

	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: habits array is required", common.ErrorValidation)
	}

	// fail fast: validate every spec before touching the store
	habitsToCreate := make([]*models.Habit, 0, len(specs))
	for i, in := range specs {
		h, err := s.buildHabit(userID, in)
		if err != nil {
			return nil, fmt.Errorf("invalid habit at index %d: %w", i, err)
		}
		habitsToCreate = append(habitsToCreate, h)
	}

	when := schedule.Normalize(s.now())
	if mark != nil && mark.Date != nil {
		when = schedule.Normalize(*mark.Date)
	}

	result := &BatchResult{}

	err := dbx.WithSerializableTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		// retried transactions restart from a clean slate
		result.CreatedHabits = result.CreatedHabits[:0]
		result.CompletedHabitIDs = result.CompletedHabitIDs[:0]
		result.DayCompleted = false

		habitRepo := s.rm.Habits(tx)

		for _, h := range habitsToCreate {
			created, err := habitRepo.Create(ctx, h)
			if err != nil {
				return err
			}
			result.CreatedHabits = append(result.CreatedHabits, created)
		}

		if mark == nil || len(mark.HabitIndexes) == 0 {
			return nil
		}

		dayRepo := s.rm.Days(tx)
		completionRepo := s.rm.Completions(tx)

		day, err := s.getOrCreateDay(ctx, dayRepo, userID, when)
		if err != nil {
			return err
		}

		for _, idx := range mark.HabitIndexes {
			if idx < 0 || idx >= len(result.CreatedHabits) {
				continue
			}
			h := result.CreatedHabits[idx]

			_, err := completionRepo.Find(ctx, day.ID, h.ID)
			switch {
			case err == nil:
				continue
			case errors.Is(err, common.ErrorNotFound):
				if _, err := completionRepo.Create(ctx, day.ID, h.ID); err != nil {
					return err
				}
				result.CompletedHabitIDs = append(result.CompletedHabitIDs, h.ID)
			default:
				return err
			}
		}

		result.DayCompleted, err = s.recomputeDay(ctx, tx, userID, day, when)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// recomputeDay recounts due and completed habits for the day and persists
// the derived flag. A completed count above the due count means corrupt
// data; it is surfaced, never clamped.
func (s *HabitService) recomputeDay(ctx context.Context, tx dbx.DBTX, userID string, day *models.Day, when time.Time) (bool, error) {
	due, err := s.rm.Habits(tx).CountDue(ctx, userID, when)
	if err != nil {
		return false, err
	}

	done, err := s.rm.Completions(tx).CountForDay(ctx, day.ID)
	if err != nil {
		return false, err
	}

	if done > due {
		// corrupt or unscoped data; the flag still computes to false,
		// the anomaly is reported rather than clamped away
		s.logger.Error(ctx, common.ErrorInvariant.Error(),
			"day_id", day.ID, "date", when.Format("2006-01-02"), "due", due, "completed", done)
	}

	completed := schedule.DayCompleted(due, done)

	if err := s.rm.Days(tx).UpdateCompleted(ctx, day.ID, completed); err != nil {
		return false, err
	}

	return completed, nil
}

func (s *HabitService) getOrCreateDay(ctx context.Context, repo days.Repository, userID string, when time.Time) (*models.Day, error) {
	day, err := repo.FindByDate(ctx, userID, when)
	if err == nil {
		return day, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	return repo.Create(ctx, userID, when)
}

func (s *HabitService) buildHabit(userID string, in HabitInput) (*models.Habit, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: missing title", common.ErrorValidation)
	}

	rec, err := models.NewRecurrence(in.WeekDays, in.MonthlyDay, in.SpecificDate)
	if err != nil {
		return nil, err
	}

	return &models.Habit{
		UserID:     userID,
		Title:      in.Title,
		CreatedAt:  schedule.DeferredStart(s.now(), in.TimeStart, rec.Kind == models.RecurrenceSpecific),
		TimeStart:  in.TimeStart,
		TimeEnd:    in.TimeEnd,
		Recurrence: rec,
	}, nil
}
