package habits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thallesv/habitflow/internal/common"
	"github.com/thallesv/habitflow/internal/dbx"
	"github.com/thallesv/habitflow/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, h *models.Habit) (*models.Habit, error) {

	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO habits (id, user_id, title, created_at, time_start, time_end, monthly_day, specific_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.UserID, h.Title, h.CreatedAt,
		nullString(h.TimeStart), nullString(h.TimeEnd),
		monthlyDayOf(h), specificDateOf(h))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.insertWeekDays(ctx, h); err != nil {
		return nil, err
	}

	return h, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Habit, error) {
	query :=
		`SELECT id, user_id, title, created_at, time_start, time_end, monthly_day, specific_date
		 FROM habits
		 WHERE id = $1
		 `

	h, err := r.scanHabit(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if h.Recurrence.Kind == models.RecurrenceWeekly {
		if h.Recurrence.WeekDays, err = r.selectWeekDays(ctx, h.ID); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func (r *PostgresRepository) Update(ctx context.Context, h *models.Habit) error {
	query :=
		`UPDATE habits
		 SET title = $2, time_start = $3, time_end = $4, monthly_day = $5, specific_date = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		h.ID, h.Title,
		nullString(h.TimeStart), nullString(h.TimeEnd),
		monthlyDayOf(h), specificDateOf(h))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	// recurrence replacement: drop the old weekday set, insert the new one
	if _, err := r.db.ExecContext(ctx, `DELETE FROM habit_week_days WHERE habit_id = $1`, h.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return r.insertWeekDays(ctx, h)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Habit, error) {
	query :=
		`SELECT id, user_id, title, created_at, time_start, time_end, monthly_day, specific_date
		 FROM habits
		 WHERE user_id = $1
		 ORDER BY created_at, title
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Habit
	for rows.Next() {
		h, err := r.scanHabit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, h := range result {
		if h.Recurrence.Kind == models.RecurrenceWeekly {
			if h.Recurrence.WeekDays, err = r.selectWeekDays(ctx, h.ID); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func (r *PostgresRepository) CountDue(ctx context.Context, userID string, date time.Time) (int, error) {
	query :=
		`SELECT COUNT(*) FROM habits h
		 WHERE h.user_id = $1
		   AND h.created_at <= $2
		   AND (h.monthly_day = $3
			 OR h.specific_date = $2
			 OR EXISTS (SELECT 1 FROM habit_week_days w WHERE w.habit_id = h.id AND w.week_day = $4))
		 `

	var n int
	err := r.db.QueryRowContext(ctx, query, userID, date, date.Day(), int(date.Weekday())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanHabit(row rowScanner) (*models.Habit, error) {
	h := &models.Habit{}
	var timeStart, timeEnd sql.NullString
	var monthlyDay sql.NullInt64
	var specificDate sql.NullTime

	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.CreatedAt, &timeStart, &timeEnd, &monthlyDay, &specificDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	h.TimeStart = timeStart.String
	h.TimeEnd = timeEnd.String

	switch {
	case monthlyDay.Valid:
		h.Recurrence = models.Recurrence{Kind: models.RecurrenceMonthly, MonthlyDay: int(monthlyDay.Int64)}
	case specificDate.Valid:
		h.Recurrence = models.NewSpecific(specificDate.Time)
	default:
		h.Recurrence = models.Recurrence{Kind: models.RecurrenceWeekly}
	}

	return h, nil
}

func (r *PostgresRepository) selectWeekDays(ctx context.Context, habitID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT week_day FROM habit_week_days WHERE habit_id = $1 ORDER BY week_day`, habitID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var days []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return days, nil
}

func (r *PostgresRepository) insertWeekDays(ctx context.Context, h *models.Habit) error {
	if h.Recurrence.Kind != models.RecurrenceWeekly {
		return nil
	}
	for _, d := range h.Recurrence.WeekDays {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO habit_week_days (id, habit_id, week_day) VALUES ($1, $2, $3)`,
			uuid.NewString(), h.ID, d)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func monthlyDayOf(h *models.Habit) sql.NullInt64 {
	if h.Recurrence.Kind == models.RecurrenceMonthly {
		return sql.NullInt64{Int64: int64(h.Recurrence.MonthlyDay), Valid: true}
	}
	return sql.NullInt64{}
}

func specificDateOf(h *models.Habit) sql.NullTime {
	if h.Recurrence.Kind == models.RecurrenceSpecific {
		return sql.NullTime{Time: h.Recurrence.SpecificDate, Valid: true}
	}
	return sql.NullTime{}
}
