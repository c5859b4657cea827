package completions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Find(ctx context.Context, dayID, habitID string) (*models.Completion, error) {
	query :=
		`SELECT id, day_id, habit_id FROM day_habits
		 WHERE day_id = $1 AND habit_id = $2
		 `

	c := &models.Completion{}
	err := r.db.QueryRowContext(ctx, query, dayID, habitID).Scan(&c.ID, &c.DayID, &c.HabitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, dayID, habitID string) (*models.Completion, error) {
	query :=
		`INSERT INTO day_habits (id, day_id, habit_id)
		 VALUES ($1, $2, $3)
		 `

	c := &models.Completion{ID: uuid.NewString(), DayID: dayID, HabitID: habitID}
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.DayID, c.HabitID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM day_habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) CountForDay(ctx context.Context, dayID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM day_habits WHERE day_id = $1`, dayID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListHabitIDs(ctx context.Context, dayID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT habit_id FROM day_habits WHERE day_id = $1`, dayID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}
