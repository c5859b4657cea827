package days

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

func (r *PostgresRepository) FindByDate(ctx context.Context, userID string, date time.Time) (*models.Day, error) {
	query :=
		`SELECT id, user_id, date, completed FROM days
		 WHERE user_id = $1 AND date = $2
		 `

	day := &models.Day{}
	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(&day.ID, &day.UserID, &day.Date, &day.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return day, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, date time.Time) (*models.Day, error) {
	query :=
		`INSERT INTO days (id, user_id, date, completed)
		 VALUES ($1, $2, $3, false)
		 `

	day := &models.Day{ID: uuid.NewString(), UserID: userID, Date: date}
	if _, err := r.db.ExecContext(ctx, query, day.ID, day.UserID, day.Date); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return day, nil
}

func (r *PostgresRepository) UpdateCompleted(ctx context.Context, dayID string, completed bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE days SET completed = $2 WHERE id = $1`, dayID, completed)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
