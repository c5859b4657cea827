package days

import (
	"context"
	"time"

	"github.com/thallesv/habitflow/internal/server/models"
)

// Days are keyed per user and calendar date; the same date belongs to as
// many Day rows as there are users touching it.
type Repository interface {
	FindByDate(ctx context.Context, userID string, date time.Time) (*models.Day, error)
	Create(ctx context.Context, userID string, date time.Time) (*models.Day, error)
	UpdateCompleted(ctx context.Context, dayID string, completed bool) error
}
