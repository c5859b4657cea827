package habits

import (
	"context"
	"time"

	"github.com/thallesv/habitflow/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, h *models.Habit) (*models.Habit, error)
	Get(ctx context.Context, id string) (*models.Habit, error)
	Update(ctx context.Context, h *models.Habit) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Habit, error)
	// CountDue counts the user's habits due on the given date: created on or
	// before it, and matching it by weekday set, monthly day, or specific
	// date. The date must be normalized to midnight.
	CountDue(ctx context.Context, userID string, date time.Time) (int, error)
}
