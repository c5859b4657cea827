package completions

import (
	"context"

	"github.com/thallesv/habitflow/internal/server/models"
)

type Repository interface {
	Find(ctx context.Context, dayID, habitID string) (*models.Completion, error)
	Create(ctx context.Context, dayID, habitID string) (*models.Completion, error)
	Delete(ctx context.Context, id string) error
	// CountForDay counts the completion records of one day. Days are
	// per-user, so no additional user filter is needed.
	CountForDay(ctx context.Context, dayID string) (int, error)
	ListHabitIDs(ctx context.Context, dayID string) ([]string, error)
}
