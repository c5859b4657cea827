package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/thallesv/habitflow/internal/dbx"
	"github.com/thallesv/habitflow/internal/server/migrations"
	"github.com/thallesv/habitflow/internal/server/repositories/completions"
	"github.com/thallesv/habitflow/internal/server/repositories/days"
	"github.com/thallesv/habitflow/internal/server/repositories/habits"
	"github.com/thallesv/habitflow/internal/server/repositories/users"
)

// gooseUpContext is a seam for tests.
var gooseUpContext = goose.UpContext

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Habits(db dbx.DBTX) habits.Repository {
	return habits.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Days(db dbx.DBTX) days.Repository {
	return days.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Completions(db dbx.DBTX) completions.Repository {
	return completions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
