// Package repomanager binds the per-entity repositories to a database
// handle. Because every repository works against dbx.DBTX, the same manager
// serves both plain connections and open transactions: a service passes the
// tx handle it received from dbx.WithTx and gets repositories scoped to it.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/thallesv/habitflow/internal/dbx"
	"github.com/thallesv/habitflow/internal/server/repositories/completions"
	"github.com/thallesv/habitflow/internal/server/repositories/days"
	"github.com/thallesv/habitflow/internal/server/repositories/habits"
	"github.com/thallesv/habitflow/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Habits(db dbx.DBTX) habits.Repository
	Days(db dbx.DBTX) days.Repository
	Completions(db dbx.DBTX) completions.Repository
}
