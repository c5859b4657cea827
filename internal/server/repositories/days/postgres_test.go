package days

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/thallesv/habitflow/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestFindByDate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, user_id, date, completed FROM days\s+WHERE user_id = \$1 AND date = \$2`).
		WithArgs("u1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "date", "completed"}).
			AddRow("d1", "u1", date, true))

	got, err := repo.FindByDate(context.Background(), "u1", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "d1" || !got.Completed {
		t.Fatalf("unexpected day: %+v", got)
	}
}

func TestFindByDate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM days`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByDate(context.Background(), "u1", time.Now())
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO days \(id, user_id, date, completed\)\s+VALUES \(\$1, \$2, \$3, false\)`).
		WithArgs(sqlmock.AnyArg(), "u1", date).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), "u1", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" || got.Completed {
		t.Fatalf("unexpected day: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO days`).
		WillReturnError(errors.New("db is down"))

	_, err := repo.Create(context.Background(), "u1", time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateCompleted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE days SET completed = \$2 WHERE id = \$1`).
		WithArgs("d1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateCompleted(context.Background(), "d1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateCompleted_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE days SET completed = \$2 WHERE id = \$1`).
		WithArgs("missing", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCompleted(context.Background(), "missing", false)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
