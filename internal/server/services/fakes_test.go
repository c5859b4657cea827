package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thallesv/habitflow/internal/common"
	"github.com/thallesv/habitflow/internal/dbx"
	"github.com/thallesv/habitflow/internal/server/models"
	completionsrepo "github.com/thallesv/habitflow/internal/server/repositories/completions"
	daysrepo "github.com/thallesv/habitflow/internal/server/repositories/days"
	habitsrepo "github.com/thallesv/habitflow/internal/server/repositories/habits"
	usersrepo "github.com/thallesv/habitflow/internal/server/repositories/users"
	"github.com/thallesv/habitflow/internal/server/schedule"
)

// fakeStore is a stateful in-memory stand-in for the Postgres repositories.
// Transaction begin/commit plumbing is exercised separately through sqlmock;
// the fakes just hold the rows.
type fakeStore struct {
	mu          sync.Mutex
	habits      map[string]*models.Habit
	days        map[string]*models.Day
	completions map[string]*models.Completion
	users       map[string]*models.User

	failCreateAfter int // >0: habit Create fails once n creates were done
	created         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		habits:      map[string]*models.Habit{},
		days:        map[string]*models.Day{},
		completions: map[string]*models.Completion{},
		users:       map[string]*models.User{},
	}
}

type fakeHabits struct{ s *fakeStore }

func (f *fakeHabits) Create(ctx context.Context, h *models.Habit) (*models.Habit, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failCreateAfter > 0 && f.s.created >= f.s.failCreateAfter {
		return nil, fmt.Errorf("db error: create refused")
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	cp := *h
	f.s.habits[h.ID] = &cp
	f.s.created++
	return h, nil
}

func (f *fakeHabits) Get(ctx context.Context, id string) (*models.Habit, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	h, ok := f.s.habits[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *fakeHabits) Update(ctx context.Context, h *models.Habit) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.habits[h.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *h
	f.s.habits[h.ID] = &cp
	return nil
}

func (f *fakeHabits) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.habits[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.habits, id)
	return nil
}

func (f *fakeHabits) ListByUser(ctx context.Context, userID string) ([]*models.Habit, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Habit
	for _, h := range f.s.habits {
		if h.UserID == userID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeHabits) CountDue(ctx context.Context, userID string, date time.Time) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := 0
	for _, h := range f.s.habits {
		if h.UserID == userID && schedule.IsDue(h, date) {
			n++
		}
	}
	return n, nil
}

type fakeDays struct{ s *fakeStore }

func (f *fakeDays) FindByDate(ctx context.Context, userID string, date time.Time) (*models.Day, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, d := range f.s.days {
		if d.UserID == userID && d.Date.Equal(date) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeDays) Create(ctx context.Context, userID string, date time.Time) (*models.Day, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d := &models.Day{ID: uuid.NewString(), UserID: userID, Date: date}
	f.s.days[d.ID] = d
	cp := *d
	return &cp, nil
}

func (f *fakeDays) UpdateCompleted(ctx context.Context, dayID string, completed bool) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.days[dayID]
	if !ok {
		return common.ErrorNotFound
	}
	d.Completed = completed
	return nil
}

type fakeCompletions struct{ s *fakeStore }

func (f *fakeCompletions) Find(ctx context.Context, dayID, habitID string) (*models.Completion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.completions {
		if c.DayID == dayID && c.HabitID == habitID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCompletions) Create(ctx context.Context, dayID, habitID string) (*models.Completion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c := &models.Completion{ID: uuid.NewString(), DayID: dayID, HabitID: habitID}
	f.s.completions[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeCompletions) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.completions[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.completions, id)
	return nil
}

func (f *fakeCompletions) CountForDay(ctx context.Context, dayID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := 0
	for _, c := range f.s.completions {
		if c.DayID == dayID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCompletions) ListHabitIDs(ctx context.Context, dayID string) ([]string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var ids []string
	for _, c := range f.s.completions {
		if c.DayID == dayID {
			ids = append(ids, c.HabitID)
		}
	}
	return ids, nil
}

type fakeUsers struct{ s *fakeStore }

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	cp := *u
	f.s.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeRepoManager struct{ s *fakeStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return &fakeUsers{s: m.s} }
func (m *fakeRepoManager) Habits(db dbx.DBTX) habitsrepo.Repository     { return &fakeHabits{s: m.s} }
func (m *fakeRepoManager) Days(db dbx.DBTX) daysrepo.Repository         { return &fakeDays{s: m.s} }
func (m *fakeRepoManager) Completions(db dbx.DBTX) completionsrepo.Repository {
	return &fakeCompletions{s: m.s}
}
