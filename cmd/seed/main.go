// Command seed resets the database and loads demo accounts with habits and
// a randomized 60-day completion history. Intended for local development
// only: it wipes every table before inserting.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math/rand"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"

	"github.com/thallesv/habitflow/internal/common"
	"github.com/thallesv/habitflow/internal/server/config"
	"github.com/thallesv/habitflow/internal/server/models"
	"github.com/thallesv/habitflow/internal/server/repositories/repomanager"
)

type seedUser struct {
	name   string
	email  string
	habits []string
}

var seedUsers = []seedUser{
	{
		name:  "Thalles Viana",
		email: "thalles@gmail.com",
		habits: []string{
			"Beber Água", "Ler Livro", "Exercício", "Meditar", "Estudar Code",
			"Dormir 8h", "Comer Fruta", "Alongamento", "Caminhada", "Limpar Casa",
		},
	},
	{
		name:   "Giovana Coelho",
		email:  "gio.coelho@gmail.com",
		habits: []string{"Ir para a academia", "Estudar", "Treinar"},
	},
	{
		name:   "Gustavo Marques",
		email:  "gustavo@gmail.com",
		habits: []string{"Jogar", "Estudar", "Programação"},
	},
}

func main() {

	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	if err := run(ctx, db, rm); err != nil {
		log.Fatalf("seed error: %v", err)
	}

	log.Println("seeding finished")
}

func run(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) error {

	// Cascades on users clear habits, days and completions as well.
	if _, err := db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("12345678"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	allWeek, err := models.NewWeekly([]int{0, 1, 2, 3, 4, 5, 6})
	if err != nil {
		return err
	}
	createdAt := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, su := range seedUsers {

		user, err := rm.Users(db).Create(ctx, &models.User{
			Name:         su.name,
			Email:        su.email,
			PasswordHash: string(hash),
		})
		if err != nil {
			return err
		}
		log.Printf("created user: %s", user.Email)

		habits := make([]*models.Habit, 0, len(su.habits))
		for _, title := range su.habits {
			h, err := rm.Habits(db).Create(ctx, &models.Habit{
				UserID:     user.ID,
				Title:      title,
				CreatedAt:  createdAt,
				Recurrence: allWeek,
			})
			if err != nil {
				return err
			}
			habits = append(habits, h)
		}

		if err := seedHistory(ctx, db, rm, user.ID, habits); err != nil {
			return err
		}
	}

	return nil
}

// seedHistory writes a randomized completion history for the last 60 days:
// roughly a third of the days are skipped entirely, and on the rest each
// habit has an even chance of being marked done.
func seedHistory(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, userID string, habits []*models.Habit) error {

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		date := today.AddDate(0, 0, -i)

		if rand.Float64() < 0.3 {
			continue
		}

		day, err := rm.Days(db).FindByDate(ctx, userID, date)
		if errors.Is(err, common.ErrorNotFound) {
			day, err = rm.Days(db).Create(ctx, userID, date)
		}
		if err != nil {
			return err
		}

		done := 0
		for _, h := range habits {
			if rand.Float64() > 0.5 {
				continue
			}
			if _, err := rm.Completions(db).Create(ctx, day.ID, h.ID); err != nil {
				return err
			}
			done++
		}

		if done == len(habits) && done > 0 {
			if err := rm.Days(db).UpdateCompleted(ctx, day.ID, true); err != nil {
				return err
			}
		}
	}

	return nil
}
