// Package httpapi exposes the HabitFlow service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/thallesv/habitflow/internal/logging"
	"github.com/thallesv/habitflow/internal/server/services"
)

type Server struct {
	address     string
	logger      logging.Logger
	users       *services.UserService
	habits      *services.HabitService
	jwtSecret   []byte
	corsOrigins []string
}

func NewServer(addr string, l logging.Logger, us *services.UserService, hs *services.HabitService, secretKey string, corsOrigins []string) *Server {
	return &Server{
		address:     addr,
		logger:      l.With("module", "http_server"),
		users:       us,
		habits:      hs,
		jwtSecret:   []byte(secretKey),
		corsOrigins: corsOrigins,
	}
}

// Handler builds the route table. Everything under /api/habits and /api/day
// requires a Bearer token; /api/auth/* does not.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.root)

	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)

	mux.Handle("POST /api/habits", s.withAuth(s.createHabit))
	mux.Handle("GET /api/habits", s.withAuth(s.listHabits))
	mux.Handle("PUT /api/habits/{id}", s.withAuth(s.updateHabit))
	mux.Handle("DELETE /api/habits/{id}", s.withAuth(s.deleteHabit))
	mux.Handle("PATCH /api/habits/{id}/toggle", s.withAuth(s.toggleHabit))
	mux.Handle("POST /api/habits/batch", s.withAuth(s.batchCreateHabits))
	mux.Handle("GET /api/day", s.withAuth(s.dayOverview))

	return s.withCORS(mux)
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "HabitFlow API running"})
}
