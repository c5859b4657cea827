package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thallesv/habitflow/internal/common"
	"github.com/thallesv/habitflow/internal/dbx"
	"github.com/thallesv/habitflow/internal/server/models"
	"github.com/thallesv/habitflow/internal/server/services"
)

type habitPayload struct {
	Title        string `json:"title"`
	WeekDays     []int  `json:"weekDays,omitempty"`
	MonthlyDay   int    `json:"monthlyDay,omitempty"`
	SpecificDate string `json:"specificDate,omitempty"`
	TimeStart    string `json:"timeStart,omitempty"`
	TimeEnd      string `json:"timeEnd,omitempty"`
}

type habitResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"createdAt"`
	WeekDays     []int  `json:"weekDays,omitempty"`
	MonthlyDay   int    `json:"monthlyDay,omitempty"`
	SpecificDate string `json:"specificDate,omitempty"`
	TimeStart    string `json:"timeStart,omitempty"`
	TimeEnd      string `json:"timeEnd,omitempty"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	in, err := decodeHabitPayload(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	h, err := s.habits.Create(r.Context(), userIDFrom(r), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toHabitResponse(h))
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	in, err := decodeHabitPayload(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	h, err := s.habits.Update(r.Context(), userIDFrom(r), r.PathValue("id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toHabitResponse(h))
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.habits.Delete(r.Context(), userIDFrom(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	list, err := s.habits.List(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]habitResponse, 0, len(list))
	for _, h := range list {
		out = append(out, toHabitResponse(h))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) toggleHabit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	// an empty body means "toggle for today"
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var when *time.Time
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		when = &d
	}

	completed, err := s.habits.Toggle(r.Context(), userIDFrom(r), r.PathValue("id"), when)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"isCompleted": completed})
}

func (s *Server) batchCreateHabits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Habits          []habitPayload `json:"habits"`
		MarkAsCompleted *struct {
			Date         string `json:"date"`
			HabitIndexes []int  `json:"habitIndexes"`
		} `json:"markAsCompleted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	specs := make([]services.HabitInput, 0, len(req.Habits))
	for _, p := range req.Habits {
		in, err := toHabitInput(p)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		specs = append(specs, in)
	}

	var mark *services.MarkAsCompleted
	if req.MarkAsCompleted != nil {
		mark = &services.MarkAsCompleted{HabitIndexes: req.MarkAsCompleted.HabitIndexes}
		if req.MarkAsCompleted.Date != "" {
			d, err := parseDate(req.MarkAsCompleted.Date)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			mark.Date = &d
		}
	}

	res, err := s.habits.BatchCreate(r.Context(), userIDFrom(r), specs, mark)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	created := make([]habitResponse, 0, len(res.CreatedHabits))
	for _, h := range res.CreatedHabits {
		created = append(created, toHabitResponse(h))
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"createdHabits":   created,
		"completedHabits": res.CompletedHabitIDs,
		"dayCompleted":    res.DayCompleted,
	})
}

func (s *Server) dayOverview(w http.ResponseWriter, r *http.Request) {
	when := time.Now()
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := parseDate(q)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		when = d
	}

	ov, err := s.habits.Overview(r.Context(), userIDFrom(r), when)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	possible := make([]habitResponse, 0, len(ov.PossibleHabits))
	for _, h := range ov.PossibleHabits {
		possible = append(possible, toHabitResponse(h))
	}
	completed := ov.CompletedHabitIDs
	if completed == nil {
		completed = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"possibleHabits":  possible,
		"completedHabits": completed,
	})
}

func decodeHabitPayload(r *http.Request) (services.HabitInput, error) {
	var p habitPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return services.HabitInput{}, fmt.Errorf("%w: invalid request body", common.ErrorValidation)
	}
	return toHabitInput(p)
}

func toHabitInput(p habitPayload) (services.HabitInput, error) {
	in := services.HabitInput{
		Title:      p.Title,
		WeekDays:   p.WeekDays,
		MonthlyDay: p.MonthlyDay,
		TimeStart:  p.TimeStart,
		TimeEnd:    p.TimeEnd,
	}
	if p.SpecificDate != "" {
		d, err := parseDate(p.SpecificDate)
		if err != nil {
			return services.HabitInput{}, err
		}
		in.SpecificDate = &d
	}
	return in, nil
}

func toHabitResponse(h *models.Habit) habitResponse {
	out := habitResponse{
		ID:        h.ID,
		Title:     h.Title,
		CreatedAt: h.CreatedAt.Format("2006-01-02"),
		TimeStart: h.TimeStart,
		TimeEnd:   h.TimeEnd,
	}
	switch h.Recurrence.Kind {
	case models.RecurrenceWeekly:
		out.WeekDays = h.Recurrence.WeekDays
	case models.RecurrenceMonthly:
		out.MonthlyDay = h.Recurrence.MonthlyDay
	case models.RecurrenceSpecific:
		out.SpecificDate = h.Recurrence.SpecificDate.Format("2006-01-02")
	}
	return out
}

// parseDate accepts plain calendar dates ("2024-01-15") and RFC 3339
// timestamps, which frontends tend to send from date pickers.
func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", common.ErrorValidation, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service-layer sentinels onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorEmailAlreadyExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, dbx.ErrConflict):
		s.logger.Warn(r.Context(), "transaction conflict", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusServiceUnavailable, "temporary conflict, retry the request")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
