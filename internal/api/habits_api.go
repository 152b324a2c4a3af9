package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/app/completion"
	"github.com/stride-labs/stride/internal/domain"
)

// ─── Habit Endpoints (/api/habits) ──────────────────────────────────────────

type createHabitRequest struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Cadence      string `json:"cadence"`
	DaysOfWeek   []int  `json:"days_of_week,omitempty"`
	TimesPerWeek int    `json:"times_per_week,omitempty"`
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	sched := domain.Schedule{
		Cadence:      domain.Cadence(req.Cadence),
		TimesPerWeek: req.TimesPerWeek,
	}
	for _, d := range req.DaysOfWeek {
		if d >= 0 && d <= 6 {
			sched.DaysOfWeek = append(sched.DaysOfWeek, time.Weekday(d))
		}
	}
	if !sched.Valid() {
		writeDomainError(w, domain.ErrInvalidCadence)
		return
	}
	if sched.Cadence == domain.CadenceCustom && len(sched.SortedDays()) == 0 {
		writeDomainError(w, domain.ErrEmptySchedule)
		return
	}

	if _, err := s.db.GetUser(userID); err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	habit := domain.Habit{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		Category:  req.Category,
		Schedule:  sched,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.InsertHabit(habit); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}
	habits, err := s.db.ListHabitsByUser(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": habits})
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid habit id")
		return
	}
	habit, err := s.db.GetHabit(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// --- /api/habits/{id}/eligibility ---

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid habit id")
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	at := time.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		at, err = time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be RFC 3339")
			return
		}
	}

	result, err := s.commits.ValidateEligibility(id, userID, at, r.URL.Query().Get("tz"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- /api/habits/{id}/complete ---

type completeRequest struct {
	UserID     string `json:"user_id"`
	At         string `json:"at,omitempty"` // RFC 3339; empty means now
	Timezone   string `json:"timezone,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid habit id")
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	var at time.Time
	if req.At != "" {
		at, err = time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be RFC 3339")
			return
		}
	}

	result, err := s.commits.Record(r.Context(), id, userID, at, req.Timezone, completion.RecordOptions{
		Difficulty:     req.Difficulty,
		DeviceTimezone: req.Timezone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// --- /api/habits/{id}/recalculate ---

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid habit id")
		return
	}
	habit, err := s.commits.Recalculate(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// --- /api/habits/{id}/archive, /restore ---

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, false)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, true)
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid habit id")
		return
	}
	if err := s.db.SetHabitActive(id, active); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

// --- /api/forgiveness/run ---

type forgivenessRunRequest struct {
	AsOf string `json:"as_of,omitempty"` // RFC 3339; empty means now
}

func (s *Server) handleForgivenessRun(w http.ResponseWriter, r *http.Request) {
	var req forgivenessRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var asOf time.Time
	if req.AsOf != "" {
		var err error
		asOf, err = time.Parse(time.RFC3339, req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "as_of must be RFC 3339")
			return
		}
	}

	summary, err := s.pass.RunDailyPass(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
