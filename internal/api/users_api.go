package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stride-labs/stride/internal/app/gamification"
	"github.com/stride-labs/stride/internal/domain"
)

// ─── User Endpoints (/api/users) ────────────────────────────────────────────

type createUserRequest struct {
	Name             string `json:"name"`
	Timezone         string `json:"timezone"`
	ForgivenessOptIn *bool  `json:"forgiveness_opt_in,omitempty"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	now := time.Now()
	user := domain.User{
		ID:                uuid.New(),
		Name:              req.Name,
		Timezone:          req.Timezone,
		Level:             1,
		ForgivenessTokens: domain.MaxForgivenessTokens,
		ForgivenessOptIn:  true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.ForgivenessOptIn != nil {
		user.ForgivenessOptIn = *req.ForgivenessOptIn
	}

	if err := s.db.InsertUser(user); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// --- /api/users/{id}/summary ---

func (s *Server) handleUserSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := s.db.GetUser(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	habits, err := s.db.ListHabitsByUser(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	type habitSnapshot struct {
		ID              uuid.UUID `json:"id"`
		Name            string    `json:"name"`
		Cadence         string    `json:"cadence"`
		CurrentStreak   int       `json:"current_streak"`
		LongestStreak   int       `json:"longest_streak"`
		ConsistencyRate int       `json:"consistency_rate"`
		Active          bool      `json:"active"`
	}
	snapshots := make([]habitSnapshot, len(habits))
	for i, h := range habits {
		snapshots[i] = habitSnapshot{
			ID:              h.ID,
			Name:            h.Name,
			Cadence:         string(h.Schedule.Cadence),
			CurrentStreak:   h.CurrentStreak,
			LongestStreak:   h.LongestStreak,
			ConsistencyRate: h.ConsistencyRate,
			Active:          h.Active,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":             user,
		"level":            user.Level,
		"total_xp":         user.TotalXP,
		"xp_to_next_level": gamification.XPToNextLevel(user.TotalXP),
		"level_progress":   gamification.ProgressPct(user.TotalXP),
		"habits":           snapshots,
	})
}

// --- /api/users/{id}/ledger ---

func (s *Server) handleUserLedger(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := s.db.LedgerEntries(id, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// --- /api/users/{id}/notifications ---

func (s *Server) handleUserNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	notifs, err := s.db.ListPendingNotifications(id, 50)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifs})
}

// --- /api/notifications/{id}/shown ---

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.db.MarkNotificationShown(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"shown": true})
}
