package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/models"
	"github.com/lehigh-university-libraries/bookswap/internal/storage"
)

// IntakeStats summarises the stored intake sessions
type IntakeStats struct {
	Intakes      int     `json:"intakes"`
	Accepted     int     `json:"accepted"`
	Rejected     int     `json:"rejected"`
	Fallbacks    int     `json:"fallbacks"`
	TotalCredits float64 `json:"total_credits"`
}

func (h *Handler) HandleIntakes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions, err := h.store.List(r.Context())
		if err != nil {
			h.writeError(w, "Failed to list intakes: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []*models.IntakeSession{}
		}
		h.writeJSON(w, sessions)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleIntakeDetail serves a single session. Sessions are immutable, so only
// GET is supported.
func (h *Handler) HandleIntakeDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/api/intakes/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	session, err := h.store.Get(r.Context(), sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to load intake: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, session)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions, err := h.store.List(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list intakes: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var stats IntakeStats
	var total float64
	for _, s := range sessions {
		stats.Intakes++
		if s.Rejected() {
			stats.Rejected++
		} else {
			stats.Accepted++
		}
		if s.Fallback {
			stats.Fallbacks++
		}
		total += s.Credit.FinalCredits
	}
	stats.TotalCredits = credit.RoundCredits(total)

	h.writeJSON(w, stats)
}
