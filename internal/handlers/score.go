package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
)

// ScoreRequest is a manually graded book submitted for scoring
type ScoreRequest struct {
	VisualAssessment *credit.VisualAssessment `json:"visual_assessment"`
	Factors          credit.ContextualFactors `json:"factors"`
}

// HandleScore scores a caller-supplied visual assessment without calling the
// provider or recording a session. Staff use it to grade books by hand.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request ScoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.VisualAssessment == nil {
		h.writeError(w, "visual_assessment is required", http.StatusBadRequest)
		return
	}

	if err := request.VisualAssessment.Validate(); err != nil {
		h.writeError(w, "Invalid visual_assessment: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, h.engine.Compute(*request.VisualAssessment, request.Factors))
}
