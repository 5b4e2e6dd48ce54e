package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/gesture"
)

// MatchHandler scores a gesture string against the candidate set without
// notifying anyone.
type MatchHandler struct {
	set     *gesture.CandidateSet
	matcher *gesture.Matcher
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(set *gesture.CandidateSet, matcher *gesture.Matcher) *MatchHandler {
	return &MatchHandler{set: set, matcher: matcher}
}

type matchRequest struct {
	Gesture string `json:"gesture"`
}

type matchResponse struct {
	Result  gesture.Result      `json:"result"`
	Ranking []gesture.Candidate `json:"ranking"`
}

// ServeHTTP handles POST /api/match.
func (h *MatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	input := gesture.String(req.Gesture)
	if !input.Empty() && !input.WellFormed() {
		writeError(w, http.StatusBadRequest, "Gesture is not a gesture string")
		return
	}
	candidates := h.set.Snapshot()

	result, err := h.matcher.Score(r.Context(), input, candidates)
	switch {
	case errors.Is(err, gesture.ErrEmptyGesture):
		writeError(w, http.StatusBadRequest, "Gesture must contain at least one token")
		return
	case errors.Is(err, gesture.ErrNoCandidates):
		writeError(w, http.StatusConflict, "No candidates registered")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to score gesture")
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{
		Result:  result,
		Ranking: h.matcher.Rank(input, candidates),
	})
}
