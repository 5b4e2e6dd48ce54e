package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
)

// CandidateHandler serves the live candidate set.
type CandidateHandler struct {
	set *gesture.CandidateSet
}

// NewCandidateHandler creates a CandidateHandler over set.
func NewCandidateHandler(set *gesture.CandidateSet) *CandidateHandler {
	return &CandidateHandler{set: set}
}

// ServeHTTP routes /api/candidates and /api/candidates/{id}.
func (h *CandidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/candidates")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		case http.MethodDelete:
			h.deleteSubscriber(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createCandidateRequest struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

type candidateResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Pattern      string `json:"pattern"`
	SubscriberID int    `json:"subscriber_id"`
	Tokens       int    `json:"tokens"`
}

type removedResponse struct {
	Removed int `json:"removed"`
}

type listCandidatesResponse struct {
	Candidates []candidateResponse `json:"candidates"`
}

func toResponse(c gesture.Candidate) candidateResponse {
	return candidateResponse{
		ID:           c.ID,
		Name:         c.Name,
		Pattern:      string(c.Pattern),
		SubscriberID: c.SubscriberID,
		Tokens:       c.Pattern.TokenCount(),
	}
}

// list handles GET /api/candidates.
func (h *CandidateHandler) list(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.set.Snapshot()
	response := listCandidatesResponse{
		Candidates: make([]candidateResponse, 0, len(snapshot)),
	}
	for _, c := range snapshot {
		response.Candidates = append(response.Candidates, toResponse(c))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/candidates. Candidates added here have no
// subscriber, like patterns loaded from a file.
func (h *CandidateHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if !gesture.String(req.Pattern).WellFormed() {
		writeError(w, http.StatusBadRequest, "Pattern is not a gesture string")
		return
	}

	c := h.set.Add(gesture.Candidate{Name: req.Name, Pattern: gesture.String(req.Pattern)})
	writeJSON(w, http.StatusCreated, toResponse(c))
}

// delete handles DELETE /api/candidates/{id}.
func (h *CandidateHandler) delete(w http.ResponseWriter, _ *http.Request, id string) {
	if !h.set.Remove(id) {
		writeError(w, http.StatusNotFound, "Candidate not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteSubscriber handles DELETE /api/candidates?subscriber_id=N.
func (h *CandidateHandler) deleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("subscriber_id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "subscriber_id must be a positive integer")
		return
	}
	writeJSON(w, http.StatusOK, removedResponse{Removed: h.set.RemoveSubscriber(id)})
}
