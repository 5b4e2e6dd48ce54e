package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/store"
)

// QueueHandler reports the broker queues in the shared store.
type QueueHandler struct {
	queues *store.QueueRepository
}

// NewQueueHandler creates a QueueHandler.
func NewQueueHandler(s *store.Store) *QueueHandler {
	return &QueueHandler{queues: s.Queues()}
}

type queueResponse struct {
	Name       string `json:"name"`
	Depth      int    `json:"depth"`
	MaxDepth   int    `json:"max_depth"`
	MaxMsgSize int    `json:"max_msg_size"`
	CreatedAt  string `json:"created_at"`
}

type listQueuesResponse struct {
	Queues []queueResponse `json:"queues"`
}

// ServeHTTP handles GET /api/queues.
func (h *QueueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	queues, err := h.queues.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list queues")
		return
	}

	response := listQueuesResponse{Queues: make([]queueResponse, 0, len(queues))}
	for _, q := range queues {
		depth, err := h.queues.Len(r.Context(), q.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read queue depth")
			return
		}
		response.Queues = append(response.Queues, queueResponse{
			Name:       q.Name,
			Depth:      depth,
			MaxDepth:   q.MaxDepth,
			MaxMsgSize: q.MaxMsgSize,
			CreatedAt:  q.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
