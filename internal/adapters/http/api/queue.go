// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pressplay/backlog/internal/domain/model"
)

// QueueDependencies defines the interface for play queue operations.
type QueueDependencies interface {
	AddToQueue(ctx context.Context, id string) error
	RemoveFromQueue(ctx context.Context, id string) error
	ReorderQueue(ctx context.Context, id string, newPos int) error
	RepairQueue(ctx context.Context) error
	QueuedGames(ctx context.Context) ([]model.Game, error)
	AvailableGames(ctx context.Context) ([]model.Game, error)
}

// QueueHandler handles play queue requests.
type QueueHandler struct {
	deps QueueDependencies
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(deps QueueDependencies) *QueueHandler {
	return &QueueHandler{deps: deps}
}

type queueAddRequest struct {
	GameID string `json:"game_id"`
}

type queueReorderRequest struct {
	Position int `json:"position"`
}

type queueResponse struct {
	Queued    []model.Game `json:"queued"`
	Available []model.Game `json:"available"`
}

// HandleQueue handles GET /queue and POST /queue requests.
func (h *QueueHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.queue"
	switch r.Method {
	case http.MethodGet:
		queued, err := h.deps.QueuedGames(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		available, err := h.deps.AvailableGames(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, queueResponse{Queued: queued, Available: available})
	case http.MethodPost:
		var req queueAddRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(req.GameID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if err := h.deps.AddToQueue(r.Context(), req.GameID); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "queued"})
	default:
		http.NotFound(w, r)
	}
}

// HandleRepair handles POST /queue/repair requests.
func (h *QueueHandler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	const op = "api.queue_repair"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.RepairQueue(r.Context()); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "repaired"})
}

// HandleQueueByID handles DELETE /queue/{id} and PATCH /queue/{id} requests.
func (h *QueueHandler) HandleQueueByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.queue_by_id"
	id := strings.TrimPrefix(r.URL.Path, "/queue/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodDelete:
		if err := h.deps.RemoveFromQueue(r.Context(), id); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "removed"})
	case http.MethodPatch:
		var req queueReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.ReorderQueue(r.Context(), id, req.Position); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "reordered"})
	default:
		http.NotFound(w, r)
	}
}
