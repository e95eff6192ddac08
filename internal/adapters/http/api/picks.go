// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pressplay/backlog/internal/domain/awards"
	"github.com/pressplay/backlog/internal/domain/model"
)

// PicksDependencies defines the interface for award reconciliation.
type PicksDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	AssignWinner(ctx context.Context, slot model.Slot, newID, previousID string) error
	ClearWinner(ctx context.Context, slot model.Slot, id string) error
	Picks(ctx context.Context) []awards.Pick
}

// PicksHandler handles award slot winner requests.
type PicksHandler struct {
	deps PicksDependencies
}

// NewPicksHandler creates a new picks handler.
func NewPicksHandler(deps PicksDependencies) *PicksHandler {
	return &PicksHandler{deps: deps}
}

// pickRequest mirrors the POST /picks body. RequestID keys retried picks;
// PreviousID is the current slot holder as known to the client, empty for a
// first-ever pick.
type pickRequest struct {
	RequestID  string           `json:"request_id"`
	Category   string           `json:"category"`
	Label      string           `json:"label,omitempty"`
	Icon       string           `json:"icon,omitempty"`
	PeriodType model.PeriodType `json:"period_type"`
	PeriodKey  string           `json:"period_key"`
	GameID     string           `json:"game_id"`
	PreviousID string           `json:"previous_id,omitempty"`
}

func (p pickRequest) validate() error {
	switch {
	case strings.TrimSpace(p.Category) == "":
		return errors.New("missing category")
	case strings.TrimSpace(p.PeriodKey) == "":
		return errors.New("missing period_key")
	case !p.PeriodType.Valid():
		return errors.New("invalid period_type")
	case strings.TrimSpace(p.GameID) == "":
		return errors.New("missing game_id")
	}
	return nil
}

func (p pickRequest) slot() model.Slot {
	return model.Slot{
		Category:   p.Category,
		Label:      p.Label,
		Icon:       p.Icon,
		PeriodType: p.PeriodType,
		PeriodKey:  p.PeriodKey,
	}
}

// HandlePicks handles GET, POST and DELETE /picks requests.
func (h *PicksHandler) HandlePicks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Picks(r.Context()))
	case http.MethodPost:
		h.handleAssign(w, r)
	case http.MethodDelete:
		h.handleClear(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *PicksHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign_pick"
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - a retried request id is acknowledged, not re-run.
	if req.RequestID != "" && h.deps.SeenAndRecord(r.Context(), req.RequestID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if err := h.deps.AssignWinner(r.Context(), req.slot(), req.GameID, req.PreviousID); err != nil {
		// Allow the client to retry with the same request id.
		if req.RequestID != "" {
			h.deps.Unrecord(r.Context(), req.RequestID)
		}
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "assigned"})
}

func (h *PicksHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_pick"
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.ClearWinner(r.Context(), req.slot(), req.GameID); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "cleared"})
}
