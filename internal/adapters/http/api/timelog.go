// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/pressplay/backlog/internal/domain/timelog"
)

// TimelogDependencies exposes the time tracker app to the handler.
type TimelogDependencies interface {
	Timelog() *timelog.Tracker
}

// TimelogHandler handles time tracker requests.
type TimelogHandler struct {
	deps TimelogDependencies
}

// NewTimelogHandler creates a new timelog handler.
func NewTimelogHandler(deps TimelogDependencies) *TimelogHandler {
	return &TimelogHandler{deps: deps}
}

type timelogStartRequest struct {
	Activity string `json:"activity"`
}

// HandleSessions handles GET /timelog requests.
func (h *TimelogHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Timelog().Sessions(r.Context()))
}

// HandleStart handles POST /timelog/start requests.
func (h *TimelogHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.timelog_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req timelogStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	s, err := h.deps.Timelog().Start(r.Context(), req.Activity)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// HandleStop handles POST /timelog/stop requests.
func (h *TimelogHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	const op = "api.timelog_stop"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	s, err := h.deps.Timelog().Stop(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleSummary handles GET /timelog/summary requests. Durations are
// reported in whole seconds per activity.
func (h *TimelogHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summary := h.deps.Timelog().Summary(r.Context())
	out := make(map[string]int64, len(summary))
	for activity, d := range summary {
		out[activity] = int64(d.Seconds())
	}
	writeJSON(w, http.StatusOK, out)
}
