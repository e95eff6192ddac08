// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pressplay/backlog/internal/domain/journal"
	"github.com/pressplay/backlog/internal/domain/model"
)

// JournalDependencies exposes the mood journal app to the handler.
type JournalDependencies interface {
	Journal() *journal.Journal
}

// JournalHandler handles mood journal requests.
type JournalHandler struct {
	deps JournalDependencies
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(deps JournalDependencies) *JournalHandler {
	return &JournalHandler{deps: deps}
}

type journalAddRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
	Mood int    `json:"mood"`
	Note string `json:"note,omitempty"`
}

// HandleJournal handles GET /journal and POST /journal requests.
func (h *JournalHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	const op = "api.journal"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Journal().List(r.Context()))
	case http.MethodPost:
		var req journalAddRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		e, err := h.deps.Journal().Add(r.Context(), date, req.Mood, req.Note)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	default:
		http.NotFound(w, r)
	}
}

// HandleEntryByID handles DELETE /journal/{id} requests.
func (h *JournalHandler) HandleEntryByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.journal_by_id"
	id := strings.TrimPrefix(r.URL.Path, "/journal/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Journal().Delete(r.Context(), id); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "deleted"})
}

// HandleStats handles GET /journal/stats?period_type=&period_key= requests.
func (h *JournalHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.journal_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	pt, key, ok := periodParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	stats, err := h.deps.Journal().Stats(r.Context(), pt, key)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleRecap handles GET /journal/recap?period_type=&period_key= requests.
func (h *JournalHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	const op = "api.journal_recap"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	pt, key, ok := periodParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	text, err := h.deps.Journal().Recap(r.Context(), pt, key)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recap": text})
}

func periodParams(r *http.Request) (model.PeriodType, string, bool) {
	pt := model.PeriodType(r.URL.Query().Get("period_type"))
	key := r.URL.Query().Get("period_key")
	if !pt.Valid() || key == "" {
		return "", "", false
	}
	return pt, key, true
}
