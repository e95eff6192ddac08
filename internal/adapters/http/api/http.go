// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pressplay/backlog/internal/adapters/repository"
	"github.com/pressplay/backlog/internal/domain/awards"
	"github.com/pressplay/backlog/internal/domain/journal"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/internal/domain/narrative"
	"github.com/pressplay/backlog/internal/domain/queue"
	"github.com/pressplay/backlog/internal/domain/timelog"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Pick request idempotency.
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)

	// Collection operations.
	Games(ctx context.Context) ([]model.Game, error)
	AddGame(ctx context.Context, g model.Game) (model.Game, error)
	DeleteGame(ctx context.Context, id string) error

	// Award reconciliation.
	AssignWinner(ctx context.Context, slot model.Slot, newID, previousID string) error
	ClearWinner(ctx context.Context, slot model.Slot, id string) error
	Picks(ctx context.Context) []awards.Pick

	// Queue ordering.
	AddToQueue(ctx context.Context, id string) error
	RemoveFromQueue(ctx context.Context, id string) error
	ReorderQueue(ctx context.Context, id string, newPos int) error
	RepairQueue(ctx context.Context) error
	QueuedGames(ctx context.Context) ([]model.Game, error)
	AvailableGames(ctx context.Context) ([]model.Game, error)

	// Companion apps.
	Journal() *journal.Journal
	Timelog() *timelog.Tracker
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	gamesHandler   *GamesHandler
	picksHandler   *PicksHandler
	queueHandler   *QueueHandler
	journalHandler *JournalHandler
	timelogHandler *TimelogHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		gamesHandler:   NewGamesHandler(deps),
		picksHandler:   NewPicksHandler(deps),
		queueHandler:   NewQueueHandler(deps),
		journalHandler: NewJournalHandler(deps),
		timelogHandler: NewTimelogHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandleGames, "games"))
	mux.HandleFunc("/games/", MetricsMiddleware(s.gamesHandler.HandleGameByID, "games"))
	mux.HandleFunc("/picks", MetricsMiddleware(s.picksHandler.HandlePicks, "picks"))
	mux.HandleFunc("/queue", MetricsMiddleware(s.queueHandler.HandleQueue, "queue"))
	mux.HandleFunc("/queue/repair", MetricsMiddleware(s.queueHandler.HandleRepair, "queue_repair"))
	mux.HandleFunc("/queue/", MetricsMiddleware(s.queueHandler.HandleQueueByID, "queue"))
	mux.HandleFunc("/journal", MetricsMiddleware(s.journalHandler.HandleJournal, "journal"))
	mux.HandleFunc("/journal/stats", MetricsMiddleware(s.journalHandler.HandleStats, "journal_stats"))
	mux.HandleFunc("/journal/recap", MetricsMiddleware(s.journalHandler.HandleRecap, "journal_recap"))
	mux.HandleFunc("/journal/", MetricsMiddleware(s.journalHandler.HandleEntryByID, "journal"))
	mux.HandleFunc("/timelog", MetricsMiddleware(s.timelogHandler.HandleSessions, "timelog"))
	mux.HandleFunc("/timelog/start", MetricsMiddleware(s.timelogHandler.HandleStart, "timelog_start"))
	mux.HandleFunc("/timelog/stop", MetricsMiddleware(s.timelogHandler.HandleStop, "timelog_stop"))
	mux.HandleFunc("/timelog/summary", MetricsMiddleware(s.timelogHandler.HandleSummary, "timelog_summary"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain sentinels to HTTP responses so the
// handlers do not repeat the mapping.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, queue.ErrAlreadyQueued),
		errors.Is(err, timelog.ErrSessionRunning),
		errors.Is(err, timelog.ErrNoSession):
		writeError(w, http.StatusConflict, "conflict", Wrap(op, err))
	case errors.Is(err, queue.ErrNotQueued),
		errors.Is(err, queue.ErrInvalidPosition),
		errors.Is(err, awards.ErrInvalidSlot),
		errors.Is(err, awards.ErrMissingWinner),
		errors.Is(err, journal.ErrInvalidMood),
		errors.Is(err, journal.ErrNoEntries),
		errors.Is(err, timelog.ErrInvalidActivity),
		errors.Is(err, repository.ErrInvalidGame):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, narrative.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "narrative_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
