// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pressplay/backlog/internal/domain/model"
)

// GamesDependencies defines the interface for collection operations.
type GamesDependencies interface {
	Games(ctx context.Context) ([]model.Game, error)
	AddGame(ctx context.Context, g model.Game) (model.Game, error)
	DeleteGame(ctx context.Context, id string) error
}

// GamesHandler handles collection CRUD requests.
type GamesHandler struct {
	deps GamesDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GamesDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

type createGameRequest struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
}

// HandleGames handles GET /games and POST /games requests.
func (h *GamesHandler) HandleGames(w http.ResponseWriter, r *http.Request) {
	const op = "api.games"
	switch r.Method {
	case http.MethodGet:
		games, err := h.deps.Games(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	case http.MethodPost:
		var req createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		g, err := h.deps.AddGame(r.Context(), model.Game{
			Title:    req.Title,
			Platform: req.Platform,
			Status:   req.Status,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	default:
		http.NotFound(w, r)
	}
}

// HandleGameByID handles DELETE /games/{id} requests.
func (h *GamesHandler) HandleGameByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.game_by_id"
	id := strings.TrimPrefix(r.URL.Path, "/games/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.DeleteGame(r.Context(), id); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "deleted"})
}
