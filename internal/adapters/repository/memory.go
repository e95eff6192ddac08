package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/pkg/metrics"
)

// MemoryStore keeps the collection in process memory. It backs guest
// sessions, where nothing outlives the process. The mutex guards the map
// against data races only; it provides no isolation between the sequential
// calls of a multi-record operation.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]model.Game
	now   func() time.Time
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the clock used for AddedAt stamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		games: make(map[string]model.Game),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAll returns a copied snapshot sorted by AddedAt then id, so callers can
// mutate the result freely.
func (s *MemoryStore) GetAll(ctx context.Context) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, copyGame(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns the game with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return model.Game{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return copyGame(g), nil
}

// Create persists a new game, assigning an id when absent.
func (s *MemoryStore) Create(ctx context.Context, g model.Game) (model.Game, error) {
	if strings.TrimSpace(g.Title) == "" {
		return model.Game{}, fmt.Errorf("create: missing title: %w", ErrInvalidGame)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if _, exists := s.games[g.ID]; exists {
		return model.Game{}, fmt.Errorf("create %s: id already exists: %w", g.ID, ErrInvalidGame)
	}
	if g.AddedAt.IsZero() {
		g.AddedAt = s.now()
	}
	if g.Awards == nil {
		g.Awards = []model.Award{}
	}
	s.games[g.ID] = copyGame(g)
	metrics.UpdateCollectionSize(len(s.games))
	return g, nil
}

// Update applies the patch as a whole-field replacement.
func (s *MemoryStore) Update(ctx context.Context, id string, p Patch) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return model.Game{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	applyPatch(&g, p)
	s.games[id] = copyGame(g)
	return g, nil
}

// Delete removes the game with the given id.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.games, id)
	metrics.UpdateCollectionSize(len(s.games))
	return nil
}

// Count returns the number of games in the collection.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// applyPatch performs whole-field replacement of the patched fields.
func applyPatch(g *model.Game, p Patch) {
	if p.Awards != nil {
		awards := make([]model.Award, len(*p.Awards))
		copy(awards, *p.Awards)
		g.Awards = awards
	}
	if p.Queue != nil {
		if p.Queue.Position == nil {
			g.QueuePosition = nil
		} else {
			pos := *p.Queue.Position
			g.QueuePosition = &pos
		}
	}
}

// copyGame deep-copies the mutable fields so snapshots never alias the map.
func copyGame(g model.Game) model.Game {
	out := g
	out.Awards = make([]model.Award, len(g.Awards))
	copy(out.Awards, g.Awards)
	if g.QueuePosition != nil {
		pos := *g.QueuePosition
		out.QueuePosition = &pos
	}
	return out
}
