// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/pressplay/backlog/internal/adapters/repository"
	"github.com/pressplay/backlog/internal/domain/awards"
	"github.com/pressplay/backlog/internal/domain/dedupe"
	"github.com/pressplay/backlog/internal/domain/journal"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/internal/domain/narrative"
	"github.com/pressplay/backlog/internal/domain/queue"
	"github.com/pressplay/backlog/internal/domain/timelog"
	"github.com/pressplay/backlog/pkg/logger"
	"github.com/pressplay/backlog/pkg/metrics"
)

// Service implements the API dependencies for the tracker apps.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	reconciler *awards.Reconciler
	board      *awards.PickBoard
	queue      *queue.Manager
	deduper    dedupe.Deduper
	journal    *journal.Journal
	timelog    *timelog.Tracker
	generator  narrative.Generator

	// Configuration
	queueBase  int
	dedupeSize int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the record store backend. The backend (memory for guest
// sessions, sqlite for signed-in users) is selected by the caller; the
// service never inspects which one it got.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGenerator injects the narrative generator used for journal recaps.
func WithGenerator(gen narrative.Generator) Option {
	return func(s *Service) {
		s.generator = gen
	}
}

// WithQueueBasePosition sets the first play-queue position.
func WithQueueBasePosition(base int) Option {
	return func(s *Service) {
		if base >= 0 {
			s.queueBase = base
		}
	}
}

// WithDedupeSize sets the size of the pick idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueBase:  1,
		dedupeSize: 1024,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting tracker service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory record store")
	}
	s.reconciler = awards.NewReconciler(s.store, awards.WithLogger(s.logger))
	s.board = awards.NewPickBoard()
	s.queue = queue.NewManager(s.store,
		queue.WithBasePosition(s.queueBase),
		queue.WithLogger(s.logger),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.journal = journal.New(journal.WithGenerator(s.generator))
	s.timelog = timelog.New()

	// Seed the pick board from the store so restarts show current winners.
	if games, err := s.store.GetAll(ctx); err == nil {
		s.board.Resync(games)
	} else {
		s.logger.Warn(ctx, "failed to seed pick board from store", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "tracker service started",
		logger.Int("queueBase", s.queueBase),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping tracker service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "tracker service stopped")
}

// SeenAndRecord atomically checks if a pick request id was seen and records
// it if not. Returns true if the request was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordPickDuplicate()
	}
	return seen
}

// Unrecord removes a pick request id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Games returns a snapshot of the collection.
func (s *Service) Games(ctx context.Context) ([]model.Game, error) {
	return s.store.GetAll(ctx)
}

// AddGame creates a new collection entry.
func (s *Service) AddGame(ctx context.Context, g model.Game) (model.Game, error) {
	return s.store.Create(ctx, g)
}

// DeleteGame removes a collection entry. A queued game is taken out of the
// queue first so the remaining positions stay dense.
func (s *Service) DeleteGame(ctx context.Context, id string) error {
	if err := s.queue.Remove(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// AssignWinner applies the pick to the board immediately, then reconciles
// award ownership in the store. On failure the board is re-derived from the
// store so the caller sees authoritative state alongside the error.
func (s *Service) AssignWinner(ctx context.Context, slot model.Slot, newID, previousID string) error {
	s.board.Apply(slot, newID)
	if err := s.reconciler.AssignWinner(ctx, slot, newID, previousID); err != nil {
		s.resyncBoard(ctx)
		return err
	}
	return nil
}

// ClearWinner removes the slot's winner optimistically, then in the store.
func (s *Service) ClearWinner(ctx context.Context, slot model.Slot, id string) error {
	s.board.Clear(slot)
	if err := s.reconciler.ClearWinner(ctx, slot, id); err != nil {
		s.resyncBoard(ctx)
		return err
	}
	return nil
}

// Picks returns the current board entries.
func (s *Service) Picks(ctx context.Context) []awards.Pick {
	return s.board.Picks()
}

// AddToQueue appends a game to the play queue.
func (s *Service) AddToQueue(ctx context.Context, id string) error {
	return s.queue.Add(ctx, id)
}

// RemoveFromQueue takes a game out of the play queue.
func (s *Service) RemoveFromQueue(ctx context.Context, id string) error {
	return s.queue.Remove(ctx, id)
}

// ReorderQueue moves a queued game to a new position.
func (s *Service) ReorderQueue(ctx context.Context, id string, newPos int) error {
	return s.queue.Reorder(ctx, id, newPos)
}

// RepairQueue rewrites queue positions densely after a partial failure.
func (s *Service) RepairQueue(ctx context.Context) error {
	return s.queue.Repair(ctx)
}

// QueuedGames returns the queue subset sorted by position.
func (s *Service) QueuedGames(ctx context.Context) ([]model.Game, error) {
	games, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return queue.Queued(games), nil
}

// AvailableGames returns the games not in the queue.
func (s *Service) AvailableGames(ctx context.Context) ([]model.Game, error) {
	games, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return queue.Available(games), nil
}

// Journal exposes the mood journal app.
func (s *Service) Journal() *journal.Journal {
	return s.journal
}

// Timelog exposes the time tracker app.
func (s *Service) Timelog() *timelog.Tracker {
	return s.timelog
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueBase":  s.queueBase,
		"dedupeSize": s.dedupeSize,
	}

	if s.started {
		games, err := s.store.GetAll(ctx)
		queued := 0
		if err == nil {
			for _, g := range games {
				if g.Queued() {
					queued++
				}
			}
		}

		stats["collectionSize"] = s.store.Count(ctx)
		stats["queueLength"] = queued
		stats["journalEntries"] = s.journal.Count(ctx)
		stats["timelogSessions"] = s.timelog.Count(ctx)

		metrics.UpdateCollectionSize(s.store.Count(ctx))
		metrics.UpdateQueueLength(queued)
		metrics.UpdateJournalEntries(s.journal.Count(ctx))
		metrics.UpdateTimelogSessions(s.timelog.Count(ctx))
	}

	return stats
}

// resyncBoard re-derives the pick board from the store, best effort.
func (s *Service) resyncBoard(ctx context.Context) {
	// Bound the re-read so a hung store does not pin the error path.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	games, err := s.store.GetAll(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to resync pick board", logger.Error(err))
		return
	}
	s.board.Resync(games)
}
