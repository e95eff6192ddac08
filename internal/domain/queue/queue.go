// Package queue maintains the dense play-queue ordering over the collection.
//
// Queued games hold positions forming exactly {base .. base+n-1}, no gaps,
// no duplicates. The store offers no multi-record transactions, so shifts
// are independent sequential writes; a failure mid-shift leaves a gap or
// duplicate that Repair rewrites densely.
package queue

import (
	"context"
	"fmt"
	"sort"

	"github.com/pressplay/backlog/internal/adapters/repository"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/pkg/logger"
	"github.com/pressplay/backlog/pkg/metrics"
)

const defaultBasePosition = 1

// Manager performs queue mutations against the store.
type Manager struct {
	store repository.Store
	log   logger.Logger
	base  int
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithBasePosition sets the first queue position (default 1).
func WithBasePosition(base int) Option {
	return func(m *Manager) {
		if base >= 0 {
			m.base = base
		}
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store repository.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		base:  defaultBasePosition,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Get()
	}
	return m
}

// Add appends the game to the tail of the queue. Returns ErrAlreadyQueued
// when the game already holds a position; callers that want move-to-end
// call Reorder instead.
func (m *Manager) Add(ctx context.Context, id string) error {
	games, err := m.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	target, ok := byID(games, id)
	if !ok {
		return fmt.Errorf("add %s: %w", id, repository.ErrNotFound)
	}
	if target.Queued() {
		return fmt.Errorf("add %s at position %d: %w", id, *target.QueuePosition, ErrAlreadyQueued)
	}

	next := m.base
	for _, g := range games {
		if g.Queued() && *g.QueuePosition >= next {
			next = *g.QueuePosition + 1
		}
	}
	if _, err := m.store.Update(ctx, id, repository.SetQueuePosition(next)); err != nil {
		return fmt.Errorf("append %s: %w", id, err)
	}
	metrics.RecordQueueAdd()
	metrics.UpdateQueueLength(countQueued(games) + 1)
	return nil
}

// Remove takes the game out of the queue and closes the gap it leaves.
// No-op when the game holds no position. The clear is written first; the
// neighbor decrements follow as independent writes, so a failure mid-shift
// leaves a recoverable gap rather than losing any game's membership.
func (m *Manager) Remove(ctx context.Context, id string) error {
	games, err := m.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	target, ok := byID(games, id)
	if !ok {
		return fmt.Errorf("remove %s: %w", id, repository.ErrNotFound)
	}
	if !target.Queued() {
		return nil
	}
	removed := *target.QueuePosition

	if _, err := m.store.Update(ctx, id, repository.ClearQueuePosition()); err != nil {
		return fmt.Errorf("clear position of %s: %w", id, err)
	}

	for _, g := range sortedQueued(games) {
		if g.ID == id || *g.QueuePosition <= removed {
			continue
		}
		if _, err := m.store.Update(ctx, g.ID, repository.SetQueuePosition(*g.QueuePosition-1)); err != nil {
			return fmt.Errorf("shift %s down: %w", g.ID, err)
		}
	}
	metrics.RecordQueueRemove()
	metrics.UpdateQueueLength(countQueued(games) - 1)
	return nil
}

// Reorder moves the game to newPos, shifting the games between its old and
// new positions by one in the opposite direction. Exactly 1 + |shift set|
// writes are issued: the shifts first, then the moved game.
func (m *Manager) Reorder(ctx context.Context, id string, newPos int) error {
	games, err := m.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	target, ok := byID(games, id)
	if !ok {
		return fmt.Errorf("reorder %s: %w", id, repository.ErrNotFound)
	}
	if !target.Queued() {
		return fmt.Errorf("reorder %s: %w", id, ErrNotQueued)
	}
	oldPos := *target.QueuePosition
	if newPos == oldPos {
		return nil
	}
	queued := sortedQueued(games)
	if newPos < m.base || newPos > m.base+len(queued)-1 {
		return fmt.Errorf("reorder %s to %d: %w", id, newPos, ErrInvalidPosition)
	}

	for _, g := range queued {
		if g.ID == id {
			continue
		}
		pos := *g.QueuePosition
		switch {
		case newPos < oldPos && pos >= newPos && pos < oldPos:
			if _, err := m.store.Update(ctx, g.ID, repository.SetQueuePosition(pos+1)); err != nil {
				return fmt.Errorf("shift %s up: %w", g.ID, err)
			}
		case newPos > oldPos && pos > oldPos && pos <= newPos:
			if _, err := m.store.Update(ctx, g.ID, repository.SetQueuePosition(pos-1)); err != nil {
				return fmt.Errorf("shift %s down: %w", g.ID, err)
			}
		}
	}
	if _, err := m.store.Update(ctx, id, repository.SetQueuePosition(newPos)); err != nil {
		return fmt.Errorf("move %s to %d: %w", id, newPos, err)
	}
	metrics.RecordQueueReorder()
	return nil
}

// Repair rewrites all queued positions densely from the base, keeping the
// current order. It recovers the density invariant after a partial-failure
// gap or duplicate; games sharing a position are ordered by id.
func (m *Manager) Repair(ctx context.Context) error {
	games, err := m.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	want := m.base
	for _, g := range sortedQueued(games) {
		if *g.QueuePosition != want {
			if _, err := m.store.Update(ctx, g.ID, repository.SetQueuePosition(want)); err != nil {
				return fmt.Errorf("repair %s to %d: %w", g.ID, want, err)
			}
		}
		want++
	}
	metrics.RecordQueueRepair()
	m.log.Info(ctx, "queue repaired", logger.Int("queued", want-m.base))
	return nil
}

// IsQueued reports whether the game holds a queue position in the snapshot.
func IsQueued(games []model.Game, id string) bool {
	g, ok := byID(games, id)
	return ok && g.Queued()
}

// Queued projects the queue subset sorted by position.
func Queued(games []model.Game) []model.Game {
	return sortedQueued(games)
}

// Available projects the games not in the queue, keeping snapshot order.
func Available(games []model.Game) []model.Game {
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		if !g.Queued() {
			out = append(out, g)
		}
	}
	return out
}

func byID(games []model.Game, id string) (model.Game, bool) {
	for _, g := range games {
		if g.ID == id {
			return g, true
		}
	}
	return model.Game{}, false
}

func sortedQueued(games []model.Game) []model.Game {
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		if g.Queued() {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if *out[i].QueuePosition != *out[j].QueuePosition {
			return *out[i].QueuePosition < *out[j].QueuePosition
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func countQueued(games []model.Game) int {
	n := 0
	for _, g := range games {
		if g.Queued() {
			n++
		}
	}
	return n
}
