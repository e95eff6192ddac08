// Package repository defines the game record store contract and errors.
package repository

import (
	"context"

	"github.com/pressplay/backlog/internal/domain/model"
)

// Patch carries the fields an Update call replaces. A nil field is left
// untouched; a set field replaces the stored value wholesale. There is no
// field-level merge and no compare-and-swap: a caller that read stale data
// before writing silently wins over the concurrent writer.
type Patch struct {
	// Awards, when non-nil, replaces the full award list.
	Awards *[]model.Award

	// Queue, when non-nil, replaces the queue position. A nil Position
	// inside clears it (removes the game from the queue).
	Queue *QueueField
}

// QueueField wraps the tri-state queue position update.
type QueueField struct {
	Position *int
}

// ReplaceAwards builds a patch that replaces the award list.
func ReplaceAwards(awards []model.Award) Patch {
	return Patch{Awards: &awards}
}

// SetQueuePosition builds a patch that sets the queue position.
func SetQueuePosition(pos int) Patch {
	return Patch{Queue: &QueueField{Position: &pos}}
}

// ClearQueuePosition builds a patch that removes the game from the queue.
func ClearQueuePosition() Patch {
	return Patch{Queue: &QueueField{}}
}

// Store provides per-record access to the game collection. Implementations
// offer no transactions or batching; multi-record operations are issued as
// independent sequential calls by the domain layer.
type Store interface {
	// GetAll returns a snapshot of every game in the collection.
	GetAll(ctx context.Context) ([]model.Game, error)

	// Get returns the game with the given id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.Game, error)

	// Create persists a new game. An empty id is assigned by the store.
	Create(ctx context.Context, g model.Game) (model.Game, error)

	// Update applies the patch to the game with the given id and returns
	// the updated record. Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, id string, p Patch) (model.Game, error)

	// Delete removes the game with the given id.
	// Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of games tracked in the collection.
	Count(ctx context.Context) int
}
