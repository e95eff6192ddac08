// Package awards keeps award slot ownership consistent across the collection.
//
// A slot is a (category, period key) tuple; at most one game may hold an
// award for a slot at any time. The store offers no transactions, so moving
// a slot between games is two independent writes ordered strip-before-grant:
// a failure between them leaves the slot unheld, which is detectable and
// re-triable, instead of double-held.
//
// Known limitation: there is no version token or compare-and-swap, so two
// sessions racing to assign the same slot resolve last-writer-wins.
package awards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressplay/backlog/internal/adapters/repository"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/pkg/logger"
	"github.com/pressplay/backlog/pkg/metrics"
)

// Reconciler grants, moves, and clears slot winners.
type Reconciler struct {
	store repository.Store
	log   logger.Logger
	now   func() time.Time
}

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock overrides the clock used for award timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReconciler creates a Reconciler over the given store.
func NewReconciler(store repository.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get()
	}
	return r
}

// AssignWinner makes newID the sole holder of the slot.
//
// previousID is the holder as known by the caller; empty means a first-ever
// pick. When set and distinct from newID, the previous holder is stripped
// first. A strip failure is logged and the grant still proceeds, so the
// caller's view converges on the new winner; the strip error is joined into
// the returned error for surfacing.
//
// The new holder is re-read after the strip rather than taken from any
// earlier snapshot: the strip may have mutated overlapping state.
func (r *Reconciler) AssignWinner(ctx context.Context, slot model.Slot, newID, previousID string) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	if strings.TrimSpace(newID) == "" {
		return fmt.Errorf("assign %s/%s: %w", slot.Category, slot.PeriodKey, ErrMissingWinner)
	}

	var stripErr error
	if previousID != "" && previousID != newID {
		if err := r.strip(ctx, slot, previousID); err != nil {
			metrics.RecordPickStripError()
			r.log.Warn(ctx, "failed to strip previous slot holder",
				logger.String("category", slot.Category),
				logger.String("period_key", slot.PeriodKey),
				logger.String("previous_id", previousID),
				logger.Error(err),
			)
			stripErr = fmt.Errorf("strip previous holder %s: %w", previousID, err)
		}
	}

	g, err := r.store.Get(ctx, newID)
	if err != nil {
		return errors.Join(stripErr, fmt.Errorf("read new holder %s: %w", newID, err))
	}

	// Filter-then-append keeps re-confirming the same winner idempotent and
	// drops any stale duplicate for the slot.
	kept := withoutSlot(g.Awards, slot)
	kept = append(kept, slot.NewAward(r.now()))
	if _, err := r.store.Update(ctx, newID, repository.ReplaceAwards(kept)); err != nil {
		return errors.Join(stripErr, fmt.Errorf("grant award to %s: %w", newID, err))
	}

	metrics.RecordPickAssigned()
	r.log.Info(ctx, "slot winner assigned",
		logger.String("category", slot.Category),
		logger.String("period_key", slot.PeriodKey),
		logger.String("game_id", newID),
	)
	return stripErr
}

// ClearWinner removes any award matching the slot from the game. No-op when
// the game holds none.
func (r *Reconciler) ClearWinner(ctx context.Context, slot model.Slot, id string) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	if err := r.strip(ctx, slot, id); err != nil {
		return err
	}
	metrics.RecordPickCleared()
	return nil
}

// strip removes every award matching the slot from the game, skipping the
// write entirely when nothing matched.
func (r *Reconciler) strip(ctx context.Context, slot model.Slot, id string) error {
	g, err := r.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("read holder %s: %w", id, err)
	}
	kept := withoutSlot(g.Awards, slot)
	if len(kept) == len(g.Awards) {
		return nil
	}
	if _, err := r.store.Update(ctx, id, repository.ReplaceAwards(kept)); err != nil {
		return fmt.Errorf("write stripped awards for %s: %w", id, err)
	}
	return nil
}

// HolderOf returns the id of the game holding the slot in the snapshot,
// or false when the slot is unheld.
func HolderOf(games []model.Game, slot model.Slot) (string, bool) {
	for _, g := range games {
		if g.HoldsAward(slot) {
			return g.ID, true
		}
	}
	return "", false
}

func withoutSlot(in []model.Award, slot model.Slot) []model.Award {
	out := make([]model.Award, 0, len(in))
	for _, a := range in {
		if !a.Matches(slot) {
			out = append(out, a)
		}
	}
	return out
}

func validateSlot(slot model.Slot) error {
	switch {
	case strings.TrimSpace(slot.Category) == "":
		return fmt.Errorf("missing category: %w", ErrInvalidSlot)
	case strings.TrimSpace(slot.PeriodKey) == "":
		return fmt.Errorf("missing period key: %w", ErrInvalidSlot)
	case !slot.PeriodType.Valid():
		return fmt.Errorf("period type %q: %w", slot.PeriodType, ErrInvalidSlot)
	}
	return nil
}
