package awards

import (
	"sort"
	"sync"

	"github.com/pressplay/backlog/internal/domain/model"
)

// PickBoard is the caller-visible "current winner per slot" view. It is
// updated synchronously before the underlying writes are confirmed, so the
// UI never waits on the store. There is no automatic rollback: after a
// failed write the board keeps the attempted state until Resync is called
// with an authoritative snapshot.
type PickBoard struct {
	mu      sync.RWMutex
	current map[slotKey]Pick
}

// Pick is one board entry.
type Pick struct {
	Category  string `json:"category"`
	PeriodKey string `json:"period_key"`
	GameID    string `json:"game_id"`
}

type slotKey struct {
	category  string
	periodKey string
}

func keyOf(slot model.Slot) slotKey {
	return slotKey{category: slot.Category, periodKey: slot.PeriodKey}
}

// NewPickBoard creates an empty board.
func NewPickBoard() *PickBoard {
	return &PickBoard{current: make(map[slotKey]Pick)}
}

// Apply optimistically records gameID as the slot winner.
func (b *PickBoard) Apply(slot model.Slot, gameID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current[keyOf(slot)] = Pick{
		Category:  slot.Category,
		PeriodKey: slot.PeriodKey,
		GameID:    gameID,
	}
}

// Clear optimistically removes the slot's winner.
func (b *PickBoard) Clear(slot model.Slot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.current, keyOf(slot))
}

// Current returns the board's winner for the slot.
func (b *PickBoard) Current(slot model.Slot) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.current[keyOf(slot)]
	return p.GameID, ok
}

// Resync rebuilds the whole board from an authoritative snapshot, discarding
// any optimistic state that never reached the store.
func (b *PickBoard) Resync(games []model.Game) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = make(map[slotKey]Pick)
	for _, g := range games {
		for _, a := range g.Awards {
			b.current[slotKey{category: a.Category, periodKey: a.PeriodKey}] = Pick{
				Category:  a.Category,
				PeriodKey: a.PeriodKey,
				GameID:    g.ID,
			}
		}
	}
}

// Picks returns the board entries sorted by category then period key.
func (b *PickBoard) Picks() []Pick {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Pick, 0, len(b.current))
	for _, p := range b.current {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].PeriodKey < out[j].PeriodKey
	})
	return out
}
