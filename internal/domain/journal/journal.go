// Package journal implements the mood/diary app: entry CRUD, per-period
// mood statistics, and a generated narrative recap.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/internal/domain/narrative"
	"github.com/pressplay/backlog/internal/domain/period"
)

// Sentinel kinds for journal errors.
var (
	ErrInvalidMood = errors.New("mood must be between 1 and 5")
	ErrNotFound    = errors.New("journal entry not found")
	ErrNoEntries   = errors.New("no entries in period")
)

const (
	moodMin = 1
	moodMax = 5
)

const recapSystemPrompt = `You write short, warm, first-person diary recaps. ` +
	`Given dated mood scores (1 worst to 5 best) and notes, summarize the period ` +
	`in at most four sentences. Plain text only, no lists, no markdown.`

// Stats aggregates mood entries for one period.
type Stats struct {
	PeriodType  model.PeriodType `json:"period_type"`
	PeriodKey   string           `json:"period_key"`
	Entries     int              `json:"entries"`
	AverageMood float64          `json:"average_mood"`
	BestDay     time.Time        `json:"best_day"`
	WorstDay    time.Time        `json:"worst_day"`
}

// Journal keeps mood entries in memory and generates recaps on demand.
type Journal struct {
	mu      sync.RWMutex
	entries map[string]model.MoodEntry
	gen     narrative.Generator
	now     func() time.Time
}

// Option applies a configuration option to the Journal.
type Option func(*Journal)

// WithGenerator sets the narrative generator used for recaps.
func WithGenerator(gen narrative.Generator) Option {
	return func(j *Journal) {
		j.gen = gen
	}
}

// WithClock overrides the clock used for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// New creates an empty journal.
func New(opts ...Option) *Journal {
	j := &Journal{
		entries: make(map[string]model.MoodEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Add records a mood entry for the given day.
func (j *Journal) Add(ctx context.Context, date time.Time, mood int, note string) (model.MoodEntry, error) {
	if mood < moodMin || mood > moodMax {
		return model.MoodEntry{}, fmt.Errorf("mood %d: %w", mood, ErrInvalidMood)
	}

	e := model.MoodEntry{
		ID:        uuid.NewString(),
		Date:      date,
		Mood:      mood,
		Note:      strings.TrimSpace(note),
		CreatedAt: j.now(),
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[e.ID] = e
	return e, nil
}

// Delete removes an entry by id.
func (j *Journal) Delete(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.entries[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(j.entries, id)
	return nil
}

// List returns all entries, newest first.
func (j *Journal) List(ctx context.Context) []model.MoodEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]model.MoodEntry, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].Date.Equal(out[k].Date) {
			return out[i].Date.After(out[k].Date)
		}
		return out[i].ID < out[k].ID
	})
	return out
}

// Stats aggregates the entries falling inside (pt, key).
func (j *Journal) Stats(ctx context.Context, pt model.PeriodType, key string) (Stats, error) {
	entries, err := j.inPeriod(pt, key)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{PeriodType: pt, PeriodKey: key, Entries: len(entries)}
	if len(entries) == 0 {
		return s, nil
	}

	sum := 0
	best, worst := entries[0], entries[0]
	for _, e := range entries {
		sum += e.Mood
		if e.Mood > best.Mood {
			best = e
		}
		if e.Mood < worst.Mood {
			worst = e
		}
	}
	s.AverageMood = float64(sum) / float64(len(entries))
	s.BestDay = best.Date
	s.WorstDay = worst.Date
	return s, nil
}

// Recap asks the language model for a short summary of the period's entries.
func (j *Journal) Recap(ctx context.Context, pt model.PeriodType, key string) (string, error) {
	if j.gen == nil || !j.gen.Available() {
		return "", narrative.ErrUnavailable
	}
	entries, err := j.inPeriod(pt, key)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("recap %s %s: %w", pt, key, ErrNoEntries)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s %s\n", pt, key)
	for _, e := range entries {
		fmt.Fprintf(&b, "%s mood=%d %s\n", e.Date.Format("2006-01-02"), e.Mood, e.Note)
	}

	text, err := j.gen.Complete(ctx, recapSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("generate recap: %w", err)
	}
	return text, nil
}

// Count returns the number of entries.
func (j *Journal) Count(ctx context.Context) int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// inPeriod returns the period's entries ordered by date ascending.
func (j *Journal) inPeriod(pt model.PeriodType, key string) ([]model.MoodEntry, error) {
	if !pt.Valid() {
		return nil, fmt.Errorf("%w: %q", period.ErrUnknownPeriodType, pt)
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []model.MoodEntry
	for _, e := range j.entries {
		if period.Contains(pt, key, e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Date.Before(out[k].Date) })
	return out, nil
}
