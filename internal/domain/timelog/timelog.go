// Package timelog implements the time-tracker app: start/stop sessions and
// per-activity duration summaries. At most one session runs at a time.
package timelog

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
)

// Sentinel kinds for time tracking errors.
var (
	ErrSessionRunning  = errors.New("a session is already running")
	ErrNoSession       = errors.New("no session is running")
	ErrInvalidActivity = errors.New("activity must not be empty")
)

// Tracker records time sessions in memory.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]model.TimeSession
	running  string // id of the running session, empty when none
	now      func() time.Time
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithClock overrides the tracker's clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates an empty tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		sessions: make(map[string]model.TimeSession),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a session for the activity.
func (t *Tracker) Start(ctx context.Context, activity string) (model.TimeSession, error) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return model.TimeSession{}, ErrInvalidActivity
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running != "" {
		return model.TimeSession{}, fmt.Errorf("start %q: %w", activity, ErrSessionRunning)
	}
	s := model.TimeSession{
		ID:        uuid.NewString(),
		Activity:  activity,
		StartedAt: t.now(),
	}
	t.sessions[s.ID] = s
	t.running = s.ID
	return s, nil
}

// Stop ends the running session and returns it.
func (t *Tracker) Stop(ctx context.Context) (model.TimeSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running == "" {
		return model.TimeSession{}, ErrNoSession
	}
	s := t.sessions[t.running]
	ended := t.now()
	s.EndedAt = &ended
	t.sessions[s.ID] = s
	t.running = ""
	return s, nil
}

// Running returns the current session, if any.
func (t *Tracker) Running(ctx context.Context) (model.TimeSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.running == "" {
		return model.TimeSession{}, false
	}
	return t.sessions[t.running], true
}

// Sessions returns all sessions, newest first.
func (t *Tracker) Sessions(ctx context.Context) []model.TimeSession {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.TimeSession, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Summary returns the total tracked duration per activity. A running
// session counts up to now.
func (t *Tracker) Summary(ctx context.Context) map[string]time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	out := make(map[string]time.Duration)
	for _, s := range t.sessions {
		out[s.Activity] += s.Duration(now)
	}
	return out
}

// Count returns the number of recorded sessions.
func (t *Tracker) Count(ctx context.Context) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
