// Package model contains the shared record types for the tracker apps.
package model

import "time"

// PeriodType identifies the granularity of an award period.
type PeriodType string

// Supported period granularities.
const (
	PeriodWeek    PeriodType = "week"
	PeriodMonth   PeriodType = "month"
	PeriodQuarter PeriodType = "quarter"
	PeriodYear    PeriodType = "year"
)

// Valid reports whether the period type is one of the supported granularities.
func (p PeriodType) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	default:
		return false
	}
}

// Slot identifies a single award slot: one category in one concrete period.
// Label and Icon are display metadata carried onto the constructed award.
type Slot struct {
	Category   string     `json:"category"`
	Label      string     `json:"label,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	PeriodType PeriodType `json:"period_type"`
	PeriodKey  string     `json:"period_key"`
}

// NewAward constructs the award a game receives for winning this slot.
func (s Slot) NewAward(awardedAt time.Time) Award {
	return Award{
		Category:   s.Category,
		Label:      s.Label,
		Icon:       s.Icon,
		PeriodType: s.PeriodType,
		PeriodKey:  s.PeriodKey,
		AwardedAt:  awardedAt,
	}
}

// Award records one game winning one category in one period.
type Award struct {
	Category   string     `json:"category"`
	Label      string     `json:"label,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	PeriodType PeriodType `json:"period_type"`
	PeriodKey  string     `json:"period_key"`
	AwardedAt  time.Time  `json:"awarded_at"`
}

// Matches reports whether the award occupies the given slot. Slot identity is
// the (category, period key) tuple only; period type and display metadata do
// not participate.
func (a Award) Matches(s Slot) bool {
	return a.Category == s.Category && a.PeriodKey == s.PeriodKey
}

// Game is a collection entry that can hold awards and occupy a queue slot.
// QueuePosition is nil when the game is not in the play queue.
type Game struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Platform      string    `json:"platform,omitempty"`
	Status        string    `json:"status,omitempty"`
	Awards        []Award   `json:"awards"`
	QueuePosition *int      `json:"queue_position,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// Queued reports whether the game currently occupies a queue slot.
func (g Game) Queued() bool {
	return g.QueuePosition != nil
}

// HoldsAward reports whether the game holds an award for the slot.
func (g Game) HoldsAward(s Slot) bool {
	for _, a := range g.Awards {
		if a.Matches(s) {
			return true
		}
	}
	return false
}

// MoodEntry is a single mood journal record.
type MoodEntry struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Mood      int       `json:"mood"` // 1 (worst) to 5 (best)
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeSession is a single tracked span of time spent on an activity.
// EndedAt is nil while the session is still running.
type TimeSession struct {
	ID        string     `json:"id"`
	Activity  string     `json:"activity"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Running reports whether the session has not been stopped yet.
func (s TimeSession) Running() bool {
	return s.EndedAt == nil
}

// Duration returns the elapsed span, using now for a running session.
func (s TimeSession) Duration(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}
