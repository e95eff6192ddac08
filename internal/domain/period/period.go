// Package period derives award period keys from calendar dates.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/pressplay/backlog/internal/domain/model"
)

// ErrUnknownPeriodType is returned for period types outside the closed set.
var ErrUnknownPeriodType = errors.New("unknown period type")

// Key returns the canonical period key for t at the given granularity.
// Keys are unique within a period type:
//
//	week    2024-W01 (ISO week)
//	month   2024-01
//	quarter 2024-Q1
//	year    2024
func Key(pt model.PeriodType, t time.Time) (string, error) {
	switch pt {
	case model.PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case model.PeriodMonth:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())), nil
	case model.PeriodQuarter:
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%04d-Q%d", t.Year(), quarter), nil
	case model.PeriodYear:
		return fmt.Sprintf("%04d", t.Year()), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriodType, pt)
	}
}

// Contains reports whether t falls inside the period identified by (pt, key).
func Contains(pt model.PeriodType, key string, t time.Time) bool {
	k, err := Key(pt, t)
	if err != nil {
		return false
	}
	return k == key
}
