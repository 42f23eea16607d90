// Package sm2 implements the SM-2 variant used to schedule card reviews.
// Everything here is pure: no I/O and no reading of the wall clock.
package sm2

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

// Grade is the user's response to a review.
type Grade int

const (
	Again Grade = 1
	Hard  Grade = 3
	Good  Grade = 4
	Easy  Grade = 5
)

// ErrInvalidGrade is returned for grades outside {Again, Hard, Good, Easy}.
var ErrInvalidGrade = errors.New("sm2: invalid grade")

// Valid reports whether g is one of the accepted grades.
func (g Grade) Valid() bool {
	switch g {
	case Again, Hard, Good, Easy:
		return true
	}
	return false
}

func (g Grade) String() string {
	switch g {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	}
	return fmt.Sprintf("grade(%d)", int(g))
}

// DefaultUnit is the length of one interval step in production.
const DefaultUnit = 24 * time.Hour

// Scheduler computes schedule transitions. Unit is the review unit: the
// only place where an interval becomes a wall-clock duration.
type Scheduler struct {
	Unit time.Duration
}

// New returns a Scheduler for the given unit, falling back to DefaultUnit.
func New(unit time.Duration) Scheduler {
	if unit <= 0 {
		unit = DefaultUnit
	}
	return Scheduler{Unit: unit}
}

// MaxInterval bounds the interval so repeated easy reviews cannot overflow.
const MaxInterval = math.MaxInt32

// Due returns the instant that lies interval units after now. Offsets too
// large for a time.Duration saturate at the maximum duration.
func (s Scheduler) Due(now time.Time, interval int) time.Time {
	unit := s.Unit
	if unit <= 0 {
		unit = DefaultUnit
	}
	if interval > 0 && int64(interval) > math.MaxInt64/int64(unit) {
		return now.Add(time.Duration(math.MaxInt64))
	}
	return now.Add(time.Duration(interval) * unit)
}

// Learn is the first successful pass over a new card.
func (s Scheduler) Learn(now time.Time) domain.Schedule {
	next := s.Due(now, 1)
	return domain.Schedule{
		Status:     domain.StatusReview,
		Repetition: 0,
		Interval:   1,
		EaseFactor: domain.DefaultEaseFactor,
		NextReview: &next,
	}
}

// Advance applies a review grade to cur.
func (s Scheduler) Advance(cur domain.Schedule, g Grade, now time.Time) (domain.Schedule, error) {
	if !g.Valid() {
		return cur, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}

	next := domain.Schedule{
		Status:     domain.StatusReview,
		Repetition: max(cur.Repetition, 0),
		Interval:   max(cur.Interval, 0),
		EaseFactor: clampEase(cur.EaseFactor),
	}

	if g < Hard {
		next.Repetition = 0
		next.Interval = 1
	} else {
		switch next.Repetition {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.EaseFactor = UpdateEaseFactor(next.EaseFactor, g)
			next.Interval = nextInterval(next.Interval, next.EaseFactor)
		}
		next.Repetition++
	}

	due := s.Due(now, next.Interval)
	next.NextReview = &due
	return next, nil
}

// Preview lists the interval each passing grade would produce.
type Preview struct {
	Hard int
	Good int
	Easy int
}

// Preview reports the intervals Hard, Good and Easy would yield for cur.
// It returns false while the card is in the fixed-interval regime
// (repetition <= 2) where the ease factor does not drive the outcome.
func (s Scheduler) Preview(cur domain.Schedule) (Preview, bool) {
	if cur.Repetition <= 2 {
		return Preview{}, false
	}
	ef := clampEase(cur.EaseFactor)
	interval := max(cur.Interval, 0)
	return Preview{
		Hard: nextInterval(interval, UpdateEaseFactor(ef, Hard)),
		Good: nextInterval(interval, UpdateEaseFactor(ef, Good)),
		Easy: nextInterval(interval, UpdateEaseFactor(ef, Easy)),
	}, true
}

// UpdateEaseFactor applies the SM-2 ease delta for grade g, floored at
// domain.MinEaseFactor.
func UpdateEaseFactor(ef float64, g Grade) float64 {
	q := float64(g)
	delta := 0.1 - (5-q)*(0.08+(5-q)*0.02)
	return clampEase(ef + delta)
}

func nextInterval(interval int, ef float64) int {
	next := math.Round(float64(interval) * ef)
	if next >= MaxInterval {
		return MaxInterval
	}
	return int(next)
}

func clampEase(ef float64) float64 {
	if math.IsNaN(ef) || ef < domain.MinEaseFactor {
		return domain.MinEaseFactor
	}
	return ef
}
