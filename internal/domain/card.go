package domain

import "time"

// Status is the lifecycle stage of a card.
type Status string

const (
	StatusNew    Status = "new"
	StatusReview Status = "review"
)

const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// Content holds the user-authored sides of a card. The core never interprets
// Front or Back, and image fields are opaque file names (empty means none).
type Content struct {
	Front      string
	Back       string
	FrontImage string
	BackImage  string
}

// Schedule is the spaced-repetition state of a card.
// Interval is measured in review units, see sm2.Scheduler.
type Schedule struct {
	Status     Status
	Repetition int
	Interval   int
	EaseFactor float64
	NextReview *time.Time
}

// NewSchedule returns the schedule every card starts with.
func NewSchedule() Schedule {
	return Schedule{
		Status:     StatusNew,
		EaseFactor: DefaultEaseFactor,
	}
}

// DueAt reports whether the schedule has a next review at or before now.
func (s Schedule) DueAt(now time.Time) bool {
	return s.NextReview != nil && !s.NextReview.After(now)
}

// Card represents a single flashcard owned by a deck.
type Card struct {
	ID     int64
	DeckID int64
	Content
	Schedule
	Hash    string
	Created time.Time
}
