package study

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/sm2"
)

var (
	// ErrInvalidOutcome is returned when an outcome does not apply to the
	// session's mode.
	ErrInvalidOutcome = errors.New("study: outcome not valid for mode")
	// ErrNotCurrent is returned when grading a card that is not at the
	// front of the queue.
	ErrNotCurrent = errors.New("study: card is not current")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("study: session closed")
)

type outcomeKind int

const (
	kindRepeat outcomeKind = iota + 1
	kindLearned
	kindGraded
)

// Outcome is the user's verdict on the current card.
type Outcome struct {
	kind  outcomeKind
	grade sm2.Grade
}

// Repeat sends the card to the back of the queue.
func Repeat() Outcome { return Outcome{kind: kindRepeat} }

// Learned retires a new card into the review cycle.
func Learned() Outcome { return Outcome{kind: kindLearned} }

// Graded retires a review card with a passing grade.
func Graded(g sm2.Grade) Outcome { return Outcome{kind: kindGraded, grade: g} }

func (o Outcome) String() string {
	switch o.kind {
	case kindRepeat:
		return "repeat"
	case kindLearned:
		return "learned"
	case kindGraded:
		return strconv.Itoa(int(o.grade))
	}
	return "invalid"
}

// ParseOutcome reads "repeat", "learned", a grade number or a grade name.
func ParseOutcome(s string) (Outcome, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "repeat", "again":
		return Repeat(), nil
	case "learned":
		return Learned(), nil
	case "hard":
		return Graded(sm2.Hard), nil
	case "good":
		return Graded(sm2.Good), nil
	case "easy":
		return Graded(sm2.Easy), nil
	default:
		n, err := strconv.Atoi(v)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
		}
		return Graded(sm2.Grade(n)), nil
	}
}

// step is what grading a card does to a session.
type step struct {
	persist bool
	requeue bool
	next    func(cur domain.Schedule) (domain.Schedule, error)
}

// Mode decides which outcomes a session accepts and what each one does.
type Mode interface {
	fmt.Stringer
	plan(s sm2.Scheduler, o Outcome, now time.Time) (step, error)
}

type learnMode struct{}

type reviewMode struct{}

var (
	// Learn sessions introduce new cards.
	Learn Mode = learnMode{}
	// Review sessions revisit due cards.
	Review Mode = reviewMode{}
)

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "learn":
		return Learn, nil
	case "review":
		return Review, nil
	}
	return nil, fmt.Errorf("unknown study mode %q", s)
}

func (learnMode) String() string { return "learn" }

func (learnMode) plan(s sm2.Scheduler, o Outcome, now time.Time) (step, error) {
	switch o.kind {
	case kindRepeat:
		return step{requeue: true}, nil
	case kindLearned:
		return step{persist: true, next: func(domain.Schedule) (domain.Schedule, error) {
			return s.Learn(now), nil
		}}, nil
	}
	return step{}, fmt.Errorf("%w: %s in learn mode", ErrInvalidOutcome, o)
}

func (reviewMode) String() string { return "review" }

func (reviewMode) plan(s sm2.Scheduler, o Outcome, now time.Time) (step, error) {
	switch o.kind {
	case kindRepeat:
		return step{persist: true, requeue: true, next: func(cur domain.Schedule) (domain.Schedule, error) {
			return s.Advance(cur, sm2.Again, now)
		}}, nil
	case kindGraded:
		if !o.grade.Valid() {
			return step{}, fmt.Errorf("%w: %d", sm2.ErrInvalidGrade, int(o.grade))
		}
		if o.grade == sm2.Again {
			return step{}, fmt.Errorf("%w: failed reviews are repeated", ErrInvalidOutcome)
		}
		return step{persist: true, next: func(cur domain.Schedule) (domain.Schedule, error) {
			return s.Advance(cur, o.grade, now)
		}}, nil
	}
	return step{}, fmt.Errorf("%w: %s in review mode", ErrInvalidOutcome, o)
}
