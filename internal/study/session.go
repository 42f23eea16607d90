// Package study runs learn and review sessions over a batch of cards.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/conorfennell/recall/internal/clock"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/sm2"
)

//go:generate mockgen -source=session.go -destination=../mocks/study/mock_session.go -package=mock_study

// CardUpdater stores new scheduling state for a card. fn receives the
// stored card and returns the schedule to write; reading, writing and the
// deck counter refresh happen as one unit.
type CardUpdater interface {
	UpdateCard(ctx context.Context, deckID, cardID int64, fn func(domain.Card) (domain.Schedule, error)) (domain.Card, error)
}

// State is the lifecycle stage of a session.
type State int

const (
	InProgress State = iota
	Completed
)

func (s State) String() string {
	if s == Completed {
		return "completed"
	}
	return "in_progress"
}

// Session is a FIFO of card snapshots owned by one study pass. A card
// leaves the queue when it is retired and goes to the back when repeated.
type Session struct {
	deckID  int64
	mode    Mode
	updater CardUpdater
	sched   sm2.Scheduler
	clock   clock.Clock
	log     *slog.Logger

	mu        sync.Mutex
	queue     []domain.Card
	completed int
	closed    bool
}

// NewSession starts a session over cards in the given order.
func NewSession(deckID int64, mode Mode, cards []domain.Card, updater CardUpdater, sched sm2.Scheduler, clk clock.Clock, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	queue := make([]domain.Card, len(cards))
	copy(queue, cards)
	return &Session{
		deckID:  deckID,
		mode:    mode,
		updater: updater,
		sched:   sched,
		clock:   clk,
		log:     log,
		queue:   queue,
	}
}

func (s *Session) DeckID() int64 { return s.deckID }

func (s *Session) Mode() Mode { return s.mode }

// Current returns the card at the front of the queue.
func (s *Session) Current() (domain.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.queue) == 0 {
		return domain.Card{}, false
	}
	return s.queue[0], true
}

// State describes the queue only: Completed once no cards remain. Closing
// a session does not change it; Closed is the signal that grading has stopped.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Completed
	}
	return InProgress
}

// Remaining is the number of cards still queued.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Completed is the number of cards retired so far.
func (s *Session) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Closed reports whether Close was called. A closed session accepts no
// further grades whatever its State.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Preview returns the intervals each passing grade would give the current
// card. It is only available in review mode, once the ease factor drives
// the interval.
func (s *Session) Preview() (sm2.Preview, bool) {
	if s.mode != Review {
		return sm2.Preview{}, false
	}
	card, ok := s.Current()
	if !ok {
		return sm2.Preview{}, false
	}
	return s.sched.Preview(card.Schedule)
}

// Grade applies o to the card at the front of the queue, which must be
// cardID. On a storage failure the queue is left as it was, except that a
// card deleted from the store is dropped.
func (s *Session) Grade(ctx context.Context, cardID int64, o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if len(s.queue) == 0 || s.queue[0].ID != cardID {
		return fmt.Errorf("%w: %d", ErrNotCurrent, cardID)
	}

	st, err := s.mode.plan(s.sched, o, s.clock.Now())
	if err != nil {
		return err
	}

	card := s.queue[0]
	if st.persist {
		updated, err := s.updater.UpdateCard(ctx, s.deckID, card.ID, func(stored domain.Card) (domain.Schedule, error) {
			return st.next(stored.Schedule)
		})
		if errors.Is(err, domain.ErrNotFound) {
			s.queue = s.queue[1:]
			s.log.Warn("card vanished during session", "deck_id", s.deckID, "card_id", card.ID)
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to record %s for card %d: %w", o, card.ID, err)
		}
		card = updated
	}

	s.queue = s.queue[1:]
	if st.requeue {
		s.queue = append(s.queue, card)
	} else {
		s.completed++
	}

	s.log.Debug("card graded",
		"deck_id", s.deckID,
		"card_id", card.ID,
		"mode", s.mode,
		"outcome", o,
		"interval", card.Interval,
		"remaining", len(s.queue),
	)
	return nil
}

// Close stops the session. Cards not yet graded are left untouched.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
