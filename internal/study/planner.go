package study

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/recall/internal/clock"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/sm2"
	"github.com/conorfennell/recall/internal/stats"
	"github.com/conorfennell/recall/internal/storage"
)

// DefaultBatchSize caps the cards pulled into one session.
const DefaultBatchSize = 20

// Source supplies study batches.
type Source interface {
	DeckByID(ctx context.Context, id int64) (domain.Deck, error)
	NewCards(ctx context.Context, deckID int64, limit int) ([]domain.Card, error)
	DueCards(ctx context.Context, deckID int64, now time.Time, limit int) ([]domain.Card, error)
}

// Planner builds sessions for a deck.
type Planner struct {
	source    Source
	updater   CardUpdater
	sched     sm2.Scheduler
	clock     clock.Clock
	batchSize int
	log       *slog.Logger
}

// NewPlanner returns a Planner. A batchSize <= 0 uses DefaultBatchSize.
func NewPlanner(source Source, updater CardUpdater, sched sm2.Scheduler, clk clock.Clock, batchSize int, log *slog.Logger) *Planner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Planner{
		source:    source,
		updater:   updater,
		sched:     sched,
		clock:     clk,
		batchSize: batchSize,
		log:       log,
	}
}

// Start opens a session over the deck's new cards (learn) or due cards
// (review). A deck with nothing to study yields domain.ErrEmptyBatch.
func (p *Planner) Start(ctx context.Context, deckID int64, mode Mode) (*Session, error) {
	if _, err := p.source.DeckByID(ctx, deckID); err != nil {
		return nil, err
	}

	var (
		cards []domain.Card
		err   error
	)
	switch mode {
	case Learn:
		cards, err = p.source.NewCards(ctx, deckID, p.batchSize)
	case Review:
		cards, err = p.source.DueCards(ctx, deckID, p.clock.Now(), p.batchSize)
	default:
		return nil, fmt.Errorf("unsupported study mode %v", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build %s batch: %w", mode, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("deck %d, %s: %w", deckID, mode, domain.ErrEmptyBatch)
	}

	p.log.Info("study session started", "deck_id", deckID, "mode", mode, "cards", len(cards))
	return NewSession(deckID, mode, cards, p.updater, p.sched, p.clock, p.log), nil
}

// StoreUpdater is the CardUpdater backed by the card store. Each update
// refreshes the deck counters in the same transaction.
type StoreUpdater struct {
	store *storage.Store
	agg   *stats.Aggregator
}

// NewStoreUpdater returns a StoreUpdater.
func NewStoreUpdater(store *storage.Store, agg *stats.Aggregator) *StoreUpdater {
	return &StoreUpdater{store: store, agg: agg}
}

func (u *StoreUpdater) UpdateCard(ctx context.Context, deckID, cardID int64, fn func(domain.Card) (domain.Schedule, error)) (domain.Card, error) {
	var card domain.Card
	err := u.store.InDeck(ctx, deckID, func(ctx context.Context, q *storage.Queries) error {
		stored, err := q.CardByID(ctx, cardID)
		if err != nil {
			return err
		}
		if stored.DeckID != deckID {
			return fmt.Errorf("card %d in deck %d: %w", cardID, deckID, domain.ErrNotFound)
		}
		next, err := fn(stored)
		if err != nil {
			return err
		}
		if err := q.UpdateSchedule(ctx, cardID, next); err != nil {
			return err
		}
		if _, err := u.agg.RecomputeIn(ctx, q, deckID); err != nil {
			return err
		}
		stored.Schedule = next
		card = stored
		return nil
	})
	return card, err
}
