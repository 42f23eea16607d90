// Package stats keeps the cached deck counters in line with the cards
// they summarize.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/recall/internal/clock"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/storage"
)

// Count derives the counters of a deck from a snapshot of its cards.
func Count(cards []domain.Card, now time.Time) domain.Counts {
	c := domain.Counts{Total: len(cards)}
	for _, card := range cards {
		if card.Status == domain.StatusNew {
			c.New++
		}
		if card.DueAt(now) {
			c.Due++
		}
	}
	return c
}

// Aggregator recomputes deck counters against the clock.
type Aggregator struct {
	store *storage.Store
	clock clock.Clock
	log   *slog.Logger
}

// NewAggregator returns an Aggregator over store.
func NewAggregator(store *storage.Store, clk clock.Clock, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{store: store, clock: clk, log: log}
}

// Recompute scans the cards of a deck and stores the resulting counters.
// The scan and the write are one unit, serialized with card updates of the
// same deck.
func (a *Aggregator) Recompute(ctx context.Context, deckID int64) (domain.Counts, error) {
	var counts domain.Counts
	err := a.store.InDeck(ctx, deckID, func(ctx context.Context, q *storage.Queries) error {
		var err error
		counts, err = a.RecomputeIn(ctx, q, deckID)
		return err
	})
	return counts, err
}

// RecomputeIn is Recompute for callers that already hold the deck's unit,
// so counters commit together with the mutation that changed them.
func (a *Aggregator) RecomputeIn(ctx context.Context, q *storage.Queries, deckID int64) (domain.Counts, error) {
	cards, err := q.CardsByDeck(ctx, deckID)
	if err != nil {
		return domain.Counts{}, err
	}
	counts := Count(cards, a.clock.Now())
	if err := q.SetDeckCounts(ctx, deckID, counts); err != nil {
		return domain.Counts{}, fmt.Errorf("failed to store counters: %w", err)
	}
	return counts, nil
}

// RecomputeAll refreshes every deck. A deck deleted while the pass runs is
// skipped.
func (a *Aggregator) RecomputeAll(ctx context.Context) error {
	ids, err := a.store.DeckIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.Recompute(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to recompute deck %d: %w", id, err)
		}
	}
	return nil
}
