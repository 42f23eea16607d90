package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/recall/internal/clock"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/sm2"
	"github.com/conorfennell/recall/internal/storage"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	path  string
	store *storage.Store
	clock *clock.Fake
	agg   *Aggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recall.db")
	store, err := storage.Open(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clk := clock.NewFake(t0)
	return &fixture{path: path, store: store, clock: clk, agg: NewAggregator(store, clk, nil)}
}

func (f *fixture) addCards(t *testing.T, deckID int64, n int) []domain.Card {
	t.Helper()
	var cards []domain.Card
	for i := 0; i < n; i++ {
		c, err := f.store.InsertCard(context.Background(), deckID, domain.Content{Front: "f", Back: "b"}, "", t0)
		require.NoError(t, err)
		cards = append(cards, c)
	}
	return cards
}

func TestCount(t *testing.T) {
	past := t0.Add(-time.Hour)
	future := t0.Add(time.Hour)

	cards := []domain.Card{
		{Schedule: domain.NewSchedule()},
		{Schedule: domain.NewSchedule()},
		{Schedule: domain.Schedule{Status: domain.StatusReview, NextReview: &past}},
		{Schedule: domain.Schedule{Status: domain.StatusReview, NextReview: &t0}},
		{Schedule: domain.Schedule{Status: domain.StatusReview, NextReview: &future}},
		// A review card whose timestamp could not be read.
		{Schedule: domain.Schedule{Status: domain.StatusReview}},
	}

	assert.Equal(t, domain.Counts{Total: 6, New: 2, Due: 2}, Count(cards, t0))
	assert.Equal(t, domain.Counts{}, Count(nil, t0))
}

func TestRecompute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deck, err := f.store.InsertDeck(ctx, "Spanish", t0)
	require.NoError(t, err)
	cards := f.addCards(t, deck.ID, 3)

	sched := sm2.New(time.Hour)
	require.NoError(t, f.store.UpdateSchedule(ctx, cards[0].ID, sched.Learn(t0)))

	counts, err := f.agg.Recompute(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Total: 3, New: 2, Due: 0}, counts)

	f.clock.Advance(time.Hour)
	counts, err = f.agg.Recompute(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Total: 3, New: 2, Due: 1}, counts)

	stored, err := f.store.DeckByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, counts, stored.Counts)

	again, err := f.agg.Recompute(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, counts, again, "recompute is idempotent")

	_, err = f.agg.Recompute(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecompute_MalformedTimestampIsNotDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deck, err := f.store.InsertDeck(ctx, "Spanish", t0)
	require.NoError(t, err)
	cards := f.addCards(t, deck.ID, 2)
	require.NoError(t, f.store.UpdateSchedule(ctx, cards[0].ID, sm2.New(time.Minute).Learn(t0)))

	raw, err := sqlx.Open("sqlite", f.path)
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.Exec(`UPDATE cards SET status = 'review', next_review = '31/02/2025' WHERE id = ?`, cards[1].ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	counts, err := f.agg.Recompute(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Counts{Total: 2, New: 0, Due: 1}, counts)
}

func TestRecomputeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.store.InsertDeck(ctx, "A", t0)
	require.NoError(t, err)
	b, err := f.store.InsertDeck(ctx, "B", t0)
	require.NoError(t, err)
	f.addCards(t, a.ID, 2)
	f.addCards(t, b.ID, 1)

	require.NoError(t, f.agg.RecomputeAll(ctx))

	decks, err := f.store.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.Equal(t, domain.Counts{Total: 2, New: 2}, decks[0].Counts)
	assert.Equal(t, domain.Counts{Total: 1, New: 1}, decks[1].Counts)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, f.agg.RecomputeAll(cancelled), context.Canceled)
}

func TestRefresher_Run(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deck, err := f.store.InsertDeck(ctx, "Spanish", t0)
	require.NoError(t, err)
	cards := f.addCards(t, deck.ID, 1)
	require.NoError(t, f.store.UpdateSchedule(ctx, cards[0].ID, sm2.New(time.Hour).Learn(t0)))

	done := make(chan struct{})
	go func() {
		NewRefresher(f.agg, 5*time.Millisecond, nil).Run(ctx)
		close(done)
	}()

	f.clock.Advance(2 * time.Hour)
	assert.Eventually(t, func() bool {
		d, err := f.store.DeckByID(context.Background(), deck.ID)
		return err == nil && d.Counts.Due == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestRefresher_Disabled(t *testing.T) {
	f := newFixture(t)
	done := make(chan struct{})
	go func() {
		NewRefresher(f.agg, 0, nil).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled refresher should return immediately")
	}
}
