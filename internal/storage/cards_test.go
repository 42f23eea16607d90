package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/recall/internal/domain"
)

func seedDeck(t *testing.T, s *Store, name string) domain.Deck {
	t.Helper()
	deck, err := s.InsertDeck(context.Background(), name, t0)
	require.NoError(t, err)
	return deck
}

func reviewAt(next time.Time) domain.Schedule {
	return domain.Schedule{
		Status:     domain.StatusReview,
		Repetition: 1,
		Interval:   1,
		EaseFactor: 2.5,
		NextReview: &next,
	}
}

func ids(cards []domain.Card) []int64 {
	out := make([]int64, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestInsertCard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")

	content := domain.Content{Front: "<b>hola</b>", Back: "hello", BackImage: "wave.png"}
	card, err := s.InsertCard(ctx, deck.ID, content, "abc", t0)
	require.NoError(t, err)

	assert.Equal(t, deck.ID, card.DeckID)
	assert.Equal(t, content, card.Content)
	assert.Equal(t, "abc", card.Hash)
	assert.Equal(t, domain.NewSchedule(), card.Schedule)
	assert.Equal(t, t0, card.Created)

	_, err = s.InsertCard(ctx, 999, content, "", t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.CardByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewCards_OldestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")

	late, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "2", Back: "b"}, "", t0.Add(time.Hour))
	require.NoError(t, err)
	early, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "1", Back: "b"}, "", t0)
	require.NoError(t, err)
	learned, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "3", Back: "b"}, "", t0)
	require.NoError(t, err)
	require.NoError(t, s.UpdateSchedule(ctx, learned.ID, reviewAt(t0)))

	got, err := s.NewCards(ctx, deck.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{early.ID, late.ID}, ids(got))

	got, err = s.NewCards(ctx, deck.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{early.ID}, ids(got))
}

func TestDueCards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")
	other := seedDeck(t, s, "Other")

	add := func(deckID int64, sched *domain.Schedule) domain.Card {
		c, err := s.InsertCard(ctx, deckID, domain.Content{Front: "f", Back: "b"}, "", t0)
		require.NoError(t, err)
		if sched != nil {
			require.NoError(t, s.UpdateSchedule(ctx, c.ID, *sched))
		}
		return c
	}

	now := t0.Add(48 * time.Hour)
	s1 := reviewAt(now.Add(-time.Hour))
	s2 := reviewAt(now.Add(-2 * time.Hour))
	s3 := reviewAt(now.Add(-time.Hour))
	s4 := reviewAt(now.Add(time.Minute))
	s5 := reviewAt(now)

	a := add(deck.ID, &s1)
	b := add(deck.ID, &s2)
	c := add(deck.ID, &s3)
	add(deck.ID, &s4) // future
	e := add(deck.ID, &s5)
	add(deck.ID, nil) // new
	add(other.ID, &s2)

	got, err := s.DueCards(ctx, deck.ID, now, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID, c.ID, e.ID}, ids(got))
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].NextReview.Before(*got[i-1].NextReview))
	}

	got, err = s.DueCards(ctx, deck.ID, now, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, ids(got))
}

func TestDueCards_MalformedTimestampIsNotDue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")

	good, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "f", Back: "b"}, "", t0)
	require.NoError(t, err)
	require.NoError(t, s.UpdateSchedule(ctx, good.ID, reviewAt(t0)))

	bad, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "f", Back: "b"}, "", t0)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE cards SET status = 'review', next_review = 'yesterday-ish' WHERE id = ?`, bad.ID)
	require.NoError(t, err)

	got, err := s.DueCards(ctx, deck.ID, t0.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{good.ID}, ids(got))

	card, err := s.CardByID(ctx, bad.ID)
	require.NoError(t, err)
	assert.Nil(t, card.NextReview)
}

func TestUpdateSchedule(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")

	card, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "f", Back: "b"}, "", t0)
	require.NoError(t, err)

	want := domain.Schedule{
		Status: domain.StatusReview, Repetition: 3, Interval: 15, EaseFactor: 2.36,
	}
	next := t0.Add(15 * 24 * time.Hour)
	want.NextReview = &next
	require.NoError(t, s.UpdateSchedule(ctx, card.ID, want))

	got, err := s.CardByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got.Schedule)

	assert.ErrorIs(t, s.UpdateSchedule(ctx, 999, want), domain.ErrNotFound)
}

func TestUpdateCardContent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")

	card, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "f", Back: "b", FrontImage: "x.png"}, "h1", t0)
	require.NoError(t, err)
	require.NoError(t, s.UpdateSchedule(ctx, card.ID, reviewAt(t0)))

	content := domain.Content{Front: "F", Back: "B"}
	require.NoError(t, s.UpdateCardContent(ctx, card.ID, content, "h2"))

	got, err := s.CardByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, content, got.Content)
	assert.Equal(t, "h2", got.Hash)
	assert.Equal(t, domain.StatusReview, got.Status, "content edits keep the schedule")

	assert.ErrorIs(t, s.UpdateCardContent(ctx, 999, content, ""), domain.ErrNotFound)
}

func TestDeleteCards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")
	other := seedDeck(t, s, "Other")

	var cards []domain.Card
	for i := 0; i < 3; i++ {
		c, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "f", Back: "b"}, "", t0)
		require.NoError(t, err)
		cards = append(cards, c)
	}
	foreign, err := s.InsertCard(ctx, other.ID, domain.Content{Front: "f", Back: "b"}, "", t0)
	require.NoError(t, err)

	n, err := s.DeleteCards(ctx, deck.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteCards(ctx, deck.ID, []int64{cards[0].ID, cards[2].ID, foreign.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.CardsByDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{cards[1].ID}, ids(left))

	_, err = s.CardByID(ctx, foreign.ID)
	assert.NoError(t, err, "cards of other decks are untouched")
}

func TestCardHashes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	deck := seedDeck(t, s, "Spanish")

	for _, h := range []string{"a", "b", ""} {
		_, err := s.InsertCard(ctx, deck.ID, domain.Content{Front: "f", Back: "b"}, h, t0)
		require.NoError(t, err)
	}

	got, err := s.CardHashes(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, got)
}

func TestParseTime(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)
	got, ok := parseTime(formatTime(ts))
	require.True(t, ok)
	assert.Equal(t, ts, got)

	got, ok = parseTime("2025-01-02T04:04:05+01:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), got)

	_, ok = parseTime("not a time")
	assert.False(t, ok)
}
