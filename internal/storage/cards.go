package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/recall/internal/domain"
)

type cardRow struct {
	ID          int64          `db:"id"`
	DeckID      int64          `db:"deck_id"`
	Front       string         `db:"front"`
	Back        string         `db:"back"`
	FrontImage  sql.NullString `db:"front_image"`
	BackImage   sql.NullString `db:"back_image"`
	ContentHash sql.NullString `db:"content_hash"`
	Status      string         `db:"status"`
	NextReview  sql.NullString `db:"next_review"`
	Repetition  int            `db:"repetition"`
	Interval    int            `db:"interval"`
	EaseFactor  float64        `db:"ease_factor"`
	Created     string         `db:"created"`
}

const cardColumns = `id, deck_id, front, back, front_image, back_image, content_hash,
	status, next_review, repetition, interval, ease_factor, created`

func (q *Queries) toCard(r cardRow) domain.Card {
	c := domain.Card{
		ID:     r.ID,
		DeckID: r.DeckID,
		Content: domain.Content{
			Front:      r.Front,
			Back:       r.Back,
			FrontImage: r.FrontImage.String,
			BackImage:  r.BackImage.String,
		},
		Schedule: domain.Schedule{
			Status:     domain.Status(r.Status),
			Repetition: r.Repetition,
			Interval:   r.Interval,
			EaseFactor: r.EaseFactor,
		},
		Hash: r.ContentHash.String,
	}
	if r.NextReview.Valid {
		if t, ok := parseTime(r.NextReview.String); ok {
			c.NextReview = &t
		} else {
			q.log.Warn("ignoring malformed next_review", "card_id", r.ID, "value", r.NextReview.String)
		}
	}
	if t, ok := parseTime(r.Created); ok {
		c.Created = t
	}
	return c
}

func (q *Queries) toCards(rows []cardRow) []domain.Card {
	cards := make([]domain.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, q.toCard(r))
	}
	return cards
}

// InsertCard adds a new card to a deck in the new state.
func (q *Queries) InsertCard(ctx context.Context, deckID int64, content domain.Content, hash string, created time.Time) (domain.Card, error) {
	if _, err := q.DeckByID(ctx, deckID); err != nil {
		return domain.Card{}, err
	}

	s := domain.NewSchedule()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO cards (deck_id, front, back, front_image, back_image, content_hash,
			status, next_review, repetition, interval, ease_factor, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)
	`,
		deckID,
		content.Front,
		content.Back,
		nullString(content.FrontImage),
		nullString(content.BackImage),
		nullString(hash),
		string(s.Status),
		s.Repetition,
		s.Interval,
		s.EaseFactor,
		formatTime(created),
	)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to insert card into deck %d: %w", deckID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to get last insert ID for card: %w", err)
	}
	return q.CardByID(ctx, id)
}

// CardByID returns a card or domain.ErrNotFound.
func (q *Queries) CardByID(ctx context.Context, id int64) (domain.Card, error) {
	var r cardRow
	err := sqlx.GetContext(ctx, q.db, &r, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Card{}, fmt.Errorf("card %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to find card %d: %w", id, err)
	}
	return q.toCard(r), nil
}

// CardsByDeck returns every card of a deck in insertion order.
func (q *Queries) CardsByDeck(ctx context.Context, deckID int64) ([]domain.Card, error) {
	var rows []cardRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, `
		SELECT `+cardColumns+` FROM cards WHERE deck_id = ? ORDER BY id
	`, deckID); err != nil {
		return nil, fmt.Errorf("failed to get cards for deck %d: %w", deckID, err)
	}
	return q.toCards(rows), nil
}

// NewCards returns up to limit cards of a deck that were never learned,
// oldest first. A limit <= 0 means no limit.
func (q *Queries) NewCards(ctx context.Context, deckID int64, limit int) ([]domain.Card, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []cardRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, `
		SELECT `+cardColumns+` FROM cards
		WHERE deck_id = ? AND status = ?
		ORDER BY created ASC, id ASC
		LIMIT ?
	`, deckID, string(domain.StatusNew), limit); err != nil {
		return nil, fmt.Errorf("failed to get new cards for deck %d: %w", deckID, err)
	}
	return q.toCards(rows), nil
}

// DueCards returns up to limit cards of a deck whose next review is at or
// before now, earliest first with ties in insertion order. Cards with a
// malformed next_review are never due. A limit <= 0 means no limit.
func (q *Queries) DueCards(ctx context.Context, deckID int64, now time.Time, limit int) ([]domain.Card, error) {
	var rows []cardRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, `
		SELECT `+cardColumns+` FROM cards
		WHERE deck_id = ? AND next_review IS NOT NULL
		ORDER BY id
	`, deckID); err != nil {
		return nil, fmt.Errorf("failed to get due cards for deck %d: %w", deckID, err)
	}

	var due []domain.Card
	for _, r := range rows {
		c := q.toCard(r)
		if c.DueAt(now) {
			due = append(due, c)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReview.Before(*due[j].NextReview)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// CardHashes returns the content hashes present in a deck.
func (q *Queries) CardHashes(ctx context.Context, deckID int64) (map[string]struct{}, error) {
	var hashes []string
	if err := sqlx.SelectContext(ctx, q.db, &hashes, `
		SELECT content_hash FROM cards WHERE deck_id = ? AND content_hash IS NOT NULL
	`, deckID); err != nil {
		return nil, fmt.Errorf("failed to get content hashes for deck %d: %w", deckID, err)
	}
	set := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	return set, nil
}

// UpdateCardContent replaces the content of a card without touching its
// schedule.
func (q *Queries) UpdateCardContent(ctx context.Context, id int64, content domain.Content, hash string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE cards
		SET front = ?, back = ?, front_image = ?, back_image = ?, content_hash = ?
		WHERE id = ?
	`,
		content.Front,
		content.Back,
		nullString(content.FrontImage),
		nullString(content.BackImage),
		nullString(hash),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update content of card %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("card %d", id))
}

// UpdateSchedule overwrites the scheduling fields of a card.
func (q *Queries) UpdateSchedule(ctx context.Context, id int64, s domain.Schedule) error {
	var next sql.NullString
	if s.NextReview != nil {
		next = sql.NullString{String: formatTime(*s.NextReview), Valid: true}
	}
	res, err := q.db.ExecContext(ctx, `
		UPDATE cards
		SET status = ?, next_review = ?, repetition = ?, interval = ?, ease_factor = ?
		WHERE id = ?
	`,
		string(s.Status),
		next,
		s.Repetition,
		s.Interval,
		s.EaseFactor,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule of card %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("card %d", id))
}

// DeleteCards removes the given cards from a deck and reports how many were
// deleted. Ids that are not in the deck are ignored; an empty set is a no-op.
func (q *Queries) DeleteCards(ctx context.Context, deckID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM cards WHERE deck_id = ? AND id IN (?)`, deckID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build card delete: %w", err)
	}
	res, err := q.db.ExecContext(ctx, q.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cards from deck %d: %w", deckID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
