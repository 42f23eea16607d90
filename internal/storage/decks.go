package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type deckRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Created    string `db:"created"`
	TotalCards int    `db:"total_cards"`
	NewCards   int    `db:"new_cards"`
	DueCards   int    `db:"due_cards"`
}

func (r deckRow) toDeck() domain.Deck {
	created, _ := parseTime(r.Created)
	return domain.Deck{
		ID:      r.ID,
		Name:    r.Name,
		Created: created,
		Counts: domain.Counts{
			Total: r.TotalCards,
			New:   r.NewCards,
			Due:   r.DueCards,
		},
	}
}

const deckColumns = `id, name, created, total_cards, new_cards, due_cards`

// InsertDeck creates an empty deck. Names are unique and compared exactly.
func (q *Queries) InsertDeck(ctx context.Context, name string, created time.Time) (domain.Deck, error) {
	if _, found, err := q.DeckIDByName(ctx, name); err != nil {
		return domain.Deck{}, err
	} else if found {
		return domain.Deck{}, fmt.Errorf("deck %q: %w", name, domain.ErrDuplicateName)
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO decks (name, created) VALUES (?, ?)
	`, name, formatTime(created))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Deck{}, fmt.Errorf("deck %q: %w", name, domain.ErrDuplicateName)
		}
		return domain.Deck{}, fmt.Errorf("failed to insert deck %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to get last insert ID for deck %q: %w", name, err)
	}
	return q.DeckByID(ctx, id)
}

// RenameDeck changes a deck's name. Renaming to the current name, or to
// the name of another deck, fails with domain.ErrDuplicateName.
func (q *Queries) RenameDeck(ctx context.Context, id int64, name string) error {
	deck, err := q.DeckByID(ctx, id)
	if err != nil {
		return err
	}
	if deck.Name == name {
		return fmt.Errorf("deck %d is already named %q: %w", id, name, domain.ErrDuplicateName)
	}
	if _, found, err := q.DeckIDByName(ctx, name); err != nil {
		return err
	} else if found {
		return fmt.Errorf("deck %q: %w", name, domain.ErrDuplicateName)
	}

	if _, err := q.db.ExecContext(ctx, `UPDATE decks SET name = ? WHERE id = ?`, name, id); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("deck %q: %w", name, domain.ErrDuplicateName)
		}
		return fmt.Errorf("failed to rename deck %d: %w", id, err)
	}
	return nil
}

// DeleteDeck removes a deck. Its cards are removed by the ON DELETE CASCADE
// foreign key.
func (q *Queries) DeleteDeck(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deck %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("deck %d", id))
}

// ListDecks returns every deck ordered by name.
func (q *Queries) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	var rows []deckRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, `SELECT `+deckColumns+` FROM decks ORDER BY name ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	decks := make([]domain.Deck, 0, len(rows))
	for _, r := range rows {
		decks = append(decks, r.toDeck())
	}
	return decks, nil
}

// DeckIDs returns the ids of all decks.
func (q *Queries) DeckIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := sqlx.SelectContext(ctx, q.db, &ids, `SELECT id FROM decks ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list deck ids: %w", err)
	}
	return ids, nil
}

// DeckByID returns a deck or domain.ErrNotFound.
func (q *Queries) DeckByID(ctx context.Context, id int64) (domain.Deck, error) {
	var r deckRow
	err := sqlx.GetContext(ctx, q.db, &r, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deck{}, fmt.Errorf("deck %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to find deck %d: %w", id, err)
	}
	return r.toDeck(), nil
}

// DeckIDByName looks a deck up by exact name. A missing deck is reported
// through found, not as an error.
func (q *Queries) DeckIDByName(ctx context.Context, name string) (id int64, found bool, err error) {
	err = sqlx.GetContext(ctx, q.db, &id, `SELECT id FROM decks WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to find deck by name %q: %w", name, err)
	}
	return id, true, nil
}

// SetDeckCounts overwrites a deck's cached counters.
func (q *Queries) SetDeckCounts(ctx context.Context, id int64, c domain.Counts) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE decks
		SET total_cards = ?, new_cards = ?, due_cards = ?
		WHERE id = ?
	`, c.Total, c.New, c.Due, id)
	if err != nil {
		return fmt.Errorf("failed to update counters for deck %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("deck %d", id))
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
