// Package library is the deck and card management surface shared by the
// CLI and the HTTP API.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/recall/internal/clock"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/knol"
	"github.com/conorfennell/recall/internal/stats"
	"github.com/conorfennell/recall/internal/storage"
)

type deckInput struct {
	Name string `validate:"required,max=49"`
}

type cardInput struct {
	Front      string `validate:"required"`
	Back       string `validate:"required"`
	FrontImage string `validate:"omitempty,max=255"`
	BackImage  string `validate:"omitempty,max=255"`
}

// Service validates requests and runs them against the store. Every card
// mutation refreshes the deck's counters in the same transaction.
type Service struct {
	store    *storage.Store
	agg      *stats.Aggregator
	clock    clock.Clock
	validate *validator.Validate
	log      *slog.Logger
}

// New returns a Service.
func New(store *storage.Store, agg *stats.Aggregator, clk clock.Clock, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    store,
		agg:      agg,
		clock:    clk,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// CleanDeckName trims name and checks its length.
func (s *Service) CleanDeckName(name string) (string, error) {
	in := deckInput{Name: strings.TrimSpace(name)}
	if err := s.validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: must be 1 to %d characters", domain.ErrInvalidName, domain.MaxDeckNameLength)
	}
	return in.Name, nil
}

// CleanContent trims both sides of c and checks that neither is empty.
func (s *Service) CleanContent(c domain.Content) (domain.Content, error) {
	in := cardInput{
		Front:      strings.TrimSpace(c.Front),
		Back:       strings.TrimSpace(c.Back),
		FrontImage: strings.TrimSpace(c.FrontImage),
		BackImage:  strings.TrimSpace(c.BackImage),
	}
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.Content{}, fmt.Errorf("%w: %s failed on %q", domain.ErrInvalidContent, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return domain.Content{}, fmt.Errorf("%w: %v", domain.ErrInvalidContent, err)
	}
	return domain.Content(in), nil
}

// CreateDeck adds an empty deck.
func (s *Service) CreateDeck(ctx context.Context, name string) (domain.Deck, error) {
	name, err := s.CleanDeckName(name)
	if err != nil {
		return domain.Deck{}, err
	}
	deck, err := s.store.InsertDeck(ctx, name, s.clock.Now())
	if err != nil {
		return domain.Deck{}, err
	}
	s.log.Info("deck created", "deck_id", deck.ID, "name", deck.Name)
	return deck, nil
}

// RenameDeck changes a deck's name.
func (s *Service) RenameDeck(ctx context.Context, id int64, name string) (domain.Deck, error) {
	name, err := s.CleanDeckName(name)
	if err != nil {
		return domain.Deck{}, err
	}
	var deck domain.Deck
	err = s.store.Tx(ctx, func(ctx context.Context, q *storage.Queries) error {
		if err := q.RenameDeck(ctx, id, name); err != nil {
			return err
		}
		deck, err = q.DeckByID(ctx, id)
		return err
	})
	if err != nil {
		return domain.Deck{}, err
	}
	s.log.Info("deck renamed", "deck_id", id, "name", name)
	return deck, nil
}

// DeleteDeck removes a deck and all of its cards.
func (s *Service) DeleteDeck(ctx context.Context, id int64) error {
	err := s.store.InDeck(ctx, id, func(ctx context.Context, q *storage.Queries) error {
		return q.DeleteDeck(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("deck deleted", "deck_id", id)
	return nil
}

// Decks lists every deck by name with freshly computed counters.
func (s *Service) Decks(ctx context.Context) ([]domain.Deck, error) {
	if err := s.agg.RecomputeAll(ctx); err != nil {
		return nil, err
	}
	return s.store.ListDecks(ctx)
}

// Deck returns one deck with freshly computed counters.
func (s *Service) Deck(ctx context.Context, id int64) (domain.Deck, error) {
	if _, err := s.agg.Recompute(ctx, id); err != nil {
		return domain.Deck{}, err
	}
	return s.store.DeckByID(ctx, id)
}

// DeckIDByName looks a deck up by its exact name.
func (s *Service) DeckIDByName(ctx context.Context, name string) (int64, bool, error) {
	return s.store.DeckIDByName(ctx, name)
}

// AddCard adds a new card to a deck.
func (s *Service) AddCard(ctx context.Context, deckID int64, content domain.Content) (domain.Card, error) {
	content, err := s.CleanContent(content)
	if err != nil {
		return domain.Card{}, err
	}
	var card domain.Card
	err = s.store.InDeck(ctx, deckID, func(ctx context.Context, q *storage.Queries) error {
		card, err = q.InsertCard(ctx, deckID, content, knol.Hash(content), s.clock.Now())
		if err != nil {
			return err
		}
		_, err = s.agg.RecomputeIn(ctx, q, deckID)
		return err
	})
	if err != nil {
		return domain.Card{}, err
	}
	s.log.Debug("card added", "deck_id", deckID, "card_id", card.ID)
	return card, nil
}

// EditCard replaces the content of a card. Its schedule is kept.
func (s *Service) EditCard(ctx context.Context, cardID int64, content domain.Content) (domain.Card, error) {
	content, err := s.CleanContent(content)
	if err != nil {
		return domain.Card{}, err
	}
	card, err := s.store.CardByID(ctx, cardID)
	if err != nil {
		return domain.Card{}, err
	}
	err = s.store.InDeck(ctx, card.DeckID, func(ctx context.Context, q *storage.Queries) error {
		if err := q.UpdateCardContent(ctx, cardID, content, knol.Hash(content)); err != nil {
			return err
		}
		card, err = q.CardByID(ctx, cardID)
		return err
	})
	if err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// Cards returns every card of a deck.
func (s *Service) Cards(ctx context.Context, deckID int64) ([]domain.Card, error) {
	if _, err := s.store.DeckByID(ctx, deckID); err != nil {
		return nil, err
	}
	return s.store.CardsByDeck(ctx, deckID)
}

// DeleteCards removes cards from a deck and reports how many went. Ids of
// cards in other decks are ignored.
func (s *Service) DeleteCards(ctx context.Context, deckID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := s.store.InDeck(ctx, deckID, func(ctx context.Context, q *storage.Queries) error {
		var err error
		if n, err = q.DeleteCards(ctx, deckID, ids); err != nil {
			return err
		}
		_, err = s.agg.RecomputeIn(ctx, q, deckID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("cards deleted", "deck_id", deckID, "count", n)
	return n, nil
}

// NewBatch returns up to limit cards that have never been learned.
func (s *Service) NewBatch(ctx context.Context, deckID int64, limit int) ([]domain.Card, error) {
	if _, err := s.store.DeckByID(ctx, deckID); err != nil {
		return nil, err
	}
	return s.store.NewCards(ctx, deckID, limit)
}

// DueBatch returns up to limit cards due for review now.
func (s *Service) DueBatch(ctx context.Context, deckID int64, limit int) ([]domain.Card, error) {
	if _, err := s.store.DeckByID(ctx, deckID); err != nil {
		return nil, err
	}
	return s.store.DueCards(ctx, deckID, s.clock.Now(), limit)
}
