package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

type deckJSON struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Created    time.Time `json:"created"`
	TotalCards int       `json:"total_cards"`
	NewCards   int       `json:"new_cards"`
	DueCards   int       `json:"due_cards"`
}

func toDeckJSON(d domain.Deck) deckJSON {
	return deckJSON{
		ID:         d.ID,
		Name:       d.Name,
		Created:    d.Created,
		TotalCards: d.Total,
		NewCards:   d.New,
		DueCards:   d.Due,
	}
}

type cardJSON struct {
	ID         int64      `json:"id"`
	DeckID     int64      `json:"deck_id"`
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	FrontImage string     `json:"front_image,omitempty"`
	BackImage  string     `json:"back_image,omitempty"`
	Status     string     `json:"status"`
	Repetition int        `json:"repetition"`
	Interval   int        `json:"interval"`
	EaseFactor float64    `json:"ease_factor"`
	NextReview *time.Time `json:"next_review,omitempty"`
	Created    time.Time  `json:"created"`
}

func toCardJSON(c domain.Card) cardJSON {
	return cardJSON{
		ID:         c.ID,
		DeckID:     c.DeckID,
		Front:      c.Front,
		Back:       c.Back,
		FrontImage: c.FrontImage,
		BackImage:  c.BackImage,
		Status:     string(c.Status),
		Repetition: c.Repetition,
		Interval:   c.Interval,
		EaseFactor: c.EaseFactor,
		NextReview: c.NextReview,
		Created:    c.Created,
	}
}

func toCardsJSON(cards []domain.Card) []cardJSON {
	out := make([]cardJSON, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardJSON(c))
	}
	return out
}

type deckRequest struct {
	Name string `json:"name"`
}

type cardRequest struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	FrontImage string `json:"front_image"`
	BackImage  string `json:"back_image"`
}

func (c cardRequest) content() domain.Content {
	return domain.Content{Front: c.Front, Back: c.Back, FrontImage: c.FrontImage, BackImage: c.BackImage}
}

// handleListDecks lists all decks with fresh counters.
func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := s.lib.Decks(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out := make([]deckJSON, 0, len(decks))
		for _, d := range decks {
			out = append(out, toDeckJSON(d))
		}
		s.writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deckRequest
		if err := decode(w, r, &req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		deck, err := s.lib.CreateDeck(r.Context(), req.Name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, toDeckJSON(deck))
	}
}

func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid deck id")
			return
		}
		deck, err := s.lib.Deck(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toDeckJSON(deck))
	}
}

func (s *Server) handleRenameDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid deck id")
			return
		}
		var req deckRequest
		if err := decode(w, r, &req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		deck, err := s.lib.RenameDeck(r.Context(), id, req.Name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toDeckJSON(deck))
	}
}

// handleDeleteDeck deletes a deck and ends any session running on it.
func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid deck id")
			return
		}
		if err := s.lib.DeleteDeck(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.closeDeckSession(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleListCards lists a deck's cards. ?filter=new or ?filter=due returns
// the corresponding study batch, capped by ?limit.
func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid deck id")
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				s.badRequest(w, "invalid limit")
				return
			}
			limit = n
		}

		var (
			cards []domain.Card
			err   error
		)
		switch filter := r.URL.Query().Get("filter"); filter {
		case "":
			cards, err = s.lib.Cards(r.Context(), id)
		case "new":
			cards, err = s.lib.NewBatch(r.Context(), id, limit)
		case "due":
			cards, err = s.lib.DueBatch(r.Context(), id, limit)
		default:
			s.badRequest(w, "unknown filter "+strconv.Quote(filter))
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toCardsJSON(cards))
	}
}

func (s *Server) handleAddCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid deck id")
			return
		}
		var req cardRequest
		if err := decode(w, r, &req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		card, err := s.lib.AddCard(r.Context(), id, req.content())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, toCardJSON(card))
	}
}

func (s *Server) handleEditCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid card id")
			return
		}
		var req cardRequest
		if err := decode(w, r, &req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		card, err := s.lib.EditCard(r.Context(), id, req.content())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toCardJSON(card))
	}
}

type deleteCardsRequest struct {
	IDs []int64 `json:"ids"`
}

type deleteCardsResponse struct {
	Deleted int64 `json:"deleted"`
}

func (s *Server) handleDeleteCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid deck id")
			return
		}
		var req deleteCardsRequest
		if err := decode(w, r, &req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		n, err := s.lib.DeleteCards(r.Context(), id, req.IDs)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, deleteCardsResponse{Deleted: n})
	}
}
