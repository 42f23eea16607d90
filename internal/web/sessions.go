package web

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/conorfennell/recall/internal/study"
)

type sessionJSON struct {
	ID        string    `json:"id"`
	DeckID    int64     `json:"deck_id"`
	Mode      string    `json:"mode"`
	State     string    `json:"state"`
	Remaining int       `json:"remaining"`
	Completed int       `json:"completed"`
	Current   *cardJSON `json:"current,omitempty"`
}

func toSessionJSON(id uuid.UUID, sess *study.Session) sessionJSON {
	out := sessionJSON{
		ID:        id.String(),
		DeckID:    sess.DeckID(),
		Mode:      sess.Mode().String(),
		State:     sess.State().String(),
		Remaining: sess.Remaining(),
		Completed: sess.Completed(),
	}
	if c, ok := sess.Current(); ok {
		cj := toCardJSON(c)
		out.Current = &cj
	}
	return out
}

type startSessionRequest struct {
	Mode string `json:"mode"`
}

type gradeRequest struct {
	CardID  int64  `json:"card_id"`
	Outcome string `json:"outcome"`
}

type previewJSON struct {
	Applicable bool `json:"applicable"`
	Hard       int  `json:"hard,omitempty"`
	Good       int  `json:"good,omitempty"`
	Easy       int  `json:"easy,omitempty"`
}

// register stores sess as the deck's only active session, closing the one
// it replaces.
func (s *Server) register(sess *study.Session) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byDeck[sess.DeckID()]; ok {
		if old, ok := s.sessions[prev]; ok {
			old.Close()
			delete(s.sessions, prev)
		}
	}
	s.sessions[id] = sess
	s.byDeck[sess.DeckID()] = id
	return id
}

func (s *Server) lookup(r *http.Request) (uuid.UUID, *study.Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return id, sess, ok
}

func (s *Server) closeSession(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	sess.Close()
	delete(s.sessions, id)
	if s.byDeck[sess.DeckID()] == id {
		delete(s.byDeck, sess.DeckID())
	}
}

func (s *Server) closeDeckSession(deckID int64) {
	s.mu.Lock()
	id, ok := s.byDeck[deckID]
	s.mu.Unlock()
	if ok {
		s.closeSession(id)
	}
}

// handleStartSession opens a learn or review session. A deck with nothing
// to study answers 204.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID, ok := pathID(r)
		if !ok {
			s.badRequest(w, "invalid deck id")
			return
		}
		var req startSessionRequest
		if err := decode(w, r, &req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		mode, err := study.ParseMode(req.Mode)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}

		sess, err := s.planner.Start(r.Context(), deckID, mode)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		id := s.register(sess)
		s.log.Info("session opened", "session_id", id, "deck_id", deckID, "mode", mode)
		s.writeJSON(w, http.StatusCreated, toSessionJSON(id, sess))
	}
}

func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sess, ok := s.lookup(r)
		if !ok {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		s.writeJSON(w, http.StatusOK, toSessionJSON(id, sess))
	}
}

func (s *Server) handleCloseSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := s.lookup(r)
		if !ok {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		s.closeSession(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePreview reports the interval each passing grade would give the
// current card.
func (s *Server) handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess, ok := s.lookup(r)
		if !ok {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		p, ok := sess.Preview()
		if !ok {
			s.writeJSON(w, http.StatusOK, previewJSON{})
			return
		}
		s.writeJSON(w, http.StatusOK, previewJSON{Applicable: true, Hard: p.Hard, Good: p.Good, Easy: p.Easy})
	}
}

func (s *Server) handleGrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sess, ok := s.lookup(r)
		if !ok {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		var req gradeRequest
		if err := decode(w, r, &req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		outcome, err := study.ParseOutcome(req.Outcome)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := sess.Grade(r.Context(), req.CardID, outcome); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, toSessionJSON(id, sess))
	}
}
