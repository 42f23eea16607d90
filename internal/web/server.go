// Package web serves the deck, card and study session operations as a
// JSON HTTP API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/library"
	"github.com/conorfennell/recall/internal/sm2"
	"github.com/conorfennell/recall/internal/study"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	lib     *library.Service
	planner *study.Planner
	router  *http.ServeMux
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*study.Session
	byDeck   map[int64]uuid.UUID
}

// NewServer creates and configures a new server.
func NewServer(lib *library.Service, planner *study.Planner, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		lib:      lib,
		planner:  planner,
		router:   http.NewServeMux(),
		log:      log,
		sessions: make(map[uuid.UUID]*study.Session),
		byDeck:   make(map[int64]uuid.UUID),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /decks", s.handleListDecks())
	s.router.HandleFunc("POST /decks", s.handleCreateDeck())
	s.router.HandleFunc("GET /decks/{id}", s.handleGetDeck())
	s.router.HandleFunc("PATCH /decks/{id}", s.handleRenameDeck())
	s.router.HandleFunc("DELETE /decks/{id}", s.handleDeleteDeck())

	s.router.HandleFunc("GET /decks/{id}/cards", s.handleListCards())
	s.router.HandleFunc("POST /decks/{id}/cards", s.handleAddCard())
	s.router.HandleFunc("POST /decks/{id}/cards/delete", s.handleDeleteCards())
	s.router.HandleFunc("PUT /cards/{id}", s.handleEditCard())

	s.router.HandleFunc("POST /decks/{id}/sessions", s.handleStartSession())
	s.router.HandleFunc("GET /sessions/{id}", s.handleGetSession())
	s.router.HandleFunc("DELETE /sessions/{id}", s.handleCloseSession())
	s.router.HandleFunc("GET /sessions/{id}/preview", s.handlePreview())
	s.router.HandleFunc("POST /sessions/{id}/grade", s.handleGrade())
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. An empty batch is not
// a failure: it is reported as 204 with nothing to study.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrEmptyBatch):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateName), errors.Is(err, study.ErrNotCurrent):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidContent),
		errors.Is(err, sm2.ErrInvalidGrade),
		errors.Is(err, study.ErrInvalidOutcome):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, study.ErrSessionClosed):
		status = http.StatusGone
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
