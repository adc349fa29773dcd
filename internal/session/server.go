package session

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"neontune/internal/music"
	"neontune/internal/player"
)

// Searcher runs a ranked track search.
type Searcher interface {
	Search(ctx context.Context, query, pageToken string) (music.SearchPage, error)
}

type Server struct {
	registry  *Registry
	store     Store
	searcher  Searcher
	publisher Publisher
	tokens    *TokenIssuer
}

// NewServer wires the session routes. store and publisher may be nil.
func NewServer(registry *Registry, store Store, searcher Searcher, publisher Publisher, tokens *TokenIssuer) *Server {
	return &Server{
		registry:  registry,
		store:     store,
		searcher:  searcher,
		publisher: publisher,
		tokens:    tokens,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}
	s.Routes(r)
	return r
}

// Routes registers the /player/sessions endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/player/sessions", s.handleCreate)

	r.Route("/player/sessions/{id}", func(r chi.Router) {
		r.Use(s.tokens.Middleware)

		r.Get("/", s.handleGet)
		r.Post("/search", s.handleSearch)
		r.Post("/select", s.handleSelect)
		r.Post("/next", s.handleNext)
		r.Post("/previous", s.handlePrevious)
		r.Post("/ended", s.handleEnded)

		r.Post("/toggle", s.handleToggle)
		r.Put("/playing", s.handleSetPlaying)
		r.Put("/volume", s.handleSetVolume)
		r.Put("/mute", s.handleSetMuted)
		r.Put("/position", s.handleSeek)

		r.Post("/queue", s.handleAddToQueue)
		r.Put("/queue", s.handleSetQueue)
		r.Delete("/queue", s.handleClearQueue)
		r.Delete("/queue/{trackId}", s.handleRemoveFromQueue)
	})
}

// commit persists and announces a new state. It runs under the session lock.
// Both steps are best effort: the in-memory session is the source of truth
// while the process lives.
func (s *Server) commit(ctx context.Context, id string, state player.State) {
	if s.store != nil {
		if err := s.store.Save(ctx, id, state); err != nil {
			log.Printf("session: persist %s: %v", id, err)
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, StateChanged(id, state))
	}
}
