package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"neontune/internal/extractor"
	"neontune/internal/music"
)

const searchTimeout = 15 * time.Second

// TrackSearcher runs a ranked search; *Searcher is the production one.
type TrackSearcher interface {
	Search(ctx context.Context, query, pageToken string) (music.SearchPage, error)
}

// AudioExtractor starts an audio stream for a video id.
type AudioExtractor interface {
	Stream(ctx context.Context, videoID string) (*extractor.Stream, error)
}

type Server struct {
	searcher  TrackSearcher
	extractor AudioExtractor
	limiter   *IPRateLimiter
}

// NewServer wires the search and stream endpoints. limiter may be nil to
// disable stream rate limiting.
func NewServer(s TrackSearcher, x AudioExtractor, limiter *IPRateLimiter) *Server {
	return &Server{
		searcher:  s,
		extractor: x,
		limiter:   limiter,
	}
}

// Router returns the /health and /api/youtube routes.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}
	s.Routes(r)
	return r
}

// Routes registers the provider endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HandleHealth)

	r.Route("/api/youtube", func(r chi.Router) {
		r.With(middleware.Timeout(searchTimeout)).Get("/search", s.HandleSearch)

		// Streams run for the length of a track, so no request timeout here.
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware)
			}
			r.Get("/stream", s.HandleStream)
		})
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "neontune",
	})
}
