package main

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"neontune/internal/provider"
	"neontune/internal/realtime"
	"neontune/internal/session"
)

const sessionTimeout = 15 * time.Second

func setupRouter(cfg Config, prov *provider.Server, sessions *session.Server, rt *realtime.Server) *chi.Mux {
	r := chi.NewRouter()

	r.Use(corsMiddleware(cfg.CORSAllowedOrigin))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	prov.Routes(r)
	rt.Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(sessionTimeout))
		sessions.Routes(r)
	})

	return r
}
