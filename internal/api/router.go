package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the public auth routes and the token-protected account routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(h.tokens, h.logger))
		r.Get("/account", h.handleAccount)
		r.Get("/account/card", h.handleCard)
		r.Post("/transfers", h.handleTransfer)
		r.Get("/transactions", h.handleTransactions)
	})

	return r
}
