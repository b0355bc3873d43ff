package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)

	r.Get("/health", s.handleHealth)

	// Auth pages and flows are reachable without a login session.
	r.Get("/login", s.handleLoginPage)
	r.Get("/signup", s.handleSignupPage)
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)
	r.Get("/auth/google", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.RequireIdentity)

		r.Get("/", s.handleIndex)

		r.Post("/api", s.handleChat)
		r.Post("/api/stream", s.handleChatStream)
		r.Get("/api/history", s.handleHistory)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Patch("/{sessionID}", s.handleUpdateSession)
			r.Delete("/{sessionID}", s.handleDeleteSession)
			r.Get("/{sessionID}/history", s.handleSessionHistory)
		})

		r.Post("/api/upload", s.handleUpload)
		r.Handle("/uploads/*", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(s.uploads.Dir()))))
	})

	return r
}
