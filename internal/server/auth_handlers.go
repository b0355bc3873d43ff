package server

import (
	"errors"
	"net/http"

	"github.com/Allen20077/8berries/internal/auth"
	"github.com/Allen20077/8berries/internal/domain"
)

// handleSignup registers a local account from the signup form and logs it
// straight in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	identity, err := s.auth.SignUp(r.Context(),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		r.PostFormValue("confirm"))
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		http.Error(w, "Passwords do not match", http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrMissingFields):
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrUserExists):
		http.Error(w, "Account already exists", http.StatusConflict)
		return
	case err != nil:
		s.log.Error().Err(err).Msg("signup failed")
		http.Error(w, "Signup failed", http.StatusInternalServerError)
		return
	}

	s.sessions.Issue(w, identity)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	identity, err := s.auth.LogIn(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if errors.Is(err, domain.ErrInvalidCredentials) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("login failed")
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	s.sessions.Issue(w, identity)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Revoke(w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.google == nil || !s.google.Enabled() {
		http.Error(w, "Google login is not configured", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, s.google.LoginURL(), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil || !s.google.Enabled() {
		http.Error(w, "Google login is not configured", http.StatusNotFound)
		return
	}

	identity, err := s.google.HandleCallback(r.Context(),
		r.URL.Query().Get("state"),
		r.URL.Query().Get("code"))
	if err != nil {
		s.log.Warn().Err(err).Msg("google callback rejected")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	s.sessions.Issue(w, identity)
	http.Redirect(w, r, "/", http.StatusFound)
}
