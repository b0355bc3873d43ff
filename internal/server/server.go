// Package server exposes the HTTP surface: the chat API, session
// management, auth flows, uploads, and static file serving.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Allen20077/8berries/internal/auth"
	"github.com/Allen20077/8berries/internal/chat"
	"github.com/Allen20077/8berries/internal/config"
	"github.com/Allen20077/8berries/internal/logging"
	"github.com/Allen20077/8berries/internal/upload"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP server.
type Server struct {
	cfg      config.ServerConfig
	chat     *chat.Service
	auth     *auth.Service
	sessions *auth.SessionManager
	google   *auth.GoogleAuth
	uploads  *upload.Store
	log      *logging.Logger

	httpServer *http.Server
}

// New creates the HTTP server. google may be nil when Google login is not
// configured.
func New(
	cfg config.ServerConfig,
	chatSvc *chat.Service,
	authSvc *auth.Service,
	sessions *auth.SessionManager,
	google *auth.GoogleAuth,
	uploads *upload.Store,
	log *logging.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		chat:     chatSvc,
		auth:     authSvc,
		sessions: sessions,
		google:   google,
		uploads:  uploads,
		log:      log.Sub("server"),
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
