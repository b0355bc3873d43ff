package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Allen20077/8berries/internal/auth"
	"github.com/Allen20077/8berries/internal/chat"
	"github.com/Allen20077/8berries/internal/domain"
	"github.com/Allen20077/8berries/internal/upload"
)

// Fixed reply for a blank inbound message. Like provider failures, this is
// data in a 200 response, not an HTTP error.
const replyEmptyMessage = "Empty message sent"

// maxUploadBytes bounds one multipart upload request.
const maxUploadBytes = 32 << 20

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat is the non-streaming exchange endpoint. It always answers 200
// with a reply field; only a structural problem (unknown session id, bad
// JSON) gets an error status.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.chat.Exchange(r.Context(), identity, req.SessionID, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respondJSON(w, http.StatusOK, map[string]any{"reply": replyEmptyMessage})
		return
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"reply":     result.Reply,
		"sessionId": result.SessionID,
	})
}

// handleChatStream is the SSE exchange endpoint. Frames carry {"token":t}
// deltas, then {"done":true}; a provider failure emits {"error":true}. A
// blank message closes the stream with a bare done frame.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sseHeaders(w)
	w.WriteHeader(http.StatusOK)

	err := s.chat.ExchangeStream(r.Context(), identity, req.SessionID, req.Message, func(token string) error {
		return sseSend(w, flusher, map[string]string{"token": token})
	})
	switch {
	case err == nil, errors.Is(err, chat.ErrEmptyMessage):
		sseSend(w, flusher, map[string]bool{"done": true})
	case r.Context().Err() != nil:
		// Caller went away; nothing left to write.
	default:
		sseSend(w, flusher, map[string]bool{"error": true})
	}
}

// handleHistory returns the session's turns, oldest first. Without a
// sessionId parameter the identity's default session is used; an identity
// with no sessions gets an empty array.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	turns, err := s.chat.History(r.Context(), identity, r.URL.Query().Get("sessionId"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("history lookup failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	respondJSON(w, http.StatusOK, turns)
}

// handleSessionHistory is the path-addressed form of handleHistory.
func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	turns, err := s.chat.History(r.Context(), identity, chi.URLParam(r, "sessionID"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("history lookup failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	respondJSON(w, http.StatusOK, turns)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	sessions, err := s.chat.Sessions(r.Context(), identity)
	if err != nil {
		s.log.Error().Err(err).Msg("listing sessions failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.chat.CreateSession(r.Context(), identity, req.Title)
	if err != nil {
		s.log.Error().Err(err).Msg("creating session failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, sess)
}

// handleUpdateSession renames and/or pins a session. Absent fields are left
// untouched.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Title  *string `json:"title"`
		Pinned *bool   `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && req.Pinned == nil {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.Title != nil {
		if err := s.chat.RenameSession(r.Context(), identity, sessionID, *req.Title); err != nil {
			s.respondSessionError(w, err)
			return
		}
	}
	if req.Pinned != nil {
		if err := s.chat.PinSession(r.Context(), identity, sessionID, *req.Pinned); err != nil {
			s.respondSessionError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	if err := s.chat.DeleteSession(r.Context(), identity, chi.URLParam(r, "sessionID")); err != nil {
		s.respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.log.Error().Err(err).Msg("session operation failed")
	respondError(w, http.StatusInternalServerError, "internal error")
}

// handleUpload stores each file of a multipart "files" field and returns
// the stored records.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := []*upload.StoredFile{}
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "unreadable file part")
			return
		}
		stored, err := s.uploads.Save(header.Filename, header.Header.Get("Content-Type"), f)
		f.Close()
		if err != nil {
			s.log.Error().Err(err).Str("file", header.Filename).Msg("upload failed")
			respondError(w, http.StatusInternalServerError, "upload failed")
			return
		}
		files = append(files, stored)
	}

	respondJSON(w, http.StatusOK, map[string]any{"files": files})
}
