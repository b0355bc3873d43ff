// Package chat implements the conversation orchestrator: it resolves the
// caller's session, invokes the completion provider, classifies the reply,
// and persists the exchange as a user/assistant turn pair.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Allen20077/8berries/internal/classify"
	"github.com/Allen20077/8berries/internal/domain"
	"github.com/Allen20077/8berries/internal/llm"
	"github.com/Allen20077/8berries/internal/logging"
)

// ErrEmptyMessage rejects a blank inbound message before any provider call
// or persistence happens.
var ErrEmptyMessage = errors.New("empty message")

// Fixed reply texts for provider-side failures. Errors are data: the caller
// always receives a reply, never a transport failure.
const (
	ReplyProviderError = "AI backend error"
	ReplyEmptyResponse = "Empty AI response"
)

// systemPrompt steers the provider toward strict chart JSON when the user
// asks for one, and plain prose otherwise.
const systemPrompt = `You are a helpful AI assistant. When the user asks for a chart, graph or visualisation, respond with a single JSON object of the exact shape {"chartType":"bar"|"line"|"pie","title":"...","labels":["..."],"data":[...]} and nothing else, where labels and data have the same length. For every other request, respond in plain text.`

// SessionStore is the persistence surface the orchestrator depends on.
type SessionStore interface {
	GetOrCreate(ctx context.Context, identity domain.Identity) (*domain.Session, error)
	Create(ctx context.Context, identity domain.Identity, title string) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	ListByIdentity(ctx context.Context, identity domain.Identity) ([]domain.Session, error)
	AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error
	ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error)
	Rename(ctx context.Context, id, title string) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	Delete(ctx context.Context, id string) error
}

// Config configures the orchestrator.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration
}

// Result is the outcome of one non-streaming exchange.
type Result struct {
	SessionID string       `json:"sessionId,omitempty"`
	Reply     domain.Reply `json:"reply"`
}

// TokenFunc receives one streamed token. Returning an error aborts the
// stream; the caller has gone away.
type TokenFunc func(token string) error

// Service is the conversation orchestrator.
type Service struct {
	cfg    Config
	store  SessionStore
	client llm.Client
	log    *logging.Logger
}

// NewService creates a conversation orchestrator.
func NewService(cfg Config, store SessionStore, client llm.Client, log *logging.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Service{
		cfg:    cfg,
		store:  store,
		client: client,
		log:    log.Sub("chat"),
	}
}

// Exchange processes one inbound message and returns the classified reply.
//
// Provider failures never surface as errors: they become a generic text
// reply with zero persisted turns. Persistence failures are logged and the
// reply is still returned. The only errors returned are ErrEmptyMessage and
// ErrSessionNotFound for an explicit session id the identity does not own.
func (s *Service) Exchange(ctx context.Context, identity domain.Identity, sessionID, message string) (*Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.resolveSession(ctx, identity, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		// Session resolution is best-effort: without one the exchange still
		// runs, it just cannot be persisted.
		s.log.Error().Err(err).Str("identity", string(identity)).Msg("session resolution failed")
		sess = nil
	}

	result := &Result{}
	if sess != nil {
		result.SessionID = sess.ID
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.client.Complete(callCtx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.client.Name()).Msg("completion failed")
		result.Reply = domain.TextReply(ReplyProviderError)
		return result, nil
	}

	if resp.Content == "" {
		result.Reply = domain.TextReply(ReplyEmptyResponse)
	} else {
		result.Reply = classify.Classify(resp.Content)
	}

	s.persistExchange(ctx, sess, message, result.Reply)
	return result, nil
}

// ExchangeStream processes one inbound message in streaming mode, calling
// onToken for each provider delta. No classification happens on streamed
// output. The full exchange is persisted only after the stream completes;
// cancellation or a provider error persists nothing.
func (s *Service) ExchangeStream(ctx context.Context, identity domain.Identity, sessionID, message string, onToken TokenFunc) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	sess, err := s.resolveSession(ctx, identity, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		s.log.Error().Err(err).Str("identity", string(identity)).Msg("session resolution failed")
		sess = nil
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := s.client.Stream(streamCtx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.client.Name()).Msg("stream start failed")
		return err
	}

	for ev := range events {
		switch ev.Type {
		case llm.EventDelta:
			if err := onToken(ev.Content); err != nil {
				// Caller disconnected. Cancel the provider and drain.
				cancel()
				for range events {
				}
				return err
			}
		case llm.EventError:
			s.log.Error().Str("error", ev.Error).Msg("stream failed")
			return errors.New(ev.Error)
		case llm.EventDone:
			if ev.Response != nil && ev.Response.Content != "" {
				s.persistExchange(ctx, sess, message, domain.TextReply(ev.Response.Content))
			}
		}
	}
	return nil
}

// History returns the turns of the identity's session, oldest first. With an
// empty session id the default session is resolved; an identity with no
// sessions gets an empty history rather than an error.
func (s *Service) History(ctx context.Context, identity domain.Identity, sessionID string) ([]domain.Turn, error) {
	if sessionID == "" {
		latest, err := s.latestSession(ctx, identity)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return []domain.Turn{}, nil
		}
		sessionID = latest.ID
	} else if _, err := s.ownedSession(ctx, identity, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListTurns(ctx, sessionID)
}

// Sessions lists the identity's sessions, pinned first, most recent first.
func (s *Service) Sessions(ctx context.Context, identity domain.Identity) ([]domain.Session, error) {
	return s.store.ListByIdentity(ctx, identity)
}

// CreateSession provisions a fresh session for the identity.
func (s *Service) CreateSession(ctx context.Context, identity domain.Identity, title string) (*domain.Session, error) {
	return s.store.Create(ctx, identity, title)
}

// RenameSession sets the title of a session the identity owns.
func (s *Service) RenameSession(ctx context.Context, identity domain.Identity, sessionID, title string) error {
	if _, err := s.ownedSession(ctx, identity, sessionID); err != nil {
		return err
	}
	return s.store.Rename(ctx, sessionID, title)
}

// PinSession sets the pinned flag of a session the identity owns.
func (s *Service) PinSession(ctx context.Context, identity domain.Identity, sessionID string, pinned bool) error {
	if _, err := s.ownedSession(ctx, identity, sessionID); err != nil {
		return err
	}
	return s.store.SetPinned(ctx, sessionID, pinned)
}

// DeleteSession removes a session the identity owns, and its turns.
func (s *Service) DeleteSession(ctx context.Context, identity domain.Identity, sessionID string) error {
	if _, err := s.ownedSession(ctx, identity, sessionID); err != nil {
		return err
	}
	return s.store.Delete(ctx, sessionID)
}

// resolveSession returns the named session after an ownership check, or the
// identity's default session when no id is given.
func (s *Service) resolveSession(ctx context.Context, identity domain.Identity, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return s.store.GetOrCreate(ctx, identity)
	}
	return s.ownedSession(ctx, identity, sessionID)
}

// latestSession returns the identity's most recently updated session, nil
// when the identity has none. GetOrCreate makes the same choice, so the
// default exchange and the default history land on the same session even
// when an older session is pinned.
func (s *Service) latestSession(ctx context.Context, identity domain.Identity) (*domain.Session, error) {
	sessions, err := s.store.ListByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	var latest *domain.Session
	for i := range sessions {
		if latest == nil || sessions[i].UpdatedAt.After(latest.UpdatedAt) {
			latest = &sessions[i]
		}
	}
	return latest, nil
}

// ownedSession loads a session and verifies ownership. A session owned by a
// different identity reads as not found.
func (s *Service) ownedSession(ctx context.Context, identity domain.Identity, sessionID string) (*domain.Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Identity != identity {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// persistExchange appends the user turn then the assistant turn. Best-effort:
// failures are logged, the reply has already been produced.
func (s *Service) persistExchange(ctx context.Context, sess *domain.Session, message string, reply domain.Reply) {
	if sess == nil {
		return
	}

	now := time.Now().UTC()
	userTurn := domain.TextTurn(domain.RoleUser, message)
	userTurn.CreatedAt = now

	var assistantTurn domain.Turn
	if reply.Kind == domain.KindChart && reply.Chart != nil {
		assistantTurn = domain.ChartTurn(*reply.Chart)
	} else {
		assistantTurn = domain.TextTurn(domain.RoleAssistant, reply.Text)
	}
	// Keep the pair ordered even when appended within the same clock tick.
	assistantTurn.CreatedAt = now.Add(time.Microsecond)

	if err := s.store.AppendTurn(ctx, sess.ID, userTurn); err != nil {
		s.log.Error().Err(err).Str("sessionId", sess.ID).Msg("persisting user turn failed")
		return
	}
	if err := s.store.AppendTurn(ctx, sess.ID, assistantTurn); err != nil {
		s.log.Error().Err(err).Str("sessionId", sess.ID).Msg("persisting assistant turn failed")
	}
}
