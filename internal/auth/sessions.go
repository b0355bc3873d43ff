package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Allen20077/8berries/internal/domain"
)

// CookieName is the browser session cookie.
const CookieName = "8berries_session"

const sweepInterval = 1 * time.Minute

// SessionManager issues opaque login tokens and resolves them back to an
// identity until they expire.
type SessionManager struct {
	mu     sync.Mutex
	tokens map[string]loginSession
	ttl    time.Duration
	secure bool
	stop   chan struct{}
	once   sync.Once
}

type loginSession struct {
	identity  domain.Identity
	expiresAt time.Time
}

// NewSessionManager creates a session manager with the given token lifetime.
func NewSessionManager(ttl time.Duration, secureCookies bool) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	sm := &SessionManager{
		tokens: make(map[string]loginSession),
		ttl:    ttl,
		secure: secureCookies,
		stop:   make(chan struct{}),
	}
	go sm.periodicSweep()
	return sm
}

// periodicSweep removes expired tokens every minute.
func (sm *SessionManager) periodicSweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			sm.mu.Lock()
			for token, ls := range sm.tokens {
				if now.After(ls.expiresAt) {
					delete(sm.tokens, token)
				}
			}
			sm.mu.Unlock()
		case <-sm.stop:
			return
		}
	}
}

// Close stops the background sweeper.
func (sm *SessionManager) Close() {
	sm.once.Do(func() { close(sm.stop) })
}

// Issue creates a login token for the identity and sets the session cookie.
func (sm *SessionManager) Issue(w http.ResponseWriter, identity domain.Identity) string {
	token := uuid.NewString()

	sm.mu.Lock()
	sm.tokens[token] = loginSession{identity: identity, expiresAt: time.Now().Add(sm.ttl)}
	sm.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// Resolve returns the identity for a request's session cookie, if valid.
func (sm *SessionManager) Resolve(r *http.Request) (domain.Identity, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	ls, ok := sm.tokens[cookie.Value]
	if !ok {
		return "", false
	}
	if time.Now().After(ls.expiresAt) {
		delete(sm.tokens, cookie.Value)
		return "", false
	}
	return ls.identity, true
}

// Revoke invalidates the request's session token and clears the cookie.
func (sm *SessionManager) Revoke(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		sm.mu.Lock()
		delete(sm.tokens, cookie.Value)
		sm.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
