package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Allen20077/8berries/internal/domain"
)

type contextKey struct{}

var identityKey contextKey

// IdentityFrom returns the authenticated identity stored on the request
// context by RequireIdentity.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the identity. Exposed for tests.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// RequireIdentity rejects requests without a valid login session. API
// requests get a JSON 401; page requests are redirected to the login page.
func (sm *SessionManager) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := sm.Resolve(r)
		if !ok {
			if strings.HasPrefix(r.URL.Path, "/api") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Not logged in"}`))
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
