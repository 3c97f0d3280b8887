// ABOUTME: HTTP middleware resolving the token cookie into a request identity
// ABOUTME: Also sets and clears the token cookie on login, registration and logout

package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/2389/todo-board/internal/store"
)

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "token"

// TokenResolver resolves a session token to a user; (nil, nil) means unknown.
type TokenResolver interface {
	GetUserByToken(ctx context.Context, token string) (*store.User, error)
}

// IdentityMiddleware reads the token cookie and attaches the matching user to
// the request context. Requests without a valid token continue anonymously;
// lookup failures are logged and also continue anonymously.
func IdentityMiddleware(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.GetUserByToken(r.Context(), cookie.Value)
			if err != nil {
				logger.Error("resolving token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
		})
	}
}

// SetTokenCookie stores the session token in the browser.
// The cookie is Secure when the request arrived over TLS or secure is set.
func SetTokenCookie(w http.ResponseWriter, r *http.Request, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie expires the session token cookie.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
