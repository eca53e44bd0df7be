package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	UserID   int64
	Username string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Verifier is satisfied by *TokenIssuer.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Middleware requires a valid "Authorization: Bearer <token>" header.
// onUnauthorized writes the rejection.
func Middleware(v Verifier, onUnauthorized func(http.ResponseWriter, *http.Request, string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				onUnauthorized(w, r, "missing token")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				onUnauthorized(w, r, "invalid token format")
				return
			}

			id, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				onUnauthorized(w, r, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
