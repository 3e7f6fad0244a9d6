package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

type ctxUserKey struct{}

// Middleware resolves the session token on incoming requests.
type Middleware struct {
	users   *Users
	signer  *Signer
	cookies Cookies
}

// NewMiddleware returns auth middleware backed by users and signer.
func NewMiddleware(users *Users, signer *Signer, cookies Cookies) *Middleware {
	return &Middleware{users: users, signer: signer, cookies: cookies}
}

// RequireAuth enforces a valid token for a user that still exists and puts
// the user into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := m.cookies.bearerOrCookie(r)
		if tok == "" {
			unauthorized(w, "unauthorized")
			return
		}
		u, err := m.resolve(r.Context(), tok)
		if err != nil {
			unauthorized(w, "invalid_token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// OptionalAuth adds the user to the context when a valid token is present.
// It never rejects a request.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := m.cookies.bearerOrCookie(r); tok != "" {
			if u, err := m.resolve(r.Context(), tok); err == nil {
				r = r.WithContext(WithUser(r.Context(), u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) resolve(ctx context.Context, tok string) (*User, error) {
	claims, err := m.signer.Parse(tok)
	if err != nil {
		return nil, err
	}
	return m.users.FindByID(ctx, claims.ID)
}

// unauthorized writes a 401 with a JSON error body.
func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// FromContext returns the authenticated user, or nil.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}
