package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the fields carried in a session token.
type Claims struct {
	ID       string
	Username string
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner returns a Signer. ttl <= 0 means 14 days.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Sign creates a token for the user and returns it with its expiry.
func (s *Signer) Sign(id, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return ss, exp, nil
}

// Parse verifies tok and returns its claims.
func (s *Signer) Parse(tok string) (*Claims, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{ID: id, Username: username}, nil
}

// Cookies writes and clears the auth cookie.
type Cookies struct {
	Name   string
	Secure bool // production: Secure + SameSite=None
}

// Set writes the auth token cookie with appropriate security attributes.
func (c Cookies) Set(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, c.cookie(token, exp, 0))
}

// Clear deletes the auth token cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", time.Time{}, -1))
}

func (c Cookies) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if c.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// bearerOrCookie extracts a bearer token from the Authorization header or the auth cookie.
func (c Cookies) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if ck, err := r.Cookie(c.Name); err == nil {
		return ck.Value
	}
	return ""
}
