// internal/httpserver/routes_auth.go
//
// Account endpoints. Signup opens the credit account (with an optional
// referral code), login and signup both set the auth cookie.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/credits"
)

type signupReq struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// meRes is the shape of /auth/me and of a successful signup or login.
type meRes struct {
	*auth.User
	credits.Balance
}

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAuth)
		r.Get("/auth/me", s.handleMe)
		r.Get("/credits/me", s.handleCredits)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if !decode(w, r, &body) {
		return
	}
	u, err := s.d.Users.Create(r.Context(), body.Username, body.Password, body.ReferralCode)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_signup", "message": verr.Msg})
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "username_taken")
		case errors.Is(err, credits.ErrUnknownReferral):
			writeError(w, http.StatusBadRequest, "unknown_referral")
		default:
			log.Error().Err(err).Msg("create user")
			writeError(w, http.StatusInternalServerError, "signup_failed")
		}
		return
	}
	log.Info().Str("user", u.ID).Bool("referred", body.ReferralCode != "").Msg("signup")
	s.issue(w, r, u, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if !decode(w, r, &body) {
		return
	}
	u, err := s.d.Users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}
	s.issue(w, r, u, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	b, err := s.d.Ledger.Balance(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("balance")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, meRes{User: me, Balance: b})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	b, err := s.d.Ledger.Balance(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	events, err := s.d.Ledger.History(r.Context(), me.ID, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tokens":     b.Tokens,
		"tokensUsed": b.TokensUsed,
		"events":     events,
	})
}

// issue signs a token for u, sets the cookie and answers with the account.
func (s *Server) issue(w http.ResponseWriter, r *http.Request, u *auth.User, status int) {
	tok, exp, err := s.d.Signer.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	b, err := s.d.Ledger.Balance(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	s.cookies.Set(w, tok, exp)
	writeJSON(w, status, meRes{User: u, Balance: b})
}
