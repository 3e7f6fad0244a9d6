// internal/httpserver/routes_solve.go
//
// Solve endpoints (auth required).
//   - POST   /solve              → validate letters, spend one credit, search, 201 + View
//   - GET    /solve/{id}         → current View
//   - POST   /solve/{id}/next    → advance by the coverage policy
//   - POST   /solve/{id}/prev    → step back
//   - POST   /solve/{id}/restart → back to the first word, coverage reset
//   - DELETE /solve/{id}         → clear the board
//   - GET    /solves/mine        → recent solves from the history table
//
// A session is visible only to the user who paid for it; anyone else gets 404.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/board"
	"github.com/robalobadob/bogglefinder/internal/credits"
	"github.com/robalobadob/bogglefinder/internal/solve"
	"github.com/robalobadob/bogglefinder/internal/store"
)

type solveReq struct {
	Letters string `json:"letters"`
}

func (s *Server) mountSolveRoutes() {
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAuth)
		r.Post("/solve", s.handleSolve)
		r.Route("/solve/{id}", func(r chi.Router) {
			r.Get("/", s.withSession((*solve.Session).View))
			r.Post("/next", s.withSession((*solve.Session).Next))
			r.Post("/prev", s.withSession((*solve.Session).Prev))
			r.Post("/restart", s.withSession((*solve.Session).Restart))
			r.Delete("/", s.handleClear)
		})
		r.Get("/solves/mine", s.handleMySolves)
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	var req solveReq
	if !decode(w, r, &req) {
		return
	}

	// Validate before charging: bad input never costs a credit.
	g, err := solve.Validate(req.Letters)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrInvalidLetter):
			writeError(w, http.StatusBadRequest, "invalid_letter")
		default:
			writeError(w, http.StatusBadRequest, "invalid_grid_size")
		}
		return
	}

	bal, err := s.d.Ledger.Consume(r.Context(), me.ID)
	if err != nil {
		switch {
		case errors.Is(err, credits.ErrInsufficientCredits):
			writeError(w, http.StatusPaymentRequired, "insufficient_credits")
		case errors.Is(err, credits.ErrNotFound):
			writeError(w, http.StatusNotFound, "user_not_found")
		default:
			log.Error().Err(err).Str("user", me.ID).Msg("consume credit")
			writeError(w, http.StatusInternalServerError, "db_error")
		}
		return
	}

	sess, err := solve.FromGrid(me.ID, g, s.d.Dict, s.d.Config.MaxPathLength)
	if err != nil {
		log.Error().Err(err).Msg("search")
		s.refund(r, me.ID)
		writeError(w, http.StatusInternalServerError, "search_failed")
		return
	}
	if err := s.d.Store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		s.refund(r, me.ID)
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if s.d.History != nil {
		if err := s.d.History.Insert(r.Context(), store.RecordOf(sess)); err != nil {
			log.Warn().Err(err).Str("solve", sess.ID).Msg("record solve")
		}
	}

	v := sess.View()
	log.Info().
		Str("user", me.ID).
		Str("solve", sess.ID).
		Str("letters", sess.Letters).
		Int("words", v.Total).
		Int("tokensLeft", bal.Tokens).
		Msg("board solved")
	writeJSON(w, http.StatusCreated, v)
}

// refund returns the credit of a solve that produced no session.
func (s *Server) refund(r *http.Request, userID string) {
	if _, err := s.d.Ledger.Refund(r.Context(), userID); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("refund credit")
	}
}

// withSession resolves {id} to a session owned by the caller and answers
// with whatever view step returns.
func (s *Server) withSession(step func(*solve.Session) solve.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.ownedSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, step(sess))
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.d.Store.Delete(r.Context(), sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMySolves(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	if s.d.History == nil {
		writeJSON(w, http.StatusOK, []store.Record{})
		return
	}
	recs, err := s.d.History.Recent(r.Context(), me.ID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) (*solve.Session, bool) {
	me := auth.FromContext(r.Context())
	sess, err := s.d.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil || sess.OwnerID != me.ID {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}
