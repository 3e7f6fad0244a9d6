// internal/httpserver/server.go
//
// HTTP server wiring for the Boggle finder.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Demo board (optional auth): "/demo".
//   - Auth endpoints: /auth/signup, /auth/login, /auth/logout, /auth/me.
//   - Gated endpoints: /credits/me, /solve/*, /solves/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every error body is {"error":"<code>"}.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/config"
	"github.com/robalobadob/bogglefinder/internal/credits"
	"github.com/robalobadob/bogglefinder/internal/store"
	"github.com/robalobadob/bogglefinder/internal/words"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Config  config.Config
	Store   store.Store
	History *store.History
	Users   *auth.Users
	Ledger  *credits.Ledger
	Signer  *auth.Signer
	Dict    words.Set

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server bundles the router and its dependencies.
type Server struct {
	r       *chi.Mux
	d       Deps
	auth    *auth.Middleware
	cookies auth.Cookies
	demo    *demoCache
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	cookies := auth.Cookies{Name: d.Config.CookieName, Secure: d.Config.Production()}
	s := &Server{
		r:       chi.NewRouter(),
		d:       d,
		auth:    auth.NewMiddleware(d.Users, d.Signer, cookies),
		cookies: cookies,
		demo:    newDemoCache(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(d.Config.ClientOrigin))     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "bogglefinder",
			"endpoints": []string{
				"/health", "/demo", "/auth/*", "/credits/me",
				"POST /solve", "/solve/{id}", "/solves/mine",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"words": s.d.Dict.Len()})
	})

	s.r.With(s.auth.OptionalAuth).Get("/demo", s.handleDemo)
	s.mountAuthRoutes()
	s.mountSolveRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// HTTPServer returns an http.Server serving the router on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}
