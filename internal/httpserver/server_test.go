package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/config"
	"github.com/robalobadob/bogglefinder/internal/credits"
	"github.com/robalobadob/bogglefinder/internal/database"
	"github.com/robalobadob/bogglefinder/internal/demo"
	"github.com/robalobadob/bogglefinder/internal/solve"
	"github.com/robalobadob/bogglefinder/internal/store"
	"github.com/robalobadob/bogglefinder/internal/words"
)

const cookieName = "boggle_token"

var testDay = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		Env:           "test",
		CookieName:    cookieName,
		ClientOrigin:  "http://localhost:3000",
		MaxPathLength: 8,
		DemoSalt:      "test_salt",
	}
	ledger := credits.NewLedger(db, credits.DefaultPolicy)
	return New(Deps{
		Config:  cfg,
		Store:   store.NewMemoryStore(),
		History: store.NewHistory(db),
		Users:   auth.NewUsers(db, ledger),
		Ledger:  ledger,
		Signer:  auth.NewSigner("test_secret", time.Hour),
		Dict:    words.FromList([]string{"CAT", "CATS", "TAX", "QUIT"}),
		Now:     func() time.Time { return testDay },
	})
}

func do(t *testing.T, s *Server, method, path string, body any, ck *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeAs[map[string]string](t, rec)["error"]
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", cookieName)
	return nil
}

type account struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ReferralCode string `json:"referralCode"`
	Tokens       int    `json:"tokens"`
	TokensUsed   int    `json:"tokensUsed"`
}

func signup(t *testing.T, s *Server, username, referral string) (account, *http.Cookie) {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/auth/signup", map[string]string{
		"username": username, "password": "password123", "referralCode": referral,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[account](t, rec), authCookie(t, rec)
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = do(t, s, http.MethodGet, "/debug/words", nil, nil)
	assert.JSONEq(t, `{"words":4}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = do(t, s, http.MethodOptions, "/solve", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	acc, ck := signup(t, s, "alice", "")
	assert.Equal(t, "alice", acc.Username)
	assert.Equal(t, 1, acc.Tokens)
	assert.Len(t, acc.ReferralCode, credits.ReferralCodeLength)
	assert.True(t, ck.HttpOnly)

	rec := do(t, s, http.MethodGet, "/auth/me", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeAs[account](t, rec)
	assert.Equal(t, acc.ID, me.ID)
	assert.Equal(t, 1, me.Tokens)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+ck.Value)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no or bad token", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/auth/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "unauthorized", errorCode(t, rec))
		bad := &http.Cookie{Name: cookieName, Value: "garbage"}
		assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/auth/me", nil, bad).Code)
	})

	t.Run("login", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/auth/login", map[string]string{"username": "ALICE", "password": "password123"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, acc.ID, decodeAs[account](t, rec).ID)
		authCookie(t, rec)

		rec = do(t, s, http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "nope nope"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_credentials", errorCode(t, rec))
	})

	t.Run("signup errors", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "password123"}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "username_taken", errorCode(t, rec))

		rec = do(t, s, http.MethodPost, "/auth/signup", map[string]string{"username": "x", "password": "password123"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_signup", errorCode(t, rec))

		req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString("{"))
		rec = httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", errorCode(t, rec))
	})

	t.Run("logout", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/auth/logout", nil, ck)
		assert.Equal(t, http.StatusOK, rec.Code)
		cleared := authCookie(t, rec)
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	})
}

type creditsBody struct {
	Tokens int             `json:"tokens"`
	Events []credits.Event `json:"events"`
}

func TestReferralSignup(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	ref, refCk := signup(t, s, "referrer", "")
	newbie, _ := signup(t, s, "newbie", ref.ReferralCode)
	assert.Equal(t, 3, newbie.Tokens)

	rec := do(t, s, http.MethodGet, "/credits/me", nil, refCk)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeAs[creditsBody](t, rec)
	assert.Equal(t, 3, body.Tokens)
	require.Len(t, body.Events, 2)
	assert.Equal(t, credits.ReasonReferral, body.Events[0].Reason)

	rec = do(t, s, http.MethodPost, "/auth/signup", map[string]string{
		"username": "bob", "password": "password123", "referralCode": "ZZZZZZ",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_referral", errorCode(t, rec))
}

func TestSolveFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	_, ck := signup(t, s, "alice", "")
	_, otherCk := signup(t, s, "mallory", "")

	balance := func() int {
		return decodeAs[account](t, do(t, s, http.MethodGet, "/credits/me", nil, ck)).Tokens
	}

	assert.Equal(t, http.StatusUnauthorized,
		do(t, s, http.MethodPost, "/solve", map[string]string{"letters": "CATS"}, nil).Code)

	rec := do(t, s, http.MethodPost, "/solve", map[string]string{"letters": "CATS1"}, ck)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_letter", errorCode(t, rec))

	rec = do(t, s, http.MethodPost, "/solve", map[string]string{"letters": "ABCDEFGHIJKLMNOPQ"}, ck)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_grid_size", errorCode(t, rec))
	assert.Equal(t, 1, balance(), "invalid input costs nothing")

	rec = do(t, s, http.MethodPost, "/solve", map[string]string{"letters": "catsxxxxxxxxxxxx"}, ck)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decodeAs[solve.View](t, rec)
	assert.Equal(t, 3, v.Total)
	assert.Equal(t, 0, v.Index)
	require.NotNil(t, v.Current)
	assert.Equal(t, "CATS", v.Current.Word)
	assert.Equal(t, []string{"C", "A", "T", "S"}, v.Board[0])
	assert.Equal(t, 0, balance())

	base := "/solve/" + v.ID

	rec = do(t, s, http.MethodPost, base+"/next", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeAs[solve.View](t, rec)
	assert.Equal(t, 1, v.Index)
	assert.Equal(t, "CAT", v.Current.Word)
	assert.Equal(t, 4, v.Covered)

	v = decodeAs[solve.View](t, do(t, s, http.MethodPost, base+"/prev", nil, ck))
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, 4, v.Covered, "retreat keeps coverage")

	v = decodeAs[solve.View](t, do(t, s, http.MethodPost, base+"/restart", nil, ck))
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, 0, v.Covered)

	v = decodeAs[solve.View](t, do(t, s, http.MethodGet, base, nil, ck))
	assert.Equal(t, 3, v.Total)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, base, nil, otherCk).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, base+"/next", nil, otherCk).Code)

	rec = do(t, s, http.MethodPost, "/solve", map[string]string{"letters": "QUIT"}, ck)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient_credits", errorCode(t, rec))

	rec = do(t, s, http.MethodGet, "/solves/mine", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	recs := decodeAs[[]store.Record](t, rec)
	require.Len(t, recs, 1)
	assert.Equal(t, v.ID, recs[0].ID)
	assert.Equal(t, 3, recs[0].WordCount)
	assert.Equal(t, "CATS", recs[0].Longest)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, base, nil, otherCk).Code)
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, base, nil, ck).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, base, nil, ck).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, base, nil, ck).Code)
}

func TestDemo(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/demo", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeAs[demoRes](t, rec)
	assert.Equal(t, "2024-06-01", res.Date)
	assert.Equal(t, demo.Letters(testDay, "test_salt"), res.Letters)
	assert.Len(t, res.Board, 4)
	assert.Len(t, res.Words, res.Total)

	again := decodeAs[demoRes](t, do(t, s, http.MethodGet, "/demo", nil, nil))
	assert.Equal(t, res, again)
}

func TestDemo_SignedInSeesCredits(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	_, ck := signup(t, s, "alice", "")

	anon := decodeAs[map[string]any](t, do(t, s, http.MethodGet, "/demo", nil, nil))
	assert.NotContains(t, anon, "tokens")

	bad := &http.Cookie{Name: cookieName, Value: "garbage"}
	rec := do(t, s, http.MethodGet, "/demo", nil, bad)
	require.Equal(t, http.StatusOK, rec.Code, "a bad token still sees the demo")
	assert.NotContains(t, decodeAs[map[string]any](t, rec), "tokens")

	rec = do(t, s, http.MethodGet, "/demo", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeAs[map[string]any](t, rec)
	assert.EqualValues(t, 1, body["tokens"])
	assert.Equal(t, anon["letters"], body["letters"])
}

// failingStore refuses to save, as a durable store might.
type failingStore struct{ store.Store }

func (failingStore) Save(context.Context, *solve.Session) error { return errors.New("disk full") }

func TestSolve_RefundsWhenSaveFails(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.d.Store = failingStore{Store: store.NewMemoryStore()}
	_, ck := signup(t, s, "alice", "")

	rec := do(t, s, http.MethodPost, "/solve", map[string]string{"letters": "catsxxxxxxxxxxxx"}, ck)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "save_failed", errorCode(t, rec))

	body := decodeAs[account](t, do(t, s, http.MethodGet, "/credits/me", nil, ck))
	assert.Equal(t, 1, body.Tokens)
	assert.Equal(t, 0, body.TokensUsed)

	recs := decodeAs[[]store.Record](t, do(t, s, http.MethodGet, "/solves/mine", nil, ck))
	assert.Empty(t, recs)
}
