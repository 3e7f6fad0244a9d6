// internal/httpserver/routes_demo.go
//
// GET /demo serves the free board of the day: no account, no credit.
// Signed-in visitors also get their remaining credits.
// The board is derived from the date and DEMO_SALT, solved once per day and
// cached in memory; words are listed in the order the coverage cursor would
// visit them.

package httpserver

import (
	"math/bits"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/board"
	"github.com/robalobadob/bogglefinder/internal/coverage"
	"github.com/robalobadob/bogglefinder/internal/demo"
)

// demoRes is the solved board of one day, shared by every visitor.
type demoRes struct {
	Date    string            `json:"date"`
	Letters string            `json:"letters"`
	Board   [][]string        `json:"board"`
	Total   int               `json:"total"`
	Covered int               `json:"covered"`
	Words   []board.FoundWord `json:"words"`
}

// demoView is demoRes plus, for a signed-in visitor, their balance.
type demoView struct {
	demoRes
	Tokens *int `json:"tokens,omitempty"`
}

// demoCache holds the solved board for the current date only.
type demoCache struct {
	mu   sync.Mutex // guards date and res
	date string
	res  demoRes
}

func newDemoCache() *demoCache { return &demoCache{} }

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	now := s.d.Now()
	date := demo.DateKey(now)

	res, err := s.demoFor(date, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search_failed")
		return
	}

	v := demoView{demoRes: res}
	if me := auth.FromContext(r.Context()); me != nil {
		if b, err := s.d.Ledger.Balance(r.Context(), me.ID); err == nil {
			v.Tokens = &b.Tokens
		} else {
			log.Warn().Err(err).Str("user", me.ID).Msg("demo balance")
		}
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) demoFor(date string, now time.Time) (demoRes, error) {
	c := s.demo
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.date != date {
		res, err := s.solveDemo(date, demo.Grid(now, s.d.Config.DemoSalt))
		if err != nil {
			return demoRes{}, err
		}
		c.date, c.res = date, res
	}
	return c.res, nil
}

func (s *Server) solveDemo(date string, g *board.Grid) (demoRes, error) {
	found, err := board.Search(g, s.d.Dict, s.d.Config.MaxPathLength)
	if err != nil {
		return demoRes{}, err
	}
	ordered := make([]board.FoundWord, 0, len(found))
	cells := uint32(0)
	for _, i := range coverage.Order(found) {
		ordered = append(ordered, found[i])
		for _, c := range found[i].Path {
			cells |= 1 << c.Index()
		}
	}
	return demoRes{
		Date:    date,
		Letters: g.Letters(),
		Board:   g.Rows(),
		Total:   len(found),
		Covered: bits.OnesCount32(cells),
		Words:   ordered,
	}, nil
}
