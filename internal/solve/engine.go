// internal/solve/engine.go
//
// Solve sessions: run the board search once, then step through the results.
// Responsibilities:
//   - Validate the letters and build the grid (Q folds to QU).
//   - Run board.Search with the configured path bound.
//   - Wrap the length-sorted results in a coverage.Cursor.
//   - Answer next / prev / restart requests and render Views.

package solve

import (
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/bogglefinder/internal/board"
	"github.com/robalobadob/bogglefinder/internal/coverage"
)

// Validate checks letters without running a search.
func Validate(letters string) (*board.Grid, error) {
	return board.NewGrid(letters)
}

// New solves letters against dict and returns a session positioned on the first word.
func New(ownerID, letters string, dict board.Dictionary, maxPathLength int) (*Session, error) {
	g, err := board.NewGrid(letters)
	if err != nil {
		return nil, err
	}
	return FromGrid(ownerID, g, dict, maxPathLength)
}

// FromGrid solves an already validated grid.
func FromGrid(ownerID string, g *board.Grid, dict board.Dictionary, maxPathLength int) (*Session, error) {
	words, err := board.Search(g, dict, maxPathLength)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Letters:   g.Letters(),
		CreatedAt: time.Now().UTC(),
		grid:      g,
		cursor:    coverage.New(words),
	}, nil
}

// Next advances the cursor by the coverage policy.
func (s *Session) Next() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Advance()
	return s.view()
}

// Prev steps the cursor back one word.
func (s *Session) Prev() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Retreat()
	return s.view()
}

// Restart puts the cursor back at the first word with fresh coverage bookkeeping.
func (s *Session) Restart() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Reset(s.cursor.Words())
	return s.view()
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Words returns the length-sorted results.
func (s *Session) Words() []board.FoundWord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Words()
}

func (s *Session) view() View {
	v := View{
		ID:           s.ID,
		Board:        s.grid.Rows(),
		Total:        s.cursor.Len(),
		Index:        s.cursor.Index(),
		State:        s.cursor.State(),
		Covered:      s.cursor.Covered(),
		CoveredCells: s.cursor.CoveredCells(),
		Words:        s.cursor.Words(),
	}
	if cur, ok := s.cursor.Current(); ok {
		v.Current = &cur
	}
	return v
}
