// internal/solve/types.go
//
// Type definitions for a solve session.
// Defines:
//   - Session: one solved board and the cursor stepping through its words.
//   - View: the JSON shape handed to the rendering layer.

package solve

import (
	"sync"
	"time"

	"github.com/robalobadob/bogglefinder/internal/board"
	"github.com/robalobadob/bogglefinder/internal/coverage"
)

// Session holds one solved board. The mutex serializes cursor moves, so a
// session is never stepped by two requests at once.
type Session struct {
	ID        string    // Unique session identifier (UUID).
	OwnerID   string    // User who paid for the solve.
	Letters   string    // Normalized 16-character input.
	CreatedAt time.Time // When the search ran.

	mu     sync.Mutex
	grid   *board.Grid
	cursor *coverage.Cursor
}

// View is a snapshot of a session for rendering.
type View struct {
	ID           string            `json:"id"`
	Board        [][]string        `json:"board"`
	Total        int               `json:"total"`
	Index        int               `json:"index"`
	Current      *board.FoundWord  `json:"current,omitempty"`
	State        coverage.State    `json:"state"`
	Covered      int               `json:"covered"`
	CoveredCells []board.Cell      `json:"coveredCells"`
	Words        []board.FoundWord `json:"words"`
}
