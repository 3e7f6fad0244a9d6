// internal/board/grid.go
//
// Board model for a 4x4 Boggle grid.
// Defines:
//   - Cell: a (row, col) position with king-move adjacency.
//   - Grid: the 16 display tokens, built from the user's letters.
//   - Path: an ordered sequence of cells spelling a word.
//
// Notes:
//   - The letter Q always occupies one cell but reads as the token "QU".
//   - Short input is padded with a blank token that never matches a word.

package board

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Size is the board edge length.
	Size = 4
	// Cells is the number of cells on the board.
	Cells = Size * Size

	// BlankToken pads boards built from fewer than 16 letters.
	BlankToken = " "
)

var (
	ErrInvalidGridSize = errors.New("board: grid must have exactly 16 cells")
	ErrInvalidLetter   = errors.New("board: letters must be A-Z")
	ErrInvalidPath     = errors.New("board: invalid path")
)

// Cell is a board position. Row and Col are both in [0, Size).
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CellAt returns the cell at row-major index i.
func CellAt(i int) Cell { return Cell{Row: i / Size, Col: i % Size} }

// Index returns the row-major index of c.
func (c Cell) Index() int { return c.Row*Size + c.Col }

// InBounds reports whether c lies on the board.
func (c Cell) InBounds() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// Adjacent reports whether o is one king move away from c.
func (c Cell) Adjacent(o Cell) bool {
	dr, dc := abs(c.Row-o.Row), abs(c.Col-o.Col)
	return dr <= 1 && dc <= 1 && (dr|dc) != 0
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Path is an ordered run of distinct, adjacent cells.
type Path []Cell

// Valid reports whether p is non-empty, stays on the board, moves only
// between adjacent cells and never revisits a cell.
func (p Path) Valid() bool {
	if len(p) == 0 {
		return false
	}
	var seen uint32
	for i, c := range p {
		if !c.InBounds() {
			return false
		}
		bit := uint32(1) << c.Index()
		if seen&bit != 0 {
			return false
		}
		seen |= bit
		if i > 0 && !p[i-1].Adjacent(c) {
			return false
		}
	}
	return true
}

// Grid holds one token per cell.
type Grid struct {
	tokens [Cells]string
}

// NewGrid builds a grid from up to 16 letters in row-major order.
// Letters are uppercased; anything outside A-Z is rejected.
func NewGrid(letters string) (*Grid, error) {
	letters = strings.ToUpper(letters)
	if len(letters) > Cells {
		return nil, fmt.Errorf("%w: got %d letters", ErrInvalidGridSize, len(letters))
	}
	g := &Grid{}
	for i := range g.tokens {
		if i >= len(letters) {
			g.tokens[i] = BlankToken
			continue
		}
		ch := letters[i]
		if ch < 'A' || ch > 'Z' {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidLetter, ch, i)
		}
		g.tokens[i] = tokenFor(ch)
	}
	return g, nil
}

// NewGridFromRows builds a grid from a Size x Size matrix of single letters.
// An empty string marks a blank cell.
func NewGridFromRows(rows [][]string) (*Grid, error) {
	if len(rows) != Size {
		return nil, fmt.Errorf("%w: got %d rows", ErrInvalidGridSize, len(rows))
	}
	g := &Grid{}
	for r, row := range rows {
		if len(row) != Size {
			return nil, fmt.Errorf("%w: row %d has %d cells", ErrInvalidGridSize, r, len(row))
		}
		for c, s := range row {
			i := Cell{Row: r, Col: c}.Index()
			s = strings.ToUpper(strings.TrimSpace(s))
			switch {
			case s == "":
				g.tokens[i] = BlankToken
			case s == "QU" || len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z':
				g.tokens[i] = tokenFor(s[0])
			default:
				return nil, fmt.Errorf("%w: %q at %s", ErrInvalidLetter, s, Cell{Row: r, Col: c})
			}
		}
	}
	return g, nil
}

func tokenFor(ch byte) string {
	if ch == 'Q' {
		return "QU"
	}
	return string(ch)
}

// Token returns the token at c, or "" when c is off the board.
func (g *Grid) Token(c Cell) string {
	if !c.InBounds() {
		return ""
	}
	return g.tokens[c.Index()]
}

// Rows returns the tokens as a display matrix.
func (g *Grid) Rows() [][]string {
	out := make([][]string, Size)
	for r := range out {
		out[r] = make([]string, Size)
		for c := range out[r] {
			out[r][c] = g.tokens[r*Size+c]
		}
	}
	return out
}

// Letters returns the 16-character input form of the grid.
// "QU" cells fold back to Q and blanks stay as spaces.
func (g *Grid) Letters() string {
	var b strings.Builder
	b.Grow(Cells)
	for _, t := range g.tokens {
		b.WriteByte(t[0])
	}
	return b.String()
}

// Spell concatenates the tokens along p.
func (g *Grid) Spell(p Path) (string, error) {
	if !p.Valid() {
		return "", ErrInvalidPath
	}
	var b strings.Builder
	for _, c := range p {
		b.WriteString(g.tokens[c.Index()])
	}
	return b.String(), nil
}
