// internal/board/search.go
//
// Exhaustive word search over a Grid.
//
// Every cell is a start point (row-major). From each cell the search walks
// depth-first through unvisited neighbours in a fixed direction order,
// testing every accumulated string against the dictionary. The first path
// that spells a word is kept; later paths to the same word are dropped.
//
// The visited set is a bitmask passed by value, so each frame owns its copy
// and no state is shared between calls.

package board

import (
	"cmp"
	"slices"
)

const (
	// DefaultMaxPathLength bounds the number of cells in a path.
	DefaultMaxPathLength = 8
	// MinWordLength is the shortest word the search reports.
	MinWordLength = 3
)

// directions is the neighbour visit order: NW, N, NE, W, E, SW, S, SE.
var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Dictionary is the word membership test the search runs against.
// Words are uppercase.
type Dictionary interface {
	Has(word string) bool
}

// FoundWord is a dictionary word together with the path that spells it.
type FoundWord struct {
	Word string `json:"word"`
	Path Path   `json:"path"`
}

// Search finds every dictionary word of at least MinWordLength letters that
// can be traced on g with at most maxPathLength cells. maxPathLength <= 0
// selects DefaultMaxPathLength.
//
// The result is sorted by descending word length, then alphabetically.
// It is never nil.
func Search(g *Grid, dict Dictionary, maxPathLength int) ([]FoundWord, error) {
	if g == nil {
		return nil, ErrInvalidGridSize
	}
	if maxPathLength <= 0 {
		maxPathLength = DefaultMaxPathLength
	}
	s := &searcher{
		grid:   g,
		dict:   dict,
		maxLen: maxPathLength,
		seen:   make(map[string]struct{}),
		found:  []FoundWord{},
	}
	if dict == nil {
		return s.found, nil
	}
	for i := 0; i < Cells; i++ {
		start := CellAt(i)
		s.walk(start, uint32(1)<<i, g.tokens[i], Path{start})
	}
	slices.SortStableFunc(s.found, compareFound)
	return s.found, nil
}

// compareFound orders longer words first, then alphabetically.
func compareFound(a, b FoundWord) int {
	if c := cmp.Compare(len(b.Word), len(a.Word)); c != 0 {
		return c
	}
	return cmp.Compare(a.Word, b.Word)
}

type searcher struct {
	grid   *Grid
	dict   Dictionary
	maxLen int
	seen   map[string]struct{}
	found  []FoundWord
}

func (s *searcher) walk(at Cell, visited uint32, word string, path Path) {
	if len(word) >= MinWordLength && s.dict.Has(word) {
		if _, dup := s.seen[word]; !dup {
			s.seen[word] = struct{}{}
			s.found = append(s.found, FoundWord{Word: word, Path: slices.Clone(path)})
		}
	}
	if len(path) >= s.maxLen {
		return
	}
	for _, d := range directions {
		next := Cell{Row: at.Row + d[0], Col: at.Col + d[1]}
		if !next.InBounds() {
			continue
		}
		bit := uint32(1) << next.Index()
		if visited&bit != 0 {
			continue
		}
		// Full slice expression forces append to copy, so sibling
		// branches never write into each other's backing array.
		s.walk(next, visited|bit, word+s.grid.tokens[next.Index()], append(path[:len(path):len(path)], next))
	}
}
