// Package coverage decides which found word to show next.
//
// A Cursor walks a length-sorted word list. The first LinearSteps advances
// move straight down the list. After that, or as soon as the words passed
// through cover every board cell, advance jumps to the word that best
// finishes coverage (or, once coverage is done, to the longest word not yet
// shown). Coverage bookkeeping only moves forward: Retreat never undoes it.
package coverage

import (
	"math/bits"

	"github.com/robalobadob/bogglefinder/internal/board"
)

// LinearSteps is the index at which Advance stops walking the list linearly
// and starts steering towards uncovered cells.
const LinearSteps = 10

const fullCoverage = uint32(1)<<board.Cells - 1

// State is the cursor's coarse position.
type State string

const (
	Browsing         State = "browsing"
	CoverageComplete State = "coverage_complete"
	Exhausted        State = "exhausted"
)

// Cursor tracks the word on display and which words and cells the user has
// already passed through. It is not safe for concurrent use.
type Cursor struct {
	words     []board.FoundWord
	index     int
	usedWords map[string]struct{}
	usedCells uint32
	complete  bool
}

// New returns a cursor at the first word of words. For a one-word list the
// cursor starts on the last word, so that word already counts as used.
func New(words []board.FoundWord) *Cursor {
	c := &Cursor{}
	c.Reset(words)
	return c
}

// Reset returns the cursor to its initial state over words.
// A nil list models a cleared board.
func (c *Cursor) Reset(words []board.FoundWord) {
	c.words = words
	c.index = 0
	c.usedWords = make(map[string]struct{})
	c.usedCells = 0
	c.complete = false
	c.arrive()
}

// Advance moves to the next word chosen by the coverage policy.
// It reports false, without changing anything, when the cursor is already
// on the last word.
func (c *Cursor) Advance() bool {
	if c.index >= len(c.words)-1 {
		return false
	}
	c.markUsed(c.index)

	next := -1
	switch {
	case c.complete:
		next = c.longestUnused()
	case c.index >= LinearSteps:
		next = c.firstUncovering()
		if next < 0 {
			next = c.longestUnused()
		}
	}
	if next < 0 {
		next = c.index + 1
	}
	c.index = next
	c.arrive()
	return true
}

// Retreat steps back one word. Coverage bookkeeping is left as is.
func (c *Cursor) Retreat() bool {
	if c.index == 0 {
		return false
	}
	c.index--
	return true
}

// arrive marks the word as passed through when the cursor lands on the
// last index, since no later Advance will.
func (c *Cursor) arrive() {
	if len(c.words) > 0 && c.index == len(c.words)-1 {
		c.markUsed(c.index)
	}
}

func (c *Cursor) markUsed(i int) {
	fw := c.words[i]
	c.usedWords[fw.Word] = struct{}{}
	c.usedCells |= pathMask(fw.Path)
	if c.usedCells == fullCoverage {
		c.complete = true
	}
}

// longestUnused returns the first unused word in list order. The list is
// sorted longest first, so that is the longest one left.
func (c *Cursor) longestUnused() int {
	for i, fw := range c.words {
		if _, used := c.usedWords[fw.Word]; !used {
			return i
		}
	}
	return -1
}

// firstUncovering returns the first unused word whose path touches a cell
// no used word has covered yet.
func (c *Cursor) firstUncovering() int {
	for i, fw := range c.words {
		if _, used := c.usedWords[fw.Word]; used {
			continue
		}
		if pathMask(fw.Path)&^c.usedCells != 0 {
			return i
		}
	}
	return -1
}

func pathMask(p board.Path) uint32 {
	var m uint32
	for _, cell := range p {
		if cell.InBounds() {
			m |= 1 << cell.Index()
		}
	}
	return m
}

// Index is the position of the current word in the list.
func (c *Cursor) Index() int { return c.index }

// Len is the number of words in the list.
func (c *Cursor) Len() int { return len(c.words) }

// Words returns the list the cursor walks.
func (c *Cursor) Words() []board.FoundWord { return c.words }

// Current returns the word on display.
func (c *Cursor) Current() (board.FoundWord, bool) {
	if len(c.words) == 0 {
		return board.FoundWord{}, false
	}
	return c.words[c.index], true
}

// State reports Exhausted on the last word (or an empty list),
// CoverageComplete once every cell is covered, and Browsing otherwise.
func (c *Cursor) State() State {
	switch {
	case c.index >= len(c.words)-1:
		return Exhausted
	case c.complete:
		return CoverageComplete
	default:
		return Browsing
	}
}

// CoverageComplete reports whether the used words cover the whole board.
func (c *Cursor) CoverageComplete() bool { return c.complete }

// Covered is the number of distinct cells touched by used words.
func (c *Cursor) Covered() int { return bits.OnesCount32(c.usedCells) }

// CoveredCells lists the covered cells in row-major order.
func (c *Cursor) CoveredCells() []board.Cell {
	out := make([]board.Cell, 0, c.Covered())
	for i := 0; i < board.Cells; i++ {
		if c.usedCells&(1<<i) != 0 {
			out = append(out, board.CellAt(i))
		}
	}
	return out
}

// Used reports whether word has been passed through.
func (c *Cursor) Used(word string) bool {
	_, ok := c.usedWords[word]
	return ok
}

// Walk runs a fresh cursor over words until it is exhausted and returns the
// indices it visited, starting with 0.
func Walk(words []board.FoundWord) []int {
	if len(words) == 0 {
		return []int{}
	}
	c := New(words)
	order := []int{c.Index()}
	for c.Advance() {
		order = append(order, c.Index())
	}
	return order
}

// Order is Walk followed by the indices the walk skipped, in list order.
// It is a permutation of the word indices.
func Order(words []board.FoundWord) []int {
	order := Walk(words)
	seen := make([]bool, len(words))
	for _, i := range order {
		seen[i] = true
	}
	for i := range words {
		if !seen[i] {
			order = append(order, i)
		}
	}
	return order
}
