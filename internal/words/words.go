// internal/words/words.go
//
// Dictionary loading for the board search.
//
// Responsibilities:
//   - Load the word list from DICTIONARY_FILE, or fall back to the embedded default.
//   - Normalize entries (trim, uppercase) and keep only words of 3+ letters A–Z.
//   - Expose the list as a Set that satisfies board.Dictionary.
//
// File formats:
//   - *.json: a JSON array of strings (the format of the public Scrabble dictionary.json).
//   - anything else: one word per line, blank lines and "#" comments ignored.

package words

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/robalobadob/bogglefinder/assets"
	"github.com/robalobadob/bogglefinder/internal/board"
)

// ErrEmptyDictionary is returned when a source yields no usable words.
var ErrEmptyDictionary = errors.New("words: dictionary is empty")

// Set is an uppercase word set.
type Set map[string]struct{}

var _ board.Dictionary = Set(nil)

// Has reports whether w is in the set. Lookups are exact: callers pass uppercase.
func (s Set) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Len is the number of words in the set.
func (s Set) Len() int { return len(s) }

// Load reads a dictionary from path, or the embedded default when path is empty.
func Load(path string) (Set, error) {
	var list []string
	var err error
	switch {
	case path == "":
		list, err = assets.DictionaryList()
	case strings.EqualFold(filepath.Ext(path), ".json"):
		list, err = readJSONFile(path)
	default:
		list, err = readWordFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("words: load %q: %w", path, err)
	}
	s := FromList(list)
	if s.Len() == 0 {
		return nil, ErrEmptyDictionary
	}
	return s, nil
}

// FromList builds a Set from raw entries, dropping anything that is not a
// word of at least board.MinWordLength letters.
func FromList(list []string) Set {
	s := make(Set, len(list))
	for _, w := range list {
		if w, ok := normalize(w); ok {
			s[w] = struct{}{}
		}
	}
	return s
}

// Parse reads one word per line from r.
func Parse(r io.Reader) (Set, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return FromList(out), nil
}

func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	return out, nil
}

func readJSONFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}

// normalize trims and uppercases w and reports whether it is a usable word.
func normalize(w string) (string, bool) {
	w = strings.ToUpper(strings.TrimSpace(w))
	if len(w) < board.MinWordLength || !isAlpha(w) {
		return "", false
	}
	return w, true
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
