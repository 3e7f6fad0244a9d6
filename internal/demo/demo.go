// Package demo picks the free board shown to visitors each day.
//
// The board is a roll of the 16 classic Boggle dice, seeded from
// HMAC(salt, YYYY-MM-DD) so every server with the same salt shows the same
// board all day and nobody can predict tomorrow's without the salt.
package demo

import (
	"crypto/hmac"
	"crypto/sha256"
	"math/rand/v2"
	"time"

	"github.com/robalobadob/bogglefinder/internal/board"
)

// Dice are the faces of the classic 16 dice. Q stands for the Qu face.
var Dice = [board.Cells]string{
	"AAEEGN", "ABBJOO", "ACHOPS", "AFFKPS",
	"AOOTTW", "CIMOTU", "DEILRX", "DELRVY",
	"DISTTY", "EEGHNW", "EEINSU", "EHRTVW",
	"EIOSST", "ELRTTY", "HIMNQU", "HLNNRZ",
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Letters returns the 16-letter board for the day containing t.
func Letters(t time.Time, salt string) string {
	rng := rand.New(rand.NewChaCha8(seed(DateKey(t), salt)))

	order := rng.Perm(len(Dice))
	out := make([]byte, len(Dice))
	for i, d := range order {
		faces := Dice[d]
		out[i] = faces[rng.IntN(len(faces))]
	}
	return string(out)
}

// Grid is Letters as a board.
func Grid(t time.Time, salt string) *board.Grid {
	g, err := board.NewGrid(Letters(t, salt))
	if err != nil {
		// dice faces are always A-Z
		panic(err)
	}
	return g
}

func seed(date, salt string) [32]byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(date))
	var s [32]byte
	copy(s[:], h.Sum(nil))
	return s
}
