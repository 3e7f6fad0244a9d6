package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/robalobadob/bogglefinder/internal/solve"
)

// Record is one row of a user's solve history.
type Record struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	Letters   string `json:"letters"`
	WordCount int    `json:"wordCount"`
	Longest   string `json:"longest,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// RecordOf summarizes a finished solve.
func RecordOf(s *solve.Session) Record {
	r := Record{
		ID:        s.ID,
		UserID:    s.OwnerID,
		Letters:   s.Letters,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
	words := s.Words()
	r.WordCount = len(words)
	if len(words) > 0 {
		r.Longest = words[0].Word
	}
	return r
}

// History keeps the durable log of solves in sqlite.
type History struct{ db *sql.DB }

func NewHistory(db *sql.DB) *History { return &History{db: db} }

// Insert records r. Re-inserting the same ID is a no-op.
func (h *History) Insert(ctx context.Context, r Record) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO solves(id, user_id, letters, word_count, longest, created_at)
		 VALUES(?,?,?,?,?,?)`, r.ID, r.UserID, r.Letters, r.WordCount, r.Longest, r.CreatedAt,
	)
	return err
}

// Recent returns the user's latest solves, newest first.
func (h *History) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, user_id, letters, word_count, longest, created_at
		 FROM solves
		 WHERE user_id=?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.Letters, &r.WordCount, &r.Longest, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
