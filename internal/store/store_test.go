package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bogglefinder/internal/database"
	"github.com/robalobadob/bogglefinder/internal/solve"
	"github.com/robalobadob/bogglefinder/internal/words"
)

func newSession(t *testing.T, owner, letters string) *solve.Session {
	t.Helper()
	s, err := solve.New(owner, letters, words.FromList([]string{"CAT", "CATS"}), 0)
	require.NoError(t, err)
	return s
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, "missing"), ErrNotFound)
	assert.Error(t, st.Save(ctx, nil))

	s := newSession(t, "u1", "CATSXXXXXXXXXXXX")
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, st.Delete(ctx, s.ID))
	_, err = st.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewMemoryStore()

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		s := newSession(t, "u1", "CATS")
		ids[i] = s.ID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Save(ctx, s)
			_, _ = st.Get(ctx, s.ID)
		}()
	}
	wg.Wait()

	for _, id := range ids {
		_, err := st.Get(ctx, id)
		assert.NoError(t, err)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := database.OpenAndMigrate(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at, referral_code)
	                              VALUES ('u1','alice','x','2024-01-01T00:00:00Z','AAAAAA')`)
	require.NoError(t, err)

	h := NewHistory(db)
	empty, err := h.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := newSession(t, "u1", "CATSXXXXXXXXXXXX")
	first.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	second := newSession(t, "u1", "XXXXXXXXXXXXXXXX")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)

	r := RecordOf(first)
	assert.Equal(t, 2, r.WordCount)
	assert.Equal(t, "CATS", r.Longest)

	require.NoError(t, h.Insert(ctx, r))
	require.NoError(t, h.Insert(ctx, r), "duplicate insert is ignored")
	require.NoError(t, h.Insert(ctx, RecordOf(second)))

	got, err := h.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, 0, got[0].WordCount)
	assert.Empty(t, got[0].Longest)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, "CATSXXXXXXXXXXXX", got[1].Letters)

	other, err := h.Recent(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
