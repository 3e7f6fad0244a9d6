package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bogglefinder/internal/auth"
	"github.com/robalobadob/bogglefinder/internal/credits"
	"github.com/robalobadob/bogglefinder/internal/database"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	err := rootCmd.Execute()
	return out.String(), err
}

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DB_PATH", filepath.Join(dir, "app.db"))
	t.Setenv("DICTIONARY_FILE", "")
	return dir
}

func TestSolveCmd(t *testing.T) {
	dir := testEnv(t)
	dict := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(dict, []byte("cat\ncats\ntax\n# comment\n"), 0o644))

	out, err := run(t, "solve", "catsxxxxxxxxxxxx", "--dict="+dict, "--order=length", "--max-path=0")
	require.NoError(t, err)
	assert.Contains(t, out, "C  A  T  S\n")
	assert.Contains(t, out, "CATS             (0,0) (0,1) (0,2) (0,3)\n")
	assert.Contains(t, out, "TAX              (0,2) (0,1) (1,0)\n")
	assert.Contains(t, out, "3 words")
	assert.Less(t, bytes.Index([]byte(out), []byte("CATS ")), bytes.Index([]byte(out), []byte("CAT ")))

	out, err = run(t, "solve", "catsxxxxxxxxxxxx", "--dict="+dict, "--order=coverage", "--max-path=3")
	require.NoError(t, err)
	assert.NotContains(t, out, "CATS")
	assert.Contains(t, out, "2 words")

	_, err = run(t, "solve", "cats", "--dict="+dict, "--order=random", "--max-path=0")
	assert.ErrorContains(t, err, "unknown --order")

	_, err = run(t, "solve", "cat5", "--dict="+dict, "--order=coverage", "--max-path=0")
	assert.Error(t, err)
}

func TestSolveCmd_DefaultDictionary(t *testing.T) {
	testEnv(t)

	out, err := run(t, "solve", "SDLYAIOBOCHNGTES", "--dict=", "--order=coverage", "--max-path=0")
	require.NoError(t, err)
	assert.Contains(t, out, "S  D  L  Y\n")
	assert.Contains(t, out, " words\n")
}

func TestCreditsCmd(t *testing.T) {
	testEnv(t)
	ctx := context.Background()

	db, err := database.OpenAndMigrate(ctx, os.Getenv("DB_PATH"))
	require.NoError(t, err)
	_, err = auth.NewUsers(db, credits.NewLedger(db, credits.DefaultPolicy)).
		Create(ctx, "alice", "password123", "")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := run(t, "credits", "grant", "alice", "5")
	require.NoError(t, err)
	assert.Equal(t, "alice: 6 credits (0 used)\n", out)

	out, err = run(t, "credits", "show", "ALICE")
	require.NoError(t, err)
	assert.Contains(t, out, "alice (referral code ")
	assert.Contains(t, out, "6 credits (0 used)")
	assert.Contains(t, out, "+5  grant")
	assert.Contains(t, out, "+1  signup")

	_, err = run(t, "credits", "grant", "nobody", "5")
	assert.ErrorContains(t, err, `no user named "nobody"`)

	_, err = run(t, "credits", "grant", "alice", "lots")
	assert.Error(t, err)

	_, err = run(t, "credits", "grant", "alice", "0")
	assert.ErrorIs(t, err, credits.ErrInvalidAmount)
}
