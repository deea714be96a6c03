package turnlog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestLogger_WritesOneRowPerTurn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.tsv")
	l, err := New(path, ColID, ColCreatedDate)
	require.NoError(t, err)

	require.NoError(t, l.NewTurn())
	l.Log("question", "có bao nhiêu nghệ sĩ?")
	l.Log("final_sql", "SELECT COUNT(*) FROM artists")
	require.NoError(t, l.SaveTurn())

	require.NoError(t, l.NewTurn())
	l.Log("question", "liệt kê album")
	require.NoError(t, l.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "created_date", "question", "final_sql"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "có bao nhiêu nghệ sĩ?", rows[1][2])
	assert.Equal(t, "2", rows[2][0])
	assert.Equal(t, "", rows[2][3])
}

func TestLogger_RepeatedKeyAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.tsv")
	l, err := New(path)
	require.NoError(t, err)

	require.NoError(t, l.NewTurn())
	l.Log("note", "first")
	l.Log("note", "second")
	require.NoError(t, l.SaveTurn())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "first\nsecond", rows[1][1])
}

func TestLogger_HeaderWidensAndOldRowsPad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.tsv")
	l, err := New(path)
	require.NoError(t, err)

	require.NoError(t, l.NewTurn())
	l.Log("a", "1")
	require.NoError(t, l.SaveTurn())

	require.NoError(t, l.NewTurn())
	l.Log("b", "2")
	require.NoError(t, l.SaveTurn())

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{ColCreatedDate, "a", "b"}, rows[0])
	assert.Equal(t, "1", rows[1][1])
	// The first row predates column b; it reads back padded.
	require.Len(t, rows[1], 3)
	assert.Equal(t, "", rows[1][2])
	assert.Equal(t, "2", rows[2][2])
}

func TestLogger_ResumesIDFromExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.tsv")
	l, err := New(path, ColID)
	require.NoError(t, err)
	require.NoError(t, l.NewTurn())
	l.Log("q", "x")
	require.NoError(t, l.Close())

	reopened, err := New(path, ColID)
	require.NoError(t, err)
	require.NoError(t, reopened.NewTurn())
	reopened.Log("q", "y")
	require.NoError(t, reopened.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "2", rows[2][0])
}

func TestHook_RecordsPromptAndResponseByPhase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.tsv")
	l, err := New(path)
	require.NoError(t, err)
	require.NoError(t, l.NewTurn())

	h := Hook{Log: l}
	ctx := context.Background()
	h.Before(ctx, "direct_generation_candidate", "prompt text", nil)
	h.After(ctx, "direct_generation_candidate", json.RawMessage(`{"sql":"SELECT 1"}`), nil)
	h.After(ctx, "merge", nil, errors.New("model unavailable"))
	require.NoError(t, l.Close())

	rows := readRows(t, path)
	header := rows[0]
	assert.Contains(t, header, "direct_generation_candidate_prompt")
	assert.Contains(t, header, "direct_generation_candidate_response")
	assert.Contains(t, header, "merge_error")
}
