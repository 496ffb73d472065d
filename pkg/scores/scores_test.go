package scores

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []float64{1, 0.5, 0, 0.52}))

	expected := "0 1.0000000000\n1 0.5000000000\n2 0.0000000000\n3 0.5200000000\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posterior.txt")
	in := []float64{0.6, 0.52, 0.5, 0.123456789012}

	require.NoError(t, Write(path, in))

	out, err := Read(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, in, out, 1e-10)

	// no temporary files left next to the output
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := []float64{0.1, 0.2, 1.0 / 3}

	first := filepath.Join(dir, "a.txt")
	require.NoError(t, Write(first, in))
	firstBytes, err := os.ReadFile(first)
	require.NoError(t, err)

	require.NoError(t, Write(first, in))
	secondBytes, err := os.ReadFile(first)
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)
}

func TestWriteReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	require.NoError(t, Write(path, []float64{0.25}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0 0.2500000000\n", string(data))
}

func TestWriteUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "scores.txt")

	err := Write(path, []float64{1})
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDecode(t *testing.T) {
	scores, err := Decode(strings.NewReader("0 0.5\n1 0.25\n\n2 1"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25, 1}, scores)

	_, err = Decode(strings.NewReader("0 0.5\n2 0.25\n"))
	assert.ErrorIs(t, err, ErrMalformedLine)

	_, err = Decode(strings.NewReader("0 abc\n"))
	assert.ErrorIs(t, err, ErrMalformedLine)

	_, err = Read(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.5, 0.1, 0.9, 0.3, 0.7})

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 0.1, s.Min)
	assert.Equal(t, 0.9, s.Max)
	assert.InDelta(t, 0.5, s.Mean, 1e-12)
	assert.Equal(t, 0.5, s.Median)
	assert.Greater(t, s.StdDev, 0.0)

	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, 0.0, Summarize([]float64{0.4}).StdDev)
}

func TestMaxChange(t *testing.T) {
	change, ok := MaxChange([]float64{0.5, 0.2, 0.9}, []float64{0.4, 0.5, 0.9})
	require.True(t, ok)
	assert.InDelta(t, 0.3, change, 1e-12)

	_, ok = MaxChange([]float64{0.5}, []float64{0.5, 0.1})
	assert.False(t, ok, "node count changed")
	_, ok = MaxChange(nil, nil)
	assert.False(t, ok)
}

func TestTop(t *testing.T) {
	scores := []float64{0.5, 0.1, 0.9, 0.1, 0.7}

	lowest := Top(scores, 3, true)
	assert.Equal(t, []Ranked{{1, 0.1}, {3, 0.1}, {0, 0.5}}, lowest)

	highest := Top(scores, 2, false)
	assert.Equal(t, []Ranked{{2, 0.9}, {4, 0.7}}, highest)

	assert.Len(t, Top(scores, 0, true), 5)
	assert.Len(t, Top(scores, 50, true), 5)
}
