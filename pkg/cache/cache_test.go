package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-sdg/pkg/program"
)

func sampleReport() *program.Report {
	return &program.Report{
		Nodes: []program.ReportNode{
			{ID: 0, Kind: "entry", Label: "entry Foo.m()"},
			{ID: 1, Kind: "actual-in", Label: "actual-in f @ Foo.m()", Actions: []program.ReportAction{
				{Kind: "usage", Name: "f", Fields: []string{"x"}},
			}},
		},
		Edges: []program.ReportEdge{{From: 0, To: 1}},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key := Key([]byte("program description"))
	require.NoError(t, s.Put(key, sampleReport()))

	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, sampleReport(), got)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewStore(dir)
	require.NoError(t, err)
	key := Key([]byte("input"))
	require.NoError(t, s1.Put(key, sampleReport()))

	// A fresh store over the same directory reads from disk.
	s2, err := NewStore(dir)
	require.NoError(t, err)
	got, err := s2.Get(key)
	require.NoError(t, err)
	assert.Equal(t, sampleReport(), got)
}

func TestStore_MissingKey(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(Key([]byte("absent")))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStore_Delete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	key := Key([]byte("input"))
	require.NoError(t, s.Put(key, sampleReport()))

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting again is fine.
	assert.NoError(t, s.Delete(key))
}

func TestStore_Clear(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put(Key([]byte("a")), sampleReport()))
	require.NoError(t, s.Put(Key([]byte("b")), sampleReport()))

	require.NoError(t, s.Clear())
	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, s.Clear())
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err, "clear must leave unrelated files alone")
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key([]byte("x")), Key([]byte("x")))
	assert.NotEqual(t, Key([]byte("x")), Key([]byte("y")))
}
