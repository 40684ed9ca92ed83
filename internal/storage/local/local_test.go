package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", "state.yaml"))
	require.NoError(t, err)
	_, ok := s.Get("sessions")
	assert.False(t, ok)
}

func TestSetPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set("sessions", `[{"date":"2024-01-01"}]`))
	require.NoError(t, s.Set("theme", "dark"))

	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("sessions")
	require.True(t, ok)
	assert.Equal(t, `[{"date":"2024-01-01"}]`, v)

	require.NoError(t, reopened.Delete("theme"))
	require.NoError(t, reopened.Delete("missing"))

	again, err := Open(path)
	require.NoError(t, err)
	_, ok = again.Get("theme")
	assert.False(t, ok)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sessions: [unclosed"), 0o644))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
}
