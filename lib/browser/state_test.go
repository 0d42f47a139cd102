package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	cookies := []Cookie{
		{
			Name:     "session",
			Value:    "abc123",
			Domain:   ".nepviewer.com",
			Path:     "/",
			Expires:  1768561262,
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Lax",
		},
		{Name: "lang", Value: "pt-BR", Domain: "user.nepviewer.com", Path: "/"},
	}

	require.NoError(t, writeStateFile(path, cookies))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := readStateFile(path)
	require.NoError(t, err)
	require.Equal(t, cookies, got)
}

func TestReadStateFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := readStateFile(path)
	require.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewSession(Config{})
	require.False(t, s.Alive())
	s.Stop()
	s.Stop()
	require.False(t, s.Alive())
}
