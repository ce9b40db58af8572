package storage

import (
	"testing"

	"github.com/cuemby/portod/pkg/security"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltPersistRoundTripPlaintext(t *testing.T) {
	p := NewBoltPersist(openTestStore(t), nil)

	require.NoError(t, p.SaveProperty("a", "memory_limit", "512M"))
	require.NoError(t, p.SaveProperty("a", "command", ""))

	props, err := p.LoadProperties("a")
	require.NoError(t, err)
	require.Equal(t, "512M", props["memory_limit"])
	require.Equal(t, "", props["command"])
}

func TestBoltPersistRoundTripEncrypted(t *testing.T) {
	sm, err := security.NewSecretsManagerFromPassword("test-password")
	require.NoError(t, err)
	p := NewBoltPersist(openTestStore(t), sm)

	require.NoError(t, p.SaveProperty("a", "private", "top secret payload"))
	require.NoError(t, p.SaveProperty("a", "command", ""))

	props, err := p.LoadProperties("a")
	require.NoError(t, err)
	require.Equal(t, "top secret payload", props["private"])
	require.Equal(t, "", props["command"])
}

func TestBoltPersistDeleteAndList(t *testing.T) {
	p := NewBoltPersist(openTestStore(t), nil)

	require.NoError(t, p.SaveProperty("a", "command", "/bin/true"))
	require.NoError(t, p.SaveProperty("b", "command", "/bin/false"))

	names, err := p.ListContainers()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names)

	require.NoError(t, p.DeleteContainer("a"))
	names, err = p.ListContainers()
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, names)
}
