package coldstorage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryAdapterRoundTrips(t *testing.T) {
	m := NewMemoryAdapter()
	require.True(t, m.IsAvailable())

	m.Write("id1", []byte("hello"))
	got, err := m.Read("id1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestMemoryAdapterWriteCopiesInput(t *testing.T) {
	m := NewMemoryAdapter()
	buf := []byte("hello")
	m.Write("id1", buf)
	buf[0] = 'z'

	got, err := m.Read("id1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestMemoryAdapterReadMissingIsError(t *testing.T) {
	m := NewMemoryAdapter()
	_, err := m.Read("missing")
	require.Error(t, err)
}

func TestMemoryAdapterDelete(t *testing.T) {
	m := NewMemoryAdapter()
	m.Write("id1", []byte("hello"))
	require.NoError(t, m.Delete("id1"))
	_, err := m.Read("id1")
	require.Error(t, err)
}
