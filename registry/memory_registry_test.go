package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry(t *testing.T) {
	reg := NewMemoryRegistry()
	require.NoError(t, reg.Register("dcf", Instance{Addr: ":1", Weight: 1}, 10))
	require.NoError(t, reg.Register("dcf", Instance{Addr: ":2", Weight: 1}, 10))
	require.NoError(t, reg.Register("dcf", Instance{Addr: ":1", Weight: 7}, 10))

	got, err := reg.Discover("dcf")
	require.NoError(t, err)
	assert.Equal(t, []Instance{{Addr: ":1", Weight: 7}, {Addr: ":2", Weight: 1}}, got)

	require.NoError(t, reg.Deregister("dcf", ":1"))
	got, _ = reg.Discover("dcf")
	assert.Equal(t, []Instance{{Addr: ":2", Weight: 1}}, got)

	got, _ = reg.Discover("other")
	assert.Empty(t, got)
}

func TestStaticRegistry(t *testing.T) {
	reg := NewStaticRegistry("dcf", []string{"10.0.0.1:50051", "10.0.0.2:50051"})

	got, err := reg.Discover("dcf")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.1:50051", got[0].Addr)
	assert.Equal(t, 1, got[1].Weight)
}

func TestDiscoverReturnsCopy(t *testing.T) {
	reg := NewStaticRegistry("dcf", []string{"a:1"})
	got, _ := reg.Discover("dcf")
	got[0].Addr = "mutated"

	again, _ := reg.Discover("dcf")
	assert.Equal(t, "a:1", again[0].Addr)
}
