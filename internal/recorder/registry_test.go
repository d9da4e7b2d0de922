package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryOpenIsIdempotent(t *testing.T) {
	r := NewRegistry(Options{})

	first, created := r.Open("alice")
	require.True(t, created)
	again, created := r.Open("alice")
	assert.False(t, created)
	assert.Same(t, first, again)

	got, ok := r.Get("alice")
	assert.True(t, ok)
	assert.Same(t, first, got)

	_, ok = r.Get("bob")
	assert.False(t, ok)
}

func TestRegistrySessionsAreIsolated(t *testing.T) {
	r := NewRegistry(Options{})
	a, _ := r.Open("a")
	b, _ := r.Open("b")
	a.Start()
	b.Start()

	a.RecordKey(10, "x", "")
	a.RecordKey(20, "y", "")
	b.RecordKey(10, "z", "")

	assert.Len(t, a.Snapshot().Keys, 2)
	assert.Len(t, b.Snapshot().Keys, 1)
}

func TestRegistryCloseStopsSession(t *testing.T) {
	r := NewRegistry(Options{})
	g, _ := r.Open("s1")
	r.Open("s0")
	g.Start()

	assert.Equal(t, []string{"s0", "s1"}, r.IDs())
	assert.True(t, r.Close("s1"))
	assert.False(t, g.Collecting())
	assert.False(t, r.Close("s1"))
	assert.Equal(t, []string{"s0"}, r.IDs())
}
