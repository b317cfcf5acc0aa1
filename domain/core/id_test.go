package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		require.False(t, id.IsEmpty(), "generated empty ID at iteration %d", i)
		require.False(t, ids[id], "generated duplicate ID: %s", id)
		ids[id] = true
	}
	assert.Len(t, ids, numIDs)
}

func TestIDIsEmpty(t *testing.T) {
	assert.True(t, ID("").IsEmpty())
	assert.False(t, ID("not-empty").IsEmpty())
	assert.Equal(t, "test-123", ID("test-123").String())
}

func TestNewRunIDIsTimeOrdered(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.Less(t, a.String(), b.String())
}

func TestHashShort(t *testing.T) {
	h := NewHash([]byte("G3;sex\n10;F\n"))
	assert.Len(t, h.String(), 64)
	assert.Equal(t, h.String()[:12], h.Short())
	assert.Equal(t, h, NewHash([]byte("G3;sex\n10;F\n")))
	assert.Equal(t, "abc", Hash("abc").Short())
}
