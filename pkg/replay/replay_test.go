package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckRejectsSecondSighting(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()

	assert.True(t, s.Check("nonce-1"))
	assert.False(t, s.Check("nonce-1"))
}

func TestCheckAllowsDistinctNonces(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()

	assert.True(t, s.Check("a"))
	assert.True(t, s.Check("b"))
	assert.Equal(t, 2, s.Len())
}

func TestDefaultTTLAppliedWhenZero(t *testing.T) {
	s := New(0)
	defer s.Close()

	assert.True(t, s.Check("nonce"))
}

func TestCloseStopsEvictionAndClears(t *testing.T) {
	s := New(time.Minute)
	s.Check("nonce")
	require := assert.New(t)
	require.Equal(1, s.Len())

	s.Close()
	require.Equal(0, s.Len())

	// Close is idempotent.
	s.Close()
}
