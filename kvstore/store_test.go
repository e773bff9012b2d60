package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingKey(t *testing.T) {
	s := New()
	_, ok := s.Read("x")
	assert.False(t, ok)
}

func TestWriteThenRead(t *testing.T) {
	s := New()
	s.Write("x", 42)
	v, ok := s.Read("x")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCompareAndSwapNotFound(t *testing.T) {
	s := New()
	err := s.CompareAndSwap("x", 1, 2)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestCompareAndSwapMismatch(t *testing.T) {
	s := New()
	s.Write("x", 1)
	err := s.CompareAndSwap("x", 2, 3)
	assert.ErrorIs(t, err, ErrCasMismatch)
	v, _ := s.Read("x")
	assert.Equal(t, 1, v)
}

func TestCompareAndSwapArrayValue(t *testing.T) {
	s := New()
	s.Write("x", []any{float64(1), float64(2)})
	err := s.CompareAndSwap("x", []any{float64(1), float64(2)}, []any{float64(3), float64(4)})
	require.NoError(t, err)
	v, _ := s.Read("x")
	assert.Equal(t, []any{float64(3), float64(4)}, v)
}

func TestCompareAndSwapSuccess(t *testing.T) {
	s := New()
	s.Write("x", 1)
	err := s.CompareAndSwap("x", 1, 2)
	require.NoError(t, err)
	v, _ := s.Read("x")
	assert.Equal(t, 2, v)
}
