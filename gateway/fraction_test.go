package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombBasic(t *testing.T) {
	assert.Equal(t, 1.0, comb(0, 0))
	assert.Equal(t, 1.0, comb(5, 0))
	assert.Equal(t, 1.0, comb(5, 5))
	assert.Equal(t, 5.0, comb(5, 1))
	assert.Equal(t, 10.0, comb(5, 2))
	assert.Equal(t, 0.0, comb(5, 6))
	assert.Equal(t, 0.0, comb(5, -1))
}

func TestCeilHalf(t *testing.T) {
	assert.Equal(t, 3, ceilHalf(5))
	assert.Equal(t, 2, ceilHalf(4))
	assert.Equal(t, 1, ceilHalf(1))
}

func TestQuorumReadFractionN3(t *testing.T) {
	// spec.md §4.2: n == 3 is a distinguished case, p := 1, so the
	// fraction is 1 - 1/(3+1) = 0.75.
	f := quorumReadFraction(3)
	assert.InDelta(t, 0.75, f, 1e-9)
}

func TestQuorumReadFractionInRange(t *testing.T) {
	for n := 3; n <= 9; n++ {
		f := quorumReadFraction(n)
		assert.GreaterOrEqualf(t, f, 0.0, "n=%d", n)
		assert.LessOrEqualf(t, f, 1.0, "n=%d", n)
	}
}
