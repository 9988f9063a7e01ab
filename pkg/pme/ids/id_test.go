package ids

import "testing"

import "github.com/stretchr/testify/assert"

func TestNegateInvolution(t *testing.T) {
	id := Prime(MIN_ID, 3)
	assert.Equal(t, id, Negate(Negate(id)))
}

func TestStripNegateInvariant(t *testing.T) {
	id := Prime(MIN_ID+ID_INCR, 7)
	assert.Equal(t, Strip(id), Strip(Negate(id)))
}

func TestNPrimesRoundTrip(t *testing.T) {
	id := MIN_ID
	for n := uint(0); n < 50; n++ {
		assert.Equal(t, n, NPrimes(Prime(id, n)))
	}
}

func TestPrimeFixedPointOnConstants(t *testing.T) {
	for n := uint(0); n < 5; n++ {
		assert.Equal(t, ID_TRUE, Prime(ID_TRUE, n))
		assert.Equal(t, ID_FALSE, Prime(ID_FALSE, n))
	}
}

func TestUnprimeClearsDepth(t *testing.T) {
	id := Prime(MIN_ID, 12)
	assert.Equal(t, uint(0), NPrimes(Unprime(id)))
	assert.Equal(t, MIN_ID, Unprime(id))
}

func TestSubsumes(t *testing.T) {
	a := SortedCopy([]ID{MIN_ID, MIN_ID + ID_INCR})
	b := SortedCopy([]ID{MIN_ID, MIN_ID + ID_INCR, MIN_ID + 2*ID_INCR})
	assert.True(t, Subsumes(a, b))
	assert.False(t, Subsumes(b, a))
}

func TestCubeKeyStable(t *testing.T) {
	a := SortedCopy([]ID{MIN_ID + 4, MIN_ID, MIN_ID + 2})
	b := SortedCopy([]ID{MIN_ID, MIN_ID + 2, MIN_ID + 4})
	assert.Equal(t, CubeKey(a), CubeKey(b))
}
