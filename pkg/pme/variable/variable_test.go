package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
)

func TestNewHasConstants(t *testing.T) {
	m := New()
	assert.True(t, m.IsKnown(ids.ID_FALSE))
	assert.True(t, m.IsKnownExternal(0))

	internal, err := m.ToInternal(0)
	require.NoError(t, err)
	assert.Equal(t, ids.ID_FALSE, internal)
}

func TestGetNewIDRoundTrip(t *testing.T) {
	m := New()
	id := m.GetNewID("latch0", 4)

	assert.True(t, m.IsKnown(id))
	assert.True(t, m.IsKnownExternal(4))

	ext, err := m.ToExternal(id)
	require.NoError(t, err)
	assert.Equal(t, ExternalID(4), ext)

	internal, err := m.ToInternal(4)
	require.NoError(t, err)
	assert.Equal(t, id, internal)
}

func TestToInternalPreservesSign(t *testing.T) {
	m := New()
	id := m.GetNewID("a", 6)

	neg, err := m.ToInternal(7) // external 7 = sign bit set on 6
	require.NoError(t, err)
	assert.Equal(t, ids.Negate(id), neg)
}

func TestToExternalPreservesSign(t *testing.T) {
	m := New()
	id := m.GetNewID("a", 8)

	ext, err := m.ToExternal(ids.Negate(id))
	require.NoError(t, err)
	assert.Equal(t, ExternalID(9), ext)
}

func TestToInternalUnknownErrors(t *testing.T) {
	m := New()
	_, err := m.ToInternal(42)
	assert.Error(t, err)
}

func TestToExternalWithNoCounterpartErrors(t *testing.T) {
	m := New()
	// Minted with no external literal (e.g. a Tseitin auxiliary).
	id := m.GetNewID("aux", 0)
	_, err := m.ToExternal(id)
	assert.Error(t, err)
}

func TestVarOfDefaultName(t *testing.T) {
	m := New()
	id := m.GetNewID("", 10)
	v := m.VarOf(id)
	assert.Equal(t, "ID_"+itoa(id), v.Name)
}

func TestMakeInternalClause(t *testing.T) {
	m := New()
	a := m.GetNewID("a", 2)
	b := m.GetNewID("b", 4)

	cls, err := m.MakeInternalClause([]ExternalID{3, 4})
	require.NoError(t, err)
	require.Len(t, cls, 2)
	assert.Equal(t, ids.Negate(a), cls[0])
	assert.Equal(t, b, cls[1])
}

func itoa(id ids.ID) string {
	if id == 0 {
		return "0"
	}
	digits := []byte{}
	n := uint64(id)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
