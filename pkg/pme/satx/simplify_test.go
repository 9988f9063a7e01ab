package satx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

func TestSimplifyPropagatesUnitsIntoTrail(t *testing.T) {
	a := New(pmeopts.BackendSimplifying, false, nil)
	v := freshIDs(2)
	a.Freeze(v[0])

	require.NoError(t, a.AddClause(ids.Clause{v[0]}))
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[0]), v[1]}))

	residual, units, err := a.Simplify()
	require.NoError(t, err)
	assert.Contains(t, units, v[0])
	// v[1] is forced but not frozen, so it is folded away rather than
	// reported.
	assert.NotContains(t, units, v[1])
	for _, cls := range residual {
		assert.NotContains(t, cls, ids.Negate(v[0]))
	}
}

func TestSimplifyKeepsFrozenClauses(t *testing.T) {
	a := New(pmeopts.BackendSimplifying, false, nil)
	v := freshIDs(3)
	for _, id := range v {
		a.Freeze(id)
	}
	require.NoError(t, a.AddClause(ids.Clause{v[0], v[1], v[2]}))

	residual, _, err := a.Simplify()
	require.NoError(t, err)
	assert.NotEmpty(t, residual)
}

func TestSimplifyEliminatesUnfrozenAuxiliary(t *testing.T) {
	a := New(pmeopts.BackendSimplifying, false, nil)
	v := freshIDs(3)
	a.Freeze(v[0])
	a.Freeze(v[1])
	// v[2] is a pure connective: v[0] -> v[2], v[2] -> v[1]; elimination
	// resolves the two into v[0] -> v[1].
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[0]), v[2]}))
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[2]), v[1]}))

	residual, _, err := a.Simplify()
	require.NoError(t, err)
	for _, cls := range residual {
		assert.NotContains(t, cls, v[2])
		assert.NotContains(t, cls, ids.Negate(v[2]))
	}
}

func TestSimplifyConflictYieldsFalseUnit(t *testing.T) {
	a := New(pmeopts.BackendSimplifying, false, nil)
	v := freshIDs(1)
	require.NoError(t, a.AddClause(ids.Clause{v[0]}))
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[0])}))

	residual, _, err := a.Simplify()
	require.NoError(t, err)
	require.Len(t, residual, 1)
	assert.Equal(t, ids.Clause{ids.ID_FALSE}, residual[0])
}

func TestSimplifiedCNFStaysEquisatisfiable(t *testing.T) {
	a := New(pmeopts.BackendSimplifying, false, nil)
	v := freshIDs(4)
	a.Freeze(v[0])
	a.Freeze(v[3])
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[0]), v[1]}))
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[1]), v[2]}))
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[2]), v[3]}))

	residual, units, err := a.Simplify()
	require.NoError(t, err)

	b := New(pmeopts.BackendCore, false, nil)
	for _, cls := range residual {
		require.NoError(t, b.AddClause(cls))
	}
	for _, u := range units {
		require.NoError(t, b.AddClause(ids.Clause{u}))
	}
	// The chain forces v[3] whenever v[0] holds, and the residual must
	// preserve that over the frozen endpoints.
	sat, _ := b.Solve(ids.Cube{v[0], ids.Negate(v[3])}, false)
	assert.False(t, sat)
	sat, _ = b.Solve(ids.Cube{v[0], v[3]}, false)
	assert.True(t, sat)
}
