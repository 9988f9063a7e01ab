package ivc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// stuckLowCircuit: bad is a gate pinned low by a latch that never leaves
// reset; a second gate fed by the input is irrelevant to the property.
// The unique validity core is the bad-driving gate alone.
func stuckLowCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Inputs: []circuit.Input{{Lit: 4}},
		Latches: []circuit.Latch{
			{Lit: 2, Next: 2, Reset: circuit.ResetZero},
		},
		Gates: []circuit.AndGate{
			{Lhs: 6, Rhs0: 2, Rhs1: 2},
			{Lhs: 8, Rhs0: 4, Rhs1: 4},
		},
		Bad: 6,
	}
}

func fixture(t *testing.T) (*tr.TransitionRelation, ids.ID) {
	t.Helper()
	relation, err := tr.New(variable.New(), stuckLowCircuit())
	require.NoError(t, err)
	return relation, relation.Gates()[0].Lhs
}

func runFinder(t *testing.T, alg Algorithm) (Finder, *tr.TransitionRelation, ids.ID) {
	t.Helper()
	relation, badGate := fixture(t)
	f, err := New(alg, relation, nil)
	require.NoError(t, err)
	require.NoError(t, f.FindIVCs())
	return f, relation, badGate
}

func TestBFFindsSingleGateCore(t *testing.T) {
	f, _, badGate := runFinder(t, BF)
	require.Equal(t, 1, f.NumIVCs())
	assert.Equal(t, []ids.ID{badGate}, f.GetMinimumIVC())
}

func TestUCBFFindsSingleGateCore(t *testing.T) {
	f, _, badGate := runFinder(t, UCBF)
	require.Equal(t, 1, f.NumIVCs())
	assert.Equal(t, []ids.ID{badGate}, f.GetMinimumIVC())
}

func TestMarcoEnumeratesExactlyOneCore(t *testing.T) {
	f, _, badGate := runFinder(t, MarcoIVC)
	require.Equal(t, 1, f.NumIVCs())
	assert.Equal(t, []ids.ID{badGate}, f.GetIVC(0))
}

func TestCAIVCFindsCoreThroughHittingSets(t *testing.T) {
	f, _, badGate := runFinder(t, CAIVC)
	require.GreaterOrEqual(t, f.NumIVCs(), 1)
	assert.Equal(t, []ids.ID{badGate}, f.GetMinimumIVC())
}

func TestUIVCFindsCoreThroughZigZag(t *testing.T) {
	f, _, badGate := runFinder(t, UIVC)
	require.GreaterOrEqual(t, f.NumIVCs(), 1)
	assert.Equal(t, []ids.ID{badGate}, f.GetMinimumIVC())
}

func TestCBVCFindsCore(t *testing.T) {
	f, _, badGate := runFinder(t, CBVC)
	require.GreaterOrEqual(t, f.NumIVCs(), 1)
	assert.Equal(t, []ids.ID{badGate}, f.GetMinimumIVC())
}

func TestUnknownAlgorithmRejected(t *testing.T) {
	relation, _ := fixture(t)
	_, err := New(Algorithm(99), relation, nil)
	assert.Error(t, err)
}

func TestShrinkKeepsAbstractionSafe(t *testing.T) {
	relation, badGate := fixture(t)
	ctx := newContext(relation, pmeopts.Default())

	require.True(t, ctx.isSafe(ctx.gates))
	core := ctx.shrink(ctx.gates)
	assert.Equal(t, []ids.ID{badGate}, core)
}

func TestUnsafeAbstractionDetected(t *testing.T) {
	relation, badGate := fixture(t)
	ctx := newContext(relation, pmeopts.Default())

	// Dropping the bad-driving gate turns bad into a free input.
	assert.False(t, ctx.isSafe(ctx.complement([]ids.ID{badGate})))
}
