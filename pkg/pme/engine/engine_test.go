package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ivc"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/minimize"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

func deadChainCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: 2, Next: circuit.ConstFalse, Reset: circuit.ResetZero},
			{Lit: 4, Next: 2, Reset: circuit.ResetZero},
			{Lit: 6, Next: 4, Reset: circuit.ResetZero},
			{Lit: 8, Next: 6, Reset: circuit.ResetZero},
		},
		Bad: 8,
	}
}

// chainProof is the all-zero invariant in external numbering (odd
// literals are negations), plus a redundant clause.
func chainProof() []ExternalClause {
	return []ExternalClause{
		{3}, {5}, {7}, {9},
		{3, 9},
	}
}

func andGateCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Inputs: []circuit.Input{{Lit: 2}, {Lit: 4}},
		Gates: []circuit.AndGate{
			{Lhs: 6, Rhs0: 2, Rhs1: 4},
		},
		Bad: 6,
	}
}

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

func TestCheckProofValidRoundTrip(t *testing.T) {
	e, err := New(deadChainCircuit(), chainProof(), nil)
	require.NoError(t, err)

	valid, err := e.CheckProof()
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestCheckProofInvalid(t *testing.T) {
	e, err := New(deadChainCircuit(), []ExternalClause{{9}}, nil)
	require.NoError(t, err)

	valid, err := e.CheckProof()
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestNewRejectsEmptyClause(t *testing.T) {
	_, err := New(deadChainCircuit(), []ExternalClause{{}}, nil)
	assert.Error(t, err)
}

func TestNewRejectsZeroLiteral(t *testing.T) {
	_, err := New(deadChainCircuit(), []ExternalClause{{3, 0}}, nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownLiteral(t *testing.T) {
	_, err := New(deadChainCircuit(), []ExternalClause{{101}}, nil)
	assert.Error(t, err)
}

func TestMinimizeReturnsExternalClauses(t *testing.T) {
	e, err := New(deadChainCircuit(), chainProof(), nil)
	require.NoError(t, err)
	require.NoError(t, e.Minimize(minimize.BruteForce))

	require.Equal(t, 1, e.NumProofs())
	min, err := e.GetMinimumProof()
	require.NoError(t, err)
	require.Len(t, min, 4)
	for _, cls := range min {
		require.Len(t, cls, 1)
		// Negated latch literals come back in the caller's numbering.
		assert.Contains(t, []variable.ExternalID{3, 5, 7, 9}, cls[0])
	}
}

func TestMinimizeWithoutProofRejected(t *testing.T) {
	e, err := New(deadChainCircuit(), nil, nil)
	require.NoError(t, err)
	assert.Error(t, e.Minimize(minimize.BruteForce))
}

func TestMinimizeUnknownAlgorithmRejected(t *testing.T) {
	e, err := New(deadChainCircuit(), chainProof(), nil)
	require.NoError(t, err)
	assert.Error(t, e.Minimize(minimize.Algorithm(99)))
}

func TestProveRecordsCounterexample(t *testing.T) {
	e, err := New(andGateCircuit(), nil, nil)
	require.NoError(t, err)

	safe, err := e.Prove()
	require.NoError(t, err)
	require.False(t, safe)

	cex, err := e.GetCounterExample()
	require.NoError(t, err)
	require.Len(t, cex, 1)
	assert.Len(t, cex[0].Inputs, 2)
}

func TestCounterExampleAbsentUntilProve(t *testing.T) {
	e, err := New(deadChainCircuit(), nil, nil)
	require.NoError(t, err)
	_, err = e.GetCounterExample()
	assert.Error(t, err)
}

func TestFindIVCsReturnsExternalGates(t *testing.T) {
	e, err := New(stuckLowCircuit(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.FindIVCs(ivc.BF))

	require.Equal(t, 1, e.NumIVCs())
	core, err := e.GetMinimumIVC()
	require.NoError(t, err)
	assert.Equal(t, []variable.ExternalID{6}, core)
}
