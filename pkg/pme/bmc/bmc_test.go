package bmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/safety"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

func toggleCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: 2, Next: circuit.Lit(2).Not(), Reset: circuit.ResetZero},
		},
		Bad: 2,
	}
}

func deadChainCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: 2, Next: circuit.ConstFalse, Reset: circuit.ResetZero},
			{Lit: 4, Next: 2, Reset: circuit.ResetZero},
		},
		Bad: 4,
	}
}

func buildTR(t *testing.T, circ *circuit.Circuit) *tr.TransitionRelation {
	t.Helper()
	relation, err := tr.New(variable.New(), circ)
	require.NoError(t, err)
	return relation
}

func TestSolveFindsToggleAtDepthOne(t *testing.T) {
	relation := buildTR(t, toggleCircuit())
	result := New(relation, nil).Solve(2)

	require.Equal(t, safety.Unsafe, result.Result)
	require.Len(t, result.Cex, 2)

	latch := relation.Latches()[0].ID
	assert.Contains(t, result.Cex[0].State, ids.Negate(latch))
	assert.Contains(t, result.Cex[1].State, latch)
}

func TestSolveBoundTooShallowIsUnknown(t *testing.T) {
	relation := buildTR(t, toggleCircuit())
	result := New(relation, nil).Solve(0)
	assert.Equal(t, safety.Unknown, result.Result)
}

func TestSolveSafeCircuitExhaustsBound(t *testing.T) {
	relation := buildTR(t, deadChainCircuit())
	result := New(relation, nil).Solve(5)
	assert.Equal(t, safety.Unknown, result.Result)
}

func TestSolveAtDepthIsIncremental(t *testing.T) {
	relation := buildTR(t, toggleCircuit())
	s := New(relation, nil)

	assert.False(t, s.SolveAtDepth(0, nil))
	assert.True(t, s.SolveAtDepth(1, nil))
	// Depth 2 is back at the reset value.
	assert.False(t, s.SolveAtDepth(2, nil))
}

func TestHybridRefutesThroughBoundedPhase(t *testing.T) {
	relation := buildTR(t, toggleCircuit())
	result := NewHybrid(relation, 4, nil).Prove()
	assert.Equal(t, safety.Unsafe, result.Result)
}

func TestHybridProvesThroughUnboundedPhase(t *testing.T) {
	relation := buildTR(t, deadChainCircuit())
	result := NewHybrid(relation, 2, nil).Prove()
	assert.Equal(t, safety.Safe, result.Result)
}
