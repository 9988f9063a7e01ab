package ic3

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

// andGateCircuit is combinational: two inputs, bad = i1 & i2.
func andGateCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Inputs: []circuit.Input{{Lit: 2}, {Lit: 4}},
		Gates: []circuit.AndGate{
			{Lhs: 6, Rhs0: 2, Rhs1: 4},
		},
		Bad: 6,
	}
}

// deadChainCircuit is a four-latch chain whose head is fed constant
// false: under all-zero reset nothing ever becomes 1, so bad = l3 is
// unreachable.
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

// toggleCircuit flips its latch every step; bad = latch, reachable at
// depth 1.
func toggleCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: 2, Next: circuit.Lit(2).Not(), Reset: circuit.ResetZero},
		},
		Bad: 2,
	}
}

func buildTR(t *testing.T, circ *circuit.Circuit) (*variable.Manager, *tr.TransitionRelation) {
	t.Helper()
	vars := variable.New()
	relation, err := tr.New(vars, circ)
	require.NoError(t, err)
	return vars, relation
}

func TestProveCombinationalUnsafe(t *testing.T) {
	_, relation := buildTR(t, andGateCircuit())
	result := New(relation, nil).Prove()

	require.Equal(t, safety.Unsafe, result.Result)
	require.Len(t, result.Cex, 1)
	assert.Len(t, result.Cex[0].Inputs, 2)
}

func TestProveDeadChainSafe(t *testing.T) {
	_, relation := buildTR(t, deadChainCircuit())
	result := New(relation, nil).Prove()

	require.Equal(t, safety.Safe, result.Result)
	assert.NotEmpty(t, result.Proof)
}

func TestProveToggleUnsafeWithTwoStepTrace(t *testing.T) {
	_, relation := buildTR(t, toggleCircuit())
	result := New(relation, nil).Prove()

	require.Equal(t, safety.Unsafe, result.Result)
	require.GreaterOrEqual(t, len(result.Cex), 2)

	// The trace starts at the reset state, where the latch is 0.
	latch := relation.Latches()[0].ID
	assert.Contains(t, result.Cex[0].State, ids.Negate(latch))
}

func TestProveTrivialUnsafeAtReset(t *testing.T) {
	circ := &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: 2, Next: 2, Reset: circuit.ResetOne},
		},
		Bad: 2,
	}
	_, relation := buildTR(t, circ)
	result := New(relation, nil).Prove()

	require.Equal(t, safety.Unsafe, result.Result)
	require.Len(t, result.Cex, 1)
	assert.Contains(t, result.Cex[0].State, relation.Latches()[0].ID)
}

func TestReinitiateRestoresInitiation(t *testing.T) {
	_, relation := buildTR(t, deadChainCircuit())
	s := New(relation, nil)
	s.ensureSeeded()

	l0 := relation.Latches()[0].ID
	l1 := relation.Latches()[1].ID

	// {¬l1} intersects the all-zero reset state; within {l0, ¬l1} the l0
	// literal is what excludes it, so it must be kept.
	sub := ids.SortedCopy(ids.Cube{ids.Negate(l1)})
	orig := ids.SortedCopy(ids.Cube{l0, ids.Negate(l1)})
	require.False(t, s.initiation(sub))
	require.True(t, s.initiation(orig))

	result := s.reinitiate(sub, orig)
	assert.Contains(t, result, l0)
	assert.True(t, s.initiation(result))
}

func TestBlockingClauseExcludesStates(t *testing.T) {
	circ := &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: 2, Next: 2, Reset: circuit.ResetFree},
		},
		Bad: 2,
	}
	_, relation := buildTR(t, circ)
	s := New(relation, nil)
	s.ensureSeeded()

	l := relation.Latches()[0].ID
	require.False(t, s.initiation(ids.Cube{l}))

	s.AddBlockingClause(ids.Clause{ids.Negate(l)})
	assert.True(t, s.initiation(ids.Cube{l}))
}

func TestProofHoldsInductively(t *testing.T) {
	_, relation := buildTR(t, deadChainCircuit())
	result := New(relation, nil).Prove()
	require.Equal(t, safety.Safe, result.Result)

	// Every proof clause is over unprimed literals.
	for _, cls := range result.Proof {
		for _, lit := range cls {
			assert.Zero(t, ids.NPrimes(lit))
		}
	}
}
