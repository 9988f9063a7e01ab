package tr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

// toggleCircuit is a single latch that flips every step (next = ¬latch),
// reset to 0, with bad = latch. This is the textbook "trivially safe at
// depth 0, bad first reachable at depth 1" fixture; bad holds at every odd
// depth.
func toggleCircuit() *circuit.Circuit {
	const latchLit circuit.Lit = 2
	return &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: latchLit, Next: latchLit.Not(), Reset: circuit.ResetZero},
		},
		Bad: latchLit,
	}
}

func TestNewRejectsUndefinedLiteral(t *testing.T) {
	vars := variable.New()
	circ := &circuit.Circuit{
		Latches: []circuit.Latch{
			{Lit: 2, Next: 4, Reset: circuit.ResetZero}, // 4 is never defined
		},
		Bad: 2,
	}
	_, err := New(vars, circ)
	assert.Error(t, err)
}

func TestUnrollFrameEncodesLatchEquation(t *testing.T) {
	vars := variable.New()
	relation, err := New(vars, toggleCircuit())
	require.NoError(t, err)

	cnf := relation.UnrollFrame(0)
	assert.NotEmpty(t, cnf)
}

func TestInitStateFixesResetZero(t *testing.T) {
	vars := variable.New()
	relation, err := New(vars, toggleCircuit())
	require.NoError(t, err)

	init := relation.InitState()
	require.Len(t, init, 1)
	assert.Len(t, init[0], 1)
}

func TestUnrollWithInitIsSatForReachableTrace(t *testing.T) {
	vars := variable.New()
	relation, err := New(vars, toggleCircuit())
	require.NoError(t, err)

	a := satx.New(pmeopts.BackendCore, true, nil)
	for _, cls := range relation.UnrollWithInit(1) {
		require.NoError(t, a.AddClause(cls))
	}
	sat, _ := a.Solve(nil, false)
	assert.True(t, sat)
}

func TestAbstractDropsNonKeptGates(t *testing.T) {
	vars := variable.New()
	circ := &circuit.Circuit{
		Inputs: []circuit.Input{{Lit: 2}},
		Gates: []circuit.AndGate{
			{Lhs: 4, Rhs0: circuit.Lit(2), Rhs1: circuit.ConstTrue},
		},
		Bad: 4,
	}
	relation, err := New(vars, circ)
	require.NoError(t, err)
	require.Len(t, relation.Gates(), 1)

	abs := relation.Abstract(nil)
	assert.Empty(t, abs.Gates())
	assert.Len(t, abs.Inputs(), 2) // original input + abstracted gate
}
