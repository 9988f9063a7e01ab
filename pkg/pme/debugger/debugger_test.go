package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// stuckLowCircuit: bad is driven by a gate whose output is constantly 0
// (the latch never leaves its zero reset), plus an unrelated gate fed by
// the input. Only corrupting the bad-driving gate can reach bad.
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

func buildDebugTR(t *testing.T) (*variable.Manager, *debugtr.DebugTransitionRelation, ids.ID) {
	t.Helper()
	vars := variable.New()
	relation, err := tr.New(vars, stuckLowCircuit())
	require.NoError(t, err)
	dtr := debugtr.New(vars, relation)
	badGate := relation.Gates()[0].Lhs
	return vars, dtr, badGate
}

func runDebuggerScenario(t *testing.T, d Debugger, badGate ids.ID) {
	t.Helper()
	d.SetCardinality(1)

	found, soln := d.Debug()
	require.True(t, found)
	assert.Equal(t, []ids.ID{badGate}, soln)

	d.BlockSolution(soln)
	found, _ = d.Debug()
	assert.False(t, found)
}

func TestBMCDebuggerFindsBadGate(t *testing.T) {
	_, dtr, badGate := buildDebugTR(t)
	runDebuggerScenario(t, NewBMC(dtr, 2, nil), badGate)
}

func TestIC3DebuggerFindsBadGate(t *testing.T) {
	_, dtr, badGate := buildDebugTR(t)
	runDebuggerScenario(t, NewIC3(dtr, nil), badGate)
}

func TestHybridDebuggerFindsBadGate(t *testing.T) {
	_, dtr, badGate := buildDebugTR(t)
	runDebuggerScenario(t, NewHybrid(dtr, 2, nil), badGate)
}

func TestDebugOverGatesExcludesComplement(t *testing.T) {
	_, dtr, badGate := buildDebugTR(t)
	d := NewBMC(dtr, 2, nil)
	d.SetCardinality(1)

	otherGate := dtr.Base().Gates()[1].Lhs
	found, _ := d.DebugOverGates([]ids.ID{otherGate})
	assert.False(t, found)

	found, soln := d.DebugOverGates([]ids.ID{badGate})
	require.True(t, found)
	assert.Equal(t, []ids.ID{badGate}, soln)
}

func TestBlockEmptySolutionExhausts(t *testing.T) {
	_, dtr, _ := buildDebugTR(t)
	d := NewBMC(dtr, 2, nil)
	d.SetCardinality(1)

	d.BlockSolution(nil)
	found, _ := d.Debug()
	assert.False(t, found)
}
