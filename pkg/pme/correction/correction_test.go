package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugger"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

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

func TestMCSFinderEnumeratesSingleSet(t *testing.T) {
	vars := variable.New()
	relation, err := tr.New(vars, stuckLowCircuit())
	require.NoError(t, err)
	dtr := debugtr.New(vars, relation)
	badGate := relation.Gates()[0].Lhs

	finder := NewMCSFinder(dtr, debugger.NewBMC(dtr, 2, nil), nil)
	all := finder.FindAll()

	require.Len(t, all, 1)
	assert.Equal(t, CorrectionSet{badGate}, all[0])
}

func TestMCSFinderOverGates(t *testing.T) {
	vars := variable.New()
	relation, err := tr.New(vars, stuckLowCircuit())
	require.NoError(t, err)
	dtr := debugtr.New(vars, relation)
	badGate := relation.Gates()[0].Lhs
	otherGate := relation.Gates()[1].Lhs

	finder := NewMCSFinder(dtr, debugger.NewBMC(dtr, 2, nil), nil)

	found, _ := finder.FindOverGates([]ids.ID{otherGate})
	assert.False(t, found)

	found, mcs := finder.FindOverGates([]ids.ID{badGate})
	require.True(t, found)
	assert.Equal(t, CorrectionSet{badGate}, mcs)
}

func TestMUSFinderCore(t *testing.T) {
	vars := variable.New()
	m := NewMUSFinder(vars, nil)

	x := vars.GetNewID("", 0)
	y := vars.GetNewID("", 0)

	gx := m.AddSoftGroup(ids.ClauseVec{{x}})
	gnx := m.AddSoftGroup(ids.ClauseVec{{ids.Negate(x)}})
	m.AddSoftGroup(ids.ClauseVec{{y}})

	core, err := m.FindCore()
	require.NoError(t, err)
	assert.Contains(t, core, gx)
	assert.Contains(t, core, gnx)
}

func TestMUSFinderDeletionMinimizes(t *testing.T) {
	vars := variable.New()
	m := NewMUSFinder(vars, nil)

	x := vars.GetNewID("", 0)
	y := vars.GetNewID("", 0)

	gx := m.AddSoftGroup(ids.ClauseVec{{x}})
	gnx := m.AddSoftGroup(ids.ClauseVec{{ids.Negate(x)}})
	m.AddSoftGroup(ids.ClauseVec{{y}})
	m.AddSoftGroup(ids.ClauseVec{{ids.Negate(y), x}})

	mus, err := m.FindMUS()
	require.NoError(t, err)
	assert.ElementsMatch(t, []GroupID{gx, gnx}, mus)
}

func TestMUSFinderSatisfiableIsError(t *testing.T) {
	vars := variable.New()
	m := NewMUSFinder(vars, nil)
	x := vars.GetNewID("", 0)
	m.AddSoftGroup(ids.ClauseVec{{x}})

	_, err := m.FindCore()
	assert.Error(t, err)
}

func TestMUSFinderHardClausesAlwaysHold(t *testing.T) {
	vars := variable.New()
	m := NewMUSFinder(vars, nil)

	x := vars.GetNewID("", 0)
	require.NoError(t, m.AddHardClause(ids.Clause{x}))
	g := m.AddSoftGroup(ids.ClauseVec{{ids.Negate(x)}})

	mus, err := m.FindMUS()
	require.NoError(t, err)
	assert.Equal(t, []GroupID{g}, mus)
}
