package satx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

func freshIDs(n int) []ids.ID {
	out := make([]ids.ID, n)
	id := ids.MIN_ID
	for i := range out {
		out[i] = id
		id += ids.ID_INCR
	}
	return out
}

func TestAddClauseRejectsEmpty(t *testing.T) {
	a := New(pmeopts.BackendCore, true, nil)
	err := a.AddClause(nil)
	assert.Error(t, err)
}

func TestSolveSatisfiable(t *testing.T) {
	a := New(pmeopts.BackendCore, true, nil)
	v := freshIDs(2)
	require.NoError(t, a.AddClause(ids.Clause{v[0], v[1]}))

	sat, _ := a.Solve(nil, false)
	assert.True(t, sat)
}

func TestSolveUnsatWithCrits(t *testing.T) {
	a := New(pmeopts.BackendCoreWithCores, true, nil)
	v := freshIDs(1)
	require.NoError(t, a.AddClause(ids.Clause{v[0]}))
	require.NoError(t, a.AddClause(ids.Clause{ids.Negate(v[0])}))

	sat, _ := a.Solve(nil, false)
	assert.False(t, sat)
}

func TestSolveWithAssumptionConflict(t *testing.T) {
	a := New(pmeopts.BackendCoreWithCores, true, nil)
	v := freshIDs(2)
	require.NoError(t, a.AddClause(ids.Clause{v[0], v[1]}))

	sat, crits := a.Solve(ids.Cube{ids.Negate(v[0]), ids.Negate(v[1])}, true)
	assert.False(t, sat)
	assert.NotEmpty(t, crits)
}

func TestGetAssignmentAfterSat(t *testing.T) {
	a := New(pmeopts.BackendCore, true, nil)
	v := freshIDs(1)
	require.NoError(t, a.AddClause(ids.Clause{v[0]}))

	sat, _ := a.Solve(nil, false)
	require.True(t, sat)
	assert.True(t, a.GetAssignment(v[0]))
}

func TestSafeGetAssignmentUndefForUnseen(t *testing.T) {
	a := New(pmeopts.BackendCore, true, nil)
	unseen := ids.MIN_ID + 1000
	assert.Equal(t, Undef, a.SafeGetAssignment(unseen))
}

func TestDedupSkipsDuplicateClause(t *testing.T) {
	a := New(pmeopts.BackendCore, true, nil)
	v := freshIDs(2)
	cls := ids.Clause{v[0], v[1]}
	require.NoError(t, a.AddClause(cls))
	require.NoError(t, a.AddClause(append(ids.Clause{}, cls...)))

	sat, _ := a.Solve(nil, false)
	assert.True(t, sat)
}

func TestGroupSolveActivatesOnlyRequestedGroup(t *testing.T) {
	a := New(pmeopts.BackendCoreWithCores, true, nil)
	v := freshIDs(1)

	g := a.CreateGroup()
	a.AddGroupClause(g, ids.Clause{ids.Negate(v[0])})

	sat, _ := a.GroupSolve(g, ids.Cube{v[0]})
	assert.False(t, sat)
}

func TestSimplifyUnsupportedOnCoreBackend(t *testing.T) {
	a := New(pmeopts.BackendCore, true, nil)
	_, _, err := a.Simplify()
	assert.Error(t, err)
}

func TestSimplifyOnSimplifyingBackend(t *testing.T) {
	a := New(pmeopts.BackendSimplifying, true, nil)
	v := freshIDs(1)
	a.Freeze(v[0])
	require.NoError(t, a.AddClause(ids.Clause{v[0]}))

	_, _, err := a.Simplify()
	assert.NoError(t, err)
}

func TestResetReseedsTrueUnit(t *testing.T) {
	a := New(pmeopts.BackendCore, true, nil)
	v := freshIDs(1)
	require.NoError(t, a.AddClause(ids.Clause{v[0]}))
	a.Reset()

	sat, _ := a.Solve(nil, false)
	assert.True(t, sat)
}
