package debugtr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

func buildConstraint(t *testing.T, vars *variable.Manager, n int) (*CardinalityConstraint, ids.Cube) {
	t.Helper()
	c := NewCardinalityConstraint(vars)
	inputs := make(ids.Cube, n)
	for i := 0; i < n; i++ {
		inputs[i] = vars.GetNewID("", 0)
		c.AddInput(inputs[i])
	}
	return c, inputs
}

func TestCardinalityConstraintAssumeLEqBoundsTrueCount(t *testing.T) {
	vars := variable.New()
	c, inputs := buildConstraint(t, vars, 4)
	// Output cardinality must exceed the bound being asserted (n < output
	// cardinality), so a bound of "at most 2" needs cardinality 3.
	c.SetCardinality(3)

	a := satx.New(pmeopts.BackendCore, true, nil)
	for _, cls := range c.CNFize() {
		require.NoError(t, a.AddClause(cls))
	}

	// All four inputs true violates "at most 2 true".
	assumps := append(ids.Cube{}, inputs...)
	assumps = append(assumps, c.AssumeLEq(2)...)
	sat, _ := a.Solve(assumps, false)
	assert.False(t, sat)
}

func TestCardinalityConstraintAssumeLEqAllowsWithinBound(t *testing.T) {
	vars := variable.New()
	c, inputs := buildConstraint(t, vars, 4)
	c.SetCardinality(3)

	a := satx.New(pmeopts.BackendCore, true, nil)
	for _, cls := range c.CNFize() {
		require.NoError(t, a.AddClause(cls))
	}

	assumps := ids.Cube{inputs[0], ids.Negate(inputs[1]), ids.Negate(inputs[2]), ids.Negate(inputs[3])}
	assumps = append(assumps, c.AssumeLEq(2)...)
	sat, _ := a.Solve(assumps, false)
	assert.True(t, sat)
}

func TestCardinalityConstraintIncreaseCardinalityRejectsDecrease(t *testing.T) {
	vars := variable.New()
	c, _ := buildConstraint(t, vars, 3)
	c.SetCardinality(2)

	assert.Panics(t, func() { c.IncreaseCardinality(1) })
}
