package tr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

func TestSimplifyTRReturnsResidualCNF(t *testing.T) {
	vars := variable.New()
	relation, err := New(vars, toggleCircuit())
	require.NoError(t, err)

	_, _, err = SimplifyTR(relation, nil)
	assert.NoError(t, err)
}
