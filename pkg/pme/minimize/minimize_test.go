package minimize

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// deadChainCircuit is a four-latch chain fed constant false, bad = l3.
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

func chainFixture(t *testing.T) (*tr.TransitionRelation, []ids.ID) {
	t.Helper()
	relation, err := tr.New(variable.New(), deadChainCircuit())
	require.NoError(t, err)
	latches := make([]ids.ID, 4)
	for i, l := range relation.Latches() {
		latches[i] = l.ID
	}
	return relation, latches
}

// chainProof is the natural invariant (every latch stays 0) plus one
// redundant clause.
func chainProof(latches []ids.ID) ids.ClauseVec {
	proof := ids.ClauseVec{}
	for _, l := range latches {
		proof = append(proof, ids.Clause{ids.Negate(l)})
	}
	proof = append(proof, ids.Clause{ids.Negate(latches[0]), ids.Negate(latches[3])})
	return proof
}

func TestCheckProofValid(t *testing.T) {
	relation, latches := chainFixture(t)
	checker := NewChecker(relation, chainProof(latches), nil)
	assert.Equal(t, ProofValid, checker.CheckProof())
}

func TestCheckProofNonInductiveInvalid(t *testing.T) {
	relation, latches := chainFixture(t)
	// ¬l3 alone is not closed: l3' = l2 and l2 is unconstrained.
	checker := NewChecker(relation, ids.ClauseVec{{ids.Negate(latches[3])}}, nil)
	assert.Equal(t, ProofInvalid, checker.CheckProof())
}

func TestCheckProofInitiationFailureInvalid(t *testing.T) {
	relation, latches := chainFixture(t)
	proof := chainProof(latches)
	proof = append(proof, ids.Clause{latches[0]})
	checker := NewChecker(relation, proof, nil)
	assert.Equal(t, ProofInvalid, checker.CheckProof())
}

func TestFindSafeMISDropsDependents(t *testing.T) {
	relation, latches := chainFixture(t)
	checker := NewChecker(relation, chainProof(latches), nil)

	// Without ¬l0 the rest of the chain unravels clause by clause.
	safe, _ := checker.FindSafeMIS([]ClauseIdx{1, 2, 3, 4})
	assert.False(t, safe)

	safe, mis := checker.FindSafeMIS(checker.allIdxs())
	require.True(t, safe)
	assert.Len(t, mis, 5)
}

func TestBruteForceFindsMinimalSubset(t *testing.T) {
	relation, latches := chainFixture(t)
	m, err := NewMinimizer(BruteForce, relation, chainProof(latches), nil)
	require.NoError(t, err)
	require.NoError(t, m.Minimize())

	require.Equal(t, 1, m.NumProofs())

	want := ids.ClauseVec{}
	for _, l := range latches {
		want = append(want, ids.Clause{ids.Negate(l)})
	}
	if diff := cmp.Diff(normalize(want), normalize(m.GetMinimumProof())); diff != "" {
		t.Errorf("minimal subset mismatch (-want +got):\n%s", diff)
	}
}

// normalize sorts clauses internally and relative to each other so two
// clause sets compare structurally.
func normalize(vec ids.ClauseVec) ids.ClauseVec {
	out := make(ids.ClauseVec, 0, len(vec))
	for _, cls := range vec {
		out = append(out, ids.SortedCopy(cls))
	}
	sort.Slice(out, func(i, j int) bool {
		return ids.CubeKey(out[i]) < ids.CubeKey(out[j])
	})
	return out
}

func TestSisiFindsMinimalSubset(t *testing.T) {
	relation, latches := chainFixture(t)
	m, err := NewMinimizer(Sisi, relation, chainProof(latches), nil)
	require.NoError(t, err)
	require.NoError(t, m.Minimize())

	require.Equal(t, 1, m.NumProofs())
	assert.Len(t, m.GetMinimumProof(), 4)
}

func TestMarcoEnumeratesMinimalSubsets(t *testing.T) {
	relation, latches := chainFixture(t)
	m, err := NewMinimizer(Marco, relation, chainProof(latches), nil)
	require.NoError(t, err)
	require.NoError(t, m.Minimize())

	require.GreaterOrEqual(t, m.NumProofs(), 1)
	assert.Len(t, m.GetMinimumProof(), 4)

	// Every reported subset is itself a valid proof.
	for i := 0; i < m.NumProofs(); i++ {
		sub := NewChecker(relation, m.GetProof(i), nil)
		assert.Equal(t, ProofValid, sub.CheckProof())
	}
}

func TestUnknownAlgorithmRejected(t *testing.T) {
	relation, latches := chainFixture(t)
	_, err := NewMinimizer(Algorithm(99), relation, chainProof(latches), nil)
	assert.Error(t, err)
}

func TestMinimizedSubsetIsStillAProof(t *testing.T) {
	relation, latches := chainFixture(t)
	m, err := NewMinimizer(BruteForce, relation, chainProof(latches), nil)
	require.NoError(t, err)
	require.NoError(t, m.Minimize())

	sub := NewChecker(relation, m.GetMinimumProof(), nil)
	assert.Equal(t, ProofValid, sub.CheckProof())
}
