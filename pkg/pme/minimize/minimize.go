package minimize

import (
	"sort"

	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/mapsolver"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// Algorithm selects a proof-minimization strategy.
type Algorithm int

const (
	// Marco enumerates every minimal safe inductive subset by map-guided
	// exploration.
	Marco Algorithm = iota
	// Sisi shrinks by iterated support computation and produces a single
	// minimal subset.
	Sisi
	// BruteForce shrinks the whole candidate greedily and produces a
	// single minimal subset.
	BruteForce
)

// Minimizer is the common surface of the strategies: run once, then read
// off the proofs found.
type Minimizer interface {
	Minimize() error
	NumProofs() int
	GetProof(i int) ids.ClauseVec
	GetMinimumProof() ids.ClauseVec
}

// NewMinimizer constructs the requested strategy over rel and proof.
func NewMinimizer(alg Algorithm, rel tr.Relation, proof ids.ClauseVec, opts *pmeopts.Options) (Minimizer, error) {
	if opts == nil {
		opts = pmeopts.Default()
	}
	checker := NewChecker(rel, proof, opts)
	switch alg {
	case Marco:
		return newMarco(checker, rel.VariableManager(), opts), nil
	case Sisi:
		return newSisi(checker, opts), nil
	case BruteForce:
		return newBruteForce(checker, opts), nil
	default:
		return nil, pmeerr.NewUnsupportedBackend("unknown minimization algorithm")
	}
}

// proofStore accumulates results shared by every strategy.
type proofStore struct {
	checker *Checker
	proofs  [][]ClauseIdx
}

func (p *proofStore) record(set []ClauseIdx) {
	p.proofs = append(p.proofs, append([]ClauseIdx(nil), set...))
}

// NumProofs reports how many minimal subsets were found.
func (p *proofStore) NumProofs() int { return len(p.proofs) }

// GetProof returns the i'th subset found, as clauses.
func (p *proofStore) GetProof(i int) ids.ClauseVec {
	return p.checker.Subset(p.proofs[i])
}

// GetMinimumProof returns the smallest subset found.
func (p *proofStore) GetMinimumProof() ids.ClauseVec {
	if len(p.proofs) == 0 {
		return nil
	}
	best := p.proofs[0]
	for _, s := range p.proofs[1:] {
		if len(s) < len(best) {
			best = s
		}
	}
	return p.checker.Subset(best)
}

// shrinkToMSIS greedily removes clauses from a safe inductive subset,
// recomputing the maximal inductive subset after each tentative removal
// so collateral clauses drop out together.
func shrinkToMSIS(c *Checker, set []ClauseIdx) []ClauseIdx {
	cur := append([]ClauseIdx(nil), set...)
	for i := 0; i < len(cur); {
		cand := make([]ClauseIdx, 0, len(cur)-1)
		cand = append(cand, cur[:i]...)
		cand = append(cand, cur[i+1:]...)
		safe, mis := c.FindSafeMIS(cand)
		if safe {
			cur = mis
			i = 0
			continue
		}
		i++
	}
	return cur
}

// initiationFiltered drops candidate clauses the initial states violate:
// no safe inductive subset can ever contain one.
func initiationFiltered(c *Checker) []ClauseIdx {
	var out []ClauseIdx
	for _, i := range c.allIdxs() {
		if c.Initiation(i) {
			out = append(out, i)
		}
	}
	return out
}

// marcoMinimizer explores the power set of candidate clauses through a
// two-sided map solver: maximal unexplored seeds that contain a safe
// inductive subset are shrunk and their minimal form blocked upward;
// seeds that contain none are blocked downward wholesale.
type marcoMinimizer struct {
	proofStore
	vars *variable.Manager
	opts *pmeopts.Options
	log  *pmelog.Logger

	seedIDs []ids.ID
	idxOf   map[ids.ID]ClauseIdx
}

func newMarco(c *Checker, vars *variable.Manager, opts *pmeopts.Options) *marcoMinimizer {
	m := &marcoMinimizer{
		proofStore: proofStore{checker: c},
		vars:       vars,
		opts:       opts,
		idxOf:      make(map[ids.ID]ClauseIdx),
	}
	if opts.Logger != nil {
		m.log = pmelog.New(opts.Logger, pmelog.ChannelMinimize, opts.Verbosity.Minimize)
	}
	for _, i := range c.allIdxs() {
		id := vars.GetNewID("", 0)
		m.seedIDs = append(m.seedIDs, id)
		m.idxOf[id] = i
	}
	return m
}

func (m *marcoMinimizer) toIdxs(seed mapsolver.Seed) []ClauseIdx {
	out := make([]ClauseIdx, 0, len(seed))
	for _, id := range seed {
		out = append(out, m.idxOf[id])
	}
	sort.Ints(out)
	return out
}

func (m *marcoMinimizer) toSeed(set []ClauseIdx) mapsolver.Seed {
	rev := make(map[ClauseIdx]ids.ID, len(m.seedIDs))
	for id, i := range m.idxOf {
		rev[i] = id
	}
	seed := make(mapsolver.Seed, 0, len(set))
	for _, i := range set {
		seed = append(seed, rev[i])
	}
	return ids.SortedCopy(seed)
}

func (m *marcoMinimizer) Minimize() error {
	ms := mapsolver.NewArbitraryMaxSAT(m.vars, m.seedIDs, m.opts)

	// Clauses violating initiation can never appear in a result; block
	// each one's upward closure so seeds skip them from the start.
	viable := make(map[ClauseIdx]bool)
	for _, i := range initiationFiltered(m.checker) {
		viable[i] = true
	}
	for _, id := range m.seedIDs {
		if !viable[m.idxOf[id]] {
			ms.BlockUp(mapsolver.Seed{id})
		}
	}

	for {
		found, seed := ms.FindMaximalSeed()
		if !found {
			return nil
		}
		set := m.toIdxs(seed)
		safe, mis := m.checker.FindSafeMIS(set)
		if !safe {
			ms.BlockDown(seed)
			continue
		}
		msis := shrinkToMSIS(m.checker, mis)
		m.log.Logf(1, "minimal subset of %d clauses", len(msis))
		m.record(msis)
		ms.BlockUp(m.toSeed(msis))
	}
}

// sisiMinimizer grows the necessary set outward from the property: the
// clauses supporting safety seed the set, each member's consecution
// support is folded in until the fixpoint, and a final greedy pass trims
// what the coarse supports over-approximated.
type sisiMinimizer struct {
	proofStore
	log *pmelog.Logger
}

func newSisi(c *Checker, opts *pmeopts.Options) *sisiMinimizer {
	s := &sisiMinimizer{proofStore: proofStore{checker: c}}
	if opts.Logger != nil {
		s.log = pmelog.New(opts.Logger, pmelog.ChannelMinimize, opts.Verbosity.Minimize)
	}
	return s
}

func (s *sisiMinimizer) Minimize() error {
	c := s.checker
	all := initiationFiltered(c)
	safe, mis := c.FindSafeMIS(all)
	if !safe {
		return pmeerr.Internal("sisi: candidate contains no safe inductive subset")
	}

	ok, nec := c.SafetySupport(mis)
	if !ok {
		return pmeerr.Internal("sisi: safety support query was satisfiable")
	}

	inNec := make(map[ClauseIdx]bool, len(nec))
	for _, i := range nec {
		inNec[i] = true
	}
	// Fold each necessary clause's own support in until nothing new
	// arrives; supports are computed relative to the surrounding safe
	// inductive subset so they always exist.
	for changed := true; changed; {
		changed = false
		for _, i := range append([]ClauseIdx(nil), nec...) {
			ok, supp := c.RelativeInduction(i, mis)
			if !ok {
				return pmeerr.Internal("sisi: member lost consecution within its subset")
			}
			for _, j := range supp {
				if !inNec[j] {
					inNec[j] = true
					nec = append(nec, j)
					changed = true
				}
			}
		}
	}
	sort.Ints(nec)

	// The support closure is inductive and safe but may not be minimal.
	safe, mis = c.FindSafeMIS(nec)
	if !safe {
		// Fall back to the surrounding subset when the closure lost
		// safety through a support the core under-reported.
		_, mis = c.FindSafeMIS(all)
	}
	msis := shrinkToMSIS(c, mis)
	s.log.Logf(1, "minimal subset of %d clauses", len(msis))
	s.record(msis)
	return nil
}

// bruteForceMinimizer shrinks the full candidate greedily.
type bruteForceMinimizer struct {
	proofStore
	log *pmelog.Logger
}

func newBruteForce(c *Checker, opts *pmeopts.Options) *bruteForceMinimizer {
	b := &bruteForceMinimizer{proofStore: proofStore{checker: c}}
	if opts.Logger != nil {
		b.log = pmelog.New(opts.Logger, pmelog.ChannelMinimize, opts.Verbosity.Minimize)
	}
	return b
}

func (b *bruteForceMinimizer) Minimize() error {
	c := b.checker
	safe, mis := c.FindSafeMIS(initiationFiltered(c))
	if !safe {
		return pmeerr.Internal("brute force: candidate contains no safe inductive subset")
	}
	msis := shrinkToMSIS(c, mis)
	b.log.Logf(1, "minimal subset of %d clauses", len(msis))
	b.record(msis)
	return nil
}
