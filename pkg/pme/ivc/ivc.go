// Package ivc finds inductive validity cores: minimal sets of gates whose
// retention suffices to prove the property, computed over gate-abstracted
// transition relations in which every dropped gate becomes a free input.
// The finders range from greedy shrinking to map-guided enumeration with
// correction-set refinement.
package ivc

import (
	"sort"

	"github.com/mitchellh/hashstructure"

	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/bmc"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
)

// Algorithm selects a validity-core strategy.
type Algorithm int

const (
	// BF shrinks from the full gate set greedily.
	BF Algorithm = iota
	// UCBF seeds the shrink from an invariant-level unsatisfiable core.
	UCBF
	// MarcoIVC enumerates every minimal core by map-guided exploration.
	MarcoIVC
	// CAIVC enumerates cores as minimal hitting sets of correction sets.
	CAIVC
	// CBVC works depth by depth over bounded validity cores.
	CBVC
	// UIVC combines zigzag map exploration with correction-set refinement
	// and a safety cache.
	UIVC
)

// Finder is the common surface: run once, then read the cores off.
type Finder interface {
	FindIVCs() error
	NumIVCs() int
	GetIVC(i int) []ids.ID
	GetMinimumIVC() []ids.ID
}

// New constructs the requested strategy over rel.
func New(alg Algorithm, rel *tr.TransitionRelation, opts *pmeopts.Options) (Finder, error) {
	if opts == nil {
		opts = pmeopts.Default()
	}
	ctx := newContext(rel, opts)
	switch alg {
	case BF:
		return &bfFinder{context: ctx}, nil
	case UCBF:
		return &ucbfFinder{context: ctx}, nil
	case MarcoIVC:
		return &marcoFinder{context: ctx}, nil
	case CAIVC:
		return &caivcFinder{context: ctx}, nil
	case CBVC:
		return &cbvcFinder{context: ctx}, nil
	case UIVC:
		return &uivcFinder{context: ctx}, nil
	default:
		return nil, pmeerr.NewUnsupportedBackend("unknown validity-core algorithm")
	}
}

// context bundles what every finder needs: the concrete relation (for
// Abstract), the gate universe, a verdict cache, and logging.
type context struct {
	rel  *tr.TransitionRelation
	opts *pmeopts.Options
	log  *pmelog.Logger

	gates []ids.ID
	ivcs  [][]ids.ID

	// verdicts memoizes abstraction safety by a structural hash of the
	// sorted kept-gate set; full safety checks dominate every finder's
	// runtime.
	verdicts map[uint64]bool
}

func newContext(rel *tr.TransitionRelation, opts *pmeopts.Options) *context {
	var l *pmelog.Logger
	if opts.Logger != nil {
		l = pmelog.New(opts.Logger, pmelog.ChannelIVC, opts.Verbosity.IVC)
	}
	var gates []ids.ID
	for _, g := range rel.Gates() {
		gates = append(gates, g.Lhs)
	}
	return &context{
		rel:      rel,
		opts:     opts,
		log:      l,
		gates:    ids.SortedCopy(gates),
		verdicts: make(map[uint64]bool),
	}
}

// isSafe checks whether keeping exactly gates proves the property,
// through the hybrid engine, memoized.
func (c *context) isSafe(gates []ids.ID) bool {
	sorted := ids.SortedCopy(gates)
	key, err := hashstructure.Hash(sorted, nil)
	if err == nil {
		if verdict, ok := c.verdicts[key]; ok {
			return verdict
		}
	}
	abs := c.rel.Abstract(sorted)
	result := bmc.NewHybrid(abs, c.bmcBound(), c.opts).Prove()
	verdict := result.Safe()
	if err == nil {
		c.verdicts[key] = verdict
	}
	return verdict
}

// bmcBound is the bounded-phase depth used by hybrid checks and bounded
// debuggers: deep enough to catch the short counterexamples abstraction
// refutation mostly produces.
func (c *context) bmcBound() uint {
	n := len(c.rel.Latches())
	if n < 4 {
		n = 4
	}
	return uint(n)
}

// shrink greedily removes gates while the abstraction stays safe. The
// input must itself be safe.
func (c *context) shrink(gates []ids.ID) []ids.ID {
	cur := ids.SortedCopy(gates)
	for i := 0; i < len(cur); {
		cand := make([]ids.ID, 0, len(cur)-1)
		cand = append(cand, cur[:i]...)
		cand = append(cand, cur[i+1:]...)
		if c.isSafe(cand) {
			cur = cand
		} else {
			i++
		}
	}
	return cur
}

// complement returns the gates outside set.
func (c *context) complement(set []ids.ID) []ids.ID {
	in := make(map[ids.ID]bool, len(set))
	for _, g := range set {
		in[ids.Strip(g)] = true
	}
	var out []ids.ID
	for _, g := range c.gates {
		if !in[g] {
			out = append(out, g)
		}
	}
	return out
}

func (c *context) record(ivc []ids.ID) {
	sorted := ids.SortedCopy(ivc)
	c.log.Logf(1, "validity core of %d gates", len(sorted))
	c.ivcs = append(c.ivcs, sorted)
}

// NumIVCs reports how many cores were found.
func (c *context) NumIVCs() int { return len(c.ivcs) }

// GetIVC returns the i'th core found.
func (c *context) GetIVC(i int) []ids.ID {
	return append([]ids.ID(nil), c.ivcs[i]...)
}

// GetMinimumIVC returns the smallest core found.
func (c *context) GetMinimumIVC() []ids.ID {
	if len(c.ivcs) == 0 {
		return nil
	}
	best := c.ivcs[0]
	for _, s := range c.ivcs[1:] {
		if len(s) < len(best) {
			best = s
		}
	}
	return append([]ids.ID(nil), best...)
}

func sortGates(gates []ids.ID) []ids.ID {
	sort.Slice(gates, func(i, j int) bool { return gates[i] < gates[j] })
	return gates
}
