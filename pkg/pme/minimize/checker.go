// Package minimize checks candidate inductive proofs and extracts minimal
// safe inductive subsets of them. A candidate is a set of clauses over the
// latches; the checker answers initiation, relative consecution, and
// safety queries about clause subsets, and the minimizers drive those
// queries through map-guided or greedy search.
package minimize

import (
	"fmt"
	"sort"

	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// ClauseIdx indexes a clause of the candidate proof.
type ClauseIdx = int

// Checker owns the SAT instances behind every subset query: a one-frame
// transition instance with one activation literal per candidate clause,
// and an initial-state instance for initiation.
type Checker struct {
	vars *variable.Manager
	rel  tr.Relation
	log  *pmelog.Logger

	clauses ids.ClauseVec
	act     []ids.ID
	actIdx  map[ids.ID]ClauseIdx

	consSat *satx.Adaptor
	initSat *satx.Adaptor
}

// NewChecker builds a Checker for proof over rel. The clause list is
// copied; indices into it are the currency of every later call.
func NewChecker(rel tr.Relation, proof ids.ClauseVec, opts *pmeopts.Options) *Checker {
	if opts == nil {
		opts = pmeopts.Default()
	}
	var l *pmelog.Logger
	if opts.Logger != nil {
		l = pmelog.New(opts.Logger, pmelog.ChannelMinimize, opts.Verbosity.Minimize)
	}
	vars := rel.VariableManager()
	c := &Checker{
		vars:   vars,
		rel:    rel,
		log:    l,
		actIdx: make(map[ids.ID]ClauseIdx),
	}

	c.consSat = satx.New(opts.Backend, true, l)
	_ = c.consSat.AddClauses(rel.Unroll(1))

	c.initSat = satx.New(opts.Backend, true, l)
	_ = c.initSat.AddClauses(rel.InitState())
	_ = c.initSat.AddClauses(rel.UnrollFrame(0))

	for i, cls := range proof {
		copied := append(ids.Clause(nil), cls...)
		c.clauses = append(c.clauses, copied)
		act := vars.GetNewID(fmt.Sprintf("cls_act_%d", i), 0)
		c.act = append(c.act, act)
		c.actIdx[act] = i
		withAct := append(append(ids.Clause(nil), copied...), ids.Negate(act))
		_ = c.consSat.AddClause(withAct)
	}
	return c
}

// NumClauses is the candidate's clause count.
func (c *Checker) NumClauses() int { return len(c.clauses) }

// Clause returns the i'th candidate clause.
func (c *Checker) Clause(i ClauseIdx) ids.Clause { return c.clauses[i] }

// Subset materializes a set of indices as clauses.
func (c *Checker) Subset(set []ClauseIdx) ids.ClauseVec {
	out := make(ids.ClauseVec, 0, len(set))
	for _, i := range set {
		out = append(out, c.clauses[i])
	}
	return out
}

func (c *Checker) assumpsFor(set []ClauseIdx) ids.Cube {
	out := make(ids.Cube, 0, len(set))
	for _, i := range set {
		out = append(out, c.act[i])
	}
	return out
}

func (c *Checker) idxsOf(crits ids.Cube) []ClauseIdx {
	var out []ClauseIdx
	for _, lit := range crits {
		if i, ok := c.actIdx[lit]; ok {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Initiation reports whether the initial states satisfy clause i.
func (c *Checker) Initiation(i ClauseIdx) bool {
	assumps := make(ids.Cube, 0, len(c.clauses[i]))
	for _, lit := range c.clauses[i] {
		assumps = append(assumps, ids.Negate(lit))
	}
	sat, _ := c.initSat.Solve(assumps, false)
	return !sat
}

// RelativeInduction reports whether clause i is inductive relative to
// set: set ∧ Tr ⇒ clause_i'. On success, support is the subset of set
// whose activation literals appeared in the conflict — the clauses that
// were actually needed.
func (c *Checker) RelativeInduction(i ClauseIdx, set []ClauseIdx) (bool, []ClauseIdx) {
	assumps := c.assumpsFor(set)
	for _, lit := range c.clauses[i] {
		assumps = append(assumps, ids.Negate(ids.Prime(lit, 1)))
	}
	sat, crits := c.consSat.Solve(assumps, true)
	if sat {
		return false, nil
	}
	return true, c.idxsOf(crits)
}

// IsInductive reports whether set is closed under the transition
// relation: every member clause is inductive relative to the whole set.
func (c *Checker) IsInductive(set []ClauseIdx) bool {
	for _, i := range set {
		if ok, _ := c.RelativeInduction(i, set); !ok {
			return false
		}
	}
	return true
}

// IsSafe reports whether set implies the property: set ∧ bad is
// unsatisfiable over the frame-0 logic.
func (c *Checker) IsSafe(set []ClauseIdx) bool {
	assumps := append(c.assumpsFor(set), c.rel.Bad())
	sat, _ := c.consSat.Solve(assumps, false)
	return !sat
}

// SafetySupport returns the subset of set needed to refute bad, when set
// is safe.
func (c *Checker) SafetySupport(set []ClauseIdx) (bool, []ClauseIdx) {
	assumps := append(c.assumpsFor(set), c.rel.Bad())
	sat, crits := c.consSat.Solve(assumps, true)
	if sat {
		return false, nil
	}
	return true, c.idxsOf(crits)
}

// FindSafeMIS computes the maximal inductive subset of set — the greatest
// fixpoint of removing clauses that are not inductive relative to what
// remains — and reports whether that subset still implies the property.
func (c *Checker) FindSafeMIS(set []ClauseIdx) (bool, []ClauseIdx) {
	cur := append([]ClauseIdx(nil), set...)
	for {
		var keep []ClauseIdx
		for _, i := range cur {
			if ok, _ := c.RelativeInduction(i, cur); ok {
				keep = append(keep, i)
			}
		}
		if len(keep) == len(cur) {
			break
		}
		cur = keep
	}
	if len(cur) == 0 || !c.IsSafe(cur) {
		return false, nil
	}
	return true, cur
}

// CheckResult is a proof check's verdict.
type CheckResult int

const (
	// ProofValid means the candidate is an inductive invariant implying
	// the property.
	ProofValid CheckResult = iota
	// ProofInvalid means at least one of initiation, consecution, or
	// safety fails.
	ProofInvalid
)

// CheckProof verifies the full candidate: initiation of every clause,
// inductiveness of the whole set, and safety.
func (c *Checker) CheckProof() CheckResult {
	all := c.allIdxs()
	for _, i := range all {
		if !c.Initiation(i) {
			c.log.Logf(1, "clause %d fails initiation", i)
			return ProofInvalid
		}
	}
	if !c.IsInductive(all) {
		return ProofInvalid
	}
	if !c.IsSafe(all) {
		return ProofInvalid
	}
	return ProofValid
}

func (c *Checker) allIdxs() []ClauseIdx {
	out := make([]ClauseIdx, len(c.clauses))
	for i := range out {
		out[i] = i
	}
	return out
}
