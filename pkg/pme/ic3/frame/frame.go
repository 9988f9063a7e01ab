// Package frame is the blocking engine's per-frame SAT oracle: it
// answers consecution ("does F_k & ¬c & Tr & c' have a model?") and
// intersection ("does F_k & c have a model?") queries against an
// inductive trace.
package frame

import (
	"fmt"

	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3/trace"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// ConsecutionOptions bundles a consecution query's inputs and which
// extra witnesses (predecessor, inputs, primed inputs, UNSAT core) the
// caller wants extracted, mirroring FrameSolver::ConsecutionOptions: a
// single query shape rather than four near-identical overloads.
type ConsecutionOptions struct {
	Level uint
	Cube  ids.Cube

	WantCore bool
	WantPred bool
	WantInp  bool
	WantPInp bool
}

// ConsecutionResult is the outcome of a consecution query: Hold is true
// when F_k & ¬c & Tr & c' is UNSAT (the cube is consecution-valid). When
// Hold is false, Pred/Inp/PInp hold the witnessing predecessor's state,
// inputs, and primed inputs (whichever were requested); when Hold is true,
// Core holds the UNSAT core (if requested).
type ConsecutionResult struct {
	Hold bool
	Pred ids.Cube
	Inp  ids.Cube
	PInp ids.Cube
	Core ids.Cube
}

// Solver answers consecution/intersection queries against trace as the
// trace's lemma set grows across IC3's frame-by-frame search.
type Solver struct {
	vars  *variable.Manager
	tr    tr.Relation
	trace *trace.InductiveTrace
	opts  pmeopts.Options
	log   *pmelog.Logger

	solver      *satx.Adaptor
	unrolled    ids.ClauseVec
	solverInit  bool
	activation  []ids.ID
}

// New returns a Solver over tr/trace. No SAT work happens until the first
// query forces renewSAT.
func New(vars *variable.Manager, t tr.Relation, inductive *trace.InductiveTrace, opts pmeopts.Options) *Solver {
	log := opts.Logger
	var l *pmelog.Logger
	if log != nil {
		l = pmelog.New(log, pmelog.ChannelIC3, opts.Verbosity.IC3)
	}
	return &Solver{
		vars:  vars,
		tr:    t,
		trace: inductive,
		opts:  opts,
		log:   l,
		solver: satx.New(opts.Backend, opts.DedupClauses, l),
	}
}

func (s *Solver) computeSimplifiedTR() {
	if s.opts.SimplifyFrameSolver {
		residual, units, err := tr.SimplifyTR(s.tr, s.log)
		if err != nil {
			// Simplification is only ever attempted on a backend that
			// supports it; a plain unroll is always correct as a fallback.
			s.unrolled = s.tr.Unroll(2)
			return
		}
		s.unrolled = append(residual, unitClauses(units)...)
		return
	}
	s.unrolled = s.tr.Unroll(2)
}

func unitClauses(units ids.Clause) ids.ClauseVec {
	out := make(ids.ClauseVec, len(units))
	for i, u := range units {
		out[i] = ids.Clause{u}
	}
	return out
}

// RenewSAT rebuilds the underlying SAT solver from scratch: the
// (possibly simplified) unrolled transition relation plus every lemma
// currently active in any frame, including F_inf.
func (s *Solver) RenewSAT() {
	if len(s.unrolled) == 0 {
		s.computeSimplifiedTR()
	}

	s.solver.Reset()
	for _, cls := range s.unrolled {
		_ = s.solver.AddClause(cls)
	}

	s.sendFrame(trace.LevelInf)
	for i := 0; i < s.trace.NumFrames(); i++ {
		s.sendFrame(uint(i))
	}

	s.solverInit = true
}

// AddLemma asserts id's clause into the running solver, if one exists
// yet; otherwise it will be picked up by the next RenewSAT.
func (s *Solver) AddLemma(id trace.LemmaID) {
	if s.solverInit {
		s.sendLemma(id)
	}
}

func (s *Solver) sendFrame(level uint) {
	for id := range s.trace.Frame(level) {
		s.sendLemma(id)
	}
}

func (s *Solver) sendLemma(id trace.LemmaID) {
	_ = s.solver.AddClause(s.activatedClauseOf(id))
}

func (s *Solver) activatedClauseOf(id trace.LemmaID) ids.Clause {
	lemma := s.trace.GetLemma(id)
	cls := make(ids.Clause, 0, len(lemma.Cube)+1)
	for _, lit := range lemma.Cube {
		cls = append(cls, ids.Negate(lit))
	}
	if lemma.Level < trace.LevelInf {
		cls = append(cls, s.levelAct(lemma.Level))
	}
	return cls
}

// levelAct returns (minting it on first use) the activation literal for
// level: a lemma placed at a finite level is only asserted while that
// level's activation literal is held false, so retracting an entire
// frame's lemmas is a single assumption rather than a solver reset.
func (s *Solver) levelAct(level uint) ids.ID {
	if level == trace.LevelInf {
		return ids.ID_FALSE
	}
	for uint(len(s.activation)) <= level {
		name := fmt.Sprintf("act_lvl_%d", len(s.activation))
		s.activation = append(s.activation, s.vars.GetNewID(name, 0))
	}
	return s.activation[level]
}

// levelAssumps returns ¬act_i for every finite level i >= level:
// asserting these enables every lemma from level upward, leaving
// F_level, ..., F_inf active.
func (s *Solver) levelAssumps(level uint) ids.Cube {
	var assumps ids.Cube
	for i := level; i < uint(s.trace.NumFrames()); i++ {
		assumps = append(assumps, ids.Negate(s.levelAct(i)))
	}
	return assumps
}

// Consecution reports whether F_level & ¬c & Tr & c' is UNSAT, i.e.
// whether c is consecution-valid at level: no predecessor in F_level can
// reach a state satisfying c' while violating c itself.
func (s *Solver) Consecution(level uint, c ids.Cube) bool {
	return s.ConsecutionFull(ConsecutionOptions{Level: level, Cube: c}).Hold
}

// ConsecutionCore is Consecution, additionally returning the subset of c
// that was actually needed to derive the UNSAT result (an inductive
// generalization of c), via the UNSAT core's once-primed literals.
func (s *Solver) ConsecutionCore(level uint, c ids.Cube) (bool, ids.Cube) {
	r := s.ConsecutionFull(ConsecutionOptions{Level: level, Cube: c, WantCore: true})
	return r.Hold, r.Core
}

// ConsecutionPred is Consecution, additionally returning a concrete
// predecessor state when consecution fails.
func (s *Solver) ConsecutionPred(level uint, c ids.Cube) (bool, ids.Cube) {
	r := s.ConsecutionFull(ConsecutionOptions{Level: level, Cube: c, WantPred: true})
	return r.Hold, r.Pred
}

// ConsecutionFull runs the full consecution query described by opts.
func (s *Solver) ConsecutionFull(opts ConsecutionOptions) ConsecutionResult {
	if !s.solverInit {
		s.RenewSAT()
	}
	if len(opts.Cube) == 0 {
		panic("frame: Consecution called with empty cube")
	}

	assumps := s.levelAssumps(opts.Level)

	negC := make(ids.Clause, 0, len(opts.Cube))
	for _, lit := range opts.Cube {
		assumps = append(assumps, ids.Prime(lit, 1))
		negC = append(negC, ids.Negate(lit))
	}

	gid := s.solver.CreateGroup()
	s.solver.AddGroupClause(gid, negC)

	sat, crits := s.solver.GroupSolve(gid, assumps)

	result := ConsecutionResult{Hold: !sat}

	if !sat {
		if opts.WantCore {
			result.Core = extractCoreOf(opts.Cube, crits, 1)
		}
		return result
	}

	if opts.WantPred {
		result.Pred = s.extractLatches()
	}
	if opts.WantInp {
		result.Inp = s.extractInputs(0)
	}
	if opts.WantPInp {
		result.PInp = s.extractInputs(1)
	}
	return result
}

// extractCoreOf restricts crits to the literals of c that appear
// (unprimed) among crits at exactly n primes, the standard UNSAT-core
// generalization step.
func extractCoreOf(c ids.Cube, crits ids.Cube, n uint) ids.Cube {
	lits := make(map[ids.ID]bool, len(c))
	for _, l := range c {
		lits[l] = true
	}
	var core ids.Cube
	for _, lit := range crits {
		if ids.NPrimes(lit) != n {
			continue
		}
		unprimed := ids.Unprime(lit)
		if lits[unprimed] {
			core = append(core, unprimed)
		}
	}
	return core
}

func (s *Solver) extractLatches() ids.Cube {
	var out ids.Cube
	for _, l := range s.tr.Latches() {
		if s.solver.GetAssignment(l.ID) {
			out = append(out, l.ID)
		} else {
			out = append(out, ids.Negate(l.ID))
		}
	}
	return out
}

func (s *Solver) extractInputs(nprimes uint) ids.Cube {
	var out ids.Cube
	for _, in := range s.tr.Inputs() {
		primed := ids.Prime(in, nprimes)
		if s.solver.GetAssignment(primed) {
			out = append(out, primed)
		} else {
			out = append(out, ids.Negate(primed))
		}
	}
	return out
}

// Intersection reports whether F_level & c is satisfiable: whether some
// state consistent with F_level also satisfies c. The transition relation
// is loaded in the same instance, so invariant constraints apply.
func (s *Solver) Intersection(level uint, c ids.Cube) bool {
	sat, _, _ := s.IntersectionFull(level, c)
	return sat
}

// IntersectionFull is Intersection, additionally returning the satisfying
// latch state and input values when a model exists.
func (s *Solver) IntersectionFull(level uint, c ids.Cube) (sat bool, state, inputs ids.Cube) {
	if len(c) == 0 {
		panic("frame: Intersection called with empty cube")
	}
	if !s.solverInit {
		s.RenewSAT()
	}

	assumps := s.levelAssumps(level)
	assumps = append(assumps, c...)

	sat, _ = s.solver.Solve(assumps, false)
	if !sat {
		return false, nil, nil
	}
	return true, s.extractLatches(), s.extractInputs(0)
}
