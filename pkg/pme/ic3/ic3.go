// Package ic3 implements property-directed reachability: an incremental
// search for an inductive invariant that blocks the bad literal, driven by
// a priority queue of proof obligations over an inductive trace of frame-
// indexed lemmas. Counterexamples are reconstructed from the obligation
// back-chain; proofs are the infinite-level lemmas the trace converges to.
package ic3

import (
	"container/heap"
	"sort"

	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3/frame"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3/lift"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3/trace"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/safety"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// Solver is a single-property PDR engine over a transition relation. It is
// not safe for concurrent use; one goroutine owns it for its whole life.
type Solver struct {
	vars *variable.Manager
	rel  tr.Relation
	opts pmeopts.Options
	log  *pmelog.Logger

	trace  *trace.InductiveTrace
	frames *frame.Solver
	lifter *lift.Lifter

	// initSolver answers initiation queries: init clauses, user
	// restrictions, and the frame-0 circuit CNF so gate literals are
	// meaningful in them.
	initSolver *satx.Adaptor

	baseInit     ids.ClauseVec
	restrictions ids.ClauseVec
	initOverride bool

	pool  obligationPool
	queue obligationQueue

	seeded bool
}

// New returns a Solver over rel. A nil opts uses the defaults.
func New(rel tr.Relation, opts *pmeopts.Options) *Solver {
	if opts == nil {
		opts = pmeopts.Default()
	}
	var l *pmelog.Logger
	if opts.Logger != nil {
		l = pmelog.New(opts.Logger, pmelog.ChannelIC3, opts.Verbosity.IC3)
	}
	vars := rel.VariableManager()
	inductive := trace.New()
	return &Solver{
		vars:   vars,
		rel:    rel,
		opts:   *opts,
		log:    l,
		trace:  inductive,
		frames: frame.New(vars, rel, inductive, *opts),
		lifter: lift.New(rel, inductive, *opts),
	}
}

// SetInitialStates replaces the relation's own reset clauses as the
// engine's initial-state description. Used by fault-localization callers
// whose initial states are cardinality-bounded rather than reset-valued.
func (s *Solver) SetInitialStates(clauses ids.ClauseVec) {
	s.baseInit = append(ids.ClauseVec(nil), clauses...)
	s.initOverride = true
	s.seeded = false
}

// AddInitialStateRestriction conjoins cls onto the initial states. Lemmas
// already discovered stay valid: restricting the initial states only
// shrinks the reachable set.
func (s *Solver) AddInitialStateRestriction(cls ids.Clause) {
	s.restrictions = append(s.restrictions, append(ids.Clause(nil), cls...))
	if s.seeded {
		s.initSolver.Reset()
		s.loadInitSolver()
		s.seedFrameZero()
	}
}

// ClearInitialStateRestrictions drops every restriction added so far.
// Widening the initial states invalidates the trace, so the caller gets a
// cold start on the next query.
func (s *Solver) ClearInitialStateRestrictions() {
	s.restrictions = nil
	s.trace.Clear()
	s.seeded = false
}

// InitialStatesExpanded discards every lemma and rebuilds the solvers:
// lemmas proved under narrower initial states may fail initiation under
// the wider ones, so nothing can be reused.
func (s *Solver) InitialStatesExpanded() {
	s.trace.Clear()
	s.seeded = false
}

// InitialStatesRestricted re-seeds the initial-state solver and frame 0
// while keeping the trace: every lemma remains sound when the initial
// states only shrink.
func (s *Solver) InitialStatesRestricted() {
	if !s.seeded {
		return
	}
	s.initSolver.Reset()
	s.loadInitSolver()
	s.seedFrameZero()
	s.frames.RenewSAT()
}

// AddBlockingClause installs cls as an infinite-level lemma: the engine
// will never revisit any state violating it. The caller asserts its
// soundness.
func (s *Solver) AddBlockingClause(cls ids.Clause) {
	s.ensureSeeded()
	cube := ids.NegateSlice(cls)
	if s.trace.LemmaIsActive(cube) {
		id := s.trace.IDOf(cube)
		if s.trace.LevelOf(id) != trace.LevelInf {
			s.trace.PushLemma(id, trace.LevelInf)
			s.frames.AddLemma(id)
			s.lifter.AddLemma(id)
		}
		_ = s.initSolver.AddClause(cls)
		return
	}
	id := s.trace.AddLemma(cube, trace.LevelInf)
	s.frames.AddLemma(id)
	s.lifter.AddLemma(id)
	_ = s.initSolver.AddClause(cls)
}

func (s *Solver) initClauses() ids.ClauseVec {
	base := s.baseInit
	if !s.initOverride {
		base = s.rel.InitState()
	}
	out := append(ids.ClauseVec(nil), base...)
	return append(out, s.restrictions...)
}

// loadInitSolver seeds the initiation instance: init clauses, the frame-0
// circuit CNF (so gate literals are defined), and every infinite-level
// lemma (states excluded forever are excluded at reset too).
func (s *Solver) loadInitSolver() {
	for _, cls := range s.initClauses() {
		_ = s.initSolver.AddClause(cls)
	}
	for _, cls := range s.rel.UnrollFrame(0) {
		_ = s.initSolver.AddClause(cls)
	}
	for id := range s.trace.Frame(trace.LevelInf) {
		lemma := s.trace.GetLemma(id)
		_ = s.initSolver.AddClause(ids.NegateSlice(lemma.Cube))
	}
}

func (s *Solver) seedFrameZero() {
	for _, cls := range s.initClauses() {
		cube := ids.NegateSlice(cls)
		if s.trace.LemmaIsActive(cube) {
			continue
		}
		id := s.trace.AddLemma(cube, 0)
		s.frames.AddLemma(id)
	}
}

func (s *Solver) ensureSeeded() {
	if s.seeded {
		return
	}
	if s.initSolver == nil {
		s.initSolver = satx.New(s.opts.Backend, false, s.log)
	} else {
		s.initSolver.Reset()
	}
	s.loadInitSolver()
	s.seedFrameZero()
	s.frames.RenewSAT()
	s.lifter.RenewSAT()
	s.seeded = true
}

// initiation reports whether cube excludes every initial state. The empty
// cube never does.
func (s *Solver) initiation(cube ids.Cube) bool {
	if len(cube) == 0 {
		return false
	}
	sat, _ := s.initSolver.Solve(cube, false)
	return !sat
}

// Prove checks whether the bad literal is reachable.
func (s *Solver) Prove() safety.SafetyResult {
	return s.ProveTarget(ids.Cube{s.rel.Bad()})
}

// ProveTarget checks whether any state satisfying target is reachable.
func (s *Solver) ProveTarget(target ids.Cube) safety.SafetyResult {
	s.ensureSeeded()
	target = ids.SortedCopy(target)

	if cex, found := s.trivialCex(target); found {
		return safety.SafetyResult{Result: safety.Unsafe, Cex: cex}
	}

	for k := uint(1); ; k++ {
		s.log.Logf(1, "level %d: blocking target", k)
		fail := s.recursiveBlock(target, k)
		if fail != nil {
			return safety.SafetyResult{Result: safety.Unsafe, Cex: s.buildCex(fail)}
		}
		s.pool.clear()
		s.queue = nil

		if s.pushLemmas() {
			return safety.SafetyResult{Result: safety.Safe, Proof: s.Proof()}
		}
		if s.infBlocksTarget(target) {
			return safety.SafetyResult{Result: safety.Safe, Proof: s.Proof()}
		}
	}
}

// trivialCex checks whether an initial state already satisfies target.
func (s *Solver) trivialCex(target ids.Cube) (safety.Trace, bool) {
	sat, _ := s.initSolver.Solve(target, false)
	if !sat {
		return nil, false
	}
	step := safety.Step{
		State:  s.extractFrom(s.initSolver, latchIDs(s.rel), 0),
		Inputs: s.extractFrom(s.initSolver, s.rel.Inputs(), 0),
	}
	return safety.Trace{step}, true
}

func latchIDs(rel tr.Relation) []ids.ID {
	latches := rel.Latches()
	out := make([]ids.ID, len(latches))
	for i, l := range latches {
		out[i] = l.ID
	}
	return out
}

func (s *Solver) extractFrom(a *satx.Adaptor, vars []ids.ID, nprimes uint) ids.Cube {
	var out ids.Cube
	for _, v := range vars {
		primed := ids.Prime(v, nprimes)
		switch a.SafeGetAssignment(primed) {
		case satx.True:
			out = append(out, primed)
		case satx.False:
			out = append(out, ids.Negate(primed))
		}
	}
	return out
}

// recursiveBlock drains the obligation queue rooted at target/k. It
// returns nil when every obligation was blocked, or the level-0 obligation
// whose back-chain is a concrete counterexample.
func (s *Solver) recursiveBlock(target ids.Cube, k uint) *obligation {
	s.queue = nil
	root := s.pool.new(target, k, nil)
	heap.Push(&s.queue, root)

	for s.queue.Len() > 0 {
		obl := heap.Pop(&s.queue).(*obligation)
		if obl.level == 0 {
			return obl
		}

		br := s.block(obl)
		if br.blocked {
			if obl.level < k {
				obl.level++
				heap.Push(&s.queue, obl)
			}
			continue
		}

		child := s.pool.new(br.lifted, obl.level-1, obl)
		child.state = br.state
		child.inputs = br.inputs
		if obl.inputs == nil {
			obl.inputs = ids.UnprimeSlice(br.pinputs)
		}
		if obl.state == nil {
			obl.state = obl.cti
		}
		heap.Push(&s.queue, child)
		heap.Push(&s.queue, obl)
	}
	return nil
}

type blockResult struct {
	blocked bool
	lifted  ids.Cube
	state   ids.Cube
	inputs  ids.Cube
	pinputs ids.Cube
}

// block tries to block obl's cube at its level: a consecution check
// relative to the frame below, followed by initiation repair and
// generalization of the returned core. On failure the concrete predecessor
// is lifted against the cube.
func (s *Solver) block(obl *obligation) blockResult {
	r := s.frames.ConsecutionFull(frame.ConsecutionOptions{
		Level:    obl.level - 1,
		Cube:     obl.cti,
		WantCore: true,
		WantPred: true,
		WantInp:  true,
		WantPInp: true,
	})

	if !r.Hold {
		lifted := s.lifter.Lift(r.Pred, obl.cti, r.Inp, r.PInp)
		return blockResult{
			lifted:  lifted,
			state:   r.Pred,
			inputs:  r.Inp,
			pinputs: r.PInp,
		}
	}

	core := ids.SortedCopy(r.Core)
	if !s.initiation(core) {
		core = s.reinitiate(core, obl.cti)
	}
	core = s.generalize(core, obl.level)
	s.addLemma(core, obl.level)
	return blockResult{blocked: true}
}

func (s *Solver) addLemma(cube ids.Cube, level uint) {
	if s.trace.LemmaIsActive(cube) && s.trace.LevelOfCube(cube) >= level {
		return
	}
	id := s.trace.AddLemma(cube, level)
	s.frames.AddLemma(id)
	s.lifter.AddLemma(id)
	if s.log.Enabled(2) {
		s.log.Logf(2, "lemma @%d: %s", level, s.vars.StringOfSlice(cube, " "))
	}
}

// generalize drops literals from cube while it stays non-initial and
// consecution-valid at level, replacing the cube by each successful
// query's core. The scan resumes just past the literal whose drop
// succeeded, in the new cube's order, and stops once a full pass makes no
// change.
func (s *Solver) generalize(cube ids.Cube, level uint) ids.Cube {
	cur := ids.SortedCopy(cube)
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(cur); {
			if len(cur) == 1 {
				break
			}
			dropped := cur[i]
			cand := make(ids.Cube, 0, len(cur)-1)
			cand = append(cand, cur[:i]...)
			cand = append(cand, cur[i+1:]...)

			if !s.initiation(cand) {
				i++
				continue
			}
			hold, core := s.frames.ConsecutionCore(level-1, cand)
			if !hold {
				i++
				continue
			}
			next := ids.SortedCopy(core)
			if !s.initiation(next) {
				next = s.reinitiate(next, cand)
			}
			cur = next
			changed = true
			i = upperBound(cur, dropped)
		}
	}
	return cur
}

// upperBound returns the index of the first element of sorted strictly
// greater than lit.
func upperBound(sorted ids.Cube, lit ids.ID) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] > lit })
}

// reinitiate restores initiation to sub by re-adding literals from orig:
// walking both sorted cubes in lockstep, each literal of orig missing from
// sub is kept only if dropping it would leave the cube initial. The result
// is the smallest such superset of sub within orig. orig must itself be
// non-initial.
func (s *Solver) reinitiate(sub, orig ids.Cube) ids.Cube {
	result := ids.SortedCopy(orig)
	i, j := 0, 0
	for j < len(result) {
		if i < len(sub) && sub[i] == result[j] {
			i++
			j++
			continue
		}
		cand := make(ids.Cube, 0, len(result)-1)
		cand = append(cand, result[:j]...)
		cand = append(cand, result[j+1:]...)
		if s.initiation(cand) {
			result = cand
		} else {
			j++
		}
	}
	if !s.initiation(result) {
		panic(pmeerr.Internal("ic3: reinitiate produced an initial cube"))
	}
	return result
}

// pushLemmas sweeps every finite frame from 1 upward, pushing each lemma
// that passes consecution at its own level one frame forward. If a sweep
// empties a frame, every lemma above it is promoted to the infinite level
// and the property is proved.
func (s *Solver) pushLemmas() bool {
	for k := uint(1); k < uint(s.trace.NumFrames()); k++ {
		for _, id := range sortedFrame(s.trace.Frame(k)) {
			lemma := s.trace.GetLemma(id)
			if lemma.Deleted {
				continue
			}
			if s.frames.Consecution(k, lemma.Cube) {
				s.trace.PushLemma(id, k+1)
				s.frames.AddLemma(id)
			}
		}
		if len(s.trace.Frame(k)) == 0 {
			s.promoteAbove(k)
			return true
		}
	}
	s.trace.ClearUnusedFrames()
	return false
}

func (s *Solver) promoteAbove(k uint) {
	for j := k + 1; j < uint(s.trace.NumFrames()); j++ {
		for _, id := range sortedFrame(s.trace.Frame(j)) {
			s.trace.PushLemma(id, trace.LevelInf)
			s.frames.AddLemma(id)
			s.lifter.AddLemma(id)
		}
	}
	s.trace.ClearUnusedFrames()
}

func sortedFrame(f trace.Frame) []trace.LemmaID {
	out := make([]trace.LemmaID, 0, len(f))
	for id := range f {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// infBlocksTarget reports whether some infinite-level lemma subsumes the
// target cube, i.e. the target is blocked forever.
func (s *Solver) infBlocksTarget(target ids.Cube) bool {
	for id := range s.trace.Frame(trace.LevelInf) {
		lemma := s.trace.GetLemma(id)
		if ids.Subsumes(lemma.Cube, target) {
			return true
		}
	}
	return false
}

// Proof returns the infinite-level lemmas as clauses over current-frame
// literals.
func (s *Solver) Proof() safety.Proof {
	var out safety.Proof
	for _, id := range sortedFrame(s.trace.Frame(trace.LevelInf)) {
		lemma := s.trace.GetLemma(id)
		out = append(out, ids.NegateSlice(lemma.Cube))
	}
	return out
}

// buildCex reconstructs a counterexample from the failing obligation's
// back-chain: the chain runs from the initial state (the level-0
// obligation) up to the target.
func (s *Solver) buildCex(fail *obligation) safety.Trace {
	var cex safety.Trace
	for obl := fail; obl != nil; obl = obl.parent {
		state := obl.state
		if state == nil {
			state = obl.cti
		}
		cex = append(cex, safety.Step{
			State:  ids.UnprimeSlice(state),
			Inputs: ids.UnprimeSlice(obl.inputs),
		})
	}
	if len(cex) == 0 {
		panic(pmeerr.Internal("ic3: empty counterexample chain"))
	}
	return cex
}
