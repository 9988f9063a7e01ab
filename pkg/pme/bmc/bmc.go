// Package bmc implements bounded model checking: the transition relation
// is unrolled frame by frame into a single incremental SAT instance, and
// the bad literal is checked at each depth. A hybrid scheduler combines a
// bounded run with the unbounded engine for a complete answer.
package bmc

import (
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/safety"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
)

// Solver unrolls a relation incrementally and answers reachability at
// each depth. The instance only ever grows: deeper queries reuse every
// clause already sent.
type Solver struct {
	rel  tr.Relation
	opts pmeopts.Options
	log  *pmelog.Logger

	sat        *satx.Adaptor
	depth      uint
	initLoaded bool

	// initOverride replaces rel's own reset clauses when non-nil, for
	// callers whose initial states are wider than the relation's resets.
	initOverride ids.ClauseVec
}

// New returns a bounded checker over rel. A nil opts uses the defaults.
func New(rel tr.Relation, opts *pmeopts.Options) *Solver {
	if opts == nil {
		opts = pmeopts.Default()
	}
	var l *pmelog.Logger
	if opts.Logger != nil {
		l = pmelog.New(opts.Logger, pmelog.ChannelBMC, opts.Verbosity.BMC)
	}
	return &Solver{
		rel:  rel,
		opts: *opts,
		log:  l,
		sat:  satx.New(opts.Backend, true, l),
	}
}

// NewWithInit is New with the relation's reset clauses replaced by init.
func NewWithInit(rel tr.Relation, init ids.ClauseVec, opts *pmeopts.Options) *Solver {
	s := New(rel, opts)
	s.initOverride = append(ids.ClauseVec(nil), init...)
	return s
}

// EnsureDepth loads the initial states and every transition frame from 0
// through k, so the gate logic and constraints at depth k are present and
// the bad literal primed to k is defined.
func (s *Solver) EnsureDepth(k uint) {
	if !s.initLoaded {
		init := s.initOverride
		if init == nil {
			init = s.rel.InitState()
		}
		_ = s.sat.AddClauses(init)
		s.initLoaded = true
	}
	// s.depth counts the frames loaded so far.
	for s.depth <= k {
		_ = s.sat.AddClauses(s.rel.UnrollFrame(s.depth))
		s.depth++
	}
}

// AddClauses sends extra clauses (cardinality CNF, blocking clauses) into
// the running instance.
func (s *Solver) AddClauses(vec ids.ClauseVec) error {
	return s.sat.AddClauses(vec)
}

// SolveAtDepth asks whether bad is reachable in exactly k steps, under
// extra assumptions. The instance is extended as needed.
func (s *Solver) SolveAtDepth(k uint, extra ids.Cube) bool {
	s.EnsureDepth(k)
	assumps := append(ids.Cube{ids.Prime(s.rel.Bad(), k)}, extra...)
	sat, _ := s.sat.Solve(assumps, false)
	return sat
}

// Assignment exposes the model after a satisfiable SolveAtDepth.
func (s *Solver) Assignment(id ids.ID) satx.TriVal {
	return s.sat.SafeGetAssignment(id)
}

// ExtractTrace reads a length-(k+1) counterexample out of the current
// model: the latch state and input values at each unrolling depth.
func (s *Solver) ExtractTrace(k uint) safety.Trace {
	var cex safety.Trace
	for n := uint(0); n <= k; n++ {
		var state, inputs ids.Cube
		for _, l := range s.rel.Latches() {
			switch s.sat.SafeGetAssignment(ids.Prime(l.ID, n)) {
			case satx.True:
				state = append(state, l.ID)
			case satx.False:
				state = append(state, ids.Negate(l.ID))
			}
		}
		for _, in := range s.rel.Inputs() {
			switch s.sat.SafeGetAssignment(ids.Prime(in, n)) {
			case satx.True:
				inputs = append(inputs, in)
			case satx.False:
				inputs = append(inputs, ids.Negate(in))
			}
		}
		cex = append(cex, safety.Step{State: state, Inputs: inputs})
	}
	return cex
}

// Solve checks depths 0 through kMax in order. It returns Unsafe with a
// concrete trace at the first reachable depth, or Unknown when the bound
// is exhausted: a bounded run can refute but never prove.
func (s *Solver) Solve(kMax uint) safety.SafetyResult {
	for k := uint(0); k <= kMax; k++ {
		s.log.Logf(1, "depth %d", k)
		if s.SolveAtDepth(k, nil) {
			return safety.SafetyResult{Result: safety.Unsafe, Cex: s.ExtractTrace(k)}
		}
	}
	return safety.SafetyResult{Result: safety.Unknown}
}

// Hybrid refutes with a bounded run first and falls back to the unbounded
// engine for a full verdict, which pays off wherever short counterexamples
// are common.
type Hybrid struct {
	rel      tr.Relation
	opts     *pmeopts.Options
	bmcBound uint
}

// NewHybrid returns a Hybrid that runs bounded checking up to bmcBound
// before handing off.
func NewHybrid(rel tr.Relation, bmcBound uint, opts *pmeopts.Options) *Hybrid {
	if opts == nil {
		opts = pmeopts.Default()
	}
	return &Hybrid{rel: rel, opts: opts, bmcBound: bmcBound}
}

// Prove returns Safe or Unsafe; the bounded phase can only ever supply the
// Unsafe answer early.
func (h *Hybrid) Prove() safety.SafetyResult {
	bounded := New(h.rel, h.opts)
	if r := bounded.Solve(h.bmcBound); r.Unsafe() {
		return r
	}
	return ic3.New(h.rel, h.opts).Prove()
}
