// Package correction enumerates minimal correction sets — sets of gates
// whose removal makes the circuit safe — by repeated cardinality-bounded
// debugging, and finds minimal unsatisfiable subsets of grouped clause
// sets by deletion over activation literals.
package correction

import (
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugger"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

// CorrectionSet is a set of gate IDs, sorted ascending.
type CorrectionSet = []ids.ID

// MCSFinder enumerates correction sets in order of increasing size: at
// each cardinality it drains every remaining solution before raising the
// bound, and blocks each one so supersets are never reported.
type MCSFinder struct {
	dtr *debugtr.DebugTransitionRelation
	dbg debugger.Debugger
	log *pmelog.Logger

	cardinality uint
	maxCard     uint
	exhausted   bool
}

// NewMCSFinder returns a finder driving dbg over dtr. The cardinality
// escalation stops at the gate count or the configured ceiling, whichever
// is smaller.
func NewMCSFinder(dtr *debugtr.DebugTransitionRelation, dbg debugger.Debugger, opts *pmeopts.Options) *MCSFinder {
	if opts == nil {
		opts = pmeopts.Default()
	}
	var l *pmelog.Logger
	if opts.Logger != nil {
		l = pmelog.New(opts.Logger, pmelog.ChannelDebugger, opts.Verbosity.Debugger)
	}
	maxCard := uint(len(dtr.DebugLatches()))
	if ceil := opts.IterationCeilings.MaxMCSCardinality; ceil > 0 && uint(ceil) < maxCard {
		maxCard = uint(ceil)
	}
	return &MCSFinder{dtr: dtr, dbg: dbg, log: l, maxCard: maxCard}
}

// FindNext returns the next correction set, escalating the cardinality
// bound as each level runs dry.
func (f *MCSFinder) FindNext() (bool, CorrectionSet) {
	if f.exhausted {
		return false, nil
	}
	for {
		if f.cardinality == 0 {
			f.cardinality = 1
			f.dbg.SetCardinality(1)
		}
		found, soln := f.dbg.Debug()
		if found {
			f.log.Logf(1, "correction set of size %d", len(soln))
			f.dbg.BlockSolution(soln)
			return true, soln
		}
		if f.cardinality >= f.maxCard {
			f.exhausted = true
			return false, nil
		}
		f.cardinality++
		f.dbg.SetCardinality(f.cardinality)
	}
}

// FindOverGates runs an independent cardinality sweep restricted to
// gates, without disturbing the main enumeration's escalation state. The
// returned set is blocked like any other.
func (f *MCSFinder) FindOverGates(gates []ids.ID) (bool, CorrectionSet) {
	if f.cardinality > 0 {
		defer f.dbg.SetCardinality(f.cardinality)
	}
	for n := uint(1); n <= f.maxCard; n++ {
		f.dbg.SetCardinality(n)
		found, soln := f.dbg.DebugOverGates(gates)
		if found {
			f.dbg.BlockSolution(soln)
			return true, soln
		}
	}
	return false, nil
}

// FindAll drains the enumeration.
func (f *MCSFinder) FindAll() []CorrectionSet {
	var all []CorrectionSet
	for {
		found, mcs := f.FindNext()
		if !found {
			return all
		}
		all = append(all, mcs)
	}
}

// NewApproximateMCSFinder builds a finder whose debugger answers bounded
// queries first and only falls back to the unbounded engine when the
// bounded search runs dry, trading completeness per query for speed on
// the common short-trace case.
func NewApproximateMCSFinder(dtr *debugtr.DebugTransitionRelation, kMax uint, opts *pmeopts.Options) *MCSFinder {
	return NewMCSFinder(dtr, debugger.NewHybrid(dtr, kMax, opts), opts)
}
