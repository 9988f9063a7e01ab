// Package pmeopts is the engine's explicit configuration context. There
// is no package-level global state; every constructor in this module that
// needs backend selection, simplification policy, verbosity, or iteration
// ceilings takes an *Options value instead.
package pmeopts

import "github.com/sirupsen/logrus"

// Backend selects which SATAdaptor variant pkg/pme/satx constructs.
type Backend int

const (
	// BackendCore is a plain incremental SAT backend (gini's default
	// solver), no UNSAT-core extraction beyond gini's own Why().
	BackendCore Backend = iota
	// BackendCoreWithCores is the same backend with critical-assumption
	// (UNSAT-core) extraction wired up. Both variants run the same gini
	// solver, and the adaptor fills the crits output of Solve on either
	// one whenever the caller asks for it.
	BackendCoreWithCores
	// BackendSimplifying records its clause set so Simplify can run a
	// variable-elimination pass and hand back the residual CNF.
	BackendSimplifying
)

// Options is threaded explicitly through every constructor that needs
// it. A plain struct rather than functional options: the constructors
// here are not chained, and most callers pass Default() through.
type Options struct {
	// Backend selects the SAT backend variant for general-purpose solves.
	Backend Backend
	// SimplifyFrameSolver runs freeze+simplify preprocessing before
	// building frame solvers and the lifter. Defaults to true in
	// Default().
	SimplifyFrameSolver bool
	// DedupClauses enables the clause-dedup SAT adaptor variant for the
	// frame solver.
	DedupClauses bool

	// Verbosity is indexed per logging channel; see internal/pmelog.
	Verbosity VerbosityOptions

	// Logger is the base logrus logger all channel loggers derive from.
	// A nil Logger leaves every channel silent.
	Logger *logrus.Logger

	// IterationCeilings bounds harness loops that would otherwise run
	// until a fixpoint. There are no wall-clock limits anywhere in the
	// engine; ceilings are the only brake.
	IterationCeilings IterationCeilings
}

// VerbosityOptions holds one verbosity level per logging channel.
type VerbosityOptions struct {
	IC3      int
	BMC      int
	IVC      int
	Minimize int
	Debugger int
	SAT      int
}

// IterationCeilings bounds the iteration count of harnesses that have no
// other natural termination condition.
type IterationCeilings struct {
	// MaxBVCDepth bounds CBVC's recursive-blocking depth.
	MaxBVCDepth int
	// MaxCAIVCRefinements bounds CAIVC's hitting-set refinement loop.
	MaxCAIVCRefinements int
	// MaxMCSCardinality bounds the correction-set finder's cardinality
	// escalation.
	MaxMCSCardinality int
}

// Default returns the engine's default configuration: the core backend
// with UNSAT-core extraction, frame-solver simplification and clause
// dedup both enabled, all channels silent, and generous iteration
// ceilings.
func Default() *Options {
	return &Options{
		Backend:             BackendCoreWithCores,
		SimplifyFrameSolver: true,
		DedupClauses:        true,
		Verbosity:           VerbosityOptions{},
		IterationCeilings: IterationCeilings{
			MaxBVCDepth:         1000,
			MaxCAIVCRefinements: 10000,
			MaxMCSCardinality:   1 << 20,
		},
	}
}
