// Package engine is the library surface: construct from a parsed circuit
// and a candidate proof, then check, minimize, or extract validity cores,
// reading results back in the caller's own literal numbering. Everything
// underneath speaks internal IDs; translation happens only here.
package engine

import (
	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ivc"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/minimize"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/safety"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// ExternalClause is a clause in the caller's AIG literal numbering.
type ExternalClause = []variable.ExternalID

// Step is one counterexample step in external numbering.
type Step struct {
	Inputs []variable.ExternalID
	State  []variable.ExternalID
}

// Engine owns one circuit, its candidate proof, and every result computed
// so far.
type Engine struct {
	vars *variable.Manager
	rel  *tr.TransitionRelation
	opts *pmeopts.Options

	proof ids.ClauseVec

	minProofs []ids.ClauseVec
	cores     [][]ids.ID
	cex       safety.Trace
	lastProof safety.Proof
}

// New internalizes circ and proof. The proof may be empty when only
// validity-core extraction is wanted. Clause validation follows the input
// contract: clauses must be non-empty and must not contain literal 0.
func New(circ *circuit.Circuit, proof []ExternalClause, opts *pmeopts.Options) (*Engine, error) {
	if opts == nil {
		opts = pmeopts.Default()
	}
	vars := variable.New()
	rel, err := tr.New(vars, circ)
	if err != nil {
		return nil, err
	}
	e := &Engine{vars: vars, rel: rel, opts: opts}

	for _, cls := range proof {
		if len(cls) == 0 {
			return nil, pmeerr.NewMalformedProof("empty clause")
		}
		for _, lit := range cls {
			if lit == 0 {
				return nil, pmeerr.NewMalformedProof("literal 0 in clause")
			}
		}
		internal, err := vars.MakeInternalClause(cls)
		if err != nil {
			return nil, err
		}
		e.proof = append(e.proof, internal)
	}
	return e, nil
}

// CheckProof verifies the candidate: initiation of every clause,
// inductiveness of the whole set, and refutation of bad.
func (e *Engine) CheckProof() (bool, error) {
	if len(e.proof) == 0 {
		return false, pmeerr.NewMalformedProof("no candidate proof supplied")
	}
	checker := minimize.NewChecker(e.rel, e.proof, e.opts)
	return checker.CheckProof() == minimize.ProofValid, nil
}

// Prove runs the unbounded engine on the circuit itself, recording the
// counterexample or the discovered invariant.
func (e *Engine) Prove() (bool, error) {
	result := ic3.New(e.rel, e.opts).Prove()
	switch result.Result {
	case safety.Safe:
		e.lastProof = result.Proof
		return true, nil
	case safety.Unsafe:
		e.cex = result.Cex
		return false, nil
	}
	return false, pmeerr.Internal("engine: unbounded check returned no verdict")
}

// Minimize runs the selected proof-minimization strategy and stores every
// minimal subset it finds.
func (e *Engine) Minimize(alg minimize.Algorithm) error {
	if len(e.proof) == 0 {
		return pmeerr.NewMalformedProof("no candidate proof supplied")
	}
	m, err := minimize.NewMinimizer(alg, e.rel, e.proof, e.opts)
	if err != nil {
		return err
	}
	if err := m.Minimize(); err != nil {
		return err
	}
	e.minProofs = nil
	for i := 0; i < m.NumProofs(); i++ {
		e.minProofs = append(e.minProofs, m.GetProof(i))
	}
	return nil
}

// FindIVCs runs the selected validity-core strategy and stores every core
// it finds.
func (e *Engine) FindIVCs(alg ivc.Algorithm) error {
	f, err := ivc.New(alg, e.rel, e.opts)
	if err != nil {
		return err
	}
	if err := f.FindIVCs(); err != nil {
		return err
	}
	e.cores = nil
	for i := 0; i < f.NumIVCs(); i++ {
		e.cores = append(e.cores, f.GetIVC(i))
	}
	return nil
}

// NumProofs reports how many minimal proofs Minimize found.
func (e *Engine) NumProofs() int { return len(e.minProofs) }

// GetProof returns the i'th minimal proof in external numbering.
func (e *Engine) GetProof(i int) ([]ExternalClause, error) {
	if i < 0 || i >= len(e.minProofs) {
		return nil, pmeerr.NewUnknownVariable("proof index out of range")
	}
	return e.externalClauses(e.minProofs[i])
}

// GetMinimumProof returns the smallest minimal proof found.
func (e *Engine) GetMinimumProof() ([]ExternalClause, error) {
	best := -1
	for i, p := range e.minProofs {
		if best < 0 || len(p) < len(e.minProofs[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, pmeerr.NewUnknownVariable("no minimal proof computed")
	}
	return e.externalClauses(e.minProofs[best])
}

// NumIVCs reports how many cores FindIVCs found.
func (e *Engine) NumIVCs() int { return len(e.cores) }

// GetIVC returns the i'th core as external gate literals.
func (e *Engine) GetIVC(i int) ([]variable.ExternalID, error) {
	if i < 0 || i >= len(e.cores) {
		return nil, pmeerr.NewUnknownVariable("core index out of range")
	}
	return e.externalLits(e.cores[i])
}

// GetMinimumIVC returns the smallest core found.
func (e *Engine) GetMinimumIVC() ([]variable.ExternalID, error) {
	best := -1
	for i, c := range e.cores {
		if best < 0 || len(c) < len(e.cores[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, pmeerr.NewUnknownVariable("no validity core computed")
	}
	return e.externalLits(e.cores[best])
}

// GetCounterExample returns the trace recorded by the last refuting
// Prove, from the initial state to the violation.
func (e *Engine) GetCounterExample() ([]Step, error) {
	if e.cex == nil {
		return nil, pmeerr.NewUnknownVariable("no counterexample recorded")
	}
	var out []Step
	for _, s := range e.cex {
		inputs, err := e.externalLits(s.Inputs)
		if err != nil {
			return nil, err
		}
		state, err := e.externalLits(s.State)
		if err != nil {
			return nil, err
		}
		out = append(out, Step{Inputs: inputs, State: state})
	}
	return out, nil
}

func (e *Engine) externalClauses(vec ids.ClauseVec) ([]ExternalClause, error) {
	out := make([]ExternalClause, 0, len(vec))
	for _, cls := range vec {
		ext, err := e.externalLits(cls)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}

func (e *Engine) externalLits(lits []ids.ID) ([]variable.ExternalID, error) {
	out := make([]variable.ExternalID, 0, len(lits))
	for _, lit := range lits {
		ext, err := e.vars.ToExternal(lit)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}
