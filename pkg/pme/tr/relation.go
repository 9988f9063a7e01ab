package tr

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// Relation is the surface the SAT-driven engines consume: a circuit that
// can describe itself (inputs, latches, constraints, bad) and lower itself
// to CNF at any unrolling depth. Both TransitionRelation and the
// debug-augmented relation satisfy it, so frame solvers, lifters, IC3, and
// BMC run unchanged over either.
type Relation interface {
	Inputs() []ids.ID
	Latches() []LatchInfo
	Constraints() []ids.ID
	Bad() ids.ID

	UnrollFrame(k uint) ids.ClauseVec
	Unroll(n uint) ids.ClauseVec
	InitState() ids.ClauseVec
	UnrollWithInit(n uint) ids.ClauseVec

	VariableManager() *variable.Manager
}
