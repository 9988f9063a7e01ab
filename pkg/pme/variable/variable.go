// Package variable implements the bidirectional mapping between
// external circuit literals (the AIG's own numbering, signed by the low
// bit in the aiger convention) and the internal ID space of pkg/pme/ids.
// Every internal ID the engine ever reasons about is minted here exactly
// once, and the mapping back to the external circuit (for reporting
// proofs and counterexamples in terms of the caller's own AIG) is owned
// by the same type.
package variable

import (
	"fmt"
	"strings"

	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
)

// ExternalID is a literal in the caller's own AIG numbering: 0 is the
// constant false, 1 the constant true, and even numbers >= 2 name a gate or
// input/latch output, with the low bit as the sign.
type ExternalID uint

// Variable is the record kept for every minted internal ID: its external
// counterpart (0 if it has none, e.g. a Tseitin-introduced auxiliary) and a
// human-readable name used in logging and debug output.
type Variable struct {
	ID         ids.ID
	ExternalID ExternalID
	Name       string
}

// IsNull reports whether v is the zero Variable.
func (v Variable) IsNull() bool { return v.ID == ids.ID_NULL }

// Manager mints internal IDs and maintains the mapping to/from external
// circuit literals. The zero value is not usable; construct with New.
type Manager struct {
	nextID ids.ID
	vars   map[ids.ID]Variable

	internalToExternal map[ids.ID]ExternalID
	externalToInternal map[ExternalID]ids.ID
}

// New returns a Manager with the constant false/true IDs already minted
// and mapped to external literals 0 and 1 respectively.
func New() *Manager {
	m := &Manager{
		nextID:             ids.MIN_ID,
		vars:               make(map[ids.ID]Variable),
		internalToExternal: make(map[ids.ID]ExternalID),
		externalToInternal: make(map[ExternalID]ids.ID),
	}
	m.vars[ids.ID_FALSE] = Variable{ID: ids.ID_FALSE, ExternalID: 0, Name: "false"}
	m.internalToExternal[ids.ID_FALSE] = 0
	m.externalToInternal[0] = ids.ID_FALSE
	return m
}

// GetNewID mints a fresh internal ID. If external is non-zero it is
// registered as that ID's external counterpart; name defaults to "ID_<n>"
// when empty.
func (m *Manager) GetNewID(name string, external ExternalID) ids.ID {
	if m.nextID > ids.MAX_ID {
		panic(pmeerr.Internal("variable manager exhausted the internal ID space"))
	}
	id := m.nextID
	m.nextID += ids.ID_INCR

	if name == "" {
		name = m.defaultName(id)
	}
	m.vars[id] = Variable{ID: id, ExternalID: external, Name: name}

	if external != 0 {
		if _, ok := m.internalToExternal[id]; ok {
			panic(pmeerr.Internal("internal ID already mapped to an external literal"))
		}
		if _, ok := m.externalToInternal[external]; ok {
			panic(pmeerr.Internal("external literal already mapped to an internal ID"))
		}
		m.internalToExternal[id] = external
		m.externalToInternal[external] = id
	}

	return id
}

func (m *Manager) defaultName(id ids.ID) string {
	return fmt.Sprintf("ID_%d", id)
}

// IsKnown reports whether id (after stripping sign) was minted by this
// Manager.
func (m *Manager) IsKnown(id ids.ID) bool {
	_, ok := m.vars[ids.Strip(id)]
	return ok
}

// IsKnownExternal reports whether external has a registered internal ID.
func (m *Manager) IsKnownExternal(external ExternalID) bool {
	_, ok := m.externalToInternal[externalStrip(external)]
	return ok
}

// externalSign/externalStrip follow the aiger convention: the low bit is
// the sign, and the unsigned literal is external &^ 1.
func externalSign(e ExternalID) bool { return e&1 != 0 }
func externalStrip(e ExternalID) ExternalID {
	return e &^ 1
}
func externalNot(e ExternalID) ExternalID { return e ^ 1 }

// ToInternal maps an external literal to its internal ID, preserving sign.
// It returns an UnknownVariable error if the unsigned external literal was
// never registered.
func (m *Manager) ToInternal(external ExternalID) (ids.ID, error) {
	neg := externalSign(external)
	internal, ok := m.externalToInternal[externalStrip(external)]
	if !ok {
		return ids.ID_NULL, pmeerr.NewUnknownVariable(
			fmt.Sprintf("external ID %d not found", external))
	}
	if neg {
		return ids.Negate(internal), nil
	}
	return internal, nil
}

// ToExternal maps an internal ID back to its external literal, preserving
// sign. It returns an UnknownVariable error if id was never minted, or has
// no external counterpart (e.g. a Tseitin auxiliary).
func (m *Manager) ToExternal(id ids.ID) (ExternalID, error) {
	if !ids.IsValid(id) {
		return 0, pmeerr.NewUnknownVariable(fmt.Sprintf("invalid internal ID %d", id))
	}
	neg := ids.IsNegated(id)
	stripped := ids.Strip(id)

	external, ok := m.internalToExternal[stripped]
	if !ok {
		return 0, pmeerr.NewUnknownVariable(
			fmt.Sprintf("internal ID %d has no external counterpart", stripped))
	}
	if neg {
		return externalNot(external), nil
	}
	return external, nil
}

// VarOf returns the Variable record for id (sign is ignored). It panics
// via pmeerr.Internal if id was never minted: callers are expected to
// have checked IsKnown first when the ID's provenance is untrusted.
func (m *Manager) VarOf(id ids.ID) Variable {
	stripped := ids.Strip(id)
	v, ok := m.vars[stripped]
	if !ok {
		panic(pmeerr.Internal(fmt.Sprintf("varOf: unknown internal ID %d", stripped)))
	}
	return v
}

// MakeInternalClause converts a clause of external literals into one of
// internal IDs.
func (m *Manager) MakeInternalClause(cls []ExternalID) (ids.Clause, error) {
	out := make(ids.Clause, 0, len(cls))
	for _, lit := range cls {
		internal, err := m.ToInternal(lit)
		if err != nil {
			return nil, err
		}
		out = append(out, internal)
	}
	return out, nil
}

// MakeInternalClauseVec converts a vector of external clauses into internal
// ones.
func (m *Manager) MakeInternalClauseVec(vec [][]ExternalID) (ids.ClauseVec, error) {
	out := make(ids.ClauseVec, 0, len(vec))
	for _, cls := range vec {
		internal, err := m.MakeInternalClause(cls)
		if err != nil {
			return nil, err
		}
		out = append(out, internal)
	}
	return out, nil
}

// StringOf renders a single ID using its Variable name, with a "~" prefix
// for negation, for logging and debug output.
func (m *Manager) StringOf(id ids.ID) string {
	stripped := ids.Strip(id)
	v, ok := m.vars[stripped]
	name := "?"
	if ok {
		name = v.Name
	}
	if ids.IsNegated(id) {
		return "~" + name
	}
	return name
}

// StringOfSlice renders a slice of IDs joined by sep (defaulting to a
// single space).
func (m *Manager) StringOfSlice(vec []ids.ID, sep string) string {
	if sep == "" {
		sep = " "
	}
	parts := make([]string, len(vec))
	for i, id := range vec {
		parts[i] = m.StringOf(id)
	}
	return strings.Join(parts, sep)
}
