package correction

import (
	"sort"

	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// GroupID names a soft clause group in a MUSFinder.
type GroupID uint32

// MUSFinder minimizes an unsatisfiable clause set: hard clauses always
// hold, soft clauses are grouped under activation literals so a group can
// be switched off by dropping its assumption. FindCore shrinks by one
// UNSAT-core pass; FindMUS continues with deletion until every remaining
// group is necessary.
type MUSFinder struct {
	vars *variable.Manager
	sat  *satx.Adaptor

	groupAct map[GroupID]ids.ID
	actGroup map[ids.ID]GroupID
	order    []GroupID
	next     GroupID
}

// NewMUSFinder returns an empty finder minting activation literals from
// vars.
func NewMUSFinder(vars *variable.Manager, opts *pmeopts.Options) *MUSFinder {
	if opts == nil {
		opts = pmeopts.Default()
	}
	return &MUSFinder{
		vars:     vars,
		sat:      satx.New(opts.Backend, false, nil),
		groupAct: make(map[GroupID]ids.ID),
		actGroup: make(map[ids.ID]GroupID),
	}
}

// AddHardClause asserts cls unconditionally.
func (m *MUSFinder) AddHardClause(cls ids.Clause) error {
	return m.sat.AddClause(cls)
}

// AddHardClauses asserts every clause of vec unconditionally.
func (m *MUSFinder) AddHardClauses(vec ids.ClauseVec) error {
	return m.sat.AddClauses(vec)
}

// AddSoftGroup registers clauses as one removable group and returns its
// handle. Every clause is extended with the group's negated activation
// literal, so the group holds exactly when its literal is assumed.
func (m *MUSFinder) AddSoftGroup(clauses ids.ClauseVec) GroupID {
	g := m.next
	m.next++
	act := m.vars.GetNewID("", 0)
	m.groupAct[g] = act
	m.actGroup[act] = g
	m.order = append(m.order, g)
	for _, cls := range clauses {
		withAct := append(append(ids.Clause(nil), cls...), ids.Negate(act))
		_ = m.sat.AddClause(withAct)
	}
	return g
}

func (m *MUSFinder) assumptionsFor(groups []GroupID) ids.Cube {
	out := make(ids.Cube, 0, len(groups))
	for _, g := range groups {
		out = append(out, m.groupAct[g])
	}
	return out
}

func (m *MUSFinder) groupsOf(crits ids.Cube) []GroupID {
	var out []GroupID
	for _, c := range crits {
		if g, ok := m.actGroup[c]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FindCore returns the groups appearing in one UNSAT core of the whole
// formula. The formula with every group active must be unsatisfiable.
func (m *MUSFinder) FindCore() ([]GroupID, error) {
	sat, crits := m.sat.Solve(m.assumptionsFor(m.order), true)
	if sat {
		return nil, pmeerr.Internal("mus: formula is satisfiable with all groups active")
	}
	return m.groupsOf(crits), nil
}

// FindMUS minimizes by deletion: starting from a core, each group is
// tentatively removed; groups whose removal makes the formula satisfiable
// are necessary and kept, the rest are dropped (re-shrinking through the
// new core each time a removal succeeds).
func (m *MUSFinder) FindMUS() ([]GroupID, error) {
	core, err := m.FindCore()
	if err != nil {
		return nil, err
	}
	kept := append([]GroupID(nil), core...)
	for i := 0; i < len(kept); {
		cand := make([]GroupID, 0, len(kept)-1)
		cand = append(cand, kept[:i]...)
		cand = append(cand, kept[i+1:]...)
		sat, crits := m.sat.Solve(m.assumptionsFor(cand), true)
		if sat {
			// kept[i] is necessary.
			i++
			continue
		}
		kept = m.groupsOf(crits)
		// The new core may have dropped groups before position i too;
		// restart the scan from the front of what remains.
		i = 0
	}
	return kept, nil
}
