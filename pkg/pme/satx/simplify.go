package satx

import (
	"sort"

	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

// Simplify runs the simplifying backend's preprocessing pass over every
// clause added so far and returns the residual CNF plus the unit trail of
// frozen variables whose values became forced. Frozen variables are never
// eliminated, so the residual is equivalent to the input CNF under them and
// can be re-sent verbatim to any downstream solver. Requesting Simplify on
// a non-simplifying backend is an UnsupportedBackend error.
func (a *Adaptor) Simplify() (ids.ClauseVec, ids.Clause, error) {
	if a.backend != pmeopts.BackendSimplifying {
		return nil, nil, pmeerr.NewUnsupportedBackend("simplify() requires BackendSimplifying")
	}
	residual, units := simplifyCNF(a.recorded, a.frozen)
	return residual, units, nil
}

// simplifyCNF is unit propagation to fixpoint followed by bounded variable
// elimination (resolution on variables whose elimination does not grow the
// clause count) restricted to non-frozen variables.
func simplifyCNF(cnf ids.ClauseVec, frozen map[ids.ID]bool) (ids.ClauseVec, ids.Clause) {
	assign := map[ids.ID]bool{
		ids.ID_FALSE: false,
	}

	live := make(ids.ClauseVec, 0, len(cnf))
	for _, cls := range cnf {
		live = append(live, ids.SortedCopy(cls))
	}

	conflict := false
	for changed := true; changed && !conflict; {
		changed = false
		next := live[:0]
		for _, cls := range live {
			reduced, sat, empty := applyAssignment(cls, assign)
			switch {
			case sat:
				changed = true
			case empty:
				conflict = true
			case len(reduced) == 1:
				v := ids.Strip(reduced[0])
				val := !ids.IsNegated(reduced[0])
				if have, ok := assign[v]; ok && have != val {
					conflict = true
				} else if !ok {
					assign[v] = val
					changed = true
				}
			default:
				next = append(next, reduced)
			}
			if conflict {
				break
			}
		}
		live = next
	}

	if conflict {
		// The residual must stay UNSAT when re-sent; a unit ID_FALSE
		// contradicts the ID_TRUE seed every adaptor asserts.
		return ids.ClauseVec{{ids.ID_FALSE}}, nil
	}

	live = eliminateVariables(live, frozen, assign)
	live = dedupClauses(live)

	var units ids.Clause
	forced := make([]ids.ID, 0, len(assign))
	for v := range assign {
		forced = append(forced, v)
	}
	sort.Slice(forced, func(i, j int) bool { return forced[i] < forced[j] })
	for _, v := range forced {
		if !frozen[v] {
			continue
		}
		if assign[v] {
			units = append(units, v)
		} else {
			units = append(units, ids.Negate(v))
		}
	}
	return live, units
}

func applyAssignment(cls ids.Clause, assign map[ids.ID]bool) (reduced ids.Clause, sat, empty bool) {
	reduced = make(ids.Clause, 0, len(cls))
	for _, l := range cls {
		val, ok := assign[ids.Strip(l)]
		if !ok {
			reduced = append(reduced, l)
			continue
		}
		if val != ids.IsNegated(l) {
			return nil, true, false
		}
	}
	if len(reduced) == 0 {
		return nil, false, true
	}
	return reduced, false, false
}

// eliminateVariables resolves away every non-frozen, unassigned variable
// whose positive/negative occurrence product does not exceed the number of
// clauses it currently appears in.
func eliminateVariables(cnf ids.ClauseVec, frozen map[ids.ID]bool, assign map[ids.ID]bool) ids.ClauseVec {
	occ := make(map[ids.ID][]int)
	for i, cls := range cnf {
		for _, l := range cls {
			v := ids.Strip(l)
			occ[v] = append(occ[v], i)
		}
	}

	removed := make([]bool, len(cnf))
	var added ids.ClauseVec

	vars := make([]ids.ID, 0, len(occ))
	for v := range occ {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })

	for _, v := range vars {
		if frozen[v] {
			continue
		}
		if _, ok := assign[v]; ok {
			continue
		}
		var pos, neg []ids.Clause
		stale := false
		for _, i := range occ[v] {
			if removed[i] {
				stale = true
				break
			}
			if ids.Contains(cnf[i], v) {
				pos = append(pos, cnf[i])
			} else {
				neg = append(neg, cnf[i])
			}
		}
		// Clauses produced by an earlier elimination are not indexed;
		// skip any variable whose occurrence list went stale rather than
		// rebuilding the index mid-pass.
		if stale {
			continue
		}
		if len(pos)*len(neg) > len(pos)+len(neg) {
			continue
		}
		resolvents := make(ids.ClauseVec, 0, len(pos)*len(neg))
		ok := true
		for _, p := range pos {
			for _, n := range neg {
				r, taut := resolve(p, n, v)
				if !taut {
					resolvents = append(resolvents, r)
				}
				if len(r) == 0 && !taut {
					ok = false
				}
			}
		}
		if !ok {
			continue
		}
		for _, i := range occ[v] {
			removed[i] = true
		}
		added = append(added, resolvents...)
	}

	out := make(ids.ClauseVec, 0, len(cnf)+len(added))
	for i, cls := range cnf {
		if !removed[i] {
			out = append(out, cls)
		}
	}
	return append(out, added...)
}

// resolve returns the resolvent of p and n on variable v (p contains v
// positively, n negatively), with duplicate literals merged. taut reports
// a tautological resolvent, which callers drop.
func resolve(p, n ids.Clause, v ids.ID) (ids.Clause, bool) {
	seen := make(map[ids.ID]bool, len(p)+len(n))
	out := make(ids.Clause, 0, len(p)+len(n)-2)
	for _, l := range p {
		if ids.Strip(l) == v {
			continue
		}
		if seen[ids.Negate(l)] {
			return nil, true
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, l := range n {
		if ids.Strip(l) == v {
			continue
		}
		if seen[ids.Negate(l)] {
			return nil, true
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return ids.SortedCopy(out), false
}

func dedupClauses(cnf ids.ClauseVec) ids.ClauseVec {
	seen := make(map[string]bool, len(cnf))
	out := make(ids.ClauseVec, 0, len(cnf))
	for _, cls := range cnf {
		key := ids.CubeKey(cls)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cls)
	}
	return out
}
