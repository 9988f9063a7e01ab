package ids

import "sort"

// Clause is an ordered sequence of literals read as a disjunction. Cube is
// structurally identical and read as a conjunction; negating one gives the
// other. Both are canonicalized by sorting ascending before use as map keys
// or for subsumption checks.
type Clause = []ID

// Cube is the conjunctive reading of the same structural type as Clause.
type Cube = []ID

// ClauseVec is a list of clauses, e.g. the CNF produced by unrolling a
// transition relation.
type ClauseVec = []Clause

// SortedCopy returns a new, ascending-sorted copy of lits, suitable for use
// as a map key (via CubeKey) or for Subsumes.
func SortedCopy(lits []ID) []ID {
	out := make([]ID, len(lits))
	copy(out, lits)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsSorted reports whether lits is already ascending.
func IsSorted(lits []ID) bool {
	return sort.SliceIsSorted(lits, func(i, j int) bool { return lits[i] < lits[j] })
}

// CubeKey is a comparable string key for a sorted cube/clause, used to dedup
// lemmas and clauses by structural (not pointer) identity. Callers must
// pass an already-sorted slice; two sorted slices with equal contents
// produce equal keys.
func CubeKey(sorted []ID) string {
	buf := make([]byte, 0, len(sorted)*5)
	for _, id := range sorted {
		buf = appendUvarint(buf, uint64(id))
	}
	return string(buf)
}

func appendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// Subsumes reports whether every literal of a appears in b. Both slices
// must be sorted ascending.
func Subsumes(a, b []ID) bool {
	if len(a) > len(b) {
		return false
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] > b[j]:
			j++
		default:
			return false
		}
	}
	return i == len(a)
}

// Equal reports whether two sorted slices contain the same literals in the
// same order.
func Equal(a, b []ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contains reports whether id appears in lits.
func Contains(lits []ID, id ID) bool {
	for _, l := range lits {
		if l == id {
			return true
		}
	}
	return false
}
