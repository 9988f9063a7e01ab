package debugtr

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// CNFNetwork pairs a sorting/merge network's output literals (sorted
// descending: output[i] true implies output[i-1] true) with the clauses
// defining them — the Batcher odd-even construction, an alternative to
// the totalizer where only a bound comparison, not the full unary
// count, is needed.
type CNFNetwork struct {
	Outputs ids.Cube
	CNF     ids.ClauseVec
}

func freshVars(vars *variable.Manager, n int) ids.Cube {
	out := make(ids.Cube, n)
	for i := range out {
		out[i] = vars.GetNewID("", 0)
	}
	return out
}

func takeOdd(vec ids.Cube) ids.Cube {
	out := make(ids.Cube, 0, (len(vec)+1)/2)
	for i := 1; i < len(vec); i += 2 {
		out = append(out, vec[i])
	}
	return out
}

func takeEven(vec ids.Cube) ids.Cube {
	out := make(ids.Cube, 0, len(vec)/2)
	for i := 0; i < len(vec); i += 2 {
		out = append(out, vec[i])
	}
	return out
}

// partialComp emits y = OR(x1, x2), restricted to whichever of le/ge
// directions the caller requested.
func partialComp(x1, x2, y ids.ID, le, ge bool) ids.ClauseVec {
	var cnf ids.ClauseVec
	if le {
		cnf = append(cnf,
			ids.Clause{ids.Negate(x1), y},
			ids.Clause{ids.Negate(x2), y},
		)
	}
	if ge {
		cnf = append(cnf, ids.Clause{x1, x2, ids.Negate(y)})
	}
	return cnf
}

// comp is a single two-input comparator: y1 = OR(x1,x2), y2 = AND(x1,x2),
// restricted to whichever of le/ge directions the caller requested.
func comp(x1, x2, y1, y2 ids.ID, le, ge bool) ids.ClauseVec {
	var cnf ids.ClauseVec
	if le {
		cnf = append(cnf,
			ids.Clause{ids.Negate(x1), y1},
			ids.Clause{ids.Negate(x2), y1},
			ids.Clause{ids.Negate(x1), ids.Negate(x2), y2},
		)
	}
	if ge {
		cnf = append(cnf,
			ids.Clause{x1, ids.Negate(y2)},
			ids.Clause{x2, ids.Negate(y2)},
			ids.Clause{x1, x2, ids.Negate(y1)},
		)
	}
	return cnf
}

// CompHalf is the one-directional comparator (only the LEq direction
// asserted): safe wherever the caller only ever tests an upper bound.
func CompHalf(x1, x2, y1, y2 ids.ID) ids.ClauseVec {
	return comp(x1, x2, y1, y2, true, false)
}

// CompFull asserts both directions of the comparator.
func CompFull(x1, x2, y1, y2 ids.ID) ids.ClauseVec {
	return comp(x1, x2, y1, y2, true, true)
}

// zipperMerge interleaves the two halves of a Batcher merge's recursive
// odd/even sub-networks back into a single output vector.
func zipperMerge(even, odd ids.Cube, a, b int) ids.Cube {
	diff := len(even) - len(odd)
	merged := make(ids.Cube, 0, len(odd)+len(even))

	if diff <= 1 {
		for i := range odd {
			merged = append(merged, even[i], odd[i])
		}
		if diff == 1 {
			merged = append(merged, even[len(even)-1])
		}
		return merged
	}

	iEven, iOdd := 0, 0
	for iOdd < len(odd) {
		merged = append(merged, even[iEven], odd[iOdd])
		iEven++
		iOdd++
		if len(merged) == a+1 {
			merged = append(merged, even[iEven])
			iEven++
		}
	}
	merged = append(merged, even[len(even)-1])
	return merged
}

// MergeNetwork builds a Batcher odd-even merge network combining two
// already-sorted input vectors into one sorted output vector.
func MergeNetwork(vars *variable.Manager, inputsA, inputsB ids.Cube, le, ge bool) CNFNetwork {
	aVec, bVec := inputsA, inputsB
	if len(aVec) > len(bVec) {
		aVec, bVec = bVec, aVec
	}
	a, b := len(aVec), len(bVec)

	switch {
	case a == 1 && b == 1:
		outputs := freshVars(vars, 2)
		cnf := comp(aVec[0], bVec[0], outputs[0], outputs[1], le, ge)
		return CNFNetwork{Outputs: outputs, CNF: cnf}
	case a == 0:
		return CNFNetwork{Outputs: append(ids.Cube(nil), bVec...)}
	}

	aOdd, aEven := takeOdd(aVec), takeEven(aVec)
	bOdd, bEven := takeOdd(bVec), takeEven(bVec)

	oddNet := MergeNetwork(vars, aOdd, bOdd, le, ge)
	evenNet := MergeNetwork(vars, aEven, bEven, le, ge)

	var cnf ids.ClauseVec
	cnf = append(cnf, oddNet.CNF...)
	cnf = append(cnf, evenNet.CNF...)

	z := zipperMerge(evenNet.Outputs, oddNet.Outputs, a, b)

	outputs := make(ids.Cube, 0, a+b)
	outputs = append(outputs, z[0])

	for i := 1; i < len(z)-1; i += 2 {
		y1 := vars.GetNewID("", 0)
		y2 := vars.GetNewID("", 0)
		cnf = append(cnf, comp(z[i], z[i+1], y1, y2, le, ge)...)
		outputs = append(outputs, y1, y2)
	}

	if (a+b)%2 == 0 {
		outputs = append(outputs, z[len(z)-1])
	}

	return CNFNetwork{Outputs: outputs, CNF: cnf}
}

// SortingNetwork builds a Batcher odd-even sorting network over inputs,
// recursively splitting the input in half and merging the two sorted
// halves.
func SortingNetwork(vars *variable.Manager, inputs ids.Cube, le, ge bool) CNFNetwork {
	n := len(inputs)
	switch {
	case n == 1:
		return CNFNetwork{Outputs: append(ids.Cube(nil), inputs...)}
	case n == 2:
		return MergeNetwork(vars, inputs[0:1], inputs[1:2], le, ge)
	}

	l := n / 2
	left := SortingNetwork(vars, inputs[:l], le, ge)
	right := SortingNetwork(vars, inputs[l:], le, ge)
	merged := MergeNetwork(vars, left.Outputs, right.Outputs, le, ge)

	var cnf ids.ClauseVec
	cnf = append(cnf, left.CNF...)
	cnf = append(cnf, right.CNF...)
	cnf = append(cnf, merged.CNF...)
	return CNFNetwork{Outputs: merged.Outputs, CNF: cnf}
}

// SimpMergeNetwork is MergeNetwork truncated to at most c output
// literals: the merge a complexity-bounded cardinality network needs,
// since nothing past the c-th output is ever read.
func SimpMergeNetwork(vars *variable.Manager, inputsA, inputsB ids.Cube, c uint, le, ge bool) CNFNetwork {
	aVec, bVec := append(ids.Cube(nil), inputsA...), append(ids.Cube(nil), inputsB...)
	if len(aVec) > len(bVec) {
		aVec, bVec = bVec, aVec
	}
	if uint(len(aVec)) > c {
		aVec = aVec[:c]
	}
	if uint(len(bVec)) > c {
		bVec = bVec[:c]
	}
	a, b := len(aVec), len(bVec)

	switch {
	case a == 0:
		return CNFNetwork{Outputs: append(ids.Cube(nil), bVec...)}
	case a == 1 && b == 1 && c == 1:
		y := vars.GetNewID("", 0)
		cnf := partialComp(aVec[0], bVec[0], y, le, ge)
		return CNFNetwork{Outputs: ids.Cube{y}, CNF: cnf}
	case uint(a+b) <= c:
		return MergeNetwork(vars, aVec, bVec, le, ge)
	}

	isEven := c%2 == 0
	aOdd, aEven := takeOdd(aVec), takeEven(aVec)
	bOdd, bEven := takeOdd(bVec), takeEven(bVec)

	var oddSize, evenSize uint
	if isEven {
		oddSize, evenSize = c/2, c/2+1
	} else {
		oddSize, evenSize = (c-1)/2, (c+1)/2
	}

	oddNet := SimpMergeNetwork(vars, aOdd, bOdd, oddSize, le, ge)
	evenNet := SimpMergeNetwork(vars, aEven, bEven, evenSize, le, ge)

	var cnf ids.ClauseVec
	cnf = append(cnf, oddNet.CNF...)
	cnf = append(cnf, evenNet.CNF...)

	outputs := make(ids.Cube, 0, c)
	outputs = append(outputs, evenNet.Outputs[0])

	if isEven {
		for i := uint(0); i < c/2-1; i++ {
			y1 := vars.GetNewID("", 0)
			y2 := vars.GetNewID("", 0)
			cnf = append(cnf, comp(evenNet.Outputs[i+1], oddNet.Outputs[i], y1, y2, le, ge)...)
			outputs = append(outputs, y1, y2)
		}
		yc := vars.GetNewID("", 0)
		cnf = append(cnf, partialComp(evenNet.Outputs[len(evenNet.Outputs)-1], oddNet.Outputs[len(oddNet.Outputs)-1], yc, le, ge)...)
		outputs = append(outputs, yc)
	} else {
		for i := uint(0); i < (c-1)/2; i++ {
			y1 := vars.GetNewID("", 0)
			y2 := vars.GetNewID("", 0)
			cnf = append(cnf, comp(evenNet.Outputs[i+1], oddNet.Outputs[i], y1, y2, le, ge)...)
			outputs = append(outputs, y1, y2)
		}
	}

	return CNFNetwork{Outputs: outputs, CNF: cnf}
}

// CardinalityNetwork builds a Batcher-style cardinality network: a sorted
// output vector truncated to at most m literals, sufficient to compare
// the true-count of inputs against any bound <= m.
func CardinalityNetwork(vars *variable.Manager, inputs ids.Cube, m uint, le, ge bool) CNFNetwork {
	n := uint(len(inputs))
	if n <= m {
		return SortingNetwork(vars, inputs, le, ge)
	}

	l := n / 2
	left := CardinalityNetwork(vars, inputs[:l], m, le, ge)
	right := CardinalityNetwork(vars, inputs[l:], m, le, ge)
	merged := SimpMergeNetwork(vars, left.Outputs, right.Outputs, m, le, ge)

	var cnf ids.ClauseVec
	cnf = append(cnf, left.CNF...)
	cnf = append(cnf, right.CNF...)
	cnf = append(cnf, merged.CNF...)
	return CNFNetwork{Outputs: merged.Outputs, CNF: cnf}
}
