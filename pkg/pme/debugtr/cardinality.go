package debugtr

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// totalizerTree is a node in the binary totalizer used by
// CardinalityConstraint: a leaf wraps a single input literal, and an
// internal node's outputs are a unary (thermometer) count of how many of
// its subtree's inputs are true, built incrementally as the cardinality
// bound rises.
type totalizerTree struct {
	left, right *totalizerTree
	outputs     []ids.ID
	dirty       map[ids.ID]bool
	input       ids.ID // ID_NULL unless this is a leaf
}

func newLeaf(id ids.ID) *totalizerTree {
	return &totalizerTree{input: id, outputs: []ids.ID{id}}
}

func (t *totalizerTree) isLeaf() bool { return t.input != ids.ID_NULL }

func (t *totalizerTree) outputSize() int { return len(t.outputs) }

func (t *totalizerTree) inputSize() int {
	if t.isLeaf() {
		return 1
	}
	n := 0
	if t.left != nil {
		n += t.left.outputSize()
	}
	if t.right != nil {
		n += t.right.outputSize()
	}
	return n
}

func (t *totalizerTree) markClean() { t.dirty = nil }

func (t *totalizerTree) markDirty() {
	t.dirty = make(map[ids.ID]bool, len(t.outputs))
	for _, o := range t.outputs {
		t.dirty[o] = true
	}
}

func (t *totalizerTree) isDirty(id ids.ID) bool { return t.dirty[id] }

func (t *totalizerTree) isClean() bool { return len(t.dirty) == 0 }

func (t *totalizerTree) addOutput(id ids.ID) {
	t.outputs = append(t.outputs, id)
	if t.dirty == nil {
		t.dirty = make(map[ids.ID]bool)
	}
	t.dirty[id] = true
}

// CardinalityConstraint is a totalizer-encoded cardinality constraint
// over a set of Boolean literals: CNFize produces clauses
// whose output literals are a unary count of how many inputs are true,
// and assumeLEq/assumeGEq/etc. translate a numeric bound into unit
// assumptions against those outputs. Cardinality can only ever be raised
// (setCardinality/increaseCardinality), matching the incremental way the
// debugger raises its fault-count bound across SAT queries.
type CardinalityConstraint struct {
	vars        *variable.Manager
	root        *totalizerTree
	cardinality uint
	outputsFlat []ids.ID
	inputs      ids.Cube
}

// NewCardinalityConstraint returns an empty constraint with no inputs.
func NewCardinalityConstraint(vars *variable.Manager) *CardinalityConstraint {
	return &CardinalityConstraint{vars: vars}
}

// Cardinality reports the current bound.
func (c *CardinalityConstraint) Cardinality() uint { return c.cardinality }

// InputCardinality is the number of inputs added so far.
func (c *CardinalityConstraint) InputCardinality() uint { return uint(len(c.inputs)) }

// OutputCardinality is how many unary output literals exist at the root,
// i.e. min(Cardinality(), InputCardinality()).
func (c *CardinalityConstraint) OutputCardinality() uint {
	if c.root == nil {
		return 0
	}
	return uint(c.root.outputSize())
}

// Outputs returns the root's unary output literals, outputs[i] true iff
// at least i+1 inputs are true.
func (c *CardinalityConstraint) Outputs() ids.Cube {
	return append(ids.Cube(nil), c.outputsFlat...)
}

func (c *CardinalityConstraint) freshVar() ids.ID {
	return c.vars.GetNewID("", 0)
}

func (c *CardinalityConstraint) updateCachedOutputs() {
	c.outputsFlat = nil
	if c.root != nil {
		c.outputsFlat = append(c.outputsFlat, c.root.outputs...)
	}
}

// AddInput adds a new input literal to the constraint, growing the
// totalizer tree by pairing the existing root (if any) with a fresh leaf.
func (c *CardinalityConstraint) AddInput(id ids.ID) {
	c.inputs = append(c.inputs, id)
	if c.root != nil {
		newRoot := &totalizerTree{left: c.root, right: newLeaf(id)}
		target := min(int(c.cardinality), newRoot.inputSize())
		for newRoot.outputSize() < target {
			newRoot.addOutput(c.freshVar())
		}
		c.root = newRoot
	} else {
		c.root = newLeaf(id)
	}
	c.updateCachedOutputs()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SetCardinality raises the constraint's bound to n, growing the
// totalizer tree's output literals as needed. A no-op if n is not larger
// than the current bound (cardinality never decreases).
func (c *CardinalityConstraint) SetCardinality(n uint) {
	if n <= c.cardinality {
		return
	}
	c.cardinality = n
	if c.root == nil {
		return
	}
	visited := make(map[*totalizerTree]bool)
	c.increaseNodeCardinality(c.root, visited)
	c.updateCachedOutputs()
}

// IncreaseCardinality is SetCardinality, but panics if n is smaller
// than the current bound.
func (c *CardinalityConstraint) IncreaseCardinality(n uint) {
	if n < c.cardinality {
		panic("debugtr: IncreaseCardinality called with n below current cardinality")
	}
	c.SetCardinality(n)
}

func (c *CardinalityConstraint) increaseNodeCardinality(node *totalizerTree, visited map[*totalizerTree]bool) {
	if node.left != nil && !visited[node.left] {
		c.increaseNodeCardinality(node.left, visited)
	}
	if node.right != nil && !visited[node.right] {
		c.increaseNodeCardinality(node.right, visited)
	}
	visited[node] = true

	target := min(int(c.cardinality), node.inputSize())
	for node.outputSize() < target {
		node.addOutput(c.freshVar())
	}
}

// ClearIncrementality marks every node dirty, forcing the next CNFize to
// re-emit every clause rather than only the ones introduced since the
// last call (used when a constraint's clauses must be regenerated after
// a solver reset).
func (c *CardinalityConstraint) ClearIncrementality() {
	c.clearIncrementality(c.root)
}

func (c *CardinalityConstraint) clearIncrementality(t *totalizerTree) {
	if t == nil {
		return
	}
	t.markDirty()
	c.clearIncrementality(t.left)
	c.clearIncrementality(t.right)
}

// CNFize returns the constraint's full defining clause set, regardless
// of what was emitted before. Marks everything emitted.
func (c *CardinalityConstraint) CNFize() ids.ClauseVec {
	c.ClearIncrementality()
	return c.cnfize(c.root)
}

// IncrementalCNFize returns only the clauses introduced since the last
// CNFize/IncrementalCNFize call: the totalizer grows as SetCardinality
// raises the bound, so incremental callers accumulate the output across
// many calls rather than re-adding the whole constraint each time.
func (c *CardinalityConstraint) IncrementalCNFize() ids.ClauseVec {
	return c.cnfize(c.root)
}

func (c *CardinalityConstraint) cnfize(tree *totalizerTree) ids.ClauseVec {
	if tree == nil {
		return nil
	}
	if tree.isClean() {
		return nil
	}
	if tree.isLeaf() {
		return nil
	}

	var cnf ids.ClauseVec
	cnf = append(cnf, c.cnfize(tree.left)...)
	cnf = append(cnf, c.cnfize(tree.right)...)

	// Notation follows "Efficient CNF Encoding of Boolean Cardinality
	// Constraints" (Bailleux & Boufkhad): a/b relate to the left/right
	// subtrees, r to this node, each padded with sentinels ID_TRUE/ID_FALSE.
	aVec := []ids.ID{ids.ID_TRUE}
	bVec := []ids.ID{ids.ID_TRUE}
	rVec := []ids.ID{ids.ID_TRUE}
	rVec = append(rVec, tree.outputs...)
	if tree.left != nil {
		aVec = append(aVec, tree.left.outputs...)
	}
	if tree.right != nil {
		bVec = append(bVec, tree.right.outputs...)
	}
	aVec = append(aVec, ids.ID_FALSE)
	bVec = append(bVec, ids.ID_FALSE)
	rVec = append(rVec, ids.ID_FALSE)

	for alpha := 0; alpha < len(aVec)-1; alpha++ {
		a0, a1 := aVec[alpha], aVec[alpha+1]
		for beta := 0; beta < len(bVec)-1; beta++ {
			b0, b1 := bVec[beta], bVec[beta+1]
			theta := alpha + beta
			if theta+1 >= len(rVec) {
				continue
			}
			r0, r1 := rVec[theta], rVec[theta+1]

			if a0 != ids.ID_FALSE && b0 != ids.ID_FALSE && r0 != ids.ID_TRUE {
				cls := ids.Clause{ids.Negate(a0), ids.Negate(b0), r0}
				if c.isDirtyClause(cls, tree) {
					cnf = append(cnf, cls)
				}
			}
			if a1 != ids.ID_TRUE && b1 != ids.ID_TRUE && r1 != ids.ID_FALSE {
				cls := ids.Clause{a1, b1, ids.Negate(r1)}
				if c.isDirtyClause(cls, tree) {
					cnf = append(cnf, cls)
				}
			}
		}
	}

	tree.markClean()
	return cnf
}

func (c *CardinalityConstraint) isDirtyClause(cls ids.Clause, node *totalizerTree) bool {
	for _, id := range cls {
		if node.isDirty(ids.Strip(id)) {
			return true
		}
	}
	return false
}

// AssumeEq returns unit assumptions fixing the counted total to exactly n.
func (c *CardinalityConstraint) AssumeEq(n uint) ids.Cube {
	if n == c.InputCardinality() && n == c.OutputCardinality() {
		return append(ids.Cube(nil), c.inputs...)
	}
	if n >= c.OutputCardinality() {
		panic("debugtr: AssumeEq cardinality >= current output cardinality")
	}
	assumps := make(ids.Cube, 0, c.OutputCardinality())
	for i, lit := range c.outputsFlat {
		if n > 0 && uint(i) <= n-1 {
			assumps = append(assumps, lit)
		} else {
			assumps = append(assumps, ids.Negate(lit))
		}
	}
	return assumps
}

// AssumeLEq returns unit assumptions fixing the counted total to at most n.
func (c *CardinalityConstraint) AssumeLEq(n uint) ids.Cube {
	if n == c.InputCardinality() && n == c.OutputCardinality() {
		return nil
	}
	if n >= c.OutputCardinality() {
		panic("debugtr: AssumeLEq cardinality >= current output cardinality")
	}
	assumps := make(ids.Cube, 0, c.OutputCardinality())
	for i, lit := range c.outputsFlat {
		if uint(i) >= n {
			assumps = append(assumps, ids.Negate(lit))
		}
	}
	return assumps
}

// AssumeLT returns unit assumptions fixing the counted total to strictly
// less than n.
func (c *CardinalityConstraint) AssumeLT(n uint) ids.Cube {
	if n == 0 {
		panic("debugtr: AssumeLT cardinality < 0")
	}
	if n > c.OutputCardinality() {
		panic("debugtr: AssumeLT cardinality > current output cardinality")
	}
	assumps := make(ids.Cube, 0, c.OutputCardinality())
	for i, lit := range c.outputsFlat {
		if n > 0 && uint(i) >= n-1 {
			assumps = append(assumps, ids.Negate(lit))
		}
	}
	return assumps
}

// AssumeGEq returns unit assumptions fixing the counted total to at least n.
func (c *CardinalityConstraint) AssumeGEq(n uint) ids.Cube {
	if n == c.InputCardinality() && n == c.OutputCardinality() {
		return append(ids.Cube(nil), c.inputs...)
	}
	if n >= c.OutputCardinality() {
		panic("debugtr: AssumeGEq cardinality >= current output cardinality")
	}
	assumps := make(ids.Cube, 0, c.OutputCardinality())
	for i, lit := range c.outputsFlat {
		if n > 0 && uint(i) <= n-1 {
			assumps = append(assumps, lit)
		}
	}
	return assumps
}

// AssumeGT returns unit assumptions fixing the counted total to strictly
// more than n.
func (c *CardinalityConstraint) AssumeGT(n uint) ids.Cube {
	if n >= c.OutputCardinality() {
		panic("debugtr: AssumeGT cardinality >= current output cardinality")
	}
	assumps := make(ids.Cube, 0, c.OutputCardinality())
	for i, lit := range c.outputsFlat {
		if uint(i) <= n {
			assumps = append(assumps, lit)
		}
	}
	return assumps
}
