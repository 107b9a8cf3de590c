package tree

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrXSplayBadSize          = errors.New("[x-splay] tree size must be positive")
	ErrXSplayIndexOutOfBounds = errors.New("[x-splay] node index out of bounds")
	ErrXSplayInvariantBroken  = errors.New("[x-splay] tree invariant broken")
)

const nilIdx int64 = SplayNilIdx

// References:
// https://www.cs.cmu.edu/~15451-f22/lectures/lec04-splay.pdf
// https://en.wikipedia.org/wiki/Splay_tree
// splay tree properties:
// p1. Binary search tree over the arena indices: the inorder traversal
//   yields 0, 1, ..., n-1, so rotations never compare keys.
// p2. Exactly one node has an absent parent and it is the root.
// p3. Every child link is mirrored by the child's parent link.
// p4. Each splay step lifts the target node by one or two levels, so a
//   splay performs depth(x) rotations in ceil(depth(x)/2) steps.

// splayNode links are arena indices, nilIdx marks an absent link.
type splayNode struct {
	parent int64
	left   int64
	right  int64
}

var _ SplayTree = (*splayTree)(nil)

type splayTree struct {
	logger *zap.Logger
	nodes  []splayNode
	root   int64
	stats  SplayStats
}

func (tree *splayTree) Len() int64 {
	return int64(len(tree.nodes))
}

func (tree *splayTree) Root() int64 {
	return tree.root
}

func (tree *splayTree) Stats() SplayStats {
	return tree.stats
}

func (tree *splayTree) inBounds(idx int64) bool {
	return idx >= 0 && idx < int64(len(tree.nodes))
}

// Link mutators. Each one rewrites both ends of the affected link before
// returning, a caller never observes a half-updated pair.

func (tree *splayTree) setParent(node, parent int64) error {
	if !tree.inBounds(node) {
		return fmt.Errorf("%w: set parent of %d", ErrXSplayIndexOutOfBounds, node)
	}
	tree.nodes[node].parent = parent
	return nil
}

func (tree *splayTree) setLeft(node, left int64) error {
	if !tree.inBounds(node) {
		return fmt.Errorf("%w: set left of %d", ErrXSplayIndexOutOfBounds, node)
	}
	tree.nodes[node].left = left
	if left != nilIdx {
		return tree.setParent(left, node)
	}
	return nil
}

func (tree *splayTree) setRight(node, right int64) error {
	if !tree.inBounds(node) {
		return fmt.Errorf("%w: set right of %d", ErrXSplayIndexOutOfBounds, node)
	}
	tree.nodes[node].right = right
	if right != nilIdx {
		return tree.setParent(right, node)
	}
	return nil
}

// replaceChild re-attaches a rotated subtree below whatever sat above it.
// Both children must be present and oldChild must occupy one of the two
// slots, anything else is a corrupted tree.
func (tree *splayTree) replaceChild(node, oldChild, newChild int64) error {
	if !tree.inBounds(node) {
		return fmt.Errorf("%w: replace child of %d", ErrXSplayIndexOutOfBounds, node)
	}
	if oldChild == nilIdx || newChild == nilIdx {
		return fmt.Errorf("%w: replace child of %d requires present children", ErrXSplayInvariantBroken, node)
	}
	switch oldChild {
	case tree.nodes[node].left:
		tree.nodes[node].left = newChild
	case tree.nodes[node].right:
		tree.nodes[node].right = newChild
	default:
		return fmt.Errorf("%w: node %d has no child %d to replace", ErrXSplayInvariantBroken, node, oldChild)
	}
	return tree.setParent(newChild, node)
}

func (tree *splayTree) setRoot(idx int64) error {
	if !tree.inBounds(idx) {
		return fmt.Errorf("%w: set root to %d", ErrXSplayIndexOutOfBounds, idx)
	}
	tree.root = idx
	return tree.setParent(idx, nilIdx)
}

/*
	       z                                       z
	      /        right rotation about y         /
	     y       ===========================>    x
	    / \                                     / \
	   x   C                                   A   y
	  / \                                         / \
	 A   B                                       B   C
*/
func (tree *splayTree) rotateRight(y int64) error {
	if !tree.inBounds(y) {
		return fmt.Errorf("%w: rotate right about %d", ErrXSplayIndexOutOfBounds, y)
	}
	x := tree.nodes[y].left
	if /* x replaces y, it cannot be absent */ x == nilIdx {
		return fmt.Errorf("%w: rotate right about %d without left child", ErrXSplayInvariantBroken, y)
	}

	z := tree.nodes[y].parent
	a, b := tree.nodes[x].left, tree.nodes[x].right
	c := tree.nodes[y].right

	if err := tree.setLeft(x, a); err != nil {
		return err
	}
	if err := tree.setRight(x, y); err != nil {
		return err
	}
	if err := tree.setLeft(y, b); err != nil {
		return err
	}
	if err := tree.setRight(y, c); err != nil {
		return err
	}

	var err error
	if /* y was the root */ z == nilIdx {
		err = tree.setRoot(x)
	} else {
		err = tree.replaceChild(z, y, x)
	}
	if err != nil {
		return err
	}
	tree.stats.Rotations++
	return nil
}

/*
	       z                                       z
	      /                                       /
	     y        left rotation about x          x
	    / \     <===========================    / \
	   x   C                                   A   y
	  / \                                         / \
	 A   B                                       B   C
*/
func (tree *splayTree) rotateLeft(x int64) error {
	if !tree.inBounds(x) {
		return fmt.Errorf("%w: rotate left about %d", ErrXSplayIndexOutOfBounds, x)
	}
	y := tree.nodes[x].right
	if /* y replaces x, it cannot be absent */ y == nilIdx {
		return fmt.Errorf("%w: rotate left about %d without right child", ErrXSplayInvariantBroken, x)
	}

	z := tree.nodes[x].parent
	a := tree.nodes[x].left
	b, c := tree.nodes[y].left, tree.nodes[y].right

	if err := tree.setRight(y, c); err != nil {
		return err
	}
	if err := tree.setLeft(y, x); err != nil {
		return err
	}
	if err := tree.setRight(x, b); err != nil {
		return err
	}
	if err := tree.setLeft(x, a); err != nil {
		return err
	}

	var err error
	if /* x was the root */ z == nilIdx {
		err = tree.setRoot(y)
	} else {
		err = tree.replaceChild(z, x, y)
	}
	if err != nil {
		return err
	}
	tree.stats.Rotations++
	return nil
}

/*
Zig (y is the tree root):

	  y             x             y                 x
	 /     ====>     \             \     ====>     /
	x                 y             x             y

Zig-zig (x and y are children on the same side):

	    z                         x           z                                 x
	   /            y              \           \              y                /
	  y     ====>  / \   ====>      y           y     ====>  / \   ====>      y
	 /            x   z              \           \          z   x            /
	x                                 z           x                         z

Zig-zag (x and y are children on opposite sides):

	  z              z                        z            z
	 /              /             x            \            \               x
	y     ====>    x   ====>     / \            y   ====>    x   ====>     / \
	 \            /             y   z          /              \           z   y
	  x          y                            x                y
*/

// classifyStep reads two levels of ancestry and nothing else, it never
// mutates the tree. Exactly one case must match while x is not the root.
func (tree *splayTree) classifyStep(x int64) (SplayCase, error) {
	y := tree.nodes[x].parent
	if y == nilIdx {
		return 0, fmt.Errorf("%w: classify splay step on root %d", ErrXSplayInvariantBroken, x)
	}

	z := tree.nodes[y].parent
	if /* zig */ z == nilIdx {
		switch x {
		case tree.nodes[y].left:
			return ZigLeft, nil
		case tree.nodes[y].right:
			return ZigRight, nil
		}
		return 0, fmt.Errorf("%w: node %d is not a child of its parent %d", ErrXSplayInvariantBroken, x, y)
	}

	zl, zr := tree.nodes[z].left, tree.nodes[z].right
	switch {
	case zl != nilIdx && tree.nodes[zl].right == x:
		return ZigZagLeftRight, nil
	case zl != nilIdx && tree.nodes[zl].left == x:
		return ZigZigLeft, nil
	case zr != nilIdx && tree.nodes[zr].left == x:
		return ZigZagRightLeft, nil
	case zr != nilIdx && tree.nodes[zr].right == x:
		return ZigZigRight, nil
	}
	return 0, fmt.Errorf("%w: node %d is no grandchild of %d", ErrXSplayInvariantBroken, x, z)
}

// applyStep issues the rotations for one classified step. Zig-zig must
// rotate about the grandparent before the parent, the reverse order
// leaves the chain unbalanced and loses the amortized logarithmic bound.
func (tree *splayTree) applyStep(x int64, splayCase SplayCase) error {
	y := tree.nodes[x].parent
	z := tree.nodes[y].parent

	switch splayCase {
	case ZigLeft:
		return tree.rotateRight(y)
	case ZigRight:
		return tree.rotateLeft(y)
	case ZigZigLeft:
		if err := tree.rotateRight(z); err != nil {
			return err
		}
		return tree.rotateRight(y)
	case ZigZigRight:
		if err := tree.rotateLeft(z); err != nil {
			return err
		}
		return tree.rotateLeft(y)
	case ZigZagLeftRight:
		if err := tree.rotateLeft(y); err != nil {
			return err
		}
		return tree.rotateRight(z)
	case ZigZagRightLeft:
		if err := tree.rotateRight(y); err != nil {
			return err
		}
		return tree.rotateLeft(z)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[x-splay] unknown splay case to apply")
	}
}

func (tree *splayTree) splayStep(x int64) error {
	splayCase, err := tree.classifyStep(x)
	if err != nil {
		return err
	}
	if err = tree.applyStep(x, splayCase); err != nil {
		return err
	}
	tree.stats.Steps++
	tree.logger.Debug("splay step",
		zap.Int64("node", x),
		zap.Uint8("case", uint8(splayCase)),
		zap.Int64("root", tree.root),
	)
	return nil
}

// Splay moves the node at idx to the root. Each step lifts the node by
// one or two levels, so the loop runs at most depth(idx) times; the
// guard turns a non-terminating (corrupted) tree into an invariant fault
// instead of spinning.
func (tree *splayTree) Splay(idx int64) error {
	if !tree.inBounds(idx) {
		return fmt.Errorf("%w: splay %d with %d nodes", ErrXSplayIndexOutOfBounds, idx, len(tree.nodes))
	}

	tree.stats.Splays++
	for guard := int64(len(tree.nodes)); tree.root != idx; guard-- {
		if guard <= 0 {
			return fmt.Errorf("%w: splaying %d exceeded the depth bound", ErrXSplayInvariantBroken, idx)
		}
		if err := tree.splayStep(idx); err != nil {
			return err
		}
	}
	return nil
}

// Depth reports the distance from idx to the root.
func (tree *splayTree) Depth(idx int64) (int64, error) {
	if !tree.inBounds(idx) {
		return 0, fmt.Errorf("%w: depth of %d", ErrXSplayIndexOutOfBounds, idx)
	}
	depth := int64(0)
	for aux := tree.nodes[idx].parent; aux != nilIdx; aux = tree.nodes[aux].parent {
		if depth++; depth >= int64(len(tree.nodes)) {
			return 0, fmt.Errorf("%w: parent chain of %d cycles", ErrXSplayInvariantBroken, idx)
		}
	}
	return depth, nil
}

// Inorder traversal to implement the DFS.
func (tree *splayTree) Foreach(action func(pos int64, idx int64) bool) {
	size := int64(len(tree.nodes))
	if size <= 0 {
		return
	}

	stack := make([]int64, 0, size>>1+1)
	for aux := tree.root; aux != nilIdx; aux = tree.nodes[aux].left {
		stack = append(stack, aux)
	}

	pos := int64(0)
	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		aux := stack[size-1]
		if !action(pos, aux) {
			return
		}
		pos++
		stack = stack[:size-1]
		if r := tree.nodes[aux].right; r != nilIdx {
			for aux = r; aux != nilIdx; aux = tree.nodes[aux].left {
				stack = append(stack, aux)
			}
		}
	}
}

func (tree *splayTree) Snapshot() SplayTreeSnapshot {
	return SplayTreeSnapshot{
		Root: tree.root,
		Nodes: lo.Map(tree.nodes, func(node splayNode, _ int) SplayNodeLinks {
			return SplayNodeLinks{Parent: node.parent, Left: node.left, Right: node.right}
		}),
	}
}

type SplayTreeOpt func(*splayTree)

func WithSplayTreeLogger(logger *zap.Logger) SplayTreeOpt {
	return func(tree *splayTree) {
		if logger != nil {
			tree.logger = logger
		}
	}
}

// NewSplayTree builds a tree of n nodes whose inorder traversal is
// 0, 1, ..., n-1, arranged as a left spine rooted at n-1:
//
//	  n-1
//	  /
//	...
//	/
//	0
//
// The node count is fixed for the lifetime of the tree.
func NewSplayTree(n int64, opts ...SplayTreeOpt) (SplayTree, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrXSplayBadSize, n)
	}

	tree := &splayTree{
		logger: zap.NewNop(),
		nodes:  make([]splayNode, n),
		root:   n - 1,
	}
	for i := int64(0); i < n; i++ {
		// i-1 is nilIdx for node 0, the spine has no leftmost child
		tree.nodes[i] = splayNode{parent: i + 1, left: i - 1, right: nilIdx}
	}
	tree.nodes[n-1].parent = nilIdx

	for _, o := range opts {
		o(tree)
	}
	return tree, nil
}
