package tree

import (
	"fmt"

	"go.uber.org/multierr"
)

// Splay tree structural validation utilities. Each validator works on a
// detached snapshot, so a corrupted tree can be inspected without
// tripping over itself.

// DirectionOf reports whether idx sits below its parent's left or right
// slot, or is the root of the snapshot.
func DirectionOf(snap SplayTreeSnapshot, idx int64) SplayDirection {
	p := snap.Nodes[idx].Parent
	if p == SplayNilIdx {
		return Root
	}
	if snap.Nodes[p].Left == idx {
		return Left
	}
	return Right
}

// LinkSymmetryValidate checks that every child link is mirrored by the
// child's parent link and every parent link by one of the parent's child
// slots.
func LinkSymmetryValidate(tree SplayTree) error {
	snap := tree.Snapshot()
	var err error
	for i, node := range snap.Nodes {
		idx := int64(i)
		if l := node.Left; l != SplayNilIdx && snap.Nodes[l].Parent != idx {
			err = multierr.Append(err, fmt.Errorf("%w: left child %d of %d has parent %d",
				ErrXSplayInvariantBroken, l, idx, snap.Nodes[l].Parent))
		}
		if r := node.Right; r != SplayNilIdx && snap.Nodes[r].Parent != idx {
			err = multierr.Append(err, fmt.Errorf("%w: right child %d of %d has parent %d",
				ErrXSplayInvariantBroken, r, idx, snap.Nodes[r].Parent))
		}
		if p := node.Parent; p != SplayNilIdx &&
			snap.Nodes[p].Left != idx && snap.Nodes[p].Right != idx {
			err = multierr.Append(err, fmt.Errorf("%w: node %d is no child of its parent %d",
				ErrXSplayInvariantBroken, idx, p))
		}
	}
	return err
}

// SingleRootValidate checks that exactly one node has an absent parent
// and that it is the tree's root.
func SingleRootValidate(tree SplayTree) error {
	snap := tree.Snapshot()
	var err error
	found := int64(0)
	for i, node := range snap.Nodes {
		if node.Parent != SplayNilIdx {
			continue
		}
		found++
		if int64(i) != snap.Root {
			err = multierr.Append(err, fmt.Errorf("%w: node %d has no parent but the root is %d",
				ErrXSplayInvariantBroken, i, snap.Root))
		}
	}
	if found != 1 {
		err = multierr.Append(err, fmt.Errorf("%w: %d nodes without a parent",
			ErrXSplayInvariantBroken, found))
	}
	return err
}

// AcyclicValidate checks that every ancestor chain terminates within the
// node count, i.e. no node is its own ancestor.
func AcyclicValidate(tree SplayTree) error {
	snap := tree.Snapshot()
	size := int64(len(snap.Nodes))
	var err error
	for i := range snap.Nodes {
		hops := int64(0)
		for aux := snap.Nodes[i].Parent; aux != SplayNilIdx; aux = snap.Nodes[aux].Parent {
			if hops++; hops >= size {
				err = multierr.Append(err, fmt.Errorf("%w: ancestor chain of %d cycles",
					ErrXSplayInvariantBroken, i))
				break
			}
		}
	}
	return err
}

// InorderValidate checks the BST invariant: the inorder traversal from
// the snapshot root visits exactly 0, 1, ..., n-1. The traversal is
// budgeted so that a corrupted child graph faults instead of spinning.
func InorderValidate(tree SplayTree) error {
	snap := tree.Snapshot()
	size := int64(len(snap.Nodes))
	if size == 0 {
		return nil
	}

	budget := size
	stack := make([]int64, 0, size>>1+1)
	descend := func(from int64) error {
		for aux := from; aux != SplayNilIdx; aux = snap.Nodes[aux].Left {
			if budget--; budget < 0 {
				return fmt.Errorf("%w: inorder traversal visits more than %d nodes",
					ErrXSplayInvariantBroken, size)
			}
			stack = append(stack, aux)
		}
		return nil
	}

	if err := descend(snap.Root); err != nil {
		return err
	}
	want := int64(0)
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if aux != want {
			return fmt.Errorf("%w: inorder position %d visits node %d",
				ErrXSplayInvariantBroken, want, aux)
		}
		want++
		if err := descend(snap.Nodes[aux].Right); err != nil {
			return err
		}
	}
	if want != size {
		return fmt.Errorf("%w: inorder traversal visits %d of %d nodes",
			ErrXSplayInvariantBroken, want, size)
	}
	return nil
}

// InvariantValidate runs every structural validator and combines the
// violations.
func InvariantValidate(tree SplayTree) error {
	return multierr.Combine(
		SingleRootValidate(tree),
		LinkSymmetryValidate(tree),
		AcyclicValidate(tree),
		InorderValidate(tree),
	)
}
