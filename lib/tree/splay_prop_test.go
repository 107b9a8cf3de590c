package tree

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSplayTreeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParametersWithSeed(1593228262585360000)
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("invariants hold under random splay sequences", prop.ForAll(
		func(n int64, seq []int64) bool {
			st, err := NewSplayTree(n)
			if err != nil {
				return false
			}
			for _, raw := range seq {
				idx := raw % n
				if err = st.Splay(idx); err != nil {
					return false
				}
				if st.Root() != idx {
					return false
				}
				if err = InvariantValidate(st); err != nil {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 64),
		gen.SliceOf(gen.Int64Range(0, 1<<30)),
	))

	properties.Property("inorder stays 0..n-1 after every splay", prop.ForAll(
		func(n int64, seq []int64) bool {
			st, err := NewSplayTree(n)
			if err != nil {
				return false
			}
			for _, raw := range seq {
				if err = st.Splay(raw % n); err != nil {
					return false
				}
				sorted := true
				count := int64(0)
				st.Foreach(func(pos, idx int64) bool {
					sorted = sorted && pos == idx
					count++
					return sorted
				})
				if !sorted || count != n {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 64),
		gen.SliceOf(gen.Int64Range(0, 1<<30)),
	))

	properties.Property("each splay performs depth rotations in ceil(depth/2) steps", prop.ForAll(
		func(n int64, seq []int64) bool {
			st, err := NewSplayTree(n)
			if err != nil {
				return false
			}
			for _, raw := range seq {
				idx := raw % n
				depth, err := st.Depth(idx)
				if err != nil {
					return false
				}
				before := st.Stats()
				if err = st.Splay(idx); err != nil {
					return false
				}
				after := st.Stats()
				if after.Rotations-before.Rotations != depth {
					return false
				}
				if after.Steps-before.Steps != (depth+1)/2 {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 64),
		gen.SliceOf(gen.Int64Range(0, 1<<30)),
	))

	properties.Property("splaying the root is structurally a no-op", prop.ForAll(
		func(n int64, raw int64) bool {
			st, err := NewSplayTree(n)
			if err != nil {
				return false
			}
			idx := raw % n
			if err = st.Splay(idx); err != nil {
				return false
			}
			before := st.Snapshot()
			stats := st.Stats()
			if err = st.Splay(idx); err != nil {
				return false
			}
			after := st.Snapshot()
			if after.Root != before.Root || st.Stats().Rotations != stats.Rotations {
				return false
			}
			for i := range before.Nodes {
				if before.Nodes[i] != after.Nodes[i] {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 64),
		gen.Int64Range(0, 1<<30),
	))

	properties.TestingRun(t)
}
