package tree

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=SplayDirection
type SplayDirection int8

const (
	Left SplayDirection = -1 + iota
	Root
	Right
)

//go:generate stringer -type=SplayCase
type SplayCase uint8

// The grandparent sub-cases carry the direction of their rotations in
// their name. Zig-zig rotates about the grandparent first, zig-zag about
// the parent first.
const (
	ZigLeft SplayCase = iota
	ZigRight
	ZigZigLeft
	ZigZigRight
	ZigZagLeftRight
	ZigZagRightLeft
)

// SplayNilIdx marks an absent link in a snapshot triple.
const SplayNilIdx int64 = -1

// SplayNodeLinks is the read-only (parent, left, right) triple of one node.
type SplayNodeLinks struct {
	Parent int64
	Left   int64
	Right  int64
}

// SplayTreeSnapshot is a detached read-only view of the whole tree,
// consumed by debug printers and validators.
type SplayTreeSnapshot struct {
	Nodes []SplayNodeLinks
	Root  int64
}

// SplayStats carries cumulative counters since construction.
type SplayStats struct {
	Splays    int64
	Steps     int64
	Rotations int64
}

// SplayTree is a fixed-size self-adjusting binary search tree. A node is
// identified by its arena index, which is also its sort key: the inorder
// traversal always yields 0, 1, ..., n-1. The node count is fixed at
// construction, Splay is the only mutating operation afterwards.
//
// A SplayTree is not safe for concurrent use. The caller owns exclusive
// access for the duration of every call.
type SplayTree interface {
	Len() int64
	Root() int64
	Splay(idx int64) error
	Depth(idx int64) (int64, error)
	Foreach(action func(pos int64, idx int64) bool)
	Snapshot() SplayTreeSnapshot
	Stats() SplayStats
}
