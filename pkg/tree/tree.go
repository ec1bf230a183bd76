// Package tree holds the pure shape math of the hash tree: how deep a
// tree a given file size needs, how many bytes a subtree at a given
// depth covers, and where a block sits within its parent.
package tree

import (
	"fmt"
	"math"

	"github.com/caskfs/cask/pkg/chk"
)

// DepthForSize returns the minimal tree depth (>= 1) such that the
// span at depth-1 covers size bytes. For sizes so large that the span
// arithmetic would overflow uint64, depth growth is capped and the
// depth reached so far is returned: a degraded but well-defined answer.
func DepthForSize(size uint64) int {
	depth := 1
	span := uint64(chk.LeafSize)
	for span < size {
		depth++
		if span > math.MaxUint64/chk.FanOut {
			break
		}
		span *= chk.FanOut
	}
	return depth
}

// SpanAtDepth returns the maximal byte span a subtree rooted at the
// given depth can cover: LeafSize * FanOut^depth, saturating at the
// uint64 maximum.
func SpanAtDepth(depth int) uint64 {
	span := uint64(chk.LeafSize)
	for i := 0; i < depth; i++ {
		if span > math.MaxUint64/chk.FanOut {
			return math.MaxUint64
		}
		span *= chk.FanOut
	}
	return span
}

// ChildSlot returns the position (0..FanOut-1) of a block within its
// parent's child list. For leaves (depth 0) offset is the block's start
// offset; for internal blocks it is the end offset, the offset just
// past the last byte the block covers, since internal blocks are
// identified by where they close.
func ChildSlot(depth int, offset uint64) int {
	if depth > 0 {
		offset--
	}
	return int(offset / SpanAtDepth(depth) % chk.FanOut)
}

// ChildCount returns how many children an internal block at the given
// depth holds when it is closed at the given payload offset: the full
// fan-out if offset lands exactly on a span boundary, otherwise the
// number of child spans needed to cover the remainder. Calling this
// with depth 0 or offset 0 is a programming error.
func ChildCount(depth int, offset uint64) int {
	if depth <= 0 {
		panic(fmt.Sprintf("tree: ChildCount called with depth %d", depth))
	}
	if offset == 0 {
		panic("tree: ChildCount called with offset 0")
	}
	mod := offset % SpanAtDepth(depth)
	if mod == 0 {
		return chk.FanOut
	}
	childSpan := SpanAtDepth(depth - 1)
	n := int(mod / childSpan)
	if mod%childSpan != 0 {
		n++
	}
	return n
}
