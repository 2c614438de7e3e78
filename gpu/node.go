package gpu

import (
	"encoding/binary"

	"github.com/voxelry/voxd/svo"
)

// childPtrMask keeps the low 31 bits of ChildPtr; the top bit of word 0 is
// the leaf flag.
const childPtrMask = 0x7FFFFFFF

// PackedNode is the 12 byte wire encoding of a tree node, consumed verbatim
// by the GPU side:
//
//	word 0 = (leaf << 31) | (childPtr & 0x7FFFFFFF)
//	word 1 = childMask & 0xFFFFFFFF
//	word 2 = childMask >> 32
//
// The layout is produced with explicit shifts and masks so it is identical
// on every platform regardless of in-memory struct layout.
type PackedNode [3]uint32

// PackNode encodes a node into its packed GPU form.
func PackNode(n svo.Node) PackedNode {
	var leaf uint32
	if n.Leaf {
		leaf = 1
	}
	return PackedNode{
		leaf<<31 | n.ChildPtr&childPtrMask,
		uint32(n.ChildMask),
		uint32(n.ChildMask >> 32),
	}
}

// Leaf reports whether the encoded node is a leaf tile.
func (n PackedNode) Leaf() bool {
	return n[0]>>31 == 1
}

// ChildPtr returns the encoded arena offset.
func (n PackedNode) ChildPtr() uint32 {
	return n[0] & childPtrMask
}

// ChildMask returns the encoded 64 bit presence mask.
func (n PackedNode) ChildMask() uint64 {
	return uint64(n[1]) | uint64(n[2])<<32
}

// append writes the three words little-endian.
func (n PackedNode) append(b []byte) []byte {
	for _, w := range n {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	return b
}
