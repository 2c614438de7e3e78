// Package gpu packs sparse voxel trees into flat, GPU-buffer-ready layouts.
//
// An Allocator concatenates the arenas of a collection of trees into three
// shared buffers: one descriptor per tree, one node pool, one leaf data
// blob. Descriptor offsets are running totals over the trees in pack order.
// Identical subtrees across input trees are stored redundantly; with a small
// number of distinct objects the simplicity is worth more than the
// deduplication.
package gpu

import (
	"encoding/binary"
	"math"

	"github.com/voxelry/voxd/svo"
	"github.com/voxelry/voxd/voxel"
)

// PackedTreeSize is the byte size of one packed tree descriptor: packed
// root (12) + node pool and leaf data offsets (8) + padding to a 16 byte
// boundary (12) + bounds as two 16 byte aligned vec4s (32) + transform (64).
const PackedTreeSize = 128

// PackedNodeSize is the byte size of one packed node.
const PackedNodeSize = 12

// A PackedTree is the per tree descriptor of the shared buffers. The
// offsets are absolute indices into the shared node pool and leaf data
// buffers.
type PackedTree struct {
	Root        PackedNode
	NodePoolPtr uint32
	LeafDataPtr uint32
	AABBMin     voxel.Vector3f
	AABBMax     voxel.Vector3f
	Transform   voxel.Matrix4f
}

// An Allocator packs trees into the flat buffer representation. Allocate
// replaces any previous packing; the allocator is not safe for concurrent
// use, offsets are a strict running total.
type Allocator struct {
	trees    []PackedTree
	nodePool []PackedNode
	leafData []uint8
}

// Allocate packs the given trees in input order.
func (a *Allocator) Allocate(trees []*svo.Tree) {
	a.trees = a.trees[:0]
	a.nodePool = a.nodePool[:0]
	a.leafData = a.leafData[:0]

	var nodeOffset, leafOffset uint32

	for _, t := range trees {
		a.trees = append(a.trees, PackedTree{
			Root:        PackNode(t.Root()),
			NodePoolPtr: nodeOffset,
			LeafDataPtr: leafOffset,
			AABBMin:     t.AABBMin(),
			AABBMax:     t.AABBMax(),
			Transform:   t.Transform(),
		})

		for _, n := range t.NodePool() {
			a.nodePool = append(a.nodePool, PackNode(n))
		}
		a.leafData = append(a.leafData, t.LeafData()...)

		nodeOffset += uint32(len(t.NodePool()))
		leafOffset += uint32(len(t.LeafData()))
	}

	instrumentPack(len(a.trees), len(a.nodePool)*PackedNodeSize, len(a.leafData))
}

// Trees returns the packed descriptors in pack order.
func (a *Allocator) Trees() []PackedTree {
	return a.trees
}

// NodePool returns the shared packed node buffer.
func (a *Allocator) NodePool() []PackedNode {
	return a.nodePool
}

// LeafData returns the shared leaf data buffer.
func (a *Allocator) LeafData() []uint8 {
	return a.leafData
}

// Validate re-derives the packed encoding of the given tree and compares it
// against the shared buffers at the offsets recorded in descriptor index.
// It reports mismatches, it never repairs them.
func (a *Allocator) Validate(t *svo.Tree, index int) bool {
	if index < 0 || index >= len(a.trees) {
		return false
	}
	d := a.trees[index]

	if !d.AABBMin.Equal(t.AABBMin()) ||
		!d.AABBMax.Equal(t.AABBMax()) ||
		d.Transform != t.Transform() {
		return false
	}
	if d.Root != PackNode(t.Root()) {
		return false
	}

	pool := t.NodePool()
	if int(d.NodePoolPtr)+len(pool) > len(a.nodePool) {
		return false
	}
	for i, n := range pool {
		if a.nodePool[int(d.NodePoolPtr)+i] != PackNode(n) {
			return false
		}
	}

	leaves := t.LeafData()
	if int(d.LeafDataPtr)+len(leaves) > len(a.leafData) {
		return false
	}
	for i, v := range leaves {
		if a.leafData[int(d.LeafDataPtr)+i] != v {
			return false
		}
	}

	return true
}

// TreeBytes serializes the descriptors with the exact byte layout the
// shader declares for its tree buffer (see PackedTreeSize). All words are
// little-endian.
func (a *Allocator) TreeBytes() []byte {
	b := make([]byte, 0, len(a.trees)*PackedTreeSize)

	for _, d := range a.trees {
		b = d.Root.append(b)
		b = binary.LittleEndian.AppendUint32(b, d.NodePoolPtr)
		b = binary.LittleEndian.AppendUint32(b, d.LeafDataPtr)

		// 12 bytes of padding align the bounds to a 16 byte boundary.
		b = append(b, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)

		b = appendVec4(b, d.AABBMin)
		b = appendVec4(b, d.AABBMax)

		for _, f := range d.Transform {
			b = binary.LittleEndian.AppendUint32(b, floatBits(f))
		}
	}
	return b
}

// NodePoolBytes serializes the shared node pool buffer.
func (a *Allocator) NodePoolBytes() []byte {
	b := make([]byte, 0, len(a.nodePool)*PackedNodeSize)
	for _, n := range a.nodePool {
		b = n.append(b)
	}
	return b
}

// LeafDataBytes returns the shared leaf data buffer bytes.
func (a *Allocator) LeafDataBytes() []byte {
	return a.leafData
}

func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}

// appendVec4 writes a vec3 as a 16 byte aligned vec4 with a zero w.
func appendVec4(b []byte, v voxel.Vector3f) []byte {
	b = binary.LittleEndian.AppendUint32(b, floatBits(v.X))
	b = binary.LittleEndian.AppendUint32(b, floatBits(v.Y))
	b = binary.LittleEndian.AppendUint32(b, floatBits(v.Z))
	return binary.LittleEndian.AppendUint32(b, 0)
}
