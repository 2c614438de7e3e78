// Package svo implements a sparse voxel tree: a recursive 4x4x4-branching
// spatial index over a dense voxel grid. Each level consumes two bits of
// scale, so a tree rooted at scale 6 spans a 64^3 cube with two internal
// levels above the 4x4x4 leaf tiles.
//
// Children are left-packed: a node stores only its present children, in
// ascending bit-index order, in an arena owned by the tree. A child is
// addressed as ChildPtr + popcount(ChildMask & ((1<<i)-1)), so lookup cost
// is O(depth) without 64-wide dense arrays at every node.
package svo

import (
	"fmt"
	"math/bits"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelry/voxd/voxel"
)

const (
	// RootScale is the scale of the root node. The tree spans
	// 2^RootScale = 64 voxels per axis.
	RootScale = 6

	// LeafScale is the scale at which a node becomes a leaf tile storing
	// raw material bytes for a 4x4x4 region.
	LeafScale = 2

	// Span is the edge length of the cube covered by a tree.
	Span = 1 << RootScale
)

// A Node indexes 64 children on a 4x4x4 local grid. Bit i of ChildMask
// (i = lx + ly*4 + lz*16) is set when the corresponding child is present.
// ChildPtr is the offset of the first present child in the owning tree's
// node pool, or in its leaf data when Leaf is set. ChildPtr must fit in 31
// bits; the packed GPU encoding reserves the top bit for the leaf flag.
type Node struct {
	Leaf      bool
	ChildPtr  uint32
	ChildMask uint64
}

// A Tree is a sparse voxel tree built once from a voxel map and immutable
// afterwards. Nodes reference children only by offsets into the two owned
// arenas, never by pointer: arena addresses are not stable while the tree is
// built bottom-up, and the same offsets serialize verbatim into GPU buffers.
type Tree struct {
	root     Node
	nodePool []Node
	leafData []uint8

	aabbMin   voxel.Vector3f
	aabbMax   voxel.Vector3f
	transform voxel.Matrix4f
}

// New builds a tree from the given voxel map. The map dimensions must not
// exceed the tree span and the voxel buffer must match them.
func New(m *voxel.VoxelMap) (*Tree, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.New("invalid voxel map").Wrap(err)
	}
	if m.SizeX > Span || m.SizeY > Span || m.SizeZ > Span {
		return nil, errors.New("voxel map exceeds tree span").
			WithTag("size_x", m.SizeX).
			WithTag("size_y", m.SizeY).
			WithTag("size_z", m.SizeZ).
			WithTag("span", Span)
	}

	t := &Tree{
		aabbMin:   voxel.NewVector3f(0, 0, 0),
		aabbMax:   voxel.NewVector3f(float32(m.SizeX), float32(m.SizeY), float32(m.SizeZ)),
		transform: voxel.Identity(),
	}
	t.root = t.generate(m, RootScale, 0, 0, 0)
	return t, nil
}

// generate subdivides the region anchored at (px,py,pz) with edge length
// 2^scale into a 4x4x4 grid of children. At LeafScale the region is a leaf
// tile and the non empty material bytes are left-packed into leafData;
// above it, children with a non zero mask are left-packed into nodePool.
func (t *Tree) generate(m *voxel.VoxelMap, scale int32, px, py, pz int32) Node {
	var node Node

	if scale == LeafScale {
		if (px|py|pz)%4 != 0 {
			panic(fmt.Sprintf("svo: leaf tile origin (%d, %d, %d) is not 4-aligned", px, py, pz))
		}

		var tile [64]uint8
		for i := int32(0); i < 64; i++ {
			x := px + (i & 3)
			y := py + ((i >> 2) & 3)
			z := pz + ((i >> 4) & 3)
			tile[i] = m.At(x, y, z)
		}

		node.Leaf = true
		node.ChildMask = packBits64(&tile)

		leftPack(&tile, node.ChildMask)
		node.ChildPtr = uint32(len(t.leafData))
		t.leafData = append(t.leafData, tile[:bits.OnesCount64(node.ChildMask)]...)
		return node
	}

	scale -= 2

	var children []Node
	for i := int32(0); i < 64; i++ {
		cx := px + (i&3)<<scale
		cy := py + ((i>>2)&3)<<scale
		cz := pz + ((i>>4)&3)<<scale

		child := t.generate(m, scale, cx, cy, cz)
		if child.ChildMask != 0 {
			node.ChildMask |= 1 << i
			children = append(children, child)
		}
	}

	node.ChildPtr = uint32(len(t.nodePool))
	t.nodePool = append(t.nodePool, children...)
	return node
}

// packBits64 returns a bitmask with bit i set when tile[i] is non zero.
func packBits64(tile *[64]uint8) uint64 {
	var mask uint64
	for i, v := range tile {
		if v != 0 {
			mask |= 1 << i
		}
	}
	return mask
}

// leftPack compacts the tile in place, keeping only entries whose mask bit
// is set, in ascending index order.
func leftPack(tile *[64]uint8, mask uint64) {
	w := 0
	for i := 0; i < 64; i++ {
		if mask&(1<<i) != 0 {
			tile[w] = tile[i]
			w++
		}
	}
}

// At returns the material index stored at the given coordinate, or 0 when
// the cell is empty. Coordinates outside [0, Span) per axis return 0: the
// descent relies on shift arithmetic that is only defined inside the span,
// so the bounds are checked here rather than left to the caller.
func (t *Tree) At(x, y, z int32) uint8 {
	if uint32(x) >= Span || uint32(y) >= Span || uint32(z) >= Span {
		return 0
	}

	node := t.root
	var px, py, pz int32
	scale := int32(RootScale)

	for !node.Leaf {
		shift := scale - 2
		i := (x-px)>>shift + ((y-py)>>shift)*4 + ((z-pz)>>shift)*16
		if node.ChildMask&(1<<i) == 0 {
			return 0
		}

		node = t.nodePool[node.ChildPtr+rank(node.ChildMask, i)]
		px += (i & 3) << shift
		py += ((i >> 2) & 3) << shift
		pz += ((i >> 4) & 3) << shift
		scale = shift
	}

	i := (x - px) + (y-py)*4 + (z-pz)*16
	if node.ChildMask&(1<<i) == 0 {
		return 0
	}
	return t.leafData[node.ChildPtr+rank(node.ChildMask, i)]
}

// rank returns the number of set bits in mask below bit i, which is the
// arena offset of child i relative to ChildPtr.
func rank(mask uint64, i int32) uint32 {
	return uint32(bits.OnesCount64(mask & (1<<i - 1)))
}

// ToVoxelMap reconstructs a dense grid covering the full tree span. Cells
// without a stored voxel are zero.
func (t *Tree) ToVoxelMap() *voxel.VoxelMap {
	m := voxel.NewVoxelMap(Span, Span, Span)
	t.fill(m, t.root, RootScale, 0, 0, 0)
	return m
}

func (t *Tree) fill(m *voxel.VoxelMap, node Node, scale, px, py, pz int32) {
	if node.Leaf {
		for i := int32(0); i < 64; i++ {
			if node.ChildMask&(1<<i) != 0 {
				x := px + (i & 3)
				y := py + ((i >> 2) & 3)
				z := pz + ((i >> 4) & 3)
				m.Set(x, y, z, t.leafData[node.ChildPtr+rank(node.ChildMask, i)])
			}
		}
		return
	}

	scale -= 2
	for i := int32(0); i < 64; i++ {
		if node.ChildMask&(1<<i) != 0 {
			child := t.nodePool[node.ChildPtr+rank(node.ChildMask, i)]
			t.fill(m, child,
				scale,
				px+(i&3)<<scale,
				py+((i>>2)&3)<<scale,
				pz+((i>>4)&3)<<scale,
			)
		}
	}
}

// TotalVoxels returns the number of stored non empty voxels. It equals the
// leaf data arena size, so no traversal is needed.
func (t *Tree) TotalVoxels() int {
	return len(t.leafData)
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.root
}

// NodePool returns a read-only view of the internal node arena. Callers
// must not mutate it.
func (t *Tree) NodePool() []Node {
	return t.nodePool
}

// LeafData returns a read-only view of the leaf data arena. Callers must
// not mutate it.
func (t *Tree) LeafData() []uint8 {
	return t.leafData
}

// AABBMin returns the lower corner of the tree bounds.
func (t *Tree) AABBMin() voxel.Vector3f {
	return t.aabbMin
}

// AABBMax returns the upper corner of the tree bounds.
func (t *Tree) AABBMax() voxel.Vector3f {
	return t.aabbMax
}

// Transform returns the placement transform.
func (t *Tree) Transform() voxel.Matrix4f {
	return t.transform
}

// SetTransform places the tree in world space. Packing snapshots the
// transform, so it must be set before the tree is packed.
func (t *Tree) SetTransform(m voxel.Matrix4f) {
	t.transform = m
}
