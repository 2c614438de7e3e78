package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voxelry/voxd/svo"
	"github.com/voxelry/voxd/voxel"
)

func TestPackNode(t *testing.T) {
	n := svo.Node{
		Leaf:      true,
		ChildPtr:  5,
		ChildMask: 0xFFFF0000AAAA5555,
	}

	p := PackNode(n)
	require.Equal(t, uint32(1)<<31|5, p[0])
	require.Equal(t, uint32(0xAAAA5555), p[1])
	require.Equal(t, uint32(0xFFFF0000), p[2])

	require.True(t, p.Leaf())
	require.Equal(t, uint32(5), p.ChildPtr())
	require.Equal(t, uint64(0xFFFF0000AAAA5555), p.ChildMask())
}

func TestPackNodeInternal(t *testing.T) {
	n := svo.Node{
		ChildPtr:  0x7FFFFFFF,
		ChildMask: 1,
	}

	p := PackNode(n)
	require.Equal(t, uint32(0x7FFFFFFF), p[0])
	require.False(t, p.Leaf())
	require.Equal(t, uint32(0x7FFFFFFF), p.ChildPtr())
	require.Equal(t, uint64(1), p.ChildMask())
}

func buildTree(t *testing.T, sizeX, sizeY, sizeZ uint32, step int32) *svo.Tree {
	t.Helper()

	m := voxel.NewVoxelMap(sizeX, sizeY, sizeZ)
	for z := int32(0); z < int32(sizeZ); z += step {
		for y := int32(0); y < int32(sizeY); y += step {
			for x := int32(0); x < int32(sizeX); x += step {
				m.Set(x, y, z, uint8(1+(x^y^z)%254))
			}
		}
	}

	tree, err := svo.New(m)
	require.NoError(t, err)
	return tree
}

func TestAllocatorOffsets(t *testing.T) {
	trees := []*svo.Tree{
		buildTree(t, 16, 16, 16, 3),
		buildTree(t, 64, 32, 8, 2),
		buildTree(t, 4, 4, 4, 1),
	}

	var a Allocator
	a.Allocate(trees)

	descriptors := a.Trees()
	require.Len(t, descriptors, 3)

	var nodeOffset, leafOffset uint32
	for i, d := range descriptors {
		require.Equal(t, nodeOffset, d.NodePoolPtr)
		require.Equal(t, leafOffset, d.LeafDataPtr)
		require.Equal(t, PackNode(trees[i].Root()), d.Root)

		nodeOffset += uint32(len(trees[i].NodePool()))
		leafOffset += uint32(len(trees[i].LeafData()))
	}

	require.Equal(t, int(nodeOffset), len(a.NodePool()))
	require.Equal(t, int(leafOffset), len(a.LeafData()))

	for i, tree := range trees {
		require.True(t, a.Validate(tree, i))
	}
}

func TestAllocatorValidate(t *testing.T) {
	tree := buildTree(t, 8, 8, 8, 2)

	var a Allocator
	a.Allocate([]*svo.Tree{tree})

	t.Run("out of range index", func(t *testing.T) {
		require.False(t, a.Validate(tree, 1))
	})

	t.Run("negative index", func(t *testing.T) {
		require.False(t, a.Validate(tree, -1))
	})

	t.Run("corrupted leaf data", func(t *testing.T) {
		a.leafData[0] ^= 0xFF
		require.False(t, a.Validate(tree, 0))
		a.leafData[0] ^= 0xFF
		require.True(t, a.Validate(tree, 0))
	})

	t.Run("corrupted node pool", func(t *testing.T) {
		a.nodePool[0][1] ^= 1
		require.False(t, a.Validate(tree, 0))
		a.nodePool[0][1] ^= 1
		require.True(t, a.Validate(tree, 0))
	})

	t.Run("transform mismatch", func(t *testing.T) {
		tree.SetTransform(voxel.Translation(1, 0, 0))
		require.False(t, a.Validate(tree, 0))

		a.Allocate([]*svo.Tree{tree})
		require.True(t, a.Validate(tree, 0))
	})
}

func TestAllocatorRepack(t *testing.T) {
	tree := buildTree(t, 8, 8, 8, 2)

	var a Allocator
	a.Allocate([]*svo.Tree{tree})
	nodes := len(a.NodePool())
	leaves := len(a.LeafData())

	// Packing again replaces the buffers instead of appending to them.
	a.Allocate([]*svo.Tree{tree})
	require.Len(t, a.Trees(), 1)
	require.Len(t, a.NodePool(), nodes)
	require.Len(t, a.LeafData(), leaves)
}

func TestAllocatorTreeBytes(t *testing.T) {
	tree := buildTree(t, 4, 8, 12, 1)
	tree.SetTransform(voxel.Translation(5, 6, 7))

	var a Allocator
	a.Allocate([]*svo.Tree{tree})

	b := a.TreeBytes()
	require.Len(t, b, PackedTreeSize)

	root := PackNode(tree.Root())
	require.Equal(t, root[0], binary.LittleEndian.Uint32(b[0:]))
	require.Equal(t, root[1], binary.LittleEndian.Uint32(b[4:]))
	require.Equal(t, root[2], binary.LittleEndian.Uint32(b[8:]))

	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(b[12:])) // NodePoolPtr
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(b[16:])) // LeafDataPtr

	// Bounds start at byte 32, after the 12 byte alignment padding.
	require.Equal(t, float32(0), math.Float32frombits(binary.LittleEndian.Uint32(b[32:])))
	require.Equal(t, float32(4), math.Float32frombits(binary.LittleEndian.Uint32(b[48:])))
	require.Equal(t, float32(8), math.Float32frombits(binary.LittleEndian.Uint32(b[52:])))
	require.Equal(t, float32(12), math.Float32frombits(binary.LittleEndian.Uint32(b[56:])))

	// Transform occupies the last 64 bytes; the translation lives in
	// column 3.
	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[64:])))
	require.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(b[64+48:])))
	require.Equal(t, float32(6), math.Float32frombits(binary.LittleEndian.Uint32(b[64+52:])))
	require.Equal(t, float32(7), math.Float32frombits(binary.LittleEndian.Uint32(b[64+56:])))
}

func TestAllocatorNodePoolBytes(t *testing.T) {
	tree := buildTree(t, 4, 4, 4, 1)

	var a Allocator
	a.Allocate([]*svo.Tree{tree})

	b := a.NodePoolBytes()
	require.Len(t, b, len(a.NodePool())*PackedNodeSize)

	first := a.NodePool()[0]
	require.Equal(t, first[0], binary.LittleEndian.Uint32(b[0:]))
	require.Equal(t, first[1], binary.LittleEndian.Uint32(b[4:]))
	require.Equal(t, first[2], binary.LittleEndian.Uint32(b[8:]))
}
