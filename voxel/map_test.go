package voxel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVoxelMapValidate(t *testing.T) {
	m := NewVoxelMap(3, 4, 5)
	require.NoError(t, m.Validate())
	require.Len(t, m.Voxels, 60)

	m.Voxels = m.Voxels[:59]
	require.Error(t, m.Validate())
}

func TestVoxelMapAtSet(t *testing.T) {
	m := NewVoxelMap(4, 4, 4)

	m.Set(1, 2, 3, 7)
	require.Equal(t, uint8(7), m.At(1, 2, 3))
	require.Equal(t, uint8(7), m.Voxels[1+2*4+3*16])
	require.Equal(t, uint8(0), m.At(0, 0, 0))

	t.Run("out of bounds reads are empty", func(t *testing.T) {
		require.Equal(t, uint8(0), m.At(-1, 0, 0))
		require.Equal(t, uint8(0), m.At(4, 0, 0))
	})

	t.Run("out of bounds writes are ignored", func(t *testing.T) {
		m.Set(-1, 0, 0, 9)
		m.Set(0, 4, 0, 9)
		require.Equal(t, 1, m.Count())
	})
}

func TestVoxelMapDiff(t *testing.T) {
	a := NewVoxelMap(4, 4, 4)
	b := NewVoxelMap(4, 4, 4)
	require.Zero(t, a.Diff(b))

	b.Set(1, 1, 1, 3)
	b.Set(2, 2, 2, 4)
	require.Equal(t, 2, a.Diff(b))
}

func TestVoxelMapDump(t *testing.T) {
	m := NewVoxelMap(2, 2, 1)
	m.Set(1, 0, 0, 5)

	var w bytes.Buffer
	m.Dump(&w)
	require.Contains(t, w.String(), "voxel map 2x2x1")
	require.Contains(t, w.String(), "0 5")
}

func TestMaterials(t *testing.T) {
	m := NewVoxelMap(1, 1, 1)

	t.Run("defaults without a material table", func(t *testing.T) {
		require.Equal(t, float32(0), m.Metal(3))
		require.Equal(t, float32(1), m.Rough(3))
		require.Equal(t, float32(0), m.Spec(3))
		require.Equal(t, float32(1), m.IOR(3))
	})

	m.Materials = make([]Material, 256)
	m.Materials[3] = Material{Metal: 0.5, Rough: 0.2, Spec: 0.7, IOR: 1.3}

	require.Equal(t, float32(0.5), m.Metal(3))
	require.Equal(t, float32(0.2), m.Rough(3))
	require.Equal(t, float32(0.7), m.Spec(3))
	require.Equal(t, float32(1.3), m.IOR(3))
}

func TestMatrix4f(t *testing.T) {
	id := Identity()
	require.Equal(t, float32(1), id[0])
	require.Equal(t, float32(1), id[5])
	require.Equal(t, float32(1), id[10])
	require.Equal(t, float32(1), id[15])

	tr := Translation(1, 2, 3)
	require.Equal(t, float32(1), tr[12])
	require.Equal(t, float32(2), tr[13])
	require.Equal(t, float32(3), tr[14])
}

func TestVector3f(t *testing.T) {
	a := NewVector3f(1, 2, 3)
	b := NewVector3f(4, 5, 6)

	require.True(t, Add(a, b).Equal(NewVector3f(5, 7, 9)))
	require.True(t, Sub(b, a).Equal(NewVector3f(3, 3, 3)))
	require.False(t, a.Equal(b))
}
