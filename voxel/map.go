package voxel

import (
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// A VoxelMap is a dense voxel grid where each cell holds an 8 bit material
// index. Index 0 is reserved and means the cell is empty. Cells are laid out
// in x + y*SizeX + z*SizeX*SizeY order.
type VoxelMap struct {
	Voxels []uint8
	SizeX  uint32
	SizeY  uint32
	SizeZ  uint32

	// Material and palette passthrough for the consumer. The core never
	// interprets them.
	Materials []Material
	Palette   []RGBA
}

// NewVoxelMap returns an empty voxel map with the given dimensions.
func NewVoxelMap(sizeX, sizeY, sizeZ uint32) *VoxelMap {
	return &VoxelMap{
		Voxels: make([]uint8, sizeX*sizeY*sizeZ),
		SizeX:  sizeX,
		SizeY:  sizeY,
		SizeZ:  sizeZ,
	}
}

// Validate checks that the voxel buffer length matches the declared
// dimensions.
func (m *VoxelMap) Validate() error {
	want := int(m.SizeX) * int(m.SizeY) * int(m.SizeZ)
	if len(m.Voxels) != want {
		return errors.New("voxel buffer length does not match dimensions").
			WithTag("size_x", m.SizeX).
			WithTag("size_y", m.SizeY).
			WithTag("size_z", m.SizeZ).
			WithTag("len", len(m.Voxels)).
			WithTag("want", want)
	}
	return nil
}

// Index returns the flat buffer index for the given coordinate. The
// coordinate must be in bounds.
func (m *VoxelMap) Index(x, y, z uint32) int {
	return int(x) + int(y)*int(m.SizeX) + int(z)*int(m.SizeX)*int(m.SizeY)
}

// At returns the material index at the given coordinate, or 0 when the
// coordinate is outside the grid.
func (m *VoxelMap) At(x, y, z int32) uint8 {
	if uint32(x) >= m.SizeX || uint32(y) >= m.SizeY || uint32(z) >= m.SizeZ {
		return 0
	}
	return m.Voxels[m.Index(uint32(x), uint32(y), uint32(z))]
}

// Set writes the material index at the given coordinate. Out of bounds
// coordinates are ignored.
func (m *VoxelMap) Set(x, y, z int32, v uint8) {
	if uint32(x) >= m.SizeX || uint32(y) >= m.SizeY || uint32(z) >= m.SizeZ {
		return
	}
	m.Voxels[m.Index(uint32(x), uint32(y), uint32(z))] = v
}

// Count returns the number of non empty cells.
func (m *VoxelMap) Count() int {
	n := 0
	for _, v := range m.Voxels {
		if v != 0 {
			n++
		}
	}
	return n
}

// Diff compares two maps cell by cell over this map's dimensions and returns
// the number of mismatching cells.
func (m *VoxelMap) Diff(other *VoxelMap) int {
	mismatches := 0
	for z := int32(0); z < int32(m.SizeZ); z++ {
		for y := int32(0); y < int32(m.SizeY); y++ {
			for x := int32(0); x < int32(m.SizeX); x++ {
				if m.At(x, y, z) != other.At(x, y, z) {
					mismatches++
				}
			}
		}
	}
	return mismatches
}

// Dump writes a plain text slice-by-slice view of the grid, one z slice per
// block. Diagnostic only.
func (m *VoxelMap) Dump(w io.Writer) {
	fmt.Fprintf(w, "voxel map %dx%dx%d\n", m.SizeX, m.SizeY, m.SizeZ)
	for z := uint32(0); z < m.SizeZ; z++ {
		fmt.Fprintf(w, "z = %d:\n", z)
		for y := uint32(0); y < m.SizeY; y++ {
			for x := uint32(0); x < m.SizeX; x++ {
				fmt.Fprintf(w, "%d ", m.Voxels[m.Index(x, y, z)])
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
}
