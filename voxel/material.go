package voxel

// RGBA is a palette color entry.
type RGBA struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// Material carries the extended material properties attached to a palette
// index. The values are opaque to the tree and the packer; they exist so a
// renderer can look them up by the material indices stored in leaf data.
type Material struct {
	Metal float32
	Rough float32
	Spec  float32
	IOR   float32
}

// Metal returns the metalness for the given palette index, 0 when no
// material table is attached.
func (m *VoxelMap) Metal(index uint8) float32 {
	if int(index) >= len(m.Materials) {
		return 0
	}
	return m.Materials[index].Metal
}

// Rough returns the roughness for the given palette index, 1 when no
// material table is attached.
func (m *VoxelMap) Rough(index uint8) float32 {
	if int(index) >= len(m.Materials) {
		return 1
	}
	return m.Materials[index].Rough
}

// Spec returns the specularity for the given palette index.
func (m *VoxelMap) Spec(index uint8) float32 {
	if int(index) >= len(m.Materials) {
		return 0
	}
	return m.Materials[index].Spec
}

// IOR returns the index of refraction for the given palette index.
func (m *VoxelMap) IOR(index uint8) float32 {
	if int(index) >= len(m.Materials) {
		return 1
	}
	return m.Materials[index].IOR
}
