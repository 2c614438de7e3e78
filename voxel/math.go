package voxel

// Vector3f is a 3 component float vector.
type Vector3f struct {
	X float32
	Y float32
	Z float32
}

func NewVector3f(x, y, z float32) Vector3f {
	return Vector3f{x, y, z}
}

func (v Vector3f) Equal(other Vector3f) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

func Add(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Matrix4f is a 4x4 float matrix in column-major order, matching the
// convention of the consuming shader. It is treated as an opaque placement
// transform everywhere in this repository.
type Matrix4f [16]float32

// Identity returns the identity matrix.
func Identity() Matrix4f {
	return Matrix4f{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a matrix placing an object at the given offset.
func Translation(x, y, z float32) Matrix4f {
	m := Identity()
	m[12] = x
	m[13] = y
	m[14] = z
	return m
}
