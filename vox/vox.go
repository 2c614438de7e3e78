// Package vox reads MagicaVoxel .vox files into dense voxel maps.
//
// Only the chunks the packing pipeline needs are interpreted: SIZE and XYZI
// for the first model, RGBA for the palette and MATL for extended material
// properties. Everything else is skipped. The format is the RIFF-style
// layout documented at
// https://github.com/ephtracy/voxel-model/blob/master/MagicaVoxel-file-format-vox.txt
package vox

import (
	"encoding/binary"
	"io"
	"os"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelry/voxd/voxel"
)

const headerMagic = "VOX "

// Load reads a .vox file from disk.
func Load(path string) (*voxel.VoxelMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading vox file failed").
			WithTag("path", path).
			Wrap(err)
	}

	m, err := Decode(b)
	if err != nil {
		return nil, errors.New("parsing vox file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return m, nil
}

// Decode parses .vox file contents. When the file holds several models,
// the first one wins.
func Decode(b []byte) (*voxel.VoxelMap, error) {
	r := &reader{data: b}

	magic := r.bytes(4)
	if string(magic) != headerMagic {
		return nil, errors.New("not a vox file")
	}
	r.uint32() // version

	id, contentEnd, childrenEnd := r.chunkHeader()
	if id != "MAIN" {
		return nil, errors.New("vox file has no MAIN chunk").
			WithTag("chunk", id)
	}
	// The children start after MAIN's own content, which is normally
	// empty but does not have to be.
	r.seek(contentEnd)

	var m *voxel.VoxelMap
	var sizeX, sizeY, sizeZ uint32
	haveModel := false

	for r.pos < childrenEnd && r.err == nil {
		id, _, end := r.chunkHeader()

		switch id {
		case "SIZE":
			if !haveModel {
				sizeX = r.uint32()
				sizeY = r.uint32()
				sizeZ = r.uint32()
			}

		case "XYZI":
			if !haveModel {
				m = voxel.NewVoxelMap(sizeX, sizeY, sizeZ)
				n := r.uint32()
				for i := uint32(0); i < n && r.err == nil; i++ {
					v := r.bytes(4)
					if v != nil {
						m.Set(int32(v[0]), int32(v[1]), int32(v[2]), v[3])
					}
				}
				haveModel = true
			}

		case "RGBA":
			if m == nil {
				break
			}
			// Color i in the chunk is palette index i+1; index 0 stays
			// empty.
			m.Palette = make([]voxel.RGBA, 256)
			for i := 0; i < 255 && r.err == nil; i++ {
				c := r.bytes(4)
				if c != nil {
					m.Palette[i+1] = voxel.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
				}
			}

		case "MATL":
			if m == nil {
				break
			}
			if m.Materials == nil {
				m.Materials = make([]voxel.Material, 256)
			}
			r.material(m.Materials)
		}

		r.seek(end)
	}

	if r.err != nil {
		return nil, r.err
	}
	if !haveModel {
		return nil, errors.New("vox file has no model")
	}
	return m, nil
}

type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = errors.New("truncated vox file").
			WithTag("offset", r.pos).
			Wrap(io.ErrUnexpectedEOF)
	}
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || r.pos+n > len(r.data) {
		r.fail()
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) string() string {
	n := int(r.uint32())
	b := r.bytes(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) seek(pos int) {
	if r.err != nil {
		return
	}
	if pos > len(r.data) {
		r.fail()
		return
	}
	r.pos = pos
}

// chunkHeader reads a chunk id and returns the id plus the end offsets of
// the chunk content and of the chunk including its children.
func (r *reader) chunkHeader() (id string, contentEnd, end int) {
	b := r.bytes(4)
	if b == nil {
		return "", r.pos, r.pos
	}
	contentSize := int(r.uint32())
	childrenSize := int(r.uint32())
	return string(b), r.pos + contentSize, r.pos + contentSize + childrenSize
}

// material parses a MATL chunk: a material id followed by a string
// dictionary. Only the properties the voxel map carries are kept.
func (r *reader) material(materials []voxel.Material) {
	id := r.uint32()
	n := r.uint32()

	var mat voxel.Material
	mat.Rough = 1
	mat.IOR = 1

	for i := uint32(0); i < n && r.err == nil; i++ {
		key := r.string()
		value := r.string()

		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			continue
		}

		switch key {
		case "_metal":
			mat.Metal = float32(f)
		case "_rough":
			mat.Rough = float32(f)
		case "_sp":
			mat.Spec = float32(f)
		case "_ior":
			mat.IOR = float32(f)
		}
	}

	if int(id) < len(materials) {
		materials[id] = mat
	}
}
