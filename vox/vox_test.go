package vox

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func chunk(id string, content, children []byte) []byte {
	b := []byte(id)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(content)))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(children)))
	b = append(b, content...)
	return append(b, children...)
}

func sizeChunk(x, y, z uint32) []byte {
	var c []byte
	c = binary.LittleEndian.AppendUint32(c, x)
	c = binary.LittleEndian.AppendUint32(c, y)
	c = binary.LittleEndian.AppendUint32(c, z)
	return chunk("SIZE", c, nil)
}

func xyziChunk(voxels [][4]uint8) []byte {
	var c []byte
	c = binary.LittleEndian.AppendUint32(c, uint32(len(voxels)))
	for _, v := range voxels {
		c = append(c, v[0], v[1], v[2], v[3])
	}
	return chunk("XYZI", c, nil)
}

func rgbaChunk() []byte {
	c := make([]byte, 0, 256*4)
	for i := 0; i < 256; i++ {
		c = append(c, uint8(i), uint8(255-i), 0, 255)
	}
	return chunk("RGBA", c, nil)
}

func dictString(s string) []byte {
	b := binary.LittleEndian.AppendUint32(nil, uint32(len(s)))
	return append(b, s...)
}

func matlChunk(id uint32, pairs map[string]string) []byte {
	c := binary.LittleEndian.AppendUint32(nil, id)
	c = binary.LittleEndian.AppendUint32(c, uint32(len(pairs)))
	for k, v := range pairs {
		c = append(c, dictString(k)...)
		c = append(c, dictString(v)...)
	}
	return chunk("MATL", c, nil)
}

func voxFile(children ...[]byte) []byte {
	var main []byte
	for _, c := range children {
		main = append(main, c...)
	}

	b := []byte(headerMagic)
	b = binary.LittleEndian.AppendUint32(b, 150)
	return append(b, chunk("MAIN", nil, main)...)
}

func TestDecode(t *testing.T) {
	b := voxFile(
		sizeChunk(3, 2, 4),
		xyziChunk([][4]uint8{
			{0, 0, 0, 5},
			{2, 1, 3, 42},
		}),
		rgbaChunk(),
		matlChunk(42, map[string]string{
			"_metal": "0.5",
			"_rough": "0.25",
			"_type":  "_metal",
		}),
	)

	m, err := Decode(b)
	require.NoError(t, err)

	require.Equal(t, uint32(3), m.SizeX)
	require.Equal(t, uint32(2), m.SizeY)
	require.Equal(t, uint32(4), m.SizeZ)
	require.Equal(t, uint8(5), m.At(0, 0, 0))
	require.Equal(t, uint8(42), m.At(2, 1, 3))
	require.Equal(t, 2, m.Count())

	require.Len(t, m.Palette, 256)
	require.Equal(t, uint8(0), m.Palette[1].R)
	require.Equal(t, uint8(255), m.Palette[1].G)

	require.Equal(t, float32(0.5), m.Metal(42))
	require.Equal(t, float32(0.25), m.Rough(42))
	require.Equal(t, float32(1), m.IOR(42))
}

func TestDecodeFirstModelWins(t *testing.T) {
	b := voxFile(
		sizeChunk(2, 2, 2),
		xyziChunk([][4]uint8{{1, 1, 1, 9}}),
		sizeChunk(8, 8, 8),
		xyziChunk([][4]uint8{{7, 7, 7, 1}}),
	)

	m, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, uint32(2), m.SizeX)
	require.Equal(t, uint8(9), m.At(1, 1, 1))
}

func TestDecodeUnknownChunksSkipped(t *testing.T) {
	b := voxFile(
		chunk("nTRN", []byte{1, 2, 3, 4}, nil),
		sizeChunk(1, 1, 1),
		xyziChunk([][4]uint8{{0, 0, 0, 1}}),
	)

	m, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, uint8(1), m.At(0, 0, 0))
}

func TestDecodeMainWithContent(t *testing.T) {
	// Some exporters put payload bytes in MAIN itself; the children only
	// start after them.
	var main []byte
	main = append(main, sizeChunk(1, 1, 1)...)
	main = append(main, xyziChunk([][4]uint8{{0, 0, 0, 3}})...)

	b := []byte(headerMagic)
	b = binary.LittleEndian.AppendUint32(b, 150)
	b = append(b, chunk("MAIN", []byte{0xDE, 0xAD, 0xBE, 0xEF}, main)...)

	m, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, uint8(3), m.At(0, 0, 0))
}

func TestDecodeErrors(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		_, err := Decode([]byte("NOPE....."))
		require.Error(t, err)
	})

	t.Run("no model", func(t *testing.T) {
		_, err := Decode(voxFile(rgbaChunk()))
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		b := voxFile(sizeChunk(2, 2, 2))
		_, err := Decode(b[:len(b)-4])
		require.Error(t, err)
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.vox")
	require.Error(t, err)
}
