package gpu

import (
	"encoding/binary"
)

// VertsPerInstance is the number of cube corners addressed per voxel.
const VertsPerInstance = 8

// CubeIndexPattern triangulates the 8 corners of a cube. The first 18 entries
// cover the three faces that survive backface culling for the default view.
var CubeIndexPattern = [36]uint32{
	0, 2, 1, 2, 3, 1,
	5, 4, 1, 1, 4, 0,
	0, 4, 6, 0, 6, 2,
	6, 5, 7, 6, 4, 5,
	2, 6, 3, 6, 7, 3,
	7, 1, 3, 7, 5, 1,
}

// IndicesPerInstance returns 18 with backface culling, 36 without.
func IndicesPerInstance(backfaceCulling bool) int {
	if backfaceCulling {
		return 18
	}
	return 36
}

// GenerateIndices builds n*k indices where idx[i] = (i/k)*8 + pattern[i%k].
func GenerateIndices(n, k int) []uint32 {
	out := make([]uint32, n*k)
	for i := range out {
		out[i] = uint32(i/k)*VertsPerInstance + CubeIndexPattern[i%k]
	}
	return out
}

// IndexBytes encodes indices as little-endian uint32.
func IndexBytes(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}
