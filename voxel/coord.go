package voxel

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	ChunkSide   = 32
	ChunkArea   = ChunkSide * ChunkSide
	ChunkVolume = ChunkArea * ChunkSide
)

// ChunkCoord addresses a chunk in chunk units (not voxels).
type ChunkCoord struct {
	X, Y, Z int32
}

func (c ChunkCoord) Add(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

func (c ChunkCoord) Sub(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

// LengthSq is the squared euclidean length in chunk units.
func (c ChunkCoord) LengthSq() int64 {
	x, y, z := int64(c.X), int64(c.Y), int64(c.Z)
	return x*x + y*y + z*z
}

// Origin returns the voxel-space position of the chunk's (0,0,0) cell.
func (c ChunkCoord) Origin() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c.X * ChunkSide),
		float32(c.Y * ChunkSide),
		float32(c.Z * ChunkSide),
	}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// ChunkCoordOf converts a world position to the chunk containing it,
// flooring toward negative infinity on each axis.
func ChunkCoordOf(pos mgl32.Vec3) ChunkCoord {
	return ChunkCoord{
		X: int32(math.Floor(float64(pos.X()) / ChunkSide)),
		Y: int32(math.Floor(float64(pos.Y()) / ChunkSide)),
		Z: int32(math.Floor(float64(pos.Z()) / ChunkSide)),
	}
}

// Index flattens local cell coordinates: x + y*SIDE + z*SIDE*SIDE.
func Index(x, y, z int) int {
	return x + y*ChunkSide + z*ChunkArea
}

// Expand is the inverse of Index.
func Expand(i int) (x, y, z int) {
	return i % ChunkSide, (i / ChunkSide) % ChunkSide, i / ChunkArea
}

// Hash3 mixes a seed with integer coordinates into a stable 32-bit value.
func Hash3(seed uint32, x, y, z int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	h ^= uint32(z) * 0xc2b2ae35

	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}
