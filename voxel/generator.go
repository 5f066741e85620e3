package voxel

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Generator builds chunk content as a pure function of its coordinate.
// Implementations must be safe to call from several goroutines at once.
type Generator interface {
	Generate(coord ChunkCoord) *Chunk
}

// HeightGenerator fills a sawtooth ramp along X: a column at local x is solid up
// to (x%30)/30*SIDE voxels above world height zero. Colors follow the cell's
// local position. A non-zero ColorJitter perturbs each color by a seeded hash.
type HeightGenerator struct {
	Seed        uint32
	ColorJitter float32
}

func (g HeightGenerator) Generate(coord ChunkCoord) *Chunk {
	c := newChunk()
	baseY := coord.Y * ChunkSide

	for z := 0; z < ChunkSide; z++ {
		for y := 0; y < ChunkSide; y++ {
			for x := 0; x < ChunkSide; x++ {
				height := float32(x%30) / 30 * ChunkSide
				if height <= float32(baseY+int32(y)) {
					continue
				}
				c.set(Index(x, y, z), Voxel{
					Color:   g.color(coord, x, y, z),
					Visible: true,
				})
			}
		}
	}

	c.cullInterior()
	c.dirty = true
	return c
}

func (g HeightGenerator) color(coord ChunkCoord, x, y, z int) mgl32.Vec4 {
	col := mgl32.Vec4{
		float32(x%100) / 100,
		float32(y%10) / 10,
		float32(z%55) / 55,
		1,
	}
	if g.ColorJitter == 0 {
		return col
	}

	o := coord.Origin()
	h := Hash3(g.Seed, int32(o.X())+int32(x), int32(o.Y())+int32(y), int32(o.Z())+int32(z))
	for ch := 0; ch < 3; ch++ {
		n := float32((h>>(uint(ch)*8))&0xff)/255*2 - 1
		col[ch] = mgl32.Clamp(col[ch]+n*g.ColorJitter, 0, 1)
	}
	return col
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(coord ChunkCoord) *Chunk

func (f GeneratorFunc) Generate(coord ChunkCoord) *Chunk {
	return f(coord)
}

// NewChunkFromCells builds a chunk from a set of occupied cells and runs the
// occlusion pass over it. The result starts dirty.
func NewChunkFromCells(cells map[[3]int]mgl32.Vec4) *Chunk {
	c := newChunk()
	for p, col := range cells {
		if p[0] < 0 || p[1] < 0 || p[2] < 0 || p[0] >= ChunkSide || p[1] >= ChunkSide || p[2] >= ChunkSide {
			continue
		}
		c.set(Index(p[0], p[1], p[2]), Voxel{Color: col, Visible: true})
	}
	c.cullInterior()
	c.dirty = true
	return c
}
