package voxel

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Voxel is a single occupied cell.
type Voxel struct {
	Color   mgl32.Vec4
	Visible bool
}

// Chunk is a cube of ChunkSide^3 cells. Cells are either empty or hold a Voxel.
type Chunk struct {
	voxels   []Voxel
	occupied []uint64
	dirty    bool
}

func newChunk() *Chunk {
	return &Chunk{
		voxels:   make([]Voxel, ChunkVolume),
		occupied: make([]uint64, ChunkVolume/64),
	}
}

func (c *Chunk) set(i int, v Voxel) {
	c.voxels[i] = v
	c.occupied[i>>6] |= 1 << (uint(i) & 63)
}

func (c *Chunk) occupiedAt(i int) bool {
	return c.occupied[i>>6]&(1<<(uint(i)&63)) != 0
}

// Occupied reports whether the local cell holds a voxel. Out-of-range cells are empty.
func (c *Chunk) Occupied(x, y, z int) bool {
	if x < 0 || y < 0 || z < 0 || x >= ChunkSide || y >= ChunkSide || z >= ChunkSide {
		return false
	}
	return c.occupiedAt(Index(x, y, z))
}

// At returns the voxel at a local cell, or false if the cell is empty.
func (c *Chunk) At(x, y, z int) (Voxel, bool) {
	if !c.Occupied(x, y, z) {
		return Voxel{}, false
	}
	return c.voxels[Index(x, y, z)], true
}

func (c *Chunk) Dirty() bool {
	return c.dirty
}

// MarkDirty forces the chunk to be re-extracted on the next frame.
func (c *Chunk) MarkDirty() {
	c.dirty = true
}

// Count returns the number of occupied cells.
func (c *Chunk) Count() int {
	n := 0
	for i := 0; i < ChunkVolume; i++ {
		if c.occupiedAt(i) {
			n++
		}
	}
	return n
}

// VisibleCount returns the number of occupied cells that are visible.
func (c *Chunk) VisibleCount() int {
	n := 0
	for i := 0; i < ChunkVolume; i++ {
		if c.occupiedAt(i) && c.voxels[i].Visible {
			n++
		}
	}
	return n
}

// cullInterior hides every interior voxel whose six neighbors are all occupied.
// Border cells are never touched and keep whatever visibility they were generated with.
func (c *Chunk) cullInterior() {
	for z := 1; z < ChunkSide-1; z++ {
		for y := 1; y < ChunkSide-1; y++ {
			for x := 1; x < ChunkSide-1; x++ {
				i := Index(x, y, z)
				if !c.occupiedAt(i) {
					continue
				}
				if c.occupiedAt(i-1) && c.occupiedAt(i+1) &&
					c.occupiedAt(i-ChunkSide) && c.occupiedAt(i+ChunkSide) &&
					c.occupiedAt(i-ChunkArea) && c.occupiedAt(i+ChunkArea) {
					c.voxels[i].Visible = false
				}
			}
		}
	}
}

// Extract returns one instance per visible voxel when the chunk is dirty and
// clears the flag. A clean chunk yields (nil, false).
func (c *Chunk) Extract(coord ChunkCoord) ([]Instance, bool) {
	if !c.dirty {
		return nil, false
	}
	c.dirty = false

	origin := coord.Origin()
	instances := make([]Instance, 0, c.VisibleCount())
	for i := 0; i < ChunkVolume; i++ {
		if !c.occupiedAt(i) || !c.voxels[i].Visible {
			continue
		}
		x, y, z := Expand(i)
		instances = append(instances, Instance{
			Position: origin.Add(mgl32.Vec3{float32(x), float32(y), float32(z)}).Vec4(1),
			Color:    c.voxels[i].Color,
		})
	}
	return instances, true
}
