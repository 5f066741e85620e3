package voxel

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCoordOf_FloorsNegative(t *testing.T) {
	cases := []struct {
		pos  mgl32.Vec3
		want ChunkCoord
	}{
		{mgl32.Vec3{0, 0, 0}, ChunkCoord{0, 0, 0}},
		{mgl32.Vec3{31.9, 32, 64.1}, ChunkCoord{0, 1, 2}},
		{mgl32.Vec3{-0.5, -32, -32.01}, ChunkCoord{-1, -1, -2}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ChunkCoordOf(c.pos), "pos %v", c.pos)
	}
}

func TestIndex_ExpandRoundTrip(t *testing.T) {
	for _, p := range [][3]int{{0, 0, 0}, {31, 0, 0}, {0, 31, 0}, {0, 0, 31}, {5, 17, 29}} {
		i := Index(p[0], p[1], p[2])
		x, y, z := Expand(i)
		if x != p[0] || y != p[1] || z != p[2] {
			t.Errorf("Expand(Index(%v)) = %d,%d,%d", p, x, y, z)
		}
	}
	assert.Equal(t, 1+2*ChunkSide+3*ChunkArea, Index(1, 2, 3))
}

func TestHeightGenerator_Deterministic(t *testing.T) {
	g := HeightGenerator{Seed: 42, ColorJitter: 0.1}
	for _, coord := range []ChunkCoord{{0, 0, 0}, {-3, -1, 7}, {2, 0, -5}} {
		a := g.Generate(coord)
		b := g.Generate(coord)
		require.Equal(t, a, b, "generate(%v) differs between calls", coord)
	}
}

func TestHeightGenerator_Occupancy(t *testing.T) {
	c := HeightGenerator{}.Generate(ChunkCoord{0, 0, 0})

	// x=0 has zero height: the whole column is empty.
	for y := 0; y < ChunkSide; y++ {
		assert.False(t, c.Occupied(0, y, 0))
	}
	// x=15 reaches 16 voxels.
	assert.True(t, c.Occupied(15, 15, 3))
	assert.False(t, c.Occupied(15, 16, 3))

	v, ok := c.At(10, 3, 11)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{0.1, 0.3, 0.2, 1}, v.Color)

	above := HeightGenerator{}.Generate(ChunkCoord{0, 1, 0})
	assert.Equal(t, 0, above.Count())
}

func TestHeightGenerator_SolidChunkOcclusion(t *testing.T) {
	c := HeightGenerator{}.Generate(ChunkCoord{4, -1, -2})

	require.Equal(t, ChunkVolume, c.Count())
	inner := (ChunkSide - 2) * (ChunkSide - 2) * (ChunkSide - 2)
	assert.Equal(t, ChunkVolume-inner, c.VisibleCount())

	for i := 0; i < ChunkVolume; i++ {
		x, y, z := Expand(i)
		v, _ := c.At(x, y, z)
		border := x == 0 || y == 0 || z == 0 || x == ChunkSide-1 || y == ChunkSide-1 || z == ChunkSide-1
		if border != v.Visible {
			t.Fatalf("cell %d,%d,%d: border=%v visible=%v", x, y, z, border, v.Visible)
		}
	}
}

func TestNewChunkFromCells_Occlusion(t *testing.T) {
	white := mgl32.Vec4{1, 1, 1, 1}
	cells := map[[3]int]mgl32.Vec4{}
	plus := func(x, y, z int) {
		cells[[3]int{x, y, z}] = white
		for _, d := range [][3]int{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}} {
			cells[[3]int{x + d[0], y + d[1], z + d[2]}] = white
		}
	}
	plus(5, 5, 5)
	plus(0, 10, 10) // center sits on the border, neighbors at x=-1 are dropped

	cells[[3]int{20, 20, 20}] = white
	cells[[3]int{21, 20, 20}] = white

	c := NewChunkFromCells(cells)

	v, ok := c.At(5, 5, 5)
	require.True(t, ok)
	assert.False(t, v.Visible, "fully enclosed voxel must be hidden")

	v, ok = c.At(0, 10, 10)
	require.True(t, ok)
	assert.True(t, v.Visible, "border voxel is always visible")

	v, _ = c.At(20, 20, 20)
	assert.True(t, v.Visible)
	assert.True(t, c.Dirty())
}

func TestChunk_ExtractClearsDirty(t *testing.T) {
	coord := ChunkCoord{1, 0, -1}
	c := HeightGenerator{}.Generate(coord)

	instances, ok := c.Extract(coord)
	require.True(t, ok)
	assert.Len(t, instances, c.VisibleCount())
	assert.False(t, c.Dirty())

	origin := coord.Origin()
	for _, inst := range instances {
		assert.Equal(t, float32(1), inst.Position.W())
		local := inst.Position.Vec3().Sub(origin)
		v, occ := c.At(int(local.X()), int(local.Y()), int(local.Z()))
		require.True(t, occ)
		require.True(t, v.Visible)
		require.Equal(t, v.Color, inst.Color)
	}

	again, ok := c.Extract(coord)
	assert.False(t, ok)
	assert.Nil(t, again)

	c.MarkDirty()
	again, ok = c.Extract(coord)
	assert.True(t, ok)
	assert.Len(t, again, len(instances))
}

func TestEncodeInstances(t *testing.T) {
	buf := EncodeInstances(nil, []Instance{
		{Position: mgl32.Vec4{1, 2, 3, 1}, Color: mgl32.Vec4{0.5, 0.25, 0, 1}},
		{Position: mgl32.Vec4{-4, 0, 9, 1}, Color: mgl32.Vec4{1, 1, 1, 1}},
	})
	require.Len(t, buf, 2*InstanceSize)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(2), f(4))
	assert.Equal(t, float32(0.25), f(20))
	assert.Equal(t, float32(-4), f(InstanceSize))
	assert.Equal(t, float32(1), f(InstanceSize+12))
}

func TestHash3_Stable(t *testing.T) {
	assert.Equal(t, Hash3(7, 1, 2, 3), Hash3(7, 1, 2, 3))
	assert.NotEqual(t, Hash3(7, 1, 2, 3), Hash3(8, 1, 2, 3))
	assert.NotEqual(t, Hash3(7, 1, 2, 3), Hash3(7, 3, 2, 1))
}
