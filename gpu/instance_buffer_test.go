package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/voxstream/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeInstances(n int, tag float32) []voxel.Instance {
	out := make([]voxel.Instance, n)
	for i := range out {
		out[i] = voxel.Instance{
			Position: mgl32.Vec4{float32(i), tag, 0, 1},
			Color:    mgl32.Vec4{tag, tag, tag, 1},
		}
	}
	return out
}

func TestInstanceBuffer_MergeRemoveLen(t *testing.T) {
	b := NewInstanceBuffer("test")
	a := voxel.ChunkCoord{X: 1}
	c := voxel.ChunkCoord{Z: -1}

	b.Merge(a, makeInstances(3, 1))
	b.Merge(c, makeInstances(5, 2))
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, 2, b.Chunks())

	b.Merge(a, makeInstances(1, 3))
	assert.Equal(t, 6, b.Len(), "merge replaces the previous list")

	b.Remove(voxel.ChunkCoord{Y: 99})
	assert.Equal(t, 6, b.Len(), "removing an unknown coordinate is a no-op")

	b.Remove(c)
	assert.Equal(t, 1, b.Len())
	assert.False(t, b.Contains(c))
}

func TestInstanceBuffer_SyncGrowsExactlyAndNeverShrinks(t *testing.T) {
	dev := NewMemoryDevice()
	b := NewInstanceBuffer("test")

	require.NoError(t, b.Sync(dev))
	assert.Nil(t, b.Buffer(), "nothing to upload yet")

	b.Merge(voxel.ChunkCoord{}, makeInstances(10, 1))
	require.NoError(t, b.Sync(dev))
	require.NotNil(t, b.Buffer())
	assert.Equal(t, uint64(10*voxel.InstanceSize), b.Buffer().Size())
	assert.Equal(t, 10, b.Capacity())
	gen := b.Generation

	b.Merge(voxel.ChunkCoord{X: 1}, makeInstances(4, 2))
	require.NoError(t, b.Sync(dev))
	assert.Equal(t, 14, b.Capacity())
	assert.Equal(t, gen+1, b.Generation)

	b.Remove(voxel.ChunkCoord{})
	require.NoError(t, b.Sync(dev))
	assert.Equal(t, 14, b.Capacity(), "capacity must not shrink")
	assert.Equal(t, gen+1, b.Generation, "no reallocation when shrinking")
	assert.Equal(t, uint64(14*voxel.InstanceSize), dev.Allocated(), "old buffer released on growth")
}

func TestInstanceBuffer_GrowthFactor(t *testing.T) {
	dev := NewMemoryDevice()
	b := NewInstanceBuffer("test")
	b.GrowthFactor = 2

	b.Merge(voxel.ChunkCoord{}, makeInstances(10, 1))
	require.NoError(t, b.Sync(dev))
	assert.Equal(t, 20, b.Capacity())

	creates, _ := dev.Stats()
	b.Merge(voxel.ChunkCoord{X: 1}, makeInstances(10, 1))
	require.NoError(t, b.Sync(dev))
	after, _ := dev.Stats()
	assert.Equal(t, creates, after, "fits in the over-allocated buffer")
}

func TestInstanceBuffer_SyncWritesContiguously(t *testing.T) {
	dev := NewMemoryDevice()
	b := NewInstanceBuffer("test")
	b.Merge(voxel.ChunkCoord{X: 2}, makeInstances(2, 7))
	b.Merge(voxel.ChunkCoord{X: -1}, makeInstances(3, 5))
	require.NoError(t, b.Sync(dev))

	_, writes := dev.Stats()
	assert.Equal(t, 1, writes, "one write per sync")

	data := b.Buffer().(*MemoryBuffer).Bytes()
	tagAt := func(rec int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[rec*voxel.InstanceSize+4:]))
	}
	// Lower X sorts first.
	for i := 0; i < 3; i++ {
		assert.Equal(t, float32(5), tagAt(i))
	}
	for i := 3; i < 5; i++ {
		assert.Equal(t, float32(7), tagAt(i))
	}
}

func TestInstanceBuffer_SyncPropagatesExhaustion(t *testing.T) {
	dev := NewMemoryDevice()
	dev.Limit = 8 * voxel.InstanceSize
	b := NewInstanceBuffer("test")

	b.Merge(voxel.ChunkCoord{}, makeInstances(4, 1))
	require.NoError(t, b.Sync(dev))
	old := b.Buffer()

	b.Merge(voxel.ChunkCoord{X: 1}, makeInstances(6, 1))
	err := b.Sync(dev)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Same(t, old, b.Buffer(), "failed growth keeps the previous buffer")
}

func TestGenerateIndices(t *testing.T) {
	for _, k := range []int{IndicesPerInstance(true), IndicesPerInstance(false)} {
		n := 3
		idx := GenerateIndices(n, k)
		require.Len(t, idx, n*k)
		for i, v := range idx {
			inst := uint32(i / k)
			if v < inst*VertsPerInstance || v >= (inst+1)*VertsPerInstance {
				t.Errorf("k=%d: index %d = %d outside instance %d's vertex range", k, i, v, inst)
			}
			if v != inst*VertsPerInstance+CubeIndexPattern[i%k] {
				t.Errorf("k=%d: index %d = %d", k, i, v)
			}
		}
	}
	assert.Equal(t, 18, IndicesPerInstance(true))
	assert.Equal(t, 36, IndicesPerInstance(false))
	assert.Equal(t, []uint32{8, 10, 9}, GenerateIndices(2, 18)[18:21])
	assert.Empty(t, GenerateIndices(0, 36))
}

func TestMemoryDevice_WriteChecks(t *testing.T) {
	dev := NewMemoryDevice()
	buf, err := dev.CreateBuffer("idx", 8, BufferUsageIndex)
	require.NoError(t, err)
	assert.Error(t, dev.WriteBuffer(buf, 0, []byte{1}), "not a copy destination")

	buf, err = dev.CreateBuffer("idx", 8, BufferUsageIndex|BufferUsageCopyDst)
	require.NoError(t, err)
	assert.NoError(t, dev.WriteBuffer(buf, 4, []byte{1, 2, 3, 4}))
	assert.Error(t, dev.WriteBuffer(buf, 6, []byte{1, 2, 3, 4}))

	buf.Release()
	assert.Error(t, dev.WriteBuffer(buf, 0, []byte{1}))
	assert.Equal(t, uint64(8), dev.Allocated())
}
