package render

import (
	"testing"

	"github.com/gekko3d/voxstream/gpu"
	"github.com/gekko3d/voxstream/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instances(n int, tag float32) []voxel.Instance {
	out := make([]voxel.Instance, n)
	for i := range out {
		out[i] = voxel.Instance{Position: mgl32.Vec4{float32(i), 0, 0, 1}, Color: mgl32.Vec4{tag, 0, 0, 1}}
	}
	return out
}

func TestState_PrepareSkipsEmptySnapshot(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	s := NewState(true, nil)

	did, err := s.Prepare(dev, Extraction{})
	require.NoError(t, err)
	assert.False(t, did)
	assert.Equal(t, 1, s.Skipped)

	creates, writes := dev.Stats()
	assert.Zero(t, creates)
	assert.Zero(t, writes)
	assert.Nil(t, s.Queue([]View{{ID: 1}}), "nothing to draw before the first upload")
}

func TestState_PrepareAndQueue(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	s := NewState(true, nil)

	did, err := s.Prepare(dev, Extraction{Chunks: []ChunkInstances{
		{Coord: voxel.ChunkCoord{}, Instances: instances(4, 1)},
		{Coord: voxel.ChunkCoord{X: 1}, Instances: instances(2, 1)},
	}})
	require.NoError(t, err)
	assert.True(t, did)
	assert.Equal(t, uint32(6*18), s.IndexCount())
	assert.Equal(t, uint64(6*18*4), s.IndexBuffer().Size())

	items := s.Queue([]View{{ID: 1}, {ID: 2}})
	require.Len(t, items, 2)
	for i, it := range items {
		assert.Equal(t, uint64(i+1), it.View.ID)
		assert.Same(t, s.Instances.Buffer(), it.Instances)
		assert.Same(t, s.IndexBuffer(), it.Indices)
		assert.Equal(t, s.IndexCount(), it.IndexCount)
	}
	assert.Empty(t, s.Queue(nil))
}

func TestState_WithoutBackfaceCulling(t *testing.T) {
	s := NewState(false, nil)
	_, err := s.Prepare(gpu.NewMemoryDevice(), Extraction{Chunks: []ChunkInstances{
		{Coord: voxel.ChunkCoord{}, Instances: instances(3, 1)},
	}})
	require.NoError(t, err)
	assert.Equal(t, uint32(3*36), s.IndexCount())
}

func TestState_RemovalsBeforeMerges(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	s := NewState(true, nil)
	c := voxel.ChunkCoord{Y: -1}

	_, err := s.Prepare(dev, Extraction{Chunks: []ChunkInstances{{Coord: c, Instances: instances(2, 1)}}})
	require.NoError(t, err)

	// Evicted and regenerated within one frame.
	_, err = s.Prepare(dev, Extraction{
		Chunks:  []ChunkInstances{{Coord: c, Instances: instances(5, 2)}},
		Removed: []voxel.ChunkCoord{c},
	})
	require.NoError(t, err)
	assert.True(t, s.Instances.Contains(c))
	assert.Equal(t, 5, s.Instances.Len())
	assert.Equal(t, uint32(5*18), s.IndexCount())
}

func TestState_IndexBufferRebuiltOnlyOnCountChange(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	s := NewState(true, nil)
	c := voxel.ChunkCoord{}

	_, err := s.Prepare(dev, Extraction{Chunks: []ChunkInstances{{Coord: c, Instances: instances(3, 1)}}})
	require.NoError(t, err)
	idx := s.IndexBuffer()

	_, err = s.Prepare(dev, Extraction{Chunks: []ChunkInstances{{Coord: c, Instances: instances(3, 2)}}})
	require.NoError(t, err)
	assert.Same(t, idx, s.IndexBuffer())

	_, err = s.Prepare(dev, Extraction{Chunks: []ChunkInstances{{Coord: c, Instances: instances(4, 2)}}})
	require.NoError(t, err)
	assert.NotSame(t, idx, s.IndexBuffer())
}

func TestState_RemoveEverything(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	s := NewState(true, nil)
	c := voxel.ChunkCoord{Z: 3}

	_, err := s.Prepare(dev, Extraction{Chunks: []ChunkInstances{{Coord: c, Instances: instances(3, 1)}}})
	require.NoError(t, err)
	require.NotEmpty(t, s.Queue([]View{{}}))

	_, err = s.Prepare(dev, Extraction{Removed: []voxel.ChunkCoord{c}})
	require.NoError(t, err)
	assert.Zero(t, s.Instances.Len())
	assert.Zero(t, s.IndexCount())
	assert.Nil(t, s.Queue([]View{{}}))
}

func TestState_PreparePropagatesExhaustion(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	dev.Limit = 1024
	s := NewState(true, nil)

	_, err := s.Prepare(dev, Extraction{Chunks: []ChunkInstances{
		{Coord: voxel.ChunkCoord{}, Instances: instances(64, 1)},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrOutOfMemory)
}

func TestState_Release(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	s := NewState(true, nil)
	_, err := s.Prepare(dev, Extraction{Chunks: []ChunkInstances{{Instances: instances(2, 1)}}})
	require.NoError(t, err)
	require.NotZero(t, dev.Allocated())

	s.Release()
	assert.Zero(t, dev.Allocated())
	assert.Nil(t, s.Queue([]View{{}}))
}
