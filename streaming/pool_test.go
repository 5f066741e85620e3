package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/gekko3d/voxstream/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SubmitAndReceive(t *testing.T) {
	p := NewPool(voxel.HeightGenerator{}, 3, nil)
	p.Start(context.Background())
	defer p.Stop()

	for i := int32(0); i < 10; i++ {
		p.Submit(Job{Coord: voxel.ChunkCoord{X: i}, Epoch: uint64(i)})
	}

	got := map[uint64]voxel.ChunkCoord{}
	require.Eventually(t, func() bool {
		for {
			r, ok := p.TryReceive()
			if !ok {
				break
			}
			p.received()
			assert.NotNil(t, r.Chunk)
			got[r.Epoch] = r.Coord
		}
		return len(got) == 10
	}, 5*time.Second, time.Millisecond)

	for epoch, c := range got {
		assert.Equal(t, int32(epoch), c.X)
	}
	assert.Zero(t, p.InFlight())
}

func TestPool_TryReceiveDoesNotBlock(t *testing.T) {
	p := NewPool(voxel.HeightGenerator{}, 1, nil)
	_, ok := p.TryReceive()
	assert.False(t, ok)

	// Submitting before Start only queues.
	p.Submit(Job{Coord: voxel.ChunkCoord{}})
	_, ok = p.TryReceive()
	assert.False(t, ok)
	assert.Equal(t, 1, p.InFlight())
}

func TestPool_StopDropsQueuedJobs(t *testing.T) {
	release := make(chan struct{})
	gen := voxel.GeneratorFunc(func(c voxel.ChunkCoord) *voxel.Chunk {
		<-release
		return voxel.HeightGenerator{}.Generate(c)
	})
	p := NewPool(gen, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	for i := int32(0); i < 5; i++ {
		p.Submit(Job{Coord: voxel.ChunkCoord{Z: i}})
	}
	cancel()
	close(release)
	p.Stop()

	n := 0
	for {
		if _, ok := p.TryReceive(); !ok {
			break
		}
		n++
	}
	assert.LessOrEqual(t, n, 1, "at most the job already running completes")
	assert.Equal(t, n, p.InFlight(), "only unreceived results remain in flight")
}

func TestPool_PanicBecomesFailedResult(t *testing.T) {
	gen := voxel.GeneratorFunc(func(c voxel.ChunkCoord) *voxel.Chunk {
		if c.X == 1 {
			panic("bad chunk")
		}
		return voxel.HeightGenerator{}.Generate(c)
	})
	p := NewPool(gen, 1, nil)
	p.Start(context.Background())
	defer p.Stop()

	for i := int32(0); i < 3; i++ {
		p.Submit(Job{Coord: voxel.ChunkCoord{X: i}, Epoch: uint64(i)})
	}

	var results []Result
	require.Eventually(t, func() bool {
		for {
			r, ok := p.TryReceive()
			if !ok {
				break
			}
			p.received()
			results = append(results, r)
		}
		return len(results) == 3
	}, 5*time.Second, time.Millisecond)

	for _, r := range results {
		if r.Coord.X == 1 {
			assert.Error(t, r.Err)
			assert.Nil(t, r.Chunk)
		} else {
			assert.NoError(t, r.Err)
			assert.NotNil(t, r.Chunk)
		}
	}
	assert.Zero(t, p.InFlight())
}
