package render

import (
	"fmt"

	"github.com/gekko3d/voxstream/gpu"
	"github.com/gekko3d/voxstream/logging"
	"github.com/go-gl/mathgl/mgl32"
)

// View is an active observer viewpoint that wants the voxels drawn.
type View struct {
	ID             uint64
	ViewProjection mgl32.Mat4
}

// DrawItem asks the backend to draw IndexCount indices from Indices, pulling
// per-voxel records from Instances.
type DrawItem struct {
	View       View
	Instances  gpu.Buffer
	Indices    gpu.Buffer
	IndexCount uint32
}

// State owns the render-side instance cache and index buffer. It is mutated
// only by Prepare.
type State struct {
	Instances       *gpu.InstanceBuffer
	BackfaceCulling bool

	indexBuffer gpu.Buffer
	indexCount  uint32
	indexedFor  int
	logger      logging.Logger

	// Skipped counts Prepare calls that had nothing to do.
	Skipped int
}

func NewState(backfaceCulling bool, logger logging.Logger) *State {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &State{
		Instances:       gpu.NewInstanceBuffer("voxel_instances"),
		BackfaceCulling: backfaceCulling,
		indexedFor:      -1,
		logger:          logger,
	}
}

// Prepare applies a snapshot to the instance cache and uploads it. Removals are
// applied before merges so a chunk evicted and regenerated in the same frame
// keeps its new data. An empty snapshot is a no-op and returns false.
func (s *State) Prepare(dev gpu.Device, ex Extraction) (bool, error) {
	if ex.Empty() {
		s.Skipped++
		return false, nil
	}

	for _, coord := range ex.Removed {
		s.Instances.Remove(coord)
	}
	for _, ch := range ex.Chunks {
		s.Instances.Merge(ch.Coord, ch.Instances)
	}

	gen := s.Instances.Generation
	if err := s.Instances.Sync(dev); err != nil {
		return false, fmt.Errorf("sync instances: %w", err)
	}
	if s.Instances.Generation != gen {
		s.logger.Debugf("instance buffer reallocated: capacity %d", s.Instances.Capacity())
	}

	n := s.Instances.Len()
	if n != s.indexedFor {
		if err := s.rebuildIndices(dev, n); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *State) rebuildIndices(dev gpu.Device, n int) error {
	k := gpu.IndicesPerInstance(s.BackfaceCulling)
	count := n * k

	if s.indexBuffer != nil {
		s.indexBuffer.Release()
		s.indexBuffer = nil
	}
	s.indexCount = 0
	s.indexedFor = n
	if count == 0 {
		return nil
	}

	data := gpu.IndexBytes(gpu.GenerateIndices(n, k))
	buf, err := dev.CreateBuffer("voxel_indices", uint64(len(data)), gpu.BufferUsageIndex|gpu.BufferUsageCopyDst)
	if err != nil {
		s.indexedFor = -1
		return fmt.Errorf("create index buffer for %d instances: %w", n, err)
	}
	if err := dev.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		s.indexedFor = -1
		return fmt.Errorf("write index buffer: %w", err)
	}

	s.indexBuffer = buf
	s.indexCount = uint32(count)
	s.logger.Debugf("index buffer rebuilt: %d instances, %d indices", n, count)
	return nil
}

// Queue emits one draw item per view, all sharing the same buffers. Nothing is
// queued until both buffers exist.
func (s *State) Queue(views []View) []DrawItem {
	if s.Instances.Buffer() == nil || s.indexBuffer == nil || s.indexCount == 0 {
		return nil
	}
	items := make([]DrawItem, 0, len(views))
	for _, v := range views {
		items = append(items, DrawItem{
			View:       v,
			Instances:  s.Instances.Buffer(),
			Indices:    s.indexBuffer,
			IndexCount: s.indexCount,
		})
	}
	return items
}

func (s *State) IndexCount() uint32 {
	return s.indexCount
}

func (s *State) IndexBuffer() gpu.Buffer {
	return s.indexBuffer
}

// Release frees every device allocation held by the state.
func (s *State) Release() {
	s.Instances.Release()
	if s.indexBuffer != nil {
		s.indexBuffer.Release()
		s.indexBuffer = nil
	}
	s.indexCount = 0
	s.indexedFor = -1
}
