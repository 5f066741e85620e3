package gpu

import (
	"fmt"
	"sort"

	"github.com/gekko3d/voxstream/voxel"
)

// InstanceBuffer keeps the per-chunk instance lists and mirrors them, packed
// back to back, into a single device buffer.
type InstanceBuffer struct {
	Label string
	Usage BufferUsage
	// GrowthFactor over-allocates on reallocation. Values <= 1 grow to the exact size.
	GrowthFactor float64

	chunks  map[voxel.ChunkCoord][]voxel.Instance
	buffer  Buffer
	staging []byte
	// Generation increments every time the backing buffer is replaced.
	Generation uint64
}

func NewInstanceBuffer(label string) *InstanceBuffer {
	return &InstanceBuffer{
		Label:  label,
		Usage:  BufferUsageStorage,
		chunks: make(map[voxel.ChunkCoord][]voxel.Instance),
	}
}

// Merge replaces the instance list stored for coord.
func (b *InstanceBuffer) Merge(coord voxel.ChunkCoord, instances []voxel.Instance) {
	b.chunks[coord] = instances
}

// Remove drops the list for coord. Unknown coordinates are ignored.
func (b *InstanceBuffer) Remove(coord voxel.ChunkCoord) {
	delete(b.chunks, coord)
}

// Len returns the total number of instances across all chunks.
func (b *InstanceBuffer) Len() int {
	n := 0
	for _, instances := range b.chunks {
		n += len(instances)
	}
	return n
}

// Chunks returns the number of chunks with a stored list.
func (b *InstanceBuffer) Chunks() int {
	return len(b.chunks)
}

func (b *InstanceBuffer) Contains(coord voxel.ChunkCoord) bool {
	_, ok := b.chunks[coord]
	return ok
}

// Buffer returns the current backing allocation, nil before the first sync.
func (b *InstanceBuffer) Buffer() Buffer {
	return b.buffer
}

// Capacity returns the backing buffer size in instances.
func (b *InstanceBuffer) Capacity() int {
	if b.buffer == nil {
		return 0
	}
	return int(b.buffer.Size() / voxel.InstanceSize)
}

// Sync uploads every stored instance to the device. The buffer is replaced when
// it is too small and never shrinks. All records go out in one write so a
// failure never leaves a partial instance set behind.
func (b *InstanceBuffer) Sync(dev Device) error {
	b.staging = b.staging[:0]
	for _, coord := range b.sortedCoords() {
		b.staging = voxel.EncodeInstances(b.staging, b.chunks[coord])
	}

	required := alignTo4(uint64(len(b.staging)))
	if required == 0 {
		return nil
	}

	if b.buffer == nil || b.buffer.Size() < required {
		size := required
		if b.GrowthFactor > 1 {
			size = alignTo4(uint64(float64(required) * b.GrowthFactor))
		}

		buf, err := dev.CreateBuffer(b.Label, size, b.Usage|BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("grow instance buffer to %d bytes: %w", size, err)
		}
		if b.buffer != nil {
			b.buffer.Release()
		}
		b.buffer = buf
		b.Generation++
	}

	if err := dev.WriteBuffer(b.buffer, 0, b.staging); err != nil {
		return fmt.Errorf("write %d instances: %w", len(b.staging)/voxel.InstanceSize, err)
	}
	return nil
}

// Release frees the backing allocation. Stored lists are kept.
func (b *InstanceBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
		b.Generation++
	}
}

// sortedCoords gives a stable upload order so the same content always
// produces the same bytes.
func (b *InstanceBuffer) sortedCoords() []voxel.ChunkCoord {
	coords := make([]voxel.ChunkCoord, 0, len(b.chunks))
	for c := range b.chunks {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		a, o := coords[i], coords[j]
		if a.X != o.X {
			return a.X < o.X
		}
		if a.Y != o.Y {
			return a.Y < o.Y
		}
		return a.Z < o.Z
	})
	return coords
}
