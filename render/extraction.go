package render

import (
	"github.com/gekko3d/voxstream/voxel"
)

// ChunkInstances carries one chunk's visible voxels across the frame boundary.
type ChunkInstances struct {
	Coord     voxel.ChunkCoord
	Instances []voxel.Instance
}

// Extraction is the per-frame snapshot handed from the world to the renderer:
// chunks whose content changed since the last frame and coordinates evicted
// since the last frame.
type Extraction struct {
	Chunks  []ChunkInstances
	Removed []voxel.ChunkCoord
}

// Empty reports whether the snapshot carries no work.
func (e Extraction) Empty() bool {
	return len(e.Chunks) == 0 && len(e.Removed) == 0
}
