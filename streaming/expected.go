package streaming

import (
	"math"

	"github.com/gekko3d/voxstream/voxel"
)

// ExpectedSet returns every coordinate center+(dx,dy,dz) with
// dx²+dy²+dz² < radius², each offset in [-radius, radius].
func ExpectedSet(center voxel.ChunkCoord, radius int32) map[voxel.ChunkCoord]struct{} {
	out := make(map[voxel.ChunkCoord]struct{})
	addSphere(out, center, radius)
	return out
}

// UnionExpectedSet merges the spheres around every observer.
func UnionExpectedSet(observers []voxel.ChunkCoord, radius int32) map[voxel.ChunkCoord]struct{} {
	out := make(map[voxel.ChunkCoord]struct{})
	for _, o := range observers {
		addSphere(out, o, radius)
	}
	return out
}

func addSphere(out map[voxel.ChunkCoord]struct{}, center voxel.ChunkCoord, radius int32) {
	r2 := int64(radius) * int64(radius)
	for dz := -radius; dz <= radius; dz++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				d := voxel.ChunkCoord{X: dx, Y: dy, Z: dz}
				if d.LengthSq() < r2 {
					out[center.Add(d)] = struct{}{}
				}
			}
		}
	}
}

// GenerationLimit is the number of completed generations attached per frame:
// ceil(4/3·π·R³·rate), never less than one.
func GenerationLimit(radius int32, rate float64) int {
	r := float64(radius)
	n := int(math.Ceil(4.0 / 3.0 * math.Pi * r * r * r * rate))
	if n < 1 {
		return 1
	}
	return n
}
