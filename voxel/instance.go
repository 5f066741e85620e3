package voxel

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceSize is the encoded size of an Instance: two vec4<f32>.
const InstanceSize = 32

// Instance is the per-voxel GPU record. Position.W is always 1.
type Instance struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// EncodeInstances appends the little-endian encoding of instances to dst.
func EncodeInstances(dst []byte, instances []Instance) []byte {
	var buf [InstanceSize]byte
	for _, inst := range instances {
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(inst.Position[i]))
			binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(inst.Color[i]))
		}
		dst = append(dst, buf[:]...)
	}
	return dst
}
