package gpu

import (
	"errors"
)

type BufferUsage uint32

const (
	BufferUsageCopyDst BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageStorage
	BufferUsageUniform
	BufferUsageVertex
)

// ErrOutOfMemory is returned when a device cannot satisfy an allocation.
var ErrOutOfMemory = errors.New("gpu: out of memory")

// Buffer is a device allocation of fixed size.
type Buffer interface {
	Size() uint64
	Release()
}

// Device is the minimal capability needed to stage instance data: allocate,
// write and release GPU-visible buffers.
type Device interface {
	CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
}

func alignTo4(n uint64) uint64 {
	if n%4 != 0 {
		n += 4 - n%4
	}
	return n
}
