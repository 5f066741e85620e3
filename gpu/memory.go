package gpu

import (
	"fmt"
	"sync"
)

// MemoryDevice backs buffers with host memory. It is used for headless runs
// and tests. A non-zero Limit caps the total bytes allocated at any time.
type MemoryDevice struct {
	Limit uint64

	mu        sync.Mutex
	allocated uint64
	creates   int
	writes    int
}

type MemoryBuffer struct {
	dev      *MemoryDevice
	label    string
	usage    BufferUsage
	data     []byte
	released bool
}

func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{}
}

func (d *MemoryDevice) CreateBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Limit > 0 && d.allocated+size > d.Limit {
		return nil, fmt.Errorf("create %q (%d bytes, %d in use, limit %d): %w", label, size, d.allocated, d.Limit, ErrOutOfMemory)
	}
	d.allocated += size
	d.creates++

	return &MemoryBuffer{
		dev:   d,
		label: label,
		usage: usage,
		data:  make([]byte, size),
	}, nil
}

func (d *MemoryDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	mb, ok := buf.(*MemoryBuffer)
	if !ok {
		return fmt.Errorf("gpu: buffer %T does not belong to this device", buf)
	}
	if mb.released {
		return fmt.Errorf("gpu: write to released buffer %q", mb.label)
	}
	if mb.usage&BufferUsageCopyDst == 0 {
		return fmt.Errorf("gpu: buffer %q is not a copy destination", mb.label)
	}
	if offset+uint64(len(data)) > uint64(len(mb.data)) {
		return fmt.Errorf("gpu: write of %d bytes at %d overflows buffer %q (%d bytes)", len(data), offset, mb.label, len(mb.data))
	}

	copy(mb.data[offset:], data)

	d.mu.Lock()
	d.writes++
	d.mu.Unlock()
	return nil
}

// Allocated returns the bytes currently held by live buffers.
func (d *MemoryDevice) Allocated() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

// Stats returns the number of buffer creations and writes so far.
func (d *MemoryDevice) Stats() (creates, writes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creates, d.writes
}

func (b *MemoryBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *MemoryBuffer) Release() {
	if b.released {
		return
	}
	b.released = true

	b.dev.mu.Lock()
	b.dev.allocated -= uint64(len(b.data))
	b.dev.mu.Unlock()
}

// Bytes exposes the buffer contents.
func (b *MemoryBuffer) Bytes() []byte {
	return b.data
}

func (b *MemoryBuffer) Label() string {
	return b.label
}
