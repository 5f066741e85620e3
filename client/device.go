package client

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/voxstream/gpu"
)

// Device implements gpu.Device on a webgpu device.
type Device struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

type Buffer struct {
	buf *wgpu.Buffer
}

func NewDevice(device *wgpu.Device) *Device {
	return &Device{device: device, queue: device.GetQueue()}
}

func (d *Device) CreateBuffer(label string, size uint64, usage gpu.BufferUsage) (gpu.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            toWgpuUsage(usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q (%d bytes): %w", label, size, err)
	}
	return &Buffer{buf: buf}, nil
}

func (d *Device) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("client: buffer %T was not created by this device", buf)
	}
	return d.queue.WriteBuffer(b.buf, offset, data)
}

func (b *Buffer) Size() uint64 {
	return b.buf.GetSize()
}

func (b *Buffer) Release() {
	b.buf.Release()
}

// Raw returns the underlying webgpu buffer.
func (b *Buffer) Raw() *wgpu.Buffer {
	return b.buf
}

func toWgpuUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&gpu.BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	if u&gpu.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&gpu.BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&gpu.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&gpu.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	return out
}
