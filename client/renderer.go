package client

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/voxstream/render"
	"github.com/gekko3d/voxstream/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const depthFormat = wgpu.TextureFormatDepth32Float

// voxelRenderer draws render.DrawItems by pulling instance records from a
// storage buffer in the vertex shader.
type voxelRenderer struct {
	pipeline  *wgpu.RenderPipeline
	cameraBuf *wgpu.Buffer
	depthTex  *wgpu.Texture
	depthView *wgpu.TextureView

	bindGroup   *wgpu.BindGroup
	boundBuffer *wgpu.Buffer
}

func createVoxelRenderer(g *gpuState) (*voxelRenderer, error) {
	shader, err := g.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "voxels",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.VoxelsWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer shader.Release()

	pipeline, err := g.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "voxels",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    g.surfaceConfig.Format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	cameraBuf, err := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "voxels camera",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	depthTex, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "voxels depth",
		Size: wgpu.Extent3D{
			Width:              g.surfaceConfig.Width,
			Height:             g.surfaceConfig.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	depthView, err := depthTex.CreateView(nil)
	if err != nil {
		return nil, err
	}

	return &voxelRenderer{
		pipeline:  pipeline,
		cameraBuf: cameraBuf,
		depthTex:  depthTex,
		depthView: depthView,
	}, nil
}

// bind recreates the bind group whenever the instance buffer was reallocated.
func (r *voxelRenderer) bind(g *gpuState, instances *wgpu.Buffer) error {
	if r.bindGroup != nil && r.boundBuffer == instances {
		return nil
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	bg, err := g.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "voxels",
		Layout: r.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.cameraBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: instances, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	r.bindGroup = bg
	r.boundBuffer = instances
	return nil
}

// draw clears the surface and renders the first draw item. Additional views
// share the window and are not presented.
func (r *voxelRenderer) draw(g *gpuState, items []render.DrawItem) error {
	tex, err := g.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer tex.Release()

	view, err := tex.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	var item *render.DrawItem
	if len(items) > 0 {
		item = &items[0]
		if err := g.queue.WriteBuffer(r.cameraBuf, 0, mat4Bytes(item.View.ViewProjection)); err != nil {
			return err
		}
		if err := r.bind(g, item.Instances.(*Buffer).Raw()); err != nil {
			return err
		}
	}

	encoder, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0.53, G: 0.75, B: 0.92, A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if item != nil {
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(0, r.bindGroup, nil)
		pass.SetIndexBuffer(item.Indices.(*Buffer).Raw(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(item.IndexCount, 1, 0, 0, 0)
	}
	if err := pass.End(); err != nil {
		return err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer cmd.Release()

	g.queue.Submit(cmd)
	g.surface.Present()
	return nil
}

func (r *voxelRenderer) release() {
	if r.bindGroup != nil {
		r.bindGroup.Release()
	}
	r.depthView.Release()
	r.depthTex.Release()
	r.cameraBuf.Release()
	r.pipeline.Release()
}

func mat4Bytes(m mgl32.Mat4) []byte {
	out := make([]byte, 64)
	for i, f := range m {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}
