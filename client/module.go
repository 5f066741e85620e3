// Package client opens a window and presents the voxel renderer's draw items
// on a webgpu surface.
package client

import (
	"fmt"

	"github.com/gekko3d/voxstream"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type ClientModule struct {
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
}

type clientState struct {
	window   *windowState
	gpu      *gpuState
	renderer *voxelRenderer
	closed   bool
}

// Install must run before VoxelRenderModule so the renderer uploads to this
// window's device.
func (mod ClientModule) Install(app *voxstream.App, cmd *voxstream.Commands) {
	win, err := createWindowState(mod.WindowWidth, mod.WindowHeight, mod.WindowTitle)
	if err != nil {
		panic(fmt.Errorf("create window: %w", err))
	}
	g, err := createGpuState(win)
	if err != nil {
		panic(fmt.Errorf("create gpu device: %w", err))
	}
	renderer, err := createVoxelRenderer(g)
	if err != nil {
		panic(fmt.Errorf("create voxel pipeline: %w", err))
	}

	cmd.AddResources(
		&clientState{window: win, gpu: g, renderer: renderer},
		&Input{},
		&voxstream.RenderDevice{Device: NewDevice(g.device)},
	)

	app.UseSystem(
		voxstream.System(inputSystem).
			InStage(voxstream.Prelude).
			RunAlways(),
	)
	app.UseSystem(
		voxstream.System(flyingCameraInputSystem).
			InStage(voxstream.PreUpdate).
			RunAlways(),
	)
	app.UseSystem(
		voxstream.System(drawSystem).
			InStage(voxstream.Render).
			RunAlways(),
	)
	app.UseSystem(
		voxstream.System(shutdownSystem).
			InStage(voxstream.Finale).
			RunAlways(),
	)
}

// AspectRatio returns width/height of the configured window.
func (mod ClientModule) AspectRatio() float32 {
	if mod.WindowHeight == 0 {
		return 1
	}
	return float32(mod.WindowWidth) / float32(mod.WindowHeight)
}

func drawSystem(cmd *voxstream.Commands, state *clientState, frame *voxstream.FrameState) {
	if state.closed {
		return
	}
	if err := state.renderer.draw(state.gpu, frame.Draws); err != nil {
		cmd.Logger().Warnf("draw: %v", err)
	}
}

func shutdownSystem(state *clientState) {
	if state.closed || !state.window.window.ShouldClose() {
		return
	}
	state.closed = true
	state.renderer.release()
	state.gpu.release()
	state.window.window.Destroy()
	glfw.Terminate()
}
