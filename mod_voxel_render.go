package voxstream

import (
	"sort"

	"github.com/gekko3d/voxstream/gpu"
	"github.com/gekko3d/voxstream/logging"
	"github.com/gekko3d/voxstream/render"
)

var (
	Extract = Stage{Name: "Extract", UpdateType: DynamicUpdate}
	Prepare = Stage{Name: "Prepare", UpdateType: DynamicUpdate}
	Queue   = Stage{Name: "Queue", UpdateType: DynamicUpdate}
)

// RenderDevice is the GPU capability the voxel renderer uploads to. A window
// client installs one; without it the renderer runs on a MemoryDevice.
type RenderDevice struct {
	Device   gpu.Device
	Headless bool
}

// FrameState carries one frame's data from Extract to the backend.
type FrameState struct {
	Extraction render.Extraction
	Prepared   bool
	Draws      []render.DrawItem
}

type VoxelRenderState struct {
	State *render.State
}

// VoxelRenderModule adds the Extract, Prepare and Queue stages after PostUpdate.
// Install it after WorldModule.
type VoxelRenderModule struct {
	BackfaceCulling bool
	InstanceGrowth  float64
}

func (mod VoxelRenderModule) Install(app *App, cmd *Commands) {
	if !cmd.HasResource(&RenderDevice{}) {
		cmd.AddResources(&RenderDevice{Device: gpu.NewMemoryDevice(), Headless: true})
	}

	logger := app.Logger()
	if l, ok := logger.(*logging.DefaultLogger); ok {
		logger = l.With("render")
	}
	state := render.NewState(mod.BackfaceCulling, logger)
	state.Instances.GrowthFactor = mod.InstanceGrowth

	cmd.AddResources(
		&VoxelRenderState{State: state},
		&FrameState{},
	)

	app.UseStage(Extract, AfterStage(PostUpdate))
	app.UseStage(Prepare, AfterStage(Extract))
	app.UseStage(Queue, AfterStage(Prepare))

	app.UseSystem(System(extractSystem).InStage(Extract).RunAlways())
	app.UseSystem(System(prepareSystem).InStage(Prepare).RunAlways())
	app.UseSystem(System(queueSystem).InStage(Queue).RunAlways())
}

func extractSystem(world *WorldState, frame *FrameState) {
	frame.Extraction = world.Map.Extract()
	frame.Prepared = false
	frame.Draws = frame.Draws[:0]
}

func prepareSystem(cmd *Commands, frame *FrameState, rs *VoxelRenderState, dev *RenderDevice) {
	prepared, err := rs.State.Prepare(dev.Device, frame.Extraction)
	if err != nil {
		cmd.Logger().Errorf("prepare voxels: %v", err)
		panic(err)
	}
	frame.Prepared = prepared
	if prepared {
		cmd.Logger().Debugf("prepared %d chunks, %d removed, %d instances",
			len(frame.Extraction.Chunks), len(frame.Extraction.Removed), rs.State.Instances.Len())
	}
}

func queueSystem(cmd *Commands, frame *FrameState, rs *VoxelRenderState) {
	var views []render.View
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		views = append(views, render.View{ID: uint64(eid), ViewProjection: cam.ViewProjection()})
		return true
	})
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })

	frame.Draws = rs.State.Queue(views)
}
