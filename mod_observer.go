package voxstream

import (
	"github.com/gekko3d/voxstream/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraComponent is a viewpoint. Every camera is drawn; cameras that also
// carry a ChunkPosComponent keep the world streamed around them.
type CameraComponent struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32 // degrees
	Aspect   float32
	Near     float32
	Far      float32
}

func NewCamera(position, lookAt mgl32.Vec3, aspect float32) CameraComponent {
	return CameraComponent{
		Position: position,
		LookAt:   lookAt,
		Up:       mgl32.Vec3{0, 1, 0},
		Fov:      70,
		Aspect:   aspect,
		Near:     0.1,
		Far:      1000,
	}
}

func (c CameraComponent) ViewProjection() mgl32.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	view := mgl32.LookAtV(c.Position, c.LookAt, up)
	projection := mgl32.Perspective(mgl32.DegToRad(c.Fov), c.Aspect, c.Near, c.Far)
	return projection.Mul4(view)
}

// ChunkPosComponent tracks the chunk an observer stands in. Changed is raised
// for exactly one frame after Coord moves.
type ChunkPosComponent struct {
	Coord       voxel.ChunkCoord
	Changed     bool
	initialized bool
}

type ObserverModule struct{}

func (ObserverModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(observerChunkSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func observerChunkSystem(cmd *Commands) {
	MakeQuery2[CameraComponent, ChunkPosComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, pos *ChunkPosComponent) bool {
		coord := voxel.ChunkCoordOf(cam.Position)
		pos.Changed = !pos.initialized || coord != pos.Coord
		pos.Coord = coord
		pos.initialized = true
		return true
	})
}
