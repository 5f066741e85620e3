package voxstream

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FlybyComponent moves a camera at a constant velocity in world units per second.
type FlybyComponent struct {
	Velocity mgl32.Vec3
}

// FlybyModule drives cameras carrying a FlybyComponent. Requires TimeModule.
type FlybyModule struct{}

func (FlybyModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(flybySystem).
			InStage(Update).
			RunAlways(),
	)
}

func flybySystem(cmd *Commands, t *Time) {
	dt := float32(t.Dt.Seconds())
	if dt <= 0 {
		return
	}
	MakeQuery2[CameraComponent, FlybyComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, fly *FlybyComponent) bool {
		step := fly.Velocity.Mul(dt)
		cam.Position = cam.Position.Add(step)
		cam.LookAt = cam.LookAt.Add(step)
		return true
	})
}
