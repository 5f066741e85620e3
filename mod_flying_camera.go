package voxstream

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FlyingCameraModule steers cameras from the Move and Look intents on their
// FlyingCameraComponent. A window client fills those from the keyboard and
// mouse; without one they stay zero. Requires TimeModule.
type FlyingCameraModule struct{}

func (m FlyingCameraModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(flyingCameraControlSystem).
			InStage(Update).
			RunAlways(),
	)
}

type FlyingCameraComponent struct {
	Speed       float32
	Sensitivity float32
	Yaw         float32 // degrees, 0 looks down -Z
	Pitch       float32 // degrees
	Move        mgl32.Vec3
	Look        mgl32.Vec2
}

// Forward returns the unit view direction for the current yaw and pitch.
func (fly FlyingCameraComponent) Forward() mgl32.Vec3 {
	yawRad := float64(mgl32.DegToRad(fly.Yaw))
	pitchRad := float64(mgl32.DegToRad(fly.Pitch))
	return mgl32.Vec3{
		float32(math.Sin(yawRad) * math.Cos(pitchRad)),
		float32(math.Sin(pitchRad)),
		float32(-math.Cos(yawRad) * math.Cos(pitchRad)),
	}.Normalize()
}

func flyingCameraControlSystem(cmd *Commands, t *Time) {
	dt := float32(t.Dt.Seconds())

	MakeQuery2[CameraComponent, FlyingCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, fly *FlyingCameraComponent) bool {
		if fly.Sensitivity == 0 {
			fly.Sensitivity = 0.1
		}
		if fly.Speed == 0 {
			fly.Speed = 5.0
		}

		fly.Yaw += fly.Look[0] * fly.Sensitivity
		fly.Pitch -= fly.Look[1] * fly.Sensitivity
		fly.Pitch = mgl32.Clamp(fly.Pitch, -89, 89)

		forward := fly.Forward()
		up := mgl32.Vec3{0, 1, 0}
		right := forward.Cross(up).Normalize()

		moveDir := right.Mul(fly.Move[0]).
			Add(up.Mul(fly.Move[1])).
			Add(forward.Mul(fly.Move[2]))
		if dt > 0 && moveDir.Len() > 0 {
			cam.Position = cam.Position.Add(moveDir.Normalize().Mul(fly.Speed * dt))
		}

		cam.LookAt = cam.Position.Add(forward)
		cam.Up = up
		return true
	})
}
