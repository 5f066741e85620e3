package client

import (
	"github.com/gekko3d/voxstream"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	KeyW int = iota
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyControl
	KeyShift
	KeyTab
	KeyEscape
	MouseButtonLeft
	MouseButtonRight
	keyCount
)

var keyToGlfw = map[int]glfw.Key{
	KeyW:       glfw.KeyW,
	KeyA:       glfw.KeyA,
	KeyS:       glfw.KeyS,
	KeyD:       glfw.KeyD,
	KeySpace:   glfw.KeySpace,
	KeyControl: glfw.KeyLeftControl,
	KeyShift:   glfw.KeyLeftShift,
	KeyTab:     glfw.KeyTab,
	KeyEscape:  glfw.KeyEscape,
}

var buttonToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:  glfw.MouseButtonLeft,
	MouseButtonRight: glfw.MouseButtonRight,
}

type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	MouseCaptured            bool
}

func (input *Input) update(key int, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

// inputSystem polls window events once per frame and requests a quit when the
// window is closed or Escape is pressed.
func inputSystem(cmd *voxstream.Commands, state *clientState, input *Input) {
	if state.closed {
		return
	}
	win := state.window.window
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.update(key, win.GetKey(glfwKey) == glfw.Press)
	}
	for btn, glfwBtn := range buttonToGlfw {
		input.update(btn, win.GetMouseButton(glfwBtn) == glfw.Press)
	}

	if input.JustPressed[KeyTab] {
		input.MouseCaptured = !input.MouseCaptured
		if input.MouseCaptured {
			win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else {
			win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	}

	mx, my := win.GetCursorPos()
	if input.MouseCaptured {
		input.MouseDeltaX = mx - input.MouseX
		input.MouseDeltaY = my - input.MouseY
	} else {
		input.MouseDeltaX = 0
		input.MouseDeltaY = 0
	}
	input.MouseX = mx
	input.MouseY = my

	if input.JustPressed[KeyEscape] {
		win.SetShouldClose(true)
	}
	if win.ShouldClose() {
		cmd.Quit()
	}
}

// flyingCameraInputSystem turns keyboard and mouse state into movement intents.
func flyingCameraInputSystem(cmd *voxstream.Commands, input *Input) {
	voxstream.MakeQuery1[voxstream.FlyingCameraComponent](cmd).Map(func(eid voxstream.EntityId, fly *voxstream.FlyingCameraComponent) bool {
		fly.Move = mgl32.Vec3{}
		if input.Pressed[KeyW] {
			fly.Move[2] += 1
		}
		if input.Pressed[KeyS] {
			fly.Move[2] -= 1
		}
		if input.Pressed[KeyA] {
			fly.Move[0] -= 1
		}
		if input.Pressed[KeyD] {
			fly.Move[0] += 1
		}
		if input.Pressed[KeySpace] {
			fly.Move[1] += 1
		}
		if input.Pressed[KeyControl] {
			fly.Move[1] -= 1
		}
		fly.Look[0] = float32(input.MouseDeltaX)
		fly.Look[1] = float32(input.MouseDeltaY)
		return true
	})
}
