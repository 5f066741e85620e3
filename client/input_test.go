package client

import "testing"

func TestInputEdges(t *testing.T) {
	var input Input

	input.update(KeyW, true)
	if !input.Pressed[KeyW] || !input.JustPressed[KeyW] {
		t.Fatalf("first press: pressed=%v just=%v", input.Pressed[KeyW], input.JustPressed[KeyW])
	}

	input.update(KeyW, true)
	if input.JustPressed[KeyW] {
		t.Errorf("held key reported as just pressed")
	}

	input.update(KeyW, false)
	if input.Pressed[KeyW] || !input.JustReleased[KeyW] {
		t.Errorf("release: pressed=%v released=%v", input.Pressed[KeyW], input.JustReleased[KeyW])
	}

	input.update(KeyW, false)
	if input.JustReleased[KeyW] {
		t.Errorf("idle key reported as just released")
	}
}
