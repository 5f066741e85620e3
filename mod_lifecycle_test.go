package voxstream

import (
	"testing"
	"time"

	"github.com/gekko3d/voxstream/streaming"
	"github.com/gekko3d/voxstream/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestLifecycle_ExpiresEntity(t *testing.T) {
	app := NewAppBuilder().
		UseModule(TimeModule{Fixed: 10 * time.Millisecond}, LifecycleModule{}).
		Build()
	cmd := app.Commands()
	eid := cmd.AddEntity(LifetimeComponent{TimeLeft: 25 * time.Millisecond})
	app.FlushCommands()

	app.Step()
	app.Step()
	assert.NotNil(t, getComponent[LifetimeComponent](app.ecs, eid), "alive after 20ms")

	app.Step()
	if c := getComponent[LifetimeComponent](app.ecs, eid); c != nil {
		t.Errorf("entity still alive with %v left", c.TimeLeft)
	}
}

func TestWorld_TransientObserverEvictsOnExpiry(t *testing.T) {
	app := newHeadlessApp(t, testConfig(2), LifecycleModule{})
	world := resourceOf[WorldState](t, app)

	spawnObserver(app, mgl32.Vec3{1, 1, 1})
	transient := spawnObserver(app, mgl32.Vec3{33, 1, 1})
	app.Commands().AddComponents(transient, LifetimeComponent{TimeLeft: time.Hour})
	app.FlushCommands()

	stepUntil(t, app, func() bool { return world.Map.Stats().Ready == 36 })

	getComponent[LifetimeComponent](app.ecs, transient).TimeLeft = time.Millisecond
	stepUntil(t, app, func() bool { return world.Map.Stats().Resident == 27 })
	assert.Equal(t, streaming.Absent, world.Map.State(voxel.ChunkCoord{X: 2}))
	assert.Equal(t, streaming.Ready, world.Map.State(voxel.ChunkCoord{X: 1}))
}
