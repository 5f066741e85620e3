package voxstream

import (
	"context"
	"slices"

	"github.com/gekko3d/voxstream/logging"
	"github.com/gekko3d/voxstream/streaming"
	"github.com/gekko3d/voxstream/voxel"
	"github.com/google/uuid"
)

// WorldModule streams chunks around every observer. In a stateful app the
// world lives for the duration of Session; otherwise it starts at install.
type WorldModule struct {
	Config    Config
	Session   State
	Generator voxel.Generator
}

// WorldState is the world resource shared by the streaming and render systems.
type WorldState struct {
	Map       *streaming.Map
	SessionID uuid.UUID
	Active    bool

	ctx       context.Context
	cancel    context.CancelFunc
	logger    Logger
	observers []voxel.ChunkCoord
}

func (mod WorldModule) Install(app *App, cmd *Commands) {
	cfg := mod.Config
	gen := mod.Generator
	if gen == nil {
		gen = voxel.HeightGenerator{Seed: cfg.Seed, ColorJitter: cfg.ColorJitter}
	}

	logger := app.Logger()
	if l, ok := logger.(*logging.DefaultLogger); ok {
		logger = l.With("world")
	}

	world := &WorldState{
		Map: streaming.NewMap(streaming.Options{
			Radius:         cfg.RenderRadius,
			GenerationRate: cfg.GenerationRate,
			Workers:        cfg.Workers,
			Generator:      gen,
			Logger:         logger,
		}),
		logger: logger,
	}
	cmd.AddResources(world)

	if app.stateful {
		app.UseSystem(System(worldBeginSystem).InStage(PreUpdate).InState(OnEnter(mod.Session)))
		app.UseSystem(System(worldStreamingSystem).InStage(Update).InState(OnExecute(mod.Session)))
		app.UseSystem(System(worldEndSystem).InStage(PostUpdate).InState(OnExit(mod.Session)))
	} else {
		world.Begin(context.Background())
		app.UseSystem(System(worldStreamingSystem).InStage(Update).RunAlways())
	}
}

// Begin starts a new session with a fresh id.
func (w *WorldState) Begin(ctx context.Context) {
	if w.Active {
		return
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.SessionID = uuid.New()
	w.Active = true
	w.observers = w.observers[:0]
	w.Map.Begin(w.ctx)
	w.logger.Infof("session %s started (radius %d, %d chunks/frame)", w.SessionID, w.Map.Radius(), w.Map.GenerationLimit())
}

// End clears the world. The evicted coordinates are still reported by the next Extract.
func (w *WorldState) End() {
	if !w.Active {
		return
	}
	st := w.Map.Stats()
	w.Map.End()
	w.cancel()
	w.Active = false
	w.logger.Infof("session %s ended (%d chunks attached, %d stale discarded)", w.SessionID, st.Attached, st.Discarded)
}

// Observers returns the observer chunk coordinates seen on the last update.
func (w *WorldState) Observers() []voxel.ChunkCoord {
	return w.observers
}

func worldBeginSystem(world *WorldState) {
	world.Begin(context.Background())
}

func worldEndSystem(world *WorldState) {
	world.End()
}

func worldStreamingSystem(cmd *Commands, world *WorldState) {
	if !world.Active {
		return
	}

	var coords []voxel.ChunkCoord
	changed := false
	MakeQuery2[CameraComponent, ChunkPosComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, pos *ChunkPosComponent) bool {
		if !pos.initialized {
			return true
		}
		coords = append(coords, pos.Coord)
		changed = changed || pos.Changed
		return true
	})
	slices.SortFunc(coords, compareCoords)

	// Observers joining or leaving change the union even when nobody moved.
	if changed || !slices.Equal(coords, world.observers) {
		world.observers = coords
		world.Map.Update(coords...)
	}
	world.Map.Poll()
}

func compareCoords(a, b voxel.ChunkCoord) int {
	switch {
	case a.X != b.X:
		return int(a.X) - int(b.X)
	case a.Y != b.Y:
		return int(a.Y) - int(b.Y)
	default:
		return int(a.Z) - int(b.Z)
	}
}
