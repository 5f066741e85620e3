package voxstream

import (
	"time"
)

// LifetimeComponent removes its entity once TimeLeft runs out. A transient
// observer with a lifetime stops contributing to the streamed set on the
// frame after it is removed.
type LifetimeComponent struct {
	TimeLeft time.Duration
}

// LifecycleModule expires entities carrying a LifetimeComponent. Requires TimeModule.
type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(lifetimeSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func lifetimeSystem(t *Time, cmd *Commands) {
	if t.Dt <= 0 {
		return
	}
	MakeQuery1[LifetimeComponent](cmd).Map(func(eid EntityId, lt *LifetimeComponent) bool {
		lt.TimeLeft -= t.Dt
		if lt.TimeLeft <= 0 {
			cmd.Logger().Debugf("lifetime of entity %v expired", eid)
			cmd.RemoveEntity(eid)
		}
		return true
	})
}
