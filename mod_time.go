package voxstream

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration
	// Fixed, when non-zero, replaces the measured frame delta.
	Fixed time.Duration
}

type TimeModule struct {
	Fixed time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time:  time.Now(),
		Dt:    0,
		Fixed: mod.Fixed,
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	if timeResource.Fixed > 0 {
		timeResource.Dt = timeResource.Fixed
	}
	timeResource.Time = now
}
