package main

import (
	"flag"
	"log"

	"github.com/gekko3d/voxstream"
	"github.com/gekko3d/voxstream/client"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	stateSession voxstream.State = iota
	stateDone
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config (defaults when empty)")
		headless   = flag.Bool("headless", false, "run without a window on an in-memory device")
		frames     = flag.Uint64("frames", 600, "frames to run in headless mode")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	cfg := voxstream.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = voxstream.LoadConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	cfg.Debug = cfg.Debug || *debug

	builder := voxstream.NewAppBuilder().
		UseStates(stateSession, stateDone).
		UseModule(
			voxstream.LoggingModule{Prefix: "voxstream", Debug: cfg.Debug},
			voxstream.TimeModule{},
		)
	if !*headless {
		builder.UseModule(client.ClientModule{
			WindowWidth:  cfg.WindowWidth,
			WindowHeight: cfg.WindowHeight,
			WindowTitle:  cfg.WindowTitle,
		})
	}
	builder.UseModule(
		voxstream.ObserverModule{},
		voxstream.FlybyModule{},
		voxstream.FlyingCameraModule{},
		voxstream.WorldModule{Config: cfg, Session: stateSession},
		voxstream.VoxelRenderModule{
			BackfaceCulling: cfg.BackfaceCulling,
			InstanceGrowth:  cfg.InstanceGrowth,
		},
	)
	app := builder.Build()

	aspect := float32(cfg.WindowWidth) / float32(cfg.WindowHeight)
	cmd := app.Commands()
	camera := voxstream.NewCamera(mgl32.Vec3{0, 40, 0}, mgl32.Vec3{0, 40, -1}, aspect)
	components := []any{
		&camera,
		&voxstream.ChunkPosComponent{},
	}
	if *headless {
		components = append(components, &voxstream.FlybyComponent{Velocity: mgl32.Vec3{cfg.FlybySpeed, 0, 0}})
	} else {
		components = append(components, &voxstream.FlyingCameraComponent{Speed: cfg.FlybySpeed})
	}
	cmd.AddEntity(components...)

	if *headless {
		limit := *frames
		app.UseSystem(
			voxstream.System(func(cmd *voxstream.Commands) {
				if app.Frame()+1 >= limit {
					cmd.Quit()
				}
			}).
				InStage(voxstream.Finale).
				RunAlways(),
		)
	}
	app.FlushCommands()

	app.Run()
	app.Logger().Infof("finished after %d frames", app.Frame())
}
