package voxstream

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables for a world session and its renderer.
type Config struct {
	RenderRadius    int32   `yaml:"render_radius"`
	GenerationRate  float64 `yaml:"generation_rate"`
	Workers         int     `yaml:"workers"`
	Seed            uint32  `yaml:"seed"`
	ColorJitter     float32 `yaml:"color_jitter"`
	BackfaceCulling bool    `yaml:"backface_culling"`
	InstanceGrowth  float64 `yaml:"instance_growth"`

	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	WindowTitle  string `yaml:"window_title"`

	FlybySpeed float32 `yaml:"flyby_speed"`
	Debug      bool    `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		RenderRadius:    4,
		GenerationRate:  0.05,
		Workers:         runtime.NumCPU(),
		Seed:            1,
		BackfaceCulling: true,
		InstanceGrowth:  1,
		WindowWidth:     1280,
		WindowHeight:    720,
		WindowTitle:     "voxstream",
		FlybySpeed:      8,
	}
}

// LoadConfig reads a YAML file over the defaults. Missing keys keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.RenderRadius < 1 {
		errs = append(errs, fmt.Errorf("render_radius must be >= 1, got %d", c.RenderRadius))
	}
	if c.GenerationRate <= 0 {
		errs = append(errs, fmt.Errorf("generation_rate must be > 0, got %g", c.GenerationRate))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.WindowWidth <= 0 {
		errs = append(errs, fmt.Errorf("window_width must be > 0, got %d", c.WindowWidth))
	}
	if c.WindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("window_height must be > 0, got %d", c.WindowHeight))
	}
	if c.InstanceGrowth < 1 {
		errs = append(errs, fmt.Errorf("instance_growth must be >= 1, got %g", c.InstanceGrowth))
	}
	return errors.Join(errs...)
}
