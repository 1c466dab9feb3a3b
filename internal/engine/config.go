package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/14rynx/heat-simulator/internal/activity"
)

// Configuration errors. Each is detectable before the first tick.
var (
	ErrNoModules     = errors.New("engine: rack has no modules")
	ErrNoActivity    = errors.New("engine: no module has any activity")
	ErrInvalidConfig = errors.New("engine: invalid configuration")
)

// Config describes one rack run.
type Config struct {
	Modules []activity.Module

	StartHeat   float64  // initial rack heat in [0,1]
	Attenuation *float64 // nil = DefaultAttenuation(len(Modules))

	FilledChanceModifier       float64
	ShipChanceModifier         float64
	ShipHeatGenerationModifier float64

	Workers int // >1 splits per-slot updates across goroutines
}

// NewConfig returns a config over mods with all global modifiers at 1.
func NewConfig(mods ...activity.Module) Config {
	return Config{
		Modules:                    append([]activity.Module(nil), mods...),
		FilledChanceModifier:       1,
		ShipChanceModifier:         1,
		ShipHeatGenerationModifier: 1,
	}
}

// DefaultAttenuation is 0.25^(1/(n−1)) so the far end of an n-slot rack sees
// a quarter of the chance; single-slot racks have no neighbours and get 0.
func DefaultAttenuation(slots int) float64 {
	if slots <= 1 {
		return 0
	}
	return math.Pow(0.25, 1/float64(slots-1))
}

func unit(x float64) bool { return !math.IsNaN(x) && x >= 0 && x <= 1 }

func (c Config) validate() error {
	if len(c.Modules) == 0 {
		return ErrNoModules
	}
	for i, m := range c.Modules {
		switch {
		case !(m.CycleTime > 0):
			return fmt.Errorf("%w: module %d (%s): cycle time must be > 0", ErrInvalidConfig, i, m.Name)
		case !(m.HP > 0):
			return fmt.Errorf("%w: module %d (%s): hp must be > 0", ErrInvalidConfig, i, m.Name)
		case m.HeatDamage < 0 || math.IsNaN(m.HeatDamage):
			return fmt.Errorf("%w: module %d (%s): heat damage must be >= 0", ErrInvalidConfig, i, m.Name)
		case m.HeatGeneration < 0 || math.IsNaN(m.HeatGeneration):
			return fmt.Errorf("%w: module %d (%s): heat generation must be >= 0", ErrInvalidConfig, i, m.Name)
		}
	}
	if !unit(c.StartHeat) {
		return fmt.Errorf("%w: start heat %v outside [0,1]", ErrInvalidConfig, c.StartHeat)
	}
	if c.Attenuation != nil && !unit(*c.Attenuation) {
		return fmt.Errorf("%w: attenuation %v outside [0,1]", ErrInvalidConfig, *c.Attenuation)
	}
	if c.ShipChanceModifier < 0 || c.FilledChanceModifier < 0 {
		return fmt.Errorf("%w: chance modifiers must be >= 0", ErrInvalidConfig)
	}
	if p := c.ShipChanceModifier * c.FilledChanceModifier; !unit(p) {
		return fmt.Errorf("%w: ship * filled chance modifier %v outside [0,1]", ErrInvalidConfig, p)
	}
	if c.ShipHeatGenerationModifier < 0 || math.IsNaN(c.ShipHeatGenerationModifier) {
		return fmt.Errorf("%w: heat generation modifier must be >= 0", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	}
	return nil
}
