// internal/scenario/scenario.go
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/14rynx/heat-simulator/internal/activity"
	"github.com/14rynx/heat-simulator/internal/engine"
)

// File is the YAML document shape. Omitted numbers fall back to defaults.
type File struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Rack        RackFile     `yaml:"rack,omitempty"`
	Watch       *int         `yaml:"watch,omitempty"`
	Thresholds  []float64    `yaml:"thresholds,omitempty"`
	Modules     []ModuleFile `yaml:"modules"`
}

// RackFile holds rack-wide constants.
type RackFile struct {
	StartHeat                  *float64 `yaml:"start_heat,omitempty"`
	Attenuation                *float64 `yaml:"attenuation,omitempty"`
	FilledChanceModifier       *float64 `yaml:"filled_chance_modifier,omitempty"`
	ShipChanceModifier         *float64 `yaml:"ship_chance_modifier,omitempty"`
	ShipHeatGenerationModifier *float64 `yaml:"ship_heat_generation_modifier,omitempty"`
}

// ModuleFile is one slot.
type ModuleFile struct {
	Name           string      `yaml:"name,omitempty"`
	HP             *float64    `yaml:"hp,omitempty"`
	HeatDamage     *float64    `yaml:"heat_damage,omitempty"`
	HeatGeneration *float64    `yaml:"heat_generation,omitempty"`
	CycleTime      *float64    `yaml:"cycle_time,omitempty"`
	Intervals      [][]float64 `yaml:"intervals,omitempty"`
}

// Scenario is a resolved, ready-to-run rack description.
type Scenario struct {
	Name        string
	Description string
	Config      engine.Config
	Watch       int // slot whose cycle completions gate readouts; -1 = every tick
	Thresholds  []float64
}

// Names returns the slot names in rack order.
func (s Scenario) Names() []string {
	out := make([]string, len(s.Config.Modules))
	for i, m := range s.Config.Modules {
		out[i] = m.Name
	}
	return out
}

// Load reads and resolves a scenario file.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	sc, err := Parse(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (Scenario, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Scenario{}, errors.New("scenario: empty document")
	}
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	return f.Resolve()
}

func or(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Resolve applies defaults and checks interval well-formedness.
func (f File) Resolve() (Scenario, error) {
	if len(f.Modules) == 0 {
		return Scenario{}, errors.New("scenario: no modules")
	}
	mods := make([]activity.Module, 0, len(f.Modules))
	for i, mf := range f.Modules {
		m, err := mf.resolve(i)
		if err != nil {
			return Scenario{}, err
		}
		mods = append(mods, m)
	}

	cfg := engine.NewConfig(mods...)
	cfg.StartHeat = or(f.Rack.StartHeat, 0)
	cfg.FilledChanceModifier = or(f.Rack.FilledChanceModifier, 1)
	cfg.ShipChanceModifier = or(f.Rack.ShipChanceModifier, 1)
	cfg.ShipHeatGenerationModifier = or(f.Rack.ShipHeatGenerationModifier, 1)
	if f.Rack.Attenuation != nil {
		a := *f.Rack.Attenuation
		cfg.Attenuation = &a
	}

	watch := -1
	if f.Watch != nil {
		watch = *f.Watch
		if watch < 0 || watch >= len(mods) {
			return Scenario{}, fmt.Errorf("scenario: watch slot %d outside 0..%d", watch, len(mods)-1)
		}
	}

	return Scenario{
		Name:        f.Name,
		Description: f.Description,
		Config:      cfg,
		Watch:       watch,
		Thresholds:  append([]float64(nil), f.Thresholds...),
	}, nil
}

func (mf ModuleFile) resolve(slot int) (activity.Module, error) {
	m := activity.Defaults()
	m.Name = mf.Name
	if m.Name == "" {
		m.Name = fmt.Sprintf("slot%d", slot+1)
	}
	m.HP = or(mf.HP, m.HP)
	m.HeatDamage = or(mf.HeatDamage, m.HeatDamage)
	m.HeatGeneration = or(mf.HeatGeneration, m.HeatGeneration)
	m.CycleTime = or(mf.CycleTime, m.CycleTime)

	for k, pair := range mf.Intervals {
		if len(pair) != 2 {
			return m, fmt.Errorf("scenario: module %q interval %d: want [start, end], got %d values", m.Name, k+1, len(pair))
		}
		iv := activity.Interval{Start: pair[0], End: pair[1]}
		switch {
		case iv.Start < 0:
			return m, fmt.Errorf("scenario: module %q interval %d: start %v < 0", m.Name, k+1, iv.Start)
		case iv.End < iv.Start:
			return m, fmt.Errorf("scenario: module %q interval %d: end %v before start %v", m.Name, k+1, iv.End, iv.Start)
		case k > 0 && iv.Start <= m.Intervals[k-1].End:
			return m, fmt.Errorf("scenario: module %q interval %d overlaps or precedes interval %d", m.Name, k+1, k)
		}
		m.Intervals = append(m.Intervals, iv)
	}
	return m, nil
}
