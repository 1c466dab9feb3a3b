// internal/activity/module.go
// Activity timeline of one rack module.
//
// Ticks are float64 so interval bounds may sit on fractional offsets
// (e.g. 20 cycles of a 3.49 s launcher end at 69.8). A module is:
//   - green: inside [start, end] of an interval (nominally overheated)
//   - generating: from start up to the first cycle boundary at or after end
//   - cycling: on ticks where a cycle counted from start completes
//
// This package has no app/output deps; the engine imports it cleanly.
package activity

import "math"

// Interval is a closed [Start, End] tick range during which a module is driven.
type Interval struct {
	Start float64
	End   float64
}

// Module is the immutable per-run configuration of one rack slot.
type Module struct {
	Name           string
	HP             float64 // damage ceiling; also the max level of its distribution
	HeatDamage     float64 // levels added on a hit
	HeatGeneration float64 // heat units per tick while generating
	CycleTime      float64 // ticks per operating cycle (> 0)
	Intervals      []Interval
}

// Per-module defaults, used for any field a scenario leaves out.
const (
	DefaultHP             = 40
	DefaultHeatDamage     = 2.7
	DefaultHeatGeneration = 0.01
	DefaultCycleTime      = 3.75
)

// Defaults returns a module with the default heat profile and no activity.
// Every call returns a fresh, empty interval list.
func Defaults() Module {
	return Module{
		HP:             DefaultHP,
		HeatDamage:     DefaultHeatDamage,
		HeatGeneration: DefaultHeatGeneration,
		CycleTime:      DefaultCycleTime,
		Intervals:      []Interval{},
	}
}

// WithIntervals returns a copy of m driven during the given intervals.
func (m Module) WithIntervals(iv ...Interval) Module {
	m.Intervals = append([]Interval(nil), iv...)
	return m
}

// cycleBoundary is the first multiple of CycleTime at or after end.
func (m Module) cycleBoundary(end float64) float64 {
	return m.CycleTime * math.Ceil(end/m.CycleTime)
}

// IsGreen reports whether tick lies inside a nominal [start, end] interval.
func (m Module) IsGreen(tick float64) bool {
	for _, iv := range m.Intervals {
		if iv.Start <= tick && tick <= iv.End {
			return true
		}
	}
	return false
}

// IsGenerating reports whether the module produces heat at tick.
// A module that stops mid-cycle keeps generating until the cycle boundary.
func (m Module) IsGenerating(tick float64) bool {
	for _, iv := range m.Intervals {
		if iv.Start <= tick && tick <= m.cycleBoundary(iv.End) {
			return true
		}
	}
	return false
}

// IsCycleCompletion reports whether a cycle completes at tick.
//
// The first interval whose window [start+1, boundary(end)] contains tick
// decides; later intervals are not consulted, so adjacent intervals whose
// extended windows touch never yield two completions for one tick.
func (m Module) IsCycleCompletion(tick float64) bool {
	for _, iv := range m.Intervals {
		if iv.Start+1 <= tick && tick <= m.cycleBoundary(iv.End) {
			return math.Mod(tick-iv.Start, m.CycleTime) < 1
		}
	}
	return false
}

// Horizon is the first tick after which the module has no further effect:
// ceil(last end)+1, or 0 without intervals.
func (m Module) Horizon() int {
	if len(m.Intervals) == 0 {
		return 0
	}
	return int(math.Ceil(m.Intervals[len(m.Intervals)-1].End)) + 1
}
