package visitors

import (
	"math"

	"github.com/14rynx/heat-simulator/internal/engine"
	"github.com/14rynx/heat-simulator/pkg/api"
)

// Readout turns engine snapshots into per-tick rows.
//
// Filtering: with Watch >= 0 only ticks where that slot completes a cycle are
// kept; otherwise every Every-th tick (Every ≤ 1 keeps all).
type Readout struct {
	RunID      string
	Watch      int
	Every      int
	Thresholds []float64
}

func (v Readout) keep(s engine.Snapshot) bool {
	if v.Watch >= 0 {
		return v.Watch < len(s.Cycling) && s.Cycling[v.Watch]
	}
	if v.Every > 1 {
		return s.Tick%v.Every == 0
	}
	return true
}

func (v Readout) Visit(s engine.Snapshot) (keep bool, out api.TickV1, err error) {
	if !v.keep(s) {
		return false, api.TickV1{}, nil
	}
	out = api.TickV1{
		RunID:    v.RunID,
		Tick:     s.Tick,
		RackHeat: s.Heat,
		Slots:    make([]api.SlotV1, len(s.Distributions)),
	}
	t := float64(s.Tick)
	if v.Watch >= 0 {
		c := int(math.Floor(t / s.Modules[v.Watch].CycleTime))
		out.Cycle = &c
	}
	for i, d := range s.Distributions {
		m := s.Modules[i]
		slot := api.SlotV1{
			Slot:       i,
			Name:       m.Name,
			Alive:      math.Min(1, d.CumulativeUnder(m.HP)),
			Expected:   d.ExpectedValue(),
			Green:      m.IsGreen(t),
			Generating: m.IsGenerating(t),
			Cycling:    s.Cycling[i],
		}
		if len(v.Thresholds) > 0 {
			slot.Over = make([]api.ThresholdV1, len(v.Thresholds))
			for k, lvl := range v.Thresholds {
				slot.Over[k] = api.ThresholdV1{Level: lvl, Chance: math.Min(1, d.CumulativeOver(lvl))}
			}
		}
		out.Slots[i] = slot
	}
	return true, out, nil
}
