package engine

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/14rynx/heat-simulator/internal/activity"
	"github.com/14rynx/heat-simulator/internal/damage"
	"github.com/14rynx/heat-simulator/internal/heat"
)

const tracerName = "github.com/14rynx/heat-simulator/internal/engine"

// Snapshot is the read-only state handed to an Observer after each tick.
// Distributions are copies; Modules is shared and must not be modified.
type Snapshot struct {
	Tick          int
	Heat          float64
	Distributions []*damage.Distribution
	Modules       []activity.Module
	Cycling       []bool // slot completed a cycle this tick
}

// Observer is called synchronously once per tick. A non-nil error aborts the run.
type Observer func(Snapshot) error

// Result is the state after the last tick.
type Result struct {
	Ticks         int
	Heat          float64
	Distributions []*damage.Distribution
}

// Rack simulates one fixed-position rack.
type Rack struct {
	cfg         Config
	modules     []activity.Module
	attenuation float64
	horizon     int
}

// New validates cfg and derives attenuation and the simulation horizon.
func New(cfg Config) (*Rack, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := &Rack{
		cfg:         cfg,
		modules:     append([]activity.Module(nil), cfg.Modules...),
		attenuation: DefaultAttenuation(len(cfg.Modules)),
	}
	if cfg.Attenuation != nil {
		r.attenuation = *cfg.Attenuation
	}
	for _, m := range r.modules {
		if h := m.Horizon(); h > r.horizon {
			r.horizon = h
		}
	}
	if r.horizon == 0 {
		return nil, ErrNoActivity
	}
	return r, nil
}

func (r *Rack) Slots() int           { return len(r.modules) }
func (r *Rack) Attenuation() float64 { return r.attenuation }

// Horizon is max(module horizon); ticks 1..Horizon()-1 are simulated.
func (r *Rack) Horizon() int { return r.horizon }

// Ticks is the number of ticks Run advances.
func (r *Rack) Ticks() int {
	if r.horizon <= 1 {
		return 0
	}
	return r.horizon - 1
}

/* -------------------------------------------------------------------------- */
/*                                  Run                                       */
/* -------------------------------------------------------------------------- */

// Run advances every tick in range and returns the final state.
// It returns early only on context cancellation or an observer error.
func (r *Rack) Run(ctx context.Context, obs Observer) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.Run", trace.WithAttributes(
		attribute.Int("rack.slots", r.Slots()),
		attribute.Int("rack.ticks", r.Ticks()),
		attribute.Float64("rack.attenuation", r.attenuation),
	))
	defer span.End()

	s := r.newState()
	for tick := 1; tick < r.horizon; tick++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled")
			return s.result(tick - 1), err
		}
		if err := s.advance(tick); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return s.result(tick - 1), err
		}
		if obs != nil {
			if err := obs(s.snapshot(tick)); err != nil {
				err = fmt.Errorf("engine: observer at tick %d: %w", tick, err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return s.result(tick), err
			}
		}
	}
	return s.result(r.Ticks()), nil
}

type state struct {
	r       *Rack
	heat    float64
	dists   []*damage.Distribution
	cycling []bool
	gates   []float64
}

func (r *Rack) newState() *state {
	n := len(r.modules)
	s := &state{
		r:       r,
		heat:    r.cfg.StartHeat,
		dists:   make([]*damage.Distribution, n),
		cycling: make([]bool, n),
		gates:   make([]float64, n),
	}
	for i, m := range r.modules {
		s.dists[i] = damage.New(m.HP)
	}
	return s
}

// advance computes tick from tick-1.
func (s *state) advance(tick int) error {
	r := s.r

	// Heat generated during the previous tick drives this update.
	u := 0.0
	for _, m := range r.modules {
		if m.IsGenerating(float64(tick - 1)) {
			u += m.HeatGeneration * r.cfg.ShipHeatGenerationModifier
		}
	}
	s.heat = heat.Step(s.heat, u)

	var sources []int
	for i, m := range r.modules {
		s.cycling[i] = m.IsCycleCompletion(float64(tick))
		if s.cycling[i] {
			sources = append(sources, i)
		}
	}
	if len(sources) == 0 {
		return nil
	}

	// Gates are read before any slot is touched this tick.
	for _, i := range sources {
		s.gates[i] = math.Min(1, s.dists[i].CumulativeUnder(r.modules[i].HP))
	}
	return s.forEachSlot(func(j int) error { return s.damageSlot(tick, j, sources) })
}

// damageSlot applies every cycling source's transition to slot j, in source order.
func (s *state) damageSlot(tick, j int, sources []int) error {
	r := s.r
	for _, i := range sources {
		modifier := math.Pow(r.attenuation, math.Abs(float64(i-j)))
		chance := s.heat * modifier * r.cfg.ShipChanceModifier * r.cfg.FilledChanceModifier
		if i != j {
			// A burnt-out source cannot threaten its neighbours.
			chance *= s.gates[i]
		}
		if err := s.dists[j].ApplyTransition(chance, r.modules[i].HeatDamage); err != nil {
			return fmt.Errorf("engine: tick %d slot %d from slot %d: %w", tick, j, i, err)
		}
	}
	return nil
}

// forEachSlot runs fn for every slot, split across Workers goroutines when set.
func (s *state) forEachSlot(fn func(j int) error) error {
	n := len(s.dists)
	workers := s.r.cfg.Workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for j := 0; j < n; j++ {
			if err := fn(j); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for j := w; j < n; j += workers {
				if err := fn(j); err != nil {
					errs[w] = err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) snapshot(tick int) Snapshot {
	return Snapshot{
		Tick:          tick,
		Heat:          s.heat,
		Distributions: cloneAll(s.dists),
		Modules:       s.r.modules,
		Cycling:       append([]bool(nil), s.cycling...),
	}
}

func (s *state) result(ticks int) Result {
	return Result{Ticks: ticks, Heat: s.heat, Distributions: cloneAll(s.dists)}
}

func cloneAll(ds []*damage.Distribution) []*damage.Distribution {
	out := make([]*damage.Distribution, len(ds))
	for i, d := range ds {
		out[i] = d.Clone()
	}
	return out
}
