// internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/14rynx/heat-simulator/internal/activity"
	"github.com/14rynx/heat-simulator/internal/damage"
)

func mod(hp, dmg, gen, cycle float64, iv ...activity.Interval) activity.Module {
	return activity.Module{HP: hp, HeatDamage: dmg, HeatGeneration: gen, CycleTime: cycle}.WithIntervals(iv...)
}

func ptr(f float64) *float64 { return &f }

func mustNew(t *testing.T, cfg Config) *Rack {
	t.Helper()
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func collect(t *testing.T, r *Rack) []Snapshot {
	t.Helper()
	var snaps []Snapshot
	if _, err := r.Run(context.Background(), func(s Snapshot) error {
		snaps = append(snaps, s)
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return snaps
}

func near(a, b float64) bool { return math.Abs(a-b) <= 1e-9 }

/* -------------------------------------------------------------------------- */
/*                              configuration                                 */
/* -------------------------------------------------------------------------- */

func TestNew_ConfigErrors(t *testing.T) {
	active := mod(40, 2.7, 0.01, 3.75, activity.Interval{Start: 0, End: 10})
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"empty", NewConfig(), ErrNoModules},
		{"no activity", NewConfig(activity.Defaults(), activity.Defaults()), ErrNoActivity},
		{"zero cycle", NewConfig(mod(40, 1, 0.01, 0, activity.Interval{Start: 0, End: 5})), ErrInvalidConfig},
		{"zero hp", NewConfig(mod(0, 1, 0.01, 1, activity.Interval{Start: 0, End: 5})), ErrInvalidConfig},
		{"negative damage", NewConfig(mod(40, -1, 0.01, 1, activity.Interval{Start: 0, End: 5})), ErrInvalidConfig},
		{"negative generation", NewConfig(mod(40, 1, -0.01, 1, activity.Interval{Start: 0, End: 5})), ErrInvalidConfig},
		{"negative modifier", func() Config { c := NewConfig(active); c.FilledChanceModifier = -1; return c }(), ErrInvalidConfig},
		{"heat generation modifier", func() Config { c := NewConfig(active); c.ShipHeatGenerationModifier = -1; return c }(), ErrInvalidConfig},
		{"attenuation", func() Config { c := NewConfig(active); c.Attenuation = ptr(1.5); return c }(), ErrInvalidConfig},
		{"start heat", func() Config { c := NewConfig(active); c.StartHeat = -0.1; return c }(), ErrInvalidConfig},
		{"chance product", func() Config { c := NewConfig(active); c.ShipChanceModifier = 2; return c }(), ErrInvalidConfig},
		{"workers", func() Config { c := NewConfig(active); c.Workers = -1; return c }(), ErrInvalidConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if !ascii(err.Error()) {
				t.Fatalf("non-ASCII error message %q", err)
			}
		})
	}
}

func ascii(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

func TestNew_ChanceProductWithinUnitIsAccepted(t *testing.T) {
	c := NewConfig(mod(40, 2.7, 0.01, 3.75, activity.Interval{Start: 0, End: 10}))
	c.ShipChanceModifier = 2
	c.FilledChanceModifier = 0.5
	if _, err := New(c); err != nil {
		t.Fatalf("2 * 0.5 should be accepted: %v", err)
	}
}

func TestDefaultAttenuation(t *testing.T) {
	cases := map[int]float64{
		0: 0,
		1: 0,
		2: 0.25,
		3: 0.5,
		5: math.Pow(0.25, 0.25),
	}
	for n, want := range cases {
		if got := DefaultAttenuation(n); !near(got, want) {
			t.Fatalf("slots %d: got %v want %v", n, got, want)
		}
	}
	// Far end of the rack always sees 0.25.
	for n := 2; n <= 8; n++ {
		if got := math.Pow(DefaultAttenuation(n), float64(n-1)); !near(got, 0.25) {
			t.Fatalf("slots %d: end-to-end coupling %v", n, got)
		}
	}
}

func TestNew_AttenuationOverride(t *testing.T) {
	a := mod(40, 2.7, 0.01, 3.75, activity.Interval{Start: 0, End: 10})
	c := NewConfig(a, activity.Defaults(), activity.Defaults())
	if r := mustNew(t, c); !near(r.Attenuation(), 0.5) {
		t.Fatalf("default attenuation %v", r.Attenuation())
	}
	c.Attenuation = ptr(0)
	if r := mustNew(t, c); r.Attenuation() != 0 {
		t.Fatalf("explicit zero must be honoured, got %v", r.Attenuation())
	}
}

func TestHorizonAndTicks(t *testing.T) {
	r := mustNew(t, NewConfig(
		mod(40, 1, 0.01, 2, activity.Interval{Start: 0, End: 20}),
		mod(40, 1, 0.01, 2, activity.Interval{Start: 5, End: 30.5}),
		activity.Defaults(),
	))
	if r.Horizon() != 32 {
		t.Fatalf("horizon %d, want 32", r.Horizon())
	}
	snaps := collect(t, r)
	if len(snaps) != 31 || snaps[0].Tick != 1 || snaps[len(snaps)-1].Tick != 31 {
		t.Fatalf("ran ticks %d..%d (%d)", snaps[0].Tick, snaps[len(snaps)-1].Tick, len(snaps))
	}
}

/* -------------------------------------------------------------------------- */
/*                                scenarios                                   */
/* -------------------------------------------------------------------------- */

// Single module heating a one-slot rack for 500 ticks.
func TestScenario_HeatApproachesFixedPoint(t *testing.T) {
	c := NewConfig(mod(40, 2.7, 0.01, 3.75, activity.Interval{Start: 0, End: 500}))
	r := mustNew(t, c)
	if r.Attenuation() != 0 {
		t.Fatalf("single-slot attenuation %v", r.Attenuation())
	}
	prev := 0.0
	for _, s := range collect(t, r) {
		if s.Heat > 1 {
			t.Fatalf("tick %d: heat %v above clamp", s.Tick, s.Heat)
		}
		if s.Heat < prev {
			t.Fatalf("tick %d: heat decreased", s.Tick)
		}
		want := 1 - math.Exp(-0.01*float64(s.Tick))
		if !near(s.Heat, want) {
			t.Fatalf("tick %d: heat %v want %v", s.Tick, s.Heat, want)
		}
		prev = s.Heat
	}
	if prev < 0.99 {
		t.Fatalf("final heat %v", prev)
	}
}

func TestScenario_HeatClampsBeforeTick500(t *testing.T) {
	c := NewConfig(mod(40, 2.7, 0.02, 3.75, activity.Interval{Start: 0, End: 500}))
	clamped := 0
	for _, s := range collect(t, mustNew(t, c)) {
		if s.Heat > 1 {
			t.Fatalf("tick %d: heat %v", s.Tick, s.Heat)
		}
		if s.Heat == 1 && clamped == 0 {
			clamped = s.Tick
		}
	}
	if clamped == 0 || clamped >= 500 {
		t.Fatalf("clamp first hit at %d", clamped)
	}
}

// Zero damage amount leaves every distribution at {0: 1} exactly.
func TestScenario_ZeroDamageNeverMovesMass(t *testing.T) {
	c := NewConfig(
		mod(40, 0, 0.05, 3.75, activity.Interval{Start: 0, End: 200}),
		activity.Defaults(),
	)
	for _, s := range collect(t, mustNew(t, c)) {
		for slot, d := range s.Distributions {
			pts := d.Points()
			if len(pts) != 1 || pts[0].Level != 0 || pts[0].Mass != 1 {
				t.Fatalf("tick %d slot %d: %v", s.Tick, slot, pts)
			}
		}
	}
}

func TestScenario_NeighbourTakesAttenuatedDamage(t *testing.T) {
	c := NewConfig(
		mod(40, 2.7, 0.02, 3.75, activity.Interval{Start: 0, End: 200}),
		activity.Defaults(),
	)
	res, err := mustNew(t, c).Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	self, next := res.Distributions[0], res.Distributions[1]
	if next.ExpectedValue() <= 0 {
		t.Fatal("idle neighbour should accumulate damage")
	}
	if next.ExpectedValue() >= self.ExpectedValue() {
		t.Fatalf("neighbour %v should take less than the source %v", next.ExpectedValue(), self.ExpectedValue())
	}
	for i, d := range res.Distributions {
		if !near(d.Sum(), 1) {
			t.Fatalf("slot %d sum %v", i, d.Sum())
		}
	}
}

func TestScenario_CycleCompletionsDriveDamage(t *testing.T) {
	c := NewConfig(mod(40, 1, 0.01, 2, activity.Interval{Start: 0, End: 20}))
	hits := 0
	prevLen := 1
	for _, s := range collect(t, mustNew(t, c)) {
		wantCycle := s.Tick%2 == 0 && s.Tick <= 20
		if s.Cycling[0] != wantCycle {
			t.Fatalf("tick %d: cycling %v", s.Tick, s.Cycling[0])
		}
		n := s.Distributions[0].Len()
		if n != prevLen {
			if !wantCycle {
				t.Fatalf("tick %d: distribution changed off-cycle", s.Tick)
			}
			hits++
		}
		prevLen = n
	}
	if hits != 10 {
		t.Fatalf("distribution grew %d times, want 10", hits)
	}
}

// One-slot rack: distance to self is zero, so attenuation never applies.
func TestScenario_SingleSlotIgnoresAttenuation(t *testing.T) {
	m := mod(40, 2.7, 0.01, 3.75, activity.Interval{Start: 0, End: 10})
	first := func(c Config) *damage.Distribution {
		for _, s := range collect(t, mustNew(t, c)) {
			if s.Cycling[0] {
				return s.Distributions[0]
			}
		}
		t.Fatal("no cycle")
		return nil
	}

	def := NewConfig(m)
	over := NewConfig(m)
	over.Attenuation = ptr(0.3)

	h4 := 1 - math.Exp(-0.04)
	for name, d := range map[string]*damage.Distribution{"default": first(def), "override": first(over)} {
		if !near(d.MassAt(2.7), h4) || !near(d.MassAt(0), 1-h4) {
			t.Fatalf("%s: first cycle at tick 4 should hit with chance %v, got %v", name, h4, d.Points())
		}
	}
}

/* -------------------------------------------------------------------------- */
/*                          gating and snapshots                              */
/* -------------------------------------------------------------------------- */

func TestGating_UsesSourceSurvivalBeforeTick(t *testing.T) {
	c := NewConfig(
		mod(1, 5, 0.01, 1, activity.Interval{Start: 0, End: 2}),
		mod(40, 2.7, 0, 1),
	)
	c.StartHeat = 1
	c.Attenuation = ptr(1)
	c.ShipChanceModifier = 0.5

	snaps := collect(t, mustNew(t, c))
	if len(snaps) != 2 {
		t.Fatalf("ticks %d", len(snaps))
	}

	s1 := snaps[0]
	if s1.Heat != 1 {
		t.Fatalf("heat %v", s1.Heat)
	}
	// Tick 1: the source is intact when the tick starts, so the neighbour sees 0.5.
	if !near(s1.Distributions[0].MassAt(1), 0.5) || !near(s1.Distributions[1].MassAt(5), 0.5) {
		t.Fatalf("tick 1: %v | %v", s1.Distributions[0].Points(), s1.Distributions[1].Points())
	}

	// Tick 2: gate is 0.5, so the neighbour's chance is 0.25.
	s2 := snaps[1]
	want := map[float64]float64{0: 0.375, 5: 0.5, 10: 0.125}
	for lvl, m := range want {
		if got := s2.Distributions[1].MassAt(lvl); !near(got, m) {
			t.Fatalf("tick 2 level %v: got %v want %v (%v)", lvl, got, m, s2.Distributions[1].Points())
		}
	}
	if !near(s2.Distributions[0].MassAt(1), 0.75) {
		t.Fatalf("tick 2 source: %v", s2.Distributions[0].Points())
	}
}

func TestGating_BurntSourceStopsPropagating(t *testing.T) {
	c := NewConfig(
		mod(1, 5, 0.01, 1, activity.Interval{Start: 0, End: 6}),
		mod(40, 2.7, 0, 1),
	)
	c.StartHeat = 1
	c.Attenuation = ptr(1)

	snaps := collect(t, mustNew(t, c))
	after1 := snaps[0].Distributions[1].Points()
	for _, s := range snaps[1:] {
		if s.Distributions[0].MassAt(1) != 1 {
			t.Fatalf("tick %d: source should be burnt out", s.Tick)
		}
		pts := s.Distributions[1].Points()
		if len(pts) != len(after1) || pts[0] != after1[0] {
			t.Fatalf("tick %d: neighbour changed after source burnt out: %v", s.Tick, pts)
		}
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := NewConfig(mod(40, 2.7, 0.05, 1, activity.Interval{Start: 0, End: 10}))
	var first Snapshot
	if _, err := mustNew(t, c).Run(context.Background(), func(s Snapshot) error {
		if s.Tick == 1 {
			first = s
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if first.Distributions[0].Len() != 2 {
		t.Fatalf("tick-1 snapshot mutated by later ticks: %v", first.Distributions[0].Points())
	}
}

/* -------------------------------------------------------------------------- */
/*                        determinism and run control                         */
/* -------------------------------------------------------------------------- */

func busyRack(workers int) Config {
	gun := mod(40, 2.7, 0.01, 3.75, activity.Interval{Start: 0, End: 120})
	rl := mod(40, 1.05, 0.02, 3.49, activity.Interval{Start: 0, End: 69.8}, activity.Interval{Start: 104.8, End: 174.6})
	mwd := mod(40, 6.15, 0.04, 10, activity.Interval{Start: 20, End: 60})
	c := NewConfig(gun, activity.Defaults(), rl, mwd, activity.Defaults(), rl)
	c.ShipHeatGenerationModifier = 0.5
	c.FilledChanceModifier = 17.0 / 20
	c.Workers = workers
	return c
}

func TestDeterminism_RepeatAndParallel(t *testing.T) {
	ref := collect(t, mustNew(t, busyRack(0)))
	for _, workers := range []int{0, 2, 3, 16} {
		got := collect(t, mustNew(t, busyRack(workers)))
		if len(got) != len(ref) {
			t.Fatalf("workers %d: %d ticks vs %d", workers, len(got), len(ref))
		}
		for i := range ref {
			if got[i].Heat != ref[i].Heat {
				t.Fatalf("workers %d tick %d: heat differs", workers, ref[i].Tick)
			}
			for slot := range ref[i].Distributions {
				a, b := ref[i].Distributions[slot].Points(), got[i].Distributions[slot].Points()
				if len(a) != len(b) {
					t.Fatalf("workers %d tick %d slot %d: support differs", workers, ref[i].Tick, slot)
				}
				for k := range a {
					if a[k] != b[k] {
						t.Fatalf("workers %d tick %d slot %d: %v vs %v", workers, ref[i].Tick, slot, a[k], b[k])
					}
				}
			}
		}
	}
}

func TestRun_ProbabilityInvariants(t *testing.T) {
	prevCap := make([]float64, 6)
	for _, s := range collect(t, mustNew(t, busyRack(0))) {
		if s.Heat < 0 || s.Heat > 1 {
			t.Fatalf("tick %d: heat %v", s.Tick, s.Heat)
		}
		for i, d := range s.Distributions {
			if !near(d.Sum(), 1) {
				t.Fatalf("tick %d slot %d: sum %v", s.Tick, i, d.Sum())
			}
			if !near(d.CumulativeUnder(d.MaxLevel()+1), 1) {
				t.Fatalf("tick %d slot %d: mass escaped", s.Tick, i)
			}
			atCap := d.MassAt(d.MaxLevel())
			if atCap < prevCap[i] {
				t.Fatalf("tick %d slot %d: burnout mass decreased", s.Tick, i)
			}
			prevCap[i] = atCap
		}
	}
}

func TestRun_ObserverErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	res, err := mustNew(t, busyRack(0)).Run(context.Background(), func(s Snapshot) error {
		if s.Tick == 7 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "tick 7") {
		t.Fatalf("error should name the tick: %v", err)
	}
	if res.Ticks != 7 {
		t.Fatalf("result ticks %d", res.Ticks)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, err := mustNew(t, busyRack(0)).Run(ctx, func(s Snapshot) error {
		if s.Tick == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestRun_NilObserverMatchesFinalSnapshot(t *testing.T) {
	r := mustNew(t, busyRack(0))
	snaps := collect(t, r)
	res, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	last := snaps[len(snaps)-1]
	if res.Ticks != last.Tick || res.Heat != last.Heat {
		t.Fatalf("result %d/%v vs last snapshot %d/%v", res.Ticks, res.Heat, last.Tick, last.Heat)
	}
	for i := range res.Distributions {
		if res.Distributions[i].ExpectedValue() != last.Distributions[i].ExpectedValue() {
			t.Fatalf("slot %d differs between runs", i)
		}
	}
}
