// internal/damage/distribution.go
// Discrete probability mass over accumulated damage levels.
//
// One ApplyTransition is a single step of a branching Markov chain: every
// level splits into a miss branch (stays) and a hit branch (moves up by the
// hit amount, capped at MaxLevel). MaxLevel is absorbing.
//
// Points are kept sorted by level so that mass arriving at one level is
// always summed in the same order, which makes runs bit-reproducible.
package damage

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidChance is returned for hit chances outside [0,1] (or NaN).
var ErrInvalidChance = errors.New("damage: hit chance must be in [0,1]")

// Point is the probability mass held at one damage level.
type Point struct {
	Level float64
	Mass  float64
}

// Distribution is a PMF over damage levels in [0, MaxLevel].
type Distribution struct {
	maxLevel float64
	points   []Point // ascending by Level, levels unique
}

// New returns the certain-zero distribution {0: 1}.
func New(maxLevel float64) *Distribution {
	return &Distribution{
		maxLevel: maxLevel,
		points:   []Point{{Level: 0, Mass: 1}},
	}
}

// MaxLevel is the absorbing (destroyed) level.
func (d *Distribution) MaxLevel() float64 { return d.maxLevel }

// ApplyTransition applies one hit-or-miss step.
// hitChance = 0 leaves d unchanged; hitChance = 1 shifts all mass by amount.
func (d *Distribution) ApplyTransition(hitChance, amount float64) error {
	if math.IsNaN(hitChance) || hitChance < 0 || hitChance > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidChance, hitChance)
	}
	if hitChance == 0 {
		return nil
	}

	next := make(map[float64]float64, len(d.points)+1)
	for _, p := range d.points {
		to := d.clamp(p.Level + amount)
		if to == p.Level {
			// Both branches land on the same level; keep the mass unsplit.
			next[p.Level] += p.Mass
			continue
		}
		next[p.Level] += p.Mass * (1 - hitChance)
		next[to] += p.Mass * hitChance
	}

	pts := make([]Point, 0, len(next))
	for lvl, m := range next {
		if m == 0 {
			continue
		}
		pts = append(pts, Point{Level: lvl, Mass: m})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Level < pts[j].Level })
	d.points = pts
	return nil
}

func (d *Distribution) clamp(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > d.maxLevel {
		return d.maxLevel
	}
	return level
}

// CumulativeUnder sums mass at levels strictly below threshold.
// With threshold = MaxLevel this is the chance the module still works.
func (d *Distribution) CumulativeUnder(threshold float64) float64 {
	s := 0.0
	for _, p := range d.points {
		if p.Level < threshold {
			s += p.Mass
		}
	}
	return s
}

// CumulativeOver sums mass at levels strictly above threshold.
func (d *Distribution) CumulativeOver(threshold float64) float64 {
	s := 0.0
	for _, p := range d.points {
		if p.Level > threshold {
			s += p.Mass
		}
	}
	return s
}

// ExpectedValue is the probability-weighted mean damage level.
func (d *Distribution) ExpectedValue() float64 {
	s := 0.0
	for _, p := range d.points {
		s += p.Level * p.Mass
	}
	return s
}

// MassAt returns the mass held exactly at level.
func (d *Distribution) MassAt(level float64) float64 {
	i := sort.Search(len(d.points), func(i int) bool { return d.points[i].Level >= level })
	if i < len(d.points) && d.points[i].Level == level {
		return d.points[i].Mass
	}
	return 0
}

// Sum is the total mass; 1 up to rounding.
func (d *Distribution) Sum() float64 {
	s := 0.0
	for _, p := range d.points {
		s += p.Mass
	}
	return s
}

// Points returns a copy of the support in ascending level order.
func (d *Distribution) Points() []Point {
	return append([]Point(nil), d.points...)
}

// Len is the number of distinct levels carrying mass.
func (d *Distribution) Len() int { return len(d.points) }

// Clone returns an independent copy.
func (d *Distribution) Clone() *Distribution {
	return &Distribution{maxLevel: d.maxLevel, points: d.Points()}
}

func (d *Distribution) String() string {
	lines := make([]string, 0, len(d.points))
	for _, p := range d.points {
		lines = append(lines, fmt.Sprintf("%.2f: %.4f", p.Level, p.Mass))
	}
	return strings.Join(lines, "\n")
}
