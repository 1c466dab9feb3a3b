// internal/heat/heat.go
// Closed-form rack heat update.
//
// Model: dh/dt = u − k·h, h(0) = h0, with constant influx u over one tick:
//
//	h(1) = e^(−k)·(h0 − u/k) + u/k
//
// With k = 0.01 the fixed point u/k is 100·u. The result is capped at Ceiling.
package heat

import "math"

const (
	// DecayRate is the per-tick exponential dissipation (1%).
	DecayRate = 0.01
	// Ceiling is the hard upper bound on rack heat.
	Ceiling = 1.0
)

var decayFactor = math.Exp(-DecayRate)

// Step advances heat h by one tick under influx u.
func Step(h, u float64) float64 {
	next := decayFactor*(h-100*u) + 100*u
	return math.Min(Ceiling, next)
}

// StepWith is Step for an arbitrary decay rate k > 0 and tick length dt.
func StepWith(h, u, k, dt float64) float64 {
	eq := u / k
	next := math.Exp(-k*dt)*(h-eq) + eq
	return math.Min(Ceiling, next)
}

// FixedPoint is the uncapped equilibrium heat for influx u.
func FixedPoint(u float64) float64 { return u / DecayRate }
