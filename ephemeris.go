package astrodyn

import (
	"fmt"
	"math"
	"time"
)

// Ephemeris provides the inertial state of a body at a given simulation time.
// Implementations must be deterministic: two calls with the same time return
// bit-identical states. Any blocking I/O (kernel or data file loading) must
// happen before the propagation starts.
type Ephemeris interface {
	StateAt(t float64) (r, v []float64, err error)
}

// FixedEphemeris pins a body to a constant inertial state.
type FixedEphemeris struct {
	R, V []float64
}

// NewFixedEphemeris returns an ephemeris which always reports the given state.
func NewFixedEphemeris(r, v []float64) FixedEphemeris {
	return FixedEphemeris{R: r, V: v}
}

// StateAt implements the Ephemeris interface.
func (e FixedEphemeris) StateAt(t float64) ([]float64, []float64, error) {
	return e.R, e.V, nil
}

// TabulatedEphemeris linearly interpolates a fixed table of states. It is a
// pure function of its table: lookups outside the tabulated range are
// evaluation errors, never extrapolated.
type TabulatedEphemeris struct {
	times  []float64
	states [][]float64 // 6 components each
}

// NewTabulatedEphemeris builds an interpolating ephemeris from a state table.
// Times must be strictly increasing and each state must have 6 components.
func NewTabulatedEphemeris(times []float64, states [][]float64) (*TabulatedEphemeris, error) {
	if len(times) < 2 {
		return nil, fmt.Errorf("tabulated ephemeris needs at least 2 entries, got %d", len(times))
	}
	if len(times) != len(states) {
		return nil, fmt.Errorf("got %d times for %d states", len(times), len(states))
	}
	for i, state := range states {
		if len(state) != 6 {
			return nil, fmt.Errorf("state %d has %d components instead of 6", i, len(state))
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, fmt.Errorf("table times not strictly increasing at entry %d", i)
		}
	}
	return &TabulatedEphemeris{times: times, states: states}, nil
}

// StateAt implements the Ephemeris interface.
func (e *TabulatedEphemeris) StateAt(t float64) ([]float64, []float64, error) {
	n := len(e.times)
	if t < e.times[0] || t > e.times[n-1] {
		return nil, nil, fmt.Errorf("time %f outside tabulated range [%f, %f]", t, e.times[0], e.times[n-1])
	}
	// Binary search for the left bracket.
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if e.times[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}
	ratio := (t - e.times[lo]) / (e.times[hi] - e.times[lo])
	r := make([]float64, 3)
	v := make([]float64, 3)
	for i := 0; i < 3; i++ {
		r[i] = e.states[lo][i] + ratio*(e.states[hi][i]-e.states[lo][i])
		v[i] = e.states[lo][i+3] + ratio*(e.states[hi][i+3]-e.states[lo][i+3])
	}
	return r, v, nil
}

// KeplerianEphemeris analytically propagates a two-body orbit from its state at
// the reference time. If a parent ephemeris is set, the parent state is added,
// so that e.g. a moon tied to a planet-centric orbit still reports inertial
// states.
type KeplerianEphemeris struct {
	orbit  Orbit
	refT   float64
	Parent Ephemeris
}

// NewKeplerianEphemeris returns an analytic two-body ephemeris with the
// provided osculating orbit at the reference time.
func NewKeplerianEphemeris(o Orbit, refT float64) *KeplerianEphemeris {
	return &KeplerianEphemeris{orbit: o, refT: refT}
}

// StateAt implements the Ephemeris interface.
func (e *KeplerianEphemeris) StateAt(t float64) ([]float64, []float64, error) {
	a, ecc, i, Ω, ω, ν0, _, _, _ := e.orbit.Elements()
	n := math.Sqrt(e.orbit.Origin.μ / math.Pow(a, 3))
	// True anomaly at refT to mean anomaly, advance, and solve Kepler back.
	E0 := 2 * math.Atan2(math.Sqrt(1-ecc)*math.Sin(ν0/2), math.Sqrt(1+ecc)*math.Cos(ν0/2))
	M := math.Mod(E0-ecc*math.Sin(E0)+n*(t-e.refT), 2*math.Pi)
	E := M
	for k := 0; k < 50; k++ {
		δ := (E - ecc*math.Sin(E) - M) / (1 - ecc*math.Cos(E))
		E -= δ
		if math.Abs(δ) < 1e-14 {
			break
		}
	}
	ν := 2 * math.Atan2(math.Sqrt(1+ecc)*math.Sin(E/2), math.Sqrt(1-ecc)*math.Cos(E/2))
	osc := Orbit{a: a, e: ecc, i: i, Ω: Ω, ω: ω, ν: math.Mod(ν+2*math.Pi, 2*math.Pi), Origin: e.orbit.Origin}
	r, v := osc.RV()
	if e.Parent != nil {
		pr, pv, err := e.Parent.StateAt(t)
		if err != nil {
			return nil, nil, err
		}
		for j := 0; j < 3; j++ {
			r[j] += pr[j]
			v[j] += pv[j]
		}
	}
	return r, v, nil
}

// VSOP87Ephemeris reports the heliocentric state of a planet from the VSOP87
// theory. The epoch anchors simulation time zero to a wall-clock date. The
// VSOP87 data directory is resolved through the configuration on first use,
// strictly before any propagation should start.
type VSOP87Ephemeris struct {
	Object CelestialObject
	Epoch  time.Time
}

// NewVSOP87Ephemeris returns a VSOP87-backed ephemeris for the given planet.
func NewVSOP87Ephemeris(c CelestialObject, epoch time.Time) *VSOP87Ephemeris {
	return &VSOP87Ephemeris{Object: c, Epoch: epoch.UTC()}
}

// StateAt implements the Ephemeris interface.
func (e *VSOP87Ephemeris) StateAt(t float64) ([]float64, []float64, error) {
	dt := e.Epoch.Add(time.Duration(t * float64(time.Second)))
	return e.Object.HelioState(dt)
}
