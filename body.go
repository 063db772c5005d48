package astrodyn

import (
	"fmt"
	"math"
)

// Body defines a simulated body: a name, the state provider for its current
// inertial position and velocity, and the optional environment models attached
// to it. A body is shared by reference between every acceleration model which
// depends on it, and lives for the duration of the simulation.
//
// The state provider has exactly one writer (the state derivative model of the
// propagation it belongs to) and many readers. Writes stamp the body with the
// update time so that stale reads can be rejected.
type Body struct {
	Name       string
	Eph        Ephemeris                        // Set for ephemeris-driven bodies, nil for propagated ones.
	GravField  GravityField                     // Optional gravity field model.
	AeroCoeffs *AerodynamicCoefficientInterface // Optional aerodynamics.
	FlightCond *FlightConditions                // Optional flight conditions, required for aero.

	massFn    func() float64
	r, v      []float64
	stateTime float64
	stateSet  bool
}

// NewBody returns a body with no attached models and no state.
func NewBody(name string) *Body {
	return &Body{Name: name, stateTime: math.NaN()}
}

// String implements the Stringer interface.
func (b *Body) String() string {
	return b.Name + " body"
}

// SetConstantMass sets a constant mass model on this body.
func (b *Body) SetConstantMass(mass float64) {
	b.massFn = func() float64 { return mass }
}

// SetMassFunction sets a dynamic mass model on this body.
func (b *Body) SetMassFunction(massFn func() float64) {
	b.massFn = massFn
}

// Mass returns the current mass of this body.
func (b *Body) Mass() (float64, error) {
	if b.massFn == nil {
		return 0, fmt.Errorf("%s has no mass model", b.Name)
	}
	return b.massFn(), nil
}

// GM returns the gravitational parameter of this body's gravity field.
func (b *Body) GM() (float64, error) {
	if b.GravField == nil {
		return 0, fmt.Errorf("%s has no gravity field model", b.Name)
	}
	return b.GravField.GravitationalParameter(), nil
}

// SetStateAtTime sets the current inertial state of this body, stamped at the
// provided time. Used for propagated bodies, whose state comes from the
// integrated state vector.
func (b *Body) SetStateAtTime(t float64, r, v []float64) {
	b.r = []float64{r[0], r[1], r[2]}
	b.v = []float64{v[0], v[1], v[2]}
	b.stateTime = t
	b.stateSet = true
}

// UpdateFromEphemeris refreshes the current state of this body from its
// ephemeris. Used for bodies which are not propagated. Updating twice at the
// same time is a no-op.
func (b *Body) UpdateFromEphemeris(t float64) error {
	if b.Eph == nil {
		return fmt.Errorf("%s has no ephemeris", b.Name)
	}
	if b.stateSet && b.stateTime == t {
		return nil
	}
	r, v, err := b.Eph.StateAt(t)
	if err != nil {
		return fmt.Errorf("ephemeris of %s: %w", b.Name, err)
	}
	b.SetStateAtTime(t, r, v)
	return nil
}

// Position returns the current inertial position. It panics if the state was
// never set: reading a body before the first update is a wiring bug, not a
// runtime condition.
func (b *Body) Position() []float64 {
	if !b.stateSet {
		panic(fmt.Errorf("state of %s read before first update", b.Name))
	}
	return b.r
}

// Velocity returns the current inertial velocity.
func (b *Body) Velocity() []float64 {
	if !b.stateSet {
		panic(fmt.Errorf("state of %s read before first update", b.Name))
	}
	return b.v
}

// StateStamp returns the time at which the state was last updated, NaN if never.
func (b *Body) StateStamp() float64 {
	return b.stateTime
}

// CurrentAt returns whether this body's state reflects the provided time.
func (b *Body) CurrentAt(t float64) bool {
	return b.stateSet && b.stateTime == t
}

// BodySet is an insertion-ordered registry of bodies, addressed by name.
type BodySet struct {
	names  []string
	bodies map[string]*Body
}

// NewBodySet returns an empty body set.
func NewBodySet() *BodySet {
	return &BodySet{bodies: make(map[string]*Body)}
}

// Add registers a body. Names must be unique within a simulation.
func (s *BodySet) Add(b *Body) error {
	if b.Name == SSB {
		return fmt.Errorf("%q is reserved for the inertial origin", SSB)
	}
	if _, found := s.bodies[b.Name]; found {
		return fmt.Errorf("duplicate body %s", b.Name)
	}
	s.names = append(s.names, b.Name)
	s.bodies[b.Name] = b
	return nil
}

// Get returns the named body.
func (s *BodySet) Get(name string) (*Body, bool) {
	b, found := s.bodies[name]
	return b, found
}

// MustGet returns the named body and panics if it does not exist.
func (s *BodySet) MustGet(name string) *Body {
	b, found := s.bodies[name]
	if !found {
		panic(fmt.Errorf("unknown body %s", name))
	}
	return b
}

// Names returns the body names in insertion order.
func (s *BodySet) Names() []string {
	return s.names
}

// Len returns the number of registered bodies.
func (s *BodySet) Len() int {
	return len(s.names)
}
