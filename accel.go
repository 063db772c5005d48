package astrodyn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AccelerationModel is the update-then-read capability every force effect
// implements. Update refreshes the cached acceleration from the dependency
// bodies' state providers, which must already reflect the provided time; an
// update at the time of the previous update is a no-op, so a model is never
// evaluated twice within one derivative evaluation. ResetTime discards the
// cached update time, forcing the next Update to recompute: the derivative
// model resets every model before each evaluation, so the no-op dedup never
// leaks a result across evaluations that happen to share a time. Acceleration
// returns the last computed 3-vector without recomputation, and panics when
// called before any update.
type AccelerationModel interface {
	Update(t float64) error
	ResetTime()
	Acceleration() []float64
}

// UpdateAndGetAcceleration is a convenience for tests and one-shot evaluations.
func UpdateAndGetAcceleration(m AccelerationModel, t float64) ([]float64, error) {
	if err := m.Update(t); err != nil {
		return nil, err
	}
	return m.Acceleration(), nil
}

// accelCache implements the shared caching of acceleration models.
type accelCache struct {
	lastTime float64
	accel    []float64
}

// Acceleration implements the read half of the AccelerationModel interface.
func (c *accelCache) Acceleration() []float64 {
	if c.accel == nil {
		panic("acceleration read before first update")
	}
	return c.accel
}

func (c *accelCache) currentAt(t float64) bool {
	return c.accel != nil && c.lastTime == t
}

// ResetTime implements the reset half of the AccelerationModel interface. The
// last acceleration stays readable until the next update overwrites it.
func (c *accelCache) ResetTime() {
	c.lastTime = math.NaN()
}

func (c *accelCache) store(t float64, a []float64) error {
	if !allFinite(a) {
		return fmt.Errorf("non-finite acceleration %v at t=%f", a, t)
	}
	c.accel = a
	c.lastTime = t
	return nil
}

// CentralGravity is the Newtonian point mass attraction exerted by one body on
// another: a = -μ·r/|r|³ with r from the exerting to the exerted-on body, so
// the acceleration points toward the exerting body. μ is read through a
// function so that the combined-μ correction of primary-relative integration
// composes without a dedicated model type.
type CentralGravity struct {
	accelCache
	target, exerter *Body
	μFn             func() float64
}

// NewCentralGravity returns the point mass attraction of exerter on target.
func NewCentralGravity(target, exerter *Body, μFn func() float64) *CentralGravity {
	return &CentralGravity{target: target, exerter: exerter, μFn: μFn}
}

// Update implements the AccelerationModel interface.
func (g *CentralGravity) Update(t float64) error {
	if g.currentAt(t) {
		return nil
	}
	if !g.target.CurrentAt(t) || !g.exerter.CurrentAt(t) {
		return fmt.Errorf("point mass gravity %s←%s evaluated against stale body states", g.target.Name, g.exerter.Name)
	}
	rt, re := g.target.Position(), g.exerter.Position()
	rel := []float64{rt[0] - re[0], rt[1] - re[1], rt[2] - re[2]}
	r3 := math.Pow(norm(rel), 3)
	μ := g.μFn()
	a := make([]float64, 3)
	for i := 0; i < 3; i++ {
		a[i] = -μ * rel[i] / r3
	}
	return g.store(t, a)
}

// SphericalHarmonicsGravity evaluates the gradient of a spherical harmonics
// potential of the exerting body at the current relative position, up to the
// configured maximum degree and order. The optional body-fixed rotation maps
// the inertial frame to the exerter's body-fixed frame at the current time; a
// nil rotation means the field is evaluated directly in the inertial frame.
type SphericalHarmonicsGravity struct {
	accelCache
	target, exerter *Body
	field           *SphericalHarmonicsField
	μFn             func() float64
	degree, order   int
	bodyFixedRotFn  func(t float64) *mat.Dense
}

// NewSphericalHarmonicsGravity returns the harmonic attraction of exerter on
// target up to the given degree and order, which may not exceed the field's.
func NewSphericalHarmonicsGravity(target, exerter *Body, field *SphericalHarmonicsField, degree, order int, μFn func() float64) (*SphericalHarmonicsGravity, error) {
	if degree < 0 || order < 0 || order > degree {
		return nil, fmt.Errorf("inconsistent degree %d / order %d request", degree, order)
	}
	if degree > field.Degree() {
		return nil, fmt.Errorf("field of %s holds degree %d, requested %d", exerter.Name, field.Degree(), degree)
	}
	if μFn == nil {
		μFn = field.GravitationalParameter
	}
	return &SphericalHarmonicsGravity{target: target, exerter: exerter, field: field, degree: degree, order: order, μFn: μFn}, nil
}

// SetBodyFixedRotation binds the inertial-to-body-fixed rotation of the
// exerting body.
func (g *SphericalHarmonicsGravity) SetBodyFixedRotation(fn func(t float64) *mat.Dense) {
	g.bodyFixedRotFn = fn
}

// Update implements the AccelerationModel interface.
func (g *SphericalHarmonicsGravity) Update(t float64) error {
	if g.currentAt(t) {
		return nil
	}
	if !g.target.CurrentAt(t) || !g.exerter.CurrentAt(t) {
		return fmt.Errorf("harmonic gravity %s←%s evaluated against stale body states", g.target.Name, g.exerter.Name)
	}
	rt, re := g.target.Position(), g.exerter.Position()
	rel := []float64{rt[0] - re[0], rt[1] - re[1], rt[2] - re[2]}
	var rot *mat.Dense
	if g.bodyFixedRotFn != nil {
		rot = g.bodyFixedRotFn(t)
		rel = MxV33(rot, rel)
	}
	a := g.field.AccelerationAt(rel, g.degree, g.order)
	// The gradient is linear in μ, so a combined μ is a plain rescaling.
	if μ := g.μFn(); μ != g.field.GravitationalParameter() {
		scale := μ / g.field.GravitationalParameter()
		for i := 0; i < 3; i++ {
			a[i] *= scale
		}
	}
	if rot != nil {
		var back mat.Dense
		back.CloneFrom(rot.T())
		a = MxV33(&back, a)
	}
	return g.store(t, a)
}

// ThirdBodyGravity corrects a perturbing attraction for a non-inertial
// integration origin: the perturber pulls on the propagated body and on the
// central body, and only the difference accelerates the propagated body in the
// central-body-relative frame. The two sub-models are constructed
// independently and share no mutable state.
type ThirdBodyGravity struct {
	accelCache
	onTarget, onCentral AccelerationModel
}

// NewThirdBodyGravity wraps the attraction on the propagated body and the
// attraction of the same perturber on the central body.
func NewThirdBodyGravity(onTarget, onCentral AccelerationModel) *ThirdBodyGravity {
	return &ThirdBodyGravity{onTarget: onTarget, onCentral: onCentral}
}

// ResetTime resets the wrapper and both sub-models.
func (g *ThirdBodyGravity) ResetTime() {
	g.accelCache.ResetTime()
	g.onTarget.ResetTime()
	g.onCentral.ResetTime()
}

// Update implements the AccelerationModel interface.
func (g *ThirdBodyGravity) Update(t float64) error {
	if g.currentAt(t) {
		return nil
	}
	if err := g.onTarget.Update(t); err != nil {
		return err
	}
	if err := g.onCentral.Update(t); err != nil {
		return err
	}
	at, ac := g.onTarget.Acceleration(), g.onCentral.Acceleration()
	return g.store(t, []float64{at[0] - ac[0], at[1] - ac[1], at[2] - ac[2]})
}

// AerodynamicAcceleration converts the current aerodynamic force coefficients
// to an inertial acceleration: coefficients → force through dynamic pressure ×
// reference area, force → acceleration through the aerodynamic-to-inertial
// rotation and the vehicle mass.
type AerodynamicAcceleration struct {
	accelCache
	vehicle *Body
	fc      *FlightConditions
	coeffs  *AerodynamicCoefficientInterface
}

// NewAerodynamicAcceleration returns the aerodynamic acceleration acting on
// the vehicle. A missing coefficient interface, flight conditions or mass
// model is a configuration error caught here, not at evaluation time.
func NewAerodynamicAcceleration(vehicle *Body) (*AerodynamicAcceleration, error) {
	if vehicle.AeroCoeffs == nil {
		return nil, fmt.Errorf("%s has no aerodynamic coefficient interface", vehicle.Name)
	}
	if vehicle.FlightCond == nil {
		return nil, fmt.Errorf("%s has no flight conditions", vehicle.Name)
	}
	if vehicle.massFn == nil {
		return nil, fmt.Errorf("%s has no mass model", vehicle.Name)
	}
	return &AerodynamicAcceleration{vehicle: vehicle, fc: vehicle.FlightCond, coeffs: vehicle.AeroCoeffs}, nil
}

// ResetTime resets the model and the flight conditions driving it.
func (a *AerodynamicAcceleration) ResetTime() {
	a.accelCache.ResetTime()
	a.fc.ResetTime()
}

// Update implements the AccelerationModel interface.
func (a *AerodynamicAcceleration) Update(t float64) error {
	if a.currentAt(t) {
		return nil
	}
	if err := a.fc.Update(t); err != nil {
		return err
	}
	vars, err := resolveAeroVariables(a.fc, a.coeffs.VariableTags(), "")
	if err != nil {
		return err
	}
	surfaceVars := make(map[string][]float64, len(a.coeffs.ControlSurfaceIncrements()))
	for name, inc := range a.coeffs.ControlSurfaceIncrements() {
		incVars, incErr := resolveAeroVariables(a.fc, inc.VariableTags(), name)
		if incErr != nil {
			return incErr
		}
		surfaceVars[name] = incVars
	}
	if err = a.coeffs.UpdateCurrentCoefficients(vars, surfaceVars); err != nil {
		return err
	}
	mass, err := a.vehicle.Mass()
	if err != nil {
		return err
	}
	factor := a.fc.DynamicPressure() * a.coeffs.RefArea / mass
	cf := a.coeffs.CurrentForceCoefficients()
	// Coefficients are in the negative aerodynamic frame.
	forceAero := []float64{-factor * cf[0], -factor * cf[1], -factor * cf[2]}
	return a.store(t, MxV33(a.fc.AeroToInertialRotation(), forceAero))
}
