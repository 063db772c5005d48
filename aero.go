package astrodyn

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// AeroVariable enumerates the independent variables an aerodynamic coefficient
// interface may depend upon. The set is closed but extensible: new tags resolve
// through the same accessor binding.
type AeroVariable uint8

const (
	// MachNumberVar is the current Mach number.
	MachNumberVar AeroVariable = iota + 1
	// AngleOfAttackVar is the current angle of attack in radians.
	AngleOfAttackVar
	// AngleOfSideslipVar is the current angle of sideslip in radians.
	AngleOfSideslipVar
	// ControlSurfaceDeflectionVar is the current deflection of the surface the
	// consuming increment interface is registered under.
	ControlSurfaceDeflectionVar
	// AltitudeVar is the current altitude above the central body surface.
	AltitudeVar
)

func (v AeroVariable) String() string {
	switch v {
	case MachNumberVar:
		return "mach"
	case AngleOfAttackVar:
		return "aoa"
	case AngleOfSideslipVar:
		return "sideslip"
	case ControlSurfaceDeflectionVar:
		return "deflection"
	case AltitudeVar:
		return "altitude"
	}
	panic("cannot stringify unknown aerodynamic variable")
}

// Atmosphere models the atmosphere of a body.
type Atmosphere interface {
	Density(altitude float64) float64
	SpeedOfSound(altitude float64) float64
}

// ExponentialAtmosphere is the usual exp(-h/H) density model with a constant
// speed of sound.
type ExponentialAtmosphere struct {
	SurfaceDensity float64 // kg/m³ at zero altitude
	ScaleHeight    float64 // m
	SoundSpeed     float64 // m/s, held constant
}

// Density implements the Atmosphere interface.
func (a ExponentialAtmosphere) Density(altitude float64) float64 {
	return a.SurfaceDensity * math.Exp(-altitude/a.ScaleHeight)
}

// SpeedOfSound implements the Atmosphere interface.
func (a ExponentialAtmosphere) SpeedOfSound(altitude float64) float64 {
	return a.SoundSpeed
}

// EarthAtmosphere is a rough exponential model of Earth's atmosphere.
var EarthAtmosphere = ExponentialAtmosphere{SurfaceDensity: 1.225, ScaleHeight: 7200, SoundSpeed: 340}

// ControlSurfaceIncrement computes additive force and moment coefficient
// increments for one control surface, from its own independent variables.
type ControlSurfaceIncrement struct {
	varTags []AeroVariable
	fn      func(vars []float64) []float64 // 3 force + 3 moment components
}

// NewControlSurfaceIncrement binds an increment function to its independent
// variable tags.
func NewControlSurfaceIncrement(fn func(vars []float64) []float64, tags []AeroVariable) *ControlSurfaceIncrement {
	return &ControlSurfaceIncrement{varTags: tags, fn: fn}
}

// VariableTags returns the independent variables this increment consumes.
func (c *ControlSurfaceIncrement) VariableTags() []AeroVariable {
	return c.varTags
}

// Increment evaluates the 6-component coefficient increment.
func (c *ControlSurfaceIncrement) Increment(vars []float64) ([]float64, error) {
	if len(vars) != len(c.varTags) {
		return nil, fmt.Errorf("increment needs %d independent variables, got %d", len(c.varTags), len(vars))
	}
	inc := c.fn(vars)
	if len(inc) != 6 {
		return nil, fmt.Errorf("increment function returned %d components instead of 6", len(inc))
	}
	return inc, nil
}

// AerodynamicCoefficientInterface maps a vector of independent variables to
// force and moment coefficient vectors, with optional purely additive control
// surface increments keyed by surface name. Coefficients are expressed in the
// negative aerodynamic frame (positive drag coefficient opposes the airspeed).
type AerodynamicCoefficientInterface struct {
	RefArea float64

	varTags    []AeroVariable
	coeffFn    func(vars []float64) (force, moment []float64)
	increments map[string]*ControlSurfaceIncrement

	curForce, curMoment []float64
	updated             bool
}

// NewCustomCoefficientInterface wraps an arbitrary coefficient generator
// function consuming the listed independent variables.
func NewCustomCoefficientInterface(refArea float64, fn func(vars []float64) (force, moment []float64), tags []AeroVariable) *AerodynamicCoefficientInterface {
	return &AerodynamicCoefficientInterface{
		RefArea: refArea,
		varTags: tags,
		coeffFn: fn,
	}
}

// NewConstantCoefficientInterface returns an interface with fixed force
// coefficients and zero moments, e.g. a plain drag model.
func NewConstantCoefficientInterface(refArea float64, force []float64) *AerodynamicCoefficientInterface {
	f := []float64{force[0], force[1], force[2]}
	return NewCustomCoefficientInterface(refArea, func(vars []float64) ([]float64, []float64) {
		return []float64{f[0], f[1], f[2]}, []float64{0, 0, 0}
	}, nil)
}

// VariableTags returns the independent variables of the body coefficients.
func (a *AerodynamicCoefficientInterface) VariableTags() []AeroVariable {
	return a.varTags
}

// SetControlSurfaceIncrements registers the increment interfaces by surface
// name, replacing any previous registration.
func (a *AerodynamicCoefficientInterface) SetControlSurfaceIncrements(increments map[string]*ControlSurfaceIncrement) {
	a.increments = increments
}

// ControlSurfaceIncrements returns the registered increment interfaces.
func (a *AerodynamicCoefficientInterface) ControlSurfaceIncrements() map[string]*ControlSurfaceIncrement {
	return a.increments
}

// UpdateCurrentCoefficients recomputes the current force and moment
// coefficients from the independent variables, then adds every registered
// control surface increment from its surface-specific variables. Increments
// are independent of each other and of the order in which they are summed.
func (a *AerodynamicCoefficientInterface) UpdateCurrentCoefficients(vars []float64, surfaceVars map[string][]float64) error {
	if len(vars) != len(a.varTags) {
		return fmt.Errorf("coefficient interface needs %d independent variables, got %d", len(a.varTags), len(vars))
	}
	force, moment := a.coeffFn(vars)
	if len(force) != 3 || len(moment) != 3 {
		return fmt.Errorf("coefficient function returned vectors of size %d and %d instead of 3", len(force), len(moment))
	}
	a.curForce = []float64{force[0], force[1], force[2]}
	a.curMoment = []float64{moment[0], moment[1], moment[2]}
	// Summed in name order so repeated updates accumulate identically.
	names := make([]string, 0, len(a.increments))
	for name := range a.increments {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		inc := a.increments[name]
		incVars, found := surfaceVars[name]
		if !found {
			return fmt.Errorf("no independent variables provided for control surface %s", name)
		}
		incΔ, err := inc.Increment(incVars)
		if err != nil {
			return fmt.Errorf("control surface %s: %w", name, err)
		}
		for i := 0; i < 3; i++ {
			a.curForce[i] += incΔ[i]
			a.curMoment[i] += incΔ[i+3]
		}
	}
	a.updated = true
	return nil
}

// CurrentForceCoefficients returns the last computed force coefficients. It
// panics if the interface was never updated.
func (a *AerodynamicCoefficientInterface) CurrentForceCoefficients() []float64 {
	if !a.updated {
		panic("aerodynamic coefficients read before first update")
	}
	return a.curForce
}

// CurrentMomentCoefficients returns the last computed moment coefficients.
func (a *AerodynamicCoefficientInterface) CurrentMomentCoefficients() []float64 {
	if !a.updated {
		panic("aerodynamic coefficients read before first update")
	}
	return a.curMoment
}

// FlightConditions evaluates the atmospheric flight state of a vehicle with
// respect to an atmosphere-bearing central body: altitude, airspeed, density,
// Mach number, dynamic pressure, orientation angles and control surface
// deflections. One instance is owned per (vehicle, central body) pair and
// updated exactly once per derivative evaluation.
type FlightConditions struct {
	vehicle *Body
	central *Body

	centralRadius float64
	atmosphere    Atmosphere

	aoaFn, sideslipFn, bankFn func() float64
	guidanceFn                func(t float64)
	deflections               map[string]float64

	curTime                        float64
	relR, relV                     []float64
	altitude, airspeed             float64
	density, mach, dynamicPressure float64
}

// NewFlightConditions wires flight conditions between a vehicle and the
// atmosphere of a central body.
func NewFlightConditions(vehicle, central *Body, centralRadius float64, atm Atmosphere) (*FlightConditions, error) {
	if atm == nil {
		return nil, fmt.Errorf("%s has no atmosphere model", central.Name)
	}
	return &FlightConditions{
		vehicle:       vehicle,
		central:       central,
		centralRadius: centralRadius,
		atmosphere:    atm,
		deflections:   make(map[string]float64),
		curTime:       math.NaN(),
	}, nil
}

// SetAngleFunctions binds the orientation angle accessors. Nil functions
// default to zero angles.
func (fc *FlightConditions) SetAngleFunctions(aoa, sideslip, bank func() float64) {
	fc.aoaFn = aoa
	fc.sideslipFn = sideslip
	fc.bankFn = bank
}

// SetGuidanceFunction binds a hook invoked with the current time at the start
// of every update, before any angle or deflection is read.
func (fc *FlightConditions) SetGuidanceFunction(fn func(t float64)) {
	fc.guidanceFn = fn
}

// SetControlSurfaceDeflection sets the current deflection of the named surface.
func (fc *FlightConditions) SetControlSurfaceDeflection(name string, δ float64) {
	fc.deflections[name] = δ
}

// ControlSurfaceDeflection returns the current deflection of the named surface.
func (fc *FlightConditions) ControlSurfaceDeflection(name string) float64 {
	return fc.deflections[name]
}

// ResetTime discards the cached update time so that the next Update
// recomputes even at a previously seen time. The current flight state stays
// readable until then.
func (fc *FlightConditions) ResetTime() {
	fc.curTime = math.NaN()
}

// Update refreshes the flight state at the provided time. Both bodies' state
// providers must already reflect that time. Updating twice at the same time is
// a no-op.
func (fc *FlightConditions) Update(t float64) error {
	if fc.curTime == t {
		return nil
	}
	if fc.guidanceFn != nil {
		fc.guidanceFn(t)
	}
	if !fc.vehicle.CurrentAt(t) || !fc.central.CurrentAt(t) {
		return fmt.Errorf("flight conditions of %s updated against stale body states", fc.vehicle.Name)
	}
	vr, vv := fc.vehicle.Position(), fc.vehicle.Velocity()
	cr, cv := fc.central.Position(), fc.central.Velocity()
	fc.relR = make([]float64, 3)
	fc.relV = make([]float64, 3)
	for i := 0; i < 3; i++ {
		fc.relR[i] = vr[i] - cr[i]
		fc.relV[i] = vv[i] - cv[i]
	}
	fc.altitude = norm(fc.relR) - fc.centralRadius
	fc.airspeed = norm(fc.relV)
	fc.density = fc.atmosphere.Density(fc.altitude)
	fc.mach = fc.airspeed / fc.atmosphere.SpeedOfSound(fc.altitude)
	fc.dynamicPressure = 0.5 * fc.density * fc.airspeed * fc.airspeed
	fc.curTime = t
	return nil
}

// Altitude returns the current altitude above the central body surface.
func (fc *FlightConditions) Altitude() float64 { return fc.altitude }

// Airspeed returns the current airspeed.
func (fc *FlightConditions) Airspeed() float64 { return fc.airspeed }

// Density returns the current freestream density.
func (fc *FlightConditions) Density() float64 { return fc.density }

// MachNumber returns the current Mach number.
func (fc *FlightConditions) MachNumber() float64 { return fc.mach }

// DynamicPressure returns the current dynamic pressure.
func (fc *FlightConditions) DynamicPressure() float64 { return fc.dynamicPressure }

// AngleOfAttack returns the current angle of attack.
func (fc *FlightConditions) AngleOfAttack() float64 {
	if fc.aoaFn == nil {
		return 0
	}
	return fc.aoaFn()
}

// AngleOfSideslip returns the current angle of sideslip.
func (fc *FlightConditions) AngleOfSideslip() float64 {
	if fc.sideslipFn == nil {
		return 0
	}
	return fc.sideslipFn()
}

// BankAngle returns the current bank angle.
func (fc *FlightConditions) BankAngle() float64 {
	if fc.bankFn == nil {
		return 0
	}
	return fc.bankFn()
}

// AeroToInertialRotation returns the rotation from the aerodynamic frame to
// the inertial frame: the base trajectory frame (x along the airspeed, y along
// the orbital momentum, z completing) composed with the bank, angle of attack
// and sideslip rotations.
func (fc *FlightConditions) AeroToInertialRotation() *mat.Dense {
	xa := unit(fc.relV)
	ya := unit(cross(fc.relR, fc.relV))
	za := cross(xa, ya)
	base := mat.NewDense(3, 3, []float64{
		xa[0], ya[0], za[0],
		xa[1], ya[1], za[1],
		xa[2], ya[2], za[2],
	})
	var banked, pitched, rot mat.Dense
	banked.Mul(base, R1(fc.BankAngle()))
	pitched.Mul(&banked, R2(fc.AngleOfAttack()))
	rot.Mul(&pitched, R3(-fc.AngleOfSideslip()))
	return &rot
}

// resolveAeroVariables reads the current value of each tag from the flight
// conditions. The surface name contextualizes deflection tags.
func resolveAeroVariables(fc *FlightConditions, tags []AeroVariable, surface string) ([]float64, error) {
	vars := make([]float64, len(tags))
	for i, tag := range tags {
		switch tag {
		case MachNumberVar:
			vars[i] = fc.MachNumber()
		case AngleOfAttackVar:
			vars[i] = fc.AngleOfAttack()
		case AngleOfSideslipVar:
			vars[i] = fc.AngleOfSideslip()
		case AltitudeVar:
			vars[i] = fc.Altitude()
		case ControlSurfaceDeflectionVar:
			if surface == "" {
				return nil, fmt.Errorf("deflection variable outside of a control surface context")
			}
			vars[i] = fc.ControlSurfaceDeflection(surface)
		default:
			return nil, fmt.Errorf("unresolvable aerodynamic variable %d", tag)
		}
	}
	return vars, nil
}
