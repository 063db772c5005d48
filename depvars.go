package astrodyn

import (
	"fmt"
	"strings"
)

// DependentVariableKind enumerates the recordable dependent variables.
type DependentVariableKind uint8

const (
	// DepMachNumber is the Mach number of a body in atmospheric flight.
	DepMachNumber DependentVariableKind = iota + 1
	// DepAngleOfAttack is the angle of attack of a body in atmospheric flight.
	DepAngleOfAttack
	// DepAngleOfSideslip is the sideslip angle of a body in atmospheric flight.
	DepAngleOfSideslip
	// DepBankAngle is the bank angle of a body in atmospheric flight.
	DepBankAngle
	// DepAltitude is the altitude above the central body surface.
	DepAltitude
	// DepAirspeed is the airspeed with respect to the central body.
	DepAirspeed
	// DepDensity is the local freestream density.
	DepDensity
	// DepDynamicPressure is the local dynamic pressure.
	DepDynamicPressure
	// DepControlSurfaceDeflection is the deflection of one named surface.
	DepControlSurfaceDeflection
	// DepAeroForceCoefficients are the current aerodynamic force coefficients.
	DepAeroForceCoefficients
	// DepAeroMomentCoefficients are the current aerodynamic moment coefficients.
	DepAeroMomentCoefficients
	// DepRelativePosition is the position relative to another body.
	DepRelativePosition
	// DepRelativeVelocity is the velocity relative to another body.
	DepRelativeVelocity
	// DepRelativeDistance is the distance to another body.
	DepRelativeDistance
	// DepRelativeSpeed is the speed relative to another body.
	DepRelativeSpeed
)

func (k DependentVariableKind) String() string {
	switch k {
	case DepMachNumber:
		return "mach"
	case DepAngleOfAttack:
		return "aoa"
	case DepAngleOfSideslip:
		return "sideslip"
	case DepBankAngle:
		return "bank"
	case DepAltitude:
		return "altitude"
	case DepAirspeed:
		return "airspeed"
	case DepDensity:
		return "density"
	case DepDynamicPressure:
		return "dynpress"
	case DepControlSurfaceDeflection:
		return "deflection"
	case DepAeroForceCoefficients:
		return "cForce"
	case DepAeroMomentCoefficients:
		return "cMoment"
	case DepRelativePosition:
		return "relPos"
	case DepRelativeVelocity:
		return "relVel"
	case DepRelativeDistance:
		return "relDist"
	case DepRelativeSpeed:
		return "relSpeed"
	}
	panic("unknown dependent variable kind")
}

// DependentVariable requests one dependent variable of one body. RelativeBody
// names the second body for relative quantities and Surface the control
// surface for deflections.
type DependentVariable struct {
	Kind         DependentVariableKind
	Body         string
	RelativeBody string
	Surface      string
}

func (d DependentVariable) String() string {
	parts := []string{d.Kind.String(), d.Body}
	if d.RelativeBody != "" {
		parts = append(parts, d.RelativeBody)
	}
	if d.Surface != "" {
		parts = append(parts, d.Surface)
	}
	return strings.Join(parts, ":")
}

type depVarEntry struct {
	id   DependentVariable
	size int
	eval func(buf []float64)
}

// DependentVariableRecorder resolves dependent variable requests against a
// body set at setup time and samples them into one flat row per call. Sampling
// assumes the body states and flight conditions are already current, which the
// propagation loop guarantees by recording right after a derivative
// evaluation.
type DependentVariableRecorder struct {
	entries []depVarEntry
	dim     int
}

// NewDependentVariableRecorder resolves every requested variable to a direct
// accessor. Requests naming unknown bodies, bodies without the required aero
// configuration, or unknown control surfaces fail here, never mid-propagation.
func NewDependentVariableRecorder(bodies *BodySet, vars []DependentVariable) (*DependentVariableRecorder, error) {
	rec := &DependentVariableRecorder{}
	for _, dv := range vars {
		entry, err := resolveDependentVariable(bodies, dv)
		if err != nil {
			return nil, err
		}
		rec.entries = append(rec.entries, entry)
		rec.dim += entry.size
	}
	return rec, nil
}

func resolveDependentVariable(bodies *BodySet, dv DependentVariable) (depVarEntry, error) {
	body, found := bodies.Get(dv.Body)
	if !found {
		return depVarEntry{}, fmt.Errorf("dependent variable %s: unknown body %s", dv, dv.Body)
	}
	scalar := func(fn func() float64) depVarEntry {
		return depVarEntry{id: dv, size: 1, eval: func(buf []float64) { buf[0] = fn() }}
	}
	triplet := func(fn func() []float64) depVarEntry {
		return depVarEntry{id: dv, size: 3, eval: func(buf []float64) { copy(buf, fn()) }}
	}
	needFC := func() (*FlightConditions, error) {
		if body.FlightCond == nil {
			return nil, fmt.Errorf("dependent variable %s: %s has no flight conditions", dv, dv.Body)
		}
		return body.FlightCond, nil
	}
	switch dv.Kind {
	case DepMachNumber, DepAngleOfAttack, DepAngleOfSideslip, DepBankAngle,
		DepAltitude, DepAirspeed, DepDensity, DepDynamicPressure:
		fc, err := needFC()
		if err != nil {
			return depVarEntry{}, err
		}
		switch dv.Kind {
		case DepMachNumber:
			return scalar(fc.MachNumber), nil
		case DepAngleOfAttack:
			return scalar(fc.AngleOfAttack), nil
		case DepAngleOfSideslip:
			return scalar(fc.AngleOfSideslip), nil
		case DepBankAngle:
			return scalar(fc.BankAngle), nil
		case DepAltitude:
			return scalar(fc.Altitude), nil
		case DepAirspeed:
			return scalar(fc.Airspeed), nil
		case DepDensity:
			return scalar(fc.Density), nil
		default:
			return scalar(fc.DynamicPressure), nil
		}
	case DepControlSurfaceDeflection:
		fc, err := needFC()
		if err != nil {
			return depVarEntry{}, err
		}
		if body.AeroCoeffs == nil || body.AeroCoeffs.ControlSurfaceIncrements()[dv.Surface] == nil {
			return depVarEntry{}, fmt.Errorf("dependent variable %s: %s has no control surface %s", dv, dv.Body, dv.Surface)
		}
		surface := dv.Surface
		return scalar(func() float64 { return fc.ControlSurfaceDeflection(surface) }), nil
	case DepAeroForceCoefficients, DepAeroMomentCoefficients:
		if body.AeroCoeffs == nil {
			return depVarEntry{}, fmt.Errorf("dependent variable %s: %s has no aerodynamic coefficients", dv, dv.Body)
		}
		coeffs := body.AeroCoeffs
		if dv.Kind == DepAeroForceCoefficients {
			return triplet(coeffs.CurrentForceCoefficients), nil
		}
		return triplet(coeffs.CurrentMomentCoefficients), nil
	case DepRelativePosition, DepRelativeVelocity, DepRelativeDistance, DepRelativeSpeed:
		other, found := bodies.Get(dv.RelativeBody)
		if !found {
			return depVarEntry{}, fmt.Errorf("dependent variable %s: unknown body %s", dv, dv.RelativeBody)
		}
		rel := func(a, b []float64) []float64 {
			return []float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
		}
		switch dv.Kind {
		case DepRelativePosition:
			return triplet(func() []float64 { return rel(body.Position(), other.Position()) }), nil
		case DepRelativeVelocity:
			return triplet(func() []float64 { return rel(body.Velocity(), other.Velocity()) }), nil
		case DepRelativeDistance:
			return scalar(func() float64 { return norm(rel(body.Position(), other.Position())) }), nil
		default:
			return scalar(func() float64 { return norm(rel(body.Velocity(), other.Velocity())) }), nil
		}
	}
	return depVarEntry{}, fmt.Errorf("dependent variable %s: unknown kind", dv)
}

// Dim returns the total number of recorded scalar components.
func (r *DependentVariableRecorder) Dim() int {
	return r.dim
}

// Labels returns one label per recorded scalar component, vector components
// suffixed with their index.
func (r *DependentVariableRecorder) Labels() []string {
	labels := make([]string, 0, r.dim)
	for _, e := range r.entries {
		if e.size == 1 {
			labels = append(labels, e.id.String())
			continue
		}
		for k := 0; k < e.size; k++ {
			labels = append(labels, fmt.Sprintf("%s[%d]", e.id, k))
		}
	}
	return labels
}

// Record samples every resolved variable into a freshly allocated row.
func (r *DependentVariableRecorder) Record() []float64 {
	row := make([]float64, r.dim)
	offset := 0
	for _, e := range r.entries {
		e.eval(row[offset : offset+e.size])
		offset += e.size
	}
	return row
}
