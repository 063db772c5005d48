package astrodyn

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// dummyIncrementBase mirrors a simple linear control surface contribution used
// to check pure additivity of the increments.
var dummyIncrementBase = []float64{1.0, -3.5, 2.1, 0.4, -0.75, 1.3}

func dummyIncrement(scale0, scale1 float64) func(vars []float64) []float64 {
	return func(vars []float64) []float64 {
		factor := scale0 * vars[0]
		if len(vars) > 1 {
			factor += scale1 * vars[1]
		}
		out := make([]float64, 6)
		for i, b := range dummyIncrementBase {
			out[i] = factor * b
		}
		return out
	}
}

func TestControlSurfaceIncrementAdditivity(t *testing.T) {
	coeffs := NewCustomCoefficientInterface(4, func(vars []float64) ([]float64, []float64) {
		aoa, mach := vars[0], vars[1]
		return []float64{1.2 + 0.5*aoa, -0.1 * aoa, 0.3 * mach},
			[]float64{0.01 * aoa, -0.02 * mach, 0.005}
	}, []AeroVariable{AngleOfAttackVar, MachNumberVar})

	inc1 := NewControlSurfaceIncrement(dummyIncrement(0.01, 0.005), []AeroVariable{ControlSurfaceDeflectionVar, AngleOfAttackVar})
	inc2 := NewControlSurfaceIncrement(dummyIncrement(0.02, 0), []AeroVariable{ControlSurfaceDeflectionVar})
	coeffs.SetControlSurfaceIncrements(map[string]*ControlSurfaceIncrement{
		"elevon1": inc1,
		"elevon2": inc2,
	})

	vars := []float64{0.25, 12}
	surfaceVars := map[string][]float64{
		"elevon1": {-0.02, 0.25},
		"elevon2": {0.03},
	}
	if err := coeffs.UpdateCurrentCoefficients(vars, surfaceVars); err != nil {
		t.Fatalf("err: %+v", err)
	}
	force := coeffs.CurrentForceCoefficients()
	moment := coeffs.CurrentMomentCoefficients()

	baseForce := []float64{1.2 + 0.5*0.25, -0.1 * 0.25, 0.3 * 12}
	baseMoment := []float64{0.01 * 0.25, -0.02 * 12, 0.005}
	i1, err := inc1.Increment(surfaceVars["elevon1"])
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	i2, err := inc2.Increment(surfaceVars["elevon2"])
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	for k := 0; k < 3; k++ {
		expectedForce := baseForce[k] + i1[k] + i2[k]
		expectedMoment := baseMoment[k] + i1[k+3] + i2[k+3]
		if !scalar.EqualWithinAbs(force[k], expectedForce, 1e-14) {
			t.Fatalf("force %d: expected %e got %e", k, expectedForce, force[k])
		}
		if !scalar.EqualWithinAbs(moment[k], expectedMoment, 1e-14) {
			t.Fatalf("moment %d: expected %e got %e", k, expectedMoment, moment[k])
		}
	}
}

func TestUpdateCoefficientsMissingSurfaceVariables(t *testing.T) {
	coeffs := NewConstantCoefficientInterface(4, []float64{2.2, 0, 0})
	coeffs.SetControlSurfaceIncrements(map[string]*ControlSurfaceIncrement{
		"flap": NewControlSurfaceIncrement(dummyIncrement(0.01, 0), []AeroVariable{ControlSurfaceDeflectionVar}),
	})
	if err := coeffs.UpdateCurrentCoefficients(nil, nil); err == nil {
		t.Fatal("missing surface variables accepted")
	}
}

func TestCoefficientReadBeforeUpdate(t *testing.T) {
	coeffs := NewConstantCoefficientInterface(4, []float64{2.2, 0, 0})
	defer func() {
		if recover() == nil {
			t.Fatal("reading coefficients before the first update did not panic")
		}
	}()
	coeffs.CurrentForceCoefficients()
}

// atmosphericVehicle sets up a vehicle at 120 km over a fixed Earth, moving
// along +y, both stamped at the given time.
func atmosphericVehicle(t *testing.T, at float64) (*Body, *Body, *FlightConditions) {
	t.Helper()
	earth := NewBody("Earth")
	earth.Eph = NewFixedEphemeris([]float64{0, 0, 0}, []float64{0, 0, 0})
	earth.GravField = NewPointMassField(Earth.μ)
	veh := NewBody("vehicle")
	veh.SetConstantMass(500)
	fc, err := NewFlightConditions(veh, earth, Earth.Radius, EarthAtmosphere)
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	veh.FlightCond = fc
	if err = earth.UpdateFromEphemeris(at); err != nil {
		t.Fatalf("err: %+v", err)
	}
	veh.SetStateAtTime(at, []float64{Earth.Radius + 120e3, 0, 0}, []float64{0, 7.8e3, 0})
	return earth, veh, fc
}

func TestFlightConditionsValues(t *testing.T) {
	_, _, fc := atmosphericVehicle(t, 0)
	if err := fc.Update(0); err != nil {
		t.Fatalf("err: %+v", err)
	}
	if !scalar.EqualWithinAbs(fc.Altitude(), 120e3, 1e-6) {
		t.Fatalf("altitude: %f", fc.Altitude())
	}
	if !scalar.EqualWithinAbs(fc.Airspeed(), 7.8e3, 1e-9) {
		t.Fatalf("airspeed: %f", fc.Airspeed())
	}
	ρ := EarthAtmosphere.Density(120e3)
	if !scalar.EqualWithinAbs(fc.Density(), ρ, ρ*1e-12) {
		t.Fatalf("density: %e", fc.Density())
	}
	if !scalar.EqualWithinAbs(fc.MachNumber(), 7.8e3/340, 1e-9) {
		t.Fatalf("mach: %f", fc.MachNumber())
	}
	q := 0.5 * ρ * 7.8e3 * 7.8e3
	if !scalar.EqualWithinAbs(fc.DynamicPressure(), q, q*1e-12) {
		t.Fatalf("dynamic pressure: %e", fc.DynamicPressure())
	}
}

func TestFlightConditionsResetRecomputes(t *testing.T) {
	_, veh, fc := atmosphericVehicle(t, 0)
	if err := fc.Update(0); err != nil {
		t.Fatalf("err: %+v", err)
	}
	first := fc.Altitude()
	veh.SetStateAtTime(0, []float64{Earth.Radius + 150e3, 0, 0}, []float64{0, 7.8e3, 0})
	if err := fc.Update(0); err != nil {
		t.Fatalf("err: %+v", err)
	}
	if fc.Altitude() != first {
		t.Fatal("update at an already seen time recomputed without a reset")
	}
	fc.ResetTime()
	if err := fc.Update(0); err != nil {
		t.Fatalf("err: %+v", err)
	}
	if !scalar.EqualWithinAbs(fc.Altitude(), 150e3, 1e-6) {
		t.Fatalf("altitude after reset: %f", fc.Altitude())
	}
}

func TestFlightConditionsStaleState(t *testing.T) {
	_, _, fc := atmosphericVehicle(t, 0)
	if err := fc.Update(5); err == nil {
		t.Fatal("update against stale body states did not fail")
	}
}

func TestGuidanceProfileReadback(t *testing.T) {
	_, veh, fc := atmosphericVehicle(t, 0)
	var currentT float64
	fc.SetGuidanceFunction(func(t float64) {
		currentT = t
		fc.SetControlSurfaceDeflection("elevon", -0.02+0.04*t/1000)
	})
	fc.SetAngleFunctions(func() float64 { return 0.3 * (1 - currentT/1000) }, nil, nil)

	for _, at := range []float64{0, 250, 500, 1000} {
		veh.SetStateAtTime(at, []float64{Earth.Radius + 120e3, 0, 0}, []float64{0, 7.8e3, 0})
		if err := fc.central.UpdateFromEphemeris(at); err != nil {
			t.Fatalf("err: %+v", err)
		}
		if err := fc.Update(at); err != nil {
			t.Fatalf("err: %+v", err)
		}
		if !scalar.EqualWithinAbs(fc.AngleOfAttack(), 0.3*(1-at/1000), 1e-14) {
			t.Fatalf("t=%f: aoa %f", at, fc.AngleOfAttack())
		}
		if !scalar.EqualWithinAbs(fc.ControlSurfaceDeflection("elevon"), -0.02+0.04*at/1000, 1e-14) {
			t.Fatalf("t=%f: deflection %f", at, fc.ControlSurfaceDeflection("elevon"))
		}
	}
}

func TestAerodynamicAccelerationDragDirection(t *testing.T) {
	_, veh, fc := atmosphericVehicle(t, 0)
	veh.AeroCoeffs = NewConstantCoefficientInterface(4, []float64{2.2, 0, 0})
	drag, err := NewAerodynamicAcceleration(veh)
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	a, err := UpdateAndGetAcceleration(drag, 0)
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	mass := 500.0
	q := fc.DynamicPressure()
	expectedMag := q * 4 * 2.2 / mass
	if !scalar.EqualWithinAbs(norm(a), expectedMag, expectedMag*1e-12) {
		t.Fatalf("drag magnitude: expected %e got %e", expectedMag, norm(a))
	}
	// With zero orientation angles the drag opposes the airspeed.
	vhat := unit(veh.Velocity())
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(a[i], -expectedMag*vhat[i], expectedMag*1e-12) {
			t.Fatalf("component %d not antiparallel to velocity: %+v", i, a)
		}
	}
}

func TestAerodynamicAccelerationConfigErrors(t *testing.T) {
	veh := NewBody("vehicle")
	if _, err := NewAerodynamicAcceleration(veh); err == nil {
		t.Fatal("missing coefficient interface accepted")
	}
	veh.AeroCoeffs = NewConstantCoefficientInterface(4, []float64{2.2, 0, 0})
	if _, err := NewAerodynamicAcceleration(veh); err == nil {
		t.Fatal("missing flight conditions accepted")
	}
}
