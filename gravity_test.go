package astrodyn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestHarmonicFieldValidation(t *testing.T) {
	c := [][]float64{{1, 0}, {0, 0}}
	s := [][]float64{{0, 0}, {0, 0}}
	if _, err := NewSphericalHarmonicsField(Earth.μ, Earth.Radius, c, s); err != nil {
		t.Fatalf("valid field rejected: %+v", err)
	}
	if _, err := NewSphericalHarmonicsField(Earth.μ, Earth.Radius, c, [][]float64{{0, 0}}); err == nil {
		t.Fatal("mismatched table sizes accepted")
	}
	if _, err := NewSphericalHarmonicsField(Earth.μ, Earth.Radius, [][]float64{{1, 0}, {0}}, s); err == nil {
		t.Fatal("ragged table accepted")
	}
	if _, err := NewSphericalHarmonicsField(Earth.μ, Earth.Radius, [][]float64{{0.5, 0}, {0, 0}}, s); err == nil {
		t.Fatal("degree 0 coefficient != 1 accepted")
	}
	if _, err := NewSphericalHarmonicsField(-1, Earth.Radius, c, s); err == nil {
		t.Fatal("negative gravitational parameter accepted")
	}
}

func TestHarmonicUnnormalization(t *testing.T) {
	c := [][]float64{{1, 0, 0}, {0, 0, 0}, {0.25, 0, 0}}
	s := [][]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	field, err := NewSphericalHarmonicsField(Earth.μ, Earth.Radius, c, s)
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	// N(2,0) = sqrt(5) for a zonal coefficient.
	if !scalar.EqualWithinAbs(field.c.At(2, 0), 0.25*math.Sqrt(5), 1e-15) {
		t.Fatalf("expected %f got %f", 0.25*math.Sqrt(5), field.c.At(2, 0))
	}
}

func TestHarmonicDegreeZeroIsPointMass(t *testing.T) {
	field := Earth.ZonalHarmonicsField()
	r := []float64{5.5e6, -3.1e6, 4.2e6}
	a := field.AccelerationAt(r, 0, 0)
	rn := norm(r)
	for i := 0; i < 3; i++ {
		expected := -Earth.μ * r[i] / math.Pow(rn, 3)
		if !scalar.EqualWithinAbs(a[i], expected, math.Abs(expected)*1e-12) {
			t.Fatalf("component %d: expected %e got %e", i, expected, a[i])
		}
	}
}

func TestHarmonicJ2ClosedForm(t *testing.T) {
	field := Earth.ZonalHarmonicsField()
	r := []float64{5e6, 3e6, 4e6}
	a := field.AccelerationAt(r, 2, 0)

	x, y, z := r[0], r[1], r[2]
	rn := norm(r)
	μ, re, j2 := Earth.μ, Earth.Radius, Earth.J(2)
	z2r2 := z * z / (rn * rn)
	pm := -μ / math.Pow(rn, 3)
	j2f := -3 * j2 * μ * re * re / (2 * math.Pow(rn, 5))
	expected := []float64{
		pm*x + j2f*x*(1-5*z2r2),
		pm*y + j2f*y*(1-5*z2r2),
		pm*z + j2f*z*(3-5*z2r2),
	}
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(a[i], expected[i], math.Abs(expected[i])*1e-10) {
			t.Fatalf("component %d: expected %e got %e", i, expected[i], a[i])
		}
	}
}

func TestHarmonicPoleEvaluationRejected(t *testing.T) {
	// The spherical gradient formulation is singular on the poles: at the
	// exact pole the cylindrical radius divides the latitude and longitude
	// terms, so a full order request yields non-finite components.
	field := Earth.ZonalHarmonicsField()
	a := field.AccelerationAt([]float64{0, 0, 7e6}, 3, 3)
	if allFinite(a) {
		t.Fatalf("pole evaluation produced finite components: %+v", a)
	}
	earth, sat := earthAndSat(t, []float64{0, 0, 7e6}, []float64{7.5e3, 0, 0})
	grav, err := NewSphericalHarmonicsGravity(sat, earth, field, 3, 3, nil)
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	if err = grav.Update(0); err == nil {
		t.Fatal("non-finite pole acceleration was stored")
	}
}

func TestZonalFieldCoefficients(t *testing.T) {
	field := Earth.ZonalHarmonicsField()
	if !scalar.EqualWithinAbs(field.CosineCoefficients().At(2, 0), -Earth.J(2)/math.Sqrt(5), 1e-18) {
		t.Fatal("normalized C20 does not match J2")
	}
	if !scalar.EqualWithinAbs(field.CosineCoefficients().At(3, 0), -Earth.J(3)/math.Sqrt(7), 1e-18) {
		t.Fatal("normalized C30 does not match J3")
	}
	if field.GravitationalParameter() != Earth.μ {
		t.Fatal("field gravitational parameter mismatch")
	}
}
