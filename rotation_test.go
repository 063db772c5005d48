package astrodyn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

func TestR3Rotation(t *testing.T) {
	// A +90° R3 maps x onto -y in the rotated frame convention used here.
	v := MxV33(R3(math.Pi/2), []float64{1, 0, 0})
	if !scalar.EqualWithinAbs(v[0], 0, 1e-15) || !scalar.EqualWithinAbs(v[1], -1, 1e-15) || !scalar.EqualWithinAbs(v[2], 0, 1e-15) {
		t.Fatalf("R3(90°)·x = %+v", v)
	}
}

func TestRotationsAreOrthonormal(t *testing.T) {
	for _, m := range []*mat.Dense{R1(0.3), R2(-1.1), R3(2.5), R3R1R3(0.2, 1.4, -0.7)} {
		var prod mat.Dense
		prod.Mul(m, m.T())
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				expected := 0.0
				if i == j {
					expected = 1
				}
				if !scalar.EqualWithinAbs(prod.At(i, j), expected, 1e-14) {
					t.Fatalf("M·Mᵀ not the identity at (%d,%d): %f", i, j, prod.At(i, j))
				}
			}
		}
	}
}

func TestPQW2ECIEquatorial(t *testing.T) {
	// With all angles zero, the perifocal frame coincides with the inertial one.
	v := PQW2ECI(0, 0, 0, []float64{1, 2, 3})
	for i, expected := range []float64{1, 2, 3} {
		if !scalar.EqualWithinAbs(v[i], expected, 1e-15) {
			t.Fatalf("identity rotation moved the vector: %+v", v)
		}
	}
}

func TestRot313PreservesNorm(t *testing.T) {
	v := []float64{1.2, -0.4, 2.2}
	rotated := Rot313Vec(0.5, -1.2, 2.8, v)
	if !scalar.EqualWithinAbs(norm(rotated), norm(v), 1e-13) {
		t.Fatalf("rotation changed the norm: %f vs %f", norm(rotated), norm(v))
	}
}
