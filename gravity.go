package astrodyn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GravityField models the gravitational attraction of a body.
type GravityField interface {
	GravitationalParameter() float64
}

// HarmonicField is a gravity field expanded in spherical harmonics.
type HarmonicField interface {
	GravityField
	Degree() int
	Order() int
	ReferenceRadius() float64
	CosineCoefficients() *mat.Dense
	SineCoefficients() *mat.Dense
}

// PointMassField is the gravity field of a point mass.
type PointMassField struct {
	μ float64
}

// NewPointMassField returns a point mass field with the given gravitational parameter.
func NewPointMassField(μ float64) PointMassField {
	return PointMassField{μ: μ}
}

// GravitationalParameter implements the GravityField interface.
func (f PointMassField) GravitationalParameter() float64 {
	return f.μ
}

// SphericalHarmonicsField holds a normalized spherical harmonics expansion of a
// gravity field. Coefficient matrices are square, row index is the degree and
// column index the order; entries above the diagonal (order > degree) are
// ignored. Coefficients are geodesy-normalized (C̄, S̄).
type SphericalHarmonicsField struct {
	μ, refRadius float64
	cbar, sbar   *mat.Dense
	// Unnormalized coefficients, precomputed once for the evaluator.
	c, s *mat.Dense
}

// NewSphericalHarmonicsField builds a harmonics field from normalized
// coefficient tables. Both tables must be square and of identical size, and the
// degree 0 cosine coefficient must be 1 (the point mass term).
func NewSphericalHarmonicsField(μ, refRadius float64, cbar, sbar [][]float64) (*SphericalHarmonicsField, error) {
	n := len(cbar)
	if n == 0 || len(sbar) != n {
		return nil, fmt.Errorf("cosine and sine tables must have the same size, got %d and %d", n, len(sbar))
	}
	cm := mat.NewDense(n, n, nil)
	sm := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		if len(cbar[i]) != n || len(sbar[i]) != n {
			return nil, fmt.Errorf("coefficient tables must be square, row %d is not of length %d", i, n)
		}
		for j := 0; j < n; j++ {
			cm.Set(i, j, cbar[i][j])
			sm.Set(i, j, sbar[i][j])
		}
	}
	return NewSphericalHarmonicsFieldFromMatrices(μ, refRadius, cm, sm)
}

// NewSphericalHarmonicsFieldFromMatrices is NewSphericalHarmonicsField for
// coefficients already held in gonum matrices.
func NewSphericalHarmonicsFieldFromMatrices(μ, refRadius float64, cbar, sbar *mat.Dense) (*SphericalHarmonicsField, error) {
	rows, cols := cbar.Dims()
	srows, scols := sbar.Dims()
	if rows != cols || srows != scols || rows != srows {
		return nil, fmt.Errorf("coefficient matrices must be square and of equal size, got %dx%d and %dx%d", rows, cols, srows, scols)
	}
	if cbar.At(0, 0) != 1 {
		return nil, fmt.Errorf("degree 0 cosine coefficient must be 1, got %f", cbar.At(0, 0))
	}
	if μ <= 0 || refRadius <= 0 {
		return nil, fmt.Errorf("gravitational parameter and reference radius must be positive")
	}
	f := &SphericalHarmonicsField{μ: μ, refRadius: refRadius, cbar: cbar, sbar: sbar}
	f.unnormalize()
	return f, nil
}

// GravitationalParameter implements the GravityField interface.
func (f *SphericalHarmonicsField) GravitationalParameter() float64 {
	return f.μ
}

// Degree returns the maximum degree held by this field.
func (f *SphericalHarmonicsField) Degree() int {
	rows, _ := f.cbar.Dims()
	return rows - 1
}

// Order returns the maximum order held by this field.
func (f *SphericalHarmonicsField) Order() int {
	return f.Degree()
}

// ReferenceRadius returns the radius the expansion is referenced to.
func (f *SphericalHarmonicsField) ReferenceRadius() float64 {
	return f.refRadius
}

// CosineCoefficients returns the normalized cosine coefficient matrix.
func (f *SphericalHarmonicsField) CosineCoefficients() *mat.Dense {
	return f.cbar
}

// SineCoefficients returns the normalized sine coefficient matrix.
func (f *SphericalHarmonicsField) SineCoefficients() *mat.Dense {
	return f.sbar
}

// unnormalize precomputes the conventional coefficients from the normalized
// ones: Cnm = N(n,m)·C̄nm with N = √((2-δ0m)(2n+1)(n-m)!/(n+m)!).
// The factorial ratio is accumulated iteratively, which is exact enough up to
// the degree ~30 fields this evaluator is meant for.
func (f *SphericalHarmonicsField) unnormalize() {
	n, _ := f.cbar.Dims()
	f.c = mat.NewDense(n, n, nil)
	f.s = mat.NewDense(n, n, nil)
	for deg := 0; deg < n; deg++ {
		for ord := 0; ord <= deg; ord++ {
			ratio := 1.0 // (deg-ord)!/(deg+ord)!
			for k := deg - ord + 1; k <= deg+ord; k++ {
				ratio /= float64(k)
			}
			δ := 1.0
			if ord == 0 {
				δ = 0
			}
			factor := math.Sqrt((1 + δ) * float64(2*deg+1) * ratio)
			f.c.Set(deg, ord, factor*f.cbar.At(deg, ord))
			f.s.Set(deg, ord, factor*f.sbar.At(deg, ord))
		}
	}
}

// AccelerationAt evaluates the gradient of the truncated potential at the given
// body-fixed position, in the body-fixed frame. The expansion includes the
// central term, so maxDegree=maxOrder=0 is exactly the point mass attraction.
// The spherical gradient is singular on the poles (x=y=0); the caller detects
// the resulting non-finite values and fails the evaluation.
// Cf. Vallado, "Fundamentals of Astrodynamics", nonspherical gravity.
func (f *SphericalHarmonicsField) AccelerationAt(rBF []float64, maxDegree, maxOrder int) []float64 {
	x, y, z := rBF[0], rBF[1], rBF[2]
	r := norm(rBF)
	rxy2 := x*x + y*y
	rxy := math.Sqrt(rxy2)
	sinφ := z / r
	λ := math.Atan2(y, x)

	// Associated Legendre functions of sinφ up to degree maxDegree, order
	// maxDegree+1 (one extra order for the latitude partial).
	nP := maxDegree + 2
	P := make([][]float64, nP)
	for i := range P {
		P[i] = make([]float64, nP+1)
	}
	cosφ := rxy / r
	P[0][0] = 1
	if maxDegree > 0 {
		P[1][0] = sinφ
		P[1][1] = cosφ
	}
	for deg := 2; deg < nP; deg++ {
		for ord := 0; ord <= deg; ord++ {
			switch {
			case ord == deg:
				P[deg][ord] = float64(2*deg-1) * cosφ * P[deg-1][ord-1]
			case ord == deg-1:
				P[deg][ord] = float64(2*deg-1) * sinφ * P[deg-1][ord]
			default:
				P[deg][ord] = (float64(2*deg-1)*sinφ*P[deg-1][ord] - float64(deg+ord-1)*P[deg-2][ord]) / float64(deg-ord)
			}
		}
	}

	tanφ := sinφ / cosφ
	// Partials of the potential with respect to r, φ, λ.
	var dUdr, dUdφ, dUdλ float64
	ratioPow := 1.0 // (refRadius/r)^deg
	for deg := 0; deg <= maxDegree; deg++ {
		ordMax := deg
		if ordMax > maxOrder {
			ordMax = maxOrder
		}
		for ord := 0; ord <= ordMax; ord++ {
			sinmλ, cosmλ := math.Sincos(float64(ord) * λ)
			cTrig := f.c.At(deg, ord)*cosmλ + f.s.At(deg, ord)*sinmλ
			dUdr += ratioPow * float64(deg+1) * P[deg][ord] * cTrig
			legΔ := P[deg][ord+1]
			if ord > 0 {
				// Keep 0·tanφ out of the sum: tanφ is infinite at the poles.
				legΔ -= float64(ord) * tanφ * P[deg][ord]
			}
			dUdφ += ratioPow * legΔ * cTrig
			dUdλ += ratioPow * float64(ord) * P[deg][ord] * (f.s.At(deg, ord)*cosmλ - f.c.At(deg, ord)*sinmλ)
		}
		ratioPow *= f.refRadius / r
	}
	dUdr *= -f.μ / (r * r)
	dUdφ *= f.μ / r
	dUdλ *= f.μ / r

	// Gradient back to Cartesian body-fixed coordinates.
	a := make([]float64, 3)
	common := dUdr/r - z/(r*r*rxy)*dUdφ
	a[0] = common*x - dUdλ/rxy2*y
	a[1] = common*y + dUdλ/rxy2*x
	a[2] = dUdr/r*z + rxy/(r*r)*dUdφ
	return a
}
