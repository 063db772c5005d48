package astrodyn

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/planetposition"
)

const (
	// AU is one astronomical unit in meters.
	AU = 1.49597870700e11
	// SSB names the solar system barycenter, i.e. the inertial frame origin.
	SSB = "SSB"
)

// CelestialObject defines a celestial object.
// All values are SI: meters, seconds, and composites thereof.
type CelestialObject struct {
	Name   string
	Radius float64
	a      float64
	μ      float64
	SOI    float64 // With respect to the Sun
	J2     float64
	J3     float64
	pp     *planetposition.V87Planet
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// J returns the zonal J_n factor for the provided n. Only J2 and J3 are stored.
func (c CelestialObject) J(n uint8) float64 {
	switch n {
	case 2:
		return c.J2
	case 3:
		return c.J3
	default:
		return 0.0
	}
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c *CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.a == b.a && c.μ == b.μ && c.SOI == b.SOI && c.J2 == b.J2
}

// ZonalHarmonicsField returns a normalized spherical harmonics field carrying
// only the stored zonal terms of this object. The degree 2 and 3 normalized
// cosine coefficients are C̄n0 = -Jn/√(2n+1).
func (c CelestialObject) ZonalHarmonicsField() *SphericalHarmonicsField {
	field, err := NewSphericalHarmonicsField(c.μ, c.Radius, [][]float64{
		{1, 0, 0, 0},
		{0, 0, 0, 0},
		{-c.J2 / math.Sqrt(5), 0, 0, 0},
		{-c.J3 / math.Sqrt(7), 0, 0, 0},
	}, [][]float64{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	if err != nil {
		panic(err)
	}
	return field
}

// HelioState returns the heliocentric position and velocity of this planet at a
// given time in equatorial coordinates, from the VSOP87 theory.
// Note that the whole VSOP87 file is loaded on first use. In fact, if we don't,
// then whoever is the first to call this function will set the epoch at which
// the ephemeris are available, and that sucks.
func (c *CelestialObject) HelioState(dt time.Time) (R, V []float64, err error) {
	if c.Name == "Sun" {
		return []float64{0, 0, 0}, []float64{0, 0, 0}, nil
	}
	if c.pp == nil {
		var vsopIndex int
		switch c.Name {
		case "Venus":
			vsopIndex = planetposition.Venus
		case "Earth":
			vsopIndex = planetposition.Earth
		case "Mars":
			vsopIndex = planetposition.Mars
		case "Jupiter":
			vsopIndex = planetposition.Jupiter
		case "Saturn":
			vsopIndex = planetposition.Saturn
		default:
			return nil, nil, fmt.Errorf("no VSOP87 data for %s", c.Name)
		}
		planet, loadErr := planetposition.LoadPlanetPath(vsopIndex, getConfig().VSOP87Dir)
		if loadErr != nil {
			return nil, nil, fmt.Errorf("could not load VSOP87 data for %s: %w", c.Name, loadErr)
		}
		c.pp = planet
	}
	l, b, r := c.pp.Position2000(julian.TimeToJD(dt))
	r *= AU
	v := math.Sqrt(2*Sun.μ/r - Sun.μ/c.a)
	// Get the Cartesian coordinates from L,B,R.
	R, V = make([]float64, 3), make([]float64, 3)
	sB, cB := math.Sincos(b.Rad())
	sL, cL := math.Sincos(l.Rad())
	R[0] = r * cB * cL
	R[1] = r * cB * sL
	R[2] = r * sB
	// Let's find the direction of the velocity vector.
	vDir := cross(R, []float64{0, 0, -1})
	for i := 0; i < 3; i++ {
		V[i] = v * vDir[i] / norm(vDir)
	}
	return R, V, nil
}

// CelestialObjectFromString returns the object from its name.
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "sun":
		return Sun, nil
	case "venus":
		return Venus, nil
	case "earth":
		return Earth, nil
	case "moon":
		return Moon, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	case "saturn":
		return Saturn, nil
	default:
		return CelestialObject{}, fmt.Errorf("undefined celestial object '%s'", name)
	}
}

/* Definitions */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 6.957e8, -1, 1.32712440018e20, -1, 0, 0, nil}

// Venus is poisonous.
var Venus = CelestialObject{"Venus", 6.0518e6, 1.08208601e11, 3.24858592e14, 0.616e9, 0.000027, 0, nil}

// Earth is home.
var Earth = CelestialObject{"Earth", 6.378137e6, 1.49598023e11, 3.986004418e14, 9.24645e8, 1082.6269e-6, -2.5324e-6, nil}

// Moon is Earth's.
var Moon = CelestialObject{"Moon", 1.7374e6, 3.84399e8, 4.9048695e12, 6.61e7, 202.7e-6, 0, nil}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3.39619e6, 2.279392825616e11, 4.282837e13, 5.76e8, 1964e-6, 36e-6, nil}

// Jupiter is big.
var Jupiter = CelestialObject{"Jupiter", 7.1492e7, 7.78298361e11, 1.26686534e17, 4.82e10, 0.01475, 0, nil}

// Saturn floats and that's really cool.
var Saturn = CelestialObject{"Saturn", 6.0268e7, 1.429394133e12, 3.7931187e16, 5.46e10, 0.01645, 0, nil}
