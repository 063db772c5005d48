package astrodyn

import (
	"testing"
	"time"
)

func testEpoch() time.Time {
	return time.Date(2017, 3, 15, 0, 0, 0, 0, time.UTC)
}

func TestCelestialObjectFromString(t *testing.T) {
	for _, name := range []string{"Sun", "Venus", "Earth", "Moon", "Mars", "Jupiter", "Saturn"} {
		obj, err := CelestialObjectFromString(name)
		if err != nil {
			t.Fatalf("%s: %+v", name, err)
		}
		if obj.Name != name {
			t.Fatalf("expected %s got %s", name, obj.Name)
		}
	}
	if obj, err := CelestialObjectFromString("eaRth"); err != nil || !obj.Equals(Earth) {
		t.Fatal("lookup should be case insensitive")
	}
	if _, err := CelestialObjectFromString("Vulcan"); err == nil {
		t.Fatal("undefined object accepted")
	}
}

func TestCelestialZonalFactors(t *testing.T) {
	if Earth.J(2) != 1082.6269e-6 {
		t.Fatalf("J2: %e", Earth.J(2))
	}
	if Earth.J(3) != -2.5324e-6 {
		t.Fatalf("J3: %e", Earth.J(3))
	}
	if Earth.J(4) != 0 {
		t.Fatal("unstored zonal factor should be zero")
	}
	if Earth.GM() != 3.986004418e14 {
		t.Fatalf("GM: %e", Earth.GM())
	}
}

func TestSunHelioStateIsOrigin(t *testing.T) {
	r, v, err := Sun.HelioState(testEpoch())
	if err != nil {
		t.Fatalf("err: %+v", err)
	}
	for i := 0; i < 3; i++ {
		if r[i] != 0 || v[i] != 0 {
			t.Fatal("the Sun should sit at the heliocentric origin")
		}
	}
}
