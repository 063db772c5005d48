package astrodyn

import (
	"fmt"
)

// AccelerationType enumerates the available force effects.
type AccelerationType uint8

const (
	// PointMassGravity is the Newtonian attraction of a point mass.
	PointMassGravity AccelerationType = iota + 1
	// SphericalHarmonicGravity is the attraction of an expanded gravity field.
	SphericalHarmonicGravity
	// Aerodynamic is the aerodynamic force from the exerting body's atmosphere.
	Aerodynamic
)

func (t AccelerationType) String() string {
	switch t {
	case PointMassGravity:
		return "point mass gravity"
	case SphericalHarmonicGravity:
		return "spherical harmonic gravity"
	case Aerodynamic:
		return "aerodynamic"
	}
	panic("cannot stringify unknown acceleration type")
}

// AccelerationSettings declaratively requests one force effect of one body on
// another. Settings are immutable once built.
type AccelerationSettings struct {
	Type          AccelerationType
	Degree, Order int // Only meaningful for harmonic requests.
}

// NewPointMassSettings requests a Newtonian point mass attraction.
func NewPointMassSettings() AccelerationSettings {
	return AccelerationSettings{Type: PointMassGravity}
}

// NewSphericalHarmonicSettings requests a harmonic attraction up to the given
// degree and order.
func NewSphericalHarmonicSettings(degree, order int) AccelerationSettings {
	return AccelerationSettings{Type: SphericalHarmonicGravity, Degree: degree, Order: order}
}

// NewAerodynamicSettings requests the aerodynamic force of the exerting body's
// atmosphere.
func NewAerodynamicSettings() AccelerationSettings {
	return AccelerationSettings{Type: Aerodynamic}
}

// SelectedAccelerationMap declares the requested force effects, keyed by the
// exerted-on body name, then by the exerting body name.
type SelectedAccelerationMap map[string]map[string][]AccelerationSettings

// AccelerationModelMap holds the constructed acceleration models with the same
// key structure as the settings they were built from.
type AccelerationModelMap map[string]map[string][]AccelerationModel

// NewAccelerationModelMap resolves a settings map into constructed models.
//
// For every request it validates the required models on the exerting body,
// constructs the direct model, and reframes it for the integration origin of
// the exerted-on body: when the origin is the exerting body itself, the
// primary's reaction to the propagated body is folded into a combined
// μ = μ(exerter) + μ(target); when the origin is neither the inertial origin
// (SSB) nor the exerter, the direct model is wrapped in a third-body
// correction against the central body. A third-body wrapper is never built for
// an SSB origin, by construction.
//
// The builder never reuses models from a previous call: rebuilding after a
// central-body reassignment yields a fully fresh map.
func NewAccelerationModelMap(bodies *BodySet, selected SelectedAccelerationMap, centralBodies map[string]string) (AccelerationModelMap, error) {
	models := make(AccelerationModelMap, len(selected))
	for targetName, byExerter := range selected {
		target, found := bodies.Get(targetName)
		if !found {
			return nil, fmt.Errorf("acceleration requested on unknown body %s", targetName)
		}
		central := centralBodies[targetName]
		if central == "" {
			central = SSB
		}
		var centralBody *Body
		if central != SSB {
			centralBody, found = bodies.Get(central)
			if !found {
				return nil, fmt.Errorf("unknown central body %s for %s", central, targetName)
			}
		}
		models[targetName] = make(map[string][]AccelerationModel, len(byExerter))
		for exerterName, settingsList := range byExerter {
			exerter, found := bodies.Get(exerterName)
			if !found {
				return nil, fmt.Errorf("acceleration on %s requested from unknown body %s", targetName, exerterName)
			}
			row := make([]AccelerationModel, 0, len(settingsList))
			for _, settings := range settingsList {
				model, err := buildAcceleration(target, exerter, centralBody, settings)
				if err != nil {
					return nil, fmt.Errorf("%s on %s by %s: %w", settings.Type, targetName, exerterName, err)
				}
				row = append(row, model)
			}
			models[targetName][exerterName] = row
		}
	}
	return models, nil
}

func buildAcceleration(target, exerter, central *Body, settings AccelerationSettings) (AccelerationModel, error) {
	switch settings.Type {
	case PointMassGravity:
		if exerter.GravField == nil {
			return nil, fmt.Errorf("%s has no gravity field model", exerter.Name)
		}
		if central == exerter {
			return NewCentralGravity(target, exerter, combinedGM(exerter, target)), nil
		}
		direct := NewCentralGravity(target, exerter, exerter.GravField.GravitationalParameter)
		if central == nil {
			return direct, nil
		}
		onCentral := NewCentralGravity(central, exerter, exerter.GravField.GravitationalParameter)
		return NewThirdBodyGravity(direct, onCentral), nil

	case SphericalHarmonicGravity:
		field, err := harmonicFieldOf(exerter)
		if err != nil {
			return nil, err
		}
		if central == exerter {
			return NewSphericalHarmonicsGravity(target, exerter, field, settings.Degree, settings.Order, combinedGM(exerter, target))
		}
		direct, err := NewSphericalHarmonicsGravity(target, exerter, field, settings.Degree, settings.Order, nil)
		if err != nil {
			return nil, err
		}
		if central == nil {
			return direct, nil
		}
		onCentral, err := NewSphericalHarmonicsGravity(central, exerter, field, settings.Degree, settings.Order, nil)
		if err != nil {
			return nil, err
		}
		return NewThirdBodyGravity(direct, onCentral), nil

	case Aerodynamic:
		if target.FlightCond != nil && target.FlightCond.central != exerter {
			return nil, fmt.Errorf("flight conditions of %s are not tied to %s", target.Name, exerter.Name)
		}
		return NewAerodynamicAcceleration(target)

	default:
		return nil, fmt.Errorf("unsupported acceleration type %d", settings.Type)
	}
}

// combinedGM folds the propagated body's own gravitational parameter into the
// primary's: integrating relative to a massive primary, the primary's motion
// due to the secondary is captured by μ(exerter)+μ(target) rather than by a
// third-body term. A massless target contributes nothing.
func combinedGM(exerter, target *Body) func() float64 {
	return func() float64 {
		μ := exerter.GravField.GravitationalParameter()
		if target.GravField != nil {
			μ += target.GravField.GravitationalParameter()
		}
		return μ
	}
}

func harmonicFieldOf(b *Body) (*SphericalHarmonicsField, error) {
	if b.GravField == nil {
		return nil, fmt.Errorf("%s has no gravity field model", b.Name)
	}
	field, ok := b.GravField.(*SphericalHarmonicsField)
	if !ok {
		return nil, fmt.Errorf("gravity field of %s is not a spherical harmonics field", b.Name)
	}
	return field, nil
}
