package astrodyn

import (
	"fmt"
	"sort"
)

// StateDerivativeModel assembles the time derivative of the integrated state
// vector from an acceleration model map. The state vector is the concatenation
// of [position; velocity] per propagated body, each relative to that body's
// central body, in the order the propagated bodies were declared.
//
// One instance owns the body state caches of one in-flight propagation: no two
// derivative evaluations may interleave against the same body set. That
// invariant is enforced by construction (one model per propagation), not by
// locking.
type StateDerivativeModel struct {
	bodies     *BodySet
	propagated []string
	centrals   []string // aligned with propagated, SSB for the inertial origin

	propBodies    []*Body
	centralBodies []*Body // nil entry for SSB
	updateOrder   []int

	ephemerisDriven []*Body
	flightConds     []*FlightConditions
	models          AccelerationModelMap
	// modelRows flattens the model map per propagated body with exerters in
	// name order, so repeated evaluations always sum in the same order.
	modelRows [][]AccelerationModel
}

// NewStateDerivativeModel wires a derivative model for the given propagated
// bodies. Every non-propagated body in the set must carry an ephemeris, and
// every propagated body an entry in the acceleration model map.
func NewStateDerivativeModel(bodies *BodySet, propagated []string, centralBodies map[string]string, models AccelerationModelMap) (*StateDerivativeModel, error) {
	m := &StateDerivativeModel{
		bodies:     bodies,
		propagated: propagated,
		models:     models,
	}
	isPropagated := make(map[string]bool, len(propagated))
	for _, name := range propagated {
		if isPropagated[name] {
			return nil, fmt.Errorf("body %s propagated twice", name)
		}
		isPropagated[name] = true
	}
	for _, name := range propagated {
		body, found := bodies.Get(name)
		if !found {
			return nil, fmt.Errorf("propagated body %s is not registered", name)
		}
		if _, found = models[name]; !found {
			return nil, fmt.Errorf("no acceleration models for propagated body %s", name)
		}
		central := centralBodies[name]
		if central == "" {
			central = SSB
		}
		if central == name {
			return nil, fmt.Errorf("%s cannot be its own central body", name)
		}
		var centralBody *Body
		if central != SSB {
			centralBody, found = bodies.Get(central)
			if !found {
				return nil, fmt.Errorf("unknown central body %s for %s", central, name)
			}
		}
		m.propBodies = append(m.propBodies, body)
		m.centrals = append(m.centrals, central)
		m.centralBodies = append(m.centralBodies, centralBody)
		byExerter := models[name]
		exerters := make([]string, 0, len(byExerter))
		for exerter := range byExerter {
			exerters = append(exerters, exerter)
		}
		sort.Strings(exerters)
		var row []AccelerationModel
		for _, exerter := range exerters {
			row = append(row, byExerter[exerter]...)
		}
		m.modelRows = append(m.modelRows, row)
	}
	for _, name := range bodies.Names() {
		if body := bodies.MustGet(name); body.FlightCond != nil {
			m.flightConds = append(m.flightConds, body.FlightCond)
		}
		if isPropagated[name] {
			continue
		}
		body := bodies.MustGet(name)
		if body.Eph == nil {
			return nil, fmt.Errorf("non-propagated body %s has no ephemeris", name)
		}
		m.ephemerisDriven = append(m.ephemerisDriven, body)
	}
	order, err := resolveUpdateOrder(propagated, m.centrals, isPropagated)
	if err != nil {
		return nil, err
	}
	m.updateOrder = order
	return m, nil
}

// resolveUpdateOrder sorts the propagated bodies so that any propagated
// central body is resolved before the bodies integrated relative to it.
func resolveUpdateOrder(propagated, centrals []string, isPropagated map[string]bool) ([]int, error) {
	n := len(propagated)
	order := make([]int, 0, n)
	placed := make(map[string]bool, n)
	for len(order) < n {
		progressed := false
		for i, name := range propagated {
			if placed[name] {
				continue
			}
			if c := centrals[i]; c == SSB || !isPropagated[c] || placed[c] {
				order = append(order, i)
				placed[name] = true
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("cyclic central body assignment among %v", propagated)
		}
	}
	return order, nil
}

// UpdateOrder returns the resolution order as indices into the propagated
// body list.
func (m *StateDerivativeModel) UpdateOrder() []int {
	return m.updateOrder
}

// Dim returns the dimension of the state vector.
func (m *StateDerivativeModel) Dim() int {
	return 6 * len(m.propagated)
}

// PropagatedBodies returns the propagated body names in state vector order.
func (m *StateDerivativeModel) PropagatedBodies() []string {
	return m.propagated
}

// SetBodyStates pushes a state vector into the body state providers at the
// given time, refreshing the ephemeris-driven bodies first. It leaves every
// body in the set current at t.
func (m *StateDerivativeModel) SetBodyStates(t float64, y []float64) error {
	if len(y) != m.Dim() {
		return fmt.Errorf("state vector has dimension %d, expected %d", len(y), m.Dim())
	}
	for _, body := range m.ephemerisDriven {
		if err := body.UpdateFromEphemeris(t); err != nil {
			return err
		}
	}
	for _, i := range m.updateOrder {
		r := []float64{y[6*i], y[6*i+1], y[6*i+2]}
		v := []float64{y[6*i+3], y[6*i+4], y[6*i+5]}
		if central := m.centralBodies[i]; central != nil {
			if !central.CurrentAt(t) {
				return fmt.Errorf("central body %s of %s resolved out of order", central.Name, m.propagated[i])
			}
			cr, cv := central.Position(), central.Velocity()
			for k := 0; k < 3; k++ {
				r[k] += cr[k]
				v[k] += cv[k]
			}
		}
		m.propBodies[i].SetStateAtTime(t, r, v)
	}
	return nil
}

// ComputeDerivative evaluates the state derivative at the provided time and
// state. Every cached model time is discarded first, so successive evaluations
// at the same time but different states recompute instead of replaying the
// previous result; within one evaluation every acceleration model is updated
// exactly once. Any model failure aborts the evaluation, there is no partial
// or degraded result.
func (m *StateDerivativeModel) ComputeDerivative(t float64, y []float64) ([]float64, error) {
	for _, row := range m.modelRows {
		for _, model := range row {
			model.ResetTime()
		}
	}
	for _, fc := range m.flightConds {
		fc.ResetTime()
	}
	if err := m.SetBodyStates(t, y); err != nil {
		return nil, err
	}
	for _, fc := range m.flightConds {
		if err := fc.Update(t); err != nil {
			return nil, err
		}
	}
	yDot := make([]float64, len(y))
	for i, name := range m.propagated {
		sum := make([]float64, 3)
		for _, model := range m.modelRows[i] {
			if err := model.Update(t); err != nil {
				return nil, fmt.Errorf("propagation of %s: %w", name, err)
			}
			a := model.Acceleration()
			for k := 0; k < 3; k++ {
				sum[k] += a[k]
			}
		}
		// d(position)/dt is the relative velocity straight from the state.
		copy(yDot[6*i:6*i+3], y[6*i+3:6*i+6])
		copy(yDot[6*i+3:6*i+6], sum)
	}
	return yDot, nil
}
