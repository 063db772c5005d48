package integrator

// Euler is the forward Euler stepper. Mostly useful for debugging and for
// comparing convergence against RK4.
type Euler struct{}

// NewEuler returns a new forward Euler stepper instance.
func NewEuler() Euler {
	return Euler{}
}

func (Euler) String() string {
	return "Euler"
}

// Step performs one forward Euler step of size dt.
func (Euler) Step(f DerivativeFunc, t float64, y []float64, dt float64) ([]float64, error) {
	yDot, err := f(t, y)
	if err != nil {
		return nil, err
	}
	newState := make([]float64, len(y))
	for i, d := range yDot {
		newState[i] = y[i] + d*dt
	}
	return newState, nil
}
