package integrator

// RK4 is the classical fourth order Runge-Kutta stepper.
type RK4 struct{}

// NewRK4 returns a new RK4 stepper instance.
func NewRK4() RK4 {
	return RK4{}
}

func (RK4) String() string {
	return "RK4"
}

// Step performs one RK4 step of size dt.
func (RK4) Step(f DerivativeFunc, t float64, y []float64, dt float64) ([]float64, error) {
	const (
		half     = 1 / 2.0
		oneSixth = 1 / 6.0
		oneThird = 1 / 3.0
	)
	n := len(y)
	k1 := make([]float64, n)
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	tState := make([]float64, n)
	newState := make([]float64, n)
	halfStep := dt * half

	yDot, err := f(t, y)
	if err != nil {
		return nil, err
	}
	for i, d := range yDot {
		k1[i] = d * dt
		tState[i] = y[i] + k1[i]*half
	}
	if yDot, err = f(t+halfStep, tState); err != nil {
		return nil, err
	}
	for i, d := range yDot {
		k2[i] = d * dt
		tState[i] = y[i] + k2[i]*half
	}
	if yDot, err = f(t+halfStep, tState); err != nil {
		return nil, err
	}
	for i, d := range yDot {
		k3[i] = d * dt
		tState[i] = y[i] + k3[i]
	}
	if yDot, err = f(t+dt, tState); err != nil {
		return nil, err
	}
	for i, d := range yDot {
		k4[i] = d * dt
		newState[i] = y[i] + oneSixth*(k1[i]+k4[i]) + oneThird*(k2[i]+k3[i])
	}
	return newState, nil
}
