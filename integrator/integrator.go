// Package integrator provides fixed-step explicit steppers for first order
// ordinary differential equations in the form dy/dt = f(t, y).
package integrator

// DerivativeFunc evaluates the state derivative at time t and state y.
// It must not modify y.
type DerivativeFunc func(t float64, y []float64) ([]float64, error)

// Stepper advances a state vector by one fixed step.
type Stepper interface {
	// Step returns the state at t+dt. Any derivative evaluation error aborts
	// the step and is returned as is.
	Step(f DerivativeFunc, t float64, y []float64, dt float64) ([]float64, error)
	String() string
}
