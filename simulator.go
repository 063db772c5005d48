package astrodyn

import (
	"fmt"
	"math"
	"os"

	kitlog "github.com/go-kit/kit/log"

	"github.com/astrodyn/astrodyn/integrator"
)

/* Handles the numerical propagation of the equations of motion. */

// DefaultStepSize is the default propagation step size in seconds.
const DefaultStepSize = 10.0

// SimulatorStatus tracks where a simulator is in its lifecycle.
type SimulatorStatus uint8

const (
	// StatusIdle means the simulator has not started integrating.
	StatusIdle SimulatorStatus = iota
	// StatusIntegrating means a propagation is in flight.
	StatusIntegrating
	// StatusTerminated means the last propagation ran to its termination
	// condition.
	StatusTerminated
	// StatusFailed means the last propagation aborted on an error.
	StatusFailed
)

func (s SimulatorStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusIntegrating:
		return "integrating"
	case StatusTerminated:
		return "terminated"
	case StatusFailed:
		return "failed"
	}
	panic("unknown simulator status")
}

// TerminationCondition reports whether the propagation should stop at the
// given time and state. It is checked after every accepted step.
type TerminationCondition func(t float64, y []float64) bool

// Sample is one recorded propagation point.
type Sample struct {
	T       float64
	State   []float64
	DepVars []float64
}

// History is the recorded output of one propagation: strictly increasing
// sample times with their states and dependent variable rows.
type History struct {
	samples []Sample
}

func (h *History) append(s Sample) {
	if n := len(h.samples); n > 0 && s.T <= h.samples[n-1].T {
		panic(fmt.Sprintf("history time going backward: %f after %f", s.T, h.samples[n-1].T))
	}
	h.samples = append(h.samples, s)
}

// Len returns the number of recorded samples.
func (h *History) Len() int {
	return len(h.samples)
}

// At returns the i-th recorded sample.
func (h *History) At(i int) Sample {
	return h.samples[i]
}

// Times returns the recorded sample times.
func (h *History) Times() []float64 {
	times := make([]float64, len(h.samples))
	for i, s := range h.samples {
		times[i] = s.T
	}
	return times
}

// Last returns the most recent sample, or ok=false on an empty history.
func (h *History) Last() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Simulator drives a state derivative model through a fixed-step integrator,
// recording the state and any requested dependent variables after every
// accepted step. A failed step preserves the partial history and the last
// valid state.
type Simulator struct {
	deriv    *StateDerivativeModel
	stepper  integrator.Stepper
	stepSize float64

	recorder *DependentVariableRecorder
	stream   chan<- Sample
	logger   kitlog.Logger

	status SimulatorStatus
}

// NewSimulator returns a simulator over the given derivative model.
func NewSimulator(deriv *StateDerivativeModel, stepper integrator.Stepper, stepSize float64) (*Simulator, error) {
	if stepSize <= 0 {
		return nil, fmt.Errorf("step size must be positive, got %f", stepSize)
	}
	if stepper == nil {
		return nil, fmt.Errorf("no stepper provided")
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "integrator", stepper.String())
	return &Simulator{
		deriv:    deriv,
		stepper:  stepper,
		stepSize: stepSize,
		logger:   logger,
		status:   StatusIdle,
	}, nil
}

// SetRecorder attaches a dependent variable recorder sampled at every step.
func (sim *Simulator) SetRecorder(rec *DependentVariableRecorder) {
	sim.recorder = rec
}

// SetStream attaches a channel receiving every sample as it is recorded. The
// channel is closed when the propagation ends, whether it terminated or
// failed.
func (sim *Simulator) SetStream(ch chan<- Sample) {
	sim.stream = ch
}

// SetLogger replaces the default stdout logfmt logger.
func (sim *Simulator) SetLogger(logger kitlog.Logger) {
	sim.logger = logger
}

// Status returns the simulator lifecycle status.
func (sim *Simulator) Status() SimulatorStatus {
	return sim.status
}

// PropagateFor integrates from t0 over the given duration in seconds.
func (sim *Simulator) PropagateFor(t0 float64, y0 []float64, duration float64) (*History, error) {
	return sim.PropagateUntil(t0, y0, t0+duration, nil)
}

// PropagateUntil integrates from t0 until the stop time is reached or the
// optional extra condition fires, whichever comes first. The final step is
// clamped so the history ends exactly at the stop time. On error the partial
// history is returned alongside the error.
func (sim *Simulator) PropagateUntil(t0 float64, y0 []float64, stopTime float64, extra TerminationCondition) (*History, error) {
	if sim.status == StatusIntegrating {
		return nil, fmt.Errorf("simulator is already integrating")
	}
	if stopTime <= t0 {
		return nil, fmt.Errorf("stop time %f is not after start time %f", stopTime, t0)
	}
	if len(y0) != sim.deriv.Dim() {
		return nil, fmt.Errorf("initial state has dimension %d, expected %d", len(y0), sim.deriv.Dim())
	}
	sim.status = StatusIntegrating
	hist := &History{}
	if sim.stream != nil {
		defer close(sim.stream)
	}

	t := t0
	y := make([]float64, len(y0))
	copy(y, y0)

	if err := sim.sample(hist, t, y); err != nil {
		sim.status = StatusFailed
		sim.logger.Log("level", "critical", "subsys", "astro", "status", "failed", "t", t, "err", err)
		return hist, err
	}
	sim.logger.Log("level", "info", "subsys", "astro", "status", "started", "t0", t0, "tEnd", stopTime, "step(s)", sim.stepSize)

	steps := 0
	for t < stopTime {
		dt := sim.stepSize
		clamped := t+dt >= stopTime
		if clamped {
			dt = stopTime - t
		}
		newY, err := sim.stepper.Step(sim.deriv.ComputeDerivative, t, y, dt)
		if err != nil {
			sim.status = StatusFailed
			sim.logger.Log("level", "critical", "subsys", "astro", "status", "failed", "t", t, "err", err)
			return hist, err
		}
		if clamped {
			// t + (stopTime - t) is not always exactly stopTime in floats.
			t = stopTime
		} else {
			t += dt
		}
		y = newY
		if err = sim.sample(hist, t, y); err != nil {
			sim.status = StatusFailed
			sim.logger.Log("level", "critical", "subsys", "astro", "status", "failed", "t", t, "err", err)
			return hist, err
		}
		steps++
		if steps%10000 == 0 {
			sim.logger.Log("level", "info", "subsys", "astro", "t", t, "steps", steps)
		}
		if extra != nil && extra(t, y) {
			break
		}
	}
	sim.status = StatusTerminated
	sim.logger.Log("level", "notice", "subsys", "astro", "status", "finished", "duration(s)", t-t0, "steps", steps)
	return hist, nil
}

// sample refreshes the environment at (t, y) and appends one history point.
// The derivative re-evaluation leaves every body, flight condition and
// acceleration model current at the sampled time, so dependent variables read
// consistent values.
func (sim *Simulator) sample(hist *History, t float64, y []float64) error {
	if _, err := sim.deriv.ComputeDerivative(t, y); err != nil {
		return err
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite state at t=%f", t)
		}
	}
	state := make([]float64, len(y))
	copy(state, y)
	s := Sample{T: t, State: state}
	if sim.recorder != nil {
		s.DepVars = sim.recorder.Record()
	}
	hist.append(s)
	if sim.stream != nil {
		sim.stream <- s
	}
	return nil
}
