package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/cascadedrop/internal/dynamo"
	"github.com/san-kum/cascadedrop/internal/physics"
)

var ErrStopped = errors.New("loop is stopped")

// State of the render loop.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "RUNNING"
	}
	return "STOPPED"
}

// StopReason tells why a loop left the running state.
type StopReason string

const (
	ReasonClosed    StopReason = "window closed"
	ReasonCanceled  StopReason = "canceled"
	ReasonStepLimit StopReason = "step limit"
	ReasonError     StopReason = "step error"
	ReasonStopped   StopReason = "stopped"
)

type Metric interface {
	Name() string
	Observe(w *physics.World)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *physics.World)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(w *physics.World)

func (f ObserverFunc) OnStep(w *physics.World) { f(w) }

type Config struct {
	// MaxSteps stops the loop after that many steps; zero runs until the
	// device closes.
	MaxSteps int
	// RecordEvery keeps one sample set every n steps; zero disables recording.
	RecordEvery int
}

type Result struct {
	Samples    []dynamo.Sample
	Metrics    map[string]float64
	StepsTaken int
	Time       float64
	Reason     StopReason
}

// StepError wraps a failure of the physics step with loop context.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d at t=%.4f: %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
