package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/cascadedrop/internal/dynamo"
	"github.com/san-kum/cascadedrop/internal/viewer"
)

// Loop drives a viewer: each iteration draws the current frame, advances
// the world by one timestep and presents the frame.
type Loop struct {
	v         *viewer.Viewer
	cfg       Config
	state     State
	metrics   []Metric
	observers []Observer
	result    *Result
}

func New(v *viewer.Viewer, cfg Config) *Loop {
	return &Loop{v: v, cfg: cfg}
}

func (l *Loop) AddMetric(m Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

func (l *Loop) State() State { return l.state }

func (l *Loop) Viewer() *viewer.Viewer { return l.v }

// Result is the result of the current or last run.
func (l *Loop) Result() *Result { return l.result }

// Start checks that the viewer is ready and enters the running state.
func (l *Loop) Start() error {
	if l.state == Running {
		return nil
	}
	if err := l.v.Ready(); err != nil {
		return err
	}
	if l.v.Timestep() <= 0 {
		return fmt.Errorf("%w: timestep not set", viewer.ErrInvalidTimestep)
	}
	for _, m := range l.metrics {
		m.Reset()
	}
	l.result = &Result{Metrics: make(map[string]float64)}
	l.record()
	l.state = Running
	return nil
}

// Stop leaves the running state.
func (l *Loop) Stop() {
	l.stop(ReasonStopped)
}

func (l *Loop) stop(reason StopReason) {
	if l.state != Running {
		return
	}
	l.state = Stopped
	l.result.Reason = reason
	for _, m := range l.metrics {
		l.result.Metrics[m.Name()] = m.Value()
	}
}

// Iterate runs one loop iteration. It returns ErrStopped once the loop has
// left the running state.
func (l *Loop) Iterate() error {
	if l.state != Running {
		return ErrStopped
	}
	if !l.v.Device().Run() {
		l.stop(ReasonClosed)
		return nil
	}

	w := l.v.World()
	l.v.BeginScene()
	l.v.DrawAll()
	if err := l.v.DoStep(); err != nil {
		l.v.EndScene()
		l.stop(ReasonError)
		return &StepError{Step: w.StepCount(), Time: w.Time(), Err: err}
	}
	l.v.EndScene()

	l.result.StepsTaken++
	l.result.Time = w.Time()
	for _, m := range l.metrics {
		m.Observe(w)
	}
	for _, o := range l.observers {
		o.OnStep(w)
	}
	if l.cfg.RecordEvery > 0 && l.result.StepsTaken%l.cfg.RecordEvery == 0 {
		l.record()
	}
	if l.cfg.MaxSteps > 0 && l.result.StepsTaken >= l.cfg.MaxSteps {
		l.stop(ReasonStepLimit)
	}
	return nil
}

// Run starts the loop and iterates until the device closes, the context is
// canceled, the step limit is reached or a step fails.
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	if err := l.Start(); err != nil {
		return nil, err
	}
	for l.state == Running {
		select {
		case <-ctx.Done():
			l.stop(ReasonCanceled)
			return l.result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if err := l.Iterate(); err != nil {
			return l.result, err
		}
	}
	return l.result, nil
}

func (l *Loop) record() {
	if l.cfg.RecordEvery <= 0 {
		return
	}
	w := l.v.World()
	for _, b := range w.Bodies() {
		l.result.Samples = append(l.result.Samples, dynamo.Sample{
			Body:  b.Name(),
			Time:  w.Time(),
			State: b.State(),
		})
	}
}
