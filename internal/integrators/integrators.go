// Package integrators advances rigid-body poses once the contact solver has
// produced end-of-step velocities.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/cascadedrop/internal/dynamo"
)

const (
	EulerImplicitLinearizedName = "euler_implicit_linearized"
	ExponentialName             = "exponential"
)

type Integrator interface {
	Name() string
	Integrate(p dynamo.Pose, t dynamo.Twist, dt float64) dynamo.Pose
}

var registry = map[string]func() Integrator{
	EulerImplicitLinearizedName: func() Integrator { return NewEulerImplicitLinearized() },
	ExponentialName:             func() Integrator { return NewExponential() },
}

// Get returns the integrator registered under name. An empty name selects
// the linearized Euler step.
func Get(name string) (Integrator, error) {
	if name == "" {
		name = EulerImplicitLinearizedName
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
