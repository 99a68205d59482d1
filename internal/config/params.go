package config

import (
	"fmt"
	"sort"
)

// params maps the numeric settings a sweep may vary onto the config.
var params = map[string]func(c *Config, v float64){
	"density":            func(c *Config, v float64) { c.Density = v },
	"envelope":           func(c *Config, v float64) { c.Collision.Envelope = v },
	"margin":             func(c *Config, v float64) { c.Collision.Margin = v },
	"friction":           func(c *Config, v float64) { c.Collision.Friction = v },
	"max_recovery_speed": func(c *Config, v float64) { c.Collision.MaxRecoverySpeed = v },
	"timestep":           func(c *Config, v float64) { c.Timestep = v },
	"omega":              func(c *Config, v float64) { c.Solver.Omega = v },
	"max_iterations":     func(c *Config, v float64) { c.Solver.MaxIterations = int(v) },
	"mesh_cells":         func(c *Config, v float64) { c.Shape.MeshCells = int(v) },
	"drop_height":        func(c *Config, v float64) { c.Shape.Position[1] = v },
}

// SetParam sets one named numeric setting.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", ErrInvalid, name, ParamNames())
	}
	set(c, v)
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
