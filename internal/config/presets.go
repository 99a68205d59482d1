package config

import "sort"

var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"heavy": func() *Config {
		cfg := DefaultConfig()
		cfg.Density = 7800
		return cfg
	},
	"jacobi": func() *Config {
		cfg := DefaultConfig()
		cfg.Solver = SolverConfig{Type: "jacobi", MaxIterations: 100, Omega: 0.2}
		return cfg
	},
	"fine_mesh": func() *Config {
		cfg := DefaultConfig()
		cfg.Shape.MeshCells = 128
		cfg.Timestep = 0.0025
		return cfg
	},
	"drop_high": func() *Config {
		cfg := DefaultConfig()
		cfg.Shape.Position = [3]float64{0, 0.2, 0}
		cfg.Duration = 8
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	mk, ok := Presets[name]
	if !ok {
		return nil
	}
	return mk()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
