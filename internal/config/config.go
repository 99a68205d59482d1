package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/cascadedrop/internal/cad"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimestep  = 0.005
	DefaultDuration  = 5.0
	DefaultDensity   = 1000.0
	DefaultMeshCells = cad.DefaultMeshCells
	DefaultTolerance = 0.001
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Shape      ShapeConfig     `yaml:"shape"`
	Density    float64         `yaml:"density"`
	Floor      FloorConfig     `yaml:"floor"`
	Collision  CollisionConfig `yaml:"collision"`
	Solver     SolverConfig    `yaml:"solver"`
	Gravity    [3]float64      `yaml:"gravity"`
	Timestep   float64         `yaml:"timestep"`
	Duration   float64         `yaml:"duration"`
	Integrator string          `yaml:"integrator"`
	Viewer     ViewerConfig    `yaml:"viewer"`
}

type ShapeConfig struct {
	cad.Dimensions `yaml:",inline"`
	MeshCells      int        `yaml:"mesh_cells"`
	Position       [3]float64 `yaml:"position"`
}

// FloorConfig describes the fixed box. Size holds full side lengths.
type FloorConfig struct {
	Size     [3]float64 `yaml:"size"`
	Position [3]float64 `yaml:"position"`
	Density  float64    `yaml:"density"`
	Color    [3]float32 `yaml:"color"`
}

type CollisionConfig struct {
	Envelope         float64 `yaml:"envelope"`
	Margin           float64 `yaml:"margin"`
	Friction         float64 `yaml:"friction"`
	MaxRecoverySpeed float64 `yaml:"max_recovery_speed"`
}

type SolverConfig struct {
	Type          string  `yaml:"type"`
	MaxIterations int     `yaml:"max_iterations"`
	Omega         float64 `yaml:"omega"`
}

type ViewerConfig struct {
	Title    string     `yaml:"title"`
	Width    int        `yaml:"width"`
	Height   int        `yaml:"height"`
	DataPath string     `yaml:"data_path"`
	Camera   [3]float64 `yaml:"camera"`
	Sky      string     `yaml:"sky"`
	Logo     string     `yaml:"logo"`
	FPS      int        `yaml:"fps"`
}

func DefaultConfig() *Config {
	return &Config{
		Shape: ShapeConfig{
			Dimensions: cad.DefaultDimensions(),
			MeshCells:  DefaultMeshCells,
		},
		Density: DefaultDensity,
		Floor: FloorConfig{
			Size:     [3]float64{1, 0.2, 1},
			Position: [3]float64{0, -0.3, 0},
			Density:  DefaultDensity,
			Color:    [3]float32{0.2, 0.2, 0.5},
		},
		Collision: CollisionConfig{
			Envelope:         DefaultTolerance,
			Margin:           DefaultTolerance,
			Friction:         0.6,
			MaxRecoverySpeed: 0.6,
		},
		Solver:     SolverConfig{Type: "sor", MaxIterations: 50},
		Gravity:    [3]float64{0, -9.81, 0},
		Timestep:   DefaultTimestep,
		Duration:   DefaultDuration,
		Integrator: "euler_implicit_linearized",
		Viewer: ViewerConfig{
			Title:    "Use OpenCascade shapes",
			Width:    1024,
			Height:   768,
			DataPath: "data/",
			Camera:   [3]float64{0.2, 0.2, -0.2},
			Sky:      "skybox/",
			Logo:     "logo_pychrono_alpha.png",
			FPS:      60,
		},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Steps is the number of timesteps covering Duration.
func (c *Config) Steps() int {
	if c.Timestep <= 0 {
		return 0
	}
	return int(c.Duration/c.Timestep + 0.5)
}

func (c *Config) Validate() error {
	d := c.Shape.Dimensions
	switch {
	case d.TorusMajor <= 0 || d.TorusMinor <= 0 || d.CylinderRadius <= 0 || d.CylinderHeight <= 0:
		return fmt.Errorf("%w: shape dimensions must be positive", ErrInvalid)
	case d.TorusMinor >= d.TorusMajor:
		return fmt.Errorf("%w: torus minor radius %g must be below major radius %g", ErrInvalid, d.TorusMinor, d.TorusMajor)
	case c.Shape.MeshCells < 8:
		return fmt.Errorf("%w: mesh_cells %d is too coarse", ErrInvalid, c.Shape.MeshCells)
	case c.Density <= 0 || c.Floor.Density <= 0:
		return fmt.Errorf("%w: density must be positive", ErrInvalid)
	case c.Floor.Size[0] <= 0 || c.Floor.Size[1] <= 0 || c.Floor.Size[2] <= 0:
		return fmt.Errorf("%w: floor size must be positive", ErrInvalid)
	case c.Collision.Envelope < 0 || c.Collision.Margin < 0:
		return fmt.Errorf("%w: collision tolerances must not be negative", ErrInvalid)
	case c.Timestep <= 0:
		return fmt.Errorf("%w: timestep must be positive", ErrInvalid)
	case c.Duration < 0:
		return fmt.Errorf("%w: duration must not be negative", ErrInvalid)
	case c.Viewer.Width <= 0 || c.Viewer.Height <= 0:
		return fmt.Errorf("%w: window size must be positive", ErrInvalid)
	}
	switch c.Solver.Type {
	case "sor", "jacobi":
	default:
		return fmt.Errorf("%w: unknown solver %q", ErrInvalid, c.Solver.Type)
	}
	return nil
}
