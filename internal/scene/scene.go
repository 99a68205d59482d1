// Package scene assembles the drop demo: a torus with a cylinder cut out of
// it falling onto a fixed floor box.
package scene

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/cad"
	"github.com/san-kum/cascadedrop/internal/config"
	"github.com/san-kum/cascadedrop/internal/physics"
	"github.com/san-kum/cascadedrop/internal/solver"
	"github.com/san-kum/cascadedrop/internal/viewer"
)

const (
	ShapeName = "shape"
	FloorName = "floor"
)

type Scene struct {
	World *physics.World
	Shape *physics.Body
	Floor *physics.Body
	Solid *cad.Shape
	Mesh  *cad.Mesh
}

// WorldConfig maps the scene config onto world settings.
func WorldConfig(cfg *config.Config) physics.Config {
	wc := physics.DefaultConfig()
	wc.Gravity = mgl64.Vec3(cfg.Gravity)
	wc.Envelope = cfg.Collision.Envelope
	wc.Margin = cfg.Collision.Margin
	wc.Friction = cfg.Collision.Friction
	if cfg.Collision.MaxRecoverySpeed > 0 {
		wc.MaxRecoverySpeed = cfg.Collision.MaxRecoverySpeed
	}
	wc.Solver = solver.Kind(cfg.Solver.Type)
	wc.MaxIterations = cfg.Solver.MaxIterations
	wc.Omega = cfg.Solver.Omega
	wc.Integrator = cfg.Integrator
	return wc
}

// Build creates the world and both bodies. Collision tolerances are part of
// the world config, so they are in place before any body exists.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Scene, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	solid, err := cad.BuildDemoShape(cad.New(), cfg.Shape.Dimensions)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mesh, err := cad.Tessellate(solid, cfg.Shape.MeshCells)
	if err != nil {
		return nil, fmt.Errorf("tessellate %s: %w", solid.Name(), err)
	}
	log.Debug("shape tessellated", "triangles", mesh.TriangleCount(), "cells", cfg.Shape.MeshCells)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	world, err := physics.NewWorld(WorldConfig(cfg))
	if err != nil {
		return nil, err
	}

	shape, err := world.NewShapeBody(mesh, cfg.Density, true, true)
	if err != nil {
		return nil, fmt.Errorf("shape body: %w", err)
	}
	shape.SetName(ShapeName)
	shape.SetRefPos(mgl64.Vec3(cfg.Shape.Position))

	fs := cfg.Floor.Size
	floor, err := world.NewBoxBody(fs[0], fs[1], fs[2], cfg.Floor.Density, true, true)
	if err != nil {
		return nil, fmt.Errorf("floor body: %w", err)
	}
	floor.SetName(FloorName)
	floor.SetPos(mgl64.Vec3(cfg.Floor.Position))
	floor.SetFixed(true)
	c := cfg.Floor.Color
	floor.AddAsset(physics.NewColorAsset(c[0], c[1], c[2]))

	if err := world.Add(shape); err != nil {
		return nil, err
	}
	if err := world.Add(floor); err != nil {
		return nil, err
	}

	log.Info("scene built",
		"mass", shape.Mass(),
		"com", shape.Pos(),
		"solver", world.SolverType(),
		"envelope", cfg.Collision.Envelope,
		"margin", cfg.Collision.Margin,
	)
	return &Scene{World: world, Shape: shape, Floor: floor, Solid: solid, Mesh: mesh}, nil
}

// Attach dresses the viewer with sky, logo, camera and lights, binds every
// body and sets the timestep.
func (s *Scene) Attach(v *viewer.Viewer, cfg *config.Config) error {
	vc := cfg.Viewer
	v.AddTypicalSky(vc.Sky)
	v.AddTypicalLogo(vc.Logo)
	v.AddTypicalCamera(mgl64.Vec3(vc.Camera))
	v.AddTypicalLights()

	v.BindAll()
	v.UpdateAll()
	if err := v.SetTimestep(cfg.Timestep); err != nil {
		return err
	}
	return v.Ready()
}

// AddVisible adds a body to the world and gives it an up-to-date proxy.
func AddVisible(w *physics.World, v *viewer.Viewer, b *physics.Body) (*viewer.Proxy, error) {
	if err := w.Add(b); err != nil {
		return nil, err
	}
	p := v.Bind(b)
	if err := v.Update(b); err != nil {
		return nil, err
	}
	return p, nil
}

// ViewerOptions maps the viewer section of the config.
func ViewerOptions(cfg *config.Config) viewer.Options {
	return viewer.Options{
		Title:    cfg.Viewer.Title,
		Width:    cfg.Viewer.Width,
		Height:   cfg.Viewer.Height,
		DataPath: cfg.Viewer.DataPath,
	}
}
