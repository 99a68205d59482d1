// Package physics is a rigid-body engine with non-smooth (complementarity)
// contact.
//
// A [World] owns its bodies and the global collision tolerances. Bodies are
// created by the world they belong to, so every collision model is built
// with the world's envelope and margin:
//
//	w, _ := physics.NewWorld(physics.DefaultConfig())
//	floor, _ := w.NewBoxBody(1, 0.2, 1, 1000, true, true)
//	floor.SetPos(mgl64.Vec3{0, -0.3, 0})
//	floor.SetFixed(true)
//	_ = w.Add(floor)
//	_ = w.Step(0.005)
//
// Each [World.Step] applies gravity, detects contacts, lets the configured
// solver compute contact impulses and finally integrates positions. Fixed
// bodies take part in contact but are never integrated.
package physics
