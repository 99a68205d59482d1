// Package dynamo provides the core primitives shared by the rigid-body
// engine, the solver and the viewers.
//
//   - [Pose]: position of the center of mass plus orientation quaternion
//   - [Twist]: linear and angular velocity in world coordinates
//   - [State]: pose and twist of one body at one instant
//   - [Sample]: a recorded [State] tagged with body and time
//
// Vectors, quaternions and matrices are github.com/go-gl/mathgl/mgl64 types.
//
// # Thread Safety
//
// None of the types here are synchronized. A world and everything it owns
// is driven from a single goroutine.
package dynamo
