// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

// RigidBody is the per-body state the solver consumes. Bodies are owned by
// the caller; the solver refers to them by index into a contiguous slice.
//
// The solver writes Velocity/AngularVelocity and the displacing channel.
// InvMass and InvInertia are read during pre-step only; an infinite-mass
// (static) body has both set to zero. LastIteration and
// LastDisplacementIteration are used by the AoS backend to track
// per-body convergence; the SoA backends keep their own copies.
type RigidBody struct {
	Position Vector2
	Angle    float32

	Velocity        Vector2
	AngularVelocity float32

	// Positional-correction channel: a pseudo-velocity accumulated by the
	// displacement passes and drained by the caller's integrator.
	DisplacingVelocity        Vector2
	DisplacingAngularVelocity float32

	InvMass    float32
	InvInertia float32

	// Restitution feeds the velocity bias in pre-step. The contact uses
	// the larger of the two bodies' coefficients.
	Restitution float32

	LastIteration             int32
	LastDisplacementIteration int32
}

// NewBody returns a dynamic body with the given mass and inertia.
// Zero mass or inertia means infinite (the corresponding inverse is zero).
func NewBody(pos Vector2, mass, inertia float32) RigidBody {
	b := RigidBody{Position: pos}
	if mass > 0 {
		b.InvMass = 1 / mass
	}
	if inertia > 0 {
		b.InvInertia = 1 / inertia
	}
	return b
}
