// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

// Tunables of the iteration contract. These are constants, not
// configuration: backends and tests rely on the exact values.
const (
	// kProductiveImpulse is the |delta| threshold below which a joint does
	// not count as productive for early-exit purposes.
	kProductiveImpulse float32 = 1e-4

	// kFrictionCoefficient caps the friction accumulator at
	// mu * normal reaction (Coulomb cone).
	kFrictionCoefficient float32 = 0.3

	// kRestitutionThreshold is the approach speed below which restitution
	// does not kick in.
	kRestitutionThreshold float32 = 1.0

	// kLinearSlop is the penetration depth tolerated before positional
	// correction engages.
	kLinearSlop float32 = 0.005

	// kBaumgarte scales how much of the remaining penetration one step's
	// displacement pass tries to resolve.
	kBaumgarte float32 = 0.2
)

// Limiter is a single scalar constraint row: the Jacobian applied to the
// two bodies (projectors), the inverse-mass-weighted columns used to
// scatter an impulse back into body state, the effective inverse mass
// along the row, the velocity target, and the warm-start accumulator.
type Limiter struct {
	NormalProjector1 Vector2
	NormalProjector2 Vector2

	AngularProjector1 float32
	AngularProjector2 float32

	CompMass1Linear Vector2
	CompMass2Linear Vector2

	CompMass1Angular float32
	CompMass2Angular float32

	CompInvMass float32

	DstVelocity float32

	AccumulatedImpulse float32
}

// init fills the projectors and effective-mass coefficients for the row
// (n1, w1) on body1 and (n2, w2) on body2. When both bodies are
// infinite-mass the row's effective mass is infinite and CompInvMass is 0:
// the joint never changes body state but still occupies an iteration slot.
func (l *Limiter) init(n1, n2 Vector2, w1, w2 float32, body1, body2 *RigidBody) {
	l.NormalProjector1 = n1
	l.NormalProjector2 = n2
	l.AngularProjector1 = w1
	l.AngularProjector2 = w2

	l.CompMass1Linear = n1.Scale(body1.InvMass)
	l.CompMass2Linear = n2.Scale(body2.InvMass)
	l.CompMass1Angular = w1 * body1.InvInertia
	l.CompMass2Angular = w2 * body2.InvInertia

	compMass := n1.Dot(n1)*body1.InvMass + w1*w1*body1.InvInertia +
		n2.Dot(n2)*body2.InvMass + w2*w2*body2.InvInertia

	if compMass != 0 {
		l.CompInvMass = 1 / compMass
	} else {
		l.CompInvMass = 0
	}
}

// NormalLimiter is the contact-normal row. It additionally carries the
// positional-correction channel solved by the displacement passes.
type NormalLimiter struct {
	Limiter

	DstDisplacingVelocity        float32
	AccumulatedDisplacingImpulse float32
}

// ContactJoint is one contact point promoted into solver form. It is
// created and destroyed by the manifold layer; between steps it is
// refreshed (world geometry from current poses) and pre-stepped
// (projectors, effective masses, bias velocities).
//
// Body references are indices into the caller's body slice; the AoS
// backend resolves index -> &bodies[index] at use.
type ContactJoint struct {
	Body1Index int32
	Body2Index int32

	Point *ContactPoint

	// World-space geometry, rebuilt by Refresh.
	r1     Vector2
	r2     Vector2
	normal Vector2
	depth  float32

	NormalLimiter   NormalLimiter
	FrictionLimiter Limiter
}

func NewContactJoint(body1Index, body2Index int32, point *ContactPoint) ContactJoint {
	return ContactJoint{
		Body1Index: body1Index,
		Body2Index: body2Index,
		Point:      point,
	}
}

// Refresh recomputes the joint's world-space anchors, normal and
// penetration depth from the current body poses. Refresh touches no
// shared state and is safe to run for all joints in parallel.
func (j *ContactJoint) Refresh(bodies []RigidBody) {
	body1 := &bodies[j.Body1Index]
	body2 := &bodies[j.Body2Index]

	rot1 := NewRot(body1.Angle)
	rot2 := NewRot(body2.Angle)

	j.r1 = rot1.Apply(j.Point.LocalAnchor1)
	j.r2 = rot2.Apply(j.Point.LocalAnchor2)
	j.normal = rot1.Apply(j.Point.LocalNormal)

	w1 := body1.Position.Add(j.r1)
	w2 := body2.Position.Add(j.r2)

	// Positive depth means overlap along the normal.
	j.depth = w1.Sub(w2).Dot(j.normal)
}

// PreStep rebuilds both limiters against the refreshed geometry and sets
// the velocity targets. Accumulated impulses are kept (warm start); the
// iteration kernels clamp against them.
//
// Row convention: the measured quantity is the separation speed of the
// contact pair along the row direction, so a positive impulse pushes the
// bodies apart.
func (j *ContactJoint) PreStep(bodies []RigidBody) {
	body1 := &bodies[j.Body1Index]
	body2 := &bodies[j.Body2Index]

	n := j.normal
	t := n.Perp()

	j.NormalLimiter.init(n.Neg(), n, -j.r1.Cross(n), j.r2.Cross(n), body1, body2)
	j.FrictionLimiter.init(t.Neg(), t, -j.r1.Cross(t), j.r2.Cross(t), body1, body2)

	v1 := body1.Velocity.Add(j.r1.Perp().Scale(body1.AngularVelocity))
	v2 := body2.Velocity.Add(j.r2.Perp().Scale(body2.AngularVelocity))
	vn := v2.Sub(v1).Dot(n)

	j.NormalLimiter.DstVelocity = 0
	if vn < -kRestitutionThreshold {
		restitution := body1.Restitution
		if body2.Restitution > restitution {
			restitution = body2.Restitution
		}
		j.NormalLimiter.DstVelocity = -restitution * vn
	}

	if j.depth > kLinearSlop {
		j.NormalLimiter.DstDisplacingVelocity = kBaumgarte * (j.depth - kLinearSlop)
	} else {
		j.NormalLimiter.DstDisplacingVelocity = 0
	}

	j.FrictionLimiter.DstVelocity = 0
}
