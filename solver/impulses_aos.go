// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

// solveImpulsesAoS runs one impulse pass over joints
// [jointStart, jointStart+jointCount), reading and writing the RigidBody
// records directly. Reports whether any joint applied a delta above the
// productivity threshold.
//
// A joint whose bodies have both been quiet for a full iteration
// (lastIteration <= iterationIndex-2) is skipped: nothing upstream of it
// changed, so re-solving it would reproduce the same state.
func (s *Solver) solveImpulsesAoS(bodies []RigidBody, jointStart, jointCount, iterationIndex int) bool {
	productive := false

	for jointIndex := jointStart; jointIndex < jointStart+jointCount; jointIndex++ {
		joint := &s.ContactJoints[jointIndex]

		body1 := &bodies[joint.Body1Index]
		body2 := &bodies[joint.Body2Index]

		if body1.LastIteration < int32(iterationIndex)-1 && body2.LastIteration < int32(iterationIndex)-1 {
			continue
		}

		normaldV := joint.NormalLimiter.DstVelocity

		normaldV -= joint.NormalLimiter.NormalProjector1.X * body1.Velocity.X
		normaldV -= joint.NormalLimiter.NormalProjector1.Y * body1.Velocity.Y
		normaldV -= joint.NormalLimiter.AngularProjector1 * body1.AngularVelocity

		normaldV -= joint.NormalLimiter.NormalProjector2.X * body2.Velocity.X
		normaldV -= joint.NormalLimiter.NormalProjector2.Y * body2.Velocity.Y
		normaldV -= joint.NormalLimiter.AngularProjector2 * body2.AngularVelocity

		normalDeltaImpulse := normaldV * joint.NormalLimiter.CompInvMass

		if normalDeltaImpulse+joint.NormalLimiter.AccumulatedImpulse < 0 {
			normalDeltaImpulse = -joint.NormalLimiter.AccumulatedImpulse
		}

		body1.Velocity.X += joint.NormalLimiter.CompMass1Linear.X * normalDeltaImpulse
		body1.Velocity.Y += joint.NormalLimiter.CompMass1Linear.Y * normalDeltaImpulse
		body1.AngularVelocity += joint.NormalLimiter.CompMass1Angular * normalDeltaImpulse

		body2.Velocity.X += joint.NormalLimiter.CompMass2Linear.X * normalDeltaImpulse
		body2.Velocity.Y += joint.NormalLimiter.CompMass2Linear.Y * normalDeltaImpulse
		body2.AngularVelocity += joint.NormalLimiter.CompMass2Angular * normalDeltaImpulse

		joint.NormalLimiter.AccumulatedImpulse += normalDeltaImpulse

		// Friction works against the velocities the normal impulse just
		// produced.
		frictiondV := float32(0)

		frictiondV -= joint.FrictionLimiter.NormalProjector1.X * body1.Velocity.X
		frictiondV -= joint.FrictionLimiter.NormalProjector1.Y * body1.Velocity.Y
		frictiondV -= joint.FrictionLimiter.AngularProjector1 * body1.AngularVelocity

		frictiondV -= joint.FrictionLimiter.NormalProjector2.X * body2.Velocity.X
		frictiondV -= joint.FrictionLimiter.NormalProjector2.Y * body2.Velocity.Y
		frictiondV -= joint.FrictionLimiter.AngularProjector2 * body2.AngularVelocity

		frictionDeltaImpulse := frictiondV * joint.FrictionLimiter.CompInvMass

		reactionForce := joint.NormalLimiter.AccumulatedImpulse
		accumulatedImpulse := joint.FrictionLimiter.AccumulatedImpulse

		frictionForce := accumulatedImpulse + frictionDeltaImpulse

		if abs32(frictionForce) > reactionForce*kFrictionCoefficient {
			dir := float32(-1)
			if frictionForce > 0 {
				dir = 1
			}
			frictionForce = dir * reactionForce * kFrictionCoefficient
			frictionDeltaImpulse = frictionForce - accumulatedImpulse
		}

		joint.FrictionLimiter.AccumulatedImpulse += frictionDeltaImpulse

		body1.Velocity.X += joint.FrictionLimiter.CompMass1Linear.X * frictionDeltaImpulse
		body1.Velocity.Y += joint.FrictionLimiter.CompMass1Linear.Y * frictionDeltaImpulse
		body1.AngularVelocity += joint.FrictionLimiter.CompMass1Angular * frictionDeltaImpulse

		body2.Velocity.X += joint.FrictionLimiter.CompMass2Linear.X * frictionDeltaImpulse
		body2.Velocity.Y += joint.FrictionLimiter.CompMass2Linear.Y * frictionDeltaImpulse
		body2.AngularVelocity += joint.FrictionLimiter.CompMass2Angular * frictionDeltaImpulse

		cumulativeImpulse := max32(abs32(normalDeltaImpulse), abs32(frictionDeltaImpulse))

		if cumulativeImpulse > kProductiveImpulse {
			body1.LastIteration = int32(iterationIndex)
			body2.LastIteration = int32(iterationIndex)
			productive = true
		}
	}

	return productive
}

// solveDisplacementAoS is the positional-correction analogue of
// solveImpulsesAoS: normal limiter only, displacing channel, no friction.
func (s *Solver) solveDisplacementAoS(bodies []RigidBody, jointStart, jointCount, iterationIndex int) bool {
	productive := false

	for jointIndex := jointStart; jointIndex < jointStart+jointCount; jointIndex++ {
		joint := &s.ContactJoints[jointIndex]

		body1 := &bodies[joint.Body1Index]
		body2 := &bodies[joint.Body2Index]

		if body1.LastDisplacementIteration < int32(iterationIndex)-1 && body2.LastDisplacementIteration < int32(iterationIndex)-1 {
			continue
		}

		dV := joint.NormalLimiter.DstDisplacingVelocity

		dV -= joint.NormalLimiter.NormalProjector1.X * body1.DisplacingVelocity.X
		dV -= joint.NormalLimiter.NormalProjector1.Y * body1.DisplacingVelocity.Y
		dV -= joint.NormalLimiter.AngularProjector1 * body1.DisplacingAngularVelocity

		dV -= joint.NormalLimiter.NormalProjector2.X * body2.DisplacingVelocity.X
		dV -= joint.NormalLimiter.NormalProjector2.Y * body2.DisplacingVelocity.Y
		dV -= joint.NormalLimiter.AngularProjector2 * body2.DisplacingAngularVelocity

		displacingDeltaImpulse := dV * joint.NormalLimiter.CompInvMass

		if displacingDeltaImpulse+joint.NormalLimiter.AccumulatedDisplacingImpulse < 0 {
			displacingDeltaImpulse = -joint.NormalLimiter.AccumulatedDisplacingImpulse
		}

		body1.DisplacingVelocity.X += joint.NormalLimiter.CompMass1Linear.X * displacingDeltaImpulse
		body1.DisplacingVelocity.Y += joint.NormalLimiter.CompMass1Linear.Y * displacingDeltaImpulse
		body1.DisplacingAngularVelocity += joint.NormalLimiter.CompMass1Angular * displacingDeltaImpulse

		body2.DisplacingVelocity.X += joint.NormalLimiter.CompMass2Linear.X * displacingDeltaImpulse
		body2.DisplacingVelocity.Y += joint.NormalLimiter.CompMass2Linear.Y * displacingDeltaImpulse
		body2.DisplacingAngularVelocity += joint.NormalLimiter.CompMass2Angular * displacingDeltaImpulse

		joint.NormalLimiter.AccumulatedDisplacingImpulse += displacingDeltaImpulse

		if abs32(displacingDeltaImpulse) > kProductiveImpulse {
			body1.LastDisplacementIteration = int32(iterationIndex)
			body2.LastDisplacementIteration = int32(iterationIndex)
			productive = true
		}
	}

	return productive
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
