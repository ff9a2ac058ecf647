// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

// solveImpulsesSoAScalar is the width-1 impulse kernel: the same math as
// the wide kernels, one packed lane at a time, against the solve-body
// buffers. It covers the ungrouped tail for the SIMD backends and the
// whole array for the SoA-scalar backend.
func (s *Solver) solveImpulsesSoAScalar(jointStart, jointCount, iterationIndex int) bool {
	p := &s.packed
	buf := &s.solveBodiesImpulse

	productive := false

	for i := jointStart; i < jointStart+jointCount; i++ {
		b1 := p.body1Index[i]
		b2 := p.body2Index[i]

		if buf.lastIteration(b1) < int32(iterationIndex)-1 && buf.lastIteration(b2) < int32(iterationIndex)-1 {
			continue
		}

		body1Velocity := buf.velocity(b1)
		body1AngularVelocity := buf.angularVelocity(b1)
		body2Velocity := buf.velocity(b2)
		body2AngularVelocity := buf.angularVelocity(b2)

		normaldV := p.normalLimiterDstVelocity[i]

		normaldV -= p.normalLimiterNormalProjector1X[i] * body1Velocity.X
		normaldV -= p.normalLimiterNormalProjector1Y[i] * body1Velocity.Y
		normaldV -= p.normalLimiterAngularProjector1[i] * body1AngularVelocity

		normaldV -= p.normalLimiterNormalProjector2X[i] * body2Velocity.X
		normaldV -= p.normalLimiterNormalProjector2Y[i] * body2Velocity.Y
		normaldV -= p.normalLimiterAngularProjector2[i] * body2AngularVelocity

		normalDeltaImpulse := normaldV * p.normalLimiterCompInvMass[i]

		if normalDeltaImpulse < -p.normalLimiterAccumulatedImpulse[i] {
			normalDeltaImpulse = -p.normalLimiterAccumulatedImpulse[i]
		}

		body1Velocity.X += p.normalLimiterCompMass1LinearX[i] * normalDeltaImpulse
		body1Velocity.Y += p.normalLimiterCompMass1LinearY[i] * normalDeltaImpulse
		body1AngularVelocity += p.normalLimiterCompMass1Angular[i] * normalDeltaImpulse

		body2Velocity.X += p.normalLimiterCompMass2LinearX[i] * normalDeltaImpulse
		body2Velocity.Y += p.normalLimiterCompMass2LinearY[i] * normalDeltaImpulse
		body2AngularVelocity += p.normalLimiterCompMass2Angular[i] * normalDeltaImpulse

		p.normalLimiterAccumulatedImpulse[i] += normalDeltaImpulse

		frictiondV := float32(0)

		frictiondV -= p.frictionLimiterNormalProjector1X[i] * body1Velocity.X
		frictiondV -= p.frictionLimiterNormalProjector1Y[i] * body1Velocity.Y
		frictiondV -= p.frictionLimiterAngularProjector1[i] * body1AngularVelocity

		frictiondV -= p.frictionLimiterNormalProjector2X[i] * body2Velocity.X
		frictiondV -= p.frictionLimiterNormalProjector2Y[i] * body2Velocity.Y
		frictiondV -= p.frictionLimiterAngularProjector2[i] * body2AngularVelocity

		frictionDeltaImpulse := frictiondV * p.frictionLimiterCompInvMass[i]

		reactionForce := p.normalLimiterAccumulatedImpulse[i]
		accumulatedImpulse := p.frictionLimiterAccumulatedImpulse[i]

		frictionForce := accumulatedImpulse + frictionDeltaImpulse

		if abs32(frictionForce) > reactionForce*kFrictionCoefficient {
			dir := float32(-1)
			if frictionForce > 0 {
				dir = 1
			}
			frictionForce = dir * reactionForce * kFrictionCoefficient
			frictionDeltaImpulse = frictionForce - accumulatedImpulse
		}

		p.frictionLimiterAccumulatedImpulse[i] += frictionDeltaImpulse

		body1Velocity.X += p.frictionLimiterCompMass1LinearX[i] * frictionDeltaImpulse
		body1Velocity.Y += p.frictionLimiterCompMass1LinearY[i] * frictionDeltaImpulse
		body1AngularVelocity += p.frictionLimiterCompMass1Angular[i] * frictionDeltaImpulse

		body2Velocity.X += p.frictionLimiterCompMass2LinearX[i] * frictionDeltaImpulse
		body2Velocity.Y += p.frictionLimiterCompMass2LinearY[i] * frictionDeltaImpulse
		body2AngularVelocity += p.frictionLimiterCompMass2Angular[i] * frictionDeltaImpulse

		cumulativeImpulse := max32(abs32(normalDeltaImpulse), abs32(frictionDeltaImpulse))

		lastIteration1 := buf.lastIteration(b1)
		lastIteration2 := buf.lastIteration(b2)

		if cumulativeImpulse > kProductiveImpulse {
			lastIteration1 = int32(iterationIndex)
			lastIteration2 = int32(iterationIndex)
			productive = true
		}

		buf.set(b1, body1Velocity, body1AngularVelocity, lastIteration1)
		buf.set(b2, body2Velocity, body2AngularVelocity, lastIteration2)
	}

	return productive
}

// solveDisplacementSoAScalar is the width-1 displacement kernel.
func (s *Solver) solveDisplacementSoAScalar(jointStart, jointCount, iterationIndex int) bool {
	p := &s.packed
	buf := &s.solveBodiesDisplacement

	productive := false

	for i := jointStart; i < jointStart+jointCount; i++ {
		b1 := p.body1Index[i]
		b2 := p.body2Index[i]

		if buf.lastIteration(b1) < int32(iterationIndex)-1 && buf.lastIteration(b2) < int32(iterationIndex)-1 {
			continue
		}

		body1Velocity := buf.velocity(b1)
		body1AngularVelocity := buf.angularVelocity(b1)
		body2Velocity := buf.velocity(b2)
		body2AngularVelocity := buf.angularVelocity(b2)

		dV := p.normalLimiterDstDisplacingVelocity[i]

		dV -= p.normalLimiterNormalProjector1X[i] * body1Velocity.X
		dV -= p.normalLimiterNormalProjector1Y[i] * body1Velocity.Y
		dV -= p.normalLimiterAngularProjector1[i] * body1AngularVelocity

		dV -= p.normalLimiterNormalProjector2X[i] * body2Velocity.X
		dV -= p.normalLimiterNormalProjector2Y[i] * body2Velocity.Y
		dV -= p.normalLimiterAngularProjector2[i] * body2AngularVelocity

		displacingDeltaImpulse := dV * p.normalLimiterCompInvMass[i]

		if displacingDeltaImpulse < -p.normalLimiterAccumulatedDisplacingImpulse[i] {
			displacingDeltaImpulse = -p.normalLimiterAccumulatedDisplacingImpulse[i]
		}

		body1Velocity.X += p.normalLimiterCompMass1LinearX[i] * displacingDeltaImpulse
		body1Velocity.Y += p.normalLimiterCompMass1LinearY[i] * displacingDeltaImpulse
		body1AngularVelocity += p.normalLimiterCompMass1Angular[i] * displacingDeltaImpulse

		body2Velocity.X += p.normalLimiterCompMass2LinearX[i] * displacingDeltaImpulse
		body2Velocity.Y += p.normalLimiterCompMass2LinearY[i] * displacingDeltaImpulse
		body2AngularVelocity += p.normalLimiterCompMass2Angular[i] * displacingDeltaImpulse

		p.normalLimiterAccumulatedDisplacingImpulse[i] += displacingDeltaImpulse

		lastIteration1 := buf.lastIteration(b1)
		lastIteration2 := buf.lastIteration(b2)

		if abs32(displacingDeltaImpulse) > kProductiveImpulse {
			lastIteration1 = int32(iterationIndex)
			lastIteration2 = int32(iterationIndex)
			productive = true
		}

		buf.set(b1, body1Velocity, body1AngularVelocity, lastIteration1)
		buf.set(b2, body2Velocity, body2AngularVelocity, lastIteration2)
	}

	return productive
}
