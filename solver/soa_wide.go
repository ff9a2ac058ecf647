// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import "github.com/ajroetker/go-highway/hwy"

// solveImpulsesSoAWide runs the impulse pass width joints at a time over
// the grouped prefix. Grouping guarantees the bodies inside one window
// are pairwise disjoint, so the gathered body lanes can be updated and
// scattered back without lane-vs-lane hazards; sequential semantics are
// preserved because lanes of one window never share a body.
//
// The per-window skip check mirrors the scalar kernels: if every lane's
// bodies have been quiet for a full iteration the whole window is
// skipped; otherwise all lanes run and productivity is tracked per lane.
func (s *Solver) solveImpulsesSoAWide(width, jointStart, jointCount, iterationIndex int) bool {
	if jointStart%width != 0 || jointCount%width != 0 {
		panic("solver: impulse kernel bounds not aligned to batch width")
	}

	p := &s.packed
	buf := &s.solveBodiesImpulse

	iota := hwy.IndicesIota[int32](width)

	iterationIndex2 := splatI32(width, int32(iterationIndex)-2)
	iterationBitsVec := splatBits(width, uint32(int32(iterationIndex)))
	epsVec := splatF32(width, kProductiveImpulse)
	muVec := splatF32(width, kFrictionCoefficient)
	signVec := splatBits(width, 0x80000000)

	productiveAny := false

	for i := jointStart; i < jointStart+jointCount; i += width {
		body1 := gatherBodies(buf, p.body1Index[i:i+width])
		body2 := gatherBodies(buf, p.body2Index[i:i+width])

		bodyLastIteration := hwy.Max(body1.lastIteration(), body2.lastIteration())

		if !hwy.GreaterThan(bodyLastIteration, iterationIndex2).AnyTrue() {
			continue
		}

		jNormalProjector1X := loadLanes(p.normalLimiterNormalProjector1X[i:], iota)
		jNormalProjector1Y := loadLanes(p.normalLimiterNormalProjector1Y[i:], iota)
		jNormalProjector2X := loadLanes(p.normalLimiterNormalProjector2X[i:], iota)
		jNormalProjector2Y := loadLanes(p.normalLimiterNormalProjector2Y[i:], iota)
		jAngularProjector1 := loadLanes(p.normalLimiterAngularProjector1[i:], iota)
		jAngularProjector2 := loadLanes(p.normalLimiterAngularProjector2[i:], iota)

		jCompMass1LinearX := loadLanes(p.normalLimiterCompMass1LinearX[i:], iota)
		jCompMass1LinearY := loadLanes(p.normalLimiterCompMass1LinearY[i:], iota)
		jCompMass2LinearX := loadLanes(p.normalLimiterCompMass2LinearX[i:], iota)
		jCompMass2LinearY := loadLanes(p.normalLimiterCompMass2LinearY[i:], iota)
		jCompMass1Angular := loadLanes(p.normalLimiterCompMass1Angular[i:], iota)
		jCompMass2Angular := loadLanes(p.normalLimiterCompMass2Angular[i:], iota)
		jCompInvMass := loadLanes(p.normalLimiterCompInvMass[i:], iota)
		jAccumulatedImpulse := loadLanes(p.normalLimiterAccumulatedImpulse[i:], iota)
		jDstVelocity := loadLanes(p.normalLimiterDstVelocity[i:], iota)

		jFrictionProjector1X := loadLanes(p.frictionLimiterNormalProjector1X[i:], iota)
		jFrictionProjector1Y := loadLanes(p.frictionLimiterNormalProjector1Y[i:], iota)
		jFrictionProjector2X := loadLanes(p.frictionLimiterNormalProjector2X[i:], iota)
		jFrictionProjector2Y := loadLanes(p.frictionLimiterNormalProjector2Y[i:], iota)
		jFrictionAngularProjector1 := loadLanes(p.frictionLimiterAngularProjector1[i:], iota)
		jFrictionAngularProjector2 := loadLanes(p.frictionLimiterAngularProjector2[i:], iota)

		jFrictionCompMass1LinearX := loadLanes(p.frictionLimiterCompMass1LinearX[i:], iota)
		jFrictionCompMass1LinearY := loadLanes(p.frictionLimiterCompMass1LinearY[i:], iota)
		jFrictionCompMass2LinearX := loadLanes(p.frictionLimiterCompMass2LinearX[i:], iota)
		jFrictionCompMass2LinearY := loadLanes(p.frictionLimiterCompMass2LinearY[i:], iota)
		jFrictionCompMass1Angular := loadLanes(p.frictionLimiterCompMass1Angular[i:], iota)
		jFrictionCompMass2Angular := loadLanes(p.frictionLimiterCompMass2Angular[i:], iota)
		jFrictionCompInvMass := loadLanes(p.frictionLimiterCompInvMass[i:], iota)
		jFrictionAccumulatedImpulse := loadLanes(p.frictionLimiterAccumulatedImpulse[i:], iota)

		normaldV := jDstVelocity

		normaldV = hwy.Sub(normaldV, hwy.Mul(jNormalProjector1X, body1.velocityX))
		normaldV = hwy.Sub(normaldV, hwy.Mul(jNormalProjector1Y, body1.velocityY))
		normaldV = hwy.Sub(normaldV, hwy.Mul(jAngularProjector1, body1.angularVelocity))

		normaldV = hwy.Sub(normaldV, hwy.Mul(jNormalProjector2X, body2.velocityX))
		normaldV = hwy.Sub(normaldV, hwy.Mul(jNormalProjector2Y, body2.velocityY))
		normaldV = hwy.Sub(normaldV, hwy.Mul(jAngularProjector2, body2.angularVelocity))

		normalDeltaImpulse := hwy.Mul(normaldV, jCompInvMass)

		normalDeltaImpulse = hwy.Max(normalDeltaImpulse, hwy.Neg(jAccumulatedImpulse))

		body1.applyImpulse(jCompMass1LinearX, jCompMass1LinearY, jCompMass1Angular, normalDeltaImpulse)
		body2.applyImpulse(jCompMass2LinearX, jCompMass2LinearY, jCompMass2Angular, normalDeltaImpulse)

		jAccumulatedImpulse = hwy.Add(jAccumulatedImpulse, normalDeltaImpulse)

		frictiondV := hwy.Neg(hwy.Mul(jFrictionProjector1X, body1.velocityX))

		frictiondV = hwy.Sub(frictiondV, hwy.Mul(jFrictionProjector1Y, body1.velocityY))
		frictiondV = hwy.Sub(frictiondV, hwy.Mul(jFrictionAngularProjector1, body1.angularVelocity))

		frictiondV = hwy.Sub(frictiondV, hwy.Mul(jFrictionProjector2X, body2.velocityX))
		frictiondV = hwy.Sub(frictiondV, hwy.Mul(jFrictionProjector2Y, body2.velocityY))
		frictiondV = hwy.Sub(frictiondV, hwy.Mul(jFrictionAngularProjector2, body2.angularVelocity))

		frictionDeltaImpulse := hwy.Mul(frictiondV, jFrictionCompInvMass)

		reactionForce := jAccumulatedImpulse
		accumulatedImpulse := jFrictionAccumulatedImpulse

		frictionForce := hwy.Add(accumulatedImpulse, frictionDeltaImpulse)
		reactionForceScaled := hwy.Mul(reactionForce, muVec)

		// Signed Coulomb cap without branches: transfer the force's sign
		// onto the cap, then select the adjusted delta where the cap is
		// exceeded.
		frictionForceAbs := hwy.Abs(frictionForce)
		reactionForceScaledSigned := hwy.Xor(hwy.And(frictionForce, signVec), reactionForceScaled)
		frictionDeltaImpulseAdjusted := hwy.Sub(reactionForceScaledSigned, accumulatedImpulse)

		frictionDeltaImpulse = hwy.IfThenElse(
			hwy.GreaterThan(frictionForceAbs, reactionForceScaled),
			frictionDeltaImpulseAdjusted, frictionDeltaImpulse)

		jFrictionAccumulatedImpulse = hwy.Add(jFrictionAccumulatedImpulse, frictionDeltaImpulse)

		body1.applyImpulse(jFrictionCompMass1LinearX, jFrictionCompMass1LinearY, jFrictionCompMass1Angular, frictionDeltaImpulse)
		body2.applyImpulse(jFrictionCompMass2LinearX, jFrictionCompMass2LinearY, jFrictionCompMass2Angular, frictionDeltaImpulse)

		storeLanes(jAccumulatedImpulse, p.normalLimiterAccumulatedImpulse[i:], iota)
		storeLanes(jFrictionAccumulatedImpulse, p.frictionLimiterAccumulatedImpulse[i:], iota)

		cumulativeImpulse := hwy.Max(hwy.Abs(normalDeltaImpulse), hwy.Abs(frictionDeltaImpulse))

		productive := hwy.GreaterThan(cumulativeImpulse, epsVec)

		if productive.AnyTrue() {
			productiveAny = true
		}

		body1.raiseLastIteration(productive, iterationBitsVec)
		body2.raiseLastIteration(productive, iterationBitsVec)

		body1.scatter(buf)
		body2.scatter(buf)
	}

	return productiveAny
}

// solveDisplacementSoAWide is the positional-correction analogue of
// solveImpulsesSoAWide: normal limiter only, displacing channel.
func (s *Solver) solveDisplacementSoAWide(width, jointStart, jointCount, iterationIndex int) bool {
	if jointStart%width != 0 || jointCount%width != 0 {
		panic("solver: displacement kernel bounds not aligned to batch width")
	}

	p := &s.packed
	buf := &s.solveBodiesDisplacement

	iota := hwy.IndicesIota[int32](width)

	iterationIndex2 := splatI32(width, int32(iterationIndex)-2)
	iterationBitsVec := splatBits(width, uint32(int32(iterationIndex)))
	epsVec := splatF32(width, kProductiveImpulse)

	productiveAny := false

	for i := jointStart; i < jointStart+jointCount; i += width {
		body1 := gatherBodies(buf, p.body1Index[i:i+width])
		body2 := gatherBodies(buf, p.body2Index[i:i+width])

		bodyLastIteration := hwy.Max(body1.lastIteration(), body2.lastIteration())

		if !hwy.GreaterThan(bodyLastIteration, iterationIndex2).AnyTrue() {
			continue
		}

		jNormalProjector1X := loadLanes(p.normalLimiterNormalProjector1X[i:], iota)
		jNormalProjector1Y := loadLanes(p.normalLimiterNormalProjector1Y[i:], iota)
		jNormalProjector2X := loadLanes(p.normalLimiterNormalProjector2X[i:], iota)
		jNormalProjector2Y := loadLanes(p.normalLimiterNormalProjector2Y[i:], iota)
		jAngularProjector1 := loadLanes(p.normalLimiterAngularProjector1[i:], iota)
		jAngularProjector2 := loadLanes(p.normalLimiterAngularProjector2[i:], iota)

		jCompMass1LinearX := loadLanes(p.normalLimiterCompMass1LinearX[i:], iota)
		jCompMass1LinearY := loadLanes(p.normalLimiterCompMass1LinearY[i:], iota)
		jCompMass2LinearX := loadLanes(p.normalLimiterCompMass2LinearX[i:], iota)
		jCompMass2LinearY := loadLanes(p.normalLimiterCompMass2LinearY[i:], iota)
		jCompMass1Angular := loadLanes(p.normalLimiterCompMass1Angular[i:], iota)
		jCompMass2Angular := loadLanes(p.normalLimiterCompMass2Angular[i:], iota)
		jCompInvMass := loadLanes(p.normalLimiterCompInvMass[i:], iota)

		jDstDisplacingVelocity := loadLanes(p.normalLimiterDstDisplacingVelocity[i:], iota)
		jAccumulatedDisplacingImpulse := loadLanes(p.normalLimiterAccumulatedDisplacingImpulse[i:], iota)

		dV := jDstDisplacingVelocity

		dV = hwy.Sub(dV, hwy.Mul(jNormalProjector1X, body1.velocityX))
		dV = hwy.Sub(dV, hwy.Mul(jNormalProjector1Y, body1.velocityY))
		dV = hwy.Sub(dV, hwy.Mul(jAngularProjector1, body1.angularVelocity))

		dV = hwy.Sub(dV, hwy.Mul(jNormalProjector2X, body2.velocityX))
		dV = hwy.Sub(dV, hwy.Mul(jNormalProjector2Y, body2.velocityY))
		dV = hwy.Sub(dV, hwy.Mul(jAngularProjector2, body2.angularVelocity))

		displacingDeltaImpulse := hwy.Mul(dV, jCompInvMass)

		displacingDeltaImpulse = hwy.Max(displacingDeltaImpulse, hwy.Neg(jAccumulatedDisplacingImpulse))

		body1.applyImpulse(jCompMass1LinearX, jCompMass1LinearY, jCompMass1Angular, displacingDeltaImpulse)
		body2.applyImpulse(jCompMass2LinearX, jCompMass2LinearY, jCompMass2Angular, displacingDeltaImpulse)

		jAccumulatedDisplacingImpulse = hwy.Add(jAccumulatedDisplacingImpulse, displacingDeltaImpulse)

		storeLanes(jAccumulatedDisplacingImpulse, p.normalLimiterAccumulatedDisplacingImpulse[i:], iota)

		productive := hwy.GreaterThan(hwy.Abs(displacingDeltaImpulse), epsVec)

		if productive.AnyTrue() {
			productiveAny = true
		}

		body1.raiseLastIteration(productive, iterationBitsVec)
		body2.raiseLastIteration(productive, iterationBitsVec)

		body1.scatter(buf)
		body2.scatter(buf)
	}

	return productiveAny
}
