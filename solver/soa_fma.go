// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import "github.com/ajroetker/go-highway/hwy"

// The FMA backend consumes 16 joints per block as two interleaved 8-wide
// sub-batches: at the algorithm level it is a 16-lane step, split in two
// because the fused path is expressed over 8-lane vectors. The skip
// check spans all 16 lanes, so a block runs either whole or not at all.

const fmaBlockWidth = 16
const fmaHalfWidth = 8

// solveImpulsesSoAFMA runs the impulse pass over the grouped prefix in
// 16-joint blocks using fused multiply-add.
func (s *Solver) solveImpulsesSoAFMA(jointStart, jointCount, iterationIndex int) bool {
	if jointStart%fmaBlockWidth != 0 || jointCount%fmaBlockWidth != 0 {
		panic("solver: impulse kernel bounds not aligned to batch width")
	}

	p := &s.packed
	buf := &s.solveBodiesImpulse

	iota := hwy.IndicesIota[int32](fmaHalfWidth)

	iterationIndex2 := splatI32(fmaHalfWidth, int32(iterationIndex)-2)
	iterationBitsVec := splatBits(fmaHalfWidth, uint32(int32(iterationIndex)))
	epsVec := splatF32(fmaHalfWidth, kProductiveImpulse)
	muVec := splatF32(fmaHalfWidth, kFrictionCoefficient)
	signVec := splatBits(fmaHalfWidth, 0x80000000)

	productiveAny := false

	for i := jointStart; i < jointStart+jointCount; i += fmaBlockWidth {
		body1Half0 := gatherBodies(buf, p.body1Index[i:i+fmaHalfWidth])
		body2Half0 := gatherBodies(buf, p.body2Index[i:i+fmaHalfWidth])
		body1Half1 := gatherBodies(buf, p.body1Index[i+fmaHalfWidth:i+fmaBlockWidth])
		body2Half1 := gatherBodies(buf, p.body2Index[i+fmaHalfWidth:i+fmaBlockWidth])

		last0 := hwy.Max(body1Half0.lastIteration(), body2Half0.lastIteration())
		last1 := hwy.Max(body1Half1.lastIteration(), body2Half1.lastIteration())

		if !hwy.GreaterThan(last0, iterationIndex2).AnyTrue() &&
			!hwy.GreaterThan(last1, iterationIndex2).AnyTrue() {
			continue
		}

		normalDelta0, frictionDelta0 := s.impulseHalfFMA(i, iota, muVec, signVec, &body1Half0, &body2Half0)
		normalDelta1, frictionDelta1 := s.impulseHalfFMA(i+fmaHalfWidth, iota, muVec, signVec, &body1Half1, &body2Half1)

		cumulative0 := hwy.Max(hwy.Abs(normalDelta0), hwy.Abs(frictionDelta0))
		cumulative1 := hwy.Max(hwy.Abs(normalDelta1), hwy.Abs(frictionDelta1))

		productive0 := hwy.GreaterThan(cumulative0, epsVec)
		productive1 := hwy.GreaterThan(cumulative1, epsVec)

		if productive0.AnyTrue() || productive1.AnyTrue() {
			productiveAny = true
		}

		body1Half0.raiseLastIteration(productive0, iterationBitsVec)
		body2Half0.raiseLastIteration(productive0, iterationBitsVec)
		body1Half1.raiseLastIteration(productive1, iterationBitsVec)
		body2Half1.raiseLastIteration(productive1, iterationBitsVec)

		body1Half0.scatter(buf)
		body2Half0.scatter(buf)
		body1Half1.scatter(buf)
		body2Half1.scatter(buf)
	}

	return productiveAny
}

// impulseHalfFMA solves one 8-wide sub-batch at packed offset o and
// returns the applied deltas for productivity tracking. Accumulators are
// stored back here; body state stays in the batch for the caller to
// scatter after the tag update.
func (s *Solver) impulseHalfFMA(o int, iota hwy.Vec[int32], muVec, signVec hwy.Vec[float32], body1, body2 *solveBodyBatch) (hwy.Vec[float32], hwy.Vec[float32]) {
	p := &s.packed

	jNormalProjector1X := loadLanes(p.normalLimiterNormalProjector1X[o:], iota)
	jNormalProjector1Y := loadLanes(p.normalLimiterNormalProjector1Y[o:], iota)
	jNormalProjector2X := loadLanes(p.normalLimiterNormalProjector2X[o:], iota)
	jNormalProjector2Y := loadLanes(p.normalLimiterNormalProjector2Y[o:], iota)
	jAngularProjector1 := loadLanes(p.normalLimiterAngularProjector1[o:], iota)
	jAngularProjector2 := loadLanes(p.normalLimiterAngularProjector2[o:], iota)

	jCompMass1LinearX := loadLanes(p.normalLimiterCompMass1LinearX[o:], iota)
	jCompMass1LinearY := loadLanes(p.normalLimiterCompMass1LinearY[o:], iota)
	jCompMass2LinearX := loadLanes(p.normalLimiterCompMass2LinearX[o:], iota)
	jCompMass2LinearY := loadLanes(p.normalLimiterCompMass2LinearY[o:], iota)
	jCompMass1Angular := loadLanes(p.normalLimiterCompMass1Angular[o:], iota)
	jCompMass2Angular := loadLanes(p.normalLimiterCompMass2Angular[o:], iota)
	jCompInvMass := loadLanes(p.normalLimiterCompInvMass[o:], iota)
	jAccumulatedImpulse := loadLanes(p.normalLimiterAccumulatedImpulse[o:], iota)
	jDstVelocity := loadLanes(p.normalLimiterDstVelocity[o:], iota)

	jFrictionProjector1X := loadLanes(p.frictionLimiterNormalProjector1X[o:], iota)
	jFrictionProjector1Y := loadLanes(p.frictionLimiterNormalProjector1Y[o:], iota)
	jFrictionProjector2X := loadLanes(p.frictionLimiterNormalProjector2X[o:], iota)
	jFrictionProjector2Y := loadLanes(p.frictionLimiterNormalProjector2Y[o:], iota)
	jFrictionAngularProjector1 := loadLanes(p.frictionLimiterAngularProjector1[o:], iota)
	jFrictionAngularProjector2 := loadLanes(p.frictionLimiterAngularProjector2[o:], iota)

	jFrictionCompMass1LinearX := loadLanes(p.frictionLimiterCompMass1LinearX[o:], iota)
	jFrictionCompMass1LinearY := loadLanes(p.frictionLimiterCompMass1LinearY[o:], iota)
	jFrictionCompMass2LinearX := loadLanes(p.frictionLimiterCompMass2LinearX[o:], iota)
	jFrictionCompMass2LinearY := loadLanes(p.frictionLimiterCompMass2LinearY[o:], iota)
	jFrictionCompMass1Angular := loadLanes(p.frictionLimiterCompMass1Angular[o:], iota)
	jFrictionCompMass2Angular := loadLanes(p.frictionLimiterCompMass2Angular[o:], iota)
	jFrictionCompInvMass := loadLanes(p.frictionLimiterCompInvMass[o:], iota)
	jFrictionAccumulatedImpulse := loadLanes(p.frictionLimiterAccumulatedImpulse[o:], iota)

	// normaldV accumulates through fnmadd (c - a*b), split across the two
	// bodies so the chains stay independent.
	normaldV1 := jDstVelocity
	normaldV1 = hwy.MulAdd(hwy.Neg(jNormalProjector1X), body1.velocityX, normaldV1)
	normaldV1 = hwy.MulAdd(hwy.Neg(jNormalProjector1Y), body1.velocityY, normaldV1)
	normaldV1 = hwy.MulAdd(hwy.Neg(jAngularProjector1), body1.angularVelocity, normaldV1)

	normaldV2 := splatF32(fmaHalfWidth, 0)
	normaldV2 = hwy.MulAdd(hwy.Neg(jNormalProjector2X), body2.velocityX, normaldV2)
	normaldV2 = hwy.MulAdd(hwy.Neg(jNormalProjector2Y), body2.velocityY, normaldV2)
	normaldV2 = hwy.MulAdd(hwy.Neg(jAngularProjector2), body2.angularVelocity, normaldV2)

	normaldV := hwy.Add(normaldV1, normaldV2)

	normalDeltaImpulse := hwy.Mul(normaldV, jCompInvMass)
	normalDeltaImpulse = hwy.Max(normalDeltaImpulse, hwy.Xor(signVec, jAccumulatedImpulse))

	body1.applyImpulseFMA(jCompMass1LinearX, jCompMass1LinearY, jCompMass1Angular, normalDeltaImpulse)
	body2.applyImpulseFMA(jCompMass2LinearX, jCompMass2LinearY, jCompMass2Angular, normalDeltaImpulse)

	jAccumulatedImpulse = hwy.Add(jAccumulatedImpulse, normalDeltaImpulse)

	frictiondV1 := splatF32(fmaHalfWidth, 0)
	frictiondV1 = hwy.MulAdd(hwy.Neg(jFrictionProjector1X), body1.velocityX, frictiondV1)
	frictiondV1 = hwy.MulAdd(hwy.Neg(jFrictionProjector1Y), body1.velocityY, frictiondV1)
	frictiondV1 = hwy.MulAdd(hwy.Neg(jFrictionAngularProjector1), body1.angularVelocity, frictiondV1)

	frictiondV2 := splatF32(fmaHalfWidth, 0)
	frictiondV2 = hwy.MulAdd(hwy.Neg(jFrictionProjector2X), body2.velocityX, frictiondV2)
	frictiondV2 = hwy.MulAdd(hwy.Neg(jFrictionProjector2Y), body2.velocityY, frictiondV2)
	frictiondV2 = hwy.MulAdd(hwy.Neg(jFrictionAngularProjector2), body2.angularVelocity, frictiondV2)

	frictiondV := hwy.Add(frictiondV1, frictiondV2)

	frictionDeltaImpulse := hwy.Mul(frictiondV, jFrictionCompInvMass)

	reactionForce := jAccumulatedImpulse
	accumulatedImpulse := jFrictionAccumulatedImpulse

	frictionForce := hwy.Add(accumulatedImpulse, frictionDeltaImpulse)
	reactionForceScaled := hwy.Mul(reactionForce, muVec)

	frictionForceAbs := hwy.Abs(frictionForce)
	reactionForceScaledSigned := hwy.Xor(hwy.And(frictionForce, signVec), reactionForceScaled)
	frictionDeltaImpulseAdjusted := hwy.Sub(reactionForceScaledSigned, accumulatedImpulse)

	frictionDeltaImpulse = hwy.IfThenElse(
		hwy.GreaterThan(frictionForceAbs, reactionForceScaled),
		frictionDeltaImpulseAdjusted, frictionDeltaImpulse)

	jFrictionAccumulatedImpulse = hwy.Add(jFrictionAccumulatedImpulse, frictionDeltaImpulse)

	body1.applyImpulseFMA(jFrictionCompMass1LinearX, jFrictionCompMass1LinearY, jFrictionCompMass1Angular, frictionDeltaImpulse)
	body2.applyImpulseFMA(jFrictionCompMass2LinearX, jFrictionCompMass2LinearY, jFrictionCompMass2Angular, frictionDeltaImpulse)

	storeLanes(jAccumulatedImpulse, p.normalLimiterAccumulatedImpulse[o:], iota)
	storeLanes(jFrictionAccumulatedImpulse, p.frictionLimiterAccumulatedImpulse[o:], iota)

	return normalDeltaImpulse, frictionDeltaImpulse
}

// solveDisplacementSoAFMA runs the displacement pass over the grouped
// prefix in 16-joint blocks using fused multiply-add.
func (s *Solver) solveDisplacementSoAFMA(jointStart, jointCount, iterationIndex int) bool {
	if jointStart%fmaBlockWidth != 0 || jointCount%fmaBlockWidth != 0 {
		panic("solver: displacement kernel bounds not aligned to batch width")
	}

	p := &s.packed
	buf := &s.solveBodiesDisplacement

	iota := hwy.IndicesIota[int32](fmaHalfWidth)

	iterationIndex2 := splatI32(fmaHalfWidth, int32(iterationIndex)-2)
	iterationBitsVec := splatBits(fmaHalfWidth, uint32(int32(iterationIndex)))
	epsVec := splatF32(fmaHalfWidth, kProductiveImpulse)
	signVec := splatBits(fmaHalfWidth, 0x80000000)

	productiveAny := false

	for i := jointStart; i < jointStart+jointCount; i += fmaBlockWidth {
		body1Half0 := gatherBodies(buf, p.body1Index[i:i+fmaHalfWidth])
		body2Half0 := gatherBodies(buf, p.body2Index[i:i+fmaHalfWidth])
		body1Half1 := gatherBodies(buf, p.body1Index[i+fmaHalfWidth:i+fmaBlockWidth])
		body2Half1 := gatherBodies(buf, p.body2Index[i+fmaHalfWidth:i+fmaBlockWidth])

		last0 := hwy.Max(body1Half0.lastIteration(), body2Half0.lastIteration())
		last1 := hwy.Max(body1Half1.lastIteration(), body2Half1.lastIteration())

		if !hwy.GreaterThan(last0, iterationIndex2).AnyTrue() &&
			!hwy.GreaterThan(last1, iterationIndex2).AnyTrue() {
			continue
		}

		delta0 := s.displacementHalfFMA(i, iota, signVec, &body1Half0, &body2Half0)
		delta1 := s.displacementHalfFMA(i+fmaHalfWidth, iota, signVec, &body1Half1, &body2Half1)

		productive0 := hwy.GreaterThan(hwy.Abs(delta0), epsVec)
		productive1 := hwy.GreaterThan(hwy.Abs(delta1), epsVec)

		if productive0.AnyTrue() || productive1.AnyTrue() {
			productiveAny = true
		}

		body1Half0.raiseLastIteration(productive0, iterationBitsVec)
		body2Half0.raiseLastIteration(productive0, iterationBitsVec)
		body1Half1.raiseLastIteration(productive1, iterationBitsVec)
		body2Half1.raiseLastIteration(productive1, iterationBitsVec)

		body1Half0.scatter(buf)
		body2Half0.scatter(buf)
		body1Half1.scatter(buf)
		body2Half1.scatter(buf)
	}

	return productiveAny
}

func (s *Solver) displacementHalfFMA(o int, iota hwy.Vec[int32], signVec hwy.Vec[float32], body1, body2 *solveBodyBatch) hwy.Vec[float32] {
	p := &s.packed

	jNormalProjector1X := loadLanes(p.normalLimiterNormalProjector1X[o:], iota)
	jNormalProjector1Y := loadLanes(p.normalLimiterNormalProjector1Y[o:], iota)
	jNormalProjector2X := loadLanes(p.normalLimiterNormalProjector2X[o:], iota)
	jNormalProjector2Y := loadLanes(p.normalLimiterNormalProjector2Y[o:], iota)
	jAngularProjector1 := loadLanes(p.normalLimiterAngularProjector1[o:], iota)
	jAngularProjector2 := loadLanes(p.normalLimiterAngularProjector2[o:], iota)

	jCompMass1LinearX := loadLanes(p.normalLimiterCompMass1LinearX[o:], iota)
	jCompMass1LinearY := loadLanes(p.normalLimiterCompMass1LinearY[o:], iota)
	jCompMass2LinearX := loadLanes(p.normalLimiterCompMass2LinearX[o:], iota)
	jCompMass2LinearY := loadLanes(p.normalLimiterCompMass2LinearY[o:], iota)
	jCompMass1Angular := loadLanes(p.normalLimiterCompMass1Angular[o:], iota)
	jCompMass2Angular := loadLanes(p.normalLimiterCompMass2Angular[o:], iota)
	jCompInvMass := loadLanes(p.normalLimiterCompInvMass[o:], iota)

	jDstDisplacingVelocity := loadLanes(p.normalLimiterDstDisplacingVelocity[o:], iota)
	jAccumulatedDisplacingImpulse := loadLanes(p.normalLimiterAccumulatedDisplacingImpulse[o:], iota)

	dV1 := jDstDisplacingVelocity
	dV1 = hwy.MulAdd(hwy.Neg(jNormalProjector1X), body1.velocityX, dV1)
	dV1 = hwy.MulAdd(hwy.Neg(jNormalProjector1Y), body1.velocityY, dV1)
	dV1 = hwy.MulAdd(hwy.Neg(jAngularProjector1), body1.angularVelocity, dV1)

	dV2 := splatF32(fmaHalfWidth, 0)
	dV2 = hwy.MulAdd(hwy.Neg(jNormalProjector2X), body2.velocityX, dV2)
	dV2 = hwy.MulAdd(hwy.Neg(jNormalProjector2Y), body2.velocityY, dV2)
	dV2 = hwy.MulAdd(hwy.Neg(jAngularProjector2), body2.angularVelocity, dV2)

	dV := hwy.Add(dV1, dV2)

	displacingDeltaImpulse := hwy.Mul(dV, jCompInvMass)
	displacingDeltaImpulse = hwy.Max(displacingDeltaImpulse, hwy.Xor(signVec, jAccumulatedDisplacingImpulse))

	body1.applyImpulseFMA(jCompMass1LinearX, jCompMass1LinearY, jCompMass1Angular, displacingDeltaImpulse)
	body2.applyImpulseFMA(jCompMass2LinearX, jCompMass2LinearY, jCompMass2Angular, displacingDeltaImpulse)

	jAccumulatedDisplacingImpulse = hwy.Add(jAccumulatedDisplacingImpulse, displacingDeltaImpulse)

	storeLanes(jAccumulatedDisplacingImpulse, p.normalLimiterAccumulatedDisplacingImpulse[o:], iota)

	return displacingDeltaImpulse
}
