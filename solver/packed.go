// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

// maxGroupSize is the widest batch any kernel consumes. Packed storage is
// always padded to a multiple of it so every width divides the padding.
const maxGroupSize = 16

// packedJoints is the structure-of-arrays form of the contact joints:
// every limiter scalar becomes its own flat float32 array, every body
// reference its own int32 array, indexed by the joint's logical position
// in the grouped permutation. A width-N kernel reads lane window
// [i, i+N) of each field; the field set and order mirror the AoS limiter
// exactly and are part of the layout contract.
//
// Trailing lanes between the joint count and the padded size hold zero
// projectors and zero accumulators, which makes them solver-neutral:
// evaluating them computes deltas of zero and touches body 0 with a
// zero-valued update.
type packedJoints struct {
	size int // lanes allocated, multiple of maxGroupSize

	body1Index []int32
	body2Index []int32

	normalLimiterNormalProjector1X []float32
	normalLimiterNormalProjector1Y []float32
	normalLimiterNormalProjector2X []float32
	normalLimiterNormalProjector2Y []float32
	normalLimiterAngularProjector1 []float32
	normalLimiterAngularProjector2 []float32

	normalLimiterCompMass1LinearX   []float32
	normalLimiterCompMass1LinearY   []float32
	normalLimiterCompMass2LinearX   []float32
	normalLimiterCompMass2LinearY   []float32
	normalLimiterCompMass1Angular   []float32
	normalLimiterCompMass2Angular   []float32
	normalLimiterCompInvMass        []float32
	normalLimiterAccumulatedImpulse []float32

	normalLimiterDstVelocity                  []float32
	normalLimiterDstDisplacingVelocity        []float32
	normalLimiterAccumulatedDisplacingImpulse []float32

	frictionLimiterNormalProjector1X []float32
	frictionLimiterNormalProjector1Y []float32
	frictionLimiterNormalProjector2X []float32
	frictionLimiterNormalProjector2Y []float32
	frictionLimiterAngularProjector1 []float32
	frictionLimiterAngularProjector2 []float32

	frictionLimiterCompMass1LinearX   []float32
	frictionLimiterCompMass1LinearY   []float32
	frictionLimiterCompMass2LinearX   []float32
	frictionLimiterCompMass2LinearY   []float32
	frictionLimiterCompMass1Angular   []float32
	frictionLimiterCompMass2Angular   []float32
	frictionLimiterCompInvMass        []float32
	frictionLimiterAccumulatedImpulse []float32
}

func (p *packedJoints) fields() []*[]float32 {
	return []*[]float32{
		&p.normalLimiterNormalProjector1X,
		&p.normalLimiterNormalProjector1Y,
		&p.normalLimiterNormalProjector2X,
		&p.normalLimiterNormalProjector2Y,
		&p.normalLimiterAngularProjector1,
		&p.normalLimiterAngularProjector2,
		&p.normalLimiterCompMass1LinearX,
		&p.normalLimiterCompMass1LinearY,
		&p.normalLimiterCompMass2LinearX,
		&p.normalLimiterCompMass2LinearY,
		&p.normalLimiterCompMass1Angular,
		&p.normalLimiterCompMass2Angular,
		&p.normalLimiterCompInvMass,
		&p.normalLimiterAccumulatedImpulse,
		&p.normalLimiterDstVelocity,
		&p.normalLimiterDstDisplacingVelocity,
		&p.normalLimiterAccumulatedDisplacingImpulse,
		&p.frictionLimiterNormalProjector1X,
		&p.frictionLimiterNormalProjector1Y,
		&p.frictionLimiterNormalProjector2X,
		&p.frictionLimiterNormalProjector2Y,
		&p.frictionLimiterAngularProjector1,
		&p.frictionLimiterAngularProjector2,
		&p.frictionLimiterCompMass1LinearX,
		&p.frictionLimiterCompMass1LinearY,
		&p.frictionLimiterCompMass2LinearX,
		&p.frictionLimiterCompMass2LinearY,
		&p.frictionLimiterCompMass1Angular,
		&p.frictionLimiterCompMass2Angular,
		&p.frictionLimiterCompInvMass,
		&p.frictionLimiterAccumulatedImpulse,
	}
}

// resize grows the arrays to hold jointCount lanes padded up to
// maxGroupSize, then zeroes the padding region so trailing lanes stay
// solver-neutral regardless of what a previous step left there.
func (p *packedJoints) resize(jointCount int) {
	padded := roundUp(jointCount, maxGroupSize)

	if p.size < padded {
		p.size = padded
		p.body1Index = make([]int32, padded)
		p.body2Index = make([]int32, padded)
		for _, f := range p.fields() {
			*f = make([]float32, padded)
		}
		return
	}

	for i := jointCount; i < padded; i++ {
		p.body1Index[i] = 0
		p.body2Index[i] = 0
	}
	for _, f := range p.fields() {
		s := *f
		for i := jointCount; i < padded; i++ {
			s[i] = 0
		}
	}
}

// pack copies joint j into lane i.
func (p *packedJoints) pack(i int, joint *ContactJoint) {
	p.body1Index[i] = joint.Body1Index
	p.body2Index[i] = joint.Body2Index

	p.normalLimiterNormalProjector1X[i] = joint.NormalLimiter.NormalProjector1.X
	p.normalLimiterNormalProjector1Y[i] = joint.NormalLimiter.NormalProjector1.Y
	p.normalLimiterNormalProjector2X[i] = joint.NormalLimiter.NormalProjector2.X
	p.normalLimiterNormalProjector2Y[i] = joint.NormalLimiter.NormalProjector2.Y
	p.normalLimiterAngularProjector1[i] = joint.NormalLimiter.AngularProjector1
	p.normalLimiterAngularProjector2[i] = joint.NormalLimiter.AngularProjector2

	p.normalLimiterCompMass1LinearX[i] = joint.NormalLimiter.CompMass1Linear.X
	p.normalLimiterCompMass1LinearY[i] = joint.NormalLimiter.CompMass1Linear.Y
	p.normalLimiterCompMass2LinearX[i] = joint.NormalLimiter.CompMass2Linear.X
	p.normalLimiterCompMass2LinearY[i] = joint.NormalLimiter.CompMass2Linear.Y
	p.normalLimiterCompMass1Angular[i] = joint.NormalLimiter.CompMass1Angular
	p.normalLimiterCompMass2Angular[i] = joint.NormalLimiter.CompMass2Angular
	p.normalLimiterCompInvMass[i] = joint.NormalLimiter.CompInvMass
	p.normalLimiterAccumulatedImpulse[i] = joint.NormalLimiter.AccumulatedImpulse

	p.normalLimiterDstVelocity[i] = joint.NormalLimiter.DstVelocity
	p.normalLimiterDstDisplacingVelocity[i] = joint.NormalLimiter.DstDisplacingVelocity
	p.normalLimiterAccumulatedDisplacingImpulse[i] = joint.NormalLimiter.AccumulatedDisplacingImpulse

	p.frictionLimiterNormalProjector1X[i] = joint.FrictionLimiter.NormalProjector1.X
	p.frictionLimiterNormalProjector1Y[i] = joint.FrictionLimiter.NormalProjector1.Y
	p.frictionLimiterNormalProjector2X[i] = joint.FrictionLimiter.NormalProjector2.X
	p.frictionLimiterNormalProjector2Y[i] = joint.FrictionLimiter.NormalProjector2.Y
	p.frictionLimiterAngularProjector1[i] = joint.FrictionLimiter.AngularProjector1
	p.frictionLimiterAngularProjector2[i] = joint.FrictionLimiter.AngularProjector2

	p.frictionLimiterCompMass1LinearX[i] = joint.FrictionLimiter.CompMass1Linear.X
	p.frictionLimiterCompMass1LinearY[i] = joint.FrictionLimiter.CompMass1Linear.Y
	p.frictionLimiterCompMass2LinearX[i] = joint.FrictionLimiter.CompMass2Linear.X
	p.frictionLimiterCompMass2LinearY[i] = joint.FrictionLimiter.CompMass2Linear.Y
	p.frictionLimiterCompMass1Angular[i] = joint.FrictionLimiter.CompMass1Angular
	p.frictionLimiterCompMass2Angular[i] = joint.FrictionLimiter.CompMass2Angular
	p.frictionLimiterCompInvMass[i] = joint.FrictionLimiter.CompInvMass
	p.frictionLimiterAccumulatedImpulse[i] = joint.FrictionLimiter.AccumulatedImpulse
}

// unpack writes back the only joint state the iteration mutates: the
// three warm-start accumulators.
func (p *packedJoints) unpack(i int, joint *ContactJoint) {
	joint.NormalLimiter.AccumulatedImpulse = p.normalLimiterAccumulatedImpulse[i]
	joint.NormalLimiter.AccumulatedDisplacingImpulse = p.normalLimiterAccumulatedDisplacingImpulse[i]
	joint.FrictionLimiter.AccumulatedImpulse = p.frictionLimiterAccumulatedImpulse[i]
}

func roundUp(n, multiple int) int {
	return (n + multiple - 1) / multiple * multiple
}
