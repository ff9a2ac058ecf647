// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import (
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Solver owns the contact joints and all iteration scratch: the grouped
// permutation, the packed SoA mirror and the per-channel solve-body
// buffers. Scratch grows monotonically and is rebuilt every step; only
// the per-joint accumulators survive across steps (warm start).
//
// A Solver is not safe for concurrent use.
type Solver struct {
	ContactJoints []ContactJoint

	solveBodiesImpulse      solveBodyBuffer
	solveBodiesDisplacement solveBodyBuffer

	jointGroupBodies []int32
	jointGroupJoints []int32

	jointIndex []int32

	packed packedJoints
}

func NewSolver() *Solver {
	return &Solver{}
}

// AddJoint appends a joint and wires the contact point's backlink.
// Returns the joint's index.
func (s *Solver) AddJoint(joint ContactJoint) int {
	index := len(s.ContactJoints)
	s.ContactJoints = append(s.ContactJoints, joint)
	if joint.Point != nil {
		joint.Point.SolverIndex = index
	}
	return index
}

// RemoveJoint deletes the joint at index by swapping the last joint into
// its slot, keeping the moved joint's contact-point backlink current.
func (s *Solver) RemoveJoint(index int) {
	last := len(s.ContactJoints) - 1
	if index != last {
		s.ContactJoints[index] = s.ContactJoints[last]
		if s.ContactJoints[index].Point != nil {
			s.ContactJoints[index].Point.SolverIndex = index
		}
	}
	s.ContactJoints = s.ContactJoints[:last]
}

// RefreshJoints recomputes every joint's world geometry from the current
// body poses. The work is data-parallel with no shared writes; when a
// pool is supplied the joints are refreshed on it, otherwise sequentially.
func (s *Solver) RefreshJoints(bodies []RigidBody, pool *workerpool.Pool) {
	if pool == nil {
		for i := range s.ContactJoints {
			s.ContactJoints[i].Refresh(bodies)
		}
		return
	}

	pool.ParallelFor(len(s.ContactJoints), func(start, end int) {
		for i := start; i < end; i++ {
			s.ContactJoints[i].Refresh(bodies)
		}
	})
}

// PreStepJoints rebuilds every joint's limiters. Sequential by contract.
func (s *Solver) PreStepJoints(bodies []RigidBody) {
	for i := range s.ContactJoints {
		s.ContactJoints[i].PreStep(bodies)
	}
}

// prepareSoA builds everything the SoA backends iterate over: the
// solve-body channels seeded from the bodies, the grouped joint
// permutation, and the packed SoA mirror filled through that permutation.
// Returns the SIMD-safe group prefix size.
func (s *Solver) prepareSoA(bodies []RigidBody, groupSizeTarget int) int {
	bodiesCount := len(bodies)

	s.solveBodiesImpulse.resize(bodiesCount)
	s.solveBodiesDisplacement.resize(bodiesCount)

	for i := range bodies {
		s.solveBodiesImpulse.set(int32(i), bodies[i].Velocity, bodies[i].AngularVelocity, -1)
		s.solveBodiesDisplacement.set(int32(i), bodies[i].DisplacingVelocity, bodies[i].DisplacingAngularVelocity, -1)
	}

	jointCount := len(s.ContactJoints)

	s.jointIndex = growInt32(s.jointIndex, jointCount)
	s.packed.resize(jointCount)

	groupOffset := s.prepareIndices(bodiesCount, groupSizeTarget)

	for i := range jointCount {
		s.packed.pack(i, &s.ContactJoints[s.jointIndex[i]])
	}

	return groupOffset
}

// finishSoA drains the step's scratch back out: body state from the two
// solve channels, accumulators from the packed mirror, and the
// average-iterations diagnostic computed from the body tags. The +2
// offset counts a body quiet for one iteration as productive through
// that iteration; with no joints the division yields NaN by design.
func (s *Solver) finishSoA(bodies []RigidBody) float32 {
	for i := range bodies {
		bodies[i].Velocity = s.solveBodiesImpulse.velocity(int32(i))
		bodies[i].AngularVelocity = s.solveBodiesImpulse.angularVelocity(int32(i))

		bodies[i].DisplacingVelocity = s.solveBodiesDisplacement.velocity(int32(i))
		bodies[i].DisplacingAngularVelocity = s.solveBodiesDisplacement.angularVelocity(int32(i))
	}

	jointCount := len(s.ContactJoints)

	for i := range jointCount {
		s.packed.unpack(i, &s.ContactJoints[s.jointIndex[i]])
	}

	iterationSum := int32(0)

	for i := range jointCount {
		b1 := s.packed.body1Index[i]
		b2 := s.packed.body2Index[i]

		iterationSum += maxInt32(s.solveBodiesImpulse.lastIteration(b1), s.solveBodiesImpulse.lastIteration(b2)) + 2
		iterationSum += maxInt32(s.solveBodiesDisplacement.lastIteration(b1), s.solveBodiesDisplacement.lastIteration(b2)) + 2
	}

	return float32(iterationSum) / float32(jointCount)
}

// prepareAoS resets the body tags the AoS kernels track convergence with.
func (s *Solver) prepareAoS(bodies []RigidBody) {
	for i := range bodies {
		bodies[i].LastIteration = -1
		bodies[i].LastDisplacementIteration = -1
	}
}

// finishAoS computes the same diagnostic as finishSoA, straight from the
// body records.
func (s *Solver) finishAoS(bodies []RigidBody) float32 {
	iterationSum := int32(0)

	for i := range s.ContactJoints {
		joint := &s.ContactJoints[i]
		body1 := &bodies[joint.Body1Index]
		body2 := &bodies[joint.Body2Index]

		iterationSum += maxInt32(body1.LastIteration, body2.LastIteration) + 2
		iterationSum += maxInt32(body1.LastDisplacementIteration, body2.LastDisplacementIteration) + 2
	}

	return float32(iterationSum) / float32(len(s.ContactJoints))
}

// SolveJointsAoS runs the iteration loops directly against the RigidBody
// records. Returns the average-iterations diagnostic.
func (s *Solver) SolveJointsAoS(bodies []RigidBody, contactIterations, penetrationIterations int) float32 {
	s.prepareAoS(bodies)

	jointCount := len(s.ContactJoints)

	for iterationIndex := 0; iterationIndex < contactIterations; iterationIndex++ {
		if !s.solveImpulsesAoS(bodies, 0, jointCount, iterationIndex) {
			break
		}
	}

	for iterationIndex := 0; iterationIndex < penetrationIterations; iterationIndex++ {
		if !s.solveDisplacementAoS(bodies, 0, jointCount, iterationIndex) {
			break
		}
	}

	return s.finishAoS(bodies)
}

// SolveJointsSoAScalar runs the width-1 kernel over the whole packed
// array, with no grouping.
func (s *Solver) SolveJointsSoAScalar(bodies []RigidBody, contactIterations, penetrationIterations int) float32 {
	s.prepareSoA(bodies, 1)

	jointCount := len(s.ContactJoints)

	for iterationIndex := 0; iterationIndex < contactIterations; iterationIndex++ {
		if !s.solveImpulsesSoAScalar(0, jointCount, iterationIndex) {
			break
		}
	}

	for iterationIndex := 0; iterationIndex < penetrationIterations; iterationIndex++ {
		if !s.solveDisplacementSoAScalar(0, jointCount, iterationIndex) {
			break
		}
	}

	return s.finishSoA(bodies)
}

// SolveJointsSoAPack4 solves the grouped prefix with the 4-wide kernel
// and the tail with the scalar kernel.
func (s *Solver) SolveJointsSoAPack4(bodies []RigidBody, contactIterations, penetrationIterations int) float32 {
	return s.solveJointsSoAWide(bodies, 4, contactIterations, penetrationIterations)
}

// SolveJointsSoAPack8 solves the grouped prefix with the 8-wide kernel
// and the tail with the scalar kernel.
func (s *Solver) SolveJointsSoAPack8(bodies []RigidBody, contactIterations, penetrationIterations int) float32 {
	return s.solveJointsSoAWide(bodies, 8, contactIterations, penetrationIterations)
}

func (s *Solver) solveJointsSoAWide(bodies []RigidBody, width, contactIterations, penetrationIterations int) float32 {
	groupOffset := s.prepareSoA(bodies, width)

	jointCount := len(s.ContactJoints)

	for iterationIndex := 0; iterationIndex < contactIterations; iterationIndex++ {
		productive := false

		productive = s.solveImpulsesSoAWide(width, 0, groupOffset, iterationIndex) || productive
		productive = s.solveImpulsesSoAScalar(groupOffset, jointCount-groupOffset, iterationIndex) || productive

		if !productive {
			break
		}
	}

	for iterationIndex := 0; iterationIndex < penetrationIterations; iterationIndex++ {
		productive := false

		productive = s.solveDisplacementSoAWide(width, 0, groupOffset, iterationIndex) || productive
		productive = s.solveDisplacementSoAScalar(groupOffset, jointCount-groupOffset, iterationIndex) || productive

		if !productive {
			break
		}
	}

	return s.finishSoA(bodies)
}

// SolveJointsSoAFMA solves 16-joint blocks as two interleaved 8-wide
// sub-batches with fused multiply-add, and the tail with the scalar
// kernel.
func (s *Solver) SolveJointsSoAFMA(bodies []RigidBody, contactIterations, penetrationIterations int) float32 {
	groupOffset := s.prepareSoA(bodies, 16)

	jointCount := len(s.ContactJoints)

	for iterationIndex := 0; iterationIndex < contactIterations; iterationIndex++ {
		productive := false

		productive = s.solveImpulsesSoAFMA(0, groupOffset, iterationIndex) || productive
		productive = s.solveImpulsesSoAScalar(groupOffset, jointCount-groupOffset, iterationIndex) || productive

		if !productive {
			break
		}
	}

	for iterationIndex := 0; iterationIndex < penetrationIterations; iterationIndex++ {
		productive := false

		productive = s.solveDisplacementSoAFMA(0, groupOffset, iterationIndex) || productive
		productive = s.solveDisplacementSoAScalar(groupOffset, jointCount-groupOffset, iterationIndex) || productive

		if !productive {
			break
		}
	}

	return s.finishSoA(bodies)
}

// SolveJoints dispatches to the backend's entry point.
func (s *Solver) SolveJoints(backend Backend, bodies []RigidBody, contactIterations, penetrationIterations int) float32 {
	switch backend {
	case BackendAoS:
		return s.SolveJointsAoS(bodies, contactIterations, penetrationIterations)
	case BackendSoAScalar:
		return s.SolveJointsSoAScalar(bodies, contactIterations, penetrationIterations)
	case BackendSoAPack4:
		return s.SolveJointsSoAPack4(bodies, contactIterations, penetrationIterations)
	case BackendSoAPack8:
		return s.SolveJointsSoAPack8(bodies, contactIterations, penetrationIterations)
	case BackendSoAFMA:
		return s.SolveJointsSoAFMA(bodies, contactIterations, penetrationIterations)
	}
	panic("solver: unknown backend")
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
