// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

// prepareIndices builds the joint permutation that makes SIMD iteration
// safe: the first groupOffset entries of jointIndex form groups of
// groupSizeTarget joints whose body pairs are pairwise disjoint, so a
// width-sized window can be solved lane-parallel without write hazards.
// The remaining joints are appended in residual order and solved one at a
// time.
//
// The scan is greedy: each round stamps accepted bodies with a fresh tag
// and accepts a joint only if neither of its bodies was stamped this
// round. Accepted joints are evicted from the work list by
// swap-with-last, which reorders the remainder but never loses a joint.
// No attempt is made at optimal coloring; filling enough full groups to
// cover the bulk is the goal.
//
// Returns the size of the SIMD-safe prefix, truncated to a multiple of
// groupSizeTarget: a partially filled final group is deliberately pushed
// into the scalar tail.
func (s *Solver) prepareIndices(bodiesCount, groupSizeTarget int) int {
	jointCount := len(s.ContactJoints)

	if groupSizeTarget == 1 {
		for i := range jointCount {
			s.jointIndex[i] = int32(i)
		}
		return jointCount
	}

	s.jointGroupBodies = growInt32(s.jointGroupBodies, bodiesCount)
	s.jointGroupJoints = growInt32(s.jointGroupJoints, jointCount)

	for i := range bodiesCount {
		s.jointGroupBodies[i] = 0
	}

	for i := range jointCount {
		s.jointGroupJoints[i] = int32(i)
	}

	remaining := jointCount

	tag := int32(0)
	groupOffset := 0

	for remaining >= groupSizeTarget {
		groupSize := 0

		tag++

		for i := 0; i < remaining && groupSize < groupSizeTarget; {
			jointIndex := s.jointGroupJoints[i]
			joint := &s.ContactJoints[jointIndex]

			if s.jointGroupBodies[joint.Body1Index] < tag && s.jointGroupBodies[joint.Body2Index] < tag {
				s.jointGroupBodies[joint.Body1Index] = tag
				s.jointGroupBodies[joint.Body2Index] = tag

				s.jointIndex[groupOffset+groupSize] = jointIndex
				groupSize++

				s.jointGroupJoints[i] = s.jointGroupJoints[remaining-1]
				remaining--
			} else {
				i++
			}
		}

		groupOffset += groupSize

		if groupSize < groupSizeTarget {
			break
		}
	}

	// The leftovers don't form a group; solve them 1 by 1.
	for i := 0; i < remaining; i++ {
		s.jointIndex[groupOffset+i] = s.jointGroupJoints[i]
	}

	return (groupOffset / groupSizeTarget) * groupSizeTarget
}

func growInt32(buf []int32, n int) []int32 {
	if cap(buf) < n {
		return make([]int32, n)
	}
	return buf[:n]
}
