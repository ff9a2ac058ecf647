// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import "testing"

// jointPairs builds a solver whose joints carry just body indices, which
// is all the grouping pass reads.
func jointPairs(pairs [][2]int32) *Solver {
	s := NewSolver()
	for _, p := range pairs {
		s.ContactJoints = append(s.ContactJoints, ContactJoint{Body1Index: p[0], Body2Index: p[1]})
	}
	return s
}

// chainPairs is a stack-like scene: body k touches body k+1.
func chainPairs(bodies int) [][2]int32 {
	var pairs [][2]int32
	for i := 0; i < bodies-1; i++ {
		pairs = append(pairs, [2]int32{int32(i), int32(i + 1)})
	}
	return pairs
}

// completePairs is the dense worst case: every body touches every other.
func completePairs(bodies int) [][2]int32 {
	var pairs [][2]int32
	for i := 0; i < bodies; i++ {
		for j := i + 1; j < bodies; j++ {
			pairs = append(pairs, [2]int32{int32(i), int32(j)})
		}
	}
	return pairs
}

func checkPermutation(t *testing.T, index []int32, jointCount int) {
	t.Helper()

	seen := make([]bool, jointCount)
	for _, ji := range index[:jointCount] {
		if ji < 0 || int(ji) >= jointCount {
			t.Fatalf("joint index %d out of range [0, %d)", ji, jointCount)
		}
		if seen[ji] {
			t.Fatalf("joint index %d appears twice", ji)
		}
		seen[ji] = true
	}
}

func checkDisjointGroups(t *testing.T, s *Solver, groupOffset, target int) {
	t.Helper()

	if groupOffset%target != 0 {
		t.Fatalf("groupOffset %d not a multiple of target %d", groupOffset, target)
	}

	for g := 0; g < groupOffset; g += target {
		used := map[int32]bool{}
		for i := g; i < g+target; i++ {
			joint := &s.ContactJoints[s.jointIndex[i]]
			if used[joint.Body1Index] || used[joint.Body2Index] {
				t.Fatalf("group at %d reuses a body (joint %d: %d,%d)", g, s.jointIndex[i], joint.Body1Index, joint.Body2Index)
			}
			used[joint.Body1Index] = true
			used[joint.Body2Index] = true
		}
		if len(used) != 2*target {
			t.Fatalf("group at %d uses %d distinct bodies, want %d", g, len(used), 2*target)
		}
	}
}

func TestPrepareIndices(t *testing.T) {
	tests := []struct {
		name   string
		bodies int
		pairs  [][2]int32
		target int
	}{
		{"chain of 16 target 4", 16, chainPairs(16), 4},
		{"chain of 64 target 8", 64, chainPairs(64), 8},
		{"chain of 200 target 16", 200, chainPairs(200), 16},
		{"complete graph of 8 target 4", 8, completePairs(8), 4},
		{"complete graph of 12 target 8", 12, completePairs(12), 8},
		{"two joints target 4", 4, [][2]int32{{0, 1}, {2, 3}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := jointPairs(tt.pairs)
			jointCount := len(s.ContactJoints)
			s.jointIndex = growInt32(s.jointIndex, jointCount)

			groupOffset := s.prepareIndices(tt.bodies, tt.target)

			if groupOffset < 0 || groupOffset > jointCount {
				t.Fatalf("groupOffset %d out of range [0, %d]", groupOffset, jointCount)
			}
			checkPermutation(t, s.jointIndex, jointCount)
			checkDisjointGroups(t, s, groupOffset, tt.target)
		})
	}
}

func TestPrepareIndicesIdentity(t *testing.T) {
	s := jointPairs(chainPairs(10))
	jointCount := len(s.ContactJoints)
	s.jointIndex = growInt32(s.jointIndex, jointCount)

	groupOffset := s.prepareIndices(10, 1)

	if groupOffset != jointCount {
		t.Fatalf("groupOffset = %d, want %d", groupOffset, jointCount)
	}
	for i := range jointCount {
		if s.jointIndex[i] != int32(i) {
			t.Fatalf("jointIndex[%d] = %d, want identity", i, s.jointIndex[i])
		}
	}
}

// A complete graph over 4 bodies admits at most 2 pairwise-disjoint
// joints, so a target of 4 can never fill a group: the partially filled
// group is truncated away and everything lands in the scalar tail.
func TestPrepareIndicesPartialGroupTruncated(t *testing.T) {
	s := jointPairs(completePairs(4))
	jointCount := len(s.ContactJoints)
	s.jointIndex = growInt32(s.jointIndex, jointCount)

	groupOffset := s.prepareIndices(4, 4)

	if groupOffset != 0 {
		t.Fatalf("groupOffset = %d, want 0 (partial group must not count)", groupOffset)
	}
	if jointCount-groupOffset < 2 {
		t.Fatalf("tail = %d joints, want >= 2", jointCount-groupOffset)
	}
	checkPermutation(t, s.jointIndex, jointCount)
}

// The greedy scan is deterministic for a given input order.
func TestPrepareIndicesDeterministic(t *testing.T) {
	build := func() []int32 {
		s := jointPairs(completePairs(10))
		s.jointIndex = growInt32(s.jointIndex, len(s.ContactJoints))
		s.prepareIndices(10, 4)
		out := make([]int32, len(s.jointIndex))
		copy(out, s.jointIndex)
		return out
	}

	first := build()
	second := build()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("permutation differs at %d: %d vs %d", i, first[i], second[i])
		}
	}
}
