// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

// Package solver implements the iterative constraint solver core of a 2-D
// rigid-body physics engine: a sequential projected Gauss-Seidel loop over
// contact joints, expressed as four interchangeable numerical backends.
//
// The collision layer hands the solver contact joints (one per contact
// point); the solver refreshes and pre-steps them, then advances body
// velocities and positional corrections until the contacts stop producing
// meaningful impulses or the iteration budget runs out.
//
// Backends:
//
//	SolveJointsAoS        - scalar, reads and writes RigidBody directly
//	SolveJointsSoAScalar  - scalar over packed structure-of-arrays data
//	SolveJointsSoAPack4   - 4-wide SIMD over grouped joints, scalar tail
//	SolveJointsSoAPack8   - 8-wide SIMD over grouped joints, scalar tail
//	SolveJointsSoAFMA     - 16 joints per block as two interleaved 8-wide
//	                        sub-batches using fused multiply-add
//
// All backends produce equivalent results up to floating-point reordering.
// The wide backends rely on a grouping pass that permutes joints so each
// width-sized window touches pairwise-disjoint bodies, which lets SIMD
// lanes update body state concurrently without write hazards.
//
// SIMD operations go through github.com/ajroetker/go-highway/hwy, so every
// backend runs on every platform; backend availability reported by
// Backend.Available is a performance gate, not a correctness one.
package solver
