// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import "math"

// Solve-state buffer layout: 4 floats per body (one 16-byte record). The
// SIMD kernels gather each field by index at this stride (see
// soa_batch.go).
const (
	solveBodyStride = 4

	solveBodyVelocityX       = 0
	solveBodyVelocityY       = 1
	solveBodyAngularVelocity = 2
	// The last-productive-iteration tag lives bit-cast in the 4th float
	// slot so it travels with the float gathers.
	solveBodyLastIteration = 3
)

// solveBodyBuffer holds per-body mutable solve state for one channel
// (impulse or displacement), isolated from the full RigidBody record so
// SoA kernels can scatter/gather without touching anything else.
//
// Storage grows monotonically and is reseeded from the bodies at every
// prepare.
type solveBodyBuffer struct {
	data []float32
}

func (b *solveBodyBuffer) resize(bodies int) {
	need := bodies * solveBodyStride
	if cap(b.data) < need {
		b.data = make([]float32, need)
	} else {
		b.data = b.data[:need]
	}
}

func (b *solveBodyBuffer) set(i int32, velocity Vector2, angularVelocity float32, lastIteration int32) {
	base := int(i) * solveBodyStride
	b.data[base+solveBodyVelocityX] = velocity.X
	b.data[base+solveBodyVelocityY] = velocity.Y
	b.data[base+solveBodyAngularVelocity] = angularVelocity
	b.data[base+solveBodyLastIteration] = iterationBits(lastIteration)
}

func (b *solveBodyBuffer) velocity(i int32) Vector2 {
	base := int(i) * solveBodyStride
	return Vector2{b.data[base+solveBodyVelocityX], b.data[base+solveBodyVelocityY]}
}

func (b *solveBodyBuffer) angularVelocity(i int32) float32 {
	return b.data[int(i)*solveBodyStride+solveBodyAngularVelocity]
}

func (b *solveBodyBuffer) lastIteration(i int32) int32 {
	return iterationFromBits(b.data[int(i)*solveBodyStride+solveBodyLastIteration])
}

func (b *solveBodyBuffer) setLastIteration(i, iteration int32) {
	b.data[int(i)*solveBodyStride+solveBodyLastIteration] = iterationBits(iteration)
}

func iterationBits(iteration int32) float32 {
	return math.Float32frombits(uint32(iteration))
}

func iterationFromBits(f float32) int32 {
	return int32(math.Float32bits(f))
}
