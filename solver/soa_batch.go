// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import (
	"math"

	"github.com/ajroetker/go-highway/hwy"
)

// Batch width is fixed by the grouping contract, not by the host vector
// width, so batches are materialized through hwy's lane-count-explicit
// gather/scatter entry points: a width-8 kernel stays 8 joints per step
// even when the host target is narrower, and hwy splits or emulates as
// needed.

func splatI32(width int, v int32) hwy.Vec[int32] {
	return hwy.IndicesFromFunc(width, func(int) int32 { return v })
}

func splatBits(width int, bits uint32) hwy.Vec[float32] {
	return hwy.AsFloat32(splatI32(width, int32(bits)))
}

func splatF32(width int, v float32) hwy.Vec[float32] {
	return splatBits(width, math.Float32bits(v))
}

func loadLanes(src []float32, iota hwy.Vec[int32]) hwy.Vec[float32] {
	return hwy.GatherIndex(src, iota)
}

func storeLanes(v hwy.Vec[float32], dst []float32, iota hwy.Vec[int32]) {
	hwy.ScatterIndex(v, dst, iota)
}

// bodyFieldIndices maps a window of body indices to flat offsets of one
// solve-body field (stride 4, see solvebody.go).
func bodyFieldIndices(bodyIndex []int32, field int32) hwy.Vec[int32] {
	return hwy.IndicesFromFunc(len(bodyIndex), func(lane int) int32 {
		return bodyIndex[lane]*solveBodyStride + field
	})
}

// solveBodyBatch is one side of a joint batch: the four solve-body fields
// of width joints' bodies, gathered by index, plus the index vectors
// needed to scatter them back.
type solveBodyBatch struct {
	velocityX       hwy.Vec[float32]
	velocityY       hwy.Vec[float32]
	angularVelocity hwy.Vec[float32]
	lastIterationF  hwy.Vec[float32]

	idxX, idxY, idxW, idxT hwy.Vec[int32]
}

func gatherBodies(buf *solveBodyBuffer, bodyIndex []int32) solveBodyBatch {
	b := solveBodyBatch{
		idxX: bodyFieldIndices(bodyIndex, solveBodyVelocityX),
		idxY: bodyFieldIndices(bodyIndex, solveBodyVelocityY),
		idxW: bodyFieldIndices(bodyIndex, solveBodyAngularVelocity),
		idxT: bodyFieldIndices(bodyIndex, solveBodyLastIteration),
	}
	b.velocityX = hwy.GatherIndex(buf.data, b.idxX)
	b.velocityY = hwy.GatherIndex(buf.data, b.idxY)
	b.angularVelocity = hwy.GatherIndex(buf.data, b.idxW)
	b.lastIterationF = hwy.GatherIndex(buf.data, b.idxT)
	return b
}

func (b *solveBodyBatch) scatter(buf *solveBodyBuffer) {
	hwy.ScatterIndex(b.velocityX, buf.data, b.idxX)
	hwy.ScatterIndex(b.velocityY, buf.data, b.idxY)
	hwy.ScatterIndex(b.angularVelocity, buf.data, b.idxW)
	hwy.ScatterIndex(b.lastIterationF, buf.data, b.idxT)
}

// applyImpulse folds delta through the inverse-mass columns into the
// batch's velocities.
func (b *solveBodyBatch) applyImpulse(linearX, linearY, angular, delta hwy.Vec[float32]) {
	b.velocityX = hwy.Add(b.velocityX, hwy.Mul(linearX, delta))
	b.velocityY = hwy.Add(b.velocityY, hwy.Mul(linearY, delta))
	b.angularVelocity = hwy.Add(b.angularVelocity, hwy.Mul(angular, delta))
}

// applyImpulseFMA is the fused form used by the FMA backend.
func (b *solveBodyBatch) applyImpulseFMA(linearX, linearY, angular, delta hwy.Vec[float32]) {
	b.velocityX = hwy.MulAdd(linearX, delta, b.velocityX)
	b.velocityY = hwy.MulAdd(linearY, delta, b.velocityY)
	b.angularVelocity = hwy.MulAdd(angular, delta, b.angularVelocity)
}

// lastIteration returns the tag lanes bit-cast back to integers.
func (b *solveBodyBatch) lastIteration() hwy.Vec[int32] {
	return hwy.AsInt32(b.lastIterationF)
}

// raiseLastIteration stamps the productive lanes with iterationBits.
func (b *solveBodyBatch) raiseLastIteration(productive hwy.Mask[float32], iterationBits hwy.Vec[float32]) {
	b.lastIterationF = hwy.IfThenElse(productive, iterationBits, b.lastIterationF)
}
