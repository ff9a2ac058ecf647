// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import (
	"github.com/ajroetker/go-highway/hwy"
	"golang.org/x/sys/cpu"
)

// Backend selects one of the solver's interchangeable iteration
// implementations. All of them compute equivalent results; they differ in
// data layout and in how many joints one kernel step advances.
type Backend int

const (
	// BackendAoS iterates over the RigidBody records directly.
	BackendAoS Backend = iota

	// BackendSoAScalar iterates one packed lane at a time, no grouping.
	BackendSoAScalar

	// BackendSoAPack4 solves grouped joints 4 lanes at a time.
	BackendSoAPack4

	// BackendSoAPack8 solves grouped joints 8 lanes at a time.
	BackendSoAPack8

	// BackendSoAFMA solves grouped joints 16 per block, as two
	// interleaved 8-wide sub-batches with fused multiply-add.
	BackendSoAFMA

	numBackends
)

func (b Backend) String() string {
	switch b {
	case BackendAoS:
		return "aos"
	case BackendSoAScalar:
		return "soa-scalar"
	case BackendSoAPack4:
		return "soa-pack4"
	case BackendSoAPack8:
		return "soa-pack8"
	case BackendSoAFMA:
		return "soa-fma"
	default:
		return "unknown"
	}
}

// Available reports whether the backend's batch width maps onto the SIMD
// capabilities of this host. Every backend still computes correctly
// through hwy's scalar emulation, so this is a performance gate: use it
// (or Best) to avoid paying emulation overhead for a width the hardware
// cannot serve.
func (b Backend) Available() bool {
	switch b {
	case BackendAoS, BackendSoAScalar:
		return true
	case BackendSoAPack4:
		// 128-bit vectors are the floor on every supported target.
		return hwy.CurrentWidth() >= 16
	case BackendSoAPack8:
		return hwy.CurrentWidth() >= 32
	case BackendSoAFMA:
		return hwy.CurrentWidth() >= 32 && cpu.X86.HasFMA
	default:
		return false
	}
}

// Backends lists every backend, scalar first.
func Backends() []Backend {
	all := make([]Backend, 0, numBackends)
	for b := BackendAoS; b < numBackends; b++ {
		all = append(all, b)
	}
	return all
}

// Best returns the widest backend this host serves natively.
func Best() Backend {
	for _, b := range []Backend{BackendSoAFMA, BackendSoAPack8, BackendSoAPack4} {
		if b.Available() {
			return b
		}
	}
	return BackendSoAScalar
}
