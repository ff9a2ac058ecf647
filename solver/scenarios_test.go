// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import (
	"math"
	"testing"
)

// sceneFunc builds a fresh, identical scene on every call so each
// backend solves the same inputs.
type sceneFunc func() (*Solver, []RigidBody)

// restingContactScene is a single contact between a fixed body and a
// dynamic one, with hand-built limiters so the targets are literal.
// Normal (0,1), no lever arms, unit effective mass.
func restingContactScene(dstVelocity float32, velocity Vector2, invMass1, invMass2 float32) sceneFunc {
	return func() (*Solver, []RigidBody) {
		bodies := []RigidBody{
			NewBody(Vector2{0, 0}, 0, 0),
			NewBody(Vector2{0, 1}, 0, 0),
		}
		bodies[0].InvMass = invMass1
		bodies[1].InvMass = invMass2
		bodies[1].Velocity = velocity

		n := Vector2{0, 1}
		tangent := n.Perp()

		joint := NewContactJoint(0, 1, nil)
		joint.NormalLimiter.init(n.Neg(), n, 0, 0, &bodies[0], &bodies[1])
		joint.NormalLimiter.DstVelocity = dstVelocity
		joint.FrictionLimiter.init(tangent.Neg(), tangent, 0, 0, &bodies[0], &bodies[1])

		s := NewSolver()
		s.AddJoint(joint)
		return s, bodies
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, backend Backend)) {
	for _, backend := range Backends() {
		t.Run(backend.String(), func(t *testing.T) {
			fn(t, backend)
		})
	}
}

func TestTwoBodyRestingContact(t *testing.T) {
	scene := restingContactScene(-0.01, Vector2{0, -1}, 0, 1)

	forEachBackend(t, func(t *testing.T, backend Backend) {
		s, bodies := scene()

		s.SolveJoints(backend, bodies, 10, 10)

		if math.Abs(float64(bodies[1].Velocity.Y)) > 0.05 {
			t.Errorf("velocity.y = %v, want ~0", bodies[1].Velocity.Y)
		}
		if acc := s.ContactJoints[0].NormalLimiter.AccumulatedImpulse; acc <= 0 {
			t.Errorf("accumulated impulse = %v, want > 0", acc)
		}
		if bodies[0].Velocity != (Vector2{}) {
			t.Errorf("fixed body moved: %v", bodies[0].Velocity)
		}
	})
}

func TestEmptyScene(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		s := NewSolver()
		avg := s.SolveJoints(backend, nil, 10, 10)

		if !math.IsNaN(float64(avg)) {
			t.Errorf("avg = %v, want NaN for empty scene", avg)
		}
	})
}

func TestDegenerateJoint(t *testing.T) {
	// Both bodies infinite-mass: compInvMass is zero, every delta is
	// zero, the single pass is unproductive and the diagnostic lands on
	// exactly 2 (both tags stay at -1).
	scene := restingContactScene(-0.01, Vector2{}, 0, 0)

	forEachBackend(t, func(t *testing.T, backend Backend) {
		s, bodies := scene()

		if m := s.ContactJoints[0].NormalLimiter.CompInvMass; m != 0 {
			t.Fatalf("compInvMass = %v, want 0", m)
		}

		avg := s.SolveJoints(backend, bodies, 10, 10)

		if s.ContactJoints[0].NormalLimiter.AccumulatedImpulse != 0 {
			t.Errorf("normal accumulator = %v, want 0", s.ContactJoints[0].NormalLimiter.AccumulatedImpulse)
		}
		if math.Abs(float64(avg-2)) > 1e-6 {
			t.Errorf("avg = %v, want 2", avg)
		}
	})
}

func TestFrictionCap(t *testing.T) {
	// The normal impulse settles at 10; the tangential drive would want
	// a friction impulse of 5, but the Coulomb cone caps it at 3.
	scene := restingContactScene(0, Vector2{5, -10}, 0, 1)

	forEachBackend(t, func(t *testing.T, backend Backend) {
		s, bodies := scene()

		s.SolveJoints(backend, bodies, 20, 0)

		joint := &s.ContactJoints[0]

		if math.Abs(float64(joint.NormalLimiter.AccumulatedImpulse-10)) > 1e-3 {
			t.Errorf("normal accumulator = %v, want 10", joint.NormalLimiter.AccumulatedImpulse)
		}
		if math.Abs(float64(joint.FrictionLimiter.AccumulatedImpulse-3)) > 1e-3 {
			t.Errorf("friction accumulator = %v, want 3", joint.FrictionLimiter.AccumulatedImpulse)
		}
	})
}

// checkAccumulatorInvariants asserts the sign/cone invariants that must
// hold after every solve, whatever the backend.
func checkAccumulatorInvariants(t *testing.T, s *Solver) {
	t.Helper()

	for i := range s.ContactJoints {
		joint := &s.ContactJoints[i]

		if joint.NormalLimiter.AccumulatedImpulse < 0 {
			t.Fatalf("joint %d: normal accumulator %v < 0", i, joint.NormalLimiter.AccumulatedImpulse)
		}
		if joint.NormalLimiter.AccumulatedDisplacingImpulse < 0 {
			t.Fatalf("joint %d: displacing accumulator %v < 0", i, joint.NormalLimiter.AccumulatedDisplacingImpulse)
		}
		cone := joint.NormalLimiter.AccumulatedImpulse*kFrictionCoefficient + 1e-4
		if abs32(joint.FrictionLimiter.AccumulatedImpulse) > cone {
			t.Fatalf("joint %d: friction accumulator %v outside cone (cap %v)",
				i, joint.FrictionLimiter.AccumulatedImpulse, cone)
		}
	}
}

func TestAccumulatorInvariants(t *testing.T) {
	scene := stackScene(20, 0.01)

	forEachBackend(t, func(t *testing.T, backend Backend) {
		s, bodies := scene()
		s.SolveJoints(backend, bodies, 10, 10)
		checkAccumulatorInvariants(t, s)
	})
}

// Raising the iteration budget past a converged run must not change
// anything: the extra passes would all be unproductive.
func TestEarlyExitFidelity(t *testing.T) {
	scene := stackScene(10, 0.01)

	forEachBackend(t, func(t *testing.T, backend Backend) {
		s1, bodies1 := scene()
		s1.SolveJoints(backend, bodies1, 50, 50)

		s2, bodies2 := scene()
		s2.SolveJoints(backend, bodies2, 60, 60)

		for i := range bodies1 {
			if bodies1[i].Velocity != bodies2[i].Velocity ||
				bodies1[i].AngularVelocity != bodies2[i].AngularVelocity ||
				bodies1[i].DisplacingVelocity != bodies2[i].DisplacingVelocity ||
				bodies1[i].DisplacingAngularVelocity != bodies2[i].DisplacingAngularVelocity {
				t.Fatalf("body %d differs between budget 50 and 60", i)
			}
		}
		for i := range s1.ContactJoints {
			if s1.ContactJoints[i].NormalLimiter.AccumulatedImpulse != s2.ContactJoints[i].NormalLimiter.AccumulatedImpulse ||
				s1.ContactJoints[i].FrictionLimiter.AccumulatedImpulse != s2.ContactJoints[i].FrictionLimiter.AccumulatedImpulse {
				t.Fatalf("joint %d accumulators differ between budget 50 and 60", i)
			}
		}
	})
}

// On a static scene warm-started accumulators make the second step
// converge at least as fast as the first.
func TestWarmStartMonotonicity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend Backend) {
		s, bodies := stackScene(10, 0.01)()

		avg1 := s.SolveJoints(backend, bodies, 30, 30)

		s.RefreshJoints(bodies, nil)
		s.PreStepJoints(bodies)

		avg2 := s.SolveJoints(backend, bodies, 30, 30)

		if avg2 > avg1+1e-3 {
			t.Errorf("avg iterations rose across steps: %v -> %v", avg1, avg2)
		}
	})
}
