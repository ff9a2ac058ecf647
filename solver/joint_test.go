// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import (
	"math"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

func TestLimiterInit(t *testing.T) {
	body1 := NewBody(Vector2{}, 2, 0) // invMass 0.5, infinite inertia
	body2 := NewBody(Vector2{}, 1, 1) // invMass 1, invInertia 1

	var l Limiter
	l.init(Vector2{0, -1}, Vector2{0, 1}, 0.5, -0.25, &body1, &body2)

	if l.CompMass1Linear != (Vector2{0, -0.5}) {
		t.Errorf("CompMass1Linear = %v", l.CompMass1Linear)
	}
	if l.CompMass2Linear != (Vector2{0, 1}) {
		t.Errorf("CompMass2Linear = %v", l.CompMass2Linear)
	}
	if l.CompMass1Angular != 0 {
		t.Errorf("CompMass1Angular = %v, want 0 for infinite inertia", l.CompMass1Angular)
	}
	if l.CompMass2Angular != -0.25 {
		t.Errorf("CompMass2Angular = %v", l.CompMass2Angular)
	}

	// 1*0.5 + 0 + 1*1 + 0.0625*1
	wantCompMass := float32(0.5 + 1 + 0.0625)
	if math.Abs(float64(l.CompInvMass-1/wantCompMass)) > 1e-6 {
		t.Errorf("CompInvMass = %v, want %v", l.CompInvMass, 1/wantCompMass)
	}
}

func TestLimiterInitInfiniteMassPair(t *testing.T) {
	body1 := NewBody(Vector2{}, 0, 0)
	body2 := NewBody(Vector2{}, 0, 0)

	var l Limiter
	l.init(Vector2{0, -1}, Vector2{0, 1}, 1, -1, &body1, &body2)

	if l.CompInvMass != 0 {
		t.Errorf("CompInvMass = %v, want 0 when both bodies are infinite-mass", l.CompInvMass)
	}
}

// makeContact builds a body pair with one contact joint between world
// points p1 (on body1) and p2 (on body2) with the given normal.
func makeContact(body1, body2 *RigidBody, p1, p2, normal Vector2) (ContactJoint, *ContactPoint) {
	point := NewContactPoint(p1, p2, normal, body1, body2)
	joint := NewContactJoint(0, 1, &point)
	return joint, &point
}

func TestPreStepRestitution(t *testing.T) {
	tests := []struct {
		name        string
		approach    float32 // body2 velocity along -normal
		restitution float32
		want        float32
	}{
		{"slow approach no bounce", 0.5, 0.8, 0},
		{"fast approach bounces", 4, 0.5, 2},
		{"fast approach zero restitution", 4, 0, 0},
		{"separating no bounce", -2, 0.8, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := []RigidBody{
				NewBody(Vector2{0, 0}, 0, 0),
				NewBody(Vector2{0, 1}, 1, 0),
			}
			bodies[1].Restitution = tt.restitution
			bodies[1].Velocity = Vector2{0, -tt.approach}

			joint, _ := makeContact(&bodies[0], &bodies[1], Vector2{0, 0.5}, Vector2{0, 0.5}, Vector2{0, 1})
			joint.Refresh(bodies)
			joint.PreStep(bodies)

			if math.Abs(float64(joint.NormalLimiter.DstVelocity-tt.want)) > 1e-6 {
				t.Errorf("DstVelocity = %v, want %v", joint.NormalLimiter.DstVelocity, tt.want)
			}
		})
	}
}

func TestPreStepPenetrationBias(t *testing.T) {
	tests := []struct {
		name  string
		depth float32
		want  float32
	}{
		{"separated", -0.1, 0},
		{"inside slop", 0.004, 0},
		{"penetrating", 0.105, kBaumgarte * 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := []RigidBody{
				NewBody(Vector2{0, 0}, 0, 0),
				NewBody(Vector2{0, 1}, 1, 0),
			}

			// Surface points offset along the normal by the wanted depth:
			// body1's point ends up depth above body2's.
			p1 := Vector2{0, 0.5 + tt.depth/2}
			p2 := Vector2{0, 0.5 - tt.depth/2}

			joint, _ := makeContact(&bodies[0], &bodies[1], p1, p2, Vector2{0, 1})
			joint.Refresh(bodies)
			joint.PreStep(bodies)

			if math.Abs(float64(joint.NormalLimiter.DstDisplacingVelocity-tt.want)) > 1e-6 {
				t.Errorf("DstDisplacingVelocity = %v, want %v", joint.NormalLimiter.DstDisplacingVelocity, tt.want)
			}
		})
	}
}

func TestRefreshRotatesAnchors(t *testing.T) {
	bodies := []RigidBody{
		NewBody(Vector2{0, 0}, 0, 0),
		NewBody(Vector2{0, 1}, 1, 1),
	}

	joint, _ := makeContact(&bodies[0], &bodies[1], Vector2{0.5, 0.5}, Vector2{0.5, 0.5}, Vector2{0, 1})
	joint.Refresh(bodies)

	if d := joint.r2.Sub(Vector2{0.5, -0.5}).Len(); d > 1e-6 {
		t.Fatalf("r2 = %v before rotation", joint.r2)
	}

	// Quarter turn of body2 swings its anchor around the body center.
	bodies[1].Angle = float32(math.Pi / 2)
	joint.Refresh(bodies)

	if d := joint.r2.Sub(Vector2{0.5, 0.5}).Len(); d > 1e-5 {
		t.Fatalf("r2 = %v after quarter turn, want (0.5, 0.5)", joint.r2)
	}
}

func TestRefreshJointsParallelMatchesSequential(t *testing.T) {
	const joints = 100

	build := func() (*Solver, []RigidBody, []ContactPoint) {
		bodies := []RigidBody{NewBody(Vector2{0, 0}, 0, 0)}
		points := make([]ContactPoint, 0, joints)
		s := NewSolver()
		for i := 0; i < joints; i++ {
			bodies = append(bodies, NewBody(Vector2{float32(i), 1}, 1, 1))
			points = append(points, NewContactPoint(
				Vector2{float32(i), 0.5}, Vector2{float32(i), 0.5}, Vector2{0, 1},
				&bodies[0], &bodies[len(bodies)-1]))
			s.AddJoint(NewContactJoint(0, int32(len(bodies)-1), &points[len(points)-1]))
		}
		for i := range bodies {
			bodies[i].Angle = float32(i) * 0.01
		}
		return s, bodies, points
	}

	seq, seqBodies, _ := build()
	seq.RefreshJoints(seqBodies, nil)

	pool := workerpool.New(4)
	defer pool.Close()

	par, parBodies, _ := build()
	par.RefreshJoints(parBodies, pool)

	for i := range seq.ContactJoints {
		a, b := &seq.ContactJoints[i], &par.ContactJoints[i]
		if a.r1 != b.r1 || a.r2 != b.r2 || a.normal != b.normal || a.depth != b.depth {
			t.Fatalf("joint %d differs between sequential and parallel refresh", i)
		}
	}
}

func TestContactPointEquals(t *testing.T) {
	body1 := NewBody(Vector2{}, 0, 0)
	body2 := NewBody(Vector2{0, 1}, 1, 1)

	a := NewContactPoint(Vector2{0, 0.5}, Vector2{0, 0.5}, Vector2{0, 1}, &body1, &body2)
	b := NewContactPoint(Vector2{0.005, 0.5}, Vector2{0.005, 0.5}, Vector2{0, 1}, &body1, &body2)
	c := NewContactPoint(Vector2{3, 0.5}, Vector2{3, 0.5}, Vector2{0, 1}, &body1, &body2)

	if !a.Equals(&b, 0.01) {
		t.Errorf("nearby points should match")
	}
	if a.Equals(&c, 0.01) {
		t.Errorf("distant points should not match")
	}
}

func TestAddRemoveJoint(t *testing.T) {
	s := NewSolver()

	points := make([]ContactPoint, 3)
	for i := range points {
		points[i].SolverIndex = -1
		s.AddJoint(NewContactJoint(int32(i), int32(i+1), &points[i]))
	}

	for i := range points {
		if points[i].SolverIndex != i {
			t.Fatalf("point %d backlink = %d", i, points[i].SolverIndex)
		}
	}

	s.RemoveJoint(0)

	if len(s.ContactJoints) != 2 {
		t.Fatalf("joint count = %d, want 2", len(s.ContactJoints))
	}
	if points[2].SolverIndex != 0 {
		t.Fatalf("moved joint backlink = %d, want 0", points[2].SolverIndex)
	}
}
