// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

// MaxContactPoints is the largest number of points a manifold carries.
const MaxContactPoints = 2

// ContactPoint is the unit of exchange between the collision layer and the
// solver. Anchors and the normal are stored in body-local space so a
// refresh can rebuild world geometry from the current poses.
//
// SolverIndex is the backlink into Solver.ContactJoints, maintained by
// AddJoint/RemoveJoint, so the manifold layer can hand the same joint back
// with the same identity next step (preserving warm-start accumulators).
type ContactPoint struct {
	LocalAnchor1 Vector2 // body1 frame
	LocalAnchor2 Vector2 // body2 frame
	LocalNormal  Vector2 // body1 frame, unit length, points from body1 to body2

	IsMerged       bool
	IsNewlyCreated bool
	SolverIndex    int
}

// NewContactPoint builds a point from world-space surface points and a
// world-space normal.
func NewContactPoint(point1, point2, normal Vector2, body1, body2 *RigidBody) ContactPoint {
	rot1 := NewRot(body1.Angle)
	rot2 := NewRot(body2.Angle)

	return ContactPoint{
		LocalAnchor1:   rot1.ApplyInv(point1.Sub(body1.Position)),
		LocalAnchor2:   rot2.ApplyInv(point2.Sub(body2.Position)),
		LocalNormal:    rot1.ApplyInv(normal),
		IsNewlyCreated: true,
		SolverIndex:    -1,
	}
}

// Equals reports whether other matches this point within tolerance on at
// least one anchor. The manifold layer uses it to carry points (and their
// accumulated impulses) across steps.
func (p *ContactPoint) Equals(other *ContactPoint, tolerance float32) bool {
	if other.LocalAnchor1.Sub(p.LocalAnchor1).SquareLen() > tolerance*tolerance &&
		other.LocalAnchor2.Sub(p.LocalAnchor2).SquareLen() > tolerance*tolerance {
		return false
	}
	return true
}

// Manifold groups the contact points of one body pair. Points live in a
// shared array owned by the collision layer; PointIndex/PointCount select
// this manifold's window.
type Manifold struct {
	Body1Index int32
	Body2Index int32

	PointCount uint32
	PointIndex uint32
}

func NewManifold(body1Index, body2Index int32, pointIndex uint32) Manifold {
	return Manifold{Body1Index: body1Index, Body2Index: body2Index, PointIndex: pointIndex}
}
