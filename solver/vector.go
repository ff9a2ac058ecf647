// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import "math"

// Vector2 is a 2-D float32 vector. The solver core works in float32
// throughout so scalar and SIMD paths see the same precision.
type Vector2 struct {
	X, Y float32
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

func (v Vector2) Scale(s float32) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

func (v Vector2) Neg() Vector2 {
	return Vector2{-v.X, -v.Y}
}

func (v Vector2) Dot(o Vector2) float32 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of the 3-D cross product of v and o.
func (v Vector2) Cross(o Vector2) float32 {
	return v.X*o.Y - v.Y*o.X
}

// Perp returns v rotated 90 degrees counter-clockwise.
func (v Vector2) Perp() Vector2 {
	return Vector2{-v.Y, v.X}
}

func (v Vector2) SquareLen() float32 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vector2) Len() float32 {
	return float32(math.Sqrt(float64(v.SquareLen())))
}

// Rot is a precomputed rotation (cosine/sine pair).
type Rot struct {
	Cos, Sin float32
}

func NewRot(angle float32) Rot {
	sin, cos := math.Sincos(float64(angle))
	return Rot{Cos: float32(cos), Sin: float32(sin)}
}

// Apply rotates v by r.
func (r Rot) Apply(v Vector2) Vector2 {
	return Vector2{r.Cos*v.X - r.Sin*v.Y, r.Sin*v.X + r.Cos*v.Y}
}

// ApplyInv rotates v by the inverse of r.
func (r Rot) ApplyInv(v Vector2) Vector2 {
	return Vector2{r.Cos*v.X + r.Sin*v.Y, -r.Sin*v.X + r.Cos*v.Y}
}
