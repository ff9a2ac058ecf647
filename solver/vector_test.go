// Copyright 2026 go-impulse Authors. SPDX-License-Identifier: Apache-2.0

package solver

import (
	"math"
	"testing"
)

func TestVectorOps(t *testing.T) {
	a := Vector2{3, 4}
	b := Vector2{-1, 2}

	if got := a.Add(b); got != (Vector2{2, 6}) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); got != (Vector2{4, 2}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Dot(b); got != 5 {
		t.Errorf("Dot = %v", got)
	}
	if got := a.Cross(b); got != 10 {
		t.Errorf("Cross = %v", got)
	}
	if got := a.Perp(); got != (Vector2{-4, 3}) {
		t.Errorf("Perp = %v", got)
	}
	if got := a.Len(); got != 5 {
		t.Errorf("Len = %v", got)
	}
}

func TestRotRoundTrip(t *testing.T) {
	r := NewRot(0.7)
	v := Vector2{1.5, -2.5}

	back := r.ApplyInv(r.Apply(v))

	if back.Sub(v).Len() > 1e-6 {
		t.Errorf("rotate round trip drifted: %v -> %v", v, back)
	}
}

func TestRotQuarterTurn(t *testing.T) {
	r := NewRot(float32(math.Pi / 2))

	got := r.Apply(Vector2{1, 0})
	if got.Sub(Vector2{0, 1}).Len() > 1e-6 {
		t.Errorf("quarter turn of (1,0) = %v", got)
	}
}
