// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package jmath

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const tol = 1e-9

func randomMat(rng *rand.Rand) Mat4 {
	var m Mat4
	for i := range m {
		m[i] = rng.Float64()*20 - 10
	}
	return m
}

func TestRotationRoundTrip(t *testing.T) {
	rots := []struct {
		name string
		fn   func(float64) Mat4
	}{
		{"X", RotXMat},
		{"Y", RotYMat},
		{"Z", RotZMat},
	}
	angles := []float64{0, 0.1, math.Pi / 4, math.Pi / 2, 2, math.Pi, -1.3, 7}
	for _, rot := range rots {
		t.Run(rot.name, func(t *testing.T) {
			for _, theta := range angles {
				got := MatMultiply(rot.fn(theta), rot.fn(-theta))
				if !got.ApproxEqual(IdentityMat(), tol) {
					t.Errorf("Rot%s(%v)·Rot%s(%v) = %v, want identity", rot.name, theta, rot.name, -theta, got)
				}
			}
		})
	}
}

func TestRotMatOrder(t *testing.T) {
	x, y, z := 0.3, -1.1, 2.4
	want := RotXMat(x).Mul(RotYMat(y)).Mul(RotZMat(z))
	if got := RotMat(x, y, z); !got.ApproxEqual(want, tol) {
		t.Errorf("RotMat = %v, want %v", got, want)
	}
}

func TestMatMultiply(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	if got := MatMultiply(); got != IdentityMat() {
		t.Errorf("MatMultiply() = %v, want identity", got)
	}
	for range 20 {
		a := randomMat(rng)
		if got := MatMultiply(a); !got.ApproxEqual(a, tol) {
			t.Errorf("MatMultiply(A) = %v, want %v", got, a)
		}
	}

	a := TransMat(1, 2, 3)
	b := ScaleMat(2, 2, 2)
	ab := MatMultiply(a, b)
	ba := MatMultiply(b, a)
	if ab.ApproxEqual(ba, tol) {
		t.Errorf("translate·scale and scale·translate unexpectedly equal")
	}
	// Scale is applied first, then translation.
	if got, want := ab.MulVec4(Vec4{1, 1, 1, 1}), (Vec4{3, 4, 5, 1}); got != want {
		t.Errorf("(T·S)·v = %v, want %v", got, want)
	}
}

func TestTranspose(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 20 {
		a := randomMat(rng)
		if got := Transpose(Transpose(a)); got != a {
			t.Errorf("Transpose(Transpose(%v)) = %v", a, got)
		}
		want := mgl64.Mat4(a).Transpose()
		if got := Transpose(a); got != Mat4(want) {
			t.Errorf("Transpose(%v) = %v, want %v", a, got, want)
		}
	}
}

func TestInverseMat(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for range 50 {
		m := randomMat(rng)
		if math.Abs(mgl64.Mat4(m).Det()) < 1 {
			continue
		}
		inv := InverseMat(m)
		if got := MatMultiply(inv, m); !got.ApproxEqual(IdentityMat(), 1e-6) {
			t.Errorf("Inverse(M)·M = %v, want identity", got)
		}
		// mgl64 is column-major; inverting the transpose and reading it back
		// row-major yields the same elements.
		if want := Mat4(mgl64.Mat4(m).Inv()); !inv.ApproxEqual(want, 1e-6) {
			t.Errorf("InverseMat(%v) = %v, want %v", m, inv, want)
		}
	}
}

func TestInverseMatSingular(t *testing.T) {
	inv := InverseMat(ZeroMat())
	for _, v := range inv {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			t.Fatalf("InverseMat(zero) = %v, want non-finite values", inv)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
	}{
		{"unit x", Vec3{1, 0, 0}},
		{"diagonal", Vec3{1, 1, 1}},
		{"negative", Vec3{-3, 4, -12}},
		{"tiny but valid", Vec3{2e-5, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.v).Length(); math.Abs(got-1) > tol {
				t.Errorf("|Normalize(%v)| = %v, want 1", tt.v, got)
			}
		})
	}

	for _, v := range []Vec3{{}, {1e-6, 0, 0}, {0, -5e-6, 5e-6}} {
		if got := Normalize(v); got != (Vec3{}) {
			t.Errorf("Normalize(%v) = %v, want zero vector", v, got)
		}
	}
}

func TestCrossSubtract(t *testing.T) {
	if got, want := Cross(Vec3{1, 0, 0}, Vec3{0, 1, 0}), (Vec3{0, 0, 1}); got != want {
		t.Errorf("X×Y = %v, want %v", got, want)
	}
	if got, want := Subtract(Vec3{5, 3, 1}, Vec3{1, 1, 1}), (Vec3{4, 2, 0}); got != want {
		t.Errorf("Subtract = %v, want %v", got, want)
	}
}

func TestPerspectiveDepth(t *testing.T) {
	const near, far = 10, 2000
	tests := []struct {
		name      string
		depth     DepthRange
		nearDepth float64
		farDepth  float64
	}{
		{"zero to one", DepthZeroToOne, 0, 1},
		{"neg one to one", DepthNegOneToOne, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PerspectiveMat(math.Pi/2, 16.0/9, near, far, tt.depth)
			n := p.MulVec4(Vec4{0, 0, -near, 1})
			f := p.MulVec4(Vec4{0, 0, -far, 1})
			if got := n[2] / n[3]; math.Abs(got-tt.nearDepth) > 1e-9 {
				t.Errorf("near plane depth = %v, want %v", got, tt.nearDepth)
			}
			if got := f[2] / f[3]; math.Abs(got-tt.farDepth) > 1e-9 {
				t.Errorf("far plane depth = %v, want %v", got, tt.farDepth)
			}
		})
	}
}

func TestOrthoMat(t *testing.T) {
	o := OrthoMat(-2, 2, -1, 1, 1, 11, DepthZeroToOne)
	tests := []struct {
		in   Vec4
		want Vec4
	}{
		{Vec4{-2, -1, -1, 1}, Vec4{-1, -1, 0, 1}},
		{Vec4{2, 1, -11, 1}, Vec4{1, 1, 1, 1}},
		{Vec4{0, 0, -6, 1}, Vec4{0, 0, 0.5, 1}},
	}
	for _, tt := range tests {
		got := o.MulVec4(tt.in)
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > tol {
				t.Errorf("Ortho·%v = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestLookAtMat(t *testing.T) {
	eye := Vec3{0, 0, 5}
	view := LookAtMat(eye, Vec3{}, Vec3{0, 1, 0})
	if got := view.MulVec4(Vec4{0, 0, 5, 1}); !approxVec(got, Vec4{0, 0, 0, 1}) {
		t.Errorf("view·eye = %v, want origin", got)
	}
	if got := view.MulVec4(Vec4{0, 0, 0, 1}); !approxVec(got, Vec4{0, 0, -5, 1}) {
		t.Errorf("view·target = %v, want (0, 0, -5)", got)
	}
	aim := CameraAimMat(eye, Vec3{}, Vec3{0, 1, 0})
	if got := MatMultiply(aim, view); !got.ApproxEqual(IdentityMat(), tol) {
		t.Errorf("aim·view = %v, want identity", got)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		n, align, want int
	}{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{95, 4, 96},
	}
	for _, tt := range tests {
		if got := AlignUp(tt.n, tt.align); got != tt.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
	if got := AlignUp[uint64](81, 16); got != 96 {
		t.Errorf("AlignUp[uint64](81, 16) = %d, want 96", got)
	}
}

func approxVec(a, b Vec4) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
