// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package jmath

import "math"

// Mat4 is a 4×4 matrix in row-major order. Element (row, col) lives at index
// row*4+col.
type Mat4 [16]float64

// DepthRange selects the clip-space depth convention of projection matrices.
type DepthRange int

const (
	// DepthZeroToOne maps the near plane to 0 and the far plane to 1, as
	// WebGPU, Vulkan and Direct3D expect.
	DepthZeroToOne DepthRange = iota
	// DepthNegOneToOne maps the near plane to -1 and the far plane to 1, as
	// OpenGL expects.
	DepthNegOneToOne
)

func IdentityMat() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func ZeroMat() Mat4 {
	return Mat4{}
}

func ScaleMat(x, y, z float64) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

func TransMat(x, y, z float64) Mat4 {
	return Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

func RotXMat(theta float64) Mat4 {
	s, c := math.Sincos(theta)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

func RotYMat(theta float64) Mat4 {
	s, c := math.Sincos(theta)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

func RotZMat(theta float64) Mat4 {
	s, c := math.Sincos(theta)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotMat returns RotXMat(thetaX) · RotYMat(thetaY) · RotZMat(thetaZ).
func RotMat(thetaX, thetaY, thetaZ float64) Mat4 {
	return MatMultiply(RotXMat(thetaX), RotYMat(thetaY), RotZMat(thetaZ))
}

// MatMultiply returns the product of mats in order, starting from the
// identity. With no arguments it returns the identity.
func MatMultiply(mats ...Mat4) Mat4 {
	out := IdentityMat()
	for _, m := range mats {
		out = out.Mul(m)
	}
	return out
}

// Mul returns a · b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for i := range 4 {
		for j := range 4 {
			out[i*4+j] = a[i*4+0]*b[0*4+j] +
				a[i*4+1]*b[1*4+j] +
				a[i*4+2]*b[2*4+j] +
				a[i*4+3]*b[3*4+j]
		}
	}
	return out
}

// MulVec4 transforms the column vector v.
func (a Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for i := range 4 {
		out[i] = a[i*4+0]*v[0] + a[i*4+1]*v[1] + a[i*4+2]*v[2] + a[i*4+3]*v[3]
	}
	return out
}

func Transpose(a Mat4) Mat4 {
	var out Mat4
	for i := range 4 {
		for j := range 4 {
			out[i*4+j] = a[j*4+i]
		}
	}
	return out
}

// InverseMat inverts m by cofactor expansion. The inverse of a singular matrix
// is not defined; the result will contain infinities or NaNs.
func InverseMat(m Mat4) Mat4 {
	var inv Mat4

	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] +
		m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] -
		m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] +
		m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] -
		m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]

	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] -
		m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] +
		m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] -
		m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] +
		m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]

	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] +
		m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] -
		m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] +
		m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] -
		m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]

	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] -
		m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] +
		m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] -
		m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] +
		m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	invDet := 1 / det
	for i := range inv {
		inv[i] *= invDet
	}
	return inv
}

// OrthoMat returns an orthographic projection of the given view volume.
func OrthoMat(left, right, bottom, top, near, far float64, depth DepthRange) Mat4 {
	out := Mat4{
		2 / (right - left), 0, 0, -(right + left) / (right - left),
		0, 2 / (top - bottom), 0, -(top + bottom) / (top - bottom),
		0, 0, 0, 0,
		0, 0, 0, 1,
	}
	switch depth {
	case DepthNegOneToOne:
		out[10] = 2 / (near - far)
		out[11] = (near + far) / (near - far)
	default:
		out[10] = 1 / (near - far)
		out[11] = near / (near - far)
	}
	return out
}

// PerspectiveMat returns a perspective projection for a camera looking down
// -Z. fov is the vertical field of view in radians.
func PerspectiveMat(fov, aspect, near, far float64, depth DepthRange) Mat4 {
	f := 1 / math.Tan(fov/2)
	out := Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, 0, 0,
		0, 0, -1, 0,
	}
	switch depth {
	case DepthNegOneToOne:
		out[10] = (far + near) / (near - far)
		out[11] = 2 * far * near / (near - far)
	default:
		out[10] = far / (near - far)
		out[11] = far * near / (near - far)
	}
	return out
}

// CameraAimMat returns the camera-to-world matrix of a camera at eye looking
// at target. The camera's Z axis points from target to eye.
func CameraAimMat(eye, target, up Vec3) Mat4 {
	z := Normalize(Subtract(eye, target))
	x := Normalize(Cross(up, z))
	y := Normalize(Cross(z, x))
	return Mat4{
		x[0], y[0], z[0], eye[0],
		x[1], y[1], z[1], eye[1],
		x[2], y[2], z[2], eye[2],
		0, 0, 0, 1,
	}
}

// LookAtMat returns the world-to-camera (view) matrix of a camera at eye
// looking at target.
func LookAtMat(eye, target, up Vec3) Mat4 {
	return InverseMat(CameraAimMat(eye, target, up))
}

// Float32 converts the matrix for upload to the GPU, keeping its element
// order.
func (a Mat4) Float32() [16]float32 {
	var out [16]float32
	for i, v := range a {
		out[i] = float32(v)
	}
	return out
}

func (a Mat4) ApproxEqual(b Mat4, tolerance float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}
