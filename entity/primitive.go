// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package entity implements the drawable primitives and the camera.
package entity

import (
	"honnef.co/go/color"
	"honnef.co/go/prim/gfx"
	"honnef.co/go/prim/jmath"
)

// Primitive is a colored polygon with its own transform. The zero value is
// not ready for use; create primitives with NewPrimitive.
//
// Setters and shape builders return the primitive so calls can be chained:
//
//	p := entity.NewPrimitive().Fill(gfx.RGBA(0, 1, 0, 1)).Rect(0.5, 0.5)
type Primitive struct {
	vertices []jmath.Vec4
	indices  []uint32
	color    gfx.Color

	translation jmath.Vec3
	// Euler angles in radians, applied X, then Y, then Z.
	rotation jmath.Vec3
	scale    jmath.Vec3
}

// NewPrimitive returns a primitive with an identity transform, no geometry
// and a transparent color.
func NewPrimitive() *Primitive {
	return &Primitive{
		scale: jmath.Vec3{1, 1, 1},
	}
}

func (p *Primitive) Scale(sx, sy, sz float64) *Primitive {
	p.scale = jmath.Vec3{sx, sy, sz}
	return p
}

func (p *Primitive) Rotation(thetaX, thetaY, thetaZ float64) *Primitive {
	p.rotation = jmath.Vec3{thetaX, thetaY, thetaZ}
	return p
}

func (p *Primitive) Translate(tx, ty, tz float64) *Primitive {
	p.translation = jmath.Vec3{tx, ty, tz}
	return p
}

func (p *Primitive) Fill(c gfx.Color) *Primitive {
	p.color = c
	return p
}

// FillColor sets the color from any color space supported by
// honnef.co/go/color.
func (p *Primitive) FillColor(c *color.Color) *Primitive {
	p.color = gfx.FromColor(c)
	return p
}

// Geometry replaces the primitive's geometry. A nil index list draws the
// vertices in order, three per triangle.
func (p *Primitive) Geometry(vertices []jmath.Vec4, indices []uint32) *Primitive {
	if indices == nil {
		indices = SequentialIndices(len(vertices))
	}
	p.vertices = vertices
	p.indices = indices
	return p
}

func (p *Primitive) Vertices() []jmath.Vec4 { return p.vertices }
func (p *Primitive) Indices() []uint32      { return p.indices }
func (p *Primitive) Color() gfx.Color       { return p.color }

func (p *Primitive) Translation() jmath.Vec3    { return p.translation }
func (p *Primitive) RotationAngles() jmath.Vec3 { return p.rotation }
func (p *Primitive) ScaleFactors() jmath.Vec3   { return p.scale }

// Transform returns translate · rotate · scale for the primitive's current
// state. It is computed anew on every call.
func (p *Primitive) Transform() jmath.Mat4 {
	return ComputeTransform(p.translation, p.rotation, p.scale)
}

// ComputeTransform composes a translation, Euler rotation and scale into a
// single matrix that scales first and translates last.
func ComputeTransform(translation, rotation, scale jmath.Vec3) jmath.Mat4 {
	return jmath.MatMultiply(
		jmath.TransMat(translation[0], translation[1], translation[2]),
		jmath.RotMat(rotation[0], rotation[1], rotation[2]),
		jmath.ScaleMat(scale[0], scale[1], scale[2]),
	)
}

// SequentialIndices returns the index list 0, 1, ..., n-1.
func SequentialIndices(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
