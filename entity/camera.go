// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package entity

import (
	"math"

	"honnef.co/go/prim/jmath"
)

// Viewport reports the current size of the render target in pixels.
type Viewport interface {
	Size() (width, height uint32)
}

// Camera is a perspective camera. Its aspect ratio is read from the viewport
// every time the view-projection matrix is computed, so it follows resizes.
type Camera struct {
	viewport Viewport

	eye   jmath.Vec3
	focus jmath.Vec3
	up    jmath.Vec3

	fov   float64
	near  float64
	far   float64
	depth jmath.DepthRange
}

// NewCamera returns a camera at the origin looking down +Z at a point 30
// units away, with clip planes at 10 and 2000.
func NewCamera(viewport Viewport) *Camera {
	const near = 10
	return &Camera{
		viewport: viewport,
		eye:      jmath.Vec3{0, 0, 0},
		focus:    jmath.Vec3{0, 0, 30},
		up:       jmath.Vec3{0, 1, 0},
		fov:      math.Atan2(1, near),
		near:     near,
		far:      2000,
		depth:    jmath.DepthZeroToOne,
	}
}

func (c *Camera) Eye(eye jmath.Vec3) *Camera {
	c.eye = eye
	return c
}

func (c *Camera) Focus(focus jmath.Vec3) *Camera {
	c.focus = focus
	return c
}

func (c *Camera) Up(up jmath.Vec3) *Camera {
	c.up = up
	return c
}

// FOV sets the vertical field of view in radians.
func (c *Camera) FOV(fov float64) *Camera {
	c.fov = fov
	return c
}

func (c *Camera) Clip(near, far float64) *Camera {
	c.near = near
	c.far = far
	return c
}

func (c *Camera) Depth(depth jmath.DepthRange) *Camera {
	c.depth = depth
	return c
}

// Aspect returns the viewport's width divided by its height, or 1 for an
// empty viewport.
func (c *Camera) Aspect() float64 {
	w, h := c.viewport.Size()
	if w == 0 || h == 0 {
		return 1
	}
	return float64(w) / float64(h)
}

// ViewProj returns perspective · inverse(cameraAim). The eye and focus must
// not coincide, and up must not be parallel to the viewing direction;
// otherwise the camera basis is singular and the result is not finite.
func (c *Camera) ViewProj() jmath.Mat4 {
	proj := jmath.PerspectiveMat(c.fov, c.Aspect(), c.near, c.far, c.depth)
	view := jmath.LookAtMat(c.eye, c.focus, c.up)
	return jmath.MatMultiply(proj, view)
}

// FitScale returns the factor by which a viewport of the given size has to be
// scaled to fit inside a window while keeping its aspect ratio.
func FitScale(viewport Viewport, windowWidth, windowHeight uint32) float64 {
	w, h := viewport.Size()
	if w == 0 || h == 0 {
		return 1
	}
	return min(float64(windowWidth)/float64(w), float64(windowHeight)/float64(h))
}
