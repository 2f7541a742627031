// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package entity

import (
	"fmt"
	"iter"
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/prim/jmath"
)

// CircleSegments is the number of triangles Circle uses.
const CircleSegments = 1000

// Rect replaces the geometry with a w×h rectangle centered on the origin in
// the z=0 plane. The four corners are shared by two triangles.
func (p *Primitive) Rect(w, h float64) *Primitive {
	mw := w / 2
	mh := h / 2
	p.vertices = []jmath.Vec4{
		{-mw, mh, 0, 1},
		{mw, mh, 0, 1},
		{-mw, -mh, 0, 1},
		{mw, -mh, 0, 1},
	}
	p.indices = []uint32{0, 1, 2, 2, 1, 3}
	return p
}

// Circle replaces the geometry with a disk of radius r made of
// CircleSegments triangles. The rim lies at depth z.
func (p *Primitive) Circle(r, z float64) *Primitive {
	return p.CircleN(r, z, CircleSegments)
}

// CircleN is like Circle but uses n triangles. Every triangle has its own
// three vertices, including a copy of the center, and the index list is
// sequential. n <= 0 produces empty geometry.
func (p *Primitive) CircleN(r, z float64, n int) *Primitive {
	if n <= 0 {
		return p.Geometry(nil, []uint32{})
	}
	vertices := make([]jmath.Vec4, 0, 3*n)
	dTheta := 2 * math.Pi / float64(n)
	for i := range n {
		s1, c1 := math.Sincos(dTheta * float64(i))
		s2, c2 := math.Sincos(dTheta * float64(i+1))
		vertices = append(vertices,
			jmath.Vec4{0, 0, 0, 1},
			jmath.Vec4{r * c1, r * s1, z, 1},
			jmath.Vec4{r * c2, r * s2, z, 1},
		)
	}
	return p.Geometry(vertices, nil)
}

// Polygon replaces the geometry with a triangle fan over the given outline,
// which must be convex. Outlines with fewer than three points produce empty
// geometry.
func (p *Primitive) Polygon(points []jmath.Vec3) *Primitive {
	if len(points) < 3 {
		return p.Geometry(nil, []uint32{})
	}
	vertices := make([]jmath.Vec4, len(points))
	for i, pt := range points {
		vertices[i] = jmath.Vec4{pt[0], pt[1], pt[2], 1}
	}
	return p.Geometry(vertices, fanIndices(0, len(points), nil))
}

// Path replaces the geometry with the outline of shape, at z=0. Curves are
// flattened into line segments that deviate from them by at most tolerance.
// Each subpath becomes its own triangle fan, so subpaths must be convex.
func (p *Primitive) Path(shape curve.Shape, tolerance float64) *Primitive {
	vertices, indices := flattenElements(curve.Flatten(shape.PathElements(tolerance), tolerance))
	return p.Geometry(vertices, indices)
}

// flattenElements turns a path consisting only of MoveTo, LineTo and
// ClosePath elements into vertices and fan indices.
func flattenElements(path iter.Seq[curve.PathElement]) ([]jmath.Vec4, []uint32) {
	var (
		vertices []jmath.Vec4
		indices  = []uint32{}
		start    int
	)
	closeSubpath := func() {
		// Drop a closing point that repeats the first one.
		if n := len(vertices) - start; n > 1 && vertices[start] == vertices[len(vertices)-1] {
			vertices = vertices[:len(vertices)-1]
		}
		indices = fanIndices(start, len(vertices)-start, indices)
		start = len(vertices)
	}

	for el := range path {
		switch el.Kind {
		case curve.MoveToKind:
			closeSubpath()
			vertices = append(vertices, jmath.Vec4{el.P0.X, el.P0.Y, 0, 1})
		case curve.LineToKind:
			vertices = append(vertices, jmath.Vec4{el.P0.X, el.P0.Y, 0, 1})
		case curve.ClosePathKind:
			closeSubpath()
		default:
			panic(fmt.Sprintf("unflattened path element of kind %d", el.Kind))
		}
	}
	closeSubpath()
	return vertices, indices
}

// fanIndices appends the triangle fan over the n vertices starting at base.
func fanIndices(base, n int, dst []uint32) []uint32 {
	for i := 1; i+1 < n; i++ {
		dst = append(dst, uint32(base), uint32(base+i), uint32(base+i+1))
	}
	return dst
}
