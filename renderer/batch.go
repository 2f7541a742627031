// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"honnef.co/go/prim/gfx"
	"honnef.co/go/prim/jmath"
)

// Object is anything the renderer can draw. *entity.Primitive implements it.
type Object interface {
	Vertices() []jmath.Vec4
	// Indices returns triangle indices into Vertices. A nil slice draws the
	// vertices in order.
	Indices() []uint32
	Color() gfx.Color
	Transform() jmath.Mat4
}

// packed holds the CPU-side contents of the vertex, index and props buffers
// for one frame. Its slices are reused across frames.
type packed struct {
	vertices [][4]float32
	indices  []uint32
	props    []Props
	batches  []Batch
}

func (p *packed) reset() {
	p.vertices = p.vertices[:0]
	p.indices = p.indices[:0]
	p.props = p.props[:0]
	p.batches = p.batches[:0]
}

// pack concatenates the geometry and per-instance data of objs, in order, and
// splits them into batches of consecutive objects with equal index counts.
func (p *packed) pack(objs []Object) {
	p.reset()
	for _, obj := range objs {
		vertices := obj.Vertices()
		indices := obj.Indices()

		props := Props{
			Color:      obj.Color(),
			Transform:  jmath.Transpose(obj.Transform()).Float32(),
			VertexBase: uint32(len(p.vertices)),
			IndexBase:  uint32(len(p.indices)),
		}
		for _, v := range vertices {
			p.vertices = append(p.vertices, v.Float32())
		}
		var indexCount int
		if indices == nil {
			for i := range vertices {
				p.indices = append(p.indices, uint32(i))
			}
			indexCount = len(vertices)
		} else {
			p.indices = append(p.indices, indices...)
			indexCount = len(indices)
		}
		p.addInstance(uint32(len(p.props)), uint32(indexCount))
		p.props = append(p.props, props)
	}
}

// addInstance extends the current batch if it has the same index count and
// starts a new one otherwise. Instances without indices draw nothing and are
// left out of all batches.
func (p *packed) addInstance(instance, indexCount uint32) {
	if indexCount == 0 {
		return
	}
	if n := len(p.batches); n > 0 {
		last := &p.batches[n-1]
		if last.IndexCount == indexCount && last.FirstInstance+last.InstanceCount == instance {
			last.InstanceCount++
			return
		}
	}
	p.batches = append(p.batches, Batch{
		IndexCount:    indexCount,
		InstanceCount: 1,
		FirstInstance: instance,
	})
}
