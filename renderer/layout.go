// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"structs"
	"unsafe"
)

// Binding numbers of the primitive shader's bind group. These must be kept in
// sync with engine/wgpu_engine/shaders/primitive.wgsl.
const (
	BindingProps = iota
	BindingMeta
	BindingVertices
	BindingIndices

	bindingCount
)

// Props is the per-instance record read by the vertex shader.
//
// This data structure must be kept in sync with the definition of `Props` in
// primitive.wgsl.
type Props struct {
	_ structs.HostLayout

	Color [4]float32
	// Column-major, as WGSL expects.
	Transform [16]float32
	// Offset of the instance's first vertex in the vertex buffer.
	VertexBase uint32
	// Offset of the instance's first index in the index buffer. Indices are
	// relative to VertexBase.
	IndexBase uint32
	_         [2]uint32 // padding
}

// Meta contains per-frame uniform data.
//
// This data structure must be kept in sync with the definition of
// `FrameMeta` in primitive.wgsl.
type Meta struct {
	_ structs.HostLayout

	// Accumulated animation time in seconds.
	Time float32
	_    [3]float32 // padding
	// Column-major view-projection matrix; the identity when no camera is
	// set.
	ViewProj [16]float32
}

const (
	propsSize  = uint64(unsafe.Sizeof(Props{}))
	metaSize   = uint64(unsafe.Sizeof(Meta{}))
	vertexSize = uint64(unsafe.Sizeof([4]float32{}))
	indexSize  = uint64(unsafe.Sizeof(uint32(0)))
)

// bufferAlignment is the granularity of buffer sizes. It also keeps bound
// buffers from ever being empty.
const bufferAlignment = 16
