// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package shaders contains the WGSL sources of the engine's pipelines.
package shaders

import (
	_ "embed"
)

type BindType int

const (
	BufReadOnly BindType = iota + 1
	Uniform
)

type RenderShader struct {
	Name               string
	VertexEntryPoint   string
	FragmentEntryPoint string
	// Bindings of group 0, indexed by binding number.
	Bindings []BindType
	WGSL     []byte
}

//go:embed primitive.wgsl
var primitiveWGSL []byte

// Primitive draws instanced primitives. Its bindings must match the
// renderer.Binding* constants.
var Primitive = RenderShader{
	Name:               "primitive",
	VertexEntryPoint:   "vs_main",
	FragmentEntryPoint: "fs_main",
	Bindings: []BindType{
		BufReadOnly, // props
		Uniform,     // frame metadata
		BufReadOnly, // vertices
		BufReadOnly, // indices
	},
	WGSL: primitiveWGSL,
}
