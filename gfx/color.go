// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package gfx contains the color representation shared by entities, the
// renderer and the GPU engine.
package gfx

import (
	"honnef.co/go/color"
)

// Color is a straight (not premultiplied) RGBA color in linear sRGB, laid out
// the way the shader reads a vec4f.
type Color [4]float32

// Transparent is the zero Color, fully transparent black.
var Transparent = Color{}

func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// FromColor converts c to linear sRGB.
func FromColor(c *color.Color) Color {
	cc := c.Convert(color.LinearSRGB)
	return Color{
		float32(cc.Values[0]),
		float32(cc.Values[1]),
		float32(cc.Values[2]),
		float32(cc.Values[3]),
	}
}

func (c Color) Premul() Color {
	a := c[3]
	return Color{c[0] * a, c[1] * a, c[2] * a, a}
}
