// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package prim draws large numbers of independently transformed colored
// polygons with as few GPU draw calls as possible.
//
// Primitives are built with package entity, packed into GPU buffers by
// package renderer, paced by package frame and executed on a wgpu device by
// package engine/wgpu_engine. This package only holds the shared logger.
package prim
