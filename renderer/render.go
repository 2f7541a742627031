// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package renderer packs a list of primitives into GPU buffers and records the
// instanced draws that render them. It produces a hardware-agnostic
// [Recording]; executing it is the job of an engine such as
// engine/wgpu_engine.
package renderer

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"honnef.co/go/prim"
	"honnef.co/go/prim/jmath"
	"honnef.co/go/prim/profiler"
	"honnef.co/go/safeish"
)

type Batching int

const (
	// BatchInOrder draws objects in the order they were loaded. Consecutive
	// objects with the same number of indices share one instanced draw.
	BatchInOrder Batching = iota
	// BatchSortByTopology stably sorts objects by index count before packing,
	// so that all objects of one shape share a draw. Objects no longer draw
	// in load order, which matters for overlapping translucent primitives.
	BatchSortByTopology
)

type Options struct {
	Batching Batching
}

// ViewProjector supplies the view-projection matrix for a frame.
// *entity.Camera implements it.
type ViewProjector interface {
	ViewProj() jmath.Mat4
}

// Stats describes the work done by the most recent tick.
type Stats struct {
	Instances     int
	Draws         int
	Vertices      int
	Indices       int
	BytesWritten  uint64
	Reallocations int
}

// Renderer owns the object list and the buffers it is packed into.
//
// LoadObjects, Update, SetCamera and Tick may be called from different
// goroutines; they are serialized.
type Renderer struct {
	mu      sync.Mutex
	options Options
	objects []Object
	camera  ViewProjector

	buffers [bindingCount]BufferProxy
	meta    Meta
	packed  packed
	sorted  []Object

	recording Recording
	stats     Stats
}

func New(options Options) *Renderer {
	return &Renderer{options: options}
}

// LoadObjects replaces the object list. The renderer keeps referencing the
// objects and reads their current state on every tick.
func (r *Renderer) LoadObjects(objs ...Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = slices.Clone(objs)
}

// Update calls fn while no tick is in progress. Use it to mutate loaded
// objects from goroutines other than the one driving Tick.
func (r *Renderer) Update(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// SetCamera sets the camera whose view-projection is applied to all objects.
// A nil camera uses the identity, drawing objects directly in clip space.
func (r *Renderer) SetCamera(cam ViewProjector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.camera = cam
}

// Stats returns statistics about the most recent tick.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Tick packs the object list and records the commands that draw it.
// animTime is the accumulated animation time reported to the shader.
//
// The returned recording and the data it references remain valid until the
// next call to Tick. With no objects loaded, the recording only updates the
// frame metadata and contains no draw.
func (r *Renderer) Tick(animTime time.Duration, pgroup profiler.ProfilerGroup) *Recording {
	if pgroup != nil {
		pgroup = pgroup.Start("renderer.Tick")
		defer pgroup.End()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.recording.Reset()
	r.stats = Stats{}

	viewProj := jmath.IdentityMat()
	if r.camera != nil {
		viewProj = r.camera.ViewProj()
	}
	r.meta.Time = float32(animTime.Seconds())
	r.meta.ViewProj = jmath.Transpose(viewProj).Float32()
	r.upload(BindingMeta, "meta", BufferUsageUniform, safeish.AsBytes(&r.meta))

	if len(r.objects) == 0 {
		return &r.recording
	}

	objs := r.objects
	if r.options.Batching == BatchSortByTopology {
		r.sorted = append(r.sorted[:0], r.objects...)
		slices.SortStableFunc(r.sorted, func(a, b Object) int {
			return cmp.Compare(indexCount(a), indexCount(b))
		})
		objs = r.sorted
	}

	var packGroup profiler.ProfilerGroup
	if pgroup != nil {
		packGroup = pgroup.Start("pack")
	}
	r.packed.pack(objs)
	if packGroup != nil {
		packGroup.End()
	}

	r.upload(BindingProps, "props", BufferUsageStorage, safeish.SliceCast[[]byte](r.packed.props))
	r.upload(BindingVertices, "vertices", BufferUsageStorage, safeish.SliceCast[[]byte](r.packed.vertices))
	r.upload(BindingIndices, "indices", BufferUsageStorage, safeish.SliceCast[[]byte](r.packed.indices))

	r.stats.Instances = len(objs)
	r.stats.Vertices = len(r.packed.vertices)
	r.stats.Indices = len(r.packed.indices)
	r.stats.Draws = len(r.packed.batches)

	if len(r.packed.batches) > 0 {
		r.recording.Draw(Bindings(r.buffers), r.packed.batches)
	}
	prim.Logger().Debug("recorded frame",
		"instances", r.stats.Instances,
		"draws", r.stats.Draws,
		"bytes", r.stats.BytesWritten)
	return &r.recording
}

// upload writes data to one of the renderer's buffers, replacing the buffer
// first if its size has to change. Sizes are rounded up to bufferAlignment
// and the padding is zeroed.
func (r *Renderer) upload(binding int, name string, usage BufferUsage, data []byte) {
	size := max(jmath.AlignUp(uint64(len(data)), bufferAlignment), bufferAlignment)
	if pad := int(size) - len(data); pad > 0 {
		data = append(data[:len(data):len(data)], make([]byte, pad)...)
	}

	buf := &r.buffers[binding]
	if buf.Size != size {
		if buf.ID != 0 {
			r.recording.FreeBuffer(*buf)
		}
		*buf = NewBufferProxy(size, name, usage)
		r.recording.CreateBuffer(*buf)
		r.stats.Reallocations++
		prim.Logger().Debug("reallocated buffer", "name", name, "size", size)
	}
	r.recording.WriteBuffer(*buf, data)
	r.stats.BytesWritten += size
}

func indexCount(obj Object) int {
	if idx := obj.Indices(); idx != nil {
		return len(idx)
	}
	return len(obj.Vertices())
}

// Buffer returns the proxy of the buffer currently bound at binding. It has a
// zero ID before the first tick that needed it.
func (r *Renderer) Buffer(binding int) BufferProxy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffers[binding]
}
