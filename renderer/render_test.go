// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"slices"
	"testing"
	"time"

	"honnef.co/go/prim/entity"
	"honnef.co/go/prim/gfx"
	"honnef.co/go/prim/jmath"
	"honnef.co/go/prim/profiler"
	"honnef.co/go/safeish"
)

func rect() *entity.Primitive {
	return entity.NewPrimitive().Fill(gfx.RGBA(0, 1, 0, 1)).Rect(0.5, 0.5)
}

func commandsOf[T Command](rec *Recording) []T {
	var out []T
	for _, cmd := range rec.Commands {
		if c, ok := cmd.(T); ok {
			out = append(out, c)
		}
	}
	return out
}

func writeFor(t *testing.T, rec *Recording, name string) *WriteBuffer {
	t.Helper()
	for _, w := range commandsOf[*WriteBuffer](rec) {
		if w.Buffer.Name == name {
			return w
		}
	}
	t.Fatalf("no write to %q", name)
	return nil
}

func TestTwoRects(t *testing.T) {
	a := rect().Translate(-0.5, 0, 0)
	b := rect().Translate(0.5, 0, 0)
	r := New(Options{})
	r.LoadObjects(a, b)
	rec := r.Tick(0, nil)

	draws := commandsOf[*Draw](rec)
	if len(draws) != 1 {
		t.Fatalf("got %d draw commands, want 1", len(draws))
	}
	want := []Batch{{IndexCount: 6, InstanceCount: 2, FirstInstance: 0}}
	if !slices.Equal(draws[0].Batches, want) {
		t.Errorf("batches = %v, want %v", draws[0].Batches, want)
	}

	vertices := safeish.SliceCast[[][4]float32](writeFor(t, rec, "vertices").Data)
	if len(vertices) != 8 {
		t.Fatalf("got %d vertices, want 8", len(vertices))
	}
	for i, v := range vertices {
		if want := a.Vertices()[i%4].Float32(); v != want {
			t.Errorf("vertex %d = %v, want %v", i, v, want)
		}
	}

	indices := safeish.SliceCast[[]uint32](writeFor(t, rec, "indices").Data)
	if want := []uint32{0, 1, 2, 2, 1, 3, 0, 1, 2, 2, 1, 3}; !slices.Equal(indices, want) {
		t.Errorf("indices = %v, want %v", indices, want)
	}

	props := safeish.SliceCast[[]Props](writeFor(t, rec, "props").Data)
	if len(props) != 2 {
		t.Fatalf("got %d props, want 2", len(props))
	}
	for i, obj := range []*entity.Primitive{a, b} {
		p := props[i]
		if p.Color != obj.Color() {
			t.Errorf("props[%d].Color = %v, want %v", i, p.Color, obj.Color())
		}
		if want := jmath.Transpose(obj.Transform()).Float32(); p.Transform != want {
			t.Errorf("props[%d].Transform = %v, want %v", i, p.Transform, want)
		}
		if p.VertexBase != uint32(4*i) || p.IndexBase != uint32(6*i) {
			t.Errorf("props[%d] bases = %d, %d", i, p.VertexBase, p.IndexBase)
		}
	}

	if got := r.Stats(); got.Instances != 2 || got.Draws != 1 || got.Vertices != 8 || got.Indices != 12 {
		t.Errorf("Stats() = %+v", got)
	}
}

func TestPropsSize(t *testing.T) {
	if propsSize != 96 {
		t.Errorf("props record is %d bytes, want 96", propsSize)
	}
	if metaSize != 80 {
		t.Errorf("meta record is %d bytes, want 80", metaSize)
	}
}

func TestEmptyList(t *testing.T) {
	r := New(Options{})
	rec := r.Tick(time.Second, nil)
	if rec.Draws() != 0 {
		t.Errorf("got %d draws, want 0", rec.Draws())
	}
	writes := commandsOf[*WriteBuffer](rec)
	if len(writes) != 1 || writes[0].Buffer.Name != "meta" {
		t.Fatalf("writes = %v, want a single meta write", writes)
	}
	meta := safeish.SliceCast[[]Meta](writes[0].Data)[0]
	if meta.Time != 1 {
		t.Errorf("meta time = %v, want 1", meta.Time)
	}
	if meta.ViewProj != jmath.IdentityMat().Float32() {
		t.Errorf("meta view-projection = %v, want identity", meta.ViewProj)
	}

	// Going back to an empty list after drawing is fine, too.
	r.LoadObjects(rect())
	r.Tick(0, nil)
	r.LoadObjects()
	if rec := r.Tick(0, nil); rec.Draws() != 0 {
		t.Errorf("got %d draws after emptying the list, want 0", rec.Draws())
	}
}

func TestBufferReuse(t *testing.T) {
	r := New(Options{})
	r.LoadObjects(rect(), rect())

	rec := r.Tick(0, nil)
	if n := len(commandsOf[*CreateBuffer](rec)); n != bindingCount {
		t.Fatalf("first tick created %d buffers, want %d", n, bindingCount)
	}
	first := r.Buffer(BindingVertices)

	// Same sizes: contents are overwritten in place.
	rec = r.Tick(0, nil)
	if n := len(commandsOf[*CreateBuffer](rec)); n != 0 {
		t.Errorf("second tick created %d buffers, want 0", n)
	}
	if n := len(commandsOf[*FreeBuffer](rec)); n != 0 {
		t.Errorf("second tick freed %d buffers, want 0", n)
	}
	if r.Buffer(BindingVertices) != first {
		t.Errorf("vertex buffer changed without a size change")
	}
	if r.Stats().Reallocations != 0 {
		t.Errorf("Stats().Reallocations = %d, want 0", r.Stats().Reallocations)
	}

	// A third rectangle changes the size of all geometry buffers.
	r.LoadObjects(rect(), rect(), rect())
	rec = r.Tick(0, nil)
	freed := commandsOf[*FreeBuffer](rec)
	created := commandsOf[*CreateBuffer](rec)
	if len(freed) != 3 || len(created) != 3 {
		t.Fatalf("freed %d and created %d buffers, want 3 each", len(freed), len(created))
	}
	var freedVertices bool
	for _, f := range freed {
		if f.Buffer == first {
			freedVertices = true
		}
	}
	if !freedVertices {
		t.Error("old vertex buffer was not freed")
	}
	if got := r.Buffer(BindingVertices); got.ID == first.ID || got.Size != 3*4*vertexSize {
		t.Errorf("vertex buffer = %+v after growing", got)
	}
}

func TestBufferAlignment(t *testing.T) {
	r := New(Options{})
	// 5 indices would be 20 bytes.
	p := entity.NewPrimitive().Geometry(make([]jmath.Vec4, 5), []uint32{0, 1, 2, 3, 4})
	r.LoadObjects(p)
	rec := r.Tick(0, nil)
	w := writeFor(t, rec, "indices")
	if len(w.Data) != 32 || w.Buffer.Size != 32 {
		t.Fatalf("index write has %d bytes into a %d byte buffer, want 32", len(w.Data), w.Buffer.Size)
	}
	if !slices.Equal(w.Data[20:], make([]byte, 12)) {
		t.Errorf("padding is not zeroed: %v", w.Data[20:])
	}
}

func TestRunGrouping(t *testing.T) {
	circle := entity.NewPrimitive().Circle(0.25, 0)
	r := New(Options{})
	r.LoadObjects(rect(), rect(), circle, rect())
	rec := r.Tick(0, nil)

	draw := commandsOf[*Draw](rec)[0]
	want := []Batch{
		{IndexCount: 6, InstanceCount: 2, FirstInstance: 0},
		{IndexCount: 3 * entity.CircleSegments, InstanceCount: 1, FirstInstance: 2},
		{IndexCount: 6, InstanceCount: 1, FirstInstance: 3},
	}
	if !slices.Equal(draw.Batches, want) {
		t.Errorf("batches = %v, want %v", draw.Batches, want)
	}
	if rec.Draws() != 3 {
		t.Errorf("Draws() = %d, want 3", rec.Draws())
	}

	props := safeish.SliceCast[[]Props](writeFor(t, rec, "props").Data)
	if got, want := props[3].VertexBase, uint32(8+3*entity.CircleSegments); got != want {
		t.Errorf("last rectangle's vertex base = %d, want %d", got, want)
	}
	if got, want := props[3].IndexBase, uint32(12+3*entity.CircleSegments); got != want {
		t.Errorf("last rectangle's index base = %d, want %d", got, want)
	}
}

func TestSortByTopology(t *testing.T) {
	circle := entity.NewPrimitive().Circle(0.25, 0)
	r := New(Options{Batching: BatchSortByTopology})
	r.LoadObjects(circle, rect(), circle, rect())
	rec := r.Tick(0, nil)

	want := []Batch{
		{IndexCount: 6, InstanceCount: 2, FirstInstance: 0},
		{IndexCount: 3 * entity.CircleSegments, InstanceCount: 2, FirstInstance: 2},
	}
	if got := commandsOf[*Draw](rec)[0].Batches; !slices.Equal(got, want) {
		t.Errorf("batches = %v, want %v", got, want)
	}
}

func TestZeroIndexObjectsSkipped(t *testing.T) {
	empty := entity.NewPrimitive().Polygon(nil)
	r := New(Options{})
	r.LoadObjects(rect(), empty, rect())
	rec := r.Tick(0, nil)

	want := []Batch{
		{IndexCount: 6, InstanceCount: 1, FirstInstance: 0},
		{IndexCount: 6, InstanceCount: 1, FirstInstance: 2},
	}
	if got := commandsOf[*Draw](rec)[0].Batches; !slices.Equal(got, want) {
		t.Errorf("batches = %v, want %v", got, want)
	}
}

type flatObject struct {
	vertices []jmath.Vec4
}

func (o flatObject) Vertices() []jmath.Vec4 { return o.vertices }
func (flatObject) Indices() []uint32         { return nil }
func (flatObject) Color() gfx.Color          { return gfx.RGBA(1, 0, 0, 1) }
func (flatObject) Transform() jmath.Mat4     { return jmath.IdentityMat() }

func TestNilIndicesAreSequential(t *testing.T) {
	r := New(Options{})
	r.LoadObjects(flatObject{make([]jmath.Vec4, 3)}, flatObject{make([]jmath.Vec4, 3)})
	rec := r.Tick(0, nil)

	indices := safeish.SliceCast[[]uint32](writeFor(t, rec, "indices").Data)
	if want := []uint32{0, 1, 2, 0, 1, 2, 0, 0}; !slices.Equal(indices, want) {
		t.Errorf("indices = %v, want %v", indices, want)
	}
	want := []Batch{{IndexCount: 3, InstanceCount: 2}}
	if got := commandsOf[*Draw](rec)[0].Batches; !slices.Equal(got, want) {
		t.Errorf("batches = %v, want %v", got, want)
	}
}

type fixedCamera jmath.Mat4

func (c fixedCamera) ViewProj() jmath.Mat4 { return jmath.Mat4(c) }

func TestCameraMeta(t *testing.T) {
	m := jmath.TransMat(1, 2, 3)
	r := New(Options{})
	r.SetCamera(fixedCamera(m))
	rec := r.Tick(500*time.Millisecond, nil)

	meta := safeish.SliceCast[[]Meta](writeFor(t, rec, "meta").Data)[0]
	if meta.Time != 0.5 {
		t.Errorf("meta time = %v, want 0.5", meta.Time)
	}
	// Column-major: the translation ends up in elements 12 through 14.
	if got := [3]float32(meta.ViewProj[12:15]); got != [3]float32{1, 2, 3} {
		t.Errorf("translation column = %v, want 1, 2, 3", got)
	}
}

func TestUpdateSeesMutations(t *testing.T) {
	p := rect()
	r := New(Options{})
	r.LoadObjects(p)
	r.Tick(0, nil)

	r.Update(func() { p.Translate(1, 0, 0) })
	rec := r.Tick(0, nil)
	props := safeish.SliceCast[[]Props](writeFor(t, rec, "props").Data)
	if props[0].Transform[12] != 1 {
		t.Errorf("props transform = %v, want x translation of 1", props[0].Transform)
	}
}

func TestTickProfiling(t *testing.T) {
	r := New(Options{})
	r.LoadObjects(rect())
	root := profiler.NewCPUGroup("frame", nil)
	r.Tick(0, root)
	root.End()
	if len(root.Children) != 1 || root.Children[0].Label != "renderer.Tick" {
		t.Fatalf("children = %v", root.Children)
	}
	if c := root.Children[0].Children; len(c) != 1 || c[0].Label != "pack" {
		t.Errorf("tick children = %v", c)
	}
}
