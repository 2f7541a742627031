// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

import (
	"fmt"
	"math"
	"math/bits"

	"honnef.co/go/prim"
	"honnef.co/go/prim/engine/wgpu_engine/shaders"
	"honnef.co/go/prim/frame"
	"honnef.co/go/prim/renderer"
	"honnef.co/go/wgpu"
)

type Engine struct {
	Device *wgpu.Device
	queue  *wgpu.Queue
	format wgpu.TextureFormat

	options  Options
	renderer *renderer.Renderer
	surface  Context
	sched    *frame.Scheduler
	profiler *Profiler
	frames   uint64

	pipeline *primitivePipeline
	pool     resourcePool
	bufs     map[renderer.ResourceID]*wgpu.Buffer

	// The bind group only changes when the renderer replaces one of its
	// buffers.
	bindGroup    *wgpu.BindGroup
	bindGroupFor renderer.Bindings
}

type primitivePipeline struct {
	BindLayout *wgpu.BindGroupLayout
	Layout     *wgpu.PipelineLayout
	Pipeline   *wgpu.RenderPipeline
}

type bufferProperties struct {
	size   uint64
	usages wgpu.BufferUsage
}

type resourcePool struct {
	bufs map[bufferProperties][]*wgpu.Buffer
}

// New creates an engine for an existing device. It has no surface: only
// RunRecording and the object methods are usable, and Run, Poll and
// RenderFrame return ErrNoSurface. Most users want Start instead, which also
// sets up the frame loop.
func New(dev *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, options Options) *Engine {
	eng := &Engine{
		Device:  dev,
		queue:   queue,
		format:  format,
		options: options,
		renderer: renderer.New(renderer.Options{
			Batching: options.Batching,
		}),
		pool: resourcePool{
			bufs: make(map[bufferProperties][]*wgpu.Buffer),
		},
		bufs: make(map[renderer.ResourceID]*wgpu.Buffer),
	}
	if options.Profile {
		eng.profiler = NewProfiler(dev)
	} else {
		eng.profiler = NewNopProfiler()
	}
	eng.pipeline = newPrimitivePipeline(dev, format, &shaders.Primitive)
	prim.Logger().Info("built pipeline", "shader", shaders.Primitive.Name)
	return eng
}

func bindGroupLayoutEntries(bindings []shaders.BindType) []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
	for i, bindType := range bindings {
		var typ wgpu.BufferBindingType
		switch bindType {
		case shaders.BufReadOnly:
			typ = wgpu.BufferBindingTypeReadOnlyStorage
		case shaders.Uniform:
			typ = wgpu.BufferBindingTypeUniform
		default:
			panic(fmt.Sprintf("invalid bind type %d", bindType))
		}
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: &wgpu.BufferBindingLayout{
				Type:             typ,
				HasDynamicOffset: false,
				MinBindingSize:   0,
			},
		}
	}
	return entries
}

func newPrimitivePipeline(dev *wgpu.Device, format wgpu.TextureFormat, shader *shaders.RenderShader) *primitivePipeline {
	if len(shader.WGSL) == 0 {
		panic(fmt.Sprintf("shader %q has no code", shader.Name))
	}
	module := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  shader.Name,
		Source: wgpu.ShaderSourceWGSL(shader.WGSL),
	})
	defer module.Release()
	bindLayout := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: bindGroupLayoutEntries(shader.Bindings),
	})
	pipelineLayout := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "primitive pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	pipeline := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "primitive pipeline",
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     module,
			EntryPoint: shader.VertexEntryPoint,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: shader.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			// Shape builders don't agree on a winding order.
			CullMode: wgpu.CullModeNone,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	return &primitivePipeline{
		BindLayout: bindLayout,
		Layout:     pipelineLayout,
		Pipeline:   pipeline,
	}
}

func bufferUsageToWGPU(usage renderer.BufferUsage) wgpu.BufferUsage {
	switch usage {
	case renderer.BufferUsageStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	case renderer.BufferUsageUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		panic(fmt.Sprintf("unhandled value %d", usage))
	}
}

// RunRecording executes a recording, drawing into view. The view is cleared
// even if the recording contains no draw.
func (eng *Engine) RunRecording(
	queue *wgpu.Queue,
	recording *renderer.Recording,
	view *wgpu.TextureView,
	prof *FrameProfile,
) {
	pgroup := prof.Start("RunRecording")
	defer pgroup.End()

	var draw *renderer.Draw
	var freed []renderer.ResourceID
	for _, cmd := range recording.Commands {
		switch cmd := cmd.(type) {
		case *renderer.CreateBuffer:
			proxy := cmd.Buffer
			if _, ok := eng.bufs[proxy.ID]; ok {
				panic(fmt.Sprintf("buffer %d created twice", proxy.ID))
			}
			eng.bufs[proxy.ID] = eng.pool.getBuf(proxy.Size, proxy.Name, bufferUsageToWGPU(proxy.Usage), eng.Device)

		case *renderer.WriteBuffer:
			buf, ok := eng.bufs[cmd.Buffer.ID]
			if !ok {
				panic(fmt.Sprintf("tried writing to unavailable buffer %q", cmd.Buffer.Name))
			}
			queue.WriteBuffer(buf, 0, cmd.Data)

		case *renderer.FreeBuffer:
			// Buffers stay alive until the frame has been submitted; the
			// recording may still reference them.
			freed = append(freed, cmd.Buffer.ID)

		case *renderer.Draw:
			draw = cmd

		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}

	encoder := eng.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "primitives"})
	defer encoder.Release()
	// Frames are presented with premultiplied alpha.
	c := eng.options.ClearColor.Premul()
	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
			},
		},
		TimestampWrites: prof.renderPassTimestamps(),
	})
	if draw != nil {
		renderPass.SetPipeline(eng.pipeline.Pipeline)
		renderPass.SetBindGroup(0, eng.getBindGroup(draw.Bindings), nil)
		for _, batch := range draw.Batches {
			renderPass.Draw(batch.IndexCount, batch.InstanceCount, 0, batch.FirstInstance)
		}
	}
	renderPass.End()
	renderPass.Release()
	prof.resolve(encoder)

	cmd := encoder.Finish(nil)
	queue.Submit(cmd)
	cmd.Release()
	eng.profiler.Submitted(prof)

	for _, id := range freed {
		buf, ok := eng.bufs[id]
		if !ok {
			continue
		}
		delete(eng.bufs, id)
		eng.pool.putBuf(buf)
	}
}

func (eng *Engine) getBindGroup(bindings renderer.Bindings) *wgpu.BindGroup {
	if eng.bindGroup != nil && eng.bindGroupFor == bindings {
		return eng.bindGroup
	}
	if eng.bindGroup != nil {
		eng.bindGroup.Release()
	}

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, proxy := range bindings {
		buf, ok := eng.bufs[proxy.ID]
		if !ok {
			panic(fmt.Sprintf("tried binding unavailable buffer %q", proxy.Name))
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  buf,
			Size:    ^uint64(0),
		}
	}
	eng.bindGroup = eng.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  eng.pipeline.BindLayout,
		Entries: entries,
	})
	eng.bindGroupFor = bindings
	return eng.bindGroup
}

// Release releases all GPU resources owned by the engine. The device itself
// belongs to the context.
func (eng *Engine) Release() {
	if eng.bindGroup != nil {
		eng.bindGroup.Release()
		eng.bindGroup = nil
	}
	for id, buf := range eng.bufs {
		buf.Release()
		delete(eng.bufs, id)
	}
	eng.pool.release()
	eng.profiler.Release()
	eng.pipeline.Pipeline.Release()
	eng.pipeline.Layout.Release()
	eng.pipeline.BindLayout.Release()
}

func (pool *resourcePool) getBuf(
	size uint64,
	name string,
	usage wgpu.BufferUsage,
	dev *wgpu.Device,
) *wgpu.Buffer {
	const sizeClassBits = 1

	roundedSize := poolSizeClass(size, sizeClassBits)
	props := bufferProperties{
		size:   roundedSize,
		usages: usage,
	}
	if bufVec, ok := pool.bufs[props]; ok {
		if len(bufVec) > 0 {
			buf := bufVec[len(bufVec)-1]
			bufVec = bufVec[:len(bufVec)-1]
			pool.bufs[props] = bufVec
			return buf
		}
	}
	return dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  roundedSize,
		Usage: usage,
	})
}

func (pool *resourcePool) putBuf(buf *wgpu.Buffer) {
	props := bufferProperties{
		size:   buf.Size(),
		usages: buf.Usage(),
	}
	pool.bufs[props] = append(pool.bufs[props], buf)
}

func (pool *resourcePool) release() {
	for props, bufs := range pool.bufs {
		for _, buf := range bufs {
			buf.Release()
		}
		delete(pool.bufs, props)
	}
}

// poolSizeClass rounds x up to a size class. Size classes are powers of two
// subdivided into 2^numBits steps, so that buffers of similar size can be
// reused for one another.
func poolSizeClass(x uint64, numBits uint32) uint64 {
	if x > 1<<numBits {
		a := bits.LeadingZeros64(x - 1)
		b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
		return b + 1
	} else {
		return 1 << numBits
	}
}
