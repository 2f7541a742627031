// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"honnef.co/go/prim"
	"honnef.co/go/prim/profiler"
	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"
)

// Every frame has a single render pass, timed by one pair of timestamps.
const (
	timestampsPerFrame = 2
	timestampBytes     = timestampsPerFrame * 8
)

// Profiler measures the CPU time spent on frames and the GPU time of their
// render pass. A nil *Profiler is valid and profiles nothing.
//
// GPU timestamps become available a few frames late, so results are
// collected in frame order once their buffers have been mapped.
type Profiler struct {
	dev *wgpu.Device
	now func() time.Time

	// frames waiting for their timestamps, oldest first
	pending []*FrameProfile
	// free list of frames, with their query sets and buffers
	free []*FrameProfile
}

func NewProfiler(dev *wgpu.Device) *Profiler {
	return &Profiler{dev: dev, now: time.Now}
}

func NewNopProfiler() *Profiler {
	return nil
}

// FrameProfile is the profile of one frame. It implements
// profiler.ProfilerGroup by recording CPU spans; the engine adds the GPU
// duration of the frame's render pass. A nil *FrameProfile is a no-op.
type FrameProfile struct {
	Frame uint64

	cpu *profiler.CPUGroup
	// whether the render pass wrote timestamps
	timed bool

	querySet   *wgpu.QuerySet
	resolveBuf *wgpu.Buffer
	mapBuf     *wgpu.Buffer
	ch         <-chan error
}

// Begin starts profiling a frame.
func (p *Profiler) Begin(frame uint64) *FrameProfile {
	if p == nil {
		return nil
	}
	var f *FrameProfile
	if n := len(p.free); n > 0 {
		f = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else {
		f = p.newFrame()
	}
	f.Frame = frame
	f.cpu = profiler.NewCPUGroup(fmt.Sprintf("frame %d", frame), p.now)
	f.timed = false
	f.ch = nil
	return f
}

func (p *Profiler) newFrame() *FrameProfile {
	return &FrameProfile{
		querySet: p.dev.CreateQuerySet(&wgpu.QuerySetDescriptor{
			Type:  wgpu.QueryTypeTimestamp,
			Count: timestampsPerFrame,
		}),
		resolveBuf: p.dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "profiler resolve",
			Usage: wgpu.BufferUsageQueryResolve | wgpu.BufferUsageCopySrc,
			Size:  timestampBytes,
		}),
		mapBuf: p.dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "profiler map",
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
			Size:  timestampBytes,
		}),
	}
}

func (f *FrameProfile) Start(label string) profiler.ProfilerGroup {
	if f == nil {
		return (*profiler.CPUGroup)(nil)
	}
	return f.cpu.Start(label)
}

func (f *FrameProfile) End() {
	if f == nil {
		return
	}
	f.cpu.End()
}

// renderPassTimestamps returns the timestamp writes for the frame's render
// pass.
func (f *FrameProfile) renderPassTimestamps() *wgpu.RenderPassTimestampWrites {
	if f == nil {
		return nil
	}
	f.timed = true
	return &wgpu.RenderPassTimestampWrites{
		QuerySet:                  f.querySet,
		BeginningOfPassWriteIndex: 0,
		EndOfPassWriteIndex:       1,
	}
}

// resolve copies the frame's timestamps into its map buffer. It has to be
// encoded after the render pass, into the same submission.
func (f *FrameProfile) resolve(enc *wgpu.CommandEncoder) {
	if f == nil || !f.timed {
		return
	}
	enc.ResolveQuerySet(f.querySet, 0, timestampsPerFrame, f.resolveBuf, 0)
	enc.CopyBufferToBuffer(f.resolveBuf, 0, f.mapBuf, 0, timestampBytes)
}

// Submitted queues a finished frame for collection. It must be called after
// the frame's commands have been submitted.
func (p *Profiler) Submitted(f *FrameProfile) {
	if p == nil || f == nil {
		return
	}
	if f.timed {
		f.ch = f.mapBuf.Map(p.dev, wgpu.MapModeRead, 0, timestampBytes)
	}
	p.pending = append(p.pending, f)
}

// Discard returns a frame that was never submitted.
func (p *Profiler) Discard(f *FrameProfile) {
	if p == nil || f == nil {
		return
	}
	f.cpu = nil
	p.free = append(p.free, f)
}

// Collect returns the profiles of all frames whose timestamps are available,
// in frame order. The GPU duration of a frame appears as a "gpu:draw" child
// of its RunRecording span, or of the frame itself if it has none.
func (p *Profiler) Collect() []*profiler.CPUGroup {
	if p == nil {
		return nil
	}
	var out []*profiler.CPUGroup
	n := 0
	for _, f := range p.pending {
		var timestamps []uint64
		if f.ch != nil {
			select {
			case err := <-f.ch:
				if err != nil {
					panic(err)
				}
			default:
				// Stop at the first frame that isn't ready so that frames
				// are returned in order.
				p.finishCollect(n)
				return out
			}
			timestamps = safeish.SliceCast[[]uint64](f.mapBuf.ReadOnlyMappedRange(0, timestampBytes))
		}
		out = append(out, frameResult(f.cpu, timestamps))
		if f.ch != nil {
			f.mapBuf.Unmap()
		}
		n++
	}
	p.finishCollect(n)
	return out
}

// finishCollect moves the first n pending frames to the free list.
func (p *Profiler) finishCollect(n int) {
	for _, f := range p.pending[:n] {
		f.cpu = nil
		f.ch = nil
		p.free = append(p.free, f)
	}
	rest := copy(p.pending, p.pending[n:])
	clear(p.pending[rest:])
	p.pending = p.pending[:rest]
}

// frameResult attaches the GPU duration described by timestamps to the CPU
// span tree of a frame. The timestamps are only read during the call.
func frameResult(cpu *profiler.CPUGroup, timestamps []uint64) *profiler.CPUGroup {
	if len(timestamps) < timestampsPerFrame || timestamps[1] < timestamps[0] {
		return cpu
	}
	parent := cpu
	for _, c := range cpu.Children {
		if c.Label == "RunRecording" {
			parent = c
			break
		}
	}
	gpu := &profiler.CPUGroup{
		Label:     "gpu:draw",
		StartTime: parent.StartTime,
		EndTime:   parent.StartTime.Add(time.Duration(timestamps[1] - timestamps[0])),
	}
	parent.Children = append(parent.Children, gpu)
	return cpu
}

// profileAttrs flattens a span tree into attributes keyed by the
// slash-separated labels of nested spans.
func profileAttrs(g *profiler.CPUGroup, prefix string, attrs []slog.Attr) []slog.Attr {
	name := g.Label
	if prefix != "" {
		name = prefix + "/" + g.Label
	}
	attrs = append(attrs, slog.Duration(name, g.Duration()))
	for _, c := range g.Children {
		attrs = profileAttrs(c, name, attrs)
	}
	return attrs
}

// Release releases the query sets and buffers of all frames, including those
// whose results were never collected.
func (p *Profiler) Release() {
	if p == nil {
		return
	}
	for _, fs := range [][]*FrameProfile{p.pending, p.free} {
		for _, f := range fs {
			f.querySet.Release()
			f.resolveBuf.Release()
			f.mapBuf.Release()
		}
	}
	*p = Profiler{dev: p.dev, now: p.now}
}

// logProfiles logs the profiles of frames that have become available.
func (eng *Engine) logProfiles() {
	var attrs []slog.Attr
	for _, g := range eng.profiler.Collect() {
		attrs = profileAttrs(g, "", attrs[:0])
		prim.Logger().LogAttrs(context.Background(), slog.LevelDebug, "frame profile", attrs...)
	}
}
