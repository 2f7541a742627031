// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package wgpu_engine executes renderer recordings with WebGPU and drives the
// frame loop that produces them.
package wgpu_engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"honnef.co/go/prim"
	"honnef.co/go/prim/frame"
	"honnef.co/go/prim/gfx"
	"honnef.co/go/prim/renderer"
	"honnef.co/go/wgpu"
)

// ErrUnsupported is returned by Start when no usable graphics device could be
// acquired.
var ErrUnsupported = errors.New("WebGPU is not supported")

// ErrNoSurface is returned by the frame loop of engines created with New,
// which can only execute recordings.
var ErrNoSurface = errors.New("engine has no surface")

// Context is the host's rendering surface. It is responsible for acquiring
// the device and for the swapchain; the engine only draws into the textures
// it hands out.
type Context interface {
	AcquireDevice(ctx context.Context) (*wgpu.Device, *wgpu.Queue, error)
	// Configure prepares the surface for presenting frames of the given
	// format rendered by dev.
	Configure(dev *wgpu.Device, format wgpu.TextureFormat) error
	SurfaceFormat() wgpu.TextureFormat
	CurrentFrameTexture() (*wgpu.SurfaceTexture, error)
	Present()
	// Size returns the surface's current size in pixels.
	Size() (width, height uint32)
}

type Options struct {
	// SurfaceFormat overrides the format reported by the context.
	SurfaceFormat wgpu.TextureFormat
	// TargetFPS caps the frame rate of Run. It defaults to frame.DefaultFPS.
	TargetFPS  int
	ClearColor gfx.Color
	Batching   renderer.Batching
	// Profile enables GPU timestamp queries. Results are logged at debug
	// level.
	Profile bool
}

// Start acquires a device from the context and prepares the pipeline. The
// returned engine has no objects loaded.
func Start(ctx context.Context, surface Context, options Options) (*Engine, error) {
	dev, queue, err := surface.AcquireDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring device: %w", ErrUnsupported, err)
	}
	if dev == nil || queue == nil {
		return nil, fmt.Errorf("%w: no device", ErrUnsupported)
	}
	format := options.SurfaceFormat
	if format == 0 {
		format = surface.SurfaceFormat()
	}
	if err := surface.Configure(dev, format); err != nil {
		return nil, fmt.Errorf("%w: configuring surface: %w", ErrUnsupported, err)
	}
	prim.Logger().Info("acquired device", "format", format)

	eng := New(dev, queue, format, options)
	eng.surface = surface
	eng.sched = frame.NewScheduler(options.TargetFPS, eng.RenderFrame)
	return eng, nil
}

// Run renders frames at the target frame rate until ctx is cancelled or a
// frame fails.
func (eng *Engine) Run(ctx context.Context) error {
	if eng.sched == nil {
		return ErrNoSurface
	}
	err := eng.sched.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Poll renders a frame if one is due. Hosts with their own vsync callback use
// it instead of Run.
func (eng *Engine) Poll(now time.Time) error {
	if eng.sched == nil {
		return ErrNoSurface
	}
	_, err := eng.sched.Poll(now)
	return err
}

// LoadObjects replaces the list of objects drawn every frame.
func (eng *Engine) LoadObjects(objs ...renderer.Object) {
	eng.renderer.LoadObjects(objs...)
}

// Update calls fn between frames.
func (eng *Engine) Update(fn func()) {
	eng.renderer.Update(fn)
}

func (eng *Engine) SetCamera(cam renderer.ViewProjector) {
	eng.renderer.SetCamera(cam)
}

func (eng *Engine) Stats() renderer.Stats {
	return eng.renderer.Stats()
}

// RenderFrame draws the loaded objects into the context's current frame
// texture and presents it.
func (eng *Engine) RenderFrame(animTime time.Duration) error {
	if eng.surface == nil {
		return ErrNoSurface
	}
	prof := eng.profiler.Begin(eng.frames)
	eng.frames++

	surface, err := eng.surface.CurrentFrameTexture()
	if err != nil {
		prof.End()
		eng.profiler.Discard(prof)
		return fmt.Errorf("acquiring frame texture: %w", err)
	}
	view := surface.Texture.CreateView(nil)
	defer view.Release()

	recording := eng.renderer.Tick(animTime, prof)
	eng.RunRecording(eng.queue, recording, view, prof)
	prof.End()
	eng.logProfiles()
	eng.surface.Present()
	return nil
}
