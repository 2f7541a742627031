// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command primstat renders a scene file offscreen, without a GPU, and
// reports how the renderer batches and uploads it.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"honnef.co/go/prim"
	"honnef.co/go/prim/frame"
	"honnef.co/go/prim/profiler"
	"honnef.co/go/prim/renderer"
	"honnef.co/go/prim/scenefile"
)

type surface struct{ width, height uint32 }

func (s surface) Size() (uint32, uint32) { return s.width, s.height }

type report struct {
	Frames        int
	Polls         int
	AnimTime      time.Duration
	Draws         int
	Instances     int
	BytesWritten  uint64
	Reallocations int
	// Stats of the last frame.
	Last renderer.Stats
}

func (r *report) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"frames:         %d (%d polls)\n"+
			"animation time: %s\n"+
			"instances:      %d (%d in the last frame)\n"+
			"draw calls:     %d (%d in the last frame)\n"+
			"bytes written:  %d (%d in the last frame)\n"+
			"reallocations:  %d\n",
		r.Frames, r.Polls,
		r.AnimTime,
		r.Instances, r.Last.Instances,
		r.Draws, r.Last.Draws,
		r.BytesWritten, r.Last.BytesWritten,
		r.Reallocations)
	return int64(n), err
}

type options struct {
	frames   int
	fps      int
	vsync    time.Duration
	progress io.Writer
	profile  io.Writer
}

// simulate drives the scene through a scheduler polled at the given vsync
// interval until the requested number of frames has been rendered.
func simulate(scene *scenefile.Scene, opts options) (*report, error) {
	batching, err := scene.BatchMode()
	if err != nil {
		return nil, err
	}
	inst, err := scene.Build(surface{scene.Viewport[0], scene.Viewport[1]})
	if err != nil {
		return nil, err
	}

	r := renderer.New(renderer.Options{Batching: batching})
	r.LoadObjects(inst.Objects()...)
	if inst.Camera != nil {
		r.SetCamera(inst.Camera)
	}

	var pb *progressbar.ProgressBar
	if opts.progress != nil {
		pb = progressbar.NewOptions(opts.frames,
			progressbar.OptionSetWriter(opts.progress),
			progressbar.OptionSetDescription("rendering"),
			progressbar.OptionShowCount())
		defer pb.Close()
	}

	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	rep := &report{}
	var prevAnim time.Duration
	sched := frame.NewScheduler(opts.fps, func(animTime time.Duration) error {
		r.Update(func() { inst.Animator.Update(animTime - prevAnim) })
		prevAnim = animTime

		root := profiler.NewCPUGroup(fmt.Sprintf("frame %d", rep.Frames), clock)
		rec := r.Tick(animTime, root)
		root.End()
		if opts.profile != nil {
			if _, err := root.WriteTo(opts.profile); err != nil {
				return err
			}
		}

		stats := r.Stats()
		if rec.Draws() != stats.Draws {
			return fmt.Errorf("recording has %d draws, renderer reports %d", rec.Draws(), stats.Draws)
		}
		rep.Frames++
		rep.Draws += stats.Draws
		rep.Instances += stats.Instances
		rep.BytesWritten += stats.BytesWritten
		rep.Reallocations += stats.Reallocations
		rep.Last = stats
		if pb != nil {
			pb.Add(1)
		}
		return nil
	})
	sched.Reset(now)

	for rep.Frames < opts.frames {
		now = now.Add(opts.vsync)
		rep.Polls++
		if _, err := sched.Poll(now); err != nil {
			return nil, err
		}
	}
	rep.AnimTime = sched.AnimTime()
	return rep, nil
}

func main() {
	var (
		frames  int
		fps     int
		vsync   time.Duration
		verbose bool
		quiet   bool
		profile bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <scene.yaml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.IntVar(&frames, "frames", 600, "Number of `frames` to render")
	flag.IntVar(&fps, "fps", 0, "Target frame rate, overriding the scene's")
	flag.DurationVar(&vsync, "vsync", time.Second/240, "Simulated vsync `interval`")
	flag.BoolVar(&verbose, "v", false, "Log debug output")
	flag.BoolVar(&quiet, "q", false, "Don't show progress")
	flag.BoolVar(&profile, "profile", false, "Print CPU timings of every frame")
	flag.Parse()

	if flag.NArg() != 1 || frames <= 0 || vsync <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f, v...)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	if verbose {
		prim.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	scene, err := scenefile.Load(flag.Arg(0))
	if err != nil {
		dief("Couldn't load scene: %s", err)
	}
	if fps == 0 {
		fps = scene.FPS
	}

	opts := options{
		frames: frames,
		fps:    fps,
		vsync:  vsync,
	}
	if !quiet && !verbose {
		opts.progress = os.Stderr
	}
	if profile {
		opts.profile = os.Stdout
	}
	rep, err := simulate(scene, opts)
	if err != nil {
		dief("Couldn't render scene: %s", err)
	}
	if opts.progress != nil {
		fmt.Fprintln(os.Stderr)
	}
	rep.WriteTo(os.Stdout)
}
