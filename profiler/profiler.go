// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package profiler defines the interface through which the renderer reports
// nested timing spans, as well as a CPU-only implementation of it.
package profiler

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProfilerGroup is a span of work that can contain nested spans. Engines
// implement it to attach GPU timestamps, so that packages like renderer don't
// need a direct dependency on wgpu.
type ProfilerGroup interface {
	Start(label string) ProfilerGroup
	End()
}

// CPUGroup measures wall-clock time only. A nil *CPUGroup is a valid no-op
// group.
type CPUGroup struct {
	Label     string
	StartTime time.Time
	EndTime   time.Time
	Children  []*CPUGroup

	now func() time.Time
}

// NewCPUGroup starts a root group. now may be nil, in which case time.Now is
// used.
func NewCPUGroup(label string, now func() time.Time) *CPUGroup {
	if now == nil {
		now = time.Now
	}
	return &CPUGroup{Label: label, StartTime: now(), now: now}
}

func (g *CPUGroup) Start(label string) ProfilerGroup {
	if g == nil {
		return (*CPUGroup)(nil)
	}
	cg := &CPUGroup{Label: label, StartTime: g.now(), now: g.now}
	g.Children = append(g.Children, cg)
	return cg
}

func (g *CPUGroup) End() {
	if g == nil {
		return
	}
	if !g.EndTime.IsZero() {
		panic("trying to end same group twice")
	}
	g.EndTime = g.now()
}

// Duration returns the time between the group's start and end, or zero if it
// hasn't ended.
func (g *CPUGroup) Duration() time.Duration {
	if g == nil || g.EndTime.IsZero() {
		return 0
	}
	return g.EndTime.Sub(g.StartTime)
}

// WriteTo writes an indented tree of labels and durations.
func (g *CPUGroup) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	var walk func(g *CPUGroup, depth int)
	walk = func(g *CPUGroup, depth int) {
		fmt.Fprintf(&sb, "%s%s: %s\n", strings.Repeat("  ", depth), g.Label, g.Duration())
		for _, c := range g.Children {
			walk(c, depth+1)
		}
	}
	if g != nil {
		walk(g, 0)
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}
