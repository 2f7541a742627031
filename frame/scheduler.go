// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package frame caps the rate at which frames are rendered.
package frame

import (
	"context"
	"fmt"
	"time"

	"honnef.co/go/prim"
)

// DefaultFPS is the frame rate used when a non-positive target is given.
const DefaultFPS = 120

// TickFunc renders one frame. animTime is the total time accumulated over all
// ticks so far.
type TickFunc func(animTime time.Duration) error

// Scheduler invokes a TickFunc at most once per frame interval. It can be
// driven by a host's vsync callback via Poll, or on its own via Run.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc

	prev     time.Time
	animTime time.Duration
	ticks    uint64

	// now is time.Now outside of tests.
	now func() time.Time
}

func NewScheduler(targetFPS int, tick TickFunc) *Scheduler {
	if targetFPS <= 0 {
		targetFPS = DefaultFPS
	}
	return &Scheduler{
		interval: time.Second / time.Duration(targetFPS),
		tick:     tick,
		now:      time.Now,
	}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }
func (s *Scheduler) AnimTime() time.Duration { return s.animTime }
func (s *Scheduler) Ticks() uint64           { return s.ticks }

// Reset makes now the time of the previous tick without ticking.
func (s *Scheduler) Reset(now time.Time) {
	s.prev = now
}

// Poll ticks if at least one interval has passed since the previous tick and
// reports whether it did. The first call of a scheduler that hasn't been
// Reset only records the time.
//
// The time between ticks is added to the animation time in full, including
// any time the host spent not calling Poll.
func (s *Scheduler) Poll(now time.Time) (bool, error) {
	if s.prev.IsZero() {
		s.prev = now
		return false, nil
	}
	elapsed := now.Sub(s.prev)
	if elapsed < s.interval {
		return false, nil
	}
	s.animTime += elapsed
	s.prev = now
	s.ticks++
	if err := s.tick(s.animTime); err != nil {
		return true, fmt.Errorf("frame %d: %w", s.ticks, err)
	}
	return true, nil
}

// Run polls the scheduler whenever the next interval is due, sleeping in
// between. It returns when ctx is cancelled or a tick fails.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.prev.IsZero() {
		s.Reset(s.now())
	}
	timer := time.NewTimer(s.remaining())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Poll(s.now()); err != nil {
			prim.Logger().Warn("tick failed", "err", err)
			return err
		}
		timer.Reset(s.remaining())
	}
}

func (s *Scheduler) remaining() time.Duration {
	return max(s.interval-s.now().Sub(s.prev), 0)
}
