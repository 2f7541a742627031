// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package scenefile

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"honnef.co/go/prim/entity"
)

var easings = map[string]ease.TweenFunc{
	"":             ease.Linear,
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"out-bounce":   ease.OutBounce,
	"out-elastic":  ease.OutElastic,
}

// property reads and writes one scalar of a primitive.
type property struct {
	get func(p *entity.Primitive) float32
	set func(p *entity.Primitive, v float32)
}

func translation(axis int) property {
	return property{
		get: func(p *entity.Primitive) float32 { return float32(p.Translation()[axis]) },
		set: func(p *entity.Primitive, v float32) {
			t := p.Translation()
			t[axis] = float64(v)
			p.Translate(t[0], t[1], t[2])
		},
	}
}

func rotation(axis int) property {
	return property{
		get: func(p *entity.Primitive) float32 { return float32(p.RotationAngles()[axis]) },
		set: func(p *entity.Primitive, v float32) {
			r := p.RotationAngles()
			r[axis] = float64(v)
			p.Rotation(r[0], r[1], r[2])
		},
	}
}

func scale(axis int) property {
	return property{
		get: func(p *entity.Primitive) float32 { return float32(p.ScaleFactors()[axis]) },
		set: func(p *entity.Primitive, v float32) {
			s := p.ScaleFactors()
			s[axis] = float64(v)
			p.Scale(s[0], s[1], s[2])
		},
	}
}

var properties = map[string]property{
	"translate.x": translation(0),
	"translate.y": translation(1),
	"translate.z": translation(2),
	"rotate.x":    rotation(0),
	"rotate.y":    rotation(1),
	"rotate.z":    rotation(2),
	"scale.x":     scale(0),
	"scale.y":     scale(1),
	"scale.z":     scale(2),
	"scale": {
		get: func(p *entity.Primitive) float32 { return float32(p.ScaleFactors()[0]) },
		set: func(p *entity.Primitive, v float32) { p.Scale(float64(v), float64(v), float64(v)) },
	},
	"alpha": {
		get: func(p *entity.Primitive) float32 { return p.Color()[3] },
		set: func(p *entity.Primitive, v float32) {
			c := p.Color()
			c[3] = v
			p.Fill(c)
		},
	},
}

type animation struct {
	target *entity.Primitive
	prop   property
	tween  *gween.Tween

	from, to float32
	duration float32
	easeFn   ease.TweenFunc
	loop     bool
	done     bool
}

// Animator advances the animations of a scene. The zero value has no
// animations.
type Animator struct {
	anims []*animation
}

func (a *Animator) add(p *entity.Primitive, cfg Animation) {
	prop := properties[cfg.Property]
	from := prop.get(p)
	if cfg.From != nil {
		from = *cfg.From
	}
	anim := &animation{
		target:   p,
		prop:     prop,
		from:     from,
		to:       cfg.To,
		duration: float32(cfg.Duration.Duration().Seconds()),
		easeFn:   easings[cfg.Ease],
		loop:     cfg.Loop,
	}
	anim.tween = gween.New(anim.from, anim.to, anim.duration, anim.easeFn)
	a.anims = append(a.anims, anim)
}

// Len returns the number of animations.
func (a *Animator) Len() int { return len(a.anims) }

// Done reports whether all animations have finished. Looping animations never
// finish.
func (a *Animator) Done() bool {
	for _, anim := range a.anims {
		if !anim.done {
			return false
		}
	}
	return true
}

// Update advances all animations by dt and writes their values to the
// primitives. Callers that render concurrently must run it through
// renderer.Renderer.Update.
func (a *Animator) Update(dt time.Duration) {
	secs := float32(dt.Seconds())
	for _, anim := range a.anims {
		if anim.done {
			continue
		}
		v, finished := anim.tween.Update(secs)
		anim.prop.set(anim.target, v)
		if finished {
			if anim.loop {
				anim.tween = gween.New(anim.from, anim.to, anim.duration, anim.easeFn)
			} else {
				anim.done = true
			}
		}
	}
}
