// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package scenefile loads scenes of primitives, an optional camera and simple
// property animations from YAML.
//
// A scene looks like this:
//
//	fps: 120
//	batching: in-order
//	clear: [0, 0, 0, 1]
//	camera:
//	  eye: [0, 0, 50]
//	  focus: [0, 0, 0]
//	objects:
//	  - shape: rect
//	    size: [0.5, 0.5]
//	    color: [0, 1, 0, 1]
//	    count: 10
//	    step: [0.1, 0, 0]
//	    animations:
//	      - property: rotate.z
//	        to: 6.283
//	        duration: 2s
//	        ease: in-out-quad
//	        loop: true
package scenefile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"honnef.co/go/prim/entity"
	"honnef.co/go/prim/gfx"
	"honnef.co/go/prim/jmath"
	"honnef.co/go/prim/renderer"
)

type Scene struct {
	FPS      int        `yaml:"fps"`
	Batching string     `yaml:"batching"` // "in-order" (default) or "sort"
	Clear    *gfx.Color `yaml:"clear"`    // opaque black if unset
	Camera   *Camera    `yaml:"camera,omitempty"`
	Objects  []Object   `yaml:"objects"`
	// Size of the surface when rendering offscreen.
	Viewport [2]uint32 `yaml:"viewport"`
}

type Camera struct {
	Eye   *jmath.Vec3 `yaml:"eye"`
	Focus *jmath.Vec3 `yaml:"focus"`
	Up    *jmath.Vec3 `yaml:"up"`
	FOV   float64     `yaml:"fov"`
	Near  float64     `yaml:"near"`
	Far   float64     `yaml:"far"`
}

type Object struct {
	Shape string `yaml:"shape"` // rect, circle or polygon

	Size     [2]float64   `yaml:"size"`     // rect
	Radius   float64      `yaml:"radius"`   // circle
	Segments int          `yaml:"segments"` // circle, defaults to entity.CircleSegments
	Z        float64      `yaml:"z"`        // circle
	Points   []jmath.Vec3 `yaml:"points"`   // polygon

	Color     gfx.Color   `yaml:"color"`
	Translate jmath.Vec3  `yaml:"translate"`
	Rotate    jmath.Vec3  `yaml:"rotate"`
	Scale     *jmath.Vec3 `yaml:"scale"`

	// Count copies of the object are created, the i-th translated by i*Step.
	Count int        `yaml:"count"`
	Step  jmath.Vec3 `yaml:"step"`

	Animations []Animation `yaml:"animations"`
}

type Animation struct {
	// One of translate.{x,y,z}, rotate.{x,y,z}, scale, scale.{x,y,z} and
	// alpha.
	Property string `yaml:"property"`
	// From defaults to the property's value when the scene is built.
	From     *float32 `yaml:"from"`
	To       float32  `yaml:"to"`
	Duration Duration `yaml:"duration"`
	Ease     string   `yaml:"ease"`
	Loop     bool     `yaml:"loop"`
}

// Duration wraps time.Duration for YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

var ErrInvalidScene = errors.New("invalid scene")

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	scene, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scene, nil
}

// Parse decodes and validates a scene and applies defaults.
func Parse(data []byte) (*Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	if err := scene.validate(); err != nil {
		return nil, err
	}

	if scene.Clear == nil {
		black := gfx.RGBA(0, 0, 0, 1)
		scene.Clear = &black
	}
	if scene.Viewport == ([2]uint32{}) {
		scene.Viewport = [2]uint32{800, 600}
	}
	for i := range scene.Objects {
		obj := &scene.Objects[i]
		if obj.Count == 0 {
			obj.Count = 1
		}
		if obj.Shape == "circle" && obj.Segments == 0 {
			obj.Segments = entity.CircleSegments
		}
	}
	return &scene, nil
}

func (scene *Scene) validate() error {
	if scene.FPS < 0 {
		return fmt.Errorf("%w: negative fps %d", ErrInvalidScene, scene.FPS)
	}
	if _, err := scene.BatchMode(); err != nil {
		return err
	}
	for i, obj := range scene.Objects {
		switch obj.Shape {
		case "rect", "circle", "polygon":
		default:
			return fmt.Errorf("%w: object %d: unknown shape %q", ErrInvalidScene, i, obj.Shape)
		}
		if obj.Count < 0 {
			return fmt.Errorf("%w: object %d: negative count %d", ErrInvalidScene, i, obj.Count)
		}
		if obj.Shape == "circle" && obj.Segments < 0 {
			return fmt.Errorf("%w: object %d: negative segment count", ErrInvalidScene, i)
		}
		for j, anim := range obj.Animations {
			if _, ok := properties[anim.Property]; !ok {
				return fmt.Errorf("%w: object %d: animation %d: unknown property %q", ErrInvalidScene, i, j, anim.Property)
			}
			if _, ok := easings[anim.Ease]; !ok {
				return fmt.Errorf("%w: object %d: animation %d: unknown easing %q", ErrInvalidScene, i, j, anim.Ease)
			}
			if anim.Duration <= 0 {
				return fmt.Errorf("%w: object %d: animation %d: duration must be positive", ErrInvalidScene, i, j)
			}
		}
	}
	return nil
}

// BatchMode maps the scene's batching name to a renderer mode.
func (scene *Scene) BatchMode() (renderer.Batching, error) {
	switch scene.Batching {
	case "", "in-order":
		return renderer.BatchInOrder, nil
	case "sort":
		return renderer.BatchSortByTopology, nil
	default:
		return 0, fmt.Errorf("%w: unknown batching mode %q", ErrInvalidScene, scene.Batching)
	}
}

// Build creates the scene's primitives, camera and animations. The camera is
// nil if the scene doesn't configure one.
func (scene *Scene) Build(vp entity.Viewport) (*Instance, error) {
	inst := &Instance{}
	for _, obj := range scene.Objects {
		for i := range obj.Count {
			p := obj.build()
			t := obj.Translate
			for k := range t {
				t[k] += float64(i) * obj.Step[k]
			}
			p.Translate(t[0], t[1], t[2])
			inst.Primitives = append(inst.Primitives, p)
			for _, anim := range obj.Animations {
				inst.Animator.add(p, anim)
			}
		}
	}
	if c := scene.Camera; c != nil {
		cam := entity.NewCamera(vp)
		if c.Eye != nil {
			cam.Eye(*c.Eye)
		}
		if c.Focus != nil {
			cam.Focus(*c.Focus)
		}
		if c.Up != nil {
			cam.Up(*c.Up)
		}
		if c.FOV != 0 {
			cam.FOV(c.FOV)
		}
		if c.Near != 0 || c.Far != 0 {
			if c.Near <= 0 || c.Far <= c.Near {
				return nil, fmt.Errorf("%w: clip planes %v, %v", ErrInvalidScene, c.Near, c.Far)
			}
			cam.Clip(c.Near, c.Far)
		}
		inst.Camera = cam
	}
	return inst, nil
}

func (obj *Object) build() *entity.Primitive {
	p := entity.NewPrimitive().Fill(obj.Color)
	switch obj.Shape {
	case "rect":
		p.Rect(obj.Size[0], obj.Size[1])
	case "circle":
		p.CircleN(obj.Radius, obj.Z, obj.Segments)
	case "polygon":
		p.Polygon(obj.Points)
	default:
		panic(fmt.Sprintf("unhandled shape %q", obj.Shape))
	}
	p.Rotation(obj.Rotate[0], obj.Rotate[1], obj.Rotate[2])
	if s := obj.Scale; s != nil {
		p.Scale(s[0], s[1], s[2])
	}
	return p
}

// Instance is a built scene.
type Instance struct {
	Primitives []*entity.Primitive
	Camera     *entity.Camera
	Animator   Animator
}

// Objects returns the primitives as renderer objects, in scene order.
func (inst *Instance) Objects() []renderer.Object {
	out := make([]renderer.Object, len(inst.Primitives))
	for i, p := range inst.Primitives {
		out[i] = p
	}
	return out
}
