// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"sync/atomic"
)

var resourceID atomic.Uint64

func nextResourceID() ResourceID {
	return ResourceID(resourceID.Add(1))
}

type ResourceID uint64

type BufferUsage int

const (
	// BufferUsageStorage is a read-only storage buffer that is written by the
	// CPU.
	BufferUsageStorage BufferUsage = iota + 1
	// BufferUsageUniform is a uniform buffer that is written by the CPU.
	BufferUsageUniform
)

// BufferProxy names a GPU buffer that a Recording creates, writes, binds or
// frees. The engine maps IDs to real buffers.
type BufferProxy struct {
	Size  uint64
	ID    ResourceID
	Name  string
	Usage BufferUsage
}

func NewBufferProxy(size uint64, name string, usage BufferUsage) BufferProxy {
	return BufferProxy{
		Size:  size,
		ID:    nextResourceID(),
		Name:  name,
		Usage: usage,
	}
}

// Recording is the list of GPU commands produced by one tick of the
// renderer, in execution order.
type Recording struct {
	Commands []Command
}

func (rec *Recording) Reset() {
	clear(rec.Commands)
	rec.Commands = rec.Commands[:0]
}

func (rec *Recording) push(cmd Command) {
	rec.Commands = append(rec.Commands, cmd)
}

func (rec *Recording) CreateBuffer(buf BufferProxy) {
	rec.push(&CreateBuffer{buf})
}

func (rec *Recording) WriteBuffer(buf BufferProxy, data []byte) {
	rec.push(&WriteBuffer{buf, data})
}

func (rec *Recording) FreeBuffer(buf BufferProxy) {
	rec.push(&FreeBuffer{buf})
}

func (rec *Recording) Draw(bindings Bindings, batches []Batch) {
	rec.push(&Draw{bindings, batches})
}

// Draws returns the number of draw calls in the recording.
func (rec *Recording) Draws() int {
	n := 0
	for _, cmd := range rec.Commands {
		if d, ok := cmd.(*Draw); ok {
			n += len(d.Batches)
		}
	}
	return n
}

type Command interface {
	isCommand()
}

func (*CreateBuffer) isCommand() {}
func (*WriteBuffer) isCommand()  {}
func (*FreeBuffer) isCommand()   {}
func (*Draw) isCommand()         {}

type CreateBuffer struct {
	Buffer BufferProxy
}

// WriteBuffer overwrites the start of a buffer. Data is only valid until the
// renderer's next tick.
type WriteBuffer struct {
	Buffer BufferProxy
	Data   []byte
}

type FreeBuffer struct {
	Buffer BufferProxy
}

// Bindings lists the buffers of the shader's single bind group, indexed by
// binding number.
type Bindings [bindingCount]BufferProxy

// Batch is one instanced draw. Every instance draws IndexCount vertices, and
// instance i reads the props record at FirstInstance+i.
type Batch struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstInstance uint32
}

// Draw renders one frame: it clears the frame texture and issues one
// instanced draw per batch, all with the same bind group.
type Draw struct {
	Bindings Bindings
	Batches  []Batch
}
