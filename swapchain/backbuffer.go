// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"github.com/gviegas/present/driver"
)

// BatchState describes whether a Backbuffer's last
// render submission was part of a batched presentation.
type BatchState int

// Batch states.
const (
	// The Backbuffer's own fences guard its reuse.
	Unbatched BatchState = iota
	// The render work was submitted with a shared
	// fence that the caller of Aggregator.PresentAll
	// waits on, so the Backbuffer's fences must not be
	// waited on or reset by the next Acquire.
	BatchedPendingFence
)

func (s BatchState) String() string {
	if s == BatchedPendingFence {
		return "batched"
	}
	return "unbatched"
}

// Backbuffer is a rotation slot of a Swapchain.
// The usage pair guards the transition into a render
// target layout and the render pair guards the
// transition into the present layout.
type Backbuffer struct {
	gpu      driver.GPU
	usageSem driver.Semaphore
	rendSem  driver.Semaphore
	usageFen driver.Fence
	rendFen  driver.Fence
	usageCmd driver.CmdBuffer
	rendCmd  driver.CmdBuffer
	state    BatchState
}

// newBackbuffer creates a new Backbuffer.
// Fences are created signaled, so the first wait does
// not block.
func newBackbuffer(gpu driver.GPU) (b *Backbuffer, err error) {
	b = &Backbuffer{gpu: gpu}
	defer func() {
		if err != nil {
			b.Destroy()
			b = nil
		}
	}()
	if b.usageSem, err = gpu.NewSemaphore(); err != nil {
		return
	}
	if b.rendSem, err = gpu.NewSemaphore(); err != nil {
		return
	}
	if b.usageFen, err = gpu.NewFence(true); err != nil {
		return
	}
	if b.rendFen, err = gpu.NewFence(true); err != nil {
		return
	}
	if b.usageCmd, err = gpu.NewCmdBuffer(); err != nil {
		return
	}
	b.rendCmd, err = gpu.NewCmdBuffer()
	return
}

// Destroy destroys b.
func (b *Backbuffer) Destroy() {
	for _, x := range [...]driver.Destroyer{
		b.usageCmd,
		b.rendCmd,
		b.usageFen,
		b.rendFen,
		b.usageSem,
		b.rendSem,
	} {
		if x != nil {
			x.Destroy()
		}
	}
	*b = Backbuffer{}
}

// WaitFences waits for both fences to be signaled.
func (b *Backbuffer) WaitFences() error {
	return b.gpu.WaitFences([]driver.Fence{b.usageFen, b.rendFen})
}

// ResetFences unsignals both fences.
func (b *Backbuffer) ResetFences() error {
	return b.gpu.ResetFences([]driver.Fence{b.usageFen, b.rendFen})
}

// UsageSemaphore returns the semaphore signaled when the
// acquired image is ready.
func (b *Backbuffer) UsageSemaphore() driver.Semaphore { return b.usageSem }

// RenderSemaphore returns the semaphore signaled when
// rendering completes.
func (b *Backbuffer) RenderSemaphore() driver.Semaphore { return b.rendSem }

// UsageFence returns the fence of the usage submission.
func (b *Backbuffer) UsageFence() driver.Fence { return b.usageFen }

// RenderFence returns the fence of the render submission.
func (b *Backbuffer) RenderFence() driver.Fence { return b.rendFen }

// UsageCmdBuffer returns the command buffer that
// transitions the image into a render target.
func (b *Backbuffer) UsageCmdBuffer() driver.CmdBuffer { return b.usageCmd }

// RenderCmdBuffer returns the command buffer that
// transitions the image for presentation.
func (b *Backbuffer) RenderCmdBuffer() driver.CmdBuffer { return b.rendCmd }

// State returns b's batch state.
func (b *Backbuffer) State() BatchState { return b.state }

// Batched is shorthand for State() == BatchedPendingFence.
func (b *Backbuffer) Batched() bool { return b.state == BatchedPendingFence }

// takeState returns b's batch state and resets it to
// Unbatched.
func (b *Backbuffer) takeState() BatchState {
	s := b.state
	b.state = Unbatched
	return s
}
