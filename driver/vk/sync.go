// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/present/driver"
)

// fence implements driver.Fence.
type fence struct {
	d *Driver
	f vk.Fence
}

// NewFence creates a new fence.
func (d *Driver) NewFence(signaled bool) (driver.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var f vk.Fence
	if err := checkResult(vk.CreateFence(d.dev, &info, nil, &f)); err != nil {
		return nil, err
	}
	return &fence{d, f}, nil
}

// Destroy destroys the fence.
func (f *fence) Destroy() {
	if f == nil {
		return
	}
	if f.d != nil {
		vk.DestroyFence(f.d.dev, f.f, nil)
	}
	*f = fence{}
}

// semaphore implements driver.Semaphore.
type semaphore struct {
	d *Driver
	s vk.Semaphore
}

// NewSemaphore creates a new binary semaphore.
func (d *Driver) NewSemaphore() (driver.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var s vk.Semaphore
	if err := checkResult(vk.CreateSemaphore(d.dev, &info, nil, &s)); err != nil {
		return nil, err
	}
	return &semaphore{d, s}, nil
}

// Destroy destroys the semaphore.
func (s *semaphore) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroySemaphore(s.d.dev, s.s, nil)
	}
	*s = semaphore{}
}

func fences(f []driver.Fence) []vk.Fence {
	vf := make([]vk.Fence, len(f))
	for i := range f {
		vf[i] = f[i].(*fence).f
	}
	return vf
}

func semaphores(s []driver.Semaphore) []vk.Semaphore {
	if len(s) == 0 {
		return nil
	}
	vs := make([]vk.Semaphore, len(s))
	for i := range s {
		vs[i] = s[i].(*semaphore).s
	}
	return vs
}

// WaitFences blocks until every fence in f is signaled.
func (d *Driver) WaitFences(f []driver.Fence) error {
	if len(f) == 0 {
		return nil
	}
	return checkResult(vk.WaitForFences(d.dev, uint32(len(f)), fences(f), vk.True, vk.MaxUint64))
}

// ResetFences sets every fence in f to unsignaled.
func (d *Driver) ResetFences(f []driver.Fence) error {
	if len(f) == 0 {
		return nil
	}
	return checkResult(vk.ResetFences(d.dev, uint32(len(f)), fences(f)))
}

// Submit submits a batch of command buffers for execution.
func (d *Driver) Submit(s *driver.Submission) error {
	if len(s.Wait) != len(s.WaitSync) {
		panic("vk: Submission.Wait and Submission.WaitSync lengths differ")
	}
	stages := make([]vk.PipelineStageFlags, len(s.WaitSync))
	for i, x := range s.WaitSync {
		stages[i] = convSync(x)
	}
	cbs := make([]vk.CommandBuffer, len(s.Cmd))
	for i := range s.Cmd {
		cbs[i] = s.Cmd[i].(*cmdBuffer).cb
	}
	info := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(s.Wait)),
		PWaitSemaphores:      semaphores(s.Wait),
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(cbs)),
		PCommandBuffers:      cbs,
		SignalSemaphoreCount: uint32(len(s.Signal)),
		PSignalSemaphores:    semaphores(s.Signal),
	}
	var f vk.Fence
	if s.Fence != nil {
		f = s.Fence.(*fence).f
	}
	d.qmu.Lock()
	defer d.qmu.Unlock()
	return checkResult(vk.QueueSubmit(d.que, 1, []vk.SubmitInfo{info}, f))
}
