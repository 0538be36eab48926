// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/present/driver"
)

// cmdBuffer implements driver.CmdBuffer.
type cmdBuffer struct {
	d     *Driver
	pool  vk.CommandPool
	cb    vk.CommandBuffer
	begun bool
}

// NewCmdBuffer creates a new command buffer.
// The command buffer handle is allocated from an exclusive
// command pool, so recording needs no synchronization
// across command buffers.
func (d *Driver) NewCmdBuffer() (driver.CmdBuffer, error) {
	var pool vk.CommandPool
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.qfam,
	}
	if err := checkResult(vk.CreateCommandPool(d.dev, &poolInfo, nil, &pool)); err != nil {
		return nil, err
	}
	cbs := make([]vk.CommandBuffer, 1)
	cbInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	if err := checkResult(vk.AllocateCommandBuffers(d.dev, &cbInfo, cbs)); err != nil {
		vk.DestroyCommandPool(d.dev, pool, nil)
		return nil, err
	}
	return &cmdBuffer{
		d:    d,
		pool: pool,
		cb:   cbs[0],
	}, nil
}

// Begin resets the command buffer and puts it in the
// recording state.
func (cb *cmdBuffer) Begin() error {
	if cb.begun {
		return nil
	}
	if err := checkResult(vk.ResetCommandBuffer(cb.cb, 0)); err != nil {
		return err
	}
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := checkResult(vk.BeginCommandBuffer(cb.cb, &info)); err != nil {
		return err
	}
	cb.begun = true
	return nil
}

// Transition records image layout transitions.
// Every transition in t is recorded in a single pipeline
// barrier, using the union of their stages.
func (cb *cmdBuffer) Transition(t []driver.Transition) {
	if !cb.begun {
		panic("vk: Transition called outside of recording")
	}
	if len(t) == 0 {
		return
	}
	var src, dst vk.PipelineStageFlags
	imbs := make([]vk.ImageMemoryBarrier, len(t))
	for i := range t {
		src |= convSync(t[i].SyncBefore)
		dst |= convSync(t[i].SyncAfter)
		imbs[i] = vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       convAccess(t[i].AccessBefore),
			DstAccessMask:       convAccess(t[i].AccessAfter),
			OldLayout:           convLayout(t[i].LayoutBefore),
			NewLayout:           convLayout(t[i].LayoutAfter),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               t[i].Image.(*image).img,
			SubresourceRange:    colorRange,
		}
	}
	// A zero stage mask is invalid.
	if src == 0 {
		src = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	if dst == 0 {
		dst = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	vk.CmdPipelineBarrier(cb.cb, src, dst, 0, 0, nil, 0, nil, uint32(len(imbs)), imbs)
}

// End ends recording.
func (cb *cmdBuffer) End() error {
	if !cb.begun {
		return nil
	}
	cb.begun = false
	return checkResult(vk.EndCommandBuffer(cb.cb))
}

// Destroy destroys the command buffer.
func (cb *cmdBuffer) Destroy() {
	if cb == nil {
		return
	}
	if cb.d != nil {
		vk.FreeCommandBuffers(cb.d.dev, cb.pool, 1, []vk.CommandBuffer{cb.cb})
		vk.DestroyCommandPool(cb.d.dev, cb.pool, nil)
	}
	*cb = cmdBuffer{}
}

// colorRange is the subresource range of every image
// handled by the driver.
var colorRange = vk.ImageSubresourceRange{
	AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	LevelCount: 1,
	LayerCount: 1,
}
