// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/gviegas/present/driver"
)

// canvas implements driver.DrawSurface.
// Drawing is limited to clearing the whole image.
type canvas struct {
	d      *Driver
	img    *image
	size   driver.Dim2D
	layout driver.Layout
	cb     driver.CmdBuffer
	fence  driver.Fence

	color   [4]float32
	pending bool
}

// SupportsTarget returns whether images of format pf can
// be cleared by the driver.
func (d *Driver) SupportsTarget(pf driver.PixelFmt) bool {
	f := convPixelFmt(pf)
	if f == vk.FormatUndefined {
		return false
	}
	var prop vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.pdev, f, &prop)
	prop.Deref()
	want := vk.FormatFeatureFlags(vk.FormatFeatureColorAttachmentBit)
	return prop.OptimalTilingFeatures&want == want
}

// WrapImage creates a canvas that draws into img.
func (d *Driver) WrapImage(img driver.Image, size driver.Dim2D, sf driver.SurfaceFormat) (driver.DrawSurface, error) {
	cb, err := d.NewCmdBuffer()
	if err != nil {
		return nil, err
	}
	fence, err := d.NewFence(true)
	if err != nil {
		cb.Destroy()
		return nil, err
	}
	return &canvas{
		d:     d,
		img:   img.(*image),
		size:  size,
		cb:    cb,
		fence: fence,
	}, nil
}

// SetLayout records the layout that the image of ds will
// be in when the next Flush executes.
func (d *Driver) SetLayout(ds driver.DrawSurface, l driver.Layout) { ds.(*canvas).layout = l }

// Flush submits the pending drawing of ds.
// The image is left in the layout informed by SetLayout.
func (d *Driver) Flush(ds driver.DrawSurface) error {
	c := ds.(*canvas)
	if !c.pending {
		return nil
	}
	if err := d.WaitFences([]driver.Fence{c.fence}); err != nil {
		return err
	}
	if err := d.ResetFences([]driver.Fence{c.fence}); err != nil {
		return err
	}
	if err := c.cb.Begin(); err != nil {
		return err
	}
	c.cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   driver.SColorOutput,
			SyncAfter:    driver.SCopy,
			AccessBefore: driver.AColorWrite,
			AccessAfter:  driver.ACopyWrite,
		},
		LayoutBefore: c.layout,
		LayoutAfter:  driver.LCopyDst,
		Image:        c.img,
	}})
	var color vk.ClearColorValue
	*(*[4]float32)(unsafe.Pointer(&color)) = c.color
	vk.CmdClearColorImage(c.cb.(*cmdBuffer).cb, c.img.img, vk.ImageLayoutTransferDstOptimal, &color, 1, []vk.ImageSubresourceRange{colorRange})
	after := c.layout
	if after == driver.LUndefined {
		after = driver.LColorTarget
	}
	c.cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   driver.SCopy,
			SyncAfter:    driver.SColorOutput,
			AccessBefore: driver.ACopyWrite,
			AccessAfter:  driver.AColorRead | driver.AColorWrite,
		},
		LayoutBefore: driver.LCopyDst,
		LayoutAfter:  after,
		Image:        c.img,
	}})
	if err := c.cb.End(); err != nil {
		return err
	}
	err := d.Submit(&driver.Submission{
		Cmd:   []driver.CmdBuffer{c.cb},
		Fence: c.fence,
	})
	if err != nil {
		return err
	}
	c.layout = after
	c.pending = false
	return nil
}

func (c *canvas) Size() driver.Dim2D      { return c.size }
func (c *canvas) Format() driver.PixelFmt { return c.img.pf }
func (c *canvas) Clear(color [4]float32)  { c.color, c.pending = color, true }

// Destroy destroys the canvas.
// It blocks until the last Flush completes.
func (c *canvas) Destroy() {
	if c == nil {
		return
	}
	if c.d != nil {
		c.d.WaitFences([]driver.Fence{c.fence})
		c.fence.Destroy()
		c.cb.Destroy()
	}
	*c = canvas{}
}
