// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"github.com/gviegas/present/driver"
)

// Image tracks the synchronization state of a chain
// image.
// The state mirrors what the GPU observes, so it only
// changes when a barrier is successfully recorded.
type Image struct {
	img    driver.Image
	stage  driver.Sync
	access driver.Access
	layout driver.Layout
}

func newImage(img driver.Image) *Image {
	return &Image{
		img:    img,
		stage:  driver.STop,
		access: driver.ANone,
		layout: driver.LUndefined,
	}
}

// Valid returns whether m refers to an image.
func (m *Image) Valid() bool { return m != nil && m.img != nil }

// Handle returns the underlying driver.Image.
func (m *Image) Handle() driver.Image { return m.img }

// Stage returns the last synchronization scope m was
// transitioned to.
func (m *Image) Stage() driver.Sync { return m.stage }

// Access returns the current access scope.
func (m *Image) Access() driver.Access { return m.access }

// Layout returns the current layout.
func (m *Image) Layout() driver.Layout { return m.layout }

// Barrier records into cb a transition of m from its
// current access/layout to access/layout, synchronizing
// src with dst.
// cb is begun and ended by this method. If recording
// fails, the tracked state is left unchanged.
func (m *Image) Barrier(cb driver.CmdBuffer, src, dst driver.Sync, access driver.Access, layout driver.Layout) error {
	if err := cb.Begin(); err != nil {
		return err
	}
	cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   src,
			SyncAfter:    dst,
			AccessBefore: m.access,
			AccessAfter:  access,
		},
		LayoutBefore: m.layout,
		LayoutAfter:  layout,
		Image:        m.img,
	}})
	if err := cb.End(); err != nil {
		return err
	}
	m.stage = dst
	m.access = access
	m.layout = layout
	return nil
}
