// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"github.com/gviegas/present/driver"
)

// DesiredFormats returns the surface formats a Swapchain
// tries to use, most preferred first.
func DesiredFormats() []driver.SurfaceFormat {
	return []driver.SurfaceFormat{
		{Format: driver.RGBA8sRGB, ColorSpace: driver.CSRGBNonlinear},
		{Format: driver.BGRA8sRGB, ColorSpace: driver.CSRGBNonlinear},
		{Format: driver.RGBA16f, ColorSpace: driver.CSExtendedLinear},
		{Format: driver.RGBA8un, ColorSpace: driver.CSRGBNonlinear},
		{Format: driver.BGRA8un, ColorSpace: driver.CSRGBNonlinear},
	}
}

// chooseFormat selects the first format of DesiredFormats
// that both r and the platform support.
func chooseFormat(p driver.Presenter, sf driver.Surface, r driver.Renderer) (driver.SurfaceFormat, error) {
	want := DesiredFormats()
	for i := range want {
		if !r.SupportsTarget(want[i].Format) {
			want[i].Format = driver.FUndefined
		}
	}
	i, err := p.ChooseFormat(sf, want)
	switch {
	case err != nil:
		return driver.SurfaceFormat{}, err
	case i < 0 || i >= len(want) || want[i].Format == driver.FUndefined:
		return driver.SurfaceFormat{}, driver.ErrFormat
	}
	return want[i], nil
}

// choosePresentMode requests FIFO presentation, accepting
// whichever mode the platform offers instead.
func choosePresentMode(p driver.Presenter, sf driver.Surface) (driver.PresentMode, error) {
	return p.ChoosePresentMode(sf, driver.PFifo)
}

// clampExtent clamps cur to [lo, hi].
func clampExtent(cur, lo, hi driver.Dim2D) driver.Dim2D {
	return driver.Dim2D{
		Width:  clamp(cur.Width, lo.Width, hi.Width),
		Height: clamp(cur.Height, lo.Height, hi.Height),
	}
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
