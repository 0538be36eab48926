// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/present/driver"
)

// convSync converts a driver.Sync to a vk.PipelineStageFlags.
func convSync(s driver.Sync) vk.PipelineStageFlags {
	if s&driver.SAll != 0 {
		return vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
	var f vk.PipelineStageFlagBits
	if s&driver.STop != 0 {
		f |= vk.PipelineStageTopOfPipeBit
	}
	if s&driver.SColorOutput != 0 {
		f |= vk.PipelineStageColorAttachmentOutputBit
	}
	if s&driver.SCopy != 0 {
		f |= vk.PipelineStageTransferBit
	}
	if s&driver.SBottom != 0 {
		f |= vk.PipelineStageBottomOfPipeBit
	}
	return vk.PipelineStageFlags(f)
}

// convAccess converts a driver.Access to a vk.AccessFlags.
func convAccess(a driver.Access) vk.AccessFlags {
	var f vk.AccessFlagBits
	if a&driver.AColorRead != 0 {
		f |= vk.AccessColorAttachmentReadBit
	}
	if a&driver.AColorWrite != 0 {
		f |= vk.AccessColorAttachmentWriteBit
	}
	if a&driver.ACopyRead != 0 {
		f |= vk.AccessTransferReadBit
	}
	if a&driver.ACopyWrite != 0 {
		f |= vk.AccessTransferWriteBit
	}
	if a&driver.AAnyRead != 0 {
		f |= vk.AccessMemoryReadBit
	}
	if a&driver.AAnyWrite != 0 {
		f |= vk.AccessMemoryWriteBit
	}
	return vk.AccessFlags(f)
}

// convLayout converts a driver.Layout to a vk.ImageLayout.
func convLayout(l driver.Layout) vk.ImageLayout {
	switch l {
	case driver.LCommon:
		return vk.ImageLayoutGeneral
	case driver.LColorTarget:
		return vk.ImageLayoutColorAttachmentOptimal
	case driver.LCopySrc:
		return vk.ImageLayoutTransferSrcOptimal
	case driver.LCopyDst:
		return vk.ImageLayoutTransferDstOptimal
	case driver.LPresent:
		return vk.ImageLayoutPresentSrc
	}
	return vk.ImageLayoutUndefined
}

// convPixelFmt converts a driver.PixelFmt to a vk.Format.
func convPixelFmt(pf driver.PixelFmt) vk.Format {
	switch pf {
	case driver.RGBA8un:
		return vk.FormatR8g8b8a8Unorm
	case driver.RGBA8n:
		return vk.FormatR8g8b8a8Snorm
	case driver.RGBA8sRGB:
		return vk.FormatR8g8b8a8Srgb
	case driver.BGRA8un:
		return vk.FormatB8g8r8a8Unorm
	case driver.BGRA8sRGB:
		return vk.FormatB8g8r8a8Srgb
	case driver.RGBA16f:
		return vk.FormatR16g16b16a16Sfloat
	case driver.RGBA32f:
		return vk.FormatR32g32b32a32Sfloat
	}
	return vk.FormatUndefined
}

// pixelFmtFrom converts a vk.Format to a driver.PixelFmt.
// It returns driver.FUndefined if f has no counterpart.
func pixelFmtFrom(f vk.Format) driver.PixelFmt {
	switch f {
	case vk.FormatR8g8b8a8Unorm:
		return driver.RGBA8un
	case vk.FormatR8g8b8a8Snorm:
		return driver.RGBA8n
	case vk.FormatR8g8b8a8Srgb:
		return driver.RGBA8sRGB
	case vk.FormatB8g8r8a8Unorm:
		return driver.BGRA8un
	case vk.FormatB8g8r8a8Srgb:
		return driver.BGRA8sRGB
	case vk.FormatR16g16b16a16Sfloat:
		return driver.RGBA16f
	case vk.FormatR32g32b32a32Sfloat:
		return driver.RGBA32f
	}
	return driver.FUndefined
}

// Color spaces from VK_EXT_swapchain_colorspace.
const (
	colorSpaceExtendedSRGBLinear vk.ColorSpace = 1000104002
	colorSpaceBT709Linear        vk.ColorSpace = 1000104005
)

// convColorSpace converts a driver.ColorSpace to a vk.ColorSpace.
func convColorSpace(cs driver.ColorSpace) vk.ColorSpace {
	switch cs {
	case driver.CSRGBLinear:
		return colorSpaceBT709Linear
	case driver.CSExtendedLinear:
		return colorSpaceExtendedSRGBLinear
	}
	return vk.ColorSpaceSrgbNonlinear
}

// convPresentMode converts a driver.PresentMode to a vk.PresentMode.
func convPresentMode(m driver.PresentMode) vk.PresentMode {
	switch m {
	case driver.PFifoRelaxed:
		return vk.PresentModeFifoRelaxed
	case driver.PMailbox:
		return vk.PresentModeMailbox
	case driver.PImmediate:
		return vk.PresentModeImmediate
	}
	return vk.PresentModeFifo
}
