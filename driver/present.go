// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"errors"
)

// ErrCannotPresent means that the driver and/or device do not
// support presentation.
var ErrCannotPresent = errors.New("driver: presentation not supported")

// ErrWindow represents an error related to a specific window.
// It is returned when the surface backing a chain is lost,
// in which case the surface itself must be recreated.
var ErrWindow = errors.New("driver: window-related error")

// ErrSwapchain represents an error related to a specific
// chain.
// This error usually indicates that changes to the window or
// compositor made the chain out of date, so it must be
// recreated.
var ErrSwapchain = errors.New("driver: swapchain-related error")

// Surface is the interface that defines a platform
// surface onto which chain images are presented.
type Surface interface {
	Destroyer
}

// PresentMode is the type of presentation modes.
type PresentMode int

// Present modes.
const (
	PFifo PresentMode = iota
	PFifoRelaxed
	PMailbox
	PImmediate
)

// String implements fmt.Stringer.
func (m PresentMode) String() string {
	switch m {
	case PFifo:
		return "fifo"
	case PFifoRelaxed:
		return "fifo-relaxed"
	case PMailbox:
		return "mailbox"
	case PImmediate:
		return "immediate"
	}
	return "unknown"
}

// Capabilities describes the limits a surface imposes on
// chains created for it.
type Capabilities struct {
	MinImages     int
	MaxImages     int
	CurrentExtent Dim2D
	MinExtent     Dim2D
	MaxExtent     Dim2D
}

// ChainConfig describes a chain to be created with
// Presenter.NewChain.
type ChainConfig struct {
	Surface     Surface
	MinImages   int
	Format      SurfaceFormat
	Extent      Dim2D
	PresentMode PresentMode
	// Old is the chain being replaced, if any.
	// It is only a hint; the caller remains
	// responsible for destroying it.
	Old Chain
}

// Presentation describes a presentation for
// Presenter.Present.
// Chains and Indices must have the same length.
type Presentation struct {
	Wait    []Semaphore
	Chains  []Chain
	Indices []int
}

// Presenter is the interface that a GPU may implement
// to enable presentation on a display.
type Presenter interface {
	// SupportsSurface returns whether the given queue
	// family can present to sf.
	SupportsSurface(qfam int, sf Surface) (bool, error)

	// SurfaceCapabilities queries the capabilities of sf.
	SurfaceCapabilities(sf Surface) (Capabilities, error)

	// ChooseFormat returns the index of the first entry
	// in want that sf supports, or -1 if there is none.
	// Entries whose Format is FUndefined are skipped.
	ChooseFormat(sf Surface, want []SurfaceFormat) (int, error)

	// ChoosePresentMode returns mode if sf supports it,
	// or an alternative that sf does support.
	ChoosePresentMode(sf Surface, mode PresentMode) (PresentMode, error)

	// NewChain creates a new chain.
	NewChain(cfg *ChainConfig) (Chain, error)

	// Present queues a single presentation of one image
	// from each chain in p.
	// It returns ErrSwapchain if any chain is out of
	// date and ErrWindow if any surface was lost.
	Present(p *Presentation) error
}

// Chain is the interface that defines a n-buffered
// chain of presentable images.
type Chain interface {
	Destroyer

	// Images returns the images that comprise the
	// chain, in index order.
	Images() ([]Image, error)

	// Next returns the index of the next writable
	// image, signaling sem when the image is ready
	// for use.
	// timeout is in nanoseconds.
	// It returns ErrSwapchain if the chain is out of
	// date and ErrWindow if the surface was lost.
	Next(timeout uint64, sem Semaphore) (int, error)
}

// NoTimeout can be used as a Chain.Next timeout to wait
// indefinitely.
const NoTimeout = ^uint64(0)

// Renderer is the interface that defines the renderer
// backend that draws into chain images.
type Renderer interface {
	// SupportsTarget returns whether pf can be used as
	// a render target.
	SupportsTarget(pf PixelFmt) bool

	// WrapImage creates a DrawSurface targeting img.
	WrapImage(img Image, size Dim2D, sf SurfaceFormat) (DrawSurface, error)

	// Flush submits any pending draw work on ds.
	Flush(ds DrawSurface) error

	// SetLayout informs the renderer that ds's backing
	// image was transitioned to layout l outside of its
	// control.
	SetLayout(ds DrawSurface, l Layout)
}

// DrawSurface is the interface that defines a surface
// the renderer draws into.
type DrawSurface interface {
	Destroyer

	// Size returns the surface dimensions.
	Size() Dim2D

	// Format returns the surface's pixel format.
	Format() PixelFmt

	// Clear fills the whole surface with color c.
	// The operation takes effect on the next
	// Renderer.Flush.
	Clear(c [4]float32)
}
