// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package swapchain implements a presentation chain on top
// of the interfaces defined by package driver.
//
// A Swapchain is driven by a single goroutine, which calls
// Acquire to obtain a driver.DrawSurface, draws into it and
// then either calls Submit to present it, or calls Flush
// and registers the Swapchain with an Aggregator so that
// several chains are presented together.
//
// Calling Acquire twice without an intervening Submit or
// Flush, or calling Submit without a prior Acquire, is a
// programming error whose outcome is undefined.
package swapchain

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/gviegas/present/driver"
)

// Steps of the protocol, as they appear in errors and
// log entries.
const (
	stepCapabilities = "surface-capabilities"
	stepFormat       = "choose-format"
	stepPresentMode  = "choose-present-mode"
	stepSupport      = "surface-support"
	stepCreate       = "create-chain"
	stepImages       = "chain-images"
	stepBackbuffer   = "create-backbuffer"
	stepWrap         = "wrap-image"
	stepWaitFences   = "wait-fences"
	stepResetFences  = "reset-fences"
	stepNext         = "acquire-next-image"
	stepIndex        = "image-index"
	stepUsageBarrier = "usage-barrier"
	stepUsageSubmit  = "usage-submit"
	stepDrawSurface  = "draw-surface"
	stepFlush        = "renderer-flush"
	stepRendBarrier  = "render-barrier"
	stepRendSubmit   = "render-submit"
	stepPresent      = "present"
)

// validity is the outcome of Swapchain creation.
// It is either valid or invalid, and never changes
// back to valid.
type validity interface {
	chain() (driver.Chain, error)
}

type valid struct{ native driver.Chain }

func (v valid) chain() (driver.Chain, error) { return v.native, nil }

type invalid struct{ reason error }

func (v invalid) chain() (driver.Chain, error) {
	return nil, fmt.Errorf("%w: %w", ErrInvalid, v.reason)
}

var (
	errDestroyed = errors.New("destroyed")
	errRetired   = errors.New("retired by a newer swapchain")
)

// Swapchain is a n-buffered presentation chain.
type Swapchain struct {
	gpu   driver.GPU
	pres  driver.Presenter
	rend  driver.Renderer
	sf    driver.Surface
	qfam  int
	state validity

	caps   driver.Capabilities
	format driver.SurfaceFormat
	mode   driver.PresentMode

	// bbufs, images and surfs have the same length.
	// bbufs is indexed by curBuf and rotates on every
	// Acquire. images and surfs are indexed by the
	// image index the chain returns.
	bbufs  []*Backbuffer
	images []*Image
	surfs  []driver.DrawSurface

	curBuf int
	curImg int
	// curStage is the last synchronization scope of a
	// recorded barrier. It is the source scope of the
	// next one.
	curStage driver.Sync
}

// New creates a new Swapchain that presents to sf.
// r wraps chain images into draw surfaces. qfam is the
// queue family that will present.
// If old is not nil, it is given to the platform as the
// chain being replaced and is retired once the device
// is idle. old must not be used afterwards, but it must
// still be destroyed.
//
// New always returns a non-nil Swapchain. If it also
// returns an error, the Swapchain is invalid: all of its
// operations fail with ErrInvalid.
func New(gpu driver.GPU, sf driver.Surface, r driver.Renderer, old *Swapchain, qfam int) (*Swapchain, error) {
	s := &Swapchain{
		gpu:      gpu,
		rend:     r,
		sf:       sf,
		qfam:     qfam,
		curImg:   -1,
		curStage: driver.STop,
	}
	native, err := s.init(old)
	if err != nil {
		s.destroyContents()
		s.state = invalid{err}
		return s, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s.state = valid{native}
	Logger().WithFields(log.Fields{
		"images": len(s.images),
		"format": s.format.Format,
		"mode":   s.mode,
		"extent": s.caps.CurrentExtent,
	}).Debug("swapchain created")
	return s, nil
}

// init negotiates the chain parameters and creates the
// native chain and its slots.
func (s *Swapchain) init(old *Swapchain) (driver.Chain, error) {
	var ok bool
	if s.pres, ok = s.gpu.(driver.Presenter); !ok {
		return nil, stepError(stepSupport, driver.ErrCannotPresent)
	}

	var err error
	if s.caps, err = s.pres.SurfaceCapabilities(s.sf); err != nil {
		return nil, stepError(stepCapabilities, err)
	}
	if s.format, err = chooseFormat(s.pres, s.sf, s.rend); err != nil {
		return nil, stepError(stepFormat, err)
	}
	if s.mode, err = choosePresentMode(s.pres, s.sf); err != nil {
		return nil, stepError(stepPresentMode, err)
	}
	switch ok, err := s.pres.SupportsSurface(s.qfam, s.sf); {
	case err != nil:
		return nil, stepError(stepSupport, err)
	case !ok:
		return nil, stepError(stepSupport, driver.ErrCannotPresent)
	}

	var oldChain driver.Chain
	if old != nil {
		oldChain, _ = old.state.chain()
	}
	native, err := s.pres.NewChain(&driver.ChainConfig{
		Surface:     s.sf,
		MinImages:   s.caps.MinImages,
		Format:      s.format,
		Extent:      s.caps.CurrentExtent,
		PresentMode: s.mode,
		Old:         oldChain,
	})
	// The platform retires the old chain even if
	// creation fails.
	if oldChain != nil {
		old.retire()
	}
	if err != nil {
		return nil, stepError(stepCreate, err)
	}
	if err = s.initSlots(native); err != nil {
		native.Destroy()
		return nil, err
	}
	return native, nil
}

// initSlots creates a (Backbuffer, Image, DrawSurface)
// triple for every image of native.
func (s *Swapchain) initSlots(native driver.Chain) error {
	imgs, err := native.Images()
	if err != nil {
		return stepError(stepImages, err)
	}
	if len(imgs) == 0 {
		return stepError(stepImages, ErrImage)
	}
	size := s.caps.CurrentExtent
	for _, img := range imgs {
		bb, err := newBackbuffer(s.gpu)
		if err != nil {
			return stepError(stepBackbuffer, err)
		}
		s.bbufs = append(s.bbufs, bb)
		m := newImage(img)
		if !m.Valid() {
			return stepError(stepImages, ErrImage)
		}
		s.images = append(s.images, m)
		ds, err := s.rend.WrapImage(img, size, s.format)
		if err != nil {
			return stepError(stepWrap, err)
		}
		if ds == nil {
			return stepError(stepWrap, ErrImage)
		}
		s.surfs = append(s.surfs, ds)
	}
	return nil
}

// destroyContents destroys the slots of s.
func (s *Swapchain) destroyContents() {
	for _, ds := range s.surfs {
		ds.Destroy()
	}
	for _, bb := range s.bbufs {
		bb.Destroy()
	}
	s.surfs = nil
	s.bbufs = nil
	s.images = nil
}

// retire waits for the device to be idle and then
// destroys s's native chain and slots.
// It is called by New when s is the chain being
// replaced.
func (s *Swapchain) retire() {
	native, err := s.state.chain()
	if err != nil {
		return
	}
	if err := s.gpu.WaitIdle(); err != nil {
		Logger().WithFields(log.Fields{"step": "retire", "err": err}).Warn("device wait failed")
	}
	s.destroyContents()
	native.Destroy()
	s.state = invalid{errRetired}
	Logger().Debug("swapchain retired")
}

// Destroy waits for the device to be idle and then
// destroys s.
// The Surface and Renderer given to New are not
// destroyed. Destroying an invalid Swapchain only
// releases what it owns.
func (s *Swapchain) Destroy() {
	native, err := s.state.chain()
	if err == nil {
		if err := s.gpu.WaitIdle(); err != nil {
			Logger().WithFields(log.Fields{"step": "destroy", "err": err}).Warn("device wait failed")
		}
	}
	s.destroyContents()
	if native != nil {
		native.Destroy()
	}
	s.state = invalid{errDestroyed}
}

// Rebuild creates a new Swapchain for the same surface,
// replacing s.
// It is meant to be called in response to
// ErrOutOfDate. s is retired by this call.
func (s *Swapchain) Rebuild() (*Swapchain, error) {
	return New(s.gpu, s.sf, s.rend, s, s.qfam)
}

// Valid returns whether s can be used.
func (s *Swapchain) Valid() bool {
	_, err := s.state.chain()
	return err == nil
}

// Err returns the reason why s is invalid, or nil if it
// is valid.
func (s *Swapchain) Err() error {
	_, err := s.state.chain()
	return err
}

// Size returns the current extent of the surface,
// clamped to the surface's limits.
func (s *Swapchain) Size() driver.Dim2D {
	return clampExtent(s.caps.CurrentExtent, s.caps.MinExtent, s.caps.MaxExtent)
}

// Format returns the negotiated surface format.
func (s *Swapchain) Format() driver.SurfaceFormat { return s.format }

// PresentMode returns the negotiated present mode.
func (s *Swapchain) PresentMode() driver.PresentMode { return s.mode }

// Len returns the number of images in the chain.
func (s *Swapchain) Len() int { return len(s.images) }

// Surface returns the surface s presents to.
func (s *Swapchain) Surface() driver.Surface { return s.sf }

// Backbuffer returns the current rotation slot.
// It returns nil if s is invalid.
func (s *Swapchain) Backbuffer() *Backbuffer {
	if !s.Valid() {
		return nil
	}
	return s.bbufs[s.curBuf]
}

// BackbufferIndex returns the index of the current
// rotation slot.
func (s *Swapchain) BackbufferIndex() int { return s.curBuf }

// ImageIndex returns the index of the last image
// acquired, or -1 if none was.
func (s *Swapchain) ImageIndex() int { return s.curImg }

// Image returns the tracker of the image at index i.
func (s *Swapchain) Image(i int) *Image {
	if i < 0 || i >= len(s.images) {
		return nil
	}
	return s.images[i]
}

// Acquire obtains the next image of the chain and
// prepares it as a render target.
// On failure, StatusOf(err) tells whether the Swapchain
// (SurfaceOutOfDate) or also the surface (SurfaceLost)
// must be recreated. The rotation slot advances even
// when Acquire fails.
func (s *Swapchain) Acquire() (driver.DrawSurface, error) {
	native, err := s.state.chain()
	if err != nil {
		return nil, err
	}

	s.curBuf = (s.curBuf + 1) % len(s.bbufs)
	bb := s.bbufs[s.curBuf]
	if !s.images[s.curBuf].Valid() {
		return nil, stepError(stepIndex, ErrImage)
	}

	// A batched slot is guarded by the shared fence of
	// the last PresentAll call instead. It stays batched
	// until its usage commands are submitted.
	usageFen := bb.UsageFence()
	if bb.State() == Unbatched {
		if err := bb.WaitFences(); err != nil {
			return nil, stepError(stepWaitFences, err)
		}
		if err := bb.ResetFences(); err != nil {
			return nil, stepError(stepResetFences, err)
		}
	} else {
		usageFen = nil
	}

	idx, err := native.Next(driver.NoTimeout, bb.UsageSemaphore())
	switch {
	case err == nil:
	case errors.Is(err, driver.ErrSwapchain):
		return nil, stepError(stepNext, fmt.Errorf("%w (%w)", ErrOutOfDate, err))
	default:
		return nil, stepError(stepNext, fmt.Errorf("%w (%w)", ErrSurfaceLost, err))
	}

	if idx < 0 || idx >= len(s.images) || !s.images[idx].Valid() {
		return nil, stepError(stepIndex, fmt.Errorf("%w: index %d", ErrImage, idx))
	}
	img := s.images[idx]

	err = img.Barrier(bb.UsageCmdBuffer(), s.curStage, driver.SColorOutput, driver.AColorWrite, driver.LColorTarget)
	if err != nil {
		return nil, stepError(stepUsageBarrier, err)
	}
	s.curStage = driver.SColorOutput

	err = s.gpu.Submit(&driver.Submission{
		Wait:     []driver.Semaphore{bb.UsageSemaphore()},
		WaitSync: []driver.Sync{driver.SColorOutput},
		Cmd:      []driver.CmdBuffer{bb.UsageCmdBuffer()},
		Fence:    usageFen,
	})
	if err != nil {
		return nil, stepError(stepUsageSubmit, err)
	}
	bb.takeState()

	ds := s.surfs[idx]
	if ds == nil {
		return nil, stepError(stepDrawSurface, ErrImage)
	}
	s.rend.SetLayout(ds, driver.LColorTarget)

	s.curImg = idx
	return ds, nil
}

// current returns the slot and image of the last Acquire.
func (s *Swapchain) current() (*Backbuffer, *Image, driver.DrawSurface, error) {
	if s.curImg < 0 {
		return nil, nil, nil, ErrNotAcquired
	}
	return s.bbufs[s.curBuf], s.images[s.curImg], s.surfs[s.curImg], nil
}

// record flushes the renderer and records the transition
// of the acquired image into the present layout.
func (s *Swapchain) record(bb *Backbuffer, img *Image, ds driver.DrawSurface) error {
	if err := s.rend.Flush(ds); err != nil {
		return stepError(stepFlush, err)
	}
	err := img.Barrier(bb.RenderCmdBuffer(), s.curStage, driver.SBottom, driver.AAnyRead, driver.LPresent)
	if err != nil {
		return stepError(stepRendBarrier, err)
	}
	s.curStage = driver.SBottom
	return nil
}

// Flush records the commands that prepare the acquired
// image for presentation, without submitting them.
// It is used before registering s with an Aggregator.
func (s *Swapchain) Flush() error {
	if _, err := s.state.chain(); err != nil {
		return err
	}
	bb, img, ds, err := s.current()
	if err != nil {
		return err
	}
	return s.record(bb, img, ds)
}

// Submit presents the acquired image.
// If it fails, the frame is dropped; repeated failures
// mean that s must be rebuilt.
func (s *Swapchain) Submit() error {
	native, err := s.state.chain()
	if err != nil {
		return err
	}
	bb, img, ds, err := s.current()
	if err != nil {
		return err
	}

	if err := s.record(bb, img, ds); err != nil {
		return err
	}

	err = s.gpu.Submit(&driver.Submission{
		Signal: []driver.Semaphore{bb.RenderSemaphore()},
		Cmd:    []driver.CmdBuffer{bb.RenderCmdBuffer()},
		Fence:  bb.RenderFence(),
	})
	if err != nil {
		return stepError(stepRendSubmit, err)
	}
	bb.takeState()

	err = s.pres.Present(&driver.Presentation{
		Wait:    []driver.Semaphore{bb.RenderSemaphore()},
		Chains:  []driver.Chain{native},
		Indices: []int{s.curImg},
	})
	if err != nil {
		return stepError(stepPresent, presentError(err))
	}
	return nil
}

// presentError classifies an error from
// driver.Presenter.Present.
func presentError(err error) error {
	switch {
	case errors.Is(err, driver.ErrSwapchain):
		return fmt.Errorf("%w (%w)", ErrOutOfDate, err)
	case errors.Is(err, driver.ErrWindow):
		return fmt.Errorf("%w (%w)", ErrSurfaceLost, err)
	}
	return err
}
