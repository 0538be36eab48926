// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package fake

import (
	"errors"

	"github.com/gviegas/present/driver"
)

// Surface implements driver.Surface.
type Surface struct {
	g *GPU
	// Caps is returned by SurfaceCapabilities.
	// It may be changed to simulate a resize.
	Caps      driver.Capabilities
	destroyed bool
}

// NewSurface creates a new surface whose capabilities
// are those of g's configuration.
func (g *GPU) NewSurface() *Surface {
	return &Surface{g: g, Caps: g.cfg.Caps}
}

// Destroy implements driver.Destroyer.
func (s *Surface) Destroy() {
	s.g.mu.Lock()
	s.destroyed = true
	s.g.mu.Unlock()
}

// SetCaps replaces the surface capabilities.
func (s *Surface) SetCaps(c driver.Capabilities) {
	s.g.mu.Lock()
	s.Caps = c
	s.g.mu.Unlock()
}

// SupportsSurface implements driver.Presenter.
func (g *GPU) SupportsSurface(qfam int, sf driver.Surface) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpSupportsSurface); err != nil {
		return false, err
	}
	return !g.cfg.NoPresent && qfam == g.cfg.QueueFamily, nil
}

// SurfaceCapabilities implements driver.Presenter.
func (g *GPU) SurfaceCapabilities(sf driver.Surface) (driver.Capabilities, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpSurfaceCapabilities); err != nil {
		return driver.Capabilities{}, err
	}
	return sf.(*Surface).Caps, nil
}

// ChooseFormat implements driver.Presenter.
func (g *GPU) ChooseFormat(sf driver.Surface, want []driver.SurfaceFormat) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpChooseFormat); err != nil {
		return -1, err
	}
	for i, w := range want {
		if w.Format == driver.FUndefined {
			continue
		}
		for _, f := range g.cfg.Formats {
			if f == w {
				return i, nil
			}
		}
	}
	return -1, nil
}

// ChoosePresentMode implements driver.Presenter.
func (g *GPU) ChoosePresentMode(sf driver.Surface, mode driver.PresentMode) (driver.PresentMode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpChoosePresentMode); err != nil {
		return 0, err
	}
	if len(g.cfg.Modes) == 0 {
		return 0, driver.ErrCannotPresent
	}
	for _, m := range g.cfg.Modes {
		if m == mode {
			return m, nil
		}
	}
	return g.cfg.Modes[0], nil
}

// NewChain implements driver.Presenter.
func (g *GPU) NewChain(cfg *driver.ChainConfig) (driver.Chain, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpNewChain); err != nil {
		return nil, err
	}
	n := g.cfg.Images
	if n <= 0 {
		n = max(cfg.MinImages, 1)
	}
	c := &Chain{
		g:      g,
		Config: *cfg,
		images: make([]*Image, n),
	}
	for i := range c.images {
		c.images[i] = &Image{
			Index:  i,
			format: cfg.Format.Format,
			size:   cfg.Extent,
		}
	}
	return c, nil
}

// Present implements driver.Presenter.
func (g *GPU) Present(p *driver.Presentation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpPresent); err != nil {
		return err
	}
	if len(p.Chains) != len(p.Indices) {
		return errors.New("fake: Presentation.Chains/Indices length mismatch")
	}
	for i, x := range p.Chains {
		c := x.(*Chain)
		if c.destroyed {
			return driver.ErrSwapchain
		}
		if p.Indices[i] < 0 || p.Indices[i] >= len(c.images) {
			return errors.New("fake: image index out of range")
		}
		c.presents++
	}
	g.pres = append(g.pres, *p)
	return nil
}

// Chain implements driver.Chain.
type Chain struct {
	g *GPU
	// Config is the configuration the chain was
	// created with.
	Config    driver.ChainConfig
	images    []*Image
	next      int
	timeouts  []uint64
	presents  int
	destroyed bool
}

// Images implements driver.Chain.
func (c *Chain) Images() ([]driver.Image, error) {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	if err := c.g.call(OpImages); err != nil {
		return nil, err
	}
	imgs := make([]driver.Image, len(c.images))
	for i := range c.images {
		imgs[i] = c.images[i]
	}
	return imgs, nil
}

// Next implements driver.Chain.
func (c *Chain) Next(timeout uint64, sem driver.Semaphore) (int, error) {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	c.timeouts = append(c.timeouts, timeout)
	if err := c.g.call(OpNext); err != nil {
		return -1, err
	}
	if len(c.g.script) > 0 {
		r := c.g.script[0]
		c.g.script = c.g.script[1:]
		if r.Err == nil && sem != nil {
			sem.(*Semaphore).signals++
		}
		return r.Index, r.Err
	}
	i := c.next
	c.next = (c.next + 1) % len(c.images)
	if sem != nil {
		sem.(*Semaphore).signals++
	}
	return i, nil
}

// Timeouts returns the timeouts given to Next, in call
// order.
func (c *Chain) Timeouts() []uint64 {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	return append([]uint64(nil), c.timeouts...)
}

// Presents returns how many times an image of c was
// presented.
func (c *Chain) Presents() int {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	return c.presents
}

// Destroyed returns whether Destroy was called.
func (c *Chain) Destroyed() bool {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	return c.destroyed
}

// Destroy implements driver.Destroyer.
func (c *Chain) Destroy() {
	c.g.mu.Lock()
	c.destroyed = true
	c.g.mu.Unlock()
}

// Image implements driver.Image.
type Image struct {
	Index  int
	format driver.PixelFmt
	size   driver.Dim2D
}

// Format implements driver.Image.
func (m *Image) Format() driver.PixelFmt { return m.format }

// Size implements driver.Image.
func (m *Image) Size() driver.Dim2D { return m.size }

// SupportsTarget implements driver.Renderer.
func (g *GPU) SupportsTarget(pf driver.PixelFmt) bool {
	if g.cfg.Targets == nil {
		return true
	}
	for _, t := range g.cfg.Targets {
		if t == pf {
			return true
		}
	}
	return false
}

// WrapImage implements driver.Renderer.
func (g *GPU) WrapImage(img driver.Image, size driver.Dim2D, sf driver.SurfaceFormat) (driver.DrawSurface, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpWrapImage); err != nil {
		return nil, err
	}
	return &DrawSurface{
		g:      g,
		img:    img.(*Image),
		size:   size,
		format: sf.Format,
		layout: driver.LUndefined,
	}, nil
}

// Flush implements driver.Renderer.
func (g *GPU) Flush(ds driver.DrawSurface) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpFlush); err != nil {
		return err
	}
	s := ds.(*DrawSurface)
	if s.pending != nil {
		s.color = *s.pending
		s.pending = nil
	}
	s.flushes++
	return nil
}

// SetLayout implements driver.Renderer.
func (g *GPU) SetLayout(ds driver.DrawSurface, l driver.Layout) {
	g.mu.Lock()
	ds.(*DrawSurface).layout = l
	g.mu.Unlock()
}

// DrawSurface implements driver.DrawSurface.
type DrawSurface struct {
	g         *GPU
	img       *Image
	size      driver.Dim2D
	format    driver.PixelFmt
	layout    driver.Layout
	pending   *[4]float32
	color     [4]float32
	flushes   int
	destroyed bool
}

// Size implements driver.DrawSurface.
func (s *DrawSurface) Size() driver.Dim2D { return s.size }

// Format implements driver.DrawSurface.
func (s *DrawSurface) Format() driver.PixelFmt { return s.format }

// Clear implements driver.DrawSurface.
func (s *DrawSurface) Clear(c [4]float32) {
	s.g.mu.Lock()
	s.pending = &c
	s.g.mu.Unlock()
}

// Image returns the image s targets.
func (s *DrawSurface) Image() *Image { return s.img }

// Layout returns the layout last set with SetLayout.
func (s *DrawSurface) Layout() driver.Layout {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.layout
}

// Color returns the color of the last flushed clear.
func (s *DrawSurface) Color() [4]float32 {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.color
}

// Flushes returns how many times s was flushed.
func (s *DrawSurface) Flushes() int {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.flushes
}

// Destroyed returns whether Destroy was called.
func (s *DrawSurface) Destroyed() bool {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.destroyed
}

// Destroy implements driver.Destroyer.
func (s *DrawSurface) Destroy() {
	s.g.mu.Lock()
	s.destroyed = true
	s.g.mu.Unlock()
}
