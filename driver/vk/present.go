// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"math"

	vk "github.com/goki/vulkan"
	log "github.com/sirupsen/logrus"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/wsi"
)

// surface implements driver.Surface.
type surface struct {
	d   *Driver
	win wsi.Window
	sf  vk.Surface
}

// NewSurface creates a surface for win.
// It fails with driver.ErrCannotPresent if the driver was
// opened without window system support.
func (d *Driver) NewSurface(win wsi.Window) (driver.Surface, error) {
	if !d.canPresent {
		return nil, driver.ErrCannotPresent
	}
	p, err := wsi.VulkanSurface(win, d.inst)
	if err != nil {
		log.WithField("err", err).Warn("vulkan surface creation failed")
		return nil, driver.ErrWindow
	}
	return &surface{d, win, vk.SurfaceFromPointer(uintptr(p))}, nil
}

// Window returns the window of the surface.
func (s *surface) Window() wsi.Window { return s.win }

// Destroy destroys the surface.
func (s *surface) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroySurface(s.d.inst, s.sf, nil)
	}
	*s = surface{}
}

// SupportsSurface returns whether queue family qfam can
// present to sf.
func (d *Driver) SupportsSurface(qfam int, sf driver.Surface) (bool, error) {
	var ok vk.Bool32
	err := checkResult(vk.GetPhysicalDeviceSurfaceSupport(d.pdev, uint32(qfam), sf.(*surface).sf, &ok))
	if err != nil {
		return false, err
	}
	return ok == vk.True, nil
}

// SurfaceCapabilities queries the capabilities of sf.
func (d *Driver) SurfaceCapabilities(sf driver.Surface) (driver.Capabilities, error) {
	var caps vk.SurfaceCapabilities
	err := checkResult(vk.GetPhysicalDeviceSurfaceCapabilities(d.pdev, sf.(*surface).sf, &caps))
	if err != nil {
		return driver.Capabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	cur := caps.CurrentExtent
	// The surface size is determined by the swapchain
	// extent in this case.
	if cur.Width == math.MaxUint32 {
		w, h := sf.(*surface).win.Width(), sf.(*surface).win.Height()
		cur = vk.Extent2D{Width: uint32(w), Height: uint32(h)}
	}
	return driver.Capabilities{
		MinImages:     int(caps.MinImageCount),
		MaxImages:     int(caps.MaxImageCount),
		CurrentExtent: driver.Dim2D{Width: int(cur.Width), Height: int(cur.Height)},
		MinExtent:     driver.Dim2D{Width: int(caps.MinImageExtent.Width), Height: int(caps.MinImageExtent.Height)},
		MaxExtent:     driver.Dim2D{Width: int(caps.MaxImageExtent.Width), Height: int(caps.MaxImageExtent.Height)},
	}, nil
}

// surfaceFormats queries the formats of sf.
func (d *Driver) surfaceFormats(sf vk.Surface) ([]vk.SurfaceFormat, error) {
	var n uint32
	if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(d.pdev, sf, &n, nil)); err != nil {
		return nil, err
	}
	fmts := make([]vk.SurfaceFormat, n)
	if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(d.pdev, sf, &n, fmts)); err != nil {
		return nil, err
	}
	for i := range fmts {
		fmts[i].Deref()
	}
	return fmts[:n], nil
}

// ChooseFormat returns the index of the first entry of want
// that sf supports. Entries whose format is FUndefined are
// skipped.
func (d *Driver) ChooseFormat(sf driver.Surface, want []driver.SurfaceFormat) (int, error) {
	fmts, err := d.surfaceFormats(sf.(*surface).sf)
	if err != nil {
		return -1, err
	}
	for i, w := range want {
		if w.Format == driver.FUndefined {
			continue
		}
		vf, vcs := convPixelFmt(w.Format), convColorSpace(w.ColorSpace)
		for _, f := range fmts {
			if f.Format == vf && f.ColorSpace == vcs {
				return i, nil
			}
		}
	}
	return -1, driver.ErrFormat
}

// ChoosePresentMode returns mode if sf supports it.
// Otherwise it returns FIFO, which every surface supports.
func (d *Driver) ChoosePresentMode(sf driver.Surface, mode driver.PresentMode) (driver.PresentMode, error) {
	vsf := sf.(*surface).sf
	var n uint32
	if err := checkResult(vk.GetPhysicalDeviceSurfacePresentModes(d.pdev, vsf, &n, nil)); err != nil {
		return 0, err
	}
	modes := make([]vk.PresentMode, n)
	if err := checkResult(vk.GetPhysicalDeviceSurfacePresentModes(d.pdev, vsf, &n, modes)); err != nil {
		return 0, err
	}
	want := convPresentMode(mode)
	for _, m := range modes[:n] {
		if m == want {
			return mode, nil
		}
	}
	return driver.PFifo, nil
}

// chain implements driver.Chain.
type chain struct {
	d      *Driver
	sc     vk.Swapchain
	images []driver.Image
}

// image implements driver.Image.
type image struct {
	img  vk.Image
	pf   driver.PixelFmt
	size driver.Dim2D
}

func (m *image) Format() driver.PixelFmt { return m.pf }
func (m *image) Size() driver.Dim2D    { return m.size }

// NewChain creates a swapchain.
func (d *Driver) NewChain(cfg *driver.ChainConfig) (driver.Chain, error) {
	var caps vk.SurfaceCapabilities
	sf := cfg.Surface.(*surface).sf
	if err := checkResult(vk.GetPhysicalDeviceSurfaceCapabilities(d.pdev, sf, &caps)); err != nil {
		return nil, err
	}
	caps.Deref()

	// Prefer opaque composition.
	alpha := vk.CompositeAlphaOpaqueBit
	for _, x := range [...]vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(x) != 0 {
			alpha = x
			break
		}
	}
	var old vk.Swapchain
	if c, ok := cfg.Old.(*chain); ok && c != nil {
		old = c.sc
	}
	info := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         sf,
		MinImageCount:   uint32(cfg.MinImages),
		ImageFormat:     convPixelFmt(cfg.Format.Format),
		ImageColorSpace: convColorSpace(cfg.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  uint32(cfg.Extent.Width),
			Height: uint32(cfg.Extent.Height),
		},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   alpha,
		PresentMode:      convPresentMode(cfg.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}
	var sc vk.Swapchain
	if err := checkResult(vk.CreateSwapchain(d.dev, &info, nil, &sc)); err != nil {
		return nil, err
	}
	var n uint32
	if err := checkResult(vk.GetSwapchainImages(d.dev, sc, &n, nil)); err != nil {
		vk.DestroySwapchain(d.dev, sc, nil)
		return nil, err
	}
	imgs := make([]vk.Image, n)
	if err := checkResult(vk.GetSwapchainImages(d.dev, sc, &n, imgs)); err != nil {
		vk.DestroySwapchain(d.dev, sc, nil)
		return nil, err
	}
	c := &chain{d: d, sc: sc, images: make([]driver.Image, n)}
	for i := range c.images {
		c.images[i] = &image{imgs[i], cfg.Format.Format, cfg.Extent}
	}
	return c, nil
}

// Images returns the images of the chain.
func (c *chain) Images() ([]driver.Image, error) {
	if c.d == nil {
		return nil, driver.ErrSwapchain
	}
	return c.images, nil
}

// Next acquires the next image of the chain, signaling sem
// when it is ready for use.
// A suboptimal chain is not reported as an error.
func (c *chain) Next(timeout uint64, sem driver.Semaphore) (int, error) {
	var idx uint32
	res := vk.AcquireNextImage(c.d.dev, c.sc, timeout, sem.(*semaphore).s, vk.NullFence, &idx)
	if err := checkResult(res); err != nil {
		return -1, err
	}
	if res == vk.Timeout || res == vk.NotReady {
		return -1, driver.ErrSwapchain
	}
	return int(idx), nil
}

// Destroy destroys the chain.
// Its images must not be in use.
func (c *chain) Destroy() {
	if c == nil {
		return
	}
	if c.d != nil {
		vk.DestroySwapchain(c.d.dev, c.sc, nil)
	}
	*c = chain{}
}

// Present presents one image of each chain in p.
func (d *Driver) Present(p *driver.Presentation) error {
	if len(p.Chains) != len(p.Indices) {
		panic("vk: Presentation.Chains and Presentation.Indices lengths differ")
	}
	scs := make([]vk.Swapchain, len(p.Chains))
	idxs := make([]uint32, len(p.Indices))
	for i := range p.Chains {
		scs[i] = p.Chains[i].(*chain).sc
		idxs[i] = uint32(p.Indices[i])
	}
	res := make([]vk.Result, len(scs))
	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(p.Wait)),
		PWaitSemaphores:    semaphores(p.Wait),
		SwapchainCount:     uint32(len(scs)),
		PSwapchains:        scs,
		PImageIndices:      idxs,
		PResults:           res,
	}
	d.qmu.Lock()
	r := vk.QueuePresent(d.que, &info)
	d.qmu.Unlock()
	if err := checkResult(r); err != nil {
		return err
	}
	for _, x := range res {
		if err := checkResult(x); err != nil {
			return err
		}
	}
	return nil
}
