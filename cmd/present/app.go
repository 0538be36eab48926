// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package main

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/internal/config"
	"github.com/gviegas/present/swapchain"
	"github.com/gviegas/present/wsi"
)

// Frames presented in headless mode when no frame count
// is configured.
const headlessFrames = 120

// Frames per colour cycle.
const colorPeriod = 240

// app drives every layer.
type app struct {
	cfg  *config.Config
	gpu  driver.GPU
	rend driver.Renderer

	layers []*layer
	agg    *swapchain.Aggregator
	fence  driver.Fence

	batched bool
	quit    bool
	frame   int
	frames  int
}

// newApp creates an app with one layer per window.
// If wins is nil, layers are headless.
func newApp(cfg *config.Config, gpu driver.GPU, wins []wsi.Window) (*app, error) {
	rend, ok := gpu.(driver.Renderer)
	if !ok {
		return nil, fmt.Errorf("driver %s cannot render", gpu.Driver().Name())
	}
	a := &app{
		cfg:     cfg,
		gpu:     gpu,
		rend:    rend,
		agg:     swapchain.NewAggregator(),
		batched: cfg.Batched,
		frames:  cfg.Frames,
	}
	if wins == nil && a.frames == 0 {
		a.frames = headlessFrames
	}
	fence, err := gpu.NewFence(false)
	if err != nil {
		return nil, err
	}
	a.fence = fence
	for i := range cfg.Layers {
		var win wsi.Window
		if wins != nil {
			win = wins[i]
		}
		l, err := a.newLayer(i, win)
		if err != nil {
			a.destroy()
			return nil, err
		}
		a.layers = append(a.layers, l)
	}
	return a, nil
}

// done returns whether the main loop must stop.
func (a *app) done() bool {
	if a.quit {
		return true
	}
	if a.frames > 0 && a.frame >= a.frames {
		return true
	}
	for _, l := range a.layers {
		if !l.closed {
			return false
		}
	}
	return true
}

// open returns the layers that were not closed.
func (a *app) open() []*layer {
	ls := make([]*layer, 0, len(a.layers))
	for _, l := range a.layers {
		if !l.closed {
			ls = append(ls, l)
		}
	}
	return ls
}

// step draws and presents one frame of every open layer.
// Each layer is drawn by its own goroutine.
func (a *app) step() error {
	ls := a.open()
	for _, l := range ls {
		if err := a.repair(l); err != nil {
			l.logger().WithField("err", err).Warn("repair failed")
		}
	}
	// Draw failures are kept per layer in l.need and
	// repaired before the next frame, so they never
	// stop the loop. eg only reports goroutine errors.
	var eg errgroup.Group
	for _, l := range ls {
		color := layerColor(int(l.id), len(a.layers), a.frame, colorPeriod)
		if a.batched {
			eg.Go(func() error {
				l.drawBatched(color, a.agg)
				return nil
			})
		} else {
			eg.Go(func() error {
				l.draw(color)
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if a.batched {
		if err := a.presentAll(); err != nil {
			return err
		}
	}
	a.frame++
	return nil
}

// presentAll presents the registered layers and waits for
// the batch to complete.
func (a *app) presentAll() error {
	if a.agg.Len() == 0 {
		return nil
	}
	if err := a.agg.PresentAll(a.fence); err != nil {
		log.WithField("err", err).Warn("batched present failed")
		for _, l := range a.open() {
			l.fail("present-all", err)
		}
		// The fence may never signal.
		if err := a.gpu.WaitIdle(); err != nil {
			return err
		}
	} else if err := a.gpu.WaitFences([]driver.Fence{a.fence}); err != nil {
		return err
	}
	return a.gpu.ResetFences([]driver.Fence{a.fence})
}

// run runs the main loop until done.
// dispatch is called before every frame.
func (a *app) run(dispatch func()) error {
	log.WithFields(a.cfg.Fields()).Info("running")
	for !a.done() {
		if dispatch != nil {
			dispatch()
			if a.done() {
				break
			}
		}
		if err := a.step(); err != nil {
			return err
		}
	}
	log.WithField("frames", a.frame).Info("done")
	return nil
}

// layerOf returns the layer that presents to win.
func (a *app) layerOf(win wsi.Window) *layer {
	for _, l := range a.layers {
		if l.win == win && !l.closed {
			return l
		}
	}
	return nil
}

// WindowClose implements wsi.WindowHandler.
func (a *app) WindowClose(win wsi.Window) {
	if l := a.layerOf(win); l != nil {
		if err := a.gpu.WaitIdle(); err != nil {
			log.WithField("err", err).Warn("wait idle failed")
		}
		l.destroy()
		win.Close()
	}
}

// WindowResize implements wsi.WindowHandler.
func (a *app) WindowResize(win wsi.Window, w, h int) {
	if l := a.layerOf(win); l != nil {
		l.need = max(l.need, repairChain)
		l.logger().WithFields(log.Fields{"width": w, "height": h}).Debug("resized")
	}
}

// KeyboardKey implements wsi.KeyboardHandler.
func (a *app) KeyboardKey(key wsi.Key, pressed bool) {
	if !pressed {
		return
	}
	switch key {
	case wsi.KeyEsc, wsi.KeyQ:
		a.quit = true
	case wsi.KeyB:
		a.batched = !a.batched
		log.WithField("batched", a.batched).Info("present mode toggled")
	case wsi.KeyR:
		for _, l := range a.open() {
			l.need = max(l.need, repairChain)
		}
	}
}

// destroy destroys every layer and the fence.
func (a *app) destroy() {
	if err := a.gpu.WaitIdle(); err != nil && !errors.Is(err, driver.ErrFatal) {
		log.WithField("err", err).Warn("wait idle failed")
	}
	for _, l := range a.layers {
		l.destroy()
	}
	a.agg.Reset()
	if a.fence != nil {
		a.fence.Destroy()
	}
}
