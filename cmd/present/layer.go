// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package main

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/driver/fake"
	"github.com/gviegas/present/swapchain"
	"github.com/gviegas/present/wsi"
)

// windowSurfacer is implemented by drivers that create
// surfaces from wsi windows.
type windowSurfacer interface {
	NewSurface(win wsi.Window) (driver.Surface, error)
}

// repair is the action a layer needs before it can draw
// again.
type repair int

const (
	repairNone repair = iota
	repairChain
	repairSurface
)

func (r repair) String() string {
	switch r {
	case repairChain:
		return "chain"
	case repairSurface:
		return "surface"
	}
	return "none"
}

// repairFor returns the repair needed after err.
func repairFor(err error) repair {
	switch {
	case err == nil:
		return repairNone
	case errors.Is(err, swapchain.ErrSurfaceLost):
		return repairSurface
	}
	return repairChain
}

// layer is a window, its surface and its swapchain.
// A layer is drawn by a single goroutine at a time.
type layer struct {
	id  swapchain.ProducerID
	win wsi.Window
	sf  driver.Surface
	sc  *swapchain.Swapchain

	need   repair
	closed bool
	frames int
}

// newSurface creates a surface for win.
// Headless drivers ignore win.
func newSurface(gpu driver.GPU, win wsi.Window) (driver.Surface, error) {
	switch g := gpu.(type) {
	case *fake.GPU:
		return g.NewSurface(), nil
	case windowSurfacer:
		return g.NewSurface(win)
	}
	return nil, driver.ErrCannotPresent
}

// newLayer creates a layer presenting to win.
func (a *app) newLayer(id int, win wsi.Window) (*layer, error) {
	sf, err := newSurface(a.gpu, win)
	if err != nil {
		return nil, fmt.Errorf("layer %d: %w", id, err)
	}
	sc, err := swapchain.New(a.gpu, sf, a.rend, nil, a.gpu.QueueFamily())
	if err != nil {
		sc.Destroy()
		sf.Destroy()
		return nil, fmt.Errorf("layer %d: %w", id, err)
	}
	l := &layer{id: swapchain.ProducerID(id), win: win, sf: sf, sc: sc}
	l.logger().WithFields(log.Fields{
		"format": sc.Format().Format,
		"mode":   sc.PresentMode(),
		"images": sc.Len(),
		"size":   sc.Size(),
	}).Info("layer created")
	return l, nil
}

func (l *layer) logger() log.FieldLogger { return log.WithField("layer", int(l.id)) }

// acquire acquires an image and clears it.
// It returns false if the frame must be skipped.
func (l *layer) acquire(color [4]float32) bool {
	ds, err := l.sc.Acquire()
	if err != nil {
		l.fail("acquire", err)
		return false
	}
	ds.Clear(color)
	return true
}

// draw draws and presents one frame by itself.
func (l *layer) draw(color [4]float32) {
	if !l.acquire(color) {
		return
	}
	if err := l.sc.Submit(); err != nil {
		l.fail("submit", err)
		return
	}
	l.frames++
}

// drawBatched draws one frame and registers it with agg.
func (l *layer) drawBatched(color [4]float32, agg *swapchain.Aggregator) {
	if !l.acquire(color) {
		return
	}
	if err := l.sc.Flush(); err != nil {
		l.fail("flush", err)
		return
	}
	l.sc.Register(agg, l.id)
	l.frames++
}

func (l *layer) fail(op string, err error) {
	need := repairFor(err)
	if need > l.need {
		l.need = need
	}
	l.logger().WithFields(log.Fields{
		"op":     op,
		"status": swapchain.StatusOf(err),
		"repair": need,
		"err":    err,
	}).Warn("frame dropped")
}

// repair rebuilds what a previous failure broke.
// It must be called from the main goroutine.
func (a *app) repair(l *layer) error {
	switch l.need {
	case repairNone:
		return nil
	case repairChain:
		sc, err := l.sc.Rebuild()
		l.sc = sc
		if err != nil {
			return err
		}
	case repairSurface:
		l.sc.Destroy()
		l.sf.Destroy()
		sf, err := newSurface(a.gpu, l.win)
		if err != nil {
			return err
		}
		l.sf = sf
		if l.sc, err = swapchain.New(a.gpu, sf, a.rend, nil, a.gpu.QueueFamily()); err != nil {
			return err
		}
	}
	l.logger().WithFields(log.Fields{
		"repair": l.need,
		"size":   l.sc.Size(),
	}).Info("layer repaired")
	l.need = repairNone
	return nil
}

// destroy destroys the layer. It does not close the window.
func (l *layer) destroy() {
	if l.sc != nil {
		l.sc.Destroy()
	}
	if l.sf != nil {
		l.sf.Destroy()
	}
	*l = layer{id: l.id, closed: true}
}
