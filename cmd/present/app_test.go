// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package main

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/driver/fake"
	"github.com/gviegas/present/internal/config"
	"github.com/gviegas/present/swapchain"
	"github.com/gviegas/present/wsi"
)

type stubWindow struct {
	w, h   int
	closed bool
}

func (w *stubWindow) Map() error            { return nil }
func (w *stubWindow) Unmap() error          { return nil }
func (w *stubWindow) SetTitle(string) error { return nil }
func (w *stubWindow) Close()                { w.closed = true }
func (w *stubWindow) Width() int            { return w.w }
func (w *stubWindow) Height() int           { return w.h }
func (w *stubWindow) Title() string         { return "" }

func (w *stubWindow) Resize(width, height int) error {
	w.w, w.h = width, height
	return nil
}

func testConfig(layers, frames int, batched bool) *config.Config {
	cfg := config.Default()
	cfg.Driver = "fake"
	cfg.Layers = layers
	cfg.Frames = frames
	cfg.Batched = batched
	return cfg
}

func newTestApp(c *qt.C, cfg *config.Config, wins []wsi.Window) (*app, *fake.GPU) {
	g := fake.New(fake.DefaultConfig())
	a, err := newApp(cfg, g, wins)
	c.Assert(err, qt.IsNil)
	c.Cleanup(a.destroy)
	return a, g
}

func TestAppSingle(t *testing.T) {
	c := qt.New(t)
	a, g := newTestApp(c, testConfig(2, 5, false), nil)
	c.Assert(a.layers, qt.HasLen, 2)
	c.Assert(a.run(nil), qt.IsNil)
	c.Assert(a.frame, qt.Equals, 5)

	pres := g.Presentations()
	c.Assert(pres, qt.HasLen, 10)
	for _, p := range pres {
		c.Assert(p.Chains, qt.HasLen, 1)
	}
	for _, l := range a.layers {
		c.Assert(l.frames, qt.Equals, 5)
		c.Assert(l.need, qt.Equals, repairNone)
	}
	c.Assert(a.agg.Len(), qt.Equals, 0)
}

func TestAppBatched(t *testing.T) {
	c := qt.New(t)
	a, g := newTestApp(c, testConfig(3, 4, true), nil)
	c.Assert(a.run(nil), qt.IsNil)
	c.Assert(a.frame, qt.Equals, 4)

	pres := g.Presentations()
	c.Assert(pres, qt.HasLen, 4)
	for _, p := range pres {
		c.Assert(p.Chains, qt.HasLen, 3)
		c.Assert(p.Wait, qt.HasLen, 3)
	}
	for _, l := range a.layers {
		c.Assert(l.frames, qt.Equals, 4)
	}
	c.Assert(a.agg.Len(), qt.Equals, 0)
	c.Assert(a.fence.(*fake.Fence).Signaled(), qt.IsFalse)
	c.Assert(a.fence.(*fake.Fence).Waits(), qt.Equals, 4)
}

func TestAppHeadlessFrames(t *testing.T) {
	c := qt.New(t)
	a, _ := newTestApp(c, testConfig(1, 0, false), nil)
	c.Assert(a.frames, qt.Equals, headlessFrames)
}

func TestAppRepairChain(t *testing.T) {
	c := qt.New(t)
	a, g := newTestApp(c, testConfig(1, 3, false), nil)
	g.Fail(fake.OpNext, driver.ErrSwapchain)
	c.Assert(a.run(nil), qt.IsNil)

	// The first frame is dropped and the chain is rebuilt
	// before the second one.
	c.Assert(g.Count(fake.OpNewChain), qt.Equals, 2)
	c.Assert(g.Presentations(), qt.HasLen, 2)
	l := a.layers[0]
	c.Assert(l.frames, qt.Equals, 2)
	c.Assert(l.need, qt.Equals, repairNone)
	c.Assert(l.sc.Valid(), qt.IsTrue)
}

func TestAppRepairSurface(t *testing.T) {
	c := qt.New(t)
	a, g := newTestApp(c, testConfig(1, 3, false), nil)
	sf := a.layers[0].sf.(*fake.Surface)
	g.Fail(fake.OpNext, driver.ErrWindow)
	c.Assert(a.run(nil), qt.IsNil)

	l := a.layers[0]
	c.Assert(l.sf, qt.Not(qt.Equals), driver.Surface(sf))
	c.Assert(g.Count(fake.OpNewChain), qt.Equals, 2)
	c.Assert(l.frames, qt.Equals, 2)
	c.Assert(l.need, qt.Equals, repairNone)
}

func TestAppRepairBatched(t *testing.T) {
	c := qt.New(t)
	a, g := newTestApp(c, testConfig(2, 3, true), nil)
	g.Fail(fake.OpPresent, driver.ErrSwapchain)
	c.Assert(a.run(nil), qt.IsNil)

	// Both layers are rebuilt after the failed batch.
	c.Assert(g.Count(fake.OpNewChain), qt.Equals, 4)
	c.Assert(g.Presentations(), qt.HasLen, 2)
	for _, l := range a.layers {
		c.Assert(l.need, qt.Equals, repairNone)
		c.Assert(l.sc.Valid(), qt.IsTrue)
	}
}

func TestAppWindows(t *testing.T) {
	c := qt.New(t)
	wins := []wsi.Window{&stubWindow{w: 800, h: 600}, &stubWindow{w: 800, h: 600}}
	a, _ := newTestApp(c, testConfig(2, 0, false), wins)
	c.Assert(a.frames, qt.Equals, 0)
	c.Assert(a.done(), qt.IsFalse)

	a.WindowResize(wins[1], 640, 480)
	c.Assert(a.layers[1].need, qt.Equals, repairChain)
	c.Assert(a.step(), qt.IsNil)
	c.Assert(a.layers[1].need, qt.Equals, repairNone)

	a.WindowClose(wins[0])
	c.Assert(wins[0].(*stubWindow).closed, qt.IsTrue)
	c.Assert(a.layers[0].closed, qt.IsTrue)
	c.Assert(a.open(), qt.HasLen, 1)
	c.Assert(a.done(), qt.IsFalse)
	c.Assert(a.step(), qt.IsNil)
	c.Assert(a.layers[0].frames, qt.Equals, 0)
	c.Assert(a.layers[1].frames, qt.Equals, 2)

	// Closing twice does nothing.
	a.WindowClose(wins[0])
	a.WindowClose(wins[1])
	c.Assert(a.done(), qt.IsTrue)
}

func TestAppKeys(t *testing.T) {
	c := qt.New(t)
	a, _ := newTestApp(c, testConfig(2, 10, false), nil)

	a.KeyboardKey(wsi.KeyB, true)
	c.Assert(a.batched, qt.IsTrue)
	a.KeyboardKey(wsi.KeyB, false)
	c.Assert(a.batched, qt.IsTrue)
	a.KeyboardKey(wsi.KeyB, true)
	c.Assert(a.batched, qt.IsFalse)

	a.KeyboardKey(wsi.KeyR, true)
	for _, l := range a.layers {
		c.Assert(l.need, qt.Equals, repairChain)
	}

	c.Assert(a.done(), qt.IsFalse)
	a.KeyboardKey(wsi.KeyQ, true)
	c.Assert(a.done(), qt.IsTrue)
	c.Assert(a.run(nil), qt.IsNil)
	c.Assert(a.frame, qt.Equals, 0)
}

func TestAppToggleBatched(t *testing.T) {
	c := qt.New(t)
	a, g := newTestApp(c, testConfig(2, 4, false), nil)
	n := 0
	c.Assert(a.run(func() {
		if n == 2 {
			a.KeyboardKey(wsi.KeyB, true)
		}
		n++
	}), qt.IsNil)

	// Two frames per layer, then two batches.
	pres := g.Presentations()
	c.Assert(pres, qt.HasLen, 6)
	c.Assert(pres[4].Chains, qt.HasLen, 2)
	c.Assert(pres[5].Chains, qt.HasLen, 2)
}

func TestRepairFor(t *testing.T) {
	c := qt.New(t)
	for _, x := range [...]struct {
		err  error
		want repair
	}{
		{nil, repairNone},
		{swapchain.ErrOutOfDate, repairChain},
		{swapchain.ErrInvalid, repairChain},
		{swapchain.ErrSurfaceLost, repairSurface},
		{&swapchain.StepError{Step: "next", Err: swapchain.ErrSurfaceLost}, repairSurface},
		{fake.ErrInjected, repairChain},
	} {
		c.Assert(repairFor(x.err), qt.Equals, x.want, qt.Commentf("%v", x.err))
	}
	c.Assert(repairSurface.String(), qt.Equals, "surface")
}
