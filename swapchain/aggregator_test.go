// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/driver/fake"
)

// newLayers creates n Swapchains on the same GPU, each
// with its own surface.
func newLayers(c *qt.C, g *fake.GPU, n int) []*Swapchain {
	scs := make([]*Swapchain, n)
	for i := range scs {
		scs[i] = newValid(c, g, g.NewSurface())
	}
	return scs
}

func TestAggregatorPresentAll(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	scs := newLayers(c, g, 3)
	a := NewAggregator()
	fence, err := g.NewFence(false)
	c.Assert(err, qt.IsNil)

	var eg errgroup.Group
	for i, sc := range scs {
		eg.Go(func() error {
			ds, err := sc.Acquire()
			if err != nil {
				return err
			}
			ds.Clear([4]float32{float32(i) / 3, 0, 0, 1})
			if err := sc.Flush(); err != nil {
				return err
			}
			sc.Register(a, ProducerID(i))
			return nil
		})
	}
	c.Assert(eg.Wait(), qt.IsNil)
	c.Assert(a.Len(), qt.Equals, 3)

	g.ResetCalls()
	c.Assert(a.PresentAll(fence), qt.IsNil)
	c.Assert(g.Calls(), qt.DeepEquals, []fake.Op{fake.OpSubmit, fake.OpPresent})
	c.Assert(a.Len(), qt.Equals, 0)
	c.Assert(fenceOf(fence).Signaled(), qt.IsTrue)

	subm := g.Submissions()
	c.Assert(subm, qt.HasLen, 1)
	c.Assert(subm[0].Wait, qt.HasLen, 0)
	c.Assert(subm[0].Signal, qt.HasLen, 3)
	c.Assert(subm[0].Cmd, qt.HasLen, 3)
	c.Assert(subm[0].Fence, qt.Equals, fence)

	pres := g.Presentations()
	c.Assert(pres, qt.HasLen, 1)
	c.Assert(pres[0].Chains, qt.HasLen, 3)
	c.Assert(pres[0].Indices, qt.HasLen, 3)
	c.Assert(pres[0].Wait, qt.HasLen, 3)

	for i, sc := range scs {
		bb := sc.Backbuffer()
		c.Assert(bb.State(), qt.Equals, BatchedPendingFence)
		found := false
		for j := range pres[0].Chains {
			if pres[0].Chains[j] == driver.Chain(nativeOf(c, sc)) {
				found = true
				c.Assert(pres[0].Indices[j], qt.Equals, sc.ImageIndex())
				c.Assert(pres[0].Wait[j], qt.Equals, bb.RenderSemaphore())
				c.Assert(subm[0].Signal[j], qt.Equals, bb.RenderSemaphore())
				c.Assert(subm[0].Cmd[j], qt.Equals, bb.RenderCmdBuffer())
			}
		}
		c.Assert(found, qt.IsTrue, qt.Commentf("layer %d", i))
		c.Assert(nativeOf(c, sc).Presents(), qt.Equals, 1)
	}
}

func TestAggregatorOrder(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	scs := newLayers(c, g, 3)
	a := NewAggregator()
	for _, sc := range scs {
		_, err := sc.Acquire()
		c.Assert(err, qt.IsNil)
		c.Assert(sc.Flush(), qt.IsNil)
	}
	a.Register(7, scs[0])
	a.Register(3, scs[1])
	// Overwrites the registration of producer 7.
	a.Register(7, scs[2])
	c.Assert(a.Len(), qt.Equals, 2)

	fence, _ := g.NewFence(false)
	c.Assert(a.PresentAll(fence), qt.IsNil)
	pres := g.Presentations()
	c.Assert(pres, qt.HasLen, 1)
	c.Assert(pres[0].Chains, qt.HasLen, 2)
	c.Assert(pres[0].Chains[0], qt.Equals, driver.Chain(nativeOf(c, scs[2])))
	c.Assert(pres[0].Chains[1], qt.Equals, driver.Chain(nativeOf(c, scs[1])))
	c.Assert(scs[0].Backbuffer().Batched(), qt.IsFalse)
}

func TestAggregatorDuplicate(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	scs := newLayers(c, g, 2)
	a := NewAggregator()
	for _, sc := range scs {
		_, err := sc.Acquire()
		c.Assert(err, qt.IsNil)
		c.Assert(sc.Flush(), qt.IsNil)
	}
	a.Register(1, scs[0])
	a.Register(2, scs[1])
	a.Register(3, scs[0])
	c.Assert(a.Len(), qt.Equals, 3)

	fence, _ := g.NewFence(false)
	g.ResetCalls()
	c.Assert(a.PresentAll(fence), qt.IsNil)
	subm := g.Submissions()
	c.Assert(subm, qt.HasLen, 1)
	c.Assert(subm[0].Cmd, qt.HasLen, 2)
	c.Assert(subm[0].Signal, qt.HasLen, 2)
	pres := g.Presentations()
	c.Assert(pres, qt.HasLen, 1)
	c.Assert(pres[0].Chains, qt.HasLen, 2)
	c.Assert(pres[0].Chains[0], qt.Equals, driver.Chain(nativeOf(c, scs[0])))
	c.Assert(pres[0].Chains[1], qt.Equals, driver.Chain(nativeOf(c, scs[1])))
	c.Assert(a.Len(), qt.Equals, 0)
}

func TestAggregatorEmpty(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	a := NewAggregator()
	fence, _ := g.NewFence(false)
	g.ResetCalls()
	c.Assert(a.PresentAll(fence), qt.IsNil)
	c.Assert(g.Calls(), qt.HasLen, 0)
	c.Assert(fenceOf(fence).Signaled(), qt.IsFalse)
}

func TestAggregatorFailure(t *testing.T) {
	for _, x := range []struct {
		op   fake.Op
		err  error
		is   error
		pres int
	}{
		{fake.OpSubmit, fake.ErrInjected, fake.ErrInjected, 0},
		{fake.OpPresent, driver.ErrSwapchain, ErrOutOfDate, 0},
		{fake.OpPresent, driver.ErrWindow, ErrSurfaceLost, 0},
	} {
		t.Run(string(x.op), func(t *testing.T) {
			c := qt.New(t)
			g := fake.New(fake.DefaultConfig())
			scs := newLayers(c, g, 2)
			a := NewAggregator()
			for i, sc := range scs {
				_, err := sc.Acquire()
				c.Assert(err, qt.IsNil)
				c.Assert(sc.Flush(), qt.IsNil)
				sc.Register(a, ProducerID(i))
			}
			fence, _ := g.NewFence(false)
			g.Fail(x.op, x.err)
			err := a.PresentAll(fence)
			c.Assert(err, qt.ErrorIs, x.is)
			c.Assert(a.Len(), qt.Equals, 0)
			c.Assert(g.Presentations(), qt.HasLen, x.pres)

			// A failed cycle does not affect the next one.
			for i, sc := range scs {
				_, err := sc.Acquire()
				c.Assert(err, qt.IsNil)
				c.Assert(sc.Flush(), qt.IsNil)
				sc.Register(a, ProducerID(i))
			}
			c.Assert(a.PresentAll(fence), qt.IsNil)
			c.Assert(g.Presentations(), qt.HasLen, 1)
		})
	}
}

func TestAggregatorSkipsInvalid(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	scs := newLayers(c, g, 2)
	a := NewAggregator()

	_, err := scs[0].Acquire()
	c.Assert(err, qt.IsNil)
	c.Assert(scs[0].Flush(), qt.IsNil)
	scs[0].Register(a, 0)
	// Never acquired.
	scs[1].Register(a, 1)

	bad := newValid(c, g, g.NewSurface())
	bad.Destroy()
	bad.Register(a, 2)

	fence, _ := g.NewFence(false)
	c.Assert(a.PresentAll(fence), qt.IsNil)
	pres := g.Presentations()
	c.Assert(pres, qt.HasLen, 1)
	c.Assert(pres[0].Chains, qt.HasLen, 1)
	c.Assert(pres[0].Chains[0], qt.Equals, driver.Chain(nativeOf(c, scs[0])))

	scs[1].Register(a, 1)
	c.Assert(a.PresentAll(fence), qt.Not(qt.IsNil))
	c.Assert(a.Len(), qt.Equals, 0)
}

func TestAggregatorReset(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	scs := newLayers(c, g, 1)
	a := NewAggregator()
	scs[0].Register(a, 0)
	c.Assert(a.Len(), qt.Equals, 1)
	a.Reset()
	c.Assert(a.Len(), qt.Equals, 0)
	fence, _ := g.NewFence(false)
	g.ResetCalls()
	c.Assert(a.PresentAll(fence), qt.IsNil)
	c.Assert(g.Count(fake.OpSubmit), qt.Equals, 0)
}

func TestAggregatorConcurrent(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	const layers = 4
	const frames = 10
	scs := newLayers(c, g, layers)
	a := NewAggregator()
	fence, _ := g.NewFence(false)

	for f := range frames {
		var eg errgroup.Group
		for i, sc := range scs {
			eg.Go(func() error {
				if _, err := sc.Acquire(); err != nil {
					return err
				}
				if err := sc.Flush(); err != nil {
					return err
				}
				sc.Register(a, ProducerID(i))
				return nil
			})
		}
		c.Assert(eg.Wait(), qt.IsNil)
		c.Assert(g.ResetFences([]driver.Fence{fence}), qt.IsNil)
		c.Assert(a.PresentAll(fence), qt.IsNil, qt.Commentf("frame %d", f))
		c.Assert(g.WaitFences([]driver.Fence{fence}), qt.IsNil)
	}
	c.Assert(g.Presentations(), qt.HasLen, frames)
	for _, sc := range scs {
		c.Assert(nativeOf(c, sc).Presents(), qt.Equals, frames)
	}
}
