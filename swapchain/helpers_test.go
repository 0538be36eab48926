// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	qt "github.com/frankban/quicktest"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/driver/fake"
)

// Helpers for testing.

// newGPU creates a fake GPU and a surface for it.
func newGPU(cfg fake.Config) (*fake.GPU, *fake.Surface) {
	g := fake.New(cfg)
	return g, g.NewSurface()
}

// newValid creates a Swapchain that must be valid.
// It is destroyed when the test ends.
func newValid(c *qt.C, g *fake.GPU, sf *fake.Surface) *Swapchain {
	s, err := New(g, sf, g, nil, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Valid(), qt.IsTrue)
	c.Cleanup(s.Destroy)
	return s
}

// nativeOf returns the fake chain of s.
func nativeOf(c *qt.C, s *Swapchain) *fake.Chain {
	native, err := s.state.chain()
	c.Assert(err, qt.IsNil)
	return native.(*fake.Chain)
}

// fenceOf returns the fake fence f.
func fenceOf(f driver.Fence) *fake.Fence { return f.(*fake.Fence) }

// cmdOf returns the fake command buffer cb.
func cmdOf(cb driver.CmdBuffer) *fake.CmdBuffer { return cb.(*fake.CmdBuffer) }

// frame runs Acquire followed by Submit.
func frame(c *qt.C, s *Swapchain) driver.DrawSurface {
	ds, err := s.Acquire()
	c.Assert(err, qt.IsNil)
	c.Assert(ds, qt.IsNotNil)
	c.Assert(s.Submit(), qt.IsNil)
	return ds
}
