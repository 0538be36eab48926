// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package ctxt

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gviegas/present/driver/fake"
)

func TestLoad(t *testing.T) {
	c := qt.New(t)
	c.Cleanup(Close)
	c.Assert(Load("FAKE"), qt.IsNil)
	c.Assert(Driver(), qt.IsNotNil)
	c.Assert(Driver().Name(), qt.Equals, "fake")
	g, ok := GPU().(*fake.GPU)
	c.Assert(ok, qt.IsTrue)
	c.Assert(g.Driver(), qt.Equals, Driver())

	p, ok := Presenter()
	c.Assert(ok, qt.IsTrue)
	c.Assert(p, qt.Equals, GPU())
	r, ok := Renderer()
	c.Assert(ok, qt.IsTrue)
	c.Assert(r, qt.Equals, GPU())
}

func TestLoadMissing(t *testing.T) {
	c := qt.New(t)
	c.Cleanup(Close)
	c.Assert(Load("no such driver"), qt.Equals, errNoDriver)
	c.Assert(Driver(), qt.IsNil)
	c.Assert(GPU(), qt.IsNil)
}

func TestClose(t *testing.T) {
	c := qt.New(t)
	c.Assert(Load("fake"), qt.IsNil)
	first := GPU()
	Close()
	c.Assert(Driver(), qt.IsNil)
	c.Assert(GPU(), qt.IsNil)
	// Reopening creates a new GPU.
	c.Assert(Load("fake"), qt.IsNil)
	c.Assert(GPU(), qt.Not(qt.Equals), first)
	Close()
	// Closing twice is fine.
	Close()
}
