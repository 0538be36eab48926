// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"testing"

	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/driver/fake"
)

func TestSetLogger(t *testing.T) {
	c := qt.New(t)
	def := Logger()
	c.Assert(def, qt.IsNotNil)

	l, hook := test.NewNullLogger()
	SetLogger(l)
	c.Cleanup(func() { SetLogger(nil) })
	c.Assert(Logger(), qt.Equals, l)

	g, sf := newGPU(fake.DefaultConfig())
	s := newValid(c, g, sf)
	g.Fail(fake.OpNext, driver.ErrSwapchain)
	_, err := s.Acquire()
	c.Assert(err, qt.ErrorIs, ErrOutOfDate)

	e := hook.LastEntry()
	c.Assert(e, qt.IsNotNil)
	c.Assert(e.Level, qt.Equals, log.ErrorLevel)
	c.Assert(e.Data["step"], qt.Equals, stepNext)
	c.Assert(e.Data["err"], qt.ErrorIs, driver.ErrSwapchain)

	SetLogger(nil)
	c.Assert(Logger(), qt.Not(qt.Equals), l)
	c.Assert(Logger().GetLevel(), qt.Equals, log.PanicLevel)
}
