// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/driver/fake"
)

func TestImageBarrier(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	cb, err := g.NewCmdBuffer()
	c.Assert(err, qt.IsNil)

	fi := &fake.Image{}
	m := newImage(fi)
	c.Assert(m.Valid(), qt.IsTrue)
	c.Assert(m.Stage(), qt.Equals, driver.STop)
	c.Assert(m.Access(), qt.Equals, driver.ANone)
	c.Assert(m.Layout(), qt.Equals, driver.LUndefined)

	err = m.Barrier(cb, driver.STop, driver.SColorOutput, driver.AColorWrite, driver.LColorTarget)
	c.Assert(err, qt.IsNil)
	c.Assert(m.Stage(), qt.Equals, driver.SColorOutput)
	c.Assert(m.Access(), qt.Equals, driver.AColorWrite)
	c.Assert(m.Layout(), qt.Equals, driver.LColorTarget)

	rec := cmdOf(cb).Recorded()
	c.Assert(rec, qt.HasLen, 1)
	tr := rec[0]
	c.Assert(tr.SyncBefore, qt.Equals, driver.STop)
	c.Assert(tr.SyncAfter, qt.Equals, driver.SColorOutput)
	c.Assert(tr.AccessBefore, qt.Equals, driver.ANone)
	c.Assert(tr.AccessAfter, qt.Equals, driver.AColorWrite)
	c.Assert(tr.LayoutBefore, qt.Equals, driver.LUndefined)
	c.Assert(tr.LayoutAfter, qt.Equals, driver.LColorTarget)
	c.Assert(tr.Image, qt.Equals, driver.Image(fi))

	err = m.Barrier(cb, driver.SColorOutput, driver.SBottom, driver.AAnyRead, driver.LPresent)
	c.Assert(err, qt.IsNil)
	rec = cmdOf(cb).Recorded()
	c.Assert(rec, qt.HasLen, 1)
	c.Assert(rec[0].AccessBefore, qt.Equals, driver.AColorWrite)
	c.Assert(rec[0].LayoutBefore, qt.Equals, driver.LColorTarget)
	c.Assert(m.Layout(), qt.Equals, driver.LPresent)
}

func TestImageBarrierFailure(t *testing.T) {
	for _, op := range []fake.Op{fake.OpBegin, fake.OpEnd} {
		t.Run(string(op), func(t *testing.T) {
			c := qt.New(t)
			g := fake.New(fake.DefaultConfig())
			cb, err := g.NewCmdBuffer()
			c.Assert(err, qt.IsNil)
			m := newImage(&fake.Image{})
			err = m.Barrier(cb, driver.STop, driver.SColorOutput, driver.AColorWrite, driver.LColorTarget)
			c.Assert(err, qt.IsNil)

			g.Fail(op, fake.ErrInjected)
			err = m.Barrier(cb, driver.SColorOutput, driver.SBottom, driver.AAnyRead, driver.LPresent)
			c.Assert(err, qt.ErrorIs, fake.ErrInjected)
			c.Assert(m.Stage(), qt.Equals, driver.SColorOutput)
			c.Assert(m.Access(), qt.Equals, driver.AColorWrite)
			c.Assert(m.Layout(), qt.Equals, driver.LColorTarget)
		})
	}
}

func TestImageValid(t *testing.T) {
	c := qt.New(t)
	var m *Image
	c.Assert(m.Valid(), qt.IsFalse)
	c.Assert(newImage(nil).Valid(), qt.IsFalse)
}
