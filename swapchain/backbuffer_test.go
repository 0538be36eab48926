// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gviegas/present/driver/fake"
)

func TestBackbuffer(t *testing.T) {
	c := qt.New(t)
	g := fake.New(fake.DefaultConfig())
	bb, err := newBackbuffer(g)
	c.Assert(err, qt.IsNil)
	c.Assert(bb.UsageSemaphore(), qt.Not(qt.Equals), bb.RenderSemaphore())
	c.Assert(bb.UsageCmdBuffer(), qt.Not(qt.Equals), bb.RenderCmdBuffer())
	c.Assert(bb.State(), qt.Equals, Unbatched)

	uf, rf := fenceOf(bb.UsageFence()), fenceOf(bb.RenderFence())
	c.Assert(uf.Signaled(), qt.IsTrue)
	c.Assert(rf.Signaled(), qt.IsTrue)
	c.Assert(bb.WaitFences(), qt.IsNil)
	c.Assert(uf.Waits(), qt.Equals, 1)
	c.Assert(rf.Waits(), qt.Equals, 1)
	c.Assert(bb.ResetFences(), qt.IsNil)
	c.Assert(uf.Signaled(), qt.IsFalse)
	c.Assert(rf.Signaled(), qt.IsFalse)

	bb.state = BatchedPendingFence
	c.Assert(bb.Batched(), qt.IsTrue)
	c.Assert(bb.takeState(), qt.Equals, BatchedPendingFence)
	c.Assert(bb.Batched(), qt.IsFalse)
	c.Assert(bb.takeState(), qt.Equals, Unbatched)

	us := bb.UsageSemaphore().(*fake.Semaphore)
	cb := cmdOf(bb.RenderCmdBuffer())
	bb.Destroy()
	c.Assert(us.Destroyed(), qt.IsTrue)
	c.Assert(cb.Destroyed(), qt.IsTrue)
	c.Assert(uf.Destroyed(), qt.IsTrue)
}

func TestBackbufferFailure(t *testing.T) {
	for _, op := range []fake.Op{fake.OpNewSemaphore, fake.OpNewFence, fake.OpNewCmdBuffer} {
		t.Run(string(op), func(t *testing.T) {
			c := qt.New(t)
			g := fake.New(fake.DefaultConfig())
			g.Fail(op, fake.ErrInjected)
			bb, err := newBackbuffer(g)
			c.Assert(err, qt.ErrorIs, fake.ErrInjected)
			c.Assert(bb, qt.IsNil)
		})
	}
}
