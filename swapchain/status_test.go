// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestStatusOf(t *testing.T) {
	c := qt.New(t)
	for _, x := range []struct {
		err  error
		want AcquireStatus
	}{
		{nil, Success},
		{ErrOutOfDate, SurfaceOutOfDate},
		{&StepError{Step: stepNext, Err: fmt.Errorf("%w (%w)", ErrOutOfDate, errors.New("x"))}, SurfaceOutOfDate},
		{ErrSurfaceLost, SurfaceLost},
		{ErrInvalid, SurfaceLost},
		{ErrImage, SurfaceLost},
		{errors.New("unknown"), SurfaceLost},
	} {
		c.Assert(StatusOf(x.err), qt.Equals, x.want, qt.Commentf("%v", x.err))
	}
	c.Assert(Success.String(), qt.Equals, "success")
	c.Assert(SurfaceOutOfDate.String(), qt.Equals, "surface out of date")
}

func TestStepError(t *testing.T) {
	c := qt.New(t)
	err := error(&StepError{Step: stepPresent, Err: ErrSurfaceLost})
	c.Assert(err, qt.ErrorMatches, "swapchain: present: swapchain: surface lost")
	c.Assert(err, qt.ErrorIs, ErrSurfaceLost)
}
