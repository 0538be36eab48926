// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"errors"
)

// ErrInvalid means that the Swapchain could not be
// created or was already destroyed.
// Every operation on such a Swapchain fails with this
// error; it must be discarded and a new one created.
var ErrInvalid = errors.New("swapchain: invalid swapchain")

// ErrOutOfDate means that the chain no longer matches
// its surface.
// The Swapchain must be recreated for the same surface.
var ErrOutOfDate = errors.New("swapchain: surface out of date")

// ErrSurfaceLost means that the surface is gone.
// Both the surface and the Swapchain must be recreated.
var ErrSurfaceLost = errors.New("swapchain: surface lost")

// ErrImage means that an image obtained from the chain
// could not be used.
var ErrImage = errors.New("swapchain: invalid image")

// ErrNotAcquired means that Submit or Flush was called
// without a prior Acquire.
var ErrNotAcquired = errors.New("swapchain: no image acquired")

// StepError records a failed step of the acquire,
// submit or present protocol.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return "swapchain: " + e.Step + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }

// AcquireStatus is the outcome of Swapchain.Acquire.
type AcquireStatus int

// Acquire outcomes.
const (
	Success AcquireStatus = iota
	// The surface must be recreated.
	SurfaceLost
	// The Swapchain must be recreated.
	SurfaceOutOfDate
)

func (s AcquireStatus) String() string {
	switch s {
	case Success:
		return "success"
	case SurfaceLost:
		return "surface lost"
	case SurfaceOutOfDate:
		return "surface out of date"
	}
	return "unknown"
}

// StatusOf classifies an error returned by Acquire.
// Any failure other than ErrOutOfDate is reported as
// SurfaceLost.
func StatusOf(err error) AcquireStatus {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrOutOfDate):
		return SurfaceOutOfDate
	}
	return SurfaceLost
}
