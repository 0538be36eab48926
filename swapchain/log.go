// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"io"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

var loggerPtr atomic.Pointer[log.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// newNopLogger creates a logger that discards everything.
func newNopLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	l.SetLevel(log.PanicLevel)
	return l
}

// SetLogger sets the logger used by the package.
// By default, nothing is logged. Passing nil restores
// the default.
//
// Levels used:
//   - log.DebugLevel: chain creation and retirement
//   - log.WarnLevel: skipped batched presentations
//   - log.ErrorLevel: failed steps of a protocol
//
// Every failure carries a "step" field naming the
// operation that failed.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the logger used by the package.
func Logger() *log.Logger { return loggerPtr.Load() }

// stepError logs err as a failure of step and returns
// it wrapped with the step name.
func stepError(step string, err error) error {
	Logger().WithFields(log.Fields{
		"step": step,
		"err":  err,
	}).Error("swapchain step failed")
	return &StepError{Step: step, Err: err}
}
