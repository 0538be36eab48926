// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package ctxt provides the GPU driver used by the demo.
package ctxt

import (
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/gviegas/present/driver"
)

var (
	drv driver.Driver
	gpu driver.GPU
)

var errNoDriver = errors.New("ctxt: driver not found")

// Load attempts to load any driver whose name contains
// the name string. It is case insensitive.
// If name is the empty string, then all registered
// drivers are considered.
// A previously loaded driver is closed first.
func Load(name string) error {
	Close()
	drivers := driver.Drivers()
	err := errNoDriver
	name = strings.ToLower(name)
	for i := range drivers {
		if !strings.Contains(strings.ToLower(drivers[i].Name()), name) {
			continue
		}
		var u driver.GPU
		if u, err = drivers[i].Open(); err != nil {
			log.WithFields(log.Fields{
				"driver": drivers[i].Name(),
				"err":    err,
			}).Warn("driver failed to open")
			continue
		}
		drv = drivers[i]
		gpu = u
		log.WithField("driver", drv.Name()).Info("driver loaded")
		return nil
	}
	return err
}

// Driver returns the driver.Driver.
func Driver() driver.Driver { return drv }

// GPU returns the driver.GPU.
func GPU() driver.GPU { return gpu }

// Presenter returns GPU as a driver.Presenter, if it
// implements it.
func Presenter() (driver.Presenter, bool) {
	p, ok := gpu.(driver.Presenter)
	return p, ok
}

// Renderer returns GPU as a driver.Renderer, if it
// implements it.
func Renderer() (driver.Renderer, bool) {
	r, ok := gpu.(driver.Renderer)
	return r, ok
}

// Close closes the loaded driver, if any.
func Close() {
	if drv != nil {
		drv.Close()
	}
	drv = nil
	gpu = nil
}
