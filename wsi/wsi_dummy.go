// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"errors"
	"unsafe"
)

var errMissing = errors.New("no wsi implementation")

func initDummy() {
	newWindow = newWindowDummy
	dispatch = dispatchDummy
	setAppName = setAppNameDummy
	deinit = func() {}
	vulkanProcAddr = func() unsafe.Pointer { return nil }
	vulkanExtensions = func() []string { return nil }
	vulkanSurface = func(Window, any) (unsafe.Pointer, error) { return nil, errMissing }
	keymap = nil
	platform = None
}

func newWindowDummy(int, int, string) (Window, error) {
	return nil, errMissing
}

func dispatchDummy()         {}
func setAppNameDummy(string) {}

// keymap is set by the platform in use.
var keymap []Key
