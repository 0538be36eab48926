// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package vk implements driver interfaces using the Vulkan API.
package vk

import (
	"errors"
	"sync"

	vk "github.com/goki/vulkan"
	log "github.com/sirupsen/logrus"

	"github.com/gviegas/present/driver"
	"github.com/gviegas/present/wsi"
)

const driverName = "vulkan"

// Driver implements driver.Driver, driver.GPU,
// driver.Presenter and driver.Renderer.
type Driver struct {
	inst  vk.Instance
	pdev  vk.PhysicalDevice
	dname string
	dev   vk.Device
	que   vk.Queue
	qfam  uint32

	// Queue submission requires that the queue handle
	// be externally synchronized. qmu allows Submit and
	// Present calls to run concurrently.
	qmu sync.Mutex

	// Whether surface extensions were enabled.
	canPresent bool
}

func init() {
	driver.Register(&Driver{})
}

// initInstance initializes the Vulkan instance.
func (d *Driver) initInstance() error {
	if p := wsi.VulkanProcAddr(); p != nil {
		vk.SetGetInstanceProcAddr(p)
	} else if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		log.WithField("err", err).Debug("vulkan loader not found")
		return driver.ErrNotInstalled
	}
	if err := vk.Init(); err != nil {
		return driver.ErrNotInstalled
	}

	exts := availableExts(wsi.VulkanExtensions())
	d.canPresent = len(exts) != 0
	info := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:      vk.StructureTypeApplicationInfo,
			ApiVersion: vk.MakeVersion(1, 0, 0),
		},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: safeStrings(exts),
	}
	if err := checkResult(vk.CreateInstance(&info, nil, &d.inst)); err != nil {
		return err
	}
	vk.InitInstance(d.inst)
	return nil
}

// availableExts filters the instance extensions in want
// that the loader does not expose.
// Surface extensions are all-or-nothing: if any is
// missing, none is returned.
func availableExts(want []string) []string {
	if len(want) == 0 {
		return nil
	}
	var n uint32
	if checkResult(vk.EnumerateInstanceExtensionProperties("", &n, nil)) != nil || n == 0 {
		return nil
	}
	props := make([]vk.ExtensionProperties, n)
	if checkResult(vk.EnumerateInstanceExtensionProperties("", &n, props)) != nil {
		return nil
	}
	have := make(map[string]bool, n)
	for i := range props {
		props[i].Deref()
		have[vk.ToString(props[i].ExtensionName[:])] = true
	}
	for _, e := range want {
		if !have[e] {
			log.WithField("ext", e).Warn("instance extension not available")
			return nil
		}
	}
	return want
}

// initDevice initializes the Vulkan device.
func (d *Driver) initDevice() error {
	var n uint32
	if err := checkResult(vk.EnumeratePhysicalDevices(d.inst, &n, nil)); err != nil {
		return err
	}
	if n == 0 {
		return driver.ErrNoDevice
	}
	devs := make([]vk.PhysicalDevice, n)
	if err := checkResult(vk.EnumeratePhysicalDevices(d.inst, &n, devs)); err != nil {
		return err
	}

	// Select a suitable physical device to use. The bare minimum
	// is a device with a queue supporting graphics operations.
	// Ideally, the device will be capable of creating swapchains
	// and be hardware-accelerated.
	weight := 0
	for _, dev := range devs {
		fam := graphicsFamily(dev)
		if fam < 0 {
			continue
		}
		var prop vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(dev, &prop)
		prop.Deref()
		wgt := 1
		switch prop.DeviceType {
		case vk.PhysicalDeviceTypeIntegratedGpu, vk.PhysicalDeviceTypeDiscreteGpu:
			wgt++
		}
		if hasDeviceExt(dev, vk.KhrSwapchainExtensionName) {
			wgt += 2
		}
		if wgt > weight {
			d.pdev = dev
			d.dname = vk.ToString(prop.DeviceName[:])
			d.qfam = uint32(fam)
			weight = wgt
		}
	}
	if weight == 0 {
		return driver.ErrNoDevice
	}

	var exts []string
	if d.canPresent && hasDeviceExt(d.pdev, vk.KhrSwapchainExtensionName) {
		exts = []string{vk.KhrSwapchainExtensionName}
	} else {
		d.canPresent = false
	}
	info := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: d.qfam,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		}},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: safeStrings(exts),
	}
	if err := checkResult(vk.CreateDevice(d.pdev, &info, nil, &d.dev)); err != nil {
		return err
	}
	vk.GetDeviceQueue(d.dev, d.qfam, 0, &d.que)
	return nil
}

// graphicsFamily returns the index of the first queue
// family of dev that supports graphics operations, or
// -1 if there is none.
func graphicsFamily(dev vk.PhysicalDevice) int {
	var n uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &n, nil)
	props := make([]vk.QueueFamilyProperties, n)
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &n, props)
	for i := range props {
		props[i].Deref()
		if props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			return i
		}
	}
	return -1
}

// hasDeviceExt returns whether dev exposes the named
// extension.
func hasDeviceExt(dev vk.PhysicalDevice, name string) bool {
	var n uint32
	if checkResult(vk.EnumerateDeviceExtensionProperties(dev, "", &n, nil)) != nil {
		return false
	}
	props := make([]vk.ExtensionProperties, n)
	if checkResult(vk.EnumerateDeviceExtensionProperties(dev, "", &n, props)) != nil {
		return false
	}
	for i := range props {
		props[i].Deref()
		if vk.ToString(props[i].ExtensionName[:]) == name {
			return true
		}
	}
	return false
}

// Open initializes the driver.
func (d *Driver) Open() (driver.GPU, error) {
	if d.dev != nil {
		return d, nil
	}
	err := d.initInstance()
	if err == nil {
		err = d.initDevice()
	}
	if err != nil {
		d.Close()
		return nil, err
	}
	log.WithFields(log.Fields{
		"device":  d.dname,
		"present": d.canPresent,
	}).Info("vulkan driver opened")
	return d, nil
}

// Name returns the driver name.
func (d *Driver) Name() string { return driverName }

// Close deinitializes the driver.
func (d *Driver) Close() {
	if d.dev != nil {
		vk.DeviceWaitIdle(d.dev)
		vk.DestroyDevice(d.dev, nil)
	}
	if d.inst != nil {
		vk.DestroyInstance(d.inst, nil)
	}
	*d = Driver{}
}

// Driver returns the receiver (for driver.GPU conformance).
func (d *Driver) Driver() driver.Driver { return d }

// QueueFamily returns the index of the queue family used
// for submissions.
func (d *Driver) QueueFamily() int { return int(d.qfam) }

// DeviceName returns the name of the physical device that
// the driver is using.
func (d *Driver) DeviceName() string { return d.dname }

// WaitIdle blocks until the device is idle.
func (d *Driver) WaitIdle() error {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	return checkResult(vk.DeviceWaitIdle(d.dev))
}

// checkResult returns an error derived from a vk.Result value.
// If such value does not indicate an error, it returns nil instead.
func checkResult(res vk.Result) error {
	if res >= 0 {
		// Not an error: error values are all negative.
		return nil
	}
	switch res {
	case vk.ErrorOutOfHostMemory:
		return errNoHostMemory
	case vk.ErrorOutOfDeviceMemory:
		return errNoDeviceMemory
	case vk.ErrorInitializationFailed:
		return errInitFailed
	case vk.ErrorDeviceLost:
		return errDeviceLost
	case vk.ErrorLayerNotPresent:
		return errNoLayer
	case vk.ErrorExtensionNotPresent:
		return errNoExtension
	case vk.ErrorFeatureNotPresent:
		return errNoFeature
	case vk.ErrorIncompatibleDriver:
		return errDriverCompat
	case vk.ErrorTooManyObjects:
		return errTooManyObjects
	case vk.ErrorFormatNotSupported:
		return errUnsupportedFormat
	case vk.ErrorSurfaceLost:
		return errSurfaceLost
	case vk.ErrorNativeWindowInUse:
		return errWindowInUse
	case vk.ErrorOutOfDate:
		return errOutOfDate
	}
	return errUnknown
}

// Common Vulkan errors.
var (
	errNoHostMemory      = driver.ErrNoHostMemory
	errNoDeviceMemory    = driver.ErrNoDeviceMemory
	errInitFailed        = errors.New("vk: initialization failed")
	errDeviceLost        = driver.ErrFatal
	errNoLayer           = errors.New("vk: layer not present")
	errNoExtension       = errors.New("vk: extension not present")
	errNoFeature         = errors.New("vk: feature not present")
	errDriverCompat      = errors.New("vk: incompatible driver")
	errTooManyObjects    = errors.New("vk: too many objects")
	errUnsupportedFormat = errors.New("vk: format not supported")
	errUnknown           = errors.New("vk: unknown error")
	errSurfaceLost       = driver.ErrWindow
	errWindowInUse       = errors.New("vk: native window in use")
	errOutOfDate         = driver.ErrSwapchain
)

// safeString returns s as a NUL-terminated string.
func safeString(s string) string { return s + "\x00" }

// safeStrings applies safeString to every element of s.
func safeStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	ss := make([]string, len(s))
	for i := range s {
		ss[i] = safeString(s[i])
	}
	return ss
}
