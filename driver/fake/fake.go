// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package fake implements an in-memory driver.
// Every method completes immediately and is recorded,
// and any operation can be made to fail. It is used for
// testing and for running presentation loops headless.
package fake

import (
	"errors"
	"sync"

	"github.com/gviegas/present/driver"
)

const driverName = "fake"

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver.
type Driver struct {
	mu  sync.Mutex
	gpu *GPU
}

// Open initializes the driver using DefaultConfig.
func (d *Driver) Open() (driver.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu == nil {
		d.gpu = New(DefaultConfig())
		d.gpu.drv = d
	}
	return d.gpu, nil
}

// Name returns the driver name.
func (d *Driver) Name() string { return driverName }

// Close deinitializes the driver.
func (d *Driver) Close() {
	d.mu.Lock()
	d.gpu = nil
	d.mu.Unlock()
}

// Config configures a fake GPU.
type Config struct {
	// Formats are the surface formats supported by
	// every surface, in platform order.
	Formats []driver.SurfaceFormat
	// Modes are the supported present modes.
	// The first one is the fallback.
	Modes []driver.PresentMode
	// Caps are the initial capabilities of new
	// surfaces.
	Caps driver.Capabilities
	// Images is the number of images in new chains.
	// If zero, ChainConfig.MinImages is used.
	Images int
	// Targets are the pixel formats the renderer can
	// draw into. If nil, any format is accepted.
	Targets []driver.PixelFmt
	// NoPresent makes SupportsSurface report false.
	NoPresent bool
	// QueueFamily is the value of GPU.QueueFamily.
	QueueFamily int
}

// DefaultConfig returns a configuration resembling a
// common desktop platform.
func DefaultConfig() Config {
	return Config{
		Formats: []driver.SurfaceFormat{
			{Format: driver.BGRA8sRGB, ColorSpace: driver.CSRGBNonlinear},
			{Format: driver.BGRA8un, ColorSpace: driver.CSRGBNonlinear},
		},
		Modes: []driver.PresentMode{driver.PFifo, driver.PMailbox},
		Caps: driver.Capabilities{
			MinImages:     3,
			MaxImages:     8,
			CurrentExtent: driver.Dim2D{Width: 800, Height: 600},
			MinExtent:     driver.Dim2D{Width: 1, Height: 1},
			MaxExtent:     driver.Dim2D{Width: 4096, Height: 4096},
		},
	}
}

// Op identifies a GPU operation.
type Op string

// Operations.
const (
	OpNewCmdBuffer        Op = "NewCmdBuffer"
	OpNewFence            Op = "NewFence"
	OpNewSemaphore        Op = "NewSemaphore"
	OpWaitFences          Op = "WaitFences"
	OpResetFences         Op = "ResetFences"
	OpSubmit              Op = "Submit"
	OpWaitIdle            Op = "WaitIdle"
	OpSupportsSurface     Op = "SupportsSurface"
	OpSurfaceCapabilities Op = "SurfaceCapabilities"
	OpChooseFormat        Op = "ChooseFormat"
	OpChoosePresentMode   Op = "ChoosePresentMode"
	OpNewChain            Op = "NewChain"
	OpImages              Op = "Images"
	OpNext                Op = "Next"
	OpPresent             Op = "Present"
	OpBegin               Op = "Begin"
	OpEnd                 Op = "End"
	OpWrapImage           Op = "WrapImage"
	OpFlush               Op = "Flush"
)

// ErrInjected is a generic error for use with Fail.
var ErrInjected = errors.New("fake: injected failure")

type failure struct {
	err    error
	sticky bool
}

// NextResult is a scripted outcome of Chain.Next.
type NextResult struct {
	Index int
	Err   error
}

// GPU implements driver.GPU, driver.Presenter and
// driver.Renderer.
type GPU struct {
	drv *Driver
	cfg Config

	mu     sync.Mutex
	calls  []Op
	fails  map[Op]failure
	script []NextResult
	subm   []driver.Submission
	pres   []driver.Presentation
	nsem   int
}

// New creates a new GPU.
func New(cfg Config) *GPU {
	return &GPU{
		cfg:   cfg,
		fails: make(map[Op]failure),
	}
}

// call records op and returns its injected failure,
// if any. g.mu must be held.
func (g *GPU) call(op Op) error {
	g.calls = append(g.calls, op)
	f, ok := g.fails[op]
	if !ok {
		return nil
	}
	if !f.sticky {
		delete(g.fails, op)
	}
	return f.err
}

func (g *GPU) lockedCall(op Op) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.call(op)
}

// Fail makes the next call to op fail with err.
func (g *GPU) Fail(op Op, err error) {
	g.mu.Lock()
	g.fails[op] = failure{err: err}
	g.mu.Unlock()
}

// FailAlways makes every call to op fail with err,
// until Recover is called.
func (g *GPU) FailAlways(op Op, err error) {
	g.mu.Lock()
	g.fails[op] = failure{err: err, sticky: true}
	g.mu.Unlock()
}

// Recover removes any failure set for op.
func (g *GPU) Recover(op Op) {
	g.mu.Lock()
	delete(g.fails, op)
	g.mu.Unlock()
}

// ScriptNext queues results for subsequent calls to
// Chain.Next, across all chains.
// Once the script is exhausted, chains cycle through
// their images in order.
func (g *GPU) ScriptNext(r ...NextResult) {
	g.mu.Lock()
	g.script = append(g.script, r...)
	g.mu.Unlock()
}

// Calls returns the recorded operations, in call order.
func (g *GPU) Calls() []Op {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Op(nil), g.calls...)
}

// Count returns how many times op was called.
func (g *GPU) Count(op Op) (n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.calls {
		if c == op {
			n++
		}
	}
	return
}

// ResetCalls discards the recorded operations,
// submissions and presentations.
func (g *GPU) ResetCalls() {
	g.mu.Lock()
	g.calls = g.calls[:0]
	g.subm = g.subm[:0]
	g.pres = g.pres[:0]
	g.mu.Unlock()
}

// Submissions returns the successful submissions.
func (g *GPU) Submissions() []driver.Submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]driver.Submission(nil), g.subm...)
}

// Presentations returns the successful presentations.
func (g *GPU) Presentations() []driver.Presentation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]driver.Presentation(nil), g.pres...)
}

// Driver returns the Driver that owns g.
// It is nil for GPUs created with New.
func (g *GPU) Driver() driver.Driver {
	if g.drv == nil {
		return nil
	}
	return g.drv
}

// QueueFamily implements driver.GPU.
func (g *GPU) QueueFamily() int { return g.cfg.QueueFamily }

// NewCmdBuffer implements driver.GPU.
func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	if err := g.lockedCall(OpNewCmdBuffer); err != nil {
		return nil, err
	}
	return &CmdBuffer{g: g}, nil
}

// NewFence implements driver.GPU.
func (g *GPU) NewFence(signaled bool) (driver.Fence, error) {
	if err := g.lockedCall(OpNewFence); err != nil {
		return nil, err
	}
	return &Fence{g: g, signaled: signaled}, nil
}

// NewSemaphore implements driver.GPU.
func (g *GPU) NewSemaphore() (driver.Semaphore, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpNewSemaphore); err != nil {
		return nil, err
	}
	g.nsem++
	return &Semaphore{g: g, ID: g.nsem}, nil
}

// WaitFences implements driver.GPU.
// Since work completes on submission, waiting never
// blocks.
func (g *GPU) WaitFences(f []driver.Fence) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpWaitFences); err != nil {
		return err
	}
	for _, x := range f {
		x.(*Fence).waits++
	}
	return nil
}

// ResetFences implements driver.GPU.
func (g *GPU) ResetFences(f []driver.Fence) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpResetFences); err != nil {
		return err
	}
	for _, x := range f {
		x.(*Fence).signaled = false
	}
	return nil
}

// Submit implements driver.GPU.
// The work is considered complete when Submit returns,
// so s.Fence and s.Signal are signaled immediately.
func (g *GPU) Submit(s *driver.Submission) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.call(OpSubmit); err != nil {
		return err
	}
	if len(s.Wait) != len(s.WaitSync) {
		return errors.New("fake: Submission.Wait/WaitSync length mismatch")
	}
	for _, cb := range s.Cmd {
		c := cb.(*CmdBuffer)
		if c.recording || !c.ended {
			return errors.New("fake: submitting command buffer that is not ready")
		}
		c.submits++
	}
	for _, x := range s.Signal {
		x.(*Semaphore).signals++
	}
	if s.Fence != nil {
		s.Fence.(*Fence).signaled = true
	}
	g.subm = append(g.subm, *s)
	return nil
}

// WaitIdle implements driver.GPU.
func (g *GPU) WaitIdle() error { return g.lockedCall(OpWaitIdle) }

// Fence implements driver.Fence.
// Its state is guarded by the owning GPU.
type Fence struct {
	g         *GPU
	signaled  bool
	waits     int
	destroyed bool
}

// Signaled returns whether f is signaled.
func (f *Fence) Signaled() bool {
	f.g.mu.Lock()
	defer f.g.mu.Unlock()
	return f.signaled
}

// Waits returns how many times f was waited on.
func (f *Fence) Waits() int {
	f.g.mu.Lock()
	defer f.g.mu.Unlock()
	return f.waits
}

// Destroyed returns whether Destroy was called.
func (f *Fence) Destroyed() bool {
	f.g.mu.Lock()
	defer f.g.mu.Unlock()
	return f.destroyed
}

// Destroy implements driver.Destroyer.
func (f *Fence) Destroy() {
	f.g.mu.Lock()
	f.destroyed = true
	f.g.mu.Unlock()
}

// Semaphore implements driver.Semaphore.
type Semaphore struct {
	g         *GPU
	ID        int
	signals   int
	destroyed bool
}

// Signals returns how many times s was signaled.
func (s *Semaphore) Signals() int {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.signals
}

// Destroyed returns whether Destroy was called.
func (s *Semaphore) Destroyed() bool {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.destroyed
}

// Destroy implements driver.Destroyer.
func (s *Semaphore) Destroy() {
	s.g.mu.Lock()
	s.destroyed = true
	s.g.mu.Unlock()
}

// CmdBuffer implements driver.CmdBuffer.
type CmdBuffer struct {
	g         *GPU
	recording bool
	ended     bool
	rec       []driver.Transition
	submits   int
	destroyed bool
}

// Begin implements driver.CmdBuffer.
func (c *CmdBuffer) Begin() error {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	if err := c.g.call(OpBegin); err != nil {
		return err
	}
	c.recording = true
	c.ended = false
	c.rec = c.rec[:0]
	return nil
}

// Transition implements driver.CmdBuffer.
func (c *CmdBuffer) Transition(t []driver.Transition) {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	if !c.recording {
		panic("fake: Transition called outside of recording")
	}
	c.rec = append(c.rec, t...)
}

// End implements driver.CmdBuffer.
func (c *CmdBuffer) End() error {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	c.recording = false
	if err := c.g.call(OpEnd); err != nil {
		return err
	}
	c.ended = true
	return nil
}

// Recorded returns the transitions recorded since the
// last call to Begin.
func (c *CmdBuffer) Recorded() []driver.Transition {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	return append([]driver.Transition(nil), c.rec...)
}

// Submits returns how many times c was submitted.
func (c *CmdBuffer) Submits() int {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	return c.submits
}

// Destroyed returns whether Destroy was called.
func (c *CmdBuffer) Destroyed() bool {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	return c.destroyed
}

// Destroy implements driver.Destroyer.
func (c *CmdBuffer) Destroy() {
	c.g.mu.Lock()
	c.destroyed = true
	c.g.mu.Unlock()
}
