// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// GPU is the main interface to an underlying driver
// implementation.
// It is used to create other types and to execute commands.
// A GPU is obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// NewCmdBuffer creates a new command buffer.
	NewCmdBuffer() (CmdBuffer, error)

	// NewFence creates a new fence.
	// If signaled is set, the fence starts in the
	// signaled state, so a wait on it will not block
	// until it is reset.
	NewFence(signaled bool) (Fence, error)

	// NewSemaphore creates a new binary semaphore.
	NewSemaphore() (Semaphore, error)

	// WaitFences blocks until every fence in f is
	// signaled. There is no timeout.
	WaitFences(f []Fence) error

	// ResetFences sets every fence in f to the
	// unsignaled state.
	ResetFences(f []Fence) error

	// Submit submits a batch of command buffers to the
	// GPU queue for execution.
	// Command buffers in s.Cmd cannot be used for
	// recording until s.Fence (if any) is signaled.
	Submit(s *Submission) error

	// WaitIdle blocks until the device has finished
	// executing all submitted work.
	WaitIdle() error

	// QueueFamily returns the index of the queue family
	// to which submissions are sent.
	QueueFamily() int
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// Fence is the interface that defines a GPU-to-CPU
// synchronization primitive.
type Fence interface {
	Destroyer
}

// Semaphore is the interface that defines a GPU-to-GPU
// synchronization primitive.
type Semaphore interface {
	Destroyer
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded into command buffers and later
// submitted to the GPU for execution. The usage is as
// follows:
// First, call Begin to prepare the command buffer for
// recording. Then, if it succeeds, call Transition as
// needed. Finally, call End and, if it succeeds,
// GPU.Submit.
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	// This method must be called before any command
	// is recorded in the command buffer. It needs to
	// be called again if the command buffer is
	// executed or reset.
	// Any previous recording is discarded.
	Begin() error

	// Transition inserts a number of image layout
	// transitions.
	Transition(t []Transition)

	// End ends command recording.
	// If it fails, the recording is invalid and must
	// not be submitted.
	End() error
}

// Submission describes a batch of work for GPU.Submit.
// Wait and WaitSync must have the same length: the i-th
// semaphore is waited on at the i-th synchronization
// scope.
type Submission struct {
	Wait     []Semaphore
	WaitSync []Sync
	Signal   []Semaphore
	Cmd      []CmdBuffer
	// Fence is signaled when all work completes.
	// It may be nil.
	Fence Fence
}

// Sync is the type of a synchronization scope.
type Sync int

// Synchronization scopes.
const (
	STop Sync = 1 << iota
	SColorOutput
	SCopy
	SBottom
	SAll
	SNone Sync = 0
)

// Access is the type of a memory access scope.
type Access int

// Memory access scopes.
const (
	AColorRead Access = 1 << iota
	AColorWrite
	ACopyRead
	ACopyWrite
	AAnyRead
	AAnyWrite
	ANone Access = 0
)

// Layout is the type of an image layout.
type Layout int

// Image layouts.
const (
	LUndefined Layout = iota
	LCommon
	LColorTarget
	LCopySrc
	LCopyDst
	LPresent
)

// Barrier represents a synchronization barrier.
type Barrier struct {
	SyncBefore   Sync
	SyncAfter    Sync
	AccessBefore Access
	AccessAfter  Access
}

// Transition represents a layout transition on a
// specific image.
type Transition struct {
	Barrier

	LayoutBefore Layout
	LayoutAfter  Layout
	Image        Image
}

// Image is the interface that defines a GPU image.
// Images that are obtained from a Chain are owned by
// the chain and must not be destroyed by the client.
type Image interface {
	Format() PixelFmt
	Size() Dim2D
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	// FUndefined marks a format that cannot be used.
	FUndefined PixelFmt = iota - 1
	// Color, 8-bit channels.
	RGBA8un
	RGBA8n
	RGBA8sRGB
	BGRA8un
	BGRA8sRGB
	// Color, 16-bit channels.
	RGBA16f
	// Color, 32-bit channels.
	RGBA32f
)

// String implements fmt.Stringer.
func (f PixelFmt) String() string {
	switch f {
	case FUndefined:
		return "undefined"
	case RGBA8un:
		return "RGBA8un"
	case RGBA8n:
		return "RGBA8n"
	case RGBA8sRGB:
		return "RGBA8sRGB"
	case BGRA8un:
		return "BGRA8un"
	case BGRA8sRGB:
		return "BGRA8sRGB"
	case RGBA16f:
		return "RGBA16f"
	case RGBA32f:
		return "RGBA32f"
	}
	return "unknown"
}

// ColorSpace describes how a presentation engine
// interprets the values of a surface image.
type ColorSpace int

// Color spaces.
const (
	CSRGBNonlinear ColorSpace = iota
	CSRGBLinear
	CSExtendedLinear
)

// SurfaceFormat pairs a pixel format with a color space.
type SurfaceFormat struct {
	Format     PixelFmt
	ColorSpace ColorSpace
}

// Dim2D is a two-dimensional size.
type Dim2D struct {
	Width, Height int
}
