// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import (
	"unsafe"

	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// initSDL initializes SDL and its Vulkan loader.
func initSDL() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return err
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return err
	}
	newWindow = newWindowSDL
	dispatch = dispatchSDL
	setAppName = func(string) {}
	deinit = deinitSDL
	vulkanProcAddr = sdl.VulkanGetVkGetInstanceProcAddr
	vulkanExtensions = vulkanExtensionsSDL
	vulkanSurface = vulkanSurfaceSDL
	keymap = keymapSDL[:]
	platform = SDL
	log.Debug("wsi: using SDL")
	return nil
}

func deinitSDL() {
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}

// windowSDL implements Window.
type windowSDL struct {
	win    *sdl.Window
	id     uint32
	width  int
	height int
	title  string
}

func newWindowSDL(width, height int, title string) (Window, error) {
	win, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, err
	}
	id, err := win.GetID()
	if err != nil {
		win.Destroy()
		return nil, err
	}
	return &windowSDL{
		win:    win,
		id:     id,
		width:  width,
		height: height,
		title:  title,
	}, nil
}

func (w *windowSDL) Map() error {
	w.win.Show()
	return nil
}

func (w *windowSDL) Unmap() error {
	w.win.Hide()
	return nil
}

func (w *windowSDL) Resize(width, height int) error {
	w.win.SetSize(int32(width), int32(height))
	w.width = width
	w.height = height
	return nil
}

func (w *windowSDL) SetTitle(title string) error {
	w.win.SetTitle(title)
	w.title = title
	return nil
}

func (w *windowSDL) Close() {
	if w.win == nil {
		return
	}
	w.win.Destroy()
	closeWindow(w)
	*w = windowSDL{}
}

func (w *windowSDL) Width() int    { return w.width }
func (w *windowSDL) Height() int   { return w.height }
func (w *windowSDL) Title() string { return w.title }

// windowFromSDL returns the Window identified by id.
func windowFromSDL(id uint32) Window {
	for _, w := range createdWindows {
		if x, ok := w.(*windowSDL); ok && x.id == id {
			return x
		}
	}
	return nil
}

func dispatchSDL() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.WindowEvent:
			win := windowFromSDL(e.WindowID)
			if win == nil || windowHandler == nil {
				break
			}
			switch e.Event {
			case sdl.WINDOWEVENT_CLOSE:
				windowHandler.WindowClose(win)
			case sdl.WINDOWEVENT_SIZE_CHANGED:
				w := win.(*windowSDL)
				w.width, w.height = int(e.Data1), int(e.Data2)
				windowHandler.WindowResize(win, w.width, w.height)
			}
		case *sdl.KeyboardEvent:
			if keyboardHandler != nil && e.Repeat == 0 {
				keyboardHandler.KeyboardKey(keyFrom(int(e.Keysym.Scancode)), e.State == sdl.PRESSED)
			}
		case *sdl.QuitEvent:
			if windowHandler != nil {
				for _, w := range Windows() {
					windowHandler.WindowClose(w)
				}
			}
		}
	}
}

// SDL accepts a nil window when querying extensions.
func vulkanExtensionsSDL() []string {
	var w *sdl.Window
	return w.VulkanGetInstanceExtensions()
}

func vulkanSurfaceSDL(win Window, instance any) (unsafe.Pointer, error) {
	w, ok := win.(*windowSDL)
	if !ok || w.win == nil {
		return nil, errMissing
	}
	return w.win.VulkanCreateSurface(instance)
}

var keymapSDL = [...]Key{
	sdl.SCANCODE_ESCAPE: KeyEsc,
	sdl.SCANCODE_RETURN: KeyReturn,
	sdl.SCANCODE_SPACE:  KeySpace,
	sdl.SCANCODE_TAB:    KeyTab,
	sdl.SCANCODE_B:      KeyB,
	sdl.SCANCODE_F:      KeyF,
	sdl.SCANCODE_Q:      KeyQ,
	sdl.SCANCODE_R:      KeyR,
	sdl.SCANCODE_UP:     KeyUp,
	sdl.SCANCODE_DOWN:   KeyDown,
}
