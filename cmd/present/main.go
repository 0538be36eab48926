// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Present clears one or more windows to a cycling colour,
// presenting each window by itself or every window in a
// single batch.
//
// Keys: Esc/Q quit, B toggles batching, R rebuilds every
// swapchain.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/gviegas/present/internal/config"
	"github.com/gviegas/present/internal/ctxt"
	"github.com/gviegas/present/swapchain"
	"github.com/gviegas/present/wsi"
)

// SDL must run on the main thread.
func init() {
	runtime.LockOSThread()
}

var (
	envFile = flag.String("env", ".env", "file to read variables from")
	drvName = flag.String("driver", "", "driver name (overrides "+config.EnvDriver+")")
	layers  = flag.Int("layers", 0, "number of windows (overrides "+config.EnvLayers+")")
	frames  = flag.Int("frames", -1, "frames to present (overrides "+config.EnvFrames+")")
	batched = flag.Bool("batched", false, "present every window in a single batch")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies flags
// on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return nil, err
	}
	if *drvName != "" {
		cfg.Driver = *drvName
	}
	if *layers != 0 {
		cfg.Layers = *layers
	}
	if *frames >= 0 {
		cfg.Frames = *frames
	}
	if *batched {
		cfg.Batched = true
	}
	return cfg, cfg.Validate()
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	swapchain.SetLogger(log.StandardLogger())

	headless := cfg.Driver == "fake"
	if !headless {
		// The window system must be ready before the
		// driver opens.
		if err := wsi.Init(); err != nil {
			log.WithField("err", err).Warn("no window system")
		}
		defer wsi.Deinit()
		wsi.SetAppName(cfg.Title)
	}

	if err := ctxt.Load(cfg.Driver); err != nil {
		return fmt.Errorf("%s: %w", cfg.Driver, err)
	}
	defer ctxt.Close()

	var wins []wsi.Window
	if !headless {
		if wins, err = newWindows(cfg); err != nil {
			return err
		}
	}

	a, err := newApp(cfg, ctxt.GPU(), wins)
	if err != nil {
		return err
	}
	defer a.destroy()
	wsi.SetWindowHandler(a)
	wsi.SetKeyboardHandler(a)
	defer func() {
		wsi.SetWindowHandler(nil)
		wsi.SetKeyboardHandler(nil)
	}()
	return a.run(wsi.Dispatch)
}

// newWindows creates and maps one window per layer.
func newWindows(cfg *config.Config) ([]wsi.Window, error) {
	wins := make([]wsi.Window, cfg.Layers)
	for i := range wins {
		title := cfg.Title
		if cfg.Layers > 1 {
			title = fmt.Sprintf("%s #%d", cfg.Title, i)
		}
		win, err := wsi.NewWindow(cfg.Width, cfg.Height, title)
		if err != nil {
			return nil, err
		}
		if err := win.Map(); err != nil {
			return nil, err
		}
		wins[i] = win
	}
	return wins, nil
}
