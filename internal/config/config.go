// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package config reads the demo configuration from the
// environment and from optional .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Environment variables.
const (
	EnvDriver   = "PRESENT_DRIVER"
	EnvWidth    = "PRESENT_WIDTH"
	EnvHeight   = "PRESENT_HEIGHT"
	EnvLayers   = "PRESENT_LAYERS"
	EnvFrames   = "PRESENT_FRAMES"
	EnvBatched  = "PRESENT_BATCHED"
	EnvLogLevel = "PRESENT_LOG_LEVEL"
	EnvTitle    = "PRESENT_TITLE"
)

// MaxLayers is the maximum number of layers.
const MaxLayers = 16

// Config is the demo configuration.
type Config struct {
	// Name of the driver to load. Matched as a
	// case-insensitive substring.
	Driver string
	Width  int
	Height int
	// Number of windows, each with its own swapchain
	// and render goroutine.
	Layers int
	// Number of frames to present before exiting.
	// Zero means until every window is closed.
	Frames   int
	Batched  bool
	LogLevel log.Level
	Title    string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Driver:   "vulkan",
		Width:    800,
		Height:   600,
		Layers:   1,
		Batched:  false,
		LogLevel: log.InfoLevel,
		Title:    "present",
	}
}

// Load reads the configuration.
// Variables from files are only used when the environment
// does not set them already. Files that do not exist are
// skipped.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.WithField("file", f).Debug("config file not found")
				continue
			}
			return nil, fmt.Errorf("config: %s: %w", f, err)
		}
		for k, v := range vars {
			if get(k, "") == "" {
				envy.Set(k, v)
			}
		}
	}

	c := Default()
	c.Driver = get(EnvDriver, c.Driver)
	c.Title = get(EnvTitle, c.Title)
	var err error
	for _, x := range [...]struct {
		key string
		dst *int
	}{
		{EnvWidth, &c.Width},
		{EnvHeight, &c.Height},
		{EnvLayers, &c.Layers},
		{EnvFrames, &c.Frames},
	} {
		if *x.dst, err = getInt(x.key, *x.dst); err != nil {
			return nil, err
		}
	}
	if s := get(EnvBatched, ""); s != "" {
		if c.Batched, err = strconv.ParseBool(s); err != nil {
			return nil, fmt.Errorf("config: %s: %w", EnvBatched, err)
		}
	}
	if s := get(EnvLogLevel, ""); s != "" {
		if c.LogLevel, err = log.ParseLevel(s); err != nil {
			return nil, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// get returns the value of key, or def if key is
// unset or empty.
func get(key, def string) string {
	if s := envy.Get(key, ""); s != "" {
		return s
	}
	return def
}

func getInt(key string, def int) (int, error) {
	s := get(key, "")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

// Validate checks that c holds usable values.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	case c.Layers < 1 || c.Layers > MaxLayers:
		return fmt.Errorf("config: layers must be in [1, %d], got %d", MaxLayers, c.Layers)
	case c.Frames < 0:
		return fmt.Errorf("config: negative frame count %d", c.Frames)
	}
	return nil
}

// Fields returns c as logrus fields.
func (c *Config) Fields() log.Fields {
	return log.Fields{
		"driver":  c.Driver,
		"size":    fmt.Sprintf("%dx%d", c.Width, c.Height),
		"layers":  c.Layers,
		"frames":  c.Frames,
		"batched": c.Batched,
	}
}
