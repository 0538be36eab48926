// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"
)

// unset clears every variable read by Load.
func unset() {
	for _, k := range [...]string{
		EnvDriver, EnvWidth, EnvHeight, EnvLayers,
		EnvFrames, EnvBatched, EnvLogLevel, EnvTitle,
	} {
		envy.Set(k, "")
	}
}

func writeEnv(c *qt.C, content string) string {
	name := filepath.Join(c.TempDir(), "test.env")
	c.Assert(os.WriteFile(name, []byte(content), 0o644), qt.IsNil)
	return name
}

func TestDefault(t *testing.T) {
	c := qt.New(t)
	envy.Temp(func() {
		unset()
		cfg, err := Load()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg, qt.DeepEquals, Default())
	})
}

func TestLoadEnv(t *testing.T) {
	c := qt.New(t)
	envy.Temp(func() {
		unset()
		envy.Set(EnvDriver, "fake")
		envy.Set(EnvWidth, "320")
		envy.Set(EnvHeight, "240")
		envy.Set(EnvLayers, "3")
		envy.Set(EnvFrames, "100")
		envy.Set(EnvBatched, "true")
		envy.Set(EnvLogLevel, "debug")
		envy.Set(EnvTitle, "layers")
		cfg, err := Load()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg, qt.DeepEquals, &Config{
			Driver:   "fake",
			Width:    320,
			Height:   240,
			Layers:   3,
			Frames:   100,
			Batched:  true,
			LogLevel: log.DebugLevel,
			Title:    "layers",
		})
	})
}

func TestLoadFile(t *testing.T) {
	c := qt.New(t)
	name := writeEnv(c, "PRESENT_LAYERS=4\nPRESENT_BATCHED=1\nPRESENT_WIDTH=1024\n")
	envy.Temp(func() {
		unset()
		// The environment takes precedence.
		envy.Set(EnvWidth, "640")
		cfg, err := Load(name, filepath.Join(c.TempDir(), "missing.env"))
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Layers, qt.Equals, 4)
		c.Assert(cfg.Batched, qt.IsTrue)
		c.Assert(cfg.Width, qt.Equals, 640)
	})
}

func TestLoadInvalid(t *testing.T) {
	for _, x := range []struct {
		key, val string
		err      string
	}{
		{EnvWidth, "wide", `config: PRESENT_WIDTH: .*`},
		{EnvFrames, "-1", `config: negative frame count -1`},
		{EnvLayers, "0", `config: layers must be in \[1, 16\], got 0`},
		{EnvLayers, "17", `config: layers must be in \[1, 16\], got 17`},
		{EnvHeight, "0", `config: invalid size 800x0`},
		{EnvBatched, "maybe", `config: PRESENT_BATCHED: .*`},
		{EnvLogLevel, "loud", `config: PRESENT_LOG_LEVEL: .*`},
	} {
		t.Run(x.key+"="+x.val, func(t *testing.T) {
			c := qt.New(t)
			envy.Temp(func() {
				unset()
				envy.Set(x.key, x.val)
				cfg, err := Load()
				c.Assert(cfg, qt.IsNil)
				c.Assert(err, qt.ErrorMatches, x.err)
			})
		})
	}
}

func TestFields(t *testing.T) {
	c := qt.New(t)
	f := Default().Fields()
	c.Assert(f["driver"], qt.Equals, "vulkan")
	c.Assert(f["size"], qt.Equals, "800x600")
	c.Assert(f["layers"], qt.Equals, 1)
}
