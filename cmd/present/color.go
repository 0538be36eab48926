// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// hsv converts a hue/saturation/value triple to RGB.
// h is in turns and wraps around.
func hsv(h, s, v float32) mgl32.Vec3 {
	h -= float32(math.Floor(float64(h)))
	var rgb mgl32.Vec3
	for i, off := range [3]float32{0, 4, 2} {
		k := float32(math.Mod(float64(h*6+off), 6))
		rgb[i] = mgl32.Clamp(mgl32.Abs(k-3)-1, 0, 1)
	}
	gray := mgl32.Vec3{1, 1, 1}
	return gray.Add(rgb.Sub(gray).Mul(s)).Mul(v)
}

// layerColor returns the clear colour of layer i at frame n.
// Layers are spread evenly around the hue circle and
// cycle once every period frames.
func layerColor(i, layers, n, period int) [4]float32 {
	h := float32(i)/float32(layers) + float32(n%period)/float32(period)
	c := hsv(h, 0.6, 0.9).Vec4(1)
	return [4]float32(c)
}
