// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fade

import (
	"image"
	"strconv"

	"github.com/kortschak/fade/internal/blend"
)

// Image is a source image for an animation.
type Image struct {
	// NRGBA holds the image pixels. It must not be
	// altered after the Image is constructed.
	*image.NRGBA
	// Mode is the colour mode of the image.
	Mode blend.Mode
}

// Width returns the width of the image.
func (img Image) Width() int { return img.Rect.Dx() }

// Height returns the height of the image.
func (img Image) Height() int { return img.Rect.Dy() }

// Millis is a duration in milliseconds.
type Millis float32

// String returns the shortest decimal representation of m that
// round-trips at 32 bit precision, for example "100" or "33.333332".
func (m Millis) String() string {
	return strconv.FormatFloat(float64(m), 'f', -1, 32)
}

// Centiseconds returns m in hundredths of a second, the GIF delay unit.
// m is truncated to whole milliseconds and then divided by ten, truncating.
// Negative durations give zero.
func (m Millis) Centiseconds() int {
	if m <= 0 {
		return 0
	}
	return int(uint64(m) / 10)
}

// Frame is an animation frame.
type Frame struct {
	// Index is the position of the frame in the animation.
	Index int
	// Pair is the index of the first image of the
	// transition the frame belongs to.
	Pair int
	// Step is the position of the frame within
	// its transition. Step zero is an endpoint.
	Step int
	// Weight is the weight of the first image
	// of the transition in the frame.
	Weight uint8

	Image
	// Duration is the display time of the frame.
	Duration Millis
}

// IsEndpoint returns whether the frame is an unblended source image.
func (f Frame) IsEndpoint() bool { return f.Step == 0 }
