// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fade

import (
	"image"

	"github.com/kortschak/fade/internal/blend"
)

// Interpolate returns the frames of the transition from a to b. The first
// of the frameCount frames is a itself with the endpoint duration, and the
// remaining frames are blends of a and b with decreasing weight for a and
// the step duration. The final frame is not b; b is emitted as the first
// frame of the following transition.
//
// The returned frames are indexed from zero. a and b must have the same
// dimensions and frameCount must be positive.
func Interpolate(a, b Image, frameCount int, endpoint, step Millis) []Frame {
	frames := make([]Frame, frameCount)
	for k := range frames {
		frames[k] = frameAt(a, b, 0, k, frameCount, endpoint, step)
	}
	return frames
}

// frameAt returns the frame at step k of the transition from a to b
// starting at pair.
func frameAt(a, b Image, pair, k, frameCount int, endpoint, step Millis) Frame {
	f := Frame{
		Index:  pair*frameCount + k,
		Pair:   pair,
		Step:   k,
		Weight: blend.Max,
	}
	if k == 0 {
		f.Image = a
		f.Duration = endpoint
		return f
	}
	mode := blend.ModeFor(a.Mode, b.Mode)
	f.Weight = blend.Weight(k, frameCount)
	f.Image = Image{NRGBA: Blend(a, b, f.Weight, mode), Mode: mode}
	f.Duration = step
	return f
}

// Blend returns a new image that is the per-pixel blend of a and b with
// the given weight for a. The returned image has the bounds of a
// translated to the origin. a and b must have the same dimensions.
func Blend(a, b Image, weight uint8, mode blend.Mode) *image.NRGBA {
	w, h := a.Width(), a.Height()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	n := 4 * w
	for y := 0; y < h; y++ {
		ra := a.Pix[a.PixOffset(a.Rect.Min.X, a.Rect.Min.Y+y):][:n]
		rb := b.Pix[b.PixOffset(b.Rect.Min.X, b.Rect.Min.Y+y):][:n]
		blend.Row(dst.Pix[y*dst.Stride:][:n], ra, rb, weight, mode)
	}
	return dst
}
