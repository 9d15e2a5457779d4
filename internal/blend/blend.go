// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blend provides the integer pixel arithmetic used to cross-fade
// one image into another.
//
// All arithmetic is performed on unsigned integers with truncating
// division so that results are bit-exact on every platform.
package blend

import "image/color"

// Mode is the colour mode of a blend.
type Mode int

const (
	// Opaque blends the red, green and blue channels and
	// produces a fully opaque pixel.
	Opaque Mode = iota
	// Alpha blends premultiplied colour channels and the
	// alpha channel.
	Alpha
)

func (m Mode) String() string {
	switch m {
	case Opaque:
		return "rgb"
	case Alpha:
		return "rgba"
	default:
		return "unknown"
	}
}

// ModeFor returns the mode to use when blending images with the modes a
// and b. Alpha is used if either image carries alpha.
func ModeFor(a, b Mode) Mode {
	if a == Alpha || b == Alpha {
		return Alpha
	}
	return Opaque
}

const (
	// Max is the weight that selects only the first pixel of a blend.
	Max = 0xff

	// alphaDiv is the divisor for alpha weighted channels, 255*255.
	// The result is left premultiplied by the mixed pixel's alpha.
	alphaDiv = 0xfe01
)

// Pixel returns the blend of a and b with the given weight. A weight of
// Max returns a, a weight of zero returns b, in each case up to the
// rounding of the mode's arithmetic.
//
// In Opaque mode each colour channel is (a*w + b*(255-w)) / 255 and the
// alpha of a and b is ignored. In Alpha mode colour channels are
// multiplied by their pixel's alpha before mixing and divided by 255*255,
// and the alpha channel is mixed as the colour channels are in Opaque mode.
func Pixel(a, b color.NRGBA, weight uint8, mode Mode) color.NRGBA {
	w := uint32(weight)
	iw := Max - w
	if mode == Alpha {
		aa := uint32(a.A)
		ba := uint32(b.A)
		return color.NRGBA{
			R: uint8((uint32(a.R)*aa*w + uint32(b.R)*ba*iw) / alphaDiv),
			G: uint8((uint32(a.G)*aa*w + uint32(b.G)*ba*iw) / alphaDiv),
			B: uint8((uint32(a.B)*aa*w + uint32(b.B)*ba*iw) / alphaDiv),
			A: uint8((aa*w + ba*iw) / Max),
		}
	}
	return color.NRGBA{
		R: uint8((uint32(a.R)*w + uint32(b.R)*iw) / Max),
		G: uint8((uint32(a.G)*w + uint32(b.G)*iw) / Max),
		B: uint8((uint32(a.B)*w + uint32(b.B)*iw) / Max),
		A: Max,
	}
}

// Row blends the NRGBA pixel rows a and b into dst. The three slices must
// have the same length, a multiple of four.
func Row(dst, a, b []uint8, weight uint8, mode Mode) {
	for i := 0; i+3 < len(dst); i += 4 {
		p := Pixel(
			color.NRGBA{R: a[i], G: a[i+1], B: a[i+2], A: a[i+3]},
			color.NRGBA{R: b[i], G: b[i+1], B: b[i+2], A: b[i+3]},
			weight, mode,
		)
		dst[i] = p.R
		dst[i+1] = p.G
		dst[i+2] = p.B
		dst[i+3] = p.A
	}
}

// Weight returns the weight of the first image at the given step of a
// transition divided into frames steps. Step zero has weight Max and
// weights decrease evenly in integer space without reaching zero for
// steps less than frames.
//
// Weight panics if frames is less than one.
func Weight(step, frames int) uint8 {
	if frames < 1 {
		panic("blend: frame count less than one")
	}
	return uint8(Max - (step*Max)/frames)
}
