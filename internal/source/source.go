// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source finds, decodes and checks the source images of an
// animation.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kortschak/fade/internal/blend"
	"github.com/kortschak/fade/internal/fade"
	"github.com/kortschak/fade/internal/slogext"
)

// Expand returns the image paths named by args. If args is a single
// argument containing a '*', the '*' characters are removed and the
// result is treated as a file name suffix. All regular files in dir
// with that suffix are returned in name order. Otherwise args is returned
// unaltered.
func Expand(args []string, dir string) ([]string, error) {
	if len(args) != 1 || !strings.Contains(args[0], "*") {
		return args, nil
	}
	suffix := strings.ReplaceAll(args[0], "*", "")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &fade.Error{Kind: fade.IOError, Op: "read dir", Path: dir, Index: -1, Err: err}
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// Check returns an IOError for the first path that does not exist or
// is a directory.
func Check(paths []string) error {
	for i, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = errors.New("file does not exist")
			}
			return &fade.Error{Kind: fade.IOError, Op: "open", Path: p, Index: i, Err: err}
		}
		if fi.IsDir() {
			return &fade.Error{Kind: fade.IOError, Op: "open", Path: p, Index: i, Err: errors.New("is a directory")}
		}
	}
	return nil
}

// Load returns the decoded image held in the file at path.
func Load(path string) (fade.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fade.Image{}, &fade.Error{Kind: fade.IOError, Op: "open", Path: path, Index: -1, Err: err}
	}
	defer f.Close()
	img, err := Decode(f)
	if err != nil {
		return fade.Image{}, &fade.Error{Kind: fade.IOError, Op: "decode", Path: path, Index: -1, Err: err}
	}
	return img, nil
}

// Decode decodes an image from r. Images in PNG, JPEG, GIF, BMP, TIFF
// and WebP format are supported. The image has alpha mode if any of its
// pixels is not fully opaque.
func Decode(r io.Reader) (fade.Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return fade.Image{}, err
	}
	return FromImage(src), nil
}

// FromImage returns a fade.Image holding a copy of src with its origin
// at zero.
func FromImage(src image.Image) fade.Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		// Copy rows directly to avoid a round trip
		// through premultiplied colour.
		for y := 0; y < b.Dy(); y++ {
			off := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], n.Pix[off:off+4*b.Dx()])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}
	mode := blend.Opaque
	if !dst.Opaque() {
		mode = blend.Alpha
	}
	return fade.Image{NRGBA: dst, Mode: mode}
}

// Resize returns img scaled to w×h using nearest neighbour sampling.
// Sampled pixels are copied unaltered.
func Resize(img fade.Image, w, h int) fade.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if img.Mode == blend.Opaque {
		// Opaque pixels survive the premultiplied
		// round trip of the draw package exactly.
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img.NRGBA, img.Bounds(), draw.Src, nil)
		return fade.Image{NRGBA: dst, Mode: img.Mode}
	}
	nearest(dst, img.NRGBA)
	return fade.Image{NRGBA: dst, Mode: img.Mode}
}

// nearest fills dst with the nearest pixels of src, sampling at
// pixel centres as draw.NearestNeighbor does.
func nearest(dst, src *image.NRGBA) {
	sb := src.Bounds()
	dw, dh := dst.Bounds().Dx(), dst.Bounds().Dy()
	sw, sh := uint64(sb.Dx()), uint64(sb.Dy())
	for y := 0; y < dh; y++ {
		sy := sb.Min.Y + int((2*uint64(y)+1)*sh/(2*uint64(dh)))
		row := dst.Pix[y*dst.Stride : y*dst.Stride+4*dw]
		for x := 0; x < dw; x++ {
			sx := sb.Min.X + int((2*uint64(x)+1)*sw/(2*uint64(dw)))
			off := src.PixOffset(sx, sy)
			copy(row[4*x:4*x+4], src.Pix[off:off+4])
		}
	}
}

// CheckSize returns a ConfigurationError if either dimension of the
// image at index i exceeds limit.
func CheckSize(i int, img fade.Image, limit int) error {
	if img.Width() > limit {
		return &fade.Error{Kind: fade.ConfigurationError, Op: "check size", Index: i,
			Err: fmt.Errorf("width must be <= %d: %d", limit, img.Width())}
	}
	if img.Height() > limit {
		return &fade.Error{Kind: fade.ConfigurationError, Op: "check size", Index: i,
			Err: fmt.Errorf("height must be <= %d: %d", limit, img.Height())}
	}
	return nil
}

// Validate is the validation pass over a complete set of animation images.
// It returns a ConfigurationError if there are fewer than two images, if
// any image has a dimension greater than fade.MaxDimension or is empty, or
// if any image's dimensions differ from the first image's.
func Validate(images []fade.Image) error {
	const op = "validate images"
	switch len(images) {
	case 0:
		return fade.Errorf(fade.ConfigurationError, op, "no images provided")
	case 1:
		return fade.Errorf(fade.ConfigurationError, op, "at least two images are required")
	}
	w, h := images[0].Width(), images[0].Height()
	for i, img := range images {
		err := CheckSize(i, img, fade.MaxDimension)
		if err != nil {
			return err
		}
		if img.Width() == 0 || img.Height() == 0 {
			return &fade.Error{Kind: fade.ConfigurationError, Op: op, Index: i,
				Err: fmt.Errorf("empty image: %d x %d", img.Width(), img.Height())}
		}
		if img.Width() != w || img.Height() != h {
			return &fade.Error{Kind: fade.ConfigurationError, Op: op, Index: i,
				Err: fmt.Errorf("images do not have the same dimension: %d x %d, %d x %d", w, h, img.Width(), img.Height())}
		}
	}
	return nil
}

// Options are image loading options.
type Options struct {
	// Width and Height are the dimensions to resize
	// images to. If either is zero, images are not
	// resized.
	Width, Height int

	// Loaded is called after each image is loaded
	// if it is not nil.
	Loaded func(i int, path string, img fade.Image) error

	// Log is used for debug logging. If Log
	// is nil, no logging is performed.
	Log *slog.Logger
}

// Open loads, resizes and validates the images at paths. Path existence
// is checked for all paths before any image is decoded.
func Open(ctx context.Context, paths []string, opts Options) ([]fade.Image, error) {
	if len(paths) == 0 {
		return nil, fade.Errorf(fade.ConfigurationError, "open images", "no images provided")
	}
	err := Check(paths)
	if err != nil {
		return nil, err
	}
	resize := opts.Width > 0 && opts.Height > 0
	images := make([]fade.Image, 0, len(paths))
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := Load(p)
		if err != nil {
			return nil, err
		}
		if opts.Log != nil {
			opts.Log.LogAttrs(ctx, slog.LevelDebug, "decoded image",
				slog.String("path", p),
				slog.Int("width", img.Width()),
				slog.Int("height", img.Height()),
				slog.Any("mode", slogext.Stringer{Stringer: img.Mode}),
			)
		}
		err = CheckSize(i, img, fade.MaxDimension)
		if err != nil {
			return nil, err
		}
		if resize {
			img = Resize(img, opts.Width, opts.Height)
		}
		if opts.Loaded != nil {
			err = opts.Loaded(i, p, img)
			if err != nil {
				return nil, err
			}
		}
		images = append(images, img)
	}
	err = Validate(images)
	if err != nil {
		return nil, err
	}
	return images, nil
}
