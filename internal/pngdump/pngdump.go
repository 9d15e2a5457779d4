// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pngdump writes animation frames to disk as PNG files.
package pngdump

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/kortschak/fade/internal/blend"
	"github.com/kortschak/fade/internal/fade"
)

// Dumper writes frames as individual PNG images.
type Dumper struct {
	// Dir is the prefix for file names. It must be
	// empty or end with a path separator.
	Dir string

	enc png.Encoder
}

// Path returns the path that frame index is written to.
func (d *Dumper) Path(index int) string {
	return fmt.Sprintf("%s%04d.png", d.Dir, index)
}

// Write writes f to its file, replacing any existing file. Opaque frames
// are written without an alpha channel.
func (d *Dumper) Write(f fade.Frame) error {
	path := d.Path(f.Index)
	if f.NRGBA == nil {
		return &fade.Error{Kind: fade.IOError, Op: "write frame", Path: path, Index: f.Index, Err: errors.New("no image")}
	}
	var img image.Image = f.NRGBA
	if f.Mode == blend.Opaque {
		img = opaque{f.NRGBA}
	}

	file, err := os.Create(path)
	if err != nil {
		return &fade.Error{Kind: fade.IOError, Op: "write frame", Path: path, Index: f.Index, Err: err}
	}
	w := bufio.NewWriter(file)
	err = d.enc.Encode(w, img)
	if err == nil {
		err = w.Flush()
	}
	cerr := file.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		return &fade.Error{Kind: fade.IOError, Op: "write frame", Path: path, Index: f.Index, Err: err}
	}
	return nil
}

// opaque reports itself as opaque so that the PNG
// encoder writes an RGB image.
type opaque struct {
	*image.NRGBA
}

func (opaque) Opaque() bool { return true }
