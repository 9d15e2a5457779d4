// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gifsink encodes animation frames as an animated GIF.
package gifsink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/image/draw"

	"github.com/kortschak/fade/internal/blend"
	"github.com/kortschak/fade/internal/fade"
	"github.com/kortschak/fade/internal/slogext"
)

// DitherSpeed is the fastest speed at which frames are
// quantised with Floyd-Steinberg error diffusion. Faster
// speeds map each pixel to its nearest palette colour.
const DitherSpeed = 10

// maxDelay is the largest delay representable in a GIF frame.
const maxDelay = 1<<16 - 1

var (
	opaquePalette = palette.Plan9
	alphaPalette  = append(append(color.Palette{}, palette.WebSafe...), color.Transparent)
)

// Sink is a GIF animation encoder. Frames pushed to a Sink are quantised
// immediately and the complete GIF is written when Finish is called.
type Sink struct {
	w      *bufio.Writer
	closer io.Closer
	path   string
	lock   *flock.Flock

	width, height int
	drawer        draw.Drawer
	gif           gif.GIF
	next          int
	done          bool
	written       bool

	// Log is used for debug logging. If Log
	// is nil, no logging is performed.
	Log *slog.Logger
}

// Open returns a Sink that writes a width×height GIF to the file at
// path, quantising frames according to speed. The path is locked
// against other Sinks until the Sink is closed. It returns an
// EncodeInitError if the file cannot be locked or created or the
// parameters are invalid.
func Open(path string, width, height, speed int) (*Sink, error) {
	const op = "create gif"
	perr := checkParams(width, height, speed)
	if perr != nil {
		perr.Path = path
		return nil, perr
	}
	path = filepath.Clean(path)
	lock := flock.New(path + LockSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, &fade.Error{Kind: fade.EncodeInitError, Op: op, Path: path, Index: -1, Err: err}
	}
	if !ok {
		return nil, &fade.Error{Kind: fade.EncodeInitError, Op: op, Path: path, Index: -1, Err: errors.New("output is being written by another process")}
	}
	f, err := os.Create(path)
	if err != nil {
		unlock(lock)
		return nil, &fade.Error{Kind: fade.EncodeInitError, Op: op, Path: path, Index: -1, Err: err}
	}
	s := newSink(f, width, height, speed)
	s.closer = f
	s.path = path
	s.lock = lock
	return s, nil
}

// LockSuffix is the suffix of the lock file held
// while a GIF file is being written.
const LockSuffix = ".lock"

func unlock(l *flock.Flock) error {
	err := l.Unlock()
	os.Remove(l.Path())
	return err
}

// NewWriter returns a Sink that writes a width×height GIF to w.
func NewWriter(w io.Writer, width, height, speed int) (*Sink, error) {
	err := checkParams(width, height, speed)
	if err != nil {
		return nil, err
	}
	return newSink(w, width, height, speed), nil
}

func checkParams(width, height, speed int) *fade.Error {
	const op = "create gif"
	switch {
	case width < 1 || fade.MaxDimension < width:
		return &fade.Error{Kind: fade.EncodeInitError, Op: op, Index: -1, Err: fmt.Errorf("invalid width: %d", width)}
	case height < 1 || fade.MaxDimension < height:
		return &fade.Error{Kind: fade.EncodeInitError, Op: op, Index: -1, Err: fmt.Errorf("invalid height: %d", height)}
	case speed < fade.MinSpeed || fade.MaxSpeed < speed:
		return &fade.Error{Kind: fade.EncodeInitError, Op: op, Index: -1, Err: fmt.Errorf("invalid speed: %d", speed)}
	}
	return nil
}

func newSink(w io.Writer, width, height, speed int) *Sink {
	var drawer draw.Drawer = draw.Src
	if speed <= DitherSpeed {
		drawer = draw.FloydSteinberg
	}
	return &Sink{
		w:      bufio.NewWriter(w),
		width:  width,
		height: height,
		drawer: drawer,
		gif: gif.GIF{
			Config:    image.Config{Width: width, Height: height},
			LoopCount: -1,
		},
	}
}

// SetLoopForever sets the animation to repeat indefinitely.
func (s *Sink) SetLoopForever() {
	s.gif.LoopCount = 0
}

// Push adds f to the animation. Frames must be pushed in index order
// starting from zero. Push returns an EncodeFrameError if f is out of
// order, has the wrong size or cannot be quantised.
func (s *Sink) Push(f fade.Frame) error {
	const op = "encode frame"
	if s.done {
		return &fade.Error{Kind: fade.EncodeFrameError, Op: op, Path: s.path, Index: f.Index, Err: errors.New("push after finish")}
	}
	if f.Index != s.next {
		return &fade.Error{Kind: fade.EncodeFrameError, Op: op, Path: s.path, Index: f.Index,
			Err: fmt.Errorf("out of order frame: expected %d", s.next)}
	}
	if f.NRGBA == nil {
		return &fade.Error{Kind: fade.EncodeFrameError, Op: op, Path: s.path, Index: f.Index, Err: errors.New("no image")}
	}
	if f.Width() != s.width || f.Height() != s.height {
		return &fade.Error{Kind: fade.EncodeFrameError, Op: op, Path: s.path, Index: f.Index,
			Err: fmt.Errorf("frame size %d x %d does not match animation size %d x %d", f.Width(), f.Height(), s.width, s.height)}
	}

	pal := opaquePalette
	disposal := byte(gif.DisposalNone)
	if f.Mode == blend.Alpha {
		pal = alphaPalette
		// Translucent frames must not be composited
		// over their predecessor, so the predecessor
		// is cleared when it is replaced.
		disposal = gif.DisposalBackground
		if n := len(s.gif.Disposal); n != 0 {
			s.gif.Disposal[n-1] = gif.DisposalBackground
		}
	}
	dst := image.NewPaletted(image.Rect(0, 0, s.width, s.height), pal)
	s.drawer.Draw(dst, dst.Bounds(), f.NRGBA, f.Bounds().Min)

	s.gif.Image = append(s.gif.Image, dst)
	s.gif.Delay = append(s.gif.Delay, min(f.Duration.Centiseconds(), maxDelay))
	s.gif.Disposal = append(s.gif.Disposal, disposal)
	s.next++
	if s.Log != nil {
		s.Log.LogAttrs(context.Background(), slog.LevelDebug, "pushed frame",
			slog.Int("index", f.Index),
			slog.Int("delay", s.gif.Delay[len(s.gif.Delay)-1]),
			slog.Any("mode", slogext.Stringer{Stringer: f.Mode}),
		)
	}
	return nil
}

// Frames returns the number of frames pushed to s.
func (s *Sink) Frames() int { return s.next }

// Finish writes the animation and closes the underlying file if s was
// created by Open.
func (s *Sink) Finish() error {
	if s.done {
		return &fade.Error{Kind: fade.EncodeFrameError, Op: "finish gif", Path: s.path, Index: -1, Err: errors.New("already finished")}
	}
	s.done = true
	if n := len(s.gif.Disposal); n != 0 && s.gif.Disposal[0] == gif.DisposalBackground {
		// The loop shows the first frame after the last.
		s.gif.Disposal[n-1] = gif.DisposalBackground
	}
	err := gif.EncodeAll(s.w, &s.gif)
	if err == nil {
		err = s.w.Flush()
	}
	if err != nil {
		s.Close()
		return &fade.Error{Kind: fade.EncodeFrameError, Op: "finish gif", Path: s.path, Index: -1, Err: err}
	}
	s.written = true
	// Release quantised frames.
	s.gif.Image = nil
	return s.Close()
}

// Close closes the underlying file if s was created by Open. If the
// animation has not been successfully written by Finish, the incomplete
// file is removed. It is safe to call Close after Finish.
func (s *Sink) Close() error {
	s.done = true
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	err := c.Close()
	if !s.written {
		rerr := os.Remove(s.path)
		if err == nil && !errors.Is(rerr, fs.ErrNotExist) {
			err = rerr
		}
	}
	if s.lock != nil {
		lerr := unlock(s.lock)
		if err == nil {
			err = lerr
		}
		s.lock = nil
	}
	if err != nil {
		return &fade.Error{Kind: fade.IOError, Op: "close gif", Path: s.path, Index: -1, Err: err}
	}
	return nil
}
