// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gifsink

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kortschak/fade/internal/blend"
	"github.com/kortschak/fade/internal/fade"
)

func uniform(w, h int, c color.NRGBA, mode blend.Mode) fade.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return fade.Image{NRGBA: img, Mode: mode}
}

func TestSink(t *testing.T) {
	white := uniform(8, 6, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, blend.Opaque)
	black := uniform(8, 6, color.NRGBA{A: 255}, blend.Opaque)
	cfg := fade.Config{FrameCount: 10, EndpointDuration: 100, StepDuration: 10}

	for _, speed := range []int{1, DitherSpeed, 30} {
		var buf bytes.Buffer
		s, err := NewWriter(&buf, 8, 6, speed)
		if err != nil {
			t.Fatalf("unexpected error creating sink: %v", err)
		}
		s.SetLoopForever()
		for _, f := range fade.Schedule([]fade.Image{white, black}, cfg) {
			err = s.Push(f)
			if err != nil {
				t.Fatalf("unexpected error pushing frame %d: %v", f.Index, err)
			}
		}
		if s.Frames() != 20 {
			t.Errorf("unexpected frame count: got:%d want:20", s.Frames())
		}
		err = s.Finish()
		if err != nil {
			t.Fatalf("unexpected error finishing: %v", err)
		}

		g, err := gif.DecodeAll(&buf)
		if err != nil {
			t.Fatalf("unexpected error decoding gif: %v", err)
		}
		if len(g.Image) != 20 {
			t.Fatalf("unexpected number of frames: got:%d want:20", len(g.Image))
		}
		if g.LoopCount != 0 {
			t.Errorf("unexpected loop count: got:%d want:0", g.LoopCount)
		}
		want := []int{10, 1, 1, 1, 1, 1, 1, 1, 1, 1, 10, 1, 1, 1, 1, 1, 1, 1, 1, 1}
		if !cmp.Equal(want, g.Delay) {
			t.Errorf("unexpected delays for speed %d:\n--- want:\n+++ got:\n%s", speed, cmp.Diff(want, g.Delay))
		}
		if g.Config.Width != 8 || g.Config.Height != 6 {
			t.Errorf("unexpected size: %dx%d", g.Config.Width, g.Config.Height)
		}
		r, gr, b, _ := g.Image[0].At(3, 3).RGBA()
		if r != 0xffff || gr != 0xffff || b != 0xffff {
			t.Errorf("unexpected first frame colour: %v", g.Image[0].At(3, 3))
		}
		r, gr, b, _ = g.Image[10].At(3, 3).RGBA()
		if r != 0 || gr != 0 || b != 0 {
			t.Errorf("unexpected eleventh frame colour: %v", g.Image[10].At(3, 3))
		}
	}
}

func TestSinkPlayOnce(t *testing.T) {
	img := uniform(2, 2, color.NRGBA{A: 255}, blend.Opaque)
	var buf bytes.Buffer
	s, err := NewWriter(&buf, 2, 2, 20)
	if err != nil {
		t.Fatalf("unexpected error creating sink: %v", err)
	}
	for i := 0; i < 2; i++ {
		err = s.Push(fade.Frame{Index: i, Image: img, Duration: 1000})
		if err != nil {
			t.Fatalf("unexpected error pushing frame: %v", err)
		}
	}
	err = s.Finish()
	if err != nil {
		t.Fatalf("unexpected error finishing: %v", err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding gif: %v", err)
	}
	if g.LoopCount != -1 {
		t.Errorf("unexpected loop count: got:%d want:-1", g.LoopCount)
	}
}

func TestSinkAlpha(t *testing.T) {
	empty := uniform(4, 4, color.NRGBA{}, blend.Alpha)
	var buf bytes.Buffer
	s, err := NewWriter(&buf, 4, 4, 30)
	if err != nil {
		t.Fatalf("unexpected error creating sink: %v", err)
	}
	s.SetLoopForever()
	for i := 0; i < 2; i++ {
		err = s.Push(fade.Frame{Index: i, Image: empty, Duration: 500})
		if err != nil {
			t.Fatalf("unexpected error pushing frame: %v", err)
		}
	}
	err = s.Finish()
	if err != nil {
		t.Fatalf("unexpected error finishing: %v", err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding gif: %v", err)
	}
	for i, d := range g.Disposal {
		if d != gif.DisposalBackground {
			t.Errorf("unexpected disposal for frame %d: got:%d want:%d", i, d, gif.DisposalBackground)
		}
	}
	if _, _, _, a := g.Image[0].At(1, 1).RGBA(); a != 0 {
		t.Errorf("expected transparent pixel: got alpha %d", a)
	}
}

func TestSinkErrors(t *testing.T) {
	img := uniform(2, 2, color.NRGBA{A: 255}, blend.Opaque)
	big := uniform(3, 2, color.NRGBA{A: 255}, blend.Opaque)

	var buf bytes.Buffer
	s, err := NewWriter(&buf, 2, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error creating sink: %v", err)
	}
	err = s.Push(fade.Frame{Index: 1, Image: img})
	if !fade.IsKind(err, fade.EncodeFrameError) {
		t.Errorf("expected frame error for out of order frame: got:%v", err)
	}
	err = s.Push(fade.Frame{Index: 0, Image: big})
	if !fade.IsKind(err, fade.EncodeFrameError) {
		t.Errorf("expected frame error for wrong sized frame: got:%v", err)
	}
	err = s.Push(fade.Frame{Index: 0})
	if !fade.IsKind(err, fade.EncodeFrameError) {
		t.Errorf("expected frame error for missing image: got:%v", err)
	}
	err = s.Push(fade.Frame{Index: 0, Image: img})
	if err != nil {
		t.Fatalf("unexpected error pushing frame: %v", err)
	}
	err = s.Finish()
	if err != nil {
		t.Fatalf("unexpected error finishing: %v", err)
	}
	err = s.Push(fade.Frame{Index: 1, Image: img})
	if !fade.IsKind(err, fade.EncodeFrameError) {
		t.Errorf("expected frame error for push after finish: got:%v", err)
	}
	err = s.Finish()
	if !fade.IsKind(err, fade.EncodeFrameError) {
		t.Errorf("expected frame error for second finish: got:%v", err)
	}

	var empty bytes.Buffer
	s, err = NewWriter(&empty, 2, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error creating sink: %v", err)
	}
	err = s.Finish()
	if !fade.IsKind(err, fade.EncodeFrameError) {
		t.Errorf("expected frame error for empty animation: got:%v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name          string
		path          string
		width, height int
		speed         int
	}{
		{name: "missing_dir", path: filepath.Join(dir, "missing", "out.gif"), width: 1, height: 1, speed: 10},
		{name: "dir", path: dir, width: 1, height: 1, speed: 10},
		{name: "zero_width", path: filepath.Join(dir, "a.gif"), width: 0, height: 1, speed: 10},
		{name: "too_high", path: filepath.Join(dir, "a.gif"), width: 1, height: fade.MaxDimension + 1, speed: 10},
		{name: "slow", path: filepath.Join(dir, "a.gif"), width: 1, height: 1, speed: 0},
		{name: "fast", path: filepath.Join(dir, "a.gif"), width: 1, height: 1, speed: 31},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := Open(test.path, test.width, test.height, test.speed)
			if !fade.IsKind(err, fade.EncodeInitError) {
				t.Errorf("expected encoder initialisation error: got:%v", err)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}

func TestOpenFinish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	s, err := Open(path, 2, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error opening sink: %v", err)
	}
	img := uniform(2, 2, color.NRGBA{A: 255}, blend.Opaque)
	for i := 0; i < 3; i++ {
		err = s.Push(fade.Frame{Index: i, Image: img, Duration: 30})
		if err != nil {
			t.Fatalf("unexpected error pushing frame: %v", err)
		}
	}
	err = s.Finish()
	if err != nil {
		t.Fatalf("unexpected error finishing: %v", err)
	}
	err = s.Close()
	if err != nil {
		t.Errorf("unexpected error closing finished sink: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected finished output to be kept: %v", err)
	}
}

func TestOpenLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	first, err := Open(path, 2, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error opening sink: %v", err)
	}
	second, err := Open(path, 2, 2, 10)
	if !fade.IsKind(err, fade.EncodeInitError) {
		t.Errorf("expected encoder initialisation error for locked output: got:%v", err)
	}
	if second != nil {
		second.Close()
	}

	err = first.Close()
	if err != nil {
		t.Fatalf("unexpected error closing sink: %v", err)
	}
	if _, err := os.Stat(path + LockSuffix); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected lock file to be removed: %v", err)
	}
	second, err = Open(path, 2, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error opening unlocked sink: %v", err)
	}
	second.Close()
}

func TestSinkMixedDisposal(t *testing.T) {
	black := uniform(4, 4, color.NRGBA{A: 255}, blend.Opaque)
	faint := uniform(4, 4, color.NRGBA{R: 255, A: 64}, blend.Alpha)
	cfg := fade.Config{FrameCount: 3, EndpointDuration: 100, StepDuration: 10}

	var buf bytes.Buffer
	s, err := NewWriter(&buf, 4, 4, 30)
	if err != nil {
		t.Fatalf("unexpected error creating sink: %v", err)
	}
	s.SetLoopForever()
	for _, f := range fade.Schedule([]fade.Image{black, faint}, cfg) {
		err = s.Push(f)
		if err != nil {
			t.Fatalf("unexpected error pushing frame %d: %v", f.Index, err)
		}
	}
	err = s.Finish()
	if err != nil {
		t.Fatalf("unexpected error finishing: %v", err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding gif: %v", err)
	}
	// The opaque endpoint is followed by a translucent blend,
	// so it must be cleared as well.
	want := []byte{
		gif.DisposalBackground, gif.DisposalBackground, gif.DisposalBackground,
		gif.DisposalBackground, gif.DisposalBackground, gif.DisposalBackground,
	}
	if !cmp.Equal(want, g.Disposal) {
		t.Errorf("unexpected disposal:\n--- want:\n+++ got:\n%s", cmp.Diff(want, g.Disposal))
	}
}

func TestSinkOpaqueDisposal(t *testing.T) {
	img := uniform(2, 2, color.NRGBA{A: 255}, blend.Opaque)
	empty := uniform(2, 2, color.NRGBA{}, blend.Alpha)
	var buf bytes.Buffer
	s, err := NewWriter(&buf, 2, 2, 30)
	if err != nil {
		t.Fatalf("unexpected error creating sink: %v", err)
	}
	frames := []fade.Image{img, img, empty, img}
	for i, f := range frames {
		err = s.Push(fade.Frame{Index: i, Image: f, Duration: 100})
		if err != nil {
			t.Fatalf("unexpected error pushing frame: %v", err)
		}
	}
	err = s.Finish()
	if err != nil {
		t.Fatalf("unexpected error finishing: %v", err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding gif: %v", err)
	}
	want := []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalBackground, gif.DisposalNone}
	if !cmp.Equal(want, g.Disposal) {
		t.Errorf("unexpected disposal:\n--- want:\n+++ got:\n%s", cmp.Diff(want, g.Disposal))
	}
}

func TestOpenAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	s, err := Open(path, 2, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error opening sink: %v", err)
	}
	err = s.Push(fade.Frame{Index: 0, Image: uniform(2, 2, color.NRGBA{A: 255}, blend.Opaque), Duration: 30})
	if err != nil {
		t.Fatalf("unexpected error pushing frame: %v", err)
	}
	err = s.Close()
	if err != nil {
		t.Errorf("unexpected error closing sink: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected unfinished output to be removed: %v", err)
	}
	if _, err := os.Stat(path + LockSuffix); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected lock file to be removed: %v", err)
	}
}
