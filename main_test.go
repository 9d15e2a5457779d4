// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	update = flag.Bool("update", false, "update tests")
	keep   = flag.Bool("keep", false, "keep $WORK directory after tests")
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"fade":    Main,
		"mkimg":   mkimg,
		"gifinfo": gifinfo,
	}))
}

func TestScripts(t *testing.T) {
	t.Parallel()

	p := testscript.Params{
		Dir:           filepath.Join("testdata"),
		UpdateScripts: *update,
		TestWork:      *keep,
	}
	testscript.Run(t, p)
}

// mkimg writes a uniformly coloured image. The format is
// determined by the file extension.
func mkimg() int {
	if len(os.Args) != 7 && len(os.Args) != 8 {
		fmt.Fprintln(os.Stderr, "usage: mkimg <path> <width> <height> <r> <g> <b> [<a>]")
		return 2
	}
	path := os.Args[1]
	var vals []int
	for _, arg := range os.Args[2:] {
		v, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid value: %q\n", arg)
			return 2
		}
		vals = append(vals, v)
	}
	c := color.NRGBA{R: uint8(vals[2]), G: uint8(vals[3]), B: uint8(vals[4]), A: 0xff}
	if len(vals) == 6 {
		c.A = uint8(vals[5])
	}
	img := image.NewNRGBA(image.Rect(0, 0, vals[0], vals[1]))
	for y := 0; y < vals[1]; y++ {
		for x := 0; x < vals[0]; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	switch filepath.Ext(path) {
	case ".png":
		err = png.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 100})
	default:
		err = fmt.Errorf("unsupported format: %s", path)
	}
	if err != nil {
		f.Close()
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	err = f.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// gifinfo prints a summary of a GIF animation.
func gifinfo() int {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: gifinfo <path>")
		return 2
	}
	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	delays := make([]string, len(g.Delay))
	for i, d := range g.Delay {
		delays[i] = strconv.Itoa(d)
	}
	fmt.Printf("size %dx%d\n", g.Config.Width, g.Config.Height)
	fmt.Printf("frames %d\n", len(g.Image))
	fmt.Printf("loop %d\n", g.LoopCount)
	fmt.Printf("delays %s\n", strings.Join(delays, " "))
	return 0
}
