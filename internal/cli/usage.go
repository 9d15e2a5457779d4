// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/bbrks/wrap/v2"
)

// UsageWidth is the default width of usage text.
const UsageWidth = 80

const tabWidth = 8

var options = []struct {
	flag string
	help string
}{
	{"-o <output path>", "Set output path. A path ending in / is a directory that will hold output.gif and any other written files."},
	{"-w", "Write frames to disk."},
	{"-a", "Write a .json used by apngasm."},
	{"-n <count>", "Set frames count."},
	{"-d <important> <standard>", "Set durations of frame in ms."},
	{"-s <speed>", "Set gif conversion speed. Must be between 1 and 30, 30 is loss quality but faster."},
	{"-r <width> <height>", "Resize image."},
	{"-j <workers>", "Set the number of frames generated concurrently."},
	{"-c <file>", "Read options from a TOML file. Command line options take precedence."},
	{"-watch", "Regenerate the animation when an image changes."},
	{"-log <level>", "Set logging level (debug, info, warn or error)."},
	{"-lines", "Display source line details in logs."},
	{"-version", "Print version and exit."},
}

var examples = []struct {
	command string
	help    string
}{
	{"fade image1.jpg image2.jpg", "will create an animation from the 2 images"},
	{"fade *.png -o o.gif -n 50", "will take every images in the directory that end with .png, output the result to o.gif and with 50 frames per images"},
}

// Usage writes the command usage text to w with option and example
// descriptions wrapped to width columns.
func Usage(w io.Writer, width int) error {
	wrapper := wrap.NewWrapper()
	wrapper.StripTrailingNewline = true
	wrapper.CutLongWords = true
	// Descriptions are indented by two tabs.
	cols := max(width-2*tabWidth, 1)
	indent := func(text string) string {
		lines := strings.Split(wrapper.Wrap(text, cols), "\n")
		for i, l := range lines {
			lines[i] = "\t\t" + strings.TrimSpace(l)
		}
		return strings.Join(lines, "\n")
	}

	var buf strings.Builder
	buf.WriteString("Usage : fade <file 1> <file 2> [options]\n")
	buf.WriteString("Options :\n")
	for _, o := range options {
		fmt.Fprintf(&buf, "\t%s\n%s\n", o.flag, indent(o.help))
	}
	buf.WriteString("\nExamples :\n")
	for _, e := range examples {
		fmt.Fprintf(&buf, "\t%s\n%s\n", e.command, indent(e.help))
	}
	_, err := io.WriteString(w, buf.String())
	return err
}
