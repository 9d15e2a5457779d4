// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli implements the fade command line and run configuration.
//
// The command line accepts image paths and options in any order. Options
// may take more than one argument, so the standard library flag package
// is not used.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kortschak/fade/internal/fade"
)

// DefaultOutput is the output path used when none is given.
const DefaultOutput = "output.gif"

// Options is a resolved fade invocation.
type Options struct {
	// Images is the list of image arguments. A single
	// argument containing '*' is a suffix pattern.
	Images []string

	// Output is the GIF output path and OutputDir is the
	// directory prefix for all written files. OutputDir
	// is empty or ends with a slash.
	Output    string
	OutputDir string

	// WriteFrames and WriteJSON indicate that frames
	// and the apngasm sidecar should be written.
	WriteFrames bool
	WriteJSON   bool

	// Resize indicates that images must be resized
	// to Width×Height.
	Resize        bool
	Width, Height int

	// Config is the animation configuration.
	Config fade.Config

	// ConfigFile is the TOML run configuration path, if any.
	ConfigFile string

	// Watch indicates that the animation should be
	// regenerated when an image changes.
	Watch bool

	LogLevel string
	Lines    bool
	Version  bool
	// Usage indicates that the usage text should be
	// printed and no work done.
	Usage bool
}

// args holds the values set on the command line. Nil fields were not set.
type args struct {
	images      []string
	output      *string
	writeFrames bool
	writeJSON   bool
	frames      *int
	important   *float32
	standard    *float32
	speed       *int
	resize      *[2]int
	workers     *int
	config      *string
	log         *string
	lines       bool
	watch       bool
	version     bool
	help        bool
}

// Parse parses the command line arguments, excluding the program name,
// and resolves them against the run configuration file if one is given
// with -c. Invalid arguments result in a fade.ConfigurationError. Image
// arguments are not checked.
func Parse(argv []string) (*Options, error) {
	if len(argv) == 0 {
		return &Options{Usage: true}, nil
	}
	a, err := scan(argv)
	if err != nil {
		return nil, err
	}
	if a.help {
		return &Options{Usage: true}, nil
	}
	if a.version {
		return &Options{Version: true}, nil
	}

	var file *File
	if a.config != nil {
		file, err = LoadFile(*a.config)
		if err != nil {
			return nil, err
		}
	}
	return resolve(a, file)
}

func scan(argv []string) (*args, error) {
	var a args
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if !isFlag(arg) {
			a.images = append(a.images, arg)
			continue
		}
		// Returns the n values following the current flag,
		// advancing past them.
		values := func(n int, what, example string) ([]string, error) {
			if i+n >= len(argv) {
				return nil, usageErrorf("missing %s for %s. Ex : %s", what, arg, example)
			}
			v := argv[i+1 : i+1+n]
			i += n
			return v, nil
		}
		switch arg {
		case "-o":
			v, err := values(1, "output path", "fade image1.jpg image2.jpg -o output.gif")
			if err != nil {
				return nil, err
			}
			a.output = &v[0]
		case "-w":
			a.writeFrames = true
		case "-a":
			a.writeJSON = true
		case "-n":
			v, err := values(1, "number of frames", "fade image1.jpg image2.jpg -n 20")
			if err != nil {
				return nil, err
			}
			n, err := parseInt(arg, v[0])
			if err != nil {
				return nil, err
			}
			a.frames = &n
		case "-d":
			v, err := values(2, "durations", "fade image1.jpg image2.jpg -d 1000 10")
			if err != nil {
				return nil, err
			}
			important, err := parseMillis(arg, v[0])
			if err != nil {
				return nil, err
			}
			standard, err := parseMillis(arg, v[1])
			if err != nil {
				return nil, err
			}
			a.important = &important
			a.standard = &standard
		case "-s":
			v, err := values(1, "speed", "fade image1.jpg image2.jpg -s 10")
			if err != nil {
				return nil, err
			}
			s, err := parseInt(arg, v[0])
			if err != nil {
				return nil, err
			}
			a.speed = &s
		case "-r":
			v, err := values(2, "size", "fade image1.jpg image2.jpg -r 1920 1080")
			if err != nil {
				return nil, err
			}
			w, err := parseInt(arg, v[0])
			if err != nil {
				return nil, err
			}
			h, err := parseInt(arg, v[1])
			if err != nil {
				return nil, err
			}
			a.resize = &[2]int{w, h}
		case "-j":
			v, err := values(1, "worker count", "fade image1.jpg image2.jpg -j 4")
			if err != nil {
				return nil, err
			}
			n, err := parseInt(arg, v[0])
			if err != nil {
				return nil, err
			}
			a.workers = &n
		case "-c":
			v, err := values(1, "configuration path", "fade -c fade.toml")
			if err != nil {
				return nil, err
			}
			a.config = &v[0]
		case "-log", "--log":
			v, err := values(1, "logging level", "fade image1.jpg image2.jpg -log debug")
			if err != nil {
				return nil, err
			}
			a.log = &v[0]
		case "-lines", "--lines":
			a.lines = true
		case "-watch", "--watch":
			a.watch = true
		case "-version", "--version":
			a.version = true
		case "-h", "-help", "--help":
			a.help = true
		default:
			return nil, usageErrorf("unknown option: %s", arg)
		}
	}
	return &a, nil
}

// isFlag returns whether arg is an option. A lone "-"
// and negative numbers are not options.
func isFlag(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(arg, 64)
	return err != nil
}

func resolve(a *args, file *File) (*Options, error) {
	opts := Options{
		Output:   DefaultOutput,
		Config:   fade.DefaultConfig(),
		LogLevel: "warn",
	}
	var durationSet bool
	if file != nil {
		durationSet = file.apply(&opts)
	}

	if len(a.images) != 0 {
		opts.Images = a.images
	}
	if a.output != nil {
		opts.Output = *a.output
	}
	opts.WriteFrames = opts.WriteFrames || a.writeFrames
	opts.WriteJSON = opts.WriteJSON || a.writeJSON
	if a.frames != nil {
		opts.Config.FrameCount = *a.frames
	}
	if a.important != nil {
		opts.Config.EndpointDuration = fade.Millis(*a.important)
		opts.Config.StepDuration = fade.Millis(*a.standard)
		durationSet = true
	}
	if a.speed != nil {
		opts.Config.Speed = *a.speed
	}
	if a.resize != nil {
		opts.Resize = true
		opts.Width, opts.Height = a.resize[0], a.resize[1]
	}
	if a.workers != nil {
		opts.Config.Workers = *a.workers
	}
	if a.config != nil {
		opts.ConfigFile = *a.config
	}
	if a.log != nil {
		opts.LogLevel = *a.log
	}
	opts.Lines = a.lines
	opts.Watch = a.watch

	const op = "parse arguments"
	if opts.Config.FrameCount < 1 {
		return nil, fade.Errorf(fade.ConfigurationError, op, "number of frames must be at least 1: %d", opts.Config.FrameCount)
	}
	if !durationSet {
		opts.Config.StepDuration = fade.StepDurationFor(opts.Config.FrameCount)
	}
	if opts.Resize && (opts.Width < 1 || opts.Height < 1 || fade.MaxDimension < opts.Width || fade.MaxDimension < opts.Height) {
		return nil, fade.Errorf(fade.ConfigurationError, op, "invalid resize dimensions: %d x %d", opts.Width, opts.Height)
	}
	if opts.Config.Workers < 1 {
		return nil, fade.Errorf(fade.ConfigurationError, op, "worker count must be at least 1: %d", opts.Config.Workers)
	}
	err := opts.Config.Validate()
	if err != nil {
		return nil, err
	}
	if opts.Output == "" {
		return nil, fade.Errorf(fade.ConfigurationError, op, "empty output path")
	}
	opts.Output, opts.OutputDir = OutputPaths(opts.Output)
	return &opts, nil
}

// OutputPaths returns the GIF path and output directory prefix for the
// provided output argument. Backslashes are treated as path separators.
// An output ending in a slash names a directory that will hold
// output.gif. Otherwise the directory part of the output, if any, is the
// output directory.
func OutputPaths(output string) (path, dir string) {
	if output == DefaultOutput {
		return output, ""
	}
	output = strings.ReplaceAll(output, `\`, "/")
	if strings.HasSuffix(output, "/") {
		return output + DefaultOutput, output
	}
	if i := strings.LastIndex(output, "/"); i >= 0 {
		return output, output[:i+1]
	}
	return output, ""
}

// Warnings returns advisory messages for option combinations
// that are valid but probably not intended.
func (o *Options) Warnings() []string {
	var w []string
	if o.WriteJSON && !o.WriteFrames {
		w = append(w, "You write apngasm json to disk but not frames ?")
	}
	return w
}

func parseInt(flag, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &fade.Error{Kind: fade.ConfigurationError, Op: "parse arguments", Index: -1, Err: fmt.Errorf("invalid value for %s: %q", flag, s)}
	}
	return n, nil
}

func parseMillis(flag, s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &fade.Error{Kind: fade.ConfigurationError, Op: "parse arguments", Index: -1, Err: fmt.Errorf("invalid value for %s: %q", flag, s)}
	}
	return float32(f), nil
}

func usageErrorf(format string, args ...any) error {
	return fade.Errorf(fade.ConfigurationError, "parse arguments", format, args...)
}
