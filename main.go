// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The fade command creates a looping animated GIF that cross-fades
// between a sequence of images.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/kortschak/fade/internal/cli"
	"github.com/kortschak/fade/internal/fade"
	"github.com/kortschak/fade/internal/gifsink"
	"github.com/kortschak/fade/internal/pngdump"
	"github.com/kortschak/fade/internal/sidecar"
	"github.com/kortschak/fade/internal/slogext"
	"github.com/kortschak/fade/internal/source"
	"github.com/kortschak/fade/internal/version"
	"github.com/kortschak/fade/internal/watch"
)

// Exit status codes.
const (
	success       = 0
	internalError = 1 << (iota - 1)
	invocationError
)

func main() { os.Exit(Main()) }

func Main() int {
	opts, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error : %v\n", err)
		return invocationError
	}
	if opts.Usage {
		err = cli.Usage(os.Stdout, cli.UsageWidth)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return internalError
		}
		return success
	}
	if opts.Version {
		err := version.Print(os.Stdout, "fade")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return internalError
		}
		return success
	}

	var level slog.LevelVar
	err = level.UnmarshalText([]byte(opts.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error : invalid logging level: %q\n", opts.LogLevel)
		return invocationError
	}
	addSource := slogext.NewAtomicBool(opts.Lines)
	log := slog.New(slogext.GoID{Handler: slogext.NewJSONHandler(os.Stderr, &slogext.HandlerOptions{
		Level:     &level,
		AddSource: addSource,
	})}).With(
		slog.String("component", "fade.main"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			log.LogAttrs(ctx, slog.LevelInfo, "terminating")
			cancel()
		case <-ctx.Done():
		}
	}()

	paths, err := expand(opts.Images)
	if err != nil {
		return report(err)
	}
	err = run(ctx, opts, paths, os.Stdout, os.Stderr, log)
	if !opts.Watch {
		if err != nil {
			return report(err)
		}
		return success
	}
	if err != nil {
		report(err)
	}

	w, err := watch.New(paths, -1, log)
	if err != nil {
		return report(&fade.Error{Kind: fade.IOError, Op: "watch", Index: -1, Err: err})
	}
	defer w.Close()
	fmt.Fprintf(os.Stdout, "Watching %d images for changes\n", len(paths))
	err = w.Watch(ctx, func(changed []string) error {
		fmt.Fprintf(os.Stdout, "\nChanged : %s\n", strings.Join(changed, ", "))
		err := run(ctx, opts, paths, os.Stdout, os.Stderr, log)
		if err != nil && ctx.Err() == nil {
			report(err)
		}
		return nil
	})
	if err != nil {
		return report(&fade.Error{Kind: fade.IOError, Op: "watch", Index: -1, Err: err})
	}
	return success
}

// report prints err and returns the exit status for it.
func report(err error) int {
	fmt.Fprintf(os.Stderr, "\nError : %v\n", err)
	if fade.IsKind(err, fade.ConfigurationError) {
		return invocationError
	}
	return internalError
}

// expand returns the image paths for the image arguments. There must be
// at least two.
func expand(args []string) ([]string, error) {
	paths, err := source.Expand(args, ".")
	if err != nil {
		return nil, err
	}
	switch len(paths) {
	case 0:
		return nil, fade.Errorf(fade.ConfigurationError, "open images", "No images provided !")
	case 1:
		return nil, fade.Errorf(fade.ConfigurationError, "open images", "at least two images are needed: %s", paths[0])
	}
	return paths, nil
}

// run performs the animation run described by opts for the images at
// paths, writing user messages to stdout and stderr.
func run(ctx context.Context, opts *cli.Options, paths []string, stdout, stderr io.Writer, log *slog.Logger) error {
	for _, w := range opts.Warnings() {
		fmt.Fprintf(stderr, "Warning : %s\n", w)
	}

	cfg := opts.Config
	summarise(stdout, opts, paths)

	if opts.OutputDir != "" {
		_, err := os.Stat(opts.OutputDir)
		if errors.Is(err, os.ErrNotExist) {
			err = os.MkdirAll(opts.OutputDir, 0o755)
			if err != nil {
				return &fade.Error{Kind: fade.IOError, Op: "create dir", Path: opts.OutputDir, Index: -1, Err: err}
			}
			fmt.Fprintf(stdout, "Created %s directory\n\n", opts.OutputDir)
		}
	}

	if opts.WriteJSON {
		err := sidecar.Write(opts.OutputDir, len(paths), cfg.FrameCount, cfg.EndpointDuration, cfg.StepDuration)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, "Wrote json to disk\n\n")
	}

	srcOpts := source.Options{
		Loaded: func(i int, path string, img fade.Image) error {
			fmt.Fprintf(stdout, "Opened %s\n", path)
			return nil
		},
		Log: log,
	}
	if opts.Resize {
		srcOpts.Width, srcOpts.Height = opts.Width, opts.Height
	}
	images, err := source.Open(ctx, paths, srcOpts)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout)

	width, height := images[0].Width(), images[0].Height()
	sink, err := gifsink.Open(opts.Output, width, height, cfg.Speed)
	if err != nil {
		return err
	}
	defer sink.Close()
	sink.SetLoopForever()
	sink.Log = log

	var dumper *pngdump.Dumper
	if opts.WriteFrames {
		dumper = &pngdump.Dumper{Dir: opts.OutputDir}
	}

	total := len(images) * cfg.FrameCount
	s := fade.Scheduler{Config: cfg, Log: log}
	err = s.Run(ctx, images, func(f fade.Frame) error {
		fmt.Fprintf(stdout, "\rCreating and writing frame %04d out of %04d", f.Index+1, total)
		if dumper != nil {
			err := dumper.Write(f)
			if err != nil {
				return err
			}
		}
		return sink.Push(f)
	})
	if err != nil {
		return err
	}
	err = sink.Finish()
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, "\nDone !\n")
	log.LogAttrs(ctx, slog.LevelInfo, "wrote animation",
		slog.String("path", opts.Output),
		slog.Int("frames", total),
	)
	return nil
}

// summarise writes the run parameters to w.
func summarise(w io.Writer, opts *cli.Options, paths []string) {
	cfg := opts.Config
	fmt.Fprint(w, "Parameters :\n")
	fmt.Fprintf(w, "\tImages : %s\n", strings.Join(paths, ", "))
	fmt.Fprintf(w, "\tOutput : %s\n", opts.Output)
	if opts.OutputDir != "" {
		fmt.Fprintf(w, "\tOutput directory : %s\n", opts.OutputDir)
	}
	fmt.Fprintf(w, "\tTotal of frames : %d\n", cfg.FrameCount*len(paths))
	fmt.Fprintf(w, "\tDuration of standard frames : %vms, duration of important frames : %vms\n", cfg.StepDuration, cfg.EndpointDuration)
	fmt.Fprintf(w, "\tWrite frames to disk : %t\n", opts.WriteFrames)
	fmt.Fprintf(w, "\tWrite .json for apngasm : %t\n", opts.WriteJSON)
	fmt.Fprintf(w, "\tSpeed of conversion : %d\n", cfg.Speed)
	fmt.Fprintf(w, "\tWorkers : %d\n", cfg.Workers)
	if opts.Resize {
		fmt.Fprintf(w, "\tResize : true, width : %d, height : %d\n\n", opts.Width, opts.Height)
	} else {
		fmt.Fprint(w, "\tResize : false\n\n")
	}
}
