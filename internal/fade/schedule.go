// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fade

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kortschak/fade/internal/blend"
	"github.com/kortschak/fade/internal/slogext"
)

// Slot is the timing of a single frame in an animation.
type Slot struct {
	// Index is the position of the frame in the animation.
	Index int
	// Pair is the index of the first image of the
	// frame's transition.
	Pair int
	// Step is the position of the frame in its transition.
	Step int
	// Weight is the weight of the first image of the
	// transition.
	Weight uint8
	// Duration is the display time of the frame.
	Duration Millis
}

// IsEndpoint returns whether the slot holds an unblended source image.
func (s Slot) IsEndpoint() bool { return s.Step == 0 }

// Timeline returns the frame timing of an animation of images source
// images with the provided configuration. The timeline has
// images*cfg.FrameCount slots and is the same timing that Schedule and
// Scheduler.Run assign to frames.
func Timeline(images int, cfg Config) []Slot {
	if images <= 0 || cfg.FrameCount <= 0 {
		return nil
	}
	slots := make([]Slot, 0, images*cfg.FrameCount)
	for pair := 0; pair < images; pair++ {
		for k := 0; k < cfg.FrameCount; k++ {
			s := Slot{
				Index:    pair*cfg.FrameCount + k,
				Pair:     pair,
				Step:     k,
				Weight:   blend.Weight(k, cfg.FrameCount),
				Duration: cfg.StepDuration,
			}
			if k == 0 {
				s.Duration = cfg.EndpointDuration
			}
			slots = append(slots, s)
		}
	}
	return slots
}

// Schedule returns all the frames of the looping animation of images,
// from images[0] through to the transition from the last image back
// to images[0]. The images must all have the same dimensions and there
// must be at least two of them.
func Schedule(images []Image, cfg Config) []Frame {
	frames := make([]Frame, 0, len(images)*cfg.FrameCount)
	s := Scheduler{Config: cfg}
	// The callback never fails and the context is never
	// cancelled, so Run cannot return an error.
	_ = s.Run(context.Background(), images, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames
}

// Scheduler generates animation frames in order.
type Scheduler struct {
	Config Config

	// Log is used for debug logging. If Log
	// is nil, no logging is performed.
	Log *slog.Logger
}

// Run calls fn with each frame of the looping animation of images in
// animation order. Frame generation within a transition is performed
// by up to Config.Workers goroutines, but fn is only ever called from
// one goroutine at a time.
//
// Run returns the first error returned by fn, or the context's error if
// ctx is cancelled before all frames have been passed to fn. The images
// must all have the same dimensions and there must be at least two of them.
func (s *Scheduler) Run(ctx context.Context, images []Image, fn func(Frame) error) error {
	cfg := s.Config
	n := len(images)
	workers := max(cfg.Workers, 1)
	for pair, a := range images {
		b := images[(pair+1)%n]
		s.debug(ctx, "transition",
			slog.Int("pair", pair),
			slog.Int("next", (pair+1)%n),
			slog.Any("mode", slogext.Stringer{Stringer: blend.ModeFor(a.Mode, b.Mode)}),
		)
		for k := 0; k < cfg.FrameCount; k += workers {
			batch := s.generate(ctx, a, b, pair, k, min(k+workers, cfg.FrameCount))
			for _, f := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				err := fn(f)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// generate returns the frames of steps [from, to) of the transition from
// a to b starting at pair. When more than one frame is requested, each is
// generated in its own goroutine.
func (s *Scheduler) generate(ctx context.Context, a, b Image, pair, from, to int) []Frame {
	cfg := s.Config
	frames := make([]Frame, to-from)
	if len(frames) == 1 {
		frames[0] = frameAt(a, b, pair, from, cfg.FrameCount, cfg.EndpointDuration, cfg.StepDuration)
		return frames
	}
	var wg sync.WaitGroup
	for i := range frames {
		wg.Add(1)
		go func() {
			defer wg.Done()
			frames[i] = frameAt(a, b, pair, from+i, cfg.FrameCount, cfg.EndpointDuration, cfg.StepDuration)
			s.debug(ctx, "generated frame", slog.Int("index", frames[i].Index), slog.Int("weight", int(frames[i].Weight)))
		}()
	}
	wg.Wait()
	return frames
}

func (s *Scheduler) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.Log == nil {
		return
	}
	s.Log.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}
