// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sidecar renders animation timing as an apngasm JSON
// animation description.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kortschak/fade/internal/fade"
)

// Name is the name of the sidecar file written by Write.
const Name = "animation.json"

// Render returns the apngasm animation description for an animation of
// imagesCount source images with frameCount frames per transition.
// Endpoint frames are given the endpoint duration and generated frames
// the step duration, matching the timing of fade.Timeline.
func Render(imagesCount, frameCount int, endpoint, step fade.Millis) string {
	slots := fade.Timeline(imagesCount, fade.Config{
		FrameCount:       frameCount,
		EndpointDuration: endpoint,
		StepDuration:     step,
	})

	var buf strings.Builder
	buf.WriteString("{\n\t\"name\": \"output\",\n\t\"loops\": 0,\n\t\"skip_first\": false,\n\t\"frames\": [\n")
	for i, s := range slots {
		fmt.Fprintf(&buf, "\t\t{\"%04d\": \"%s/1000\"}", s.Index, s.Duration)
		if i < len(slots)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("\t]\n}")
	return buf.String()
}

// Write writes the rendered animation description to the file
// animation.json in dir. The dir is used as a prefix, so it must
// be empty or end with a path separator.
func Write(dir string, imagesCount, frameCount int, endpoint, step fade.Millis) error {
	path := dir + Name
	err := os.WriteFile(path, []byte(Render(imagesCount, frameCount, endpoint, step)), 0o644)
	if err != nil {
		return &fade.Error{Kind: fade.IOError, Op: "write json", Path: path, Index: -1, Err: err}
	}
	return nil
}

// Document is a parsed apngasm animation description.
type Document struct {
	Name      string
	Loops     int
	SkipFirst bool
	Frames    []Entry
}

// Entry is a single frame of an animation description.
type Entry struct {
	// File is the frame's file name stem.
	File string
	// Duration is the display time of the frame.
	Duration fade.Millis
}

// Parse parses an apngasm animation description.
func Parse(data []byte) (*Document, error) {
	var raw struct {
		Name      string              `json:"name"`
		Loops     int                 `json:"loops"`
		SkipFirst bool                `json:"skip_first"`
		Frames    []map[string]string `json:"frames"`
	}
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, err
	}
	doc := Document{
		Name:      raw.Name,
		Loops:     raw.Loops,
		SkipFirst: raw.SkipFirst,
		Frames:    make([]Entry, 0, len(raw.Frames)),
	}
	for i, f := range raw.Frames {
		if len(f) != 1 {
			return nil, fmt.Errorf("frame %d: expected single entry object: %d entries", i, len(f))
		}
		for file, delay := range f {
			e, err := parseEntry(file, delay)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
			doc.Frames = append(doc.Frames, e)
		}
	}
	return &doc, nil
}

func parseEntry(file, delay string) (Entry, error) {
	num, den, ok := strings.Cut(delay, "/")
	if !ok {
		return Entry{}, fmt.Errorf("invalid delay: %q", delay)
	}
	// Durations are rendered as decimal milliseconds, so the
	// numerator may have a fractional part.
	n, err := strconv.ParseFloat(num, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid delay numerator: %w", err)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid delay denominator: %w", err)
	}
	if d <= 0 {
		return Entry{}, errors.New("invalid delay denominator: must be positive")
	}
	return Entry{File: file, Duration: fade.Millis(n * 1000 / float64(d))}, nil
}
