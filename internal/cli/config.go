// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kortschak/fade/internal/fade"
)

// File is a TOML run configuration. Fields that are not present in
// the file are nil and leave the default value unaltered.
type File struct {
	Images      []string  `json:"images,omitempty" toml:"images"`
	Output      *string   `json:"output,omitempty" toml:"output"`
	Frames      *int      `json:"frames,omitempty" toml:"frames"`
	Speed       *int      `json:"speed,omitempty" toml:"speed"`
	Workers     *int      `json:"workers,omitempty" toml:"workers"`
	WriteFrames *bool     `json:"write_frames,omitempty" toml:"write_frames"`
	WriteJSON   *bool     `json:"write_json,omitempty" toml:"write_json"`
	Duration    *Duration `json:"duration,omitempty" toml:"duration"`
	Resize      *Size     `json:"resize,omitempty" toml:"resize"`
}

// Duration is the frame display time configuration in milliseconds.
type Duration struct {
	Important *float32 `json:"important,omitempty" toml:"important"`
	Standard  *float32 `json:"standard,omitempty" toml:"standard"`
}

// Size is an image size in pixels.
type Size struct {
	Width  int `json:"width,omitempty" toml:"width"`
	Height int `json:"height,omitempty" toml:"height"`
}

// LoadFile reads the TOML run configuration at path. Unknown keys and
// values not allowed by Schema are a fade.ConfigurationError.
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, &fade.Error{Kind: fade.ConfigurationError, Op: "load config", Path: path, Index: -1, Err: fmt.Errorf("%s", perr.ErrorWithPosition())}
		}
		return nil, &fade.Error{Kind: fade.ConfigurationError, Op: "load config", Path: path, Index: -1, Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, &fade.Error{Kind: fade.ConfigurationError, Op: "load config", Path: path, Index: -1,
			Err: fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))}
	}
	paths, err := Vet(&f)
	if err != nil {
		fields := make([]string, len(paths))
		for i, p := range paths {
			fields[i] = strings.Join(p, ".")
		}
		return nil, &fade.Error{Kind: fade.ConfigurationError, Op: "load config", Path: path, Index: -1,
			Err: fmt.Errorf("invalid fields: %s: %w", strings.Join(fields, ", "), err)}
	}
	return &f, nil
}

// apply applies the configuration in f to opts and reports whether
// the standard frame duration was set.
func (f *File) apply(opts *Options) (durationSet bool) {
	opts.Images = f.Images
	if f.Output != nil {
		opts.Output = *f.Output
	}
	if f.Frames != nil {
		opts.Config.FrameCount = *f.Frames
	}
	if f.Speed != nil {
		opts.Config.Speed = *f.Speed
	}
	if f.Workers != nil {
		opts.Config.Workers = *f.Workers
	}
	if f.WriteFrames != nil {
		opts.WriteFrames = *f.WriteFrames
	}
	if f.WriteJSON != nil {
		opts.WriteJSON = *f.WriteJSON
	}
	if f.Duration != nil {
		if f.Duration.Important != nil {
			opts.Config.EndpointDuration = fade.Millis(*f.Duration.Important)
		}
		if f.Duration.Standard != nil {
			opts.Config.StepDuration = fade.Millis(*f.Duration.Standard)
			durationSet = true
		}
	}
	if f.Resize != nil {
		opts.Resize = true
		opts.Width, opts.Height = f.Resize.Width, f.Resize.Height
	}
	return durationSet
}
