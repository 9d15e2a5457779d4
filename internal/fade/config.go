// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fade

// Default configuration values.
const (
	DefaultFrameCount       = 10
	DefaultEndpointDuration = Millis(1000)
	DefaultSpeed            = 10

	// MinSpeed and MaxSpeed are the bounds of the encoder speed.
	MinSpeed = 1
	MaxSpeed = 30

	// MaxDimension is the largest width or height that can be
	// encoded.
	MaxDimension = 1<<16 - 1
)

// Config is the configuration of an animation run.
type Config struct {
	// FrameCount is the number of frames for each image
	// transition, including the endpoint frame.
	FrameCount int
	// EndpointDuration is the display time of frames that
	// are source images.
	EndpointDuration Millis
	// StepDuration is the display time of generated frames.
	StepDuration Millis
	// Speed is the encoder speed, trading quality for time.
	// Higher is faster.
	Speed int
	// Workers is the number of frames to generate concurrently.
	// Values less than two generate frames sequentially.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FrameCount:       DefaultFrameCount,
		EndpointDuration: DefaultEndpointDuration,
		StepDuration:     StepDurationFor(DefaultFrameCount),
		Speed:            DefaultSpeed,
		Workers:          1,
	}
}

// StepDurationFor returns the default generated frame duration for the
// given frame count, so that a transition of generated frames lasts one
// second.
func StepDurationFor(frames int) Millis {
	return Millis(1000 / float32(frames))
}

// Validate returns a ConfigurationError if c cannot be used.
func (c Config) Validate() error {
	const op = "validate config"
	switch {
	case c.FrameCount < 1:
		return Errorf(ConfigurationError, op, "frame count must be at least 1: %d", c.FrameCount)
	case c.EndpointDuration < 0:
		return Errorf(ConfigurationError, op, "negative important frame duration: %v", c.EndpointDuration)
	case c.StepDuration < 0:
		return Errorf(ConfigurationError, op, "negative standard frame duration: %v", c.StepDuration)
	case c.Speed < MinSpeed || MaxSpeed < c.Speed:
		return Errorf(ConfigurationError, op, "speed must be between %d and %d: %d", MinSpeed, MaxSpeed, c.Speed)
	case c.Workers < 0:
		return Errorf(ConfigurationError, op, "negative worker count: %d", c.Workers)
	}
	return nil
}
