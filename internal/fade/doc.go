// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fade generates the frames of a looping cross-fade animation.
//
// A sequence of n equally sized images is turned into n×FrameCount frames.
// Each image is shown once as an endpoint frame for the endpoint duration
// and is followed by FrameCount-1 generated frames that blend it into the
// next image, the last image blending back into the first.
//
// The frame generation functions do not validate their input. Callers
// must check image dimensions and configuration before calling them; see
// Config.Validate and the source package.
package fade
